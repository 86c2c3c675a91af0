package costs

// DocumentResult is the outcome of processing one uploaded document.
// Exactly one of Breakdown and Error is set.
type DocumentResult struct {
	FileName  string         `json:"file_name"`
	Success   bool           `json:"success"`
	Breakdown *CostBreakdown `json:"breakdown,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// Succeeded builds a successful DocumentResult
func Succeeded(fileName string, b *CostBreakdown) DocumentResult {
	return DocumentResult{FileName: fileName, Success: true, Breakdown: b}
}

// Failed builds a failed DocumentResult
func Failed(fileName string, err error) DocumentResult {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	return DocumentResult{FileName: fileName, Success: false, Error: msg}
}

// DocumentFailure names a document excluded from the combined totals
type DocumentFailure struct {
	FileName string `json:"file_name"`
	Error    string `json:"error"`
}

// CombinedTotals is the element-wise sum of successful breakdowns in a batch
type CombinedTotals struct {
	Totals        RoundedTotals     `json:"totals"`
	DocumentCount int               `json:"document_count"`
	SuccessCount  int               `json:"success_count"`
	FailureCount  int               `json:"failure_count"`
	Failures      []DocumentFailure `json:"failures,omitempty"`

	raw Totals
}

// Raw returns the unrounded combined totals
func (c *CombinedTotals) Raw() Totals {
	return c.raw
}

// Combine folds successful document breakdowns into combined totals.
// Failed documents are counted and listed, never summed as zero. The combined
// entertainment figure is recomputed from the combined subtypes.
func Combine(results []DocumentResult) *CombinedTotals {
	c := &CombinedTotals{DocumentCount: len(results)}

	var t Totals
	for _, r := range results {
		if !r.Success || r.Breakdown == nil {
			c.FailureCount++
			c.Failures = append(c.Failures, DocumentFailure{FileName: r.FileName, Error: r.Error})
			continue
		}
		c.SuccessCount++

		raw := r.Breakdown.raw
		t.Food += raw.Food
		t.Drinks += raw.Drinks
		t.Bowling += raw.Bowling
		t.Darts += raw.Darts
		t.MiniGolf += raw.MiniGolf
		t.Shuffleboard += raw.Shuffleboard
		t.Karaoke += raw.Karaoke
		t.OtherEntertainment += raw.OtherEntertainment
		t.BookingFee += raw.BookingFee
		t.GrandTotal += raw.GrandTotal
	}
	t.Entertainment = t.entertainmentSum()

	c.raw = t
	c.Totals = t.Rounded()
	return c
}

// CombineBreakdowns folds breakdowns that are all known to be successful
func CombineBreakdowns(breakdowns []*CostBreakdown) *CombinedTotals {
	results := make([]DocumentResult, 0, len(breakdowns))
	for _, b := range breakdowns {
		results = append(results, Succeeded("", b))
	}
	return Combine(results)
}
