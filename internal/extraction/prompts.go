package extraction

import (
	"bytes"
	"fmt"
	"os"
	"text/template"

	"gopkg.in/yaml.v3"
)

// PromptSpec is one prompt with its model parameters
type PromptSpec struct {
	Temperature  float32 `yaml:"temperature"`
	MaxTokens    int     `yaml:"max_tokens"`
	System       string  `yaml:"system"`
	UserTemplate string  `yaml:"user_template"`
}

// PromptConfig holds the prompts used by the extractor and column identifier
type PromptConfig struct {
	InvoiceExtraction    PromptSpec `yaml:"invoice_extraction"`
	ColumnIdentification PromptSpec `yaml:"column_identification"`
}

const defaultPromptsYAML = `
invoice_extraction:
  temperature: 0.1
  max_tokens: 4096
  system: >-
    You extract structured billing data from event invoices issued by an
    entertainment venue that sells food, drinks, bowling, darts, mini golf,
    shuffleboard and karaoke. Always respond with a single valid JSON object.
  user_template: |-
    Extract every charge from the invoice "{{.FileName}}".

    Package tiers sold by the venue:
    - Front Nine: food-only package
    - Back Nine: drinks-only package
    - Full Course: combined food and drinks package. Its listed total includes a
      preloaded drink credit. Report that credit in "preloadedDrinks"
      (quantity, pricePerPerson, total) and categorise the package line as FOOD.

    Allowed categories: {{range $i, $c := .Categories}}{{if $i}}, {{end}}{{$c}}{{end}}.
    Use BOOKING_FEE for deposits, room rental, service and booking fees.
    Use OTHER_ENTERTAINMENT for activities that fit no other category.

    Respond with JSON of exactly this shape:
    {
      "eventDetails": {"eventName": "", "eventDate": "YYYY-MM-DD", "venue": "", "guestCount": 0, "packageTier": "FRONT_NINE|BACK_NINE|FULL_COURSE|", "invoiceNumber": ""},
      "lineItems": [{"description": "", "quantity": 0, "unitPrice": 0, "total": 0, "category": "", "notes": ""}],
      "preloadedDrinks": null
    }
    Numbers must be plain JSON numbers without currency symbols.
    {{if .Text}}
    Invoice content:
    {{.Text}}
    {{end}}
column_identification:
  temperature: 0
  max_tokens: 300
  system: >-
    You identify columns in vendor price spreadsheets. Always respond with a
    single valid JSON object.
  user_template: |-
    The spreadsheet has these column headers:
    {{range .Headers}}- {{.}}
    {{end}}
    Sample rows:
    {{range .SampleRows}}{{.}}
    {{end}}
    Which header holds the product description, which holds the unit price and
    which holds the order or invoice date? Respond with
    {"productColumn": "", "priceColumn": "", "dateColumn": ""} using header
    names exactly as listed, or "" when no header fits.
`

// DefaultPrompts returns the built-in prompt configuration
func DefaultPrompts() *PromptConfig {
	var prompts PromptConfig
	if err := yaml.Unmarshal([]byte(defaultPromptsYAML), &prompts); err != nil {
		panic(fmt.Sprintf("invalid built-in prompts: %v", err))
	}
	return &prompts
}

// LoadPrompts loads prompt configuration from a YAML file.
// Sections missing from the file keep their built-in values.
func LoadPrompts(promptsPath string) (*PromptConfig, error) {
	prompts := DefaultPrompts()
	if promptsPath == "" {
		return prompts, nil
	}

	data, err := os.ReadFile(promptsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	if err := yaml.Unmarshal(data, prompts); err != nil {
		return nil, fmt.Errorf("failed to unmarshal prompts: %w", err)
	}

	return prompts, nil
}

// renderTemplate renders a template with provided data
func renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("prompt").Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
