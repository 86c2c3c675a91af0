package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/garyjia/event-invoice-analyzer/internal/application/service"
	"github.com/garyjia/event-invoice-analyzer/internal/extraction"
	"github.com/garyjia/event-invoice-analyzer/internal/matching"
	"github.com/garyjia/event-invoice-analyzer/pkg/utils"
)

const usage = `Usage: reconcile-cli -reference <sheet> [-mapping <sheet>] [flags] <vendor sheet>...

Matches vendor price sheets against a reference product list and prints the
price series report as JSON. Columns are identified by header keywords.

Flags:
`

type options struct {
	reference    string
	mapping      string
	output       string
	threshold    float64
	maxUnmatched int
	verbose      bool
	vendors      []string
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}

	level := "warn"
	if opts.verbose {
		level = "debug"
	}
	logger, closeLog, err := utils.NewLogger(utils.LoggerConfig{Level: level, OutputPath: "stderr", Format: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	out := io.Writer(os.Stdout)
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}

	if err := run(context.Background(), opts, out, logger); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		closeLog()
		os.Exit(1)
	}
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	fs := flag.NewFlagSet("reconcile-cli", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}

	opts := &options{}
	fs.StringVar(&opts.reference, "reference", "", "Reference product list (.xlsx or .csv)")
	fs.StringVar(&opts.mapping, "mapping", "", "Optional mapping table from invoice names to reference names")
	fs.StringVar(&opts.output, "out", "", "Write the report to this file instead of stdout")
	fs.Float64Var(&opts.threshold, "threshold", matching.DefaultThreshold, "Minimum fuzzy match score (0-100)")
	fs.IntVar(&opts.maxUnmatched, "max-unmatched", 50, "Maximum unmatched rows listed in the report")
	fs.BoolVar(&opts.verbose, "verbose", false, "Log match decisions to stderr")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	opts.vendors = fs.Args()

	if opts.reference == "" || len(opts.vendors) == 0 {
		fs.Usage()
		return nil, fmt.Errorf("reference and at least one vendor sheet are required")
	}
	return opts, nil
}

func run(ctx context.Context, opts *options, out io.Writer, logger *zap.Logger) error {
	cfg := matching.DefaultConfig()
	cfg.Threshold = opts.threshold
	if err := cfg.Validate(); err != nil {
		return err
	}

	svc := service.NewReconciliationService(
		extraction.KeywordIdentifier{},
		matching.NewMatcher(cfg, logger),
		service.ReconcileConfig{MaxUnmatched: opts.maxUnmatched},
		nil,
		logger,
	)

	in := service.ReconcileInput{Reference: sheetFile(opts.reference)}
	if opts.mapping != "" {
		m := sheetFile(opts.mapping)
		in.Mapping = &m
	}
	for _, v := range opts.vendors {
		in.Vendors = append(in.Vendors, sheetFile(v))
	}

	report, err := svc.Reconcile(ctx, in)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func sheetFile(path string) service.SheetFile {
	return service.SheetFile{Name: filepath.Base(path), Path: path}
}
