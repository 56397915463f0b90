// Command audit runs the test battery over a CSV export and prints the result
// as JSON. It only decodes the file and serializes the outcome; everything
// else lives in the core packages. Nothing is persisted.
package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"ledger_audit/pkg/core/checks"
	"ledger_audit/pkg/core/engine"
	"ledger_audit/pkg/core/schema"
	"ledger_audit/pkg/core/score"
)

func main() {
	var (
		file    = flag.String("file", "", "CSV file to audit (header row required)")
		catalog = flag.String("catalog", "", "domain catalog YAML file")
		config  = flag.String("config", "", "optional threshold override file (.yaml or .hjson)")
		pretty  = flag.Bool("pretty", true, "indent JSON output")
	)
	flag.Parse()

	if *file == "" || *catalog == "" {
		fmt.Println("Usage: audit -file ledger.csv -catalog config/catalogs/ap.yaml [-config thresholds.hjson]")
		os.Exit(2)
	}

	cat, err := schema.LoadCatalog(*catalog)
	if err != nil {
		fmt.Printf("[FATAL] %v\n", err)
		os.Exit(1)
	}

	thresholds := checks.DefaultConfig()
	if *config != "" {
		opts, err := engine.LoadOptions(*config)
		if err != nil {
			fmt.Printf("[FATAL] %v\n", err)
			os.Exit(1)
		}
		thresholds = opts.Thresholds
	}

	headers, rows, err := readCSV(*file)
	if err != nil {
		fmt.Printf("[FATAL] %v\n", err)
		os.Exit(1)
	}

	eng, err := engine.New(cat, thresholds, score.DefaultWeights())
	if err != nil {
		fmt.Printf("[FATAL] %v\n", err)
		os.Exit(1)
	}

	result, err := eng.Run(context.Background(), headers, rows)
	if err != nil {
		fmt.Printf("[FATAL] %v\n", err)
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(result); err != nil {
		fmt.Printf("[FATAL] encode result: %v\n", err)
		os.Exit(1)
	}
}

// readCSV splits a CSV file into its header row and data rows.
func readCSV(path string) ([]string, [][]any, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("%s is empty", path)
	}

	headers := records[0]
	rows := make([][]any, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make([]any, len(rec))
		for i, cell := range rec {
			row[i] = cell
		}
		rows = append(rows, row)
	}
	return headers, rows, nil
}
