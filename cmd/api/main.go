package main

import (
	"fmt"
	"net/http"
	"os"

	"ledger_audit/pkg/api/audit"
	"ledger_audit/pkg/core/checks"
	"ledger_audit/pkg/core/engine"
	"ledger_audit/pkg/core/schema"

	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	godotenv.Load()

	catalogDir := os.Getenv("CATALOG_DIR")
	if catalogDir == "" {
		catalogDir = "config/catalogs"
	}

	catalogs, err := schema.LoadCatalogDir(catalogDir)
	if err != nil {
		fmt.Printf("[FATAL] Failed to load catalogs from %s: %v\n", catalogDir, err)
		os.Exit(1)
	}
	fmt.Printf("[CATALOG] Loaded %d domain catalogs from %s\n", len(catalogs), catalogDir)

	thresholds := checks.DefaultConfig()
	if path := os.Getenv("THRESHOLD_CONFIG"); path != "" {
		opts, err := engine.LoadOptions(path)
		if err != nil {
			fmt.Printf("[FATAL] Failed to load threshold config %s: %v\n", path, err)
			os.Exit(1)
		}
		thresholds = opts.Thresholds
		fmt.Printf("[CONFIG] Threshold overrides loaded from %s\n", path)
	}

	handler := audit.NewHandler(catalogs, thresholds)
	http.HandleFunc("/api/audit/run", handler.HandleRun)
	http.HandleFunc("/api/audit/domains", handler.HandleDomains)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	fmt.Printf("API server starting on :%s...\n", port)
	fmt.Println("  - POST /api/audit/run")
	fmt.Println("  - GET  /api/audit/domains")

	if err := http.ListenAndServe(":"+port, nil); err != nil {
		fmt.Printf("[FATAL] Server failed to start: %v\n", err)
		os.Exit(1)
	}
}
