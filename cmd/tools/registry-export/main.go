// cmd/tools/registry-export/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"procurement-ai/internal/common/config"
	"procurement-ai/internal/server"
	"procurement-ai/pkg/registry"
)

func main() {
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	showCmd := flag.NewFlagSet("show", flag.ExitOnError)

	configPath := exportCmd.String("config", "", "Config file to read routes and timeouts from (defaults when empty)")
	outPath := exportCmd.String("out", "", "Write the catalog to this file instead of stdout")

	validatePath := validateCmd.String("path", "configs/transform-catalog.json", "Path to catalog file")

	showPath := showCmd.String("path", "configs/transform-catalog.json", "Path to catalog file")
	showID := showCmd.String("id", "", "Transform ID (e.g., parse-rfp)")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "export":
		exportCmd.Parse(os.Args[2:])
		if err := exportCatalog(*configPath, *outPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting catalog: %v\n", err)
			os.Exit(1)
		}

	case "validate":
		validateCmd.Parse(os.Args[2:])
		cat, err := registry.LoadCatalog(*validatePath)
		if err != nil {
			fmt.Printf("Failed to load catalog: %v\n", err)
			os.Exit(1)
		}
		if len(cat.Transforms) == 0 {
			fmt.Println("Catalog validation failed: catalog contains no transforms")
			os.Exit(1)
		}
		if err := cat.Validate(); err != nil {
			fmt.Printf("Catalog validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Catalog validation passed. Found %d transforms.\n", len(cat.Transforms))

	case "show":
		showCmd.Parse(os.Args[2:])
		if *showID == "" {
			fmt.Println("Error: id is required for show.")
			showCmd.Usage()
			os.Exit(1)
		}
		cat, err := registry.LoadCatalog(*showPath)
		if err != nil {
			fmt.Printf("Failed to load catalog: %v\n", err)
			os.Exit(1)
		}
		t, ok := cat.Find(*showID)
		if !ok {
			fmt.Printf("Transform %s not found\n", *showID)
			os.Exit(1)
		}
		data, _ := json.MarshalIndent(t, "", "  ")
		fmt.Println(string(data))

	case "help":
		fallthrough
	default:
		help()
	}
}

func exportCatalog(configPath, outPath string) error {
	cfg := config.Defaults()
	if configPath != "" {
		loaded, err := config.LoadFromFile(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	cat := server.BuildCatalog(cfg)
	if err := cat.Validate(); err != nil {
		return fmt.Errorf("generated catalog is invalid: %w", err)
	}

	data, err := json.MarshalIndent(cat, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal catalog: %w", err)
	}

	if outPath == "" {
		fmt.Println(string(data))
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write catalog file: %w", err)
	}
	fmt.Printf("Wrote %d transforms to %s\n", len(cat.Transforms), outPath)
	return nil
}

func help() {
	fmt.Print(`
Usage: registry-export <command> [flags]

Commands:
  export   Print or write the transform catalog built from configuration
  validate Validate a catalog file
  show     Print one transform from a catalog file
  help     Show this help message

Examples:
  registry-export export -out configs/transform-catalog.json
  registry-export export -config configs/config.yaml
  registry-export validate -path configs/transform-catalog.json
  registry-export show -path configs/transform-catalog.json -id compare-proposals

Use 'registry-export <command> -h' for more information about a command.
` + "\n")
}
