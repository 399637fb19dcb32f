// Package main implements mapctl, a command-line driver for the mapping
// engine core. It loads a payload and a target schema from disk, optionally
// a partner-supplied mapping spec, prepares a normative spec via
// mapengine.Engine, executes it against the payload, and writes the mapped
// result as JSON.
//
// Usage:
//
//	mapctl [flags]
//
// Flags:
//
//	-payload string         Path to the source payload (JSON or YAML)
//	-target-schema string   Path to the target schema (JSON or YAML)
//	-partner-spec string    Optional partner-supplied mapping spec
//	-out string             Output path (default: stdout)
//	-verbose                Verbose output
//	-dry-run                Prepare and validate the spec without executing it
//	-refine                 Enable the refinement loop (requires an oracle)
//	-max-iterations int     Bound on refinement iterations (default: 3)
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/brightfeed/mapengine"
)

var (
	payloadPath      = flag.String("payload", "", "Path to the source payload (JSON or YAML)")
	targetSchemaPath = flag.String("target-schema", "", "Path to the target schema (JSON or YAML)")
	partnerSpecPath  = flag.String("partner-spec", "", "Optional partner-supplied mapping spec (JSON, YAML, or raw text)")
	outPath          = flag.String("out", "", "Output path for the mapped result (default: stdout)")
	verbose          = flag.Bool("verbose", false, "Verbose output")
	dryRun           = flag.Bool("dry-run", false, "Prepare and validate the spec without executing it")
	refine           = flag.Bool("refine", false, "Enable the refinement loop (requires an oracle)")
	maxIterations    = flag.Int("max-iterations", 3, "Bound on refinement iterations")
	help             = flag.Bool("help", false, "Show help message")
)

func main() {
	flag.Parse()

	if *help {
		showHelp()
		return
	}

	if *payloadPath == "" || *targetSchemaPath == "" {
		log.Fatalf("❌ -payload and -target-schema are required")
	}

	runID := uuid.New().String()
	cfg := &RunConfig{
		PayloadPath:      *payloadPath,
		TargetSchemaPath: *targetSchemaPath,
		PartnerSpecPath:  *partnerSpecPath,
		OutputPath:       *outPath,
		Verbose:          *verbose,
		DryRun:           *dryRun,
		Refine:           *refine,
		MaxIterations:    *maxIterations,
	}

	if cfg.Verbose {
		log.Printf("🚀 mapctl run %s starting", runID)
		log.Printf("📦 payload: %s", cfg.PayloadPath)
		log.Printf("📋 target schema: %s", cfg.TargetSchemaPath)
		if cfg.PartnerSpecPath != "" {
			log.Printf("📝 partner spec: %s", cfg.PartnerSpecPath)
		}
		if cfg.DryRun {
			log.Printf("🔍 dry run mode enabled")
		}
	}

	if err := run(cfg, runID); err != nil {
		log.Fatalf("❌ run %s failed: %v", runID, err)
	}

	if cfg.Verbose {
		log.Printf("🎉 run %s completed successfully", runID)
	}
}

func run(cfg *RunConfig, runID string) error {
	payload, err := loadValue(cfg.PayloadPath)
	if err != nil {
		return err
	}
	targetSchema, err := loadValue(cfg.TargetSchemaPath)
	if err != nil {
		return err
	}

	var partnerSpec *mapengine.RepairInput
	if cfg.PartnerSpecPath != "" {
		spec, err := loadPartnerSpec(cfg.PartnerSpecPath)
		if err != nil {
			return err
		}
		partnerSpec = &spec
	}

	engine := mapengine.NewEngine().WithMaxIterations(cfg.MaxIterations)
	if cfg.Refine {
		if cfg.Verbose {
			log.Printf("⚠️  run %s: -refine set but mapctl wires no oracle backend; refinement is skipped", runID)
		}
	}

	spec, err := engine.PrepareMapping(partnerSpec, payload, targetSchema)
	if err != nil {
		return fmt.Errorf("preparing mapping: %w", err)
	}

	if cfg.Verbose {
		analysis := mapengine.AnalyzePayload(payload)
		for _, issue := range analysis.Issues {
			log.Printf("⚠️  %s: %s", issue.Field, issue.Message)
		}
	}

	if cfg.DryRun {
		return writeValue(cfg.OutputPath, spec)
	}

	flattened := mapengine.FlattenTargetSchema(targetSchema)
	canonicalPaths := make([]string, 0, len(flattened))
	for _, p := range mapengine.ItemTargetPaths(flattened) {
		canonicalPaths = append(canonicalPaths, mapengine.NormalizeItemPath(p))
	}

	executor := mapengine.NewExecutor(spec, canonicalPaths)
	result, err := executor.Execute(payload)
	if err != nil {
		return fmt.Errorf("executing mapping: %w", err)
	}

	return writeValue(cfg.OutputPath, result)
}

func loadPartnerSpec(path string) (mapengine.RepairInput, error) {
	if isYAMLPath(path) || strings.HasSuffix(strings.ToLower(path), ".json") {
		v, err := loadValue(path)
		if err != nil {
			return mapengine.RepairInput{}, err
		}
		return mapengine.SpecValue(v), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return mapengine.RepairInput{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return mapengine.SpecText(string(data)), nil
}

func writeValue(path string, v mapengine.Value) error {
	encoded, err := v.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	if path == "" {
		fmt.Println(string(encoded))
		return nil
	}
	return os.WriteFile(path, encoded, 0o644)
}

func showHelp() {
	fmt.Println(`mapctl - mapping engine command-line driver

Loads a payload and a target schema, optionally a partner-supplied mapping
spec, prepares a normative mapping spec and executes it against the payload.

USAGE:
    mapctl [flags]

FLAGS:`)
	flag.PrintDefaults()
	fmt.Println(`
EXAMPLES:
    # Auto-map a payload against a target schema
    mapctl -payload feed.json -target-schema target.yaml

    # Repair and execute a partner-supplied spec
    mapctl -payload feed.json -target-schema target.yaml -partner-spec partner_spec.json

    # Preview the prepared spec without executing it
    mapctl -payload feed.json -target-schema target.yaml -dry-run -verbose`)
}
