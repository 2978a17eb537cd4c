package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/flowlens/pkg/flowlens/source"
)

var analyzeFlags struct {
	ai     bool
	model  string
	format string
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <flows.json>",
	Short: "Run one analysis pass over a flows file and print the result",
	Long: `Runs a single workspace pass and prints it. The file may hold a bare
flows array or an export document with a "flows" key.

With --ai every flow is sent to the selected model. Flows whose backend
is unavailable are analyzed with the builtin rules instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.BoolVar(&analyzeFlags.ai, "ai", false, "Analyze with the selected model")
	f.StringVar(&analyzeFlags.model, "model", "", "Model id to select before the pass (implies --ai)")
	f.StringVarP(&analyzeFlags.format, "format", "f", "text", "Output format: text or json")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analyzeFlags.format != "text" && analyzeFlags.format != "json" {
		return fmt.Errorf("unknown format %q: want text or json", analyzeFlags.format)
	}

	settings, err := loadSettings()
	if err != nil {
		return err
	}
	settings.Metrics.Enabled = false

	logger := stderrLogger(settings)
	st, err := buildStack(settings, source.NewFile(args[0], source.WithFileLogger(logger)), logger)
	if err != nil {
		return err
	}
	defer st.Close()

	ai := analyzeFlags.ai
	if analyzeFlags.model != "" {
		if !st.registry.SetCurrentModel(analyzeFlags.model) {
			return fmt.Errorf("unknown model %q", analyzeFlags.model)
		}
		ai = true
	}

	result, err := st.analyzer.Analyze(cmd.Context(), ai)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if analyzeFlags.format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return writeText(out, result)
}
