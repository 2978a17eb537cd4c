package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/randalmurphal/flowlens/pkg/flowlens/config"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootFlags struct {
	configPath string
	envFile    string
}

var rootCmd = &cobra.Command{
	Use:   "flowlens",
	Short: "Static and AI-assisted analysis of Node-RED flows",
	Long: `flowlens inspects Node-RED workspaces for disconnected nodes, missing
error handling, heavy function code and unauthenticated endpoints, scores
flow complexity and recognizes common flow archetypes. Analysis can be
delegated to OpenAI, Anthropic, Ollama or LM Studio models, falling back
to the builtin rules when a backend is unavailable.`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&rootFlags.configPath, "config", "c", "", "Config file (YAML or JSON)")
	pf.StringVar(&rootFlags.envFile, "env-file", ".env", "Dotenv file with provider credentials")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.Version = version
}

// loadSettings reads the dotenv file, if any, and then the config file.
// Environment variables referenced by the config are expanded after the
// dotenv file is loaded.
func loadSettings() (config.Settings, error) {
	if rootFlags.envFile != "" {
		// A missing .env is normal outside development.
		_ = godotenv.Load(rootFlags.envFile)
	}
	return config.LoadSettings(rootFlags.configPath)
}

func newLogger(s config.Settings, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: s.SlogLevel()}
	if s.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func stderrLogger(s config.Settings) *slog.Logger {
	return newLogger(s, os.Stderr)
}
