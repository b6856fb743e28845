package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yashubustudio/reviewsentiment/internal/logging"
	"yashubustudio/reviewsentiment/sentiment"
)

type rootOptions struct {
	configPath string
	verbose    bool
	logger     *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{logger: zap.NewNop()}
	root := &cobra.Command{
		Use:   "sentiment-cli",
		Short: "Classify review sentiment from a TSV dataset",
		Long: `sentiment-cli picks reviews from a TSV dataset with a "text" column and
classifies them with the Hugging Face Inference API or a local ONNX model.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts.logger = logging.New(opts.verbose, nil)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = opts.logger.Sync()
		},
	}
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config.json (default: ./config.json)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(newAnalyzeCmd(opts))
	root.AddCommand(newBatchCmd(opts))
	return root
}

// loadConfig reads the config file and applies command-line overrides.
func (o *rootOptions) loadConfig(dataset, backend string) (sentiment.Config, error) {
	cfg, err := sentiment.LoadConfig(o.configPath)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	if dataset = strings.TrimSpace(dataset); dataset != "" {
		cfg.DatasetPath = dataset
	}
	switch b := sentiment.Backend(strings.ToLower(strings.TrimSpace(backend))); b {
	case "":
	case sentiment.BackendRemote, sentiment.BackendLocal:
		cfg.Backend = b
	default:
		return cfg, fmt.Errorf("unknown backend %q (want remote or local)", backend)
	}
	return cfg, nil
}

// resolveToken prefers the flag and falls back to HF_TOKEN.
func resolveToken(flagValue string) string {
	if v := strings.TrimSpace(flagValue); v != "" {
		return v
	}
	return strings.TrimSpace(os.Getenv("HF_TOKEN"))
}
