package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yashubustudio/reviewsentiment/sentiment"
)

type batchOptions struct {
	dataset   string
	token     string
	backend   string
	output    string
	outputDir string
}

type batchRow struct {
	Text   string
	Result sentiment.Result
	Err    error
}

func newBatchCmd(root *rootOptions) *cobra.Command {
	var opts batchOptions
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Classify every review and write the results to CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd, root, opts)
		},
	}
	cmd.Flags().StringVar(&opts.dataset, "dataset", "", "TSV file or http(s) URL with a text column")
	cmd.Flags().StringVar(&opts.token, "token", "", "Hugging Face token (default: $HF_TOKEN)")
	cmd.Flags().StringVar(&opts.backend, "backend", "", "remote or local (default from config)")
	cmd.Flags().StringVar(&opts.output, "output", "", "CSV file to write (default: --output-dir/<dataset>_sentiment_*.csv)")
	cmd.Flags().StringVar(&opts.outputDir, "output-dir", "csv", "Directory for result CSVs when --output is omitted")
	return cmd
}

func runBatch(cmd *cobra.Command, root *rootOptions, opts batchOptions) error {
	cfg, err := root.loadConfig(opts.dataset, opts.backend)
	if err != nil {
		return err
	}
	outputPath, err := resolveOutputPath(strings.TrimSpace(opts.output), strings.TrimSpace(opts.outputDir), cfg.DatasetPath)
	if err != nil {
		return err
	}
	store := sentiment.NewReviewStore(cfg.DatasetPath,
		sentiment.WithTextColumn(cfg.TextColumn),
		sentiment.WithStoreLogger(root.logger))
	ctx := cmd.Context()
	if _, err := store.Load(ctx); err != nil {
		return fmt.Errorf("load reviews: %w", err)
	}

	classifier, closeClassifier, err := sentiment.NewClassifier(cfg, root.logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeClassifier(); err != nil {
			root.logger.Warn("classifier close failed", zap.Error(err))
		}
	}()

	rows, err := classifyAll(ctx, classifier, store.Reviews(), resolveToken(opts.token), cfg.Timeout(), root.logger)
	if err != nil {
		return err
	}

	if err := writeResultCSV(outputPath, rows); err != nil {
		return err
	}
	printBatchSummary(cmd.OutOrStdout(), rows, outputPath)
	return nil
}

// classifyAll runs the reviews one at a time. Per-review failures are kept in
// the row; only cancellation of ctx stops the run.
func classifyAll(ctx context.Context, classifier sentiment.Classifier, reviews []string, token string,
	timeout time.Duration, logger *zap.Logger) ([]batchRow, error) {
	rows := make([]batchRow, 0, len(reviews))
	for i, text := range reviews {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		attemptCtx, cancel := ctx, context.CancelFunc(func() {})
		if timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, timeout)
		}
		res, err := classifier.Classify(attemptCtx, text, token)
		cancel()
		if err != nil {
			logger.Warn("review failed", zap.Int("row", i+1), zap.Error(err))
			res = sentiment.Result{Sentiment: sentiment.Neutral}
		}
		rows = append(rows, batchRow{Text: text, Result: res, Err: err})
	}
	return rows, nil
}

// resolveOutputPath returns the CSV destination. Without an explicit path the
// file is named after the dataset inside dir. Writing over a local dataset is
// refused.
func resolveOutputPath(path, dir, dataset string) (string, error) {
	if path == "" {
		if dir == "" {
			dir = "csv"
		}
		path = filepath.Join(dir, fmt.Sprintf("%s_sentiment_%s.csv",
			datasetStem(dataset), time.Now().Format("20060102150405")))
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve output path: %w", err)
	}
	if !isRemoteSource(dataset) && dataset != "" {
		if absDataset, err := filepath.Abs(dataset); err == nil && absDataset == absPath {
			return "", fmt.Errorf("output %s would overwrite the dataset", filepath.Base(absPath))
		}
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	return absPath, nil
}

func datasetStem(dataset string) string {
	base := dataset
	if isRemoteSource(dataset) {
		if u, err := url.Parse(dataset); err == nil {
			base = u.Path
		}
	}
	base = filepath.Base(filepath.FromSlash(base))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		return "reviews"
	}
	return stem
}

func isRemoteSource(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func writeResultCSV(path string, rows []batchRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create result file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write([]string{"text", "sentiment", "label", "score", "error"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range rows {
		score, errText := "", ""
		if row.Err != nil {
			errText = row.Err.Error()
		} else {
			score = sentiment.ScoreText(row.Result.Score)
		}
		record := []string{row.Text, string(row.Result.Sentiment), row.Result.Label, score, errText}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush result: %w", err)
	}
	return f.Close()
}

func printBatchSummary(w io.Writer, rows []batchRow, path string) {
	counts := map[sentiment.Sentiment]int{}
	failed := 0
	for _, row := range rows {
		if row.Err != nil {
			failed++
			continue
		}
		counts[row.Result.Sentiment]++
	}
	lines := []string{
		titleStyle.Render(fmt.Sprintf("%d reviews classified", len(rows))),
		positiveStyle.Render(fmt.Sprintf("%s Positive  %d", sentiment.IconThumbsUp.Glyph(), counts[sentiment.Positive])),
		negativeStyle.Render(fmt.Sprintf("%s Negative  %d", sentiment.IconThumbsDown.Glyph(), counts[sentiment.Negative])),
		neutralStyle.Render(fmt.Sprintf("%s Neutral   %d", sentiment.IconQuestion.Glyph(), counts[sentiment.Neutral])),
	}
	if failed > 0 {
		lines = append(lines, errorStyle.Render(fmt.Sprintf("%d failed", failed)))
	}
	lines = append(lines, mutedStyle.Render("saved to "+path))
	fmt.Fprintln(w, cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...)))
}
