package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yashubustudio/reviewsentiment/sentiment"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	positiveStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A"))
	negativeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E57373"))
	neutralStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#9E9E9E"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#E57373"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#9E9E9E"))
	cardStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).Width(72)
)

type analyzeOptions struct {
	dataset string
	token   string
	text    string
	backend string
}

func newAnalyzeCmd(root *rootOptions) *cobra.Command {
	var opts analyzeOptions
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Classify one random review (or --text) and print the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, root, opts)
		},
	}
	cmd.Flags().StringVar(&opts.dataset, "dataset", "", "TSV file or http(s) URL with a text column")
	cmd.Flags().StringVar(&opts.token, "token", "", "Hugging Face token (default: $HF_TOKEN)")
	cmd.Flags().StringVar(&opts.text, "text", "", "Classify this text instead of a random review")
	cmd.Flags().StringVar(&opts.backend, "backend", "", "remote or local (default from config)")
	return cmd
}

func runAnalyze(cmd *cobra.Command, root *rootOptions, opts analyzeOptions) error {
	cfg, err := root.loadConfig(opts.dataset, opts.backend)
	if err != nil {
		return err
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

	sink := newTermSink(cmd.ErrOrStderr())
	store := sentiment.NewReviewStore(cfg.DatasetPath,
		sentiment.WithTextColumn(cfg.TextColumn),
		sentiment.WithStoreLogger(root.logger))
	ctrl := sentiment.NewController(store, classifier, sink,
		sentiment.WithTimeout(cfg.Timeout()),
		sentiment.WithControllerLogger(root.logger))

	ctx := cmd.Context()
	token := resolveToken(opts.token)
	if strings.TrimSpace(opts.text) != "" {
		_, err = ctrl.AnalyzeText(ctx, opts.text, token)
	} else {
		if err := ctrl.LoadReviews(ctx); err != nil && !errors.Is(err, sentiment.ErrEmptyDataset) {
			return err
		}
		_, err = ctrl.Analyze(ctx, token)
	}
	fmt.Fprintln(cmd.OutOrStdout(), sink.Render())
	return err
}

// termSink collects controller updates and renders them as a card.
// Status changes are echoed to the progress writer as they arrive.
type termSink struct {
	mu       sync.Mutex
	progress io.Writer

	review  string
	icon    sentiment.Icon
	label   string
	score   string
	status  string
	isError bool
}

var _ sentiment.Sink = (*termSink)(nil)

func newTermSink(progress io.Writer) *termSink {
	return &termSink{progress: progress, label: sentiment.Neutral.Title()}
}

func (s *termSink) SetStatus(msg string, isError bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status, s.isError = msg, isError
	if isError {
		fmt.Fprintln(s.progress, errorStyle.Render(msg))
		return
	}
	fmt.Fprintln(s.progress, mutedStyle.Render(msg))
}

func (s *termSink) SetModelStatus(string) {}

func (s *termSink) SetCount(n int, ready bool) {
	if !ready {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.progress, mutedStyle.Render(fmt.Sprintf("%d reviews loaded", n)))
}

func (s *termSink) SetReview(text string) {
	s.mu.Lock()
	s.review = text
	s.mu.Unlock()
}

func (s *termSink) SetIcon(icon sentiment.Icon) {
	s.mu.Lock()
	s.icon = icon
	s.mu.Unlock()
}

func (s *termSink) SetResult(label, score string) {
	s.mu.Lock()
	s.label, s.score = label, score
	s.mu.Unlock()
}

func (s *termSink) SetBusy(bool) {}

// Render returns the review card for the last attempt.
func (s *termSink) Render() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	style := neutralStyle
	switch s.icon {
	case sentiment.IconThumbsUp:
		style = positiveStyle
	case sentiment.IconThumbsDown:
		style = negativeStyle
	}
	verdict := style.Render(s.icon.Glyph() + " " + s.label)
	if s.score != "" {
		verdict = lipgloss.JoinHorizontal(lipgloss.Top, verdict, "  ", s.score)
	}

	review := s.review
	if review == "" {
		review = mutedStyle.Render("(no review)")
	}
	status := mutedStyle.Render(s.status)
	if s.isError {
		status = errorStyle.Render(s.status)
	}
	return cardStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Review"),
		review,
		"",
		verdict,
		status,
	))
}
