package app

import (
	"context"
	"fmt"

	"fyne.io/fyne/v2"
	fyneapp "fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"yashubustudio/reviewsentiment/internal/logging"
	"yashubustudio/reviewsentiment/sentiment"
)

const fyneAppID = "studio.yashubu.reviewsentiment"

// Run loads the configuration, starts the review load and shows the desktop UI.
func Run(cfgPath string, verbose bool) error {
	a := fyneapp.NewWithID(fyneAppID)

	logBind := binding.NewString()
	logger := logging.New(verbose, newLogCapture(logBind, 300))
	defer func() { _ = logger.Sync() }()

	cfg, err := sentiment.LoadConfig(cfgPath)
	if err != nil {
		showFatalError(a, fmt.Errorf("load config: %w", err))
		return err
	}

	classifier, closeClassifier, err := sentiment.NewClassifier(cfg, logger)
	if err != nil {
		showFatalError(a, err)
		return err
	}
	defer func() {
		if err := closeClassifier(); err != nil {
			logger.Warn("classifier close failed", zap.Error(err))
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	u := buildUI(ctx, a, cfg, cfgPath, classifier, logger, logBind)
	logger.Info("starting",
		zap.String("backend", string(cfg.Backend)),
		zap.String("dataset", cfg.DatasetPath))
	u.loadReviews()
	u.w.ShowAndRun()
	u.ctrl.Cancel()
	u.ctrl.Wait()
	return nil
}

func showFatalError(a fyne.App, err error) {
	win := a.NewWindow("Review Sentiment")
	win.SetContent(widget.NewLabel(err.Error()))
	win.Resize(fyne.NewSize(480, 160))
	dialog.ShowError(err, win)
	win.ShowAndRun()
}
