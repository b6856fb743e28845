package app

import (
	"context"
	"path/filepath"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"go.uber.org/zap"

	"yashubustudio/reviewsentiment/sentiment"
)

type uiState struct {
	ctx     context.Context
	cfg     sentiment.Config
	cfgPath string
	logger  *zap.Logger

	store *sentiment.ReviewStore
	ctrl  *sentiment.Controller
	panel *resultPanel

	w     fyne.Window
	token *widget.Entry
	log   *widget.Entry
}

func buildUI(ctx context.Context, a fyne.App, cfg sentiment.Config, cfgPath string,
	classifier sentiment.Classifier, logger *zap.Logger, logBind binding.String) *uiState {
	u := &uiState{ctx: ctx, cfg: cfg, cfgPath: cfgPath, logger: logger}
	u.w = a.NewWindow("Review Sentiment")

	u.panel = newResultPanel()
	u.store = sentiment.NewReviewStore(cfg.DatasetPath,
		sentiment.WithTextColumn(cfg.TextColumn),
		sentiment.WithStoreLogger(logger))
	u.ctrl = sentiment.NewController(u.store, classifier, u.panel,
		sentiment.WithTimeout(cfg.Timeout()),
		sentiment.WithControllerLogger(logger))

	u.token = widget.NewPasswordEntry()
	u.token.SetPlaceHolder("Hugging Face token (optional)")
	if cfg.Backend == sentiment.BackendLocal {
		u.token.Disable()
	}

	u.panel.analyzeBtn = widget.NewButtonWithIcon("Analyze", theme.MediaPlayIcon(), func() { u.onAnalyze() })
	u.panel.cancelBtn = widget.NewButtonWithIcon("Cancel", theme.CancelIcon(), func() { u.ctrl.Cancel() })
	u.panel.cancelBtn.Disable()
	u.panel.openBtn = widget.NewButtonWithIcon("Open dataset", theme.FolderOpenIcon(), func() { u.onOpenDataset() })

	u.log = widget.NewEntryWithData(logBind)
	u.log.MultiLine = true
	u.log.Wrapping = fyne.TextWrapWord
	u.log.Disable()

	result := container.NewHBox(u.panel.icon, u.panel.label, u.panel.score)
	top := container.NewVBox(
		widget.NewLabelWithStyle("Token", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		u.token,
		container.NewGridWithColumns(3, u.panel.analyzeBtn, u.panel.cancelBtn, u.panel.openBtn),
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Review", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		u.panel.review,
		result,
		widget.NewSeparator(),
		u.panel.status,
		container.NewHBox(u.panel.modelStatus, widget.NewSeparator(), u.panel.count),
		widget.NewSeparator(),
		widget.NewLabelWithStyle("Log", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
	)

	u.w.SetContent(container.NewBorder(top, nil, nil, nil, u.log))
	u.w.Resize(fyne.NewSize(720, 640))
	return u
}

func (u *uiState) onAnalyze() {
	if !u.ctrl.Start(u.ctx, u.token.Text) {
		u.logger.Debug("analyze click ignored while busy")
	}
}

func (u *uiState) loadReviews() {
	u.panel.SetLoading(true)
	go func() {
		defer u.panel.SetLoading(false)
		_ = u.ctrl.LoadReviews(u.ctx)
	}()
}

func (u *uiState) onOpenDataset() {
	fd := dialog.NewFileOpen(func(rc fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, u.w)
			return
		}
		if rc == nil {
			return
		}
		path := rc.URI().Path()
		_ = rc.Close()
		if path == "" {
			return
		}

		u.store.SetSource(path)
		u.cfg.DatasetPath = path
		if err := sentiment.SaveConfig(u.cfgPath, u.cfg); err != nil {
			u.logger.Warn("config save failed", zap.Error(err))
		}
		u.logger.Info("dataset selected", zap.String("file", filepath.Base(path)))
		u.loadReviews()
	}, u.w)
	fd.SetFilter(storage.NewExtensionFileFilter([]string{".tsv", ".txt"}))
	fd.Show()
}
