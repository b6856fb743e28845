package app

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"yashubustudio/reviewsentiment/sentiment"
)

// resultPanel renders controller updates onto fyne widgets.
type resultPanel struct {
	review      *widget.Label
	icon        *widget.Icon
	label       *widget.Label
	score       *widget.Label
	status      *widget.Label
	modelStatus *widget.Label
	count       *widget.Label

	analyzeBtn *widget.Button
	openBtn    *widget.Button
	cancelBtn  *widget.Button
}

var _ sentiment.Sink = (*resultPanel)(nil)

func newResultPanel() *resultPanel {
	p := &resultPanel{
		review:      widget.NewLabel("Click Analyze to pick a random review."),
		icon:        widget.NewIcon(iconResource(sentiment.IconQuestion)),
		label:       widget.NewLabelWithStyle("Neutral", fyne.TextAlignLeading, fyne.TextStyle{Bold: true}),
		score:       widget.NewLabel(""),
		status:      widget.NewLabel(""),
		modelStatus: widget.NewLabel("Model idle"),
		count:       widget.NewLabel("Loading reviews…"),
	}
	p.review.Wrapping = fyne.TextWrapWord
	p.status.Wrapping = fyne.TextWrapWord
	return p
}

func iconResource(icon sentiment.Icon) fyne.Resource {
	switch icon {
	case sentiment.IconThumbsUp:
		return theme.ConfirmIcon()
	case sentiment.IconThumbsDown:
		return theme.CancelIcon()
	default:
		return theme.QuestionIcon()
	}
}

func (p *resultPanel) SetStatus(msg string, isError bool) {
	fyne.Do(func() {
		if isError {
			p.status.Importance = widget.DangerImportance
		} else {
			p.status.Importance = widget.MediumImportance
		}
		p.status.SetText(msg)
	})
}

func (p *resultPanel) SetModelStatus(msg string) {
	fyne.Do(func() { p.modelStatus.SetText(msg) })
}

func (p *resultPanel) SetCount(n int, ready bool) {
	text := "Loading reviews…"
	if ready {
		text = fmt.Sprintf("%d reviews loaded", n)
	}
	fyne.Do(func() { p.count.SetText(text) })
}

func (p *resultPanel) SetReview(text string) {
	fyne.Do(func() { p.review.SetText(text) })
}

func (p *resultPanel) SetIcon(icon sentiment.Icon) {
	res := iconResource(icon)
	fyne.Do(func() { p.icon.SetResource(res) })
}

func (p *resultPanel) SetResult(label, score string) {
	fyne.Do(func() {
		p.label.SetText(label)
		p.score.SetText(score)
	})
}

func (p *resultPanel) SetBusy(busy bool) {
	fyne.Do(func() { p.setControls(busy, busy) })
}

// SetLoading locks the actions during a dataset load. Cancel stays disabled
// because only analysis attempts can be cancelled.
func (p *resultPanel) SetLoading(loading bool) {
	fyne.Do(func() { p.setControls(loading, false) })
}

func (p *resultPanel) setControls(locked, cancellable bool) {
	for _, btn := range []*widget.Button{p.analyzeBtn, p.openBtn} {
		if btn == nil {
			continue
		}
		if locked {
			btn.Disable()
		} else {
			btn.Enable()
		}
	}
	if p.cancelBtn == nil {
		return
	}
	if cancellable {
		p.cancelBtn.Enable()
	} else {
		p.cancelBtn.Disable()
	}
}
