package sentiment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// Sink receives every visible update the Controller makes.
// Implementations must be safe to call from a non-UI goroutine.
type Sink interface {
	SetStatus(msg string, isError bool)
	SetModelStatus(msg string)
	SetCount(n int, ready bool)
	SetReview(text string)
	SetIcon(icon Icon)
	SetResult(label, score string)
	SetBusy(busy bool)
}

const (
	statusReady     = "Ready"
	statusSelecting = "Selecting a random review…"
	statusDone      = "Done"
	modelAnalyzing  = "Analyzing…"
	modelIdle       = "Model idle"
)

// Controller wires the Analyze action to ReviewStore → Classifier → Sink.
// It allows at most one analysis in flight.
type Controller struct {
	store      *ReviewStore
	classifier Classifier
	sink       Sink
	logger     *zap.Logger
	timeout    time.Duration

	gate *semaphore.Weighted
	busy atomic.Bool
	wg   sync.WaitGroup

	cancelMu sync.Mutex
	cancel   context.CancelFunc
}

// ControllerOption customizes a Controller.
type ControllerOption func(*Controller)

// WithTimeout bounds each analysis attempt. Zero disables the deadline.
func WithTimeout(d time.Duration) ControllerOption {
	return func(c *Controller) { c.timeout = d }
}

// WithControllerLogger attaches a logger.
func WithControllerLogger(l *zap.Logger) ControllerOption {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewController constructs a controller in the Idle state.
func NewController(store *ReviewStore, classifier Classifier, sink Sink, opts ...ControllerOption) *Controller {
	c := &Controller{
		store:      store,
		classifier: classifier,
		sink:       sink,
		logger:     zap.NewNop(),
		timeout:    30 * time.Second,
		gate:       semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Busy reports whether an analysis is in flight.
func (c *Controller) Busy() bool { return c.busy.Load() }

// LoadReviews loads the store and reports the count and readiness to the sink.
func (c *Controller) LoadReviews(ctx context.Context) error {
	c.sink.SetCount(0, false)
	n, err := c.store.Load(ctx)
	switch {
	case err == nil:
		c.sink.SetCount(n, true)
		c.sink.SetStatus(statusReady, false)
	case errors.Is(err, ErrEmptyDataset):
		c.sink.SetCount(0, true)
		c.sink.SetStatus(err.Error(), true)
	default:
		c.sink.SetCount(0, true)
		c.sink.SetStatus("Error loading TSV: "+err.Error(), true)
	}
	return err
}

// Analyze runs one attempt synchronously. It returns ErrBusy without touching
// the sink when another attempt is in flight.
func (c *Controller) Analyze(ctx context.Context, credential string) (Result, error) {
	if !c.gate.TryAcquire(1) {
		return Result{}, ErrBusy
	}
	c.busy.Store(true)
	return c.run(ctx, c.store.PickRandom, credential)
}

// AnalyzeText classifies text instead of a random review. It shares the gate
// and the rendering of Analyze.
func (c *Controller) AnalyzeText(ctx context.Context, text, credential string) (Result, error) {
	if !c.gate.TryAcquire(1) {
		return Result{}, ErrBusy
	}
	c.busy.Store(true)
	text = NormalizeText(text)
	return c.run(ctx, func() (string, bool) { return text, text != "" }, credential)
}

// Start runs one attempt on a new goroutine. The gate is taken before Start
// returns, so a false result means nothing was started.
func (c *Controller) Start(ctx context.Context, credential string) bool {
	if !c.gate.TryAcquire(1) {
		c.logger.Debug("analyze ignored, already running")
		return false
	}
	c.busy.Store(true)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		_, _ = c.run(ctx, c.store.PickRandom, credential)
	}()
	return true
}

// Wait blocks until attempts launched by Start have finished.
func (c *Controller) Wait() { c.wg.Wait() }

// Cancel aborts the in-flight attempt, if any.
func (c *Controller) Cancel() {
	c.cancelMu.Lock()
	defer c.cancelMu.Unlock()
	if c.cancel != nil {
		c.cancel()
	}
}

func (c *Controller) run(ctx context.Context, pick func() (string, bool), credential string) (Result, error) {
	defer func() {
		c.busy.Store(false)
		c.gate.Release(1)
	}()

	var cancel context.CancelFunc
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	c.setCancel(cancel)
	defer func() {
		c.setCancel(nil)
		cancel()
	}()

	c.sink.SetBusy(true)
	c.sink.SetModelStatus(modelAnalyzing)
	c.sink.SetStatus(statusSelecting, false)

	res, err := c.attempt(ctx, pick, credential)
	if err != nil {
		c.logger.Warn("analysis failed", zap.Error(err))
		c.sink.SetIcon(IconQuestion)
		c.sink.SetResult(Neutral.Title(), "")
		c.sink.SetStatus("Error: "+err.Error(), true)
	} else {
		c.logger.Info("analysis done",
			zap.String("sentiment", string(res.Sentiment)),
			zap.Float64("score", res.Score))
		c.sink.SetIcon(res.Sentiment.Icon())
		c.sink.SetResult(res.Sentiment.Title(), FormatScore(res.Score))
		c.sink.SetStatus(statusDone, false)
	}
	c.sink.SetModelStatus(modelIdle)
	c.sink.SetBusy(false)
	return res, err
}

func (c *Controller) attempt(ctx context.Context, pick func() (string, bool), credential string) (Result, error) {
	review, ok := pick()
	if !ok {
		return Result{}, ErrNoReview
	}
	c.sink.SetReview(review)
	c.sink.SetStatus(fmt.Sprintf("Calling %s…", c.classifier.Name()), false)
	return c.classifier.Classify(ctx, review, credential)
}

func (c *Controller) setCancel(cancel context.CancelFunc) {
	c.cancelMu.Lock()
	c.cancel = cancel
	c.cancelMu.Unlock()
}

// FormatScore renders a score the way the result panel shows it.
func FormatScore(score float64) string {
	return "Score: " + ScoreText(score)
}

// ScoreText formats score with three decimals, rounding exact halves up.
// The decimal value of the float is used, so 0.0625 gives 0.063 while
// 0.1235 (stored just below the half) gives 0.123.
func ScoreText(score float64) string {
	if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 {
		return fmt.Sprintf("%.3f", score)
	}
	x := new(big.Float).SetPrec(256).SetFloat64(score)
	x.Mul(x, big.NewFloat(1000))
	x.Add(x, big.NewFloat(0.5))
	n, _ := x.Int(nil)
	if !n.IsInt64() {
		return fmt.Sprintf("%.3f", score)
	}
	v := n.Int64()
	return fmt.Sprintf("%d.%03d", v/1000, v%1000)
}
