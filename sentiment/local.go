package sentiment

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"
)

type textEncoder interface {
	Encode(text string) (ids, mask []int64, err error)
}

type logitRunner interface {
	Run(ids, mask []int64) ([]float32, error)
	Close() error
}

// LocalClassifier runs a sequence-classification ONNX model in process.
type LocalClassifier struct {
	mu     sync.Mutex
	enc    textEncoder
	run    logitRunner
	labels []string
	model  string
	logger *zap.Logger
}

// NewLocalClassifier initializes the tokenizer and the ORT session.
func NewLocalClassifier(cfg LocalConfig, logger *zap.Logger) (*LocalClassifier, error) {
	if cfg.ModelPath == "" || cfg.TokenizerPath == "" {
		return nil, errors.New("local backend requires modelPath and tokenizerPath")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	tk, err := pretrained.FromFile(cfg.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}
	runner, err := newOrtRunner(cfg)
	if err != nil {
		return nil, err
	}
	labels := cfg.Labels
	if len(labels) == 0 {
		labels = []string{"NEGATIVE", "POSITIVE"}
	}
	logger.Info("local model ready", zap.String("model", cfg.ModelPath), zap.Strings("labels", labels))
	return &LocalClassifier{
		enc:    &hfEncoder{tk: tk, maxLen: cfg.MaxSeqLen},
		run:    runner,
		labels: labels,
		model:  filepath.Base(cfg.ModelPath),
		logger: logger,
	}, nil
}

// Name identifies the backend in status messages.
func (l *LocalClassifier) Name() string { return "local model " + l.model }

type inference struct {
	logits []float32
	err    error
}

// Classify tokenizes text, runs the model and maps the softmax winner.
// The credential is ignored. The session call itself cannot be interrupted, so
// a cancelled ctx returns immediately and the run finishes in the background
// while still holding the classifier lock.
func (l *LocalClassifier) Classify(ctx context.Context, text, _ string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	text = NormalizeText(text)
	done := make(chan inference, 1)
	go func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		done <- l.infer(text)
	}()

	var out inference
	select {
	case <-ctx.Done():
		l.logger.Warn("local inference abandoned", zap.Error(ctx.Err()))
		return Result{}, ctx.Err()
	case out = <-done:
	}
	if out.err != nil {
		return Result{}, out.err
	}
	candidates, err := labelCandidates(l.labels, out.logits)
	if err != nil {
		return Result{}, err
	}
	res, err := Decide(candidates)
	if err != nil {
		return Result{}, err
	}
	l.logger.Debug("local inference result",
		zap.String("sentiment", string(res.Sentiment)),
		zap.Float64("score", res.Score))
	return res, nil
}

// infer must be called with l.mu held.
func (l *LocalClassifier) infer(text string) inference {
	if l.run == nil {
		return inference{err: errors.New("local classifier is closed")}
	}
	ids, mask, err := l.enc.Encode(text)
	if err != nil {
		return inference{err: fmt.Errorf("tokenize: %w", err)}
	}
	logits, err := l.run.Run(ids, mask)
	if err != nil {
		return inference{err: fmt.Errorf("run model: %w", err)}
	}
	return inference{logits: logits}
}

// Close releases ORT resources.
func (l *LocalClassifier) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.run == nil {
		return nil
	}
	err := l.run.Close()
	l.run = nil
	return err
}

func labelCandidates(labels []string, logits []float32) ([]Candidate, error) {
	if len(logits) != len(labels) {
		return nil, fmt.Errorf("%w (model returned %d logits for %d labels)", ErrUnexpectedShape, len(logits), len(labels))
	}
	probs := softmax(logits)
	out := make([]Candidate, len(labels))
	for i, label := range labels {
		out[i] = Candidate{Label: label, Score: probs[i]}
	}
	return out, nil
}

type hfEncoder struct {
	tk     *tokenizer.Tokenizer
	maxLen int
}

func (h *hfEncoder) Encode(text string) ([]int64, []int64, error) {
	en, err := h.tk.EncodeSingle(text, true)
	if err != nil {
		return nil, nil, err
	}
	ids := en.GetIds()
	mask := en.GetAttentionMask()
	if len(mask) != len(ids) {
		mask = make([]int, len(ids))
		for i := range mask {
			mask[i] = 1
		}
	}
	ids, mask = truncateTokens(ids, mask, h.maxLen)
	return toInt64(ids), toInt64(mask), nil
}

// truncateTokens keeps the first maxLen-1 tokens plus the closing special token.
func truncateTokens(ids, mask []int, maxLen int) ([]int, []int) {
	if maxLen <= 1 || len(ids) <= maxLen {
		return ids, mask
	}
	last := len(ids) - 1
	outIDs := append(append([]int(nil), ids[:maxLen-1]...), ids[last])
	outMask := append(append([]int(nil), mask[:maxLen-1]...), mask[last])
	return outIDs, outMask
}

func toInt64(in []int) []int64 {
	out := make([]int64, len(in))
	for i, v := range in {
		out[i] = int64(v)
	}
	return out
}

var (
	ortInitMu   sync.Mutex
	ortRefCount int
)

type ortRunner struct {
	session *ort.DynamicAdvancedSession
	labels  int
}

func newOrtRunner(cfg LocalConfig) (*ortRunner, error) {
	ortInitMu.Lock()
	defer ortInitMu.Unlock()
	if !ort.IsInitialized() {
		if cfg.OrtDLL != "" {
			ort.SetSharedLibraryPath(cfg.OrtDLL)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("init onnxruntime: %w", err)
		}
	}
	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{"input_ids", "attention_mask"}, []string{"logits"}, nil)
	if err != nil {
		if ortRefCount == 0 {
			_ = ort.DestroyEnvironment()
		}
		return nil, fmt.Errorf("open model: %w", err)
	}
	ortRefCount++
	labels := len(cfg.Labels)
	if labels == 0 {
		labels = 2
	}
	return &ortRunner{session: session, labels: labels}, nil
}

func (o *ortRunner) Run(ids, mask []int64) ([]float32, error) {
	shape := ort.NewShape(1, int64(len(ids)))
	idsT, err := ort.NewTensor(shape, ids)
	if err != nil {
		return nil, err
	}
	defer idsT.Destroy()
	maskT, err := ort.NewTensor(shape, mask)
	if err != nil {
		return nil, err
	}
	defer maskT.Destroy()
	out, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(o.labels)))
	if err != nil {
		return nil, err
	}
	defer out.Destroy()
	if err := o.session.Run([]ort.Value{idsT, maskT}, []ort.Value{out}); err != nil {
		return nil, err
	}
	logits := make([]float32, o.labels)
	copy(logits, out.GetData())
	return logits, nil
}

func (o *ortRunner) Close() error {
	ortInitMu.Lock()
	defer ortInitMu.Unlock()
	err := o.session.Destroy()
	ortRefCount--
	if ortRefCount == 0 {
		if derr := ort.DestroyEnvironment(); err == nil {
			err = derr
		}
	}
	return err
}
