package sentiment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubEncoder struct {
	got string
}

func (s *stubEncoder) Encode(text string) ([]int64, []int64, error) {
	s.got = text
	return []int64{0, 42, 2}, []int64{1, 1, 1}, nil
}

type stubRunner struct {
	logits []float32
	err    error
	closed int
}

func (s *stubRunner) Run(ids, mask []int64) ([]float32, error) { return s.logits, s.err }
func (s *stubRunner) Close() error {
	s.closed++
	return nil
}

func newStubLocal(logits []float32, labels ...string) (*LocalClassifier, *stubEncoder, *stubRunner) {
	if len(labels) == 0 {
		labels = []string{"NEGATIVE", "POSITIVE"}
	}
	enc := &stubEncoder{}
	run := &stubRunner{logits: logits}
	return &LocalClassifier{enc: enc, run: run, labels: labels, model: "sst2.onnx", logger: zap.NewNop()}, enc, run
}

func TestLocalClassifier_Classify(t *testing.T) {
	local, enc, _ := newStubLocal([]float32{-2.1, 3.4})
	res, err := local.Classify(context.Background(), "  Ｇreat\x07 ", "ignored")
	require.NoError(t, err)
	assert.Equal(t, "Great", enc.got)
	assert.Equal(t, Positive, res.Sentiment)
	assert.Equal(t, "POSITIVE", res.Label)
	assert.Greater(t, res.Score, 0.99)
	assert.Equal(t, "local model sst2.onnx", local.Name())
}

func TestLocalClassifier_NegativeWinner(t *testing.T) {
	local, _, _ := newStubLocal([]float32{0.3, 0.1})
	res, err := local.Classify(context.Background(), "meh", "")
	require.NoError(t, err)
	assert.Equal(t, Negative, res.Sentiment)
	assert.InDelta(t, 0.5498, res.Score, 1e-3)
}

func TestLocalClassifier_LabelMismatch(t *testing.T) {
	local, _, _ := newStubLocal([]float32{0.1, 0.2, 0.3})
	_, err := local.Classify(context.Background(), "x", "")
	assert.ErrorIs(t, err, ErrUnexpectedShape)
}

func TestLocalClassifier_RunErrorAndClose(t *testing.T) {
	local, _, run := newStubLocal(nil)
	run.err = errors.New("session exploded")
	_, err := local.Classify(context.Background(), "x", "")
	assert.ErrorContains(t, err, "run model: session exploded")

	require.NoError(t, local.Close())
	require.NoError(t, local.Close())
	assert.Equal(t, 1, run.closed)
	_, err = local.Classify(context.Background(), "x", "")
	assert.ErrorContains(t, err, "closed")
}

func TestLocalClassifier_CancelledContext(t *testing.T) {
	local, _, _ := newStubLocal([]float32{0, 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := local.Classify(ctx, "x", "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSoftmax(t *testing.T) {
	probs := softmax([]float32{1000, 1000})
	assert.InDelta(t, 0.5, probs[0], 1e-9)
	assert.InDelta(t, 0.5, probs[1], 1e-9)
	assert.Nil(t, softmax(nil))
}

func TestTruncateTokens(t *testing.T) {
	ids, mask := truncateTokens([]int{0, 5, 6, 7, 8, 2}, []int{1, 1, 1, 1, 1, 1}, 4)
	assert.Equal(t, []int{0, 5, 6, 2}, ids)
	assert.Equal(t, []int{1, 1, 1, 1}, mask)

	ids, _ = truncateTokens([]int{0, 2}, []int{1, 1}, 4)
	assert.Equal(t, []int{0, 2}, ids)
}

func TestNewLocalClassifier_RequiresPaths(t *testing.T) {
	_, err := NewLocalClassifier(LocalConfig{}, nil)
	assert.Error(t, err)
}

type blockingRunner struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingRunner) Run(ids, mask []int64) ([]float32, error) {
	b.started <- struct{}{}
	<-b.release
	return []float32{0, 1}, nil
}

func (b *blockingRunner) Close() error { return nil }

func newBlockingLocal(t *testing.T) (*LocalClassifier, *blockingRunner) {
	t.Helper()
	run := &blockingRunner{started: make(chan struct{}, 1), release: make(chan struct{})}
	t.Cleanup(func() { close(run.release) })
	local := &LocalClassifier{enc: &stubEncoder{}, run: run, labels: []string{"NEGATIVE", "POSITIVE"}, model: "stuck.onnx", logger: zap.NewNop()}
	return local, run
}

func TestController_LocalTimeoutReturnsToIdle(t *testing.T) {
	local, _ := newBlockingLocal(t)
	sink := &recordingSink{}
	c := NewController(loadedStore(t, "Slow model."), local, sink, WithTimeout(50*time.Millisecond))

	done := make(chan error, 1)
	go func() {
		_, err := c.Analyze(context.Background(), "")
		done <- err
	}()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("analyze did not return after the timeout")
	}
	assert.False(t, c.Busy())
	status, _ := sink.last("status")
	assert.Equal(t, "Error: context deadline exceeded", status.text)
}

func TestController_LocalCancelReturnsToIdle(t *testing.T) {
	local, run := newBlockingLocal(t)
	sink := &recordingSink{}
	c := NewController(loadedStore(t, "Hung model."), local, sink, WithTimeout(0))

	require.True(t, c.Start(context.Background(), ""))
	select {
	case <-run.started:
	case <-time.After(2 * time.Second):
		t.Fatal("model never started")
	}
	c.Cancel()

	waited := make(chan struct{})
	go func() {
		c.Wait()
		close(waited)
	}()
	select {
	case <-waited:
	case <-time.After(2 * time.Second):
		t.Fatal("cancel did not end the attempt")
	}
	assert.False(t, c.Busy())
	status, _ := sink.last("status")
	assert.Equal(t, "Error: context canceled", status.text)
	icon, _ := sink.last("icon")
	assert.Equal(t, IconQuestion, icon.icon)
}
