package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const maxResponseBytes = 1 << 20

// Classifier turns one text into a Result.
type Classifier interface {
	Classify(ctx context.Context, text, credential string) (Result, error)
	Name() string
}

// RemoteClassifier posts texts to a hosted inference endpoint.
type RemoteClassifier struct {
	modelURL string
	client   *http.Client
	logger   *zap.Logger
}

// RemoteOption customizes a RemoteClassifier.
type RemoteOption func(*RemoteClassifier)

// WithClient sets the HTTP client used for requests.
func WithClient(c *http.Client) RemoteOption {
	return func(r *RemoteClassifier) {
		if c != nil {
			r.client = c
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(l *zap.Logger) RemoteOption {
	return func(r *RemoteClassifier) {
		if l != nil {
			r.logger = l
		}
	}
}

type inferenceRequest struct {
	Inputs string `json:"inputs"`
}

// NewRemoteClassifier builds a classifier for cfg.ModelURL.
// Deadlines come from the caller's context, not from the HTTP client.
func NewRemoteClassifier(cfg RemoteConfig, opts ...RemoteOption) *RemoteClassifier {
	url := strings.TrimSpace(cfg.ModelURL)
	if url == "" {
		url = DefaultModelURL
	}
	r := &RemoteClassifier{
		modelURL: url,
		client:   &http.Client{},
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name identifies the backend in status messages.
func (r *RemoteClassifier) Name() string { return "Hugging Face Inference API" }

// Classify sends text as {"inputs": text} and interprets the response.
func (r *RemoteClassifier) Classify(ctx context.Context, text, credential string) (Result, error) {
	payload, err := json.Marshal(inferenceRequest{Inputs: text})
	if err != nil {
		return Result{}, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.modelURL, bytes.NewReader(payload))
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token := strings.TrimSpace(credential); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	r.logger.Debug("inference request", zap.String("url", r.modelURL), zap.Int("chars", len(text)))
	resp, err := r.client.Do(req)
	if err != nil {
		return Result{}, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		r.logger.Warn("inference request rejected", zap.Int("status", resp.StatusCode))
		return Result{}, &TransportError{Status: resp.StatusCode, Body: string(body)}
	}
	if readErr != nil {
		return Result{}, &NetworkError{Err: readErr}
	}

	res, err := Interpret(body)
	if err != nil {
		r.logger.Warn("unexpected inference response", zap.ByteString("body", truncateBytes(body, 256)))
		return Result{}, err
	}
	r.logger.Debug("inference result",
		zap.String("sentiment", string(res.Sentiment)),
		zap.String("label", res.Label),
		zap.Float64("score", res.Score))
	return res, nil
}

func truncateBytes(b []byte, max int) []byte {
	if len(b) <= max {
		return b
	}
	return b[:max]
}
