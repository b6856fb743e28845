package sentiment

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
)

// ReviewStore holds the reviews loaded from a tab-separated dataset.
type ReviewStore struct {
	mu      sync.RWMutex
	source  string
	column  string
	reviews []string

	rng    *rand.Rand
	rngMu  sync.Mutex
	client *http.Client
	logger *zap.Logger
}

// StoreOption customizes a ReviewStore.
type StoreOption func(*ReviewStore)

// WithRand replaces the random source used by PickRandom.
func WithRand(r *rand.Rand) StoreOption {
	return func(s *ReviewStore) { s.rng = r }
}

// WithTextColumn overrides the header name of the review column.
func WithTextColumn(name string) StoreOption {
	return func(s *ReviewStore) {
		if name = strings.TrimSpace(name); name != "" {
			s.column = name
		}
	}
}

// WithHTTPClient sets the client used for http(s) sources.
func WithHTTPClient(c *http.Client) StoreOption {
	return func(s *ReviewStore) { s.client = c }
}

// WithStoreLogger attaches a logger.
func WithStoreLogger(l *zap.Logger) StoreOption {
	return func(s *ReviewStore) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewReviewStore creates an empty store reading from source, a file path or http(s) URL.
func NewReviewStore(source string, opts ...StoreOption) *ReviewStore {
	s := &ReviewStore{
		source: source,
		column: "text",
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		client: http.DefaultClient,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Source returns the current dataset location.
func (s *ReviewStore) Source() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.source
}

// SetSource changes the dataset location used by the next Load.
func (s *ReviewStore) SetSource(source string) {
	s.mu.Lock()
	s.source = source
	s.mu.Unlock()
}

// Load replaces the loaded reviews with the contents of the source.
// On failure the store is left empty and a *DatasetError is returned.
// A dataset without any usable rows yields 0 and ErrEmptyDataset.
func (s *ReviewStore) Load(ctx context.Context) (int, error) {
	source := s.Source()
	reviews, err := s.read(ctx, source)
	if err != nil {
		s.replace(nil)
		s.logger.Warn("dataset load failed", zap.String("source", source), zap.Error(err))
		return 0, err
	}
	s.replace(reviews)
	s.logger.Info("dataset loaded", zap.String("source", source), zap.Int("reviews", len(reviews)))
	if len(reviews) == 0 {
		return 0, ErrEmptyDataset
	}
	return len(reviews), nil
}

// Count returns how many reviews are loaded.
func (s *ReviewStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.reviews)
}

// Reviews returns a copy of the loaded reviews.
func (s *ReviewStore) Reviews() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.reviews))
	copy(out, s.reviews)
	return out
}

// PickRandom returns a uniformly chosen review, or false when the store is empty.
func (s *ReviewStore) PickRandom() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.reviews) == 0 {
		return "", false
	}
	s.rngMu.Lock()
	idx := s.rng.IntN(len(s.reviews))
	s.rngMu.Unlock()
	return s.reviews[idx], true
}

func (s *ReviewStore) replace(reviews []string) {
	s.mu.Lock()
	s.reviews = reviews
	s.mu.Unlock()
}

func (s *ReviewStore) read(ctx context.Context, source string) ([]string, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return s.fetch(ctx, source)
	}
	f, err := os.Open(filepath.Clean(source))
	if err != nil {
		return nil, &DatasetError{Err: fmt.Errorf("open %s: %w", filepath.Base(source), err)}
	}
	defer f.Close()
	return parseReviews(f, s.column)
}

func (s *ReviewStore) fetch(ctx context.Context, url string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &DatasetError{Err: err}
	}
	req.Header.Set("Cache-Control", "no-store")
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &DatasetError{Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &DatasetError{Status: resp.StatusCode}
	}
	return parseReviews(resp.Body, s.column)
}

// parseReviews extracts the trimmed, non-empty values of column from a TSV stream.
func parseReviews(r io.Reader, column string) ([]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, &DatasetError{Err: fmt.Errorf("parse TSV: %w", err)}
	}
	col := findColumn(header, column)
	if col < 0 {
		return nil, nil
	}
	var reviews []string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &DatasetError{Err: fmt.Errorf("parse TSV: %w", err)}
		}
		if col >= len(row) {
			continue
		}
		text := NormalizeText(row[col])
		if text == "" {
			continue
		}
		reviews = append(reviews, text)
	}
	return reviews, nil
}

func findColumn(header []string, name string) int {
	for i, col := range header {
		if strings.EqualFold(cleanCell(col), name) {
			return i
		}
	}
	return -1
}
