package sentiment

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrEmptyDataset reports a dataset that loaded fine but held no usable reviews.
	// It is a warning: the store is valid, just empty.
	ErrEmptyDataset = errors.New("No reviews found in TSV (expected a 'text' column).")
	// ErrNoReview is returned by Analyze when the store is empty. No request is sent.
	ErrNoReview = errors.New("No reviews available. Ensure TSV has a 'text' column.")
	// ErrUnexpectedShape is returned when a response carries no valid candidates.
	ErrUnexpectedShape = errors.New("Unexpected API response shape.")
	// ErrBusy is returned when an analysis is already in flight.
	ErrBusy = errors.New("analysis already in progress")
)

// DatasetError is a transport or parse failure while loading reviews.
type DatasetError struct {
	Status int
	Err    error
}

func (e *DatasetError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("Failed to fetch TSV (%d)", e.Status)
	}
	if e.Err == nil {
		return "Failed to load TSV"
	}
	return e.Err.Error()
}

func (e *DatasetError) Unwrap() error { return e.Err }

// TransportError is a non-success HTTP status from the classification endpoint.
type TransportError struct {
	Status int
	Body   string
}

func (e *TransportError) Error() string {
	friendly := fmt.Sprintf("HTTP %d", e.Status)
	switch e.Status {
	case http.StatusUnauthorized:
		friendly = "Unauthorized (invalid or missing token)"
	case http.StatusTooManyRequests:
		friendly = "Rate limited (please retry later)"
	case http.StatusServiceUnavailable:
		friendly = "Model loading (try again in a moment)"
	}
	if e.Body != "" {
		return friendly + " — " + e.Body
	}
	return friendly
}

// NetworkError wraps a request that never produced a response.
// Its message is the transport error's message, unmodified.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return e.Err.Error() }

func (e *NetworkError) Unwrap() error { return e.Err }
