package sentiment

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// positiveThreshold is the score a POSITIVE winner must exceed.
// NEGATIVE winners have no threshold.
const positiveThreshold = 0.5

// Interpret decodes a classifier response body into a Result.
func Interpret(body []byte) (Result, error) {
	candidates, err := ParseCandidates(body)
	if err != nil {
		return Result{}, err
	}
	return Decide(candidates)
}

// ParseCandidates accepts either a flat list of {label, score} objects or a list
// whose first element is such a list. Malformed entries are dropped.
func ParseCandidates(body []byte) ([]Candidate, error) {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w (%v)", ErrUnexpectedShape, err)
	}
	arr, ok := raw.([]any)
	if !ok {
		return nil, ErrUnexpectedShape
	}
	if len(arr) > 0 {
		if inner, ok := arr[0].([]any); ok {
			arr = inner
		}
	}
	candidates := make([]Candidate, 0, len(arr))
	for _, item := range arr {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		label, ok := obj["label"].(string)
		if !ok {
			continue
		}
		score, ok := obj["score"].(float64)
		if !ok {
			continue
		}
		candidates = append(candidates, Candidate{Label: label, Score: score})
	}
	if len(candidates) == 0 {
		return nil, ErrUnexpectedShape
	}
	return candidates, nil
}

// PickWinner returns the highest scoring candidate. Equal scores keep their input order.
func PickWinner(candidates []Candidate) (Candidate, bool) {
	if len(candidates) == 0 {
		return Candidate{}, false
	}
	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Score > sorted[j].Score
	})
	return sorted[0], true
}

// MapSentiment converts a winning label and score into a Sentiment.
func MapSentiment(label string, score float64) Sentiment {
	if strings.EqualFold(label, "POSITIVE") && score > positiveThreshold {
		return Positive
	}
	if strings.EqualFold(label, "NEGATIVE") {
		return Negative
	}
	return Neutral
}

// Decide picks the winner among candidates and maps it to a Result.
func Decide(candidates []Candidate) (Result, error) {
	top, ok := PickWinner(candidates)
	if !ok {
		return Result{}, ErrUnexpectedShape
	}
	return Result{
		Sentiment: MapSentiment(top.Label, top.Score),
		Score:     top.Score,
		Label:     top.Label,
	}, nil
}
