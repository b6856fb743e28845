package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterpret_MappingTable(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		want  Sentiment
		score float64
	}{
		{
			name:  "higher negative beats positive",
			body:  `[{"label":"POSITIVE","score":0.51},{"label":"NEGATIVE","score":0.95}]`,
			want:  Negative,
			score: 0.95,
		},
		{
			name:  "positive exactly at threshold is neutral",
			body:  `[{"label":"POSITIVE","score":0.5}]`,
			want:  Neutral,
			score: 0.5,
		},
		{
			name:  "lowercase positive label",
			body:  `[{"label":"positive","score":0.9}]`,
			want:  Positive,
			score: 0.9,
		},
		{
			name:  "negative has no threshold",
			body:  `[{"label":"NEGATIVE","score":0.2}]`,
			want:  Negative,
			score: 0.2,
		},
		{
			name:  "unknown label",
			body:  `[{"label":"LABEL_1","score":0.99}]`,
			want:  Neutral,
			score: 0.99,
		},
		{
			name:  "nested shape",
			body:  `[[{"label":"NEGATIVE","score":0.01},{"label":"POSITIVE","score":0.99}]]`,
			want:  Positive,
			score: 0.99,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Interpret([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Sentiment)
			assert.InDelta(t, tt.score, res.Score, 1e-9)
		})
	}
}

func TestParseCandidates_DropsMalformedEntries(t *testing.T) {
	body := `[
		{"label":"POSITIVE","score":"0.9"},
		{"label":7,"score":0.8},
		"junk",
		null,
		{"label":"NEGATIVE"},
		{"label":"NEGATIVE","score":0.3}
	]`
	got, err := ParseCandidates([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, []Candidate{{Label: "NEGATIVE", Score: 0.3}}, got)
}

func TestParseCandidates_UnexpectedShape(t *testing.T) {
	bodies := []string{
		`{"error":"model is loading"}`,
		`[]`,
		`[[]]`,
		`[{"foo":"bar"}]`,
		`"POSITIVE"`,
		`not json`,
	}
	for _, body := range bodies {
		_, err := ParseCandidates([]byte(body))
		assert.ErrorIs(t, err, ErrUnexpectedShape, body)
	}
}

func TestPickWinner_TiesKeepFirstSeen(t *testing.T) {
	winner, ok := PickWinner([]Candidate{
		{Label: "NEUTRAL", Score: 0.4},
		{Label: "NEGATIVE", Score: 0.6},
		{Label: "POSITIVE", Score: 0.6},
	})
	require.True(t, ok)
	assert.Equal(t, "NEGATIVE", winner.Label)

	_, ok = PickWinner(nil)
	assert.False(t, ok)
}

func TestPickWinner_DoesNotReorderInput(t *testing.T) {
	in := []Candidate{{Label: "A", Score: 0.1}, {Label: "B", Score: 0.9}}
	_, _ = PickWinner(in)
	assert.Equal(t, "A", in[0].Label)
}

func TestSentimentRendering(t *testing.T) {
	assert.Equal(t, "fa-solid fa-thumbs-up pos", Positive.Icon().Class())
	assert.Equal(t, "fa-solid fa-thumbs-down neg", Negative.Icon().Class())
	assert.Equal(t, "fa-regular fa-circle-question neu", Neutral.Icon().Class())
	assert.Equal(t, "Neutral", Sentiment("").Title())
	assert.Equal(t, "Score: 0.951", FormatScore(0.9512))
}

func TestScoreText_RoundsHalvesUp(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{0.0625, "0.063"},
		{0.5625, "0.563"},
		{0.1235, "0.123"},
		{0.9995, "1.000"},
		{0.0005, "0.001"},
		{0.12345, "0.123"},
		{0, "0.000"},
		{1, "1.000"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ScoreText(tc.score), "score %v", tc.score)
	}
	assert.Equal(t, "Score: 0.063", FormatScore(0.0625))
}
