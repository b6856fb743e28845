package sentiment

import "encoding/json"

// Sentiment is the classification outcome shown to the user.
type Sentiment string

const (
	// Positive requires a POSITIVE winner scoring above 0.5.
	Positive Sentiment = "positive"
	// Negative is any NEGATIVE winner regardless of score.
	Negative Sentiment = "negative"
	// Neutral covers everything else, including all error renderings.
	Neutral Sentiment = "neutral"
)

// Title returns the capitalized display label.
func (s Sentiment) Title() string {
	switch s {
	case Positive:
		return "Positive"
	case Negative:
		return "Negative"
	default:
		return "Neutral"
	}
}

// Icon returns the icon used to render the sentiment.
func (s Sentiment) Icon() Icon {
	switch s {
	case Positive:
		return IconThumbsUp
	case Negative:
		return IconThumbsDown
	default:
		return IconQuestion
	}
}

// Icon identifies the result icon independently of the display surface.
type Icon int

const (
	IconQuestion Icon = iota
	IconThumbsUp
	IconThumbsDown
)

// Class returns the web icon class string for the icon.
func (i Icon) Class() string {
	switch i {
	case IconThumbsUp:
		return "fa-solid fa-thumbs-up pos"
	case IconThumbsDown:
		return "fa-solid fa-thumbs-down neg"
	default:
		return "fa-regular fa-circle-question neu"
	}
}

// Glyph returns a terminal-friendly symbol for the icon.
func (i Icon) Glyph() string {
	switch i {
	case IconThumbsUp:
		return "👍"
	case IconThumbsDown:
		return "👎"
	default:
		return "?"
	}
}

// Candidate is one label/score pair returned by a classifier before winner selection.
type Candidate struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Result is the normalized outcome of a single classification.
type Result struct {
	Sentiment Sentiment `json:"sentiment"`
	Score     float64   `json:"score"`
	Label     string    `json:"label"`
}

// Backend selects which classifier implementation is used.
type Backend string

const (
	// BackendRemote posts reviews to the hosted inference endpoint.
	BackendRemote Backend = "remote"
	// BackendLocal runs an ONNX sequence-classification model in process.
	BackendLocal Backend = "local"
)

// DefaultModelURL is the hosted sentiment model used by the remote backend.
const DefaultModelURL = "https://api-inference.huggingface.co/models/siebert/sentiment-roberta-large-english"

// RemoteConfig configures the hosted inference endpoint.
type RemoteConfig struct {
	ModelURL       string `json:"modelUrl"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}

// LocalConfig wraps the configuration for the ORT classifier.
type LocalConfig struct {
	OrtDLL        string   `json:"ortDll"`
	ModelPath     string   `json:"modelPath"`
	TokenizerPath string   `json:"tokenizerPath"`
	MaxSeqLen     int      `json:"maxSeqLen"`
	Labels        []string `json:"labels"`
}

// Config aggregates runtime settings persisted to config.json.
// The bearer token is deliberately absent: it is only ever held in memory.
type Config struct {
	DatasetPath string       `json:"datasetPath"`
	TextColumn  string       `json:"textColumn"`
	Backend     Backend      `json:"backend"`
	Remote      RemoteConfig `json:"remote"`
	Local       LocalConfig  `json:"local"`
}

// Clone creates a deep copy of the configuration so callers can mutate safely.
func (c Config) Clone() Config {
	buf, _ := json.Marshal(c)
	var out Config
	_ = json.Unmarshal(buf, &out)
	return out
}

// ApplyDefaults populates zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.DatasetPath == "" {
		c.DatasetPath = "reviews_test.tsv"
	}
	if c.TextColumn == "" {
		c.TextColumn = "text"
	}
	switch c.Backend {
	case BackendRemote, BackendLocal:
	default:
		c.Backend = BackendRemote
	}
	if c.Remote.ModelURL == "" {
		c.Remote.ModelURL = DefaultModelURL
	}
	if c.Remote.TimeoutSeconds <= 0 {
		c.Remote.TimeoutSeconds = 30
	}
	if c.Local.MaxSeqLen == 0 {
		c.Local.MaxSeqLen = 512
	}
	if len(c.Local.Labels) == 0 {
		c.Local.Labels = []string{"NEGATIVE", "POSITIVE"}
	}
}
