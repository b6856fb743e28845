package sentiment

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.json"))
	require.NoError(t, err)
	assert.Equal(t, "reviews_test.tsv", cfg.DatasetPath)
	assert.Equal(t, "text", cfg.TextColumn)
	assert.Equal(t, BackendRemote, cfg.Backend)
	assert.Equal(t, DefaultModelURL, cfg.Remote.ModelURL)
	assert.Equal(t, 30*time.Second, cfg.Timeout())
	assert.Equal(t, []string{"NEGATIVE", "POSITIVE"}, cfg.Local.Labels)
}

func TestLoadConfig_PartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"backend":"bogus","remote":{"timeoutSeconds":5}}`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, BackendRemote, cfg.Backend)
	assert.Equal(t, 5*time.Second, cfg.Timeout())
	assert.Equal(t, DefaultModelURL, cfg.Remote.ModelURL)
}

func TestLoadConfig_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{`), 0o644))
	_, err := LoadConfig(path)
	assert.ErrorContains(t, err, "decode config")
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.json")
	cfg := Config{
		DatasetPath: "data/reviews.tsv",
		Backend:     BackendLocal,
		Local:       LocalConfig{ModelPath: "models/sst2.onnx", TokenizerPath: "models/tokenizer.json"},
	}
	require.NoError(t, SaveConfig(path, cfg))
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp file left behind")

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	cfg.ApplyDefaults()
	assert.Equal(t, cfg, loaded)

	clone := loaded.Clone()
	clone.Local.Labels[0] = "changed"
	assert.Equal(t, "NEGATIVE", loaded.Local.Labels[0])
}

func TestSaveConfig_RejectsBlankDataset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, SaveConfig(path, Config{DatasetPath: "  mine.tsv "}))

	err := SaveConfig(path, Config{DatasetPath: " \t"})
	assert.ErrorContains(t, err, "dataset path is empty")

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "mine.tsv", loaded.DatasetPath)
}
