package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSourceByName(t *testing.T) {
	src := GetSourceByName("dld-transactions")
	require.NotNil(t, src)
	assert.Equal(t, SchemaDLD, src.Schema)
	assert.NotEmpty(t, src.URL)

	assert.Nil(t, GetSourceByName("nonexistent"))
}

func TestGetSourceNames(t *testing.T) {
	names := GetSourceNames()
	assert.Contains(t, names, "dld-areas")
	assert.Contains(t, names, "dld-transactions")
}

func TestLoadSourceCatalog_FallsBackToDefaults(t *testing.T) {
	original := catalogPath
	catalogPath = filepath.Join(t.TempDir(), "missing.json")
	defer func() { catalogPath = original; sourceCatalog = nil }()

	require.NoError(t, LoadSourceCatalog())
	assert.Equal(t, DefaultSources, GetSources())
}

func TestLoadSourceCatalog_ReadsFile(t *testing.T) {
	original := catalogPath
	catalogPath = filepath.Join(t.TempDir(), "sources.json")
	defer func() { catalogPath = original; sourceCatalog = nil }()

	custom := `{"sources": [{"name": "custom", "url": "https://example.com/data.csv", "schema": "simple"}]}`
	require.NoError(t, os.WriteFile(catalogPath, []byte(custom), 0644))

	require.NoError(t, LoadSourceCatalog())
	sources := GetSources()
	require.Len(t, sources, 1)
	assert.Equal(t, "custom", sources[0].Name)
	assert.Equal(t, SchemaSimple, sources[0].Schema)

	src := GetSource("custom")
	require.NotNil(t, src)
	assert.Nil(t, GetSource("dld-areas"))
}

func TestUpdateSource(t *testing.T) {
	defer func() { sourceCatalog = nil }()
	sourceCatalog = &SourceCatalog{Sources: []Source{
		{Name: "a", URL: "https://example.com/a.csv", Schema: SchemaDLD},
	}}

	require.NoError(t, UpdateSource(Source{Name: "a", URL: "https://example.com/a2.csv", Schema: SchemaDLD}))
	require.NoError(t, UpdateSource(Source{Name: "b", URL: "https://example.com/b.csv", Schema: SchemaSimple}))

	assert.Len(t, GetSources(), 2)
	assert.Equal(t, "https://example.com/a2.csv", GetSource("a").URL)
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "5250", cfg.Server.Port)
	assert.Equal(t, 100, cfg.BatchProcessing.BatchSize)
	assert.False(t, cfg.BatchProcessing.RowFallback)
	assert.Equal(t, 3, cfg.Fetch.MaxRetries)
	assert.Equal(t, 3, cfg.Ingestion.MaxConcurrent)
	assert.InDelta(t, 0.4, cfg.Quality.CompletenessWeight, 1e-9)
	assert.InDelta(t, 0.3, cfg.Quality.ConsistencyWeight, 1e-9)
	assert.InDelta(t, 0.3, cfg.Quality.ValidityWeight, 1e-9)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("BATCH_SIZE", "250")
	t.Setenv("BATCH_ROW_FALLBACK", "true")
	t.Setenv("INGEST_INTERVAL_MINUTES", "0")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.BatchProcessing.BatchSize)
	assert.True(t, cfg.BatchProcessing.RowFallback)
	assert.Zero(t, cfg.Ingestion.Interval)
}
