package configutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	BaseUrl  string `json:"base_url"`
	Headless bool   `json:"headless"`
	Plan     struct {
		Start string `json:"start_marker"`
		End   string `json:"end_marker"`
	} `json:"plan"`
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ifsuap.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{
		// comments are allowed
		base_url: "https://suap.ifpr.edu.br",
		plan: {start_marker: "Conteúdo Programático", end_marker: "Procedimentos"},
	}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ifsuap.local.json5"), []byte(`{
		headless: true,
		plan: {end_marker: "Avaliação"},
	}`), 0644))

	config, err := ReadConfig[testConfig](path)
	require.NoError(t, err)
	require.Equal(t, "https://suap.ifpr.edu.br", config.BaseUrl)
	require.True(t, config.Headless)
	require.Equal(t, "Conteúdo Programático", config.Plan.Start)
	require.Equal(t, "Avaliação", config.Plan.End)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load[testConfig](filepath.Join(t.TempDir(), "none.json5"), "none.json5")
	require.True(t, errors.Is(err, os.ErrNotExist))
}

func TestLocalPath(t *testing.T) {
	require.Equal(t, filepath.Join("dir", "ifsuap.local.json5"), LocalPath(filepath.Join("dir", "ifsuap.json5")))
	require.Equal(t, "telemetry.local", LocalPath("telemetry"))
}

func TestReadConfigOnlyLocal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ifsuap.local.json5"), []byte(`{headless: true}`), 0644))

	config, err := ReadConfig[testConfig](filepath.Join(dir, "ifsuap.json5"))
	require.NoError(t, err)
	require.True(t, config.Headless)
}
