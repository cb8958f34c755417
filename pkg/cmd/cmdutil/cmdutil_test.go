package cmdutil

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/simresults-indexer/log"
	"github.com/mpapenbr/simresults-indexer/pkg/config"
	"github.com/mpapenbr/simresults-indexer/pkg/service"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, log.DebugLevel, ParseLogLevel("debug", log.InfoLevel))
	assert.Equal(t, log.WarnLevel, ParseLogLevel("nonsense", log.WarnLevel))
}

func TestPrint(t *testing.T) {
	t.Cleanup(func() { config.Query = "" })
	buf := &bytes.Buffer{}
	config.Query = "$.name"
	require.NoError(t, Print(buf, map[string]string{"name": "Spa"}))
	assert.Equal(t, "\"Spa\"\n", buf.String())
}

func TestUnwrap(t *testing.T) {
	v, err := Unwrap(service.Result[int]{OK: true, Data: 3})
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	_, err = Unwrap(service.Result[int]{Error: "boom"})
	assert.EqualError(t, err, "boom")
}

func TestNewEnv(t *testing.T) {
	dir := t.TempDir()
	settingsFile := filepath.Join(dir, "settings.json")
	require.NoError(t, os.WriteFile(settingsFile,
		[]byte(`{"pilotNames":"Jane Doe","resultsFolder":"/tmp/results"}`), 0o600))

	orig := struct{ db, settings, pilots string }{config.DB, config.SettingsFile, config.PilotNames}
	t.Cleanup(func() {
		config.DB, config.SettingsFile, config.PilotNames = orig.db, orig.settings, orig.pilots
	})
	config.DB = filepath.Join(dir, "sri.db")
	config.SettingsFile = settingsFile
	config.PilotNames = "John Roe"

	env, err := NewEnv(context.Background())
	require.NoError(t, err)
	defer env.Close()

	assert.Equal(t, "John Roe", env.Settings.PilotNames)
	assert.Equal(t, "/tmp/results", env.Settings.ResultsFolder)
	require.NotNil(t, env.Store)
	assert.False(t, env.Store.Degraded())

	noStore, err := NewEnv(context.Background(), WithoutStore())
	require.NoError(t, err)
	defer noStore.Close()
	assert.Nil(t, noStore.Store)
}
