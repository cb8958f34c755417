package settings

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/simresults-indexer/pkg/config"
)

func TestSetAndShow(t *testing.T) {
	file := filepath.Join(t.TempDir(), "settings.json")
	orig := struct{ file, pilots, folder string }{
		config.SettingsFile, config.PilotNames, config.ResultsFolder,
	}
	t.Cleanup(func() {
		config.SettingsFile, config.PilotNames, config.ResultsFolder = orig.file, orig.pilots, orig.folder
	})
	config.SettingsFile = file
	config.PilotNames = "Jane Doe, John Roe"
	config.ResultsFolder = "/results"

	cmd := NewSettingsCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs([]string{"set", "--session-types", "Race, qualifying"})
	require.NoError(t, cmd.Execute())

	saved, err := config.LoadSettings(file)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe, John Roe", saved.PilotNames)
	assert.Equal(t, []string{"race", "qualifying"}, saved.SessionTypes)

	config.PilotNames = ""
	config.ResultsFolder = ""
	out.Reset()
	cmd = NewSettingsCmd()
	cmd.SetOut(out)
	cmd.SetArgs([]string{"show"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "pilotNames: Jane Doe, John Roe")
	assert.Contains(t, out.String(), "resultsFolder: /results")
}

func TestSetInvalid(t *testing.T) {
	orig := struct{ file, pilots, folder string }{
		config.SettingsFile, config.PilotNames, config.ResultsFolder,
	}
	t.Cleanup(func() {
		config.SettingsFile, config.PilotNames, config.ResultsFolder = orig.file, orig.pilots, orig.folder
	})
	config.SettingsFile = filepath.Join(t.TempDir(), "settings.json")
	config.PilotNames = ""
	config.ResultsFolder = ""

	cmd := NewSettingsCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"set"})
	assert.ErrorIs(t, cmd.Execute(), config.ErrInvalidSettings)
}
