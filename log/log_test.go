//nolint:funlen // by design
package log

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEmitsJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(buf, InfoLevel).Named("store")
	l.Debug("hidden")
	l.Info("opened", String("path", "/tmp/x.db"), Int("files", 3))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "opened", entry["msg"])
	assert.Equal(t, "store", entry["logger"])
	assert.Equal(t, "/tmp/x.db", entry["path"])
	assert.InDelta(t, 3, entry["files"], 0)
}

func TestWithFilter(t *testing.T) {
	tests := []struct {
		name  string
		rules string
		want  []string
	}{
		{"all", "*:*", []string{"a-debug", "b-debug", "b-info"}},
		{"only store debug", "debug:store info:*", []string{"a-debug", "b-info"}},
		{"exclude scan", "*:* -*:scan", []string{"a-debug"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			opt, err := WithFilter(tt.rules)
			require.NoError(t, err)
			base := New(buf, DebugLevel, opt)
			base.Named("store").Debug("a-debug")
			base.Named("scan").Debug("b-debug")
			base.Named("scan").Info("b-info")
			got := []string{}
			for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
				if line == "" {
					continue
				}
				var entry map[string]any
				require.NoError(t, json.Unmarshal([]byte(line), &entry))
				got = append(got, entry["msg"].(string))
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestContext(t *testing.T) {
	buf := &bytes.Buffer{}
	l := New(buf, DebugLevel)
	ctx := AddToContext(context.Background(), l)
	assert.Same(t, l, GetFromContext(ctx))
	assert.Same(t, Default(), GetFromContext(context.Background()))
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, WarnLevel, lvl)
	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}
