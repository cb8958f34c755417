package index

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
)

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			cmd := &cobra.Command{}
			out := &bytes.Buffer{}
			cmd.SetIn(strings.NewReader(tt.input))
			cmd.SetOut(out)
			assert.Equal(t, tt.want, confirm(cmd, "sure?"))
			assert.Equal(t, "sure? [y/N] ", out.String())
		})
	}
}
