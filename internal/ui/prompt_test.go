package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrompter_Confirm(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"empty accepts", "\n", true},
		{"y", "y\n", true},
		{"YES", "YES\n", true},
		{"n", "n\n", false},
		{"no", "no\n", false},
		{"asks again", "maybe\nn\n", false},
		{"answer without newline", "y", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewPrompter(strings.NewReader(tt.input), &out)

			got, err := p.Confirm("Install firefox?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Contains(t, out.String(), "Install firefox?")
		})
	}

	t.Run("EOF cancels", func(t *testing.T) {
		p := NewPrompter(strings.NewReader(""), &bytes.Buffer{})
		_, err := p.Confirm("Proceed?")
		assert.ErrorIs(t, err, ErrUserCancelled)
	})
}

func TestPrompter_ReadLine(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("  1 3 \nnext\n"), &out)

	line, err := p.ReadLine("> ")
	require.NoError(t, err)
	assert.Equal(t, "1 3", line)

	line, err = p.ReadLine("")
	require.NoError(t, err)
	assert.Equal(t, "next", line)

	_, err = p.ReadLine("> ")
	assert.ErrorIs(t, err, ErrUserCancelled)
	assert.Equal(t, &out, p.Out())
}

func TestAutoConfirmer(t *testing.T) {
	var out bytes.Buffer
	ok, err := AutoConfirmer{Out: &out}.Confirm("Update system?")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Contains(t, out.String(), "Update system?")
	assert.True(t, strings.HasSuffix(out.String(), " Y\n"))

	ok, err = AutoConfirmer{}.Confirm("silent")
	require.NoError(t, err)
	assert.True(t, ok)
}
