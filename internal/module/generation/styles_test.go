package generation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStyle(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Style
		wantErr bool
	}{
		{name: "empty means no styling", input: "", want: StyleNone},
		{name: "known style", input: "Blackwork", want: StyleBlackwork},
		{name: "unknown style", input: "Cubist", wantErr: true},
		{name: "case sensitive", input: "blackwork", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseStyle(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStyledPrompt(t *testing.T) {
	p := StyledPrompt(StyleWatercolor, "a fox curled around a crescent moon")

	assert.True(t, strings.HasPrefix(p, "Generate a tattoo design in the Watercolor style."))
	assert.Contains(t, p, "With the following description: a fox curled around a crescent moon.")
	assert.Contains(t, p, "without any additional content")
}
