package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHexToRGB(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		r, g, b uint8
		wantErr bool
	}{
		{name: "red", input: "#ff0000", r: 255},
		{name: "grey", input: "#777777", r: 0x77, g: 0x77, b: 0x77},
		{name: "upper case without hash", input: "1A2B3C", r: 0x1a, g: 0x2b, b: 0x3c},
		{name: "short form", input: "#444", r: 0x44, g: 0x44, b: 0x44},
		{name: "too long", input: "#FF112233", wantErr: true},
		{name: "not hex", input: "#zzzzzz", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, g, b, err := HexToRGB(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.False(t, IsHexColor(tt.input))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.r, r)
			assert.Equal(t, tt.g, g)
			assert.Equal(t, tt.b, b)
			assert.True(t, IsHexColor(tt.input))
		})
	}
}
