package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// HexToRGB converts a "#RRGGBB" or "#RGB" color to its components.
// Example: "#ff0000" -> 255, 0, 0
func HexToRGB(hexColor string) (r, g, b uint8, err error) {
	h := strings.TrimPrefix(strings.TrimSpace(hexColor), "#")
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 {
		return 0, 0, 0, fmt.Errorf("invalid hex color %q", hexColor)
	}

	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to parse color string: %w", err)
	}
	return uint8(v >> 16), uint8(v >> 8), uint8(v), nil
}

// IsHexColor reports whether HexToRGB accepts the value.
func IsHexColor(hexColor string) bool {
	_, _, _, err := HexToRGB(hexColor)
	return err == nil
}
