package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskEmail(t *testing.T) {
	tests := map[string]string{
		"":                 "",
		"abcd@domain.com":  "a***@domain.com",
		"a@domain.com":     "***@domain.com",
		"not-an-address":   "***",
		"x.y@a@domain.com": "x***@domain.com",
	}
	for in, want := range tests {
		assert.Equal(t, want, MaskEmail(in), in)
	}
}
