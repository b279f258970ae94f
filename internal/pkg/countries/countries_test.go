package countries_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"shortn/internal/pkg/countries"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{"FR", "France"},
		{"de", "Germany"},
		{"USA", "United States"},
		{"zz", "ZZ"},
		{"", ""},
		{"  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, countries.DisplayName(tt.code))
		})
	}
}
