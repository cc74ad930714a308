package youtube

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{"PT4M13S", 253},
		{"PT10M", 600},
		{"PT2H", 7200},
		{"PT1H2M3S", 3723},
		{"PT40S", 40},
		{"PT0S", 0},
		{"PT", 0},
		{"", 0},
		{"4M13S", 0},
		{"PTXS", 0},
		{"PT1H2X", 0},
		{"P1DT2H", 0},
		{"garbage", 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.input), func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDuration(tt.input))
		})
	}
}

// Decoding a well-formed encoding always recovers h*3600+m*60+s.
func TestParseDuration_RoundTrip(t *testing.T) {
	for _, h := range []int{0, 1, 2, 13} {
		for _, m := range []int{0, 1, 35, 59} {
			for _, s := range []int{0, 1, 42, 59} {
				iso := FormatDuration(h, m, s)
				want := h*3600 + m*60 + s
				assert.Equal(t, want, ParseDuration(iso), "h=%d m=%d s=%d iso=%s", h, m, s, iso)
			}
		}
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "PT0S", FormatDuration(0, 0, 0))
	assert.Equal(t, "PT1H", FormatDuration(1, 0, 0))
	assert.Equal(t, "PT4M13S", FormatDuration(0, 4, 13))
	assert.Equal(t, "PT2H7S", FormatDuration(2, 0, 7))
}
