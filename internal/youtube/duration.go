package youtube

import (
	"strconv"
	"strings"
)

// ParseDuration converts an ISO 8601 duration expression to total seconds.
// Example: "PT4M13S" -> 253.
//
// The parse is deliberately lenient: malformed or unmatched input yields 0
// seconds rather than an error, so one bad record never aborts a batch.
// Downstream filtering relies on 0 being excluded by the "> 0" duration
// bound.
func ParseDuration(duration string) int {
	rest, ok := strings.CutPrefix(duration, "PT")
	if !ok {
		return 0
	}

	var hours, minutes, seconds int

	if idx := strings.Index(rest, "H"); idx != -1 {
		h, err := strconv.Atoi(rest[:idx])
		if err != nil || h < 0 {
			return 0
		}
		hours = h
		rest = rest[idx+1:]
	}

	if idx := strings.Index(rest, "M"); idx != -1 {
		m, err := strconv.Atoi(rest[:idx])
		if err != nil || m < 0 {
			return 0
		}
		minutes = m
		rest = rest[idx+1:]
	}

	if idx := strings.Index(rest, "S"); idx != -1 {
		s, err := strconv.Atoi(rest[:idx])
		if err != nil || s < 0 {
			return 0
		}
		seconds = s
		rest = rest[idx+1:]
	}

	if rest != "" {
		return 0
	}

	return hours*3600 + minutes*60 + seconds
}

// FormatDuration renders (h, m, s) as an ISO 8601 duration expression,
// omitting zero components the way the platform does.
func FormatDuration(hours, minutes, seconds int) string {
	var b strings.Builder
	b.WriteString("PT")
	if hours > 0 {
		b.WriteString(strconv.Itoa(hours))
		b.WriteString("H")
	}
	if minutes > 0 {
		b.WriteString(strconv.Itoa(minutes))
		b.WriteString("M")
	}
	if seconds > 0 || (hours == 0 && minutes == 0) {
		b.WriteString(strconv.Itoa(seconds))
		b.WriteString("S")
	}
	return b.String()
}
