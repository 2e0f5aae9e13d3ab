package resolver

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseInt reads a number the way a numeric form field is read: leading
// whitespace and an optional sign, then as many decimal digits as follow.
// Anything after the digits ("12.5", "40px") is dropped.
func ParseInt(raw string) (int, bool) {
	s := strings.TrimLeftFunc(raw, unicode.IsSpace)

	sign := ""
	if s != "" && (s[0] == '+' || s[0] == '-') {
		if s[0] == '-' {
			sign = "-"
		}
		s = s[1:]
	}

	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}

	n, err := strconv.Atoi(sign + s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// ParseDimension is ParseInt restricted to 1..MaxDimension.
func ParseDimension(raw string) (int, bool) {
	n, ok := ParseInt(raw)
	if !ok || n <= 0 || n > MaxDimension {
		return 0, false
	}
	return n, true
}
