package utils

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseID parses a positive decimal identifier such as a path parameter.
func ParseID(s string) (uint, error) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	if uint64(uint(n)) != n {
		return 0, fmt.Errorf("id %q out of range", s)
	}
	return uint(n), nil
}

// OptionalString returns nil for blank input and a trimmed copy otherwise.
func OptionalString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
