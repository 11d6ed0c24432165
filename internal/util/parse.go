package util

import (
	"strconv"
	"strings"
)

// ParseInt parses s, returning defaultValue when it is empty or malformed
func ParseInt(s string, defaultValue int) int {
	if val, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
		return val
	}
	return defaultValue
}

// ParseBool parses s, returning defaultValue when it is empty or malformed
func ParseBool(s string, defaultValue bool) bool {
	if val, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
		return val
	}
	return defaultValue
}

// SplitList parses a comma-separated list, dropping blanks
func SplitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
