package exporter

import (
	"strconv"
	"strings"
)

// formatHours renders hours the way the reporting dashboards read them:
// shortest round-trip form, with ".0" kept on whole numbers.
func formatHours(f float64) string {
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return s
}

// formatInt formats an int64 value for CSV output
func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

// formatOptionalFloat formats a nullable number, empty for nil
func formatOptionalFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
