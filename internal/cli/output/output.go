// Package output prints impactctl results as colored text, tables or JSON.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	json "github.com/json-iterator/go"
)

// Format selects how results are printed
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

var (
	out    io.Writer = os.Stdout
	format           = FormatText

	bold    = color.New(color.Bold)
	success = color.New(color.FgGreen)
	failure = color.New(color.FgRed)
	info    = color.New(color.FgCyan)
	warning = color.New(color.FgYellow)
)

// SetFormat selects the output format. Unknown values fall back to text.
func SetFormat(f string) {
	if Format(f) == FormatJSON {
		format = FormatJSON
		return
	}
	format = FormatText
}

// SetWriter redirects output, for tests
func SetWriter(w io.Writer) {
	out = w
}

// IsJSON reports whether JSON output was requested
func IsJSON() bool {
	return format == FormatJSON
}

// JSON prints v indented
func JSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(data))
	return err
}

// Success prints a green line
func Success(msg string, args ...interface{}) {
	success.Fprintf(out, "✓ "+msg+"\n", args...)
}

// Error prints a red line
func Error(msg string, args ...interface{}) {
	failure.Fprintf(out, "✗ "+msg+"\n", args...)
}

// Info prints a cyan line
func Info(msg string, args ...interface{}) {
	info.Fprintf(out, msg+"\n", args...)
}

// Warning prints a yellow line
func Warning(msg string, args ...interface{}) {
	warning.Fprintf(out, "! "+msg+"\n", args...)
}

// Heading prints a bold title
func Heading(title string) {
	bold.Fprintln(out, title)
}

// Table prints rows under bold headers
func Table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	bold.Fprintln(tw, strings.Join(headers, "\t"))
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	_ = tw.Flush()
}

// KeyValues prints aligned "key: value" pairs in order
func KeyValues(pairs [][2]string) {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, p := range pairs {
		fmt.Fprintf(tw, "%s:\t%s\n", bold.Sprint(p[0]), p[1])
	}
	_ = tw.Flush()
}

// Truncate shortens s to n runes with an ellipsis
func Truncate(s string, n int) string {
	r := []rune(strings.TrimSpace(s))
	if len(r) <= n {
		return string(r)
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
