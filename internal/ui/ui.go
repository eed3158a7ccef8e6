package ui

// Basic ANSI color codes used for log prefixes.
// Rendered output should use the lipgloss styles from styles.go instead.
const (
	Reset      = "\033[0m"
	LegacyBold = "\033[1m"
	FgCyan     = "\033[36m"
	FgGreen    = "\033[32m"
	FgMagenta  = "\033[35m"
	FgYellow   = "\033[33m"
	FgRed      = "\033[31m"
)

var noColor bool

// Init configures global rendering options. With noColor set, Color returns
// its input unchanged and log prefixes are written without escape codes.
func Init(disableColor bool) { noColor = disableColor }

// ColorDisabled reports whether Init turned ANSI colors off.
func ColorDisabled() bool { return noColor }

// Color wraps a string with the given ANSI code.
func Color(s string, code string) string {
	if noColor || code == "" {
		return s
	}
	return code + s + Reset
}
