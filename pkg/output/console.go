package output

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	isatty "github.com/mattn/go-isatty"
)

var (
	styleArrow    = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)  // cyan/blue
	styleSection  = lipgloss.NewStyle().Foreground(lipgloss.Color("15")).Bold(true)  // bright white
	styleDesc     = lipgloss.NewStyle().Faint(true)                                  // dim
	styleWarnLbl  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true) // yellow
	styleWarnTxt  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))            // yellow
	styleErrLbl   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true) // red
	styleNote     = lipgloss.NewStyle().Foreground(lipgloss.Color("45")).Faint(true) // teal dim
	styleExported = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)  // green
	styleZero     = lipgloss.NewStyle().Faint(true)
	colorEnabled  = true
)

// InitConsole configures color output based on noColor and whether stderr is a terminal.
func InitConsole(noColor bool) {
	tty := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	colorEnabled = tty && !noColor
}

func r(st lipgloss.Style, s string) string {
	if !colorEnabled {
		return s
	}
	return st.Render(s)
}

// SectionHeader returns a colored header for a batch job and its optional description.
func SectionHeader(name, description string) string {
	var b strings.Builder
	arrow := r(styleArrow, "→")
	b.WriteString(fmt.Sprintf("%s %s\n", arrow, r(styleSection, name)))
	if strings.TrimSpace(description) != "" {
		b.WriteString(r(styleDesc, "  "+description))
		b.WriteByte('\n')
	}
	return b.String()
}

func Warnf(format string, a ...interface{}) string {
	msg := fmt.Sprintf(format, a...)
	return r(styleWarnLbl, "Warning:") + " " + r(styleWarnTxt, msg)
}

func Errorf(format string, a ...interface{}) string {
	return r(styleErrLbl, "Error:") + " " + fmt.Sprintf(format, a...)
}

// Notef returns a faint informational line.
func Notef(format string, a ...interface{}) string {
	return r(styleNote, fmt.Sprintf(format, a...))
}

func Debugf(format string, a ...interface{}) string {
	return r(styleDesc, "debug: "+fmt.Sprintf(format, a...))
}

// ExportedCount returns a colored summary of how many variables were exported.
func ExportedCount(n int) string {
	if n <= 0 {
		return r(styleZero, "  Exported 0 variable(s)")
	}
	return r(styleExported, fmt.Sprintf("  Exported %d variable(s)", n))
}

// ListNames returns a faint bullet list of names.
func ListNames(names []string) string {
	if len(names) == 0 {
		return ""
	}
	var b strings.Builder
	for _, n := range names {
		b.WriteString(r(styleDesc, "    - "))
		b.WriteString(r(styleDesc, n))
		b.WriteByte('\n')
	}
	return b.String()
}

// ShortError condenses a multi-line error into its first non-empty line.
func ShortError(err error) string {
	if err == nil {
		return ""
	}
	for _, ln := range strings.Split(err.Error(), "\n") {
		if t := strings.TrimSpace(ln); t != "" {
			return t
		}
	}
	return ""
}
