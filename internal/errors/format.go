package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"strings"
)

// style is an ANSI SGR sequence.
type style string

const (
	styleRed    style = "\033[1;31m"
	styleCode   style = "\033[1;37m"
	styleGray   style = "\033[90m"
	styleYellow style = "\033[33m"
	styleReset  style = "\033[0m"
)

// colorEnabled controls whether ANSI colors are used.
var colorEnabled = true

// DisableColors disables ANSI color output.
func DisableColors() {
	colorEnabled = false
}

// EnableColors enables ANSI color output.
func EnableColors() {
	colorEnabled = true
}

func paint(s style, text string) string {
	if !colorEnabled {
		return text
	}
	return string(s) + text + string(styleReset)
}

// Format renders the error for a terminal: a headline, the wrapped
// detail, the cause and the fix suggestion.
func (e *Error) Format() string {
	var b strings.Builder

	head := "ERROR"
	if e.Code != "" {
		head += " " + paint(styleCode, e.Code+":")
	} else {
		head += ":"
	}
	fmt.Fprintf(&b, "\n%s %s\n", paint(styleRed, head), e.Message)

	if lines := wrapText(e.Detail, 72); len(lines) > 0 {
		b.WriteString("\n")
		for _, line := range lines {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}
	if e.Wrapped != nil {
		fmt.Fprintf(&b, "\n  %s %s\n", paint(styleGray, "Cause:"), e.Wrapped)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "\n  %s %s\n", paint(styleYellow, "Hint:"), e.Suggestion)
	}
	return b.String()
}

// FormatCompact renders the error on one line, for logs.
func (e *Error) FormatCompact() string {
	s := e.Message
	if e.Code != "" {
		s = e.Code + ": " + s
	}
	if e.Detail != "" {
		s += " (" + e.Detail + ")"
	}
	return s
}

type jsonError struct {
	Code       string   `json:"code,omitempty"`
	Category   Category `json:"category"`
	Message    string   `json:"message"`
	Detail     string   `json:"detail,omitempty"`
	Suggestion string   `json:"suggestion,omitempty"`
	Cause      string   `json:"cause,omitempty"`
}

// FormatJSON renders the error as a JSON object.
func (e *Error) FormatJSON() string {
	je := jsonError{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Detail:     e.Detail,
		Suggestion: e.Suggestion,
	}
	if e.Wrapped != nil {
		je.Cause = e.Wrapped.Error()
	}
	data, err := json.Marshal(je)
	if err != nil {
		return fmt.Sprintf(`{"message":%q}`, e.Error())
	}
	return string(data)
}

// Report writes err to w. Coded errors anywhere in err's chain use Format,
// or FormatJSON when asJSON is set; other errors are written as one line.
func Report(w io.Writer, err error, asJSON bool) {
	if err == nil {
		return
	}
	var ke *Error
	coded := stderrors.As(err, &ke)
	switch {
	case coded && asJSON:
		fmt.Fprintln(w, ke.FormatJSON())
	case coded:
		// Keep the context added by wrappers, e.g. "step 3".
		if ctx := strings.TrimRight(strings.TrimSuffix(err.Error(), ke.Error()), ": "); ctx != "" {
			fmt.Fprintf(w, "%s\n", paint(styleGray, ctx))
		}
		fmt.Fprint(w, ke.Format())
	case asJSON:
		fmt.Fprintln(w, (&Error{Message: err.Error()}).FormatJSON())
	default:
		fmt.Fprintf(w, "%s %s\n", paint(styleRed, "ERROR:"), err)
	}
}

// wrapText breaks text into lines no longer than width, splitting on
// spaces. Single words longer than width get a line of their own.
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	lines := []string{words[0]}
	for _, w := range words[1:] {
		last := &lines[len(lines)-1]
		if len(*last)+1+len(w) > width {
			lines = append(lines, w)
			continue
		}
		*last += " " + w
	}
	return lines
}
