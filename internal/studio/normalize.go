package studio

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

var codeFenceRegex = regexp.MustCompile("(?s)^```[A-Za-z0-9_-]*[ \\t]*\\n?(.*?)\\n?[ \\t]*```$")

func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if m := codeFenceRegex.FindStringSubmatch(trimmed); m != nil {
		return strings.TrimSpace(m[1])
	}
	return trimmed
}

// NormalizeOutput prepares model text for display. JSON output loses any code
// fence and is re-indented when it parses; otherwise the unfenced text is
// returned as is. Classic output is returned unchanged.
func NormalizeOutput(format OutputFormat, text string) string {
	if format != FormatJSON {
		return text
	}
	body := stripCodeFence(text)
	if !json.Valid([]byte(body)) {
		return body
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(body), "", "  "); err != nil {
		return body
	}
	return buf.String()
}
