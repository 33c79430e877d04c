package chat

import (
	"encoding/json"
	"strings"
)

// RepairJSON attempts to close off JSON that was cut short, typically by a
// token-budget truncation. Already-valid JSON is returned unchanged. The
// repair is a single pass: close an unterminated string, drop a dangling
// comma or complete a dangling colon, then close every open object and array
// in reverse order. The result may still fail to parse; callers re-parse and
// fall back if it does.
func RepairJSON(raw string) string {
	if json.Valid([]byte(raw)) {
		return raw
	}

	var stack []byte
	inString := false
	escaped := false
	lastSignificant := byte(0)

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
				lastSignificant = c
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) > 0 && stack[len(stack)-1] == c {
				stack = stack[:len(stack)-1]
			}
		}
		if !isSpace(c) {
			lastSignificant = c
		}
	}

	var sb strings.Builder
	sb.WriteString(raw)

	if inString {
		if escaped {
			// A pending backslash would escape the closing quote; neutralize
			// it into an escaped backslash first.
			sb.WriteString(`\`)
		}
		sb.WriteString(`"`)
	} else {
		switch lastSignificant {
		case ',':
			trimmed := strings.TrimRight(raw, " \t\r\n")
			sb.Reset()
			sb.WriteString(trimmed[:len(trimmed)-1])
		case ':':
			sb.WriteString("null")
		}
	}

	for i := len(stack) - 1; i >= 0; i-- {
		sb.WriteByte(stack[i])
	}

	return sb.String()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}
