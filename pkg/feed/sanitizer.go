package feed

import (
	"strings"
)

const fence = "```"

// Clean strips markdown code fencing the model sometimes wraps generated XML into.
// At most one leading fence (optionally followed by a language tag like "xml") and at most
// one trailing fence are removed, and the result is trimmed. Text without any fence marker
// is returned as is, and so is nested fencing, where the stripped text would still carry
// a fence to strip. This keeps Clean(Clean(x)) == Clean(x) for any x.
func Clean(text string) string {
	res := peel(text)
	if peel(res) != res {
		return text
	}
	return res
}

// peel removes one layer of fencing
func peel(text string) string {
	if !strings.Contains(text, fence) {
		return text
	}

	res := strings.TrimSpace(text)
	if strings.HasPrefix(res, fence) {
		res = res[len(fence):]
		res = res[langTagLen(res):]
	}
	res = strings.TrimSpace(res)
	res = strings.TrimSuffix(res, fence)
	return strings.TrimSpace(res)
}

// langTagLen returns the length of the language hint directly following an opening fence
func langTagLen(s string) int {
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_' || r == '+' || r == '.':
		default:
			return i
		}
	}
	return len(s)
}
