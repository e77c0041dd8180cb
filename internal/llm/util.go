package llm

import "strings"

// CleanJSONBlock strips markdown code fences that models wrap around JSON
// output. Handles ```json ... ``` fences, bare ``` fences and a language
// identifier on the first fenced line. Input without fences is returned
// trimmed.
func CleanJSONBlock(s string) string {
	s = strings.TrimSpace(s)

	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		first := strings.TrimSpace(s[:idx])
		// "json", "JSON" or any short language tag on the fence line.
		if len(first) <= 10 && !strings.ContainsAny(first, "{}[]") {
			s = s[idx+1:]
		}
	}

	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
