package llm

import "strings"

// ExtractJSON strips Markdown code fences from a model response and
// narrows it to the outermost JSON object. Models frequently wrap JSON
// in ```json fences even when told not to; callers still have to
// unmarshal and validate the result.
func ExtractJSON(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		// drop a language tag like "json" on the fence line
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			first := strings.TrimSpace(s[:i])
			if first == "" || !strings.ContainsAny(first, "{}") {
				s = s[i+1:]
			}
		}
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
	}

	// narrow to the outermost object if there is surrounding prose
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
