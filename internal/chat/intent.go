package chat

import (
	"regexp"
	"strings"
)

// Trigger phrases that route a query to the roadmap corpus instead of
// the FAQ corpus, in both scripts.
var roadmapTriggers = []*regexp.Regexp{
	regexp.MustCompile(`(مسار|رود\s*ماب|خريطة|طريق)`),
	regexp.MustCompile(`(ازاي\s+اتعلم|كيف\s+اتعلم|عايز\s+اتعلم)`),
	regexp.MustCompile(`(roadmap|road\s*map|path|guide)`),
	regexp.MustCompile(`(how\s+to\s+learn|learning\s+path)`),
}

// IsRoadmapRequest reports whether the (contextualized) query asks for
// a learning path.
func IsRoadmapRequest(query string) bool {
	lowered := strings.ToLower(query)
	for _, p := range roadmapTriggers {
		if p.MatchString(lowered) {
			return true
		}
	}
	return false
}
