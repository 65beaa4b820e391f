package search

import (
	"sort"
	"strings"
)

// synonyms maps domain terms in both scripts to related terms.
// Expansion is bidirectional: matching a key pulls in its synonyms,
// matching a synonym pulls in its key plus the key's full list.
var synonyms = map[string][]string{
	// AI / ML
	"ذكاء":             {"ai", "artificial intelligence", "machine learning", "data scientist", "mlops"},
	"اصطناعي":          {"ai", "artificial intelligence", "machine learning", "data scientist"},
	"ذكاء اصطناعي":     {"ai", "artificial intelligence", "machine learning", "data scientist", "mlops"},
	"ai":               {"artificial intelligence", "machine learning", "data scientist", "mlops", "data science"},
	"artificial intelligence": {"ai", "machine learning", "data scientist", "mlops"},
	"machine learning": {"ai", "data scientist", "mlops", "ml"},
	"ml":               {"machine learning", "ai", "mlops", "data scientist"},
	"data science":     {"ai", "data scientist", "machine learning"},
	"بيانات":           {"data", "data scientist", "ai"},

	// Web development
	"ويب":        {"web", "frontend", "backend", "full stack"},
	"web":        {"frontend", "backend", "full stack"},
	"فرونت":      {"frontend", "react", "javascript"},
	"فرونت اند":  {"frontend", "react", "javascript", "web"},
	"فرونت إند":  {"frontend", "react", "javascript", "web"},
	"الفرونت":    {"frontend", "react", "javascript"},
	"frontend":   {"react", "javascript", "web"},
	"باك":        {"backend", "node", "python", "java"},
	"باك اند":    {"backend", "node", "python", "java", "web"},
	"باك إند":    {"backend", "node", "python", "java", "web"},
	"الباك":      {"backend", "node", "python", "java"},
	"backend":    {"node", "python", "java", "web"},
	"full stack": {"frontend", "backend", "web"},
	"فول ستاك":   {"full stack", "frontend", "backend"},

	// Mobile
	"موبايل":  {"mobile", "android", "flutter", "react native"},
	"mobile":  {"android", "flutter", "react native"},
	"اندرويد": {"android", "mobile"},
	"android": {"mobile"},
	"flutter": {"mobile"},

	// DevOps
	"ديف اوبس":  {"devops", "docker", "kubernetes"},
	"devops":     {"docker", "kubernetes"},
	"docker":     {"devops", "kubernetes"},
	"kubernetes": {"devops", "docker"},

	// Security
	"امن":      {"security", "cyber security", "cyber"},
	"امان":     {"security", "cyber security"},
	"security": {"cyber security", "cyber"},
	"cyber":    {"security", "cyber security"},

	// Database
	"قواعد بيانات": {"database", "sql", "mongodb", "postgresql"},
	"database":     {"sql", "mongodb", "postgresql"},
	"sql":          {"database", "postgresql"},
	"mongodb":      {"database"},
	"postgresql":   {"database", "sql"},

	// Design
	"تصميم": {"design", "ux"},
	"design": {"ux"},
	"ux":     {"design"},

	// Blockchain
	"بلوكتشين":  {"blockchain"},
	"blockchain": {"web3"},
	"web3":       {"blockchain"},

	// Programming languages
	"python":     {"backend", "ai", "data scientist"},
	"java":       {"backend"},
	"javascript": {"frontend", "backend", "node"},
	"react":      {"frontend"},
	"node":       {"backend"},
	"go":         {"backend"},
	"golang":     {"go", "backend"},
}

// ExpandQuery returns the lowercased query plus every synonym variant
// reachable through the map. The result is de-duplicated and sorted so
// identical inputs always produce identical output.
func ExpandQuery(query string) []string {
	lowered := strings.ToLower(query)
	seen := map[string]struct{}{lowered: {}}

	for key, related := range synonyms {
		if strings.Contains(lowered, key) {
			for _, s := range related {
				seen[s] = struct{}{}
			}
		}
		for _, s := range related {
			if strings.Contains(lowered, s) {
				seen[key] = struct{}{}
				for _, again := range related {
					seen[again] = struct{}{}
				}
				break
			}
		}
	}

	out := make([]string, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
