// Package classify routes a free-text query to a search strategy by counting
// keyword signals.
package classify

import (
	"regexp"
	"strings"
)

// Mode is a search strategy.
type Mode string

const (
	ModeCode Mode = "code"
	ModeNews Mode = "news"
	ModeDual Mode = "dual"
	ModeWeb  Mode = "web"
)

// Scores holds the keyword counts behind a classification.
type Scores struct {
	Lang     int `json:"lang"`
	Code     int `json:"code"`
	News     int `json:"news"`
	Research int `json:"research"`
	GitHub   int `json:"github"`
	Company  int `json:"company"`
	Paper    int `json:"paper"`
}

// Result is the outcome of Classify. Category is empty when no filter is
// suggested.
type Result struct {
	Mode     Mode   `json:"mode"`
	Category string `json:"category,omitempty"`
	Scores   Scores `json:"scores"`
}

var wordRe = regexp.MustCompile(`\b\w+\b`)

var langKeywords = newKeywordSet(
	"python", "javascript", "typescript", "react", "vue", "angular", "svelte",
	"rust", "go", "golang", "java", "kotlin", "swift", "cpp", "csharp", "c#",
	"node", "nodejs", "deno", "bun", "django", "flask", "fastapi", "express",
	"nextjs", "nuxt", "remix", "prisma", "drizzle", "postgresql", "mongodb",
	"redis", "docker", "kubernetes", "aws", "gcp", "azure", "terraform", "git",
	"npm", "pip", "cargo", "pnpm", "yarn", "vite", "webpack", "tailwind",
	"pytorch", "tensorflow", "pandas", "numpy", "scipy", "sklearn",
)

var codeKeywords = newKeywordSet(
	"function", "method", "class", "interface", "api", "endpoint", "rest",
	"graphql", "websocket", "library", "package", "module", "import", "export",
	"async", "await", "callback", "promise", "hook", "component", "props",
	"middleware", "router", "controller", "model", "schema", "migration",
	"example", "examples", "tutorial", "docs", "documentation", "sdk",
	"implement", "syntax", "usage", "snippet", "code", "coding",
	"error", "fix", "debug", "install", "setup", "configure", "config",
)

var newsKeywords = newKeywordSet(
	"news", "latest", "recent", "announced", "released", "launching", "launch",
	"update", "updates", "version", "today", "yesterday", "this week",
	"2024", "2025", "2026", "breaking", "announcement", "preview", "beta",
	"rumor", "leak", "report", "says", "confirms", "reveals",
)

var researchKeywords = newKeywordSet(
	"vs", "versus", "comparison", "compare", "difference", "differences",
	"between", "better", "best", "worst", "tradeoff", "tradeoffs",
	"pros", "cons", "advantages", "disadvantages", "alternatives", "alternative",
	"benchmark", "performance", "review", "analysis", "study", "research",
)

var githubSignals = newKeywordSet(
	"github", "repo", "repository", "repositories", "starred", "stars",
	"fork", "forks", "open source", "opensource", "oss", "mit license",
	"npm package", "pypi", "crates.io", "awesome list",
)

var companySignals = newKeywordSet(
	"company", "startup", "pricing", "plans", "enterprise", "saas",
	"founded", "ceo", "funding", "valuation", "competitors", "market",
)

var paperSignals = newKeywordSet(
	"paper", "papers", "arxiv", "research", "study", "journal", "publication",
	"abstract", "methodology", "findings", "hypothesis", "experiment",
	"peer reviewed", "citations", "authors", "phd", "thesis",
)

// keywordSet matches single words by token and multi-word or punctuated
// entries by substring.
type keywordSet struct {
	words   map[string]struct{}
	phrases []string
}

func newKeywordSet(entries ...string) keywordSet {
	set := keywordSet{words: make(map[string]struct{}, len(entries))}
	for _, entry := range entries {
		if wordRe.FindString(entry) == entry {
			set.words[entry] = struct{}{}
		} else {
			set.phrases = append(set.phrases, entry)
		}
	}
	return set
}

func (s keywordSet) count(words map[string]struct{}, text string) int {
	n := 0
	for word := range words {
		if _, ok := s.words[word]; ok {
			n++
		}
	}
	for _, phrase := range s.phrases {
		if strings.Contains(text, phrase) {
			n++
		}
	}
	return n
}

// Classify suggests a search mode and, when the signals are strong enough, a
// category filter.
func Classify(query string) Result {
	text := strings.ToLower(query)
	words := make(map[string]struct{})
	for _, w := range wordRe.FindAllString(text, -1) {
		words[w] = struct{}{}
	}

	var s Scores
	s.Lang = langKeywords.count(words, text)
	s.Code = codeKeywords.count(words, text) + s.Lang
	s.News = newsKeywords.count(words, text)
	s.Research = researchKeywords.count(words, text)
	s.GitHub = githubSignals.count(words, text)
	s.Company = companySignals.count(words, text)
	s.Paper = paperSignals.count(words, text)

	if strings.Contains(text, "how to") || strings.Contains(text, "how do") {
		s.Code += 2
	}
	if strings.Contains(text, "what is") && s.Code >= 1 {
		s.Code++
	}
	if strings.Contains(text, "best practices") {
		s.Code++
		s.Research++
	}

	var category string
	switch {
	case s.GitHub >= 2 || (s.GitHub >= 1 && s.Code >= 2):
		category = "github"
	case s.Paper >= 2:
		category = "research paper"
	case s.Company >= 2:
		category = "company"
	case s.News >= 2 && s.Code == 0:
		category = "news"
	}

	res := Result{Category: category, Scores: s}
	switch {
	case s.Code >= 2 && s.News == 0 && s.Research == 0:
		res.Mode = ModeCode
	case s.News >= 1 && s.Code == 0:
		res.Mode = ModeNews
		if res.Category == "" {
			res.Category = "news"
		}
	case s.Code >= 1 && (s.News >= 1 || s.Research >= 1):
		res.Mode = ModeDual
	case s.Code >= 1:
		res.Mode = ModeCode
	default:
		res.Mode = ModeWeb
	}
	return res
}
