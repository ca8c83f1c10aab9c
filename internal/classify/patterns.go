// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package classify

import (
	"regexp"
	"strings"

	"github.com/mpetrov/bookmark-engine/pkg/types"
)

var (
	urlPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)https?://github\.com/[^\s]+`),
		regexp.MustCompile(`(?i)https?://raw\.githubusercontent\.com/[^\s]+`),
		regexp.MustCompile(`(?i)github\.com/[^\s]+`),
	}

	repoMentionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`@([a-zA-Z0-9_-]+)/([a-zA-Z0-9_.-]+)`),
		regexp.MustCompile(`([a-zA-Z0-9_-]+)/([a-zA-Z0-9_.-]+)(?:\s|$)`),
		regexp.MustCompile(`repo:?\s*([a-zA-Z0-9_-]+)/([a-zA-Z0-9_.-]+)`),
	}

	userMentionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`@([a-zA-Z0-9_-]+)(?:\s|$)`),
		regexp.MustCompile(`github\.com/([a-zA-Z0-9_-]+)(?:/|$)`),
	}

	githubUsernameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	firstPersonPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)my\s+(?:repo|project|code)`),
		regexp.MustCompile(`(?i)I\s+(?:built|created|made)`),
		regexp.MustCompile(`(?i)check\s+out\s+my`),
	}
)

// codeKeywords is checked in order; matches are substring matches on the
// lowercased text, and the output preserves this ordering.
var codeKeywords = []string{
	// Languages
	"python", "javascript", "typescript", "java", "c++", "c#", "go", "rust", "php", "ruby",
	"swift", "kotlin", "scala", "clojure", "haskell", "elixir", "dart", "r", "matlab",

	// Frameworks and libraries
	"react", "vue", "angular", "django", "flask", "express", "fastapi", "spring", "rails",
	"pytorch", "tensorflow", "pandas", "numpy", "opencv", "scikit-learn",

	// Technologies
	"api", "database", "sql", "nosql", "mongodb", "postgresql", "redis", "docker", "kubernetes",
	"aws", "azure", "gcp", "serverless", "microservices", "graphql", "rest",

	// Concepts
	"algorithm", "data structure", "machine learning", "ai", "blockchain", "web3", "nft",
	"frontend", "backend", "fullstack", "devops", "ci/cd", "testing", "deployment",
}

var (
	codeTerms         = []string{"repo", "repository", "code", "project", "open source"}
	announcementTerms = []string{"released", "launched", "built", "created", "check out"}
)

// extractDirectURLs returns normalized repository URLs found verbatim in the
// text: scheme-less matches get https:// prepended, duplicates are dropped,
// first-seen order is preserved.
func extractDirectURLs(text string) []string {
	var raw []string
	for _, re := range urlPatterns {
		raw = append(raw, re.FindAllString(text, -1)...)
	}

	urls := []string{}
	seen := make(map[string]bool)
	for _, u := range raw {
		if !strings.HasPrefix(u, "http") {
			u = "https://" + u
		}
		if !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}
	return urls
}

// extractMentions returns owner/repo and bare-user references. Both halves of
// an owner/repo pair must be longer than two characters to count, which keeps
// fractions like "1/2" out.
func extractMentions(text string) []types.Mention {
	mentions := []types.Mention{}

	for _, re := range repoMentionPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if len(m[1]) > 2 && len(m[2]) > 2 {
				mentions = append(mentions, types.Mention{
					Type:  types.MentionRepository,
					Owner: m[1],
					Repo:  m[2],
				})
			}
		}
	}

	for _, re := range userMentionPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if len(m[1]) > 2 {
				mentions = append(mentions, types.Mention{
					Type:     types.MentionUser,
					Username: m[1],
				})
			}
		}
	}

	return mentions
}

// extractKeywords returns code-related keywords present in the text, in
// table order.
func extractKeywords(text string) []string {
	lower := strings.ToLower(text)
	found := []string{}
	for _, kw := range codeKeywords {
		if strings.Contains(lower, kw) {
			found = append(found, kw)
		}
	}
	return found
}

// relevanceScore combines the extracted evidence into a [0,1] score. Each
// evidence class contributes a fixed weight; the result is clamped at 1.
func relevanceScore(text string, directURLs []string, mentions []types.Mention, keywords []string) float64 {
	score := 0.0
	lower := strings.ToLower(text)

	if len(directURLs) > 0 {
		score += 0.8
	}
	if len(mentions) > 0 {
		score += 0.6
	}

	kw := float64(len(keywords)) * 0.1
	if kw > 0.4 {
		kw = 0.4
	}
	score += kw

	if strings.Contains(lower, "github") {
		score += 0.3
	}

	for _, term := range codeTerms {
		if strings.Contains(lower, term) {
			score += 0.1
		}
	}
	for _, term := range announcementTerms {
		if strings.Contains(lower, term) {
			score += 0.15
		}
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// priorityFor maps relevance evidence to a processing priority. A direct URL
// is always high priority regardless of score.
func priorityFor(score float64, directURLs []string) types.Priority {
	switch {
	case len(directURLs) > 0:
		return types.PriorityHigh
	case score > 0.7:
		return types.PriorityHigh
	case score > 0.4:
		return types.PriorityMedium
	default:
		return types.PriorityLow
	}
}

// fallbackContentType buckets the text by keyword when no model is available.
func fallbackContentType(text string) types.ContentType {
	lower := strings.ToLower(text)
	switch {
	case containsAny(lower, "released", "launched", "announcing", "new project"):
		return types.ContentAnnouncement
	case containsAny(lower, "tutorial", "how to", "guide", "learn"):
		return types.ContentTutorial
	case containsAny(lower, "code", "snippet", "function", "class"):
		return types.ContentCodeSharing
	case containsAny(lower, "built", "created", "made", "check out"):
		return types.ContentShowcase
	default:
		return types.ContentOther
	}
}

// inferAuthorHandle guesses the author's code-hosting username. The handle is
// used only if it looks like a valid hosting username, or if the text claims
// first-person ownership of a project.
func inferAuthorHandle(author types.Author, text string) string {
	if githubUsernameRe.MatchString(author.Username) && len(author.Username) > 2 {
		return author.Username
	}
	for _, re := range firstPersonPatterns {
		if re.MatchString(text) {
			return author.Username
		}
	}
	return ""
}

func containsAny(lower string, terms ...string) bool {
	for _, t := range terms {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}
