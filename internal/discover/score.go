// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package discover

import (
	"sort"
	"strings"
	"time"

	"github.com/mpetrov/bookmark-engine/internal/github"
	"github.com/mpetrov/bookmark-engine/pkg/types"
)

const (
	directConfidence   = 0.9
	relevanceThreshold = 0.3
	activeWindow       = 180 * 24 * time.Hour
	recentWindow       = 30 * 24 * time.Hour
)

// repositoryRelevance scores how well a searched repository matches the
// analyzed tweet. Used for user-repository search hits; direct validations
// get a fixed confidence instead.
func repositoryRelevance(repo github.Repo, analysis types.ContentAnalysis, now time.Time) float64 {
	score := 0.0

	name := strings.ToLower(repo.Name)
	for _, kw := range analysis.Keywords {
		if strings.Contains(name, kw) {
			score += 0.3
			break
		}
	}

	if desc := strings.ToLower(repo.Description); desc != "" {
		matches := 0
		for _, kw := range analysis.Keywords {
			if strings.Contains(desc, kw) {
				matches++
			}
		}
		d := float64(matches) * 0.1
		if d > 0.4 {
			d = 0.4
		}
		score += d
	}

	lang := strings.ToLower(repo.Language)
	for _, kw := range analysis.Keywords {
		if lang != "" && lang == kw {
			score += 0.2
			break
		}
	}

	if isActive(repo, now) {
		score += 0.1
	}

	if repo.Stars > 10 {
		s := float64(repo.Stars) / 1000
		if s > 0.2 {
			s = 0.2
		}
		score += s
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

// complexity estimates in [0,1] how involved a repository is to run.
func complexity(repo github.Repo) float64 {
	score := 0.0

	s := float64(repo.Size) / 10000
	if s > 0.3 {
		s = 0.3
	}
	score += s

	if repo.Language != "" {
		score += 0.2
	}

	f := float64(repo.Forks) / 100
	if f > 0.2 {
		f = 0.2
	}
	score += f

	if repo.HasWiki || strings.Contains(strings.ToLower(repo.Description), "readme") {
		score += 0.1
	}

	if score > 1.0 {
		score = 1.0
	}
	return score
}

func relevanceIndicators(repo github.Repo, now time.Time) []string {
	var indicators []string
	if isActive(repo, now) {
		indicators = append(indicators, "recently_active")
	}
	if repo.Stars > 100 {
		indicators = append(indicators, "popular")
	}
	if repo.Language != "" {
		indicators = append(indicators, "language_"+strings.ToLower(repo.Language))
	}
	if repo.HasIssues {
		indicators = append(indicators, "has_issues")
	}
	if repo.Description != "" {
		indicators = append(indicators, "documented")
	}
	return indicators
}

func isActive(repo github.Repo, now time.Time) bool {
	return !repo.PushedAt.IsZero() && now.Sub(repo.PushedAt) < activeWindow
}

func rankingScore(c types.RepositoryCandidate) float64 {
	stars := float64(c.Stars) / 1000
	if stars > 0.2 {
		stars = 0.2
	}
	score := c.Confidence + stars
	if c.Active {
		score += 0.1
	}
	return score
}

// rank orders candidates by ranking score, strongest first, and stamps rank
// numbers starting at 1. Equal scores keep their arrival order.
func rank(candidates []types.RepositoryCandidate) []types.RepositoryCandidate {
	sort.SliceStable(candidates, func(i, j int) bool {
		return rankingScore(candidates[i]) > rankingScore(candidates[j])
	})
	for i := range candidates {
		candidates[i].Rank = i + 1
		candidates[i].RankingScore = rankingScore(candidates[i])
	}
	return candidates
}
