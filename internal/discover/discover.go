// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package discover resolves tweet references into validated repository
// candidates. Lookups that fail are logged and skipped; a run that finds
// nothing is a valid empty result, not an error.
package discover

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/mpetrov/bookmark-engine/internal/github"
	"github.com/mpetrov/bookmark-engine/internal/llm"
	"github.com/mpetrov/bookmark-engine/pkg/types"
)

var repoURLRe = regexp.MustCompile(`github\.com/([^/]+)/([^/\s?#]+)`)

// myProjectIndicators mark tweets that talk about the author's own work,
// which justifies boosting their recently created repositories.
var myProjectIndicators = []string{
	"built", "created", "made", "my", "new", "latest", "just", "working on",
}

const guessSchema = `{
	"type": "array",
	"maxItems": 3,
	"items": {
		"type": "object",
		"required": ["owner", "repo"],
		"properties": {
			"owner": {"type": "string", "minLength": 1},
			"repo": {"type": "string", "minLength": 1},
			"reasoning": {"type": "string"}
		}
	}
}`

const guessPrompt = `Analyze this tweet and suggest up to 3 potential GitHub repositories that might be referenced:

Tweet: %q
Content type: %s
Keywords: %s

For each suggestion, provide:
1. owner: GitHub username (your best guess)
2. repo: Repository name (based on project/tool mentioned)
3. reasoning: Why you think this repository might exist

Return as JSON array of objects with owner, repo, and reasoning fields.
Only suggest repositories that seem likely to exist based on the tweet content.`

// Resolver is the second pipeline stage.
type Resolver struct {
	client    *github.Client
	completer llm.Completer
	log       zerolog.Logger

	// now is replaced in tests to pin activity and recency windows.
	now func() time.Time
}

// New creates a resolver. completer may be nil, which disables guessed
// candidates under the aggressive strategy.
func New(client *github.Client, completer llm.Completer, log zerolog.Logger) *Resolver {
	return &Resolver{client: client, completer: completer, log: log, now: time.Now}
}

// Resolve turns a content analysis into ranked repository candidates.
func (r *Resolver) Resolve(ctx context.Context, analysis types.ContentAnalysis, strategy types.DiscoveryStrategy) (types.DiscoveryOutput, error) {
	var candidates []types.RepositoryCandidate

	for _, rawURL := range analysis.DirectURLs {
		owner, repo, ok := parseRepoURL(rawURL)
		if !ok {
			continue
		}
		if c := r.validate(ctx, owner, repo); c != nil {
			candidates = append(candidates, *c)
		}
	}

	for _, mention := range analysis.Mentions {
		switch mention.Type {
		case types.MentionRepository:
			if c := r.validate(ctx, mention.Owner, mention.Repo); c != nil {
				candidates = append(candidates, *c)
			}
		case types.MentionUser:
			candidates = append(candidates, r.searchUser(ctx, mention.Username, analysis, strategy)...)
		}
	}

	if handle := analysis.AuthorHandle; handle != "" && !hasOwner(candidates, handle) {
		candidates = append(candidates, r.searchAuthor(ctx, handle, analysis, strategy)...)
	}

	if len(candidates) == 0 && strategy == types.DiscoveryAggressive {
		for _, guess := range r.guess(ctx, analysis) {
			if c := r.validate(ctx, guess.Owner, guess.Repo); c != nil {
				c.DiscoveryMethod = types.DiscoveryInference
				candidates = append(candidates, *c)
			}
		}
	}

	candidates = rank(candidates)

	out := types.DiscoveryOutput{
		Repositories: candidates,
		TotalFound:   len(candidates),
	}
	for _, c := range candidates {
		if c.Confidence > 0.8 {
			out.HasHighConfidence = true
			break
		}
	}

	r.log.Debug().
		Int("found", out.TotalFound).
		Str("strategy", string(strategy)).
		Msg("repository discovery complete")

	return out, nil
}

// validate fetches a repository and wraps it as a high-confidence candidate.
// Returns nil when the repository does not exist or the lookup fails.
func (r *Resolver) validate(ctx context.Context, owner, repo string) *types.RepositoryCandidate {
	found, err := r.client.Repository(ctx, owner, repo)
	if err != nil {
		r.log.Warn().Err(err).Str("repo", owner+"/"+repo).Msg("repository validation failed")
		return nil
	}
	c := r.candidate(*found, directConfidence, types.DiscoveryDirect)
	return &c
}

// searchUser lists a user's repositories and keeps the relevant ones.
func (r *Resolver) searchUser(ctx context.Context, username string, analysis types.ContentAnalysis, strategy types.DiscoveryStrategy) []types.RepositoryCandidate {
	perPage := 5
	if strategy == types.DiscoveryAggressive {
		perPage = 20
	}

	repos, err := r.client.UserRepositories(ctx, username, perPage)
	if err != nil {
		r.log.Warn().Err(err).Str("user", username).Msg("user repository search failed")
		return nil
	}

	var relevant []types.RepositoryCandidate
	for _, repo := range repos {
		score := repositoryRelevance(repo, analysis, r.now())
		if score > relevanceThreshold {
			relevant = append(relevant, r.candidate(repo, score, types.DiscoveryUserSearch))
		}
	}

	// Keep the top five by relevance score alone. Stars and activity only
	// enter the ordering once, in the final ranking pass.
	sort.SliceStable(relevant, func(i, j int) bool {
		return relevant[i].Confidence > relevant[j].Confidence
	})
	if len(relevant) > 5 {
		relevant = relevant[:5]
	}
	return relevant
}

// searchAuthor searches the author's repositories and boosts recently
// created ones when the tweet reads like a personal project reference.
func (r *Resolver) searchAuthor(ctx context.Context, handle string, analysis types.ContentAnalysis, strategy types.DiscoveryStrategy) []types.RepositoryCandidate {
	found := r.searchUser(ctx, handle, analysis, strategy)

	lower := strings.ToLower(analysis.Text)
	personal := false
	for _, ind := range myProjectIndicators {
		if strings.Contains(lower, ind) {
			personal = true
			break
		}
	}
	if !personal {
		return found
	}

	now := r.now()
	for i := range found {
		if now.Sub(found[i].CreatedAt) < recentWindow && !found[i].CreatedAt.IsZero() {
			found[i].Confidence += 0.3
			if found[i].Confidence > 1.0 {
				found[i].Confidence = 1.0
			}
			found[i].DiscoveryMethod = types.DiscoveryAuthor
		}
	}
	return found
}

type repoGuess struct {
	Owner     string `json:"owner"`
	Repo      string `json:"repo"`
	Reasoning string `json:"reasoning"`
}

// guess asks the model for likely owner/repo pairs. Every guess is still
// validated against the hosting API before it can become a candidate.
func (r *Resolver) guess(ctx context.Context, analysis types.ContentAnalysis) []repoGuess {
	if r.completer == nil {
		return nil
	}

	prompt := fmt.Sprintf(guessPrompt, analysis.Text, analysis.ContentType, strings.Join(analysis.Keywords, ", "))
	doc, err := r.completer.CompleteJSON(ctx, prompt)
	if err != nil {
		r.log.Warn().Err(err).Msg("model repository inference failed")
		return nil
	}

	var guesses []repoGuess
	if err := llm.Unmarshal(guessSchema, doc, &guesses); err != nil {
		r.log.Warn().Err(err).Msg("model repository inference invalid")
		return nil
	}
	return guesses
}

func (r *Resolver) candidate(repo github.Repo, confidence float64, method types.DiscoveryMethod) types.RepositoryCandidate {
	now := r.now()
	return types.RepositoryCandidate{
		Owner:               repo.Owner.Login,
		Name:                repo.Name,
		FullName:            repo.FullName,
		Description:         repo.Description,
		Language:            repo.Language,
		HTMLURL:             repo.HTMLURL,
		Stars:               repo.Stars,
		Forks:               repo.Forks,
		Size:                repo.Size,
		PushedAt:            repo.PushedAt,
		CreatedAt:           repo.CreatedAt,
		HasWiki:             repo.HasWiki,
		HasIssues:           repo.HasIssues,
		Active:              isActive(repo, now),
		Confidence:          confidence,
		Complexity:          complexity(repo),
		DiscoveryMethod:     method,
		RelevanceIndicators: relevanceIndicators(repo, now),
	}
}

func parseRepoURL(rawURL string) (owner, repo string, ok bool) {
	m := repoURLRe.FindStringSubmatch(rawURL)
	if m == nil {
		return "", "", false
	}
	return m[1], strings.TrimSuffix(m[2], ".git"), true
}

func hasOwner(candidates []types.RepositoryCandidate, owner string) bool {
	for _, c := range candidates {
		if c.Owner == owner {
			return true
		}
	}
	return false
}
