// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"net/url"
	"regexp"
	"strings"
)

// URL content types.
const (
	ContentGitHub  = "github"
	ContentYouTube = "youtube"
	ContentTwitter = "twitter"
	ContentArticle = "article"
	ContentPaper   = "paper"
	ContentReddit  = "reddit"
	ContentGeneral = "general"
)

var (
	videoIDRe = regexp.MustCompile(`[?&]v=([^&]+)`)
	tweetIDRe = regexp.MustCompile(`/status/(\d+)`)
	paperIDRe = regexp.MustCompile(`(\d+\.\d+)`)
)

// URLAnalysis classifies one URL and carries the identifiers pulled from it.
type URLAnalysis struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Domain      string `json:"domain"`
	Path        string `json:"path"`

	// Repository fields, set for github URLs.
	Owner  string `json:"owner,omitempty"`
	Repo   string `json:"repo,omitempty"`
	IsRepo bool   `json:"is_repo,omitempty"`
	IsFile bool   `json:"is_file,omitempty"`

	VideoID string `json:"video_id,omitempty"`
	TweetID string `json:"tweet_id,omitempty"`
	PaperID string `json:"paper_id,omitempty"`
}

// AnalyzeURL determines a URL's content type and extracts type-specific
// identifiers. Unparseable URLs come back as general content.
func AnalyzeURL(raw string) URLAnalysis {
	analysis := URLAnalysis{URL: raw, ContentType: ContentGeneral}

	parsed, err := url.Parse(raw)
	if err != nil {
		return analysis
	}
	domain := strings.ToLower(parsed.Host)
	path := strings.ToLower(parsed.Path)
	analysis.Domain = domain
	analysis.Path = path

	switch {
	case strings.Contains(domain, "github.com"):
		analysis.ContentType = ContentGitHub
		parts := strings.Split(strings.Trim(path, "/"), "/")
		if len(parts) >= 2 && parts[0] != "" {
			analysis.Owner = parts[0]
			analysis.Repo = parts[1]
			analysis.IsRepo = len(parts) == 2
			analysis.IsFile = len(parts) > 2
		}

	case strings.Contains(domain, "youtube.com"), strings.Contains(domain, "youtu.be"):
		analysis.ContentType = ContentYouTube
		if strings.Contains(domain, "youtu.be") {
			analysis.VideoID = strings.Trim(path, "/")
		} else if strings.Contains(path, "watch") {
			if m := videoIDRe.FindStringSubmatch(raw); m != nil {
				analysis.VideoID = m[1]
			}
		}

	case strings.Contains(domain, "twitter.com"), strings.Contains(domain, "x.com"):
		analysis.ContentType = ContentTwitter
		if m := tweetIDRe.FindStringSubmatch(path); m != nil {
			analysis.TweetID = m[1]
		}

	case strings.Contains(domain, "medium.com"),
		strings.Contains(domain, "dev.to"),
		strings.Contains(domain, "hashnode.dev"):
		analysis.ContentType = ContentArticle

	case strings.Contains(domain, "arxiv.org"):
		analysis.ContentType = ContentPaper
		if m := paperIDRe.FindStringSubmatch(path); m != nil {
			analysis.PaperID = m[1]
		}

	case strings.Contains(domain, "reddit.com"):
		analysis.ContentType = ContentReddit
	}

	return analysis
}

// PipelineFor names the processing pipeline that handles a content type.
// Only github URLs go through the enrichment pipeline; everything else is
// saved to the notes database directly.
func PipelineFor(contentType string) string {
	switch contentType {
	case ContentGitHub:
		return "github_enrichment"
	case ContentYouTube:
		return "youtube_transcription"
	default:
		return "notes_save"
	}
}
