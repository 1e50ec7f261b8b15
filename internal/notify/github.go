// Package notify posts analysis explanations back to the pull request
// that triggered the failing run.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/crimson-sun/splinter/internal/capability/httpclient"
	"github.com/crimson-sun/splinter/internal/model"
)

// GitHub comments on pull requests through the REST API. Without a token
// it is a no-op: analysis works fine unauthenticated, only the comment is
// skipped.
type GitHub struct {
	client *httpclient.Client
	token  string
	log    zerolog.Logger
}

// NewGitHub creates a notifier against apiURL (normally
// https://api.github.com). An empty token disables commenting.
func NewGitHub(apiURL, token string, log zerolog.Logger) *GitHub {
	return &GitHub{
		client: httpclient.New(strings.TrimRight(apiURL, "/"), httpclient.WithBearerToken(token)),
		token:  token,
		log:    log,
	}
}

// Enabled reports whether a token is configured.
func (g *GitHub) Enabled() bool {
	return g.token != ""
}

// CommentPR posts the analysis as an issue comment on the PR. Failures are
// logged and swallowed: a lost comment must never fail the analysis, and
// the incident record still holds the explanation.
func (g *GitHub) CommentPR(ctx context.Context, repo string, prNumber int, explanation string, result *model.AnalysisResult) {
	if !g.Enabled() || repo == "" || prNumber <= 0 {
		return
	}

	body := formatComment(explanation, result)
	path := fmt.Sprintf("/repos/%s/issues/%d/comments", repo, prNumber)
	err := g.client.PostJSON(ctx, path, map[string]string{"body": body}, nil)
	if err != nil {
		g.log.Warn().Err(err).Str("repo", repo).Int("pr", prNumber).Msg("pr comment failed")
		return
	}
	g.log.Info().Str("repo", repo).Int("pr", prNumber).Msg("pr comment posted")
}

// formatComment renders the explanation as a markdown comment.
func formatComment(explanation string, result *model.AnalysisResult) string {
	var b strings.Builder
	b.WriteString("## CI Failure Analysis\n\n")
	b.WriteString(explanation)
	if result != nil {
		b.WriteString("\n\n---\n")
		fmt.Fprintf(&b, "confidence: %.2f", result.Confidence)
		if result.Recurrence > 1 {
			fmt.Fprintf(&b, " · seen %d times before", result.Recurrence-1)
		}
		if result.Degraded {
			b.WriteString(" · generated without historical context")
		}
		b.WriteString("\n")
	}
	return b.String()
}
