package server

import (
	"context"
	"fmt"
	"strings"

	"github.com/crimson-sun/splinter/internal/model"
)

// explain asks the generator for a root-cause explanation. Generation is
// best-effort: without a generator, or when it is unreachable, the caller
// gets a placeholder and the analysis result still stands on its own.
func (s *Server) explain(ctx context.Context, result *model.AnalysisResult) string {
	if s.generator == nil {
		return "Automated explanation is not configured for this deployment."
	}
	text, err := s.generator.Generate(ctx, buildPrompt(result))
	if err != nil {
		s.log.Warn().Err(err).Str("run", result.RunID).Msg("generation unavailable")
		return fmt.Sprintf("Unable to generate an explanation: %v. The extracted failure excerpt and confidence score are still valid.", err)
	}
	return strings.TrimSpace(text)
}

// buildPrompt assembles the generation prompt from the failure excerpt
// and the retrieved evidence.
func buildPrompt(result *model.AnalysisResult) string {
	var b strings.Builder
	b.WriteString("You are an expert CI/CD debugging assistant.\n\n")
	b.WriteString("FAILURE EXCERPT:\n")
	b.WriteString(result.Excerpt)
	b.WriteString("\n")

	if len(result.Evidence) > 0 {
		b.WriteString("\nSIMILAR PAST FAILURES:\n")
		for i, ev := range result.Evidence {
			fmt.Fprintf(&b, "[EVIDENCE %d, similarity %.2f]\n%s\n", i+1, ev.Score, ev.Text)
		}
	}
	if result.Recurrence > 1 {
		fmt.Fprintf(&b, "\nThis failure signature has occurred %d times.\n", result.Recurrence)
	}

	b.WriteString("\nTASK:\n")
	b.WriteString("1. Explain the root cause.\n")
	b.WriteString("2. Suggest concrete fixes.\n")
	b.WriteString("3. Mention assumptions if needed.\n")
	return b.String()
}
