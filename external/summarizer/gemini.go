package summarizer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/foxseedlab/gijirokun/internal/repository"
	"github.com/foxseedlab/gijirokun/internal/summarizer"
	generativelanguage "google.golang.org/api/generativelanguage/v1beta"
	"google.golang.org/api/option"
)

type GeminiSummarizer struct {
	apiKey string
	model  string
}

func NewGeminiSummarizer(apiKey, model string) summarizer.Summarizer {
	return &GeminiSummarizer{apiKey: apiKey, model: model}
}

func (g *GeminiSummarizer) Summarize(ctx context.Context, req summarizer.Request) (*repository.MeetingSummary, error) {
	svc, err := generativelanguage.NewService(ctx, option.WithAPIKey(g.apiKey))
	if err != nil {
		return nil, fmt.Errorf("create generative language client: %w", err)
	}

	prompt := buildPrompt(req)
	slog.Info("requesting meeting summary", "model", g.model, "transcripts", len(req.Transcripts), "language_mode", req.LanguageMode)
	resp, err := svc.Models.GenerateContent("models/"+g.model, &generativelanguage.GenerateContentRequest{
		Contents: []*generativelanguage.Content{
			{
				Role:  "user",
				Parts: []*generativelanguage.Part{{Text: prompt}},
			},
		},
		GenerationConfig: &generativelanguage.GenerationConfig{
			ResponseMimeType: "application/json",
		},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("generate content: empty response")
	}
	return parseSummary(resp.Candidates[0].Content.Parts[0].Text)
}

func buildPrompt(req summarizer.Request) string {
	var transcript strings.Builder
	for _, entry := range req.Transcripts {
		fmt.Fprintf(&transcript, "[<@%s>]: %s\n\n", entry.UserID, entry.Text)
	}

	duration := "unknown"
	if !req.EndedAt.IsZero() && req.EndedAt.After(req.StartedAt) {
		duration = fmt.Sprintf("%d minutes", int(req.EndedAt.Sub(req.StartedAt).Round(time.Minute)/time.Minute))
	}

	return fmt.Sprintf(`You are an AI meeting assistant. Analyze this voice channel conversation and provide a comprehensive summary.

Voice Channel Meeting Transcript:
%s
Meeting Duration: %s
Participants: %d people
Summary Language: %s

Respond with JSON containing these keys:
{
  "overview": "brief 2-3 sentence overview of what was discussed",
  "discussion_points": ["3-7 main topics discussed"],
  "decisions": ["concrete decisions or conclusions reached, empty if none"],
  "action_items": ["specific tasks with responsible parties if mentioned, empty if none"],
  "next_steps": ["suggested next steps or follow-up items"],
  "language_detected": "the dominant language of the conversation",
  "meeting_tone": "one short phrase describing the overall tone"
}`, transcript.String(), duration, len(req.Participants), languageInstruction(req.LanguageMode))
}

func languageInstruction(mode string) string {
	switch mode {
	case "english":
		return "English"
	case "hindi":
		return "Hindi"
	case "hinglish":
		return "Hinglish (a natural mix of Hindi and English)"
	default:
		return "same language as the conversation"
	}
}

// parseSummary tolerates the model wrapping its JSON in a markdown fence.
func parseSummary(text string) (*repository.MeetingSummary, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	var summary repository.MeetingSummary
	if err := json.Unmarshal([]byte(cleaned), &summary); err != nil {
		return nil, fmt.Errorf("parse summary response: %w", err)
	}
	if summary.Overview == "" {
		return nil, fmt.Errorf("parse summary response: missing overview")
	}
	return &summary, nil
}
