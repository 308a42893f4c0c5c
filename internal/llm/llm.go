// Package llm implements the optional enhancement path: an Anthropic-backed
// engine.Enhancer that rewrites the session summary and feedback prose.
// Callers never depend on it succeeding; the engine falls back to its local
// templates on any error.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/mbecker/study/internal/engine"
)

// Client wraps the Anthropic API for session narrative enhancement.
type Client struct {
	api   *anthropic.Client
	model anthropic.Model
}

// NewClient creates an LLM client with the given API key and model.
func NewClient(apiKey, model string) *Client {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(opts...)
	return &Client{
		api:   &client,
		model: anthropic.Model(model),
	}
}

// buildPrompt constructs the system and user prompts for narrative enhancement.
func buildPrompt(req engine.EnhanceRequest) (system string, user string) {
	system = `You write short study-coach narratives for an analyzed study session. Return ONLY a JSON object with these fields:
- "summary": 1-2 sentences summarizing what the student covered, grounded in their notes
- "feedback": 1-2 sentences of focus/time-management feedback grounded in the numbers given

Rules:
- Stay concrete; reference the topic and what the notes actually say
- Do not invent material the notes do not mention
- Do not restate the scores verbatim; interpret them
- Return valid JSON only, no markdown fencing or explanation`

	var sb strings.Builder
	fmt.Fprintf(&sb, "Topic: %s\n", req.Topic)
	fmt.Fprintf(&sb, "Planned: %.0f minutes, actual: %.1f minutes\n", req.PlannedMinutes, req.ActualMinutes)
	fmt.Fprintf(&sb, "Focus score: %.1f/100, topic relevance: %.1f/100\n", req.FocusScore, req.RelevanceScore)
	if req.DriftDetected {
		sb.WriteString("Topic drift was detected.\n")
	}
	if req.OverconfidenceDetected {
		sb.WriteString("Notes look passive (consumption without processing).\n")
	}
	sb.WriteString("Notes:\n")
	for _, n := range req.Notes {
		sb.WriteString("- ")
		sb.WriteString(n)
		sb.WriteString("\n")
	}
	user = sb.String()
	return
}

// Enhance sends the analysis context to the LLM and returns improved
// summary and feedback strings. Implements engine.Enhancer.
func (c *Client) Enhance(ctx context.Context, req engine.EnhanceRequest) (*engine.Enhancement, error) {
	systemPrompt, userPrompt := buildPrompt(req)

	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API call: %w", err)
	}

	// Extract text from response
	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}

	if text == "" {
		return nil, fmt.Errorf("no text content in API response")
	}

	// Strip markdown fencing if present
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		lines := strings.SplitN(text, "\n", 2)
		if len(lines) > 1 {
			text = lines[1]
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}

	var enhancement engine.Enhancement
	if err := json.Unmarshal([]byte(text), &enhancement); err != nil {
		return nil, fmt.Errorf("parse LLM response as JSON: %w\nraw response: %s", err, text)
	}

	return &enhancement, nil
}
