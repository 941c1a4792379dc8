// Package openai adapts the narrative.Generator contract to the OpenAI chat
// completion API.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/louisbranch/emberfall/internal/narrative"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o-mini"

var (
	// ErrMissingAPIKey indicates the client was built without credentials.
	ErrMissingAPIKey = errors.New("openai api key is required")
	// ErrEmptyCompletion indicates the API returned no choices.
	ErrEmptyCompletion = errors.New("openai returned no choices")
)

const systemPrompt = `You are the narrator of a fantasy role-playing game.
You receive the authoritative mechanical state, the rule tables, and an
action. Respond with a single JSON object:
{"narrative": string, "choices": [string], "state_changes": {field: number},
"confidence": number between 0 and 1}.
Never contradict the mechanical state or decide mechanics yourself.`

// Client calls the OpenAI chat API to narrate actions.
type Client struct {
	api   *openai.Client
	model string
}

// New builds a client for the given credentials. Model falls back to
// DefaultModel when empty.
func New(apiKey, model string) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if strings.TrimSpace(model) == "" {
		model = DefaultModel
	}
	return &Client{api: openai.NewClient(apiKey), model: model}, nil
}

// Generate implements narrative.Generator.
func (c *Client) Generate(ctx context.Context, req narrative.Request) (narrative.Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return narrative.Response{}, fmt.Errorf("encode narrative request: %w", err)
	}

	completion, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: string(payload)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return narrative.Response{}, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return narrative.Response{}, ErrEmptyCompletion
	}

	return decodeResponse(completion.Choices[0].Message.Content)
}

// decodeResponse parses the model's JSON reply. Replies that are not valid
// JSON are kept as plain narrative with zero confidence rather than dropped.
func decodeResponse(content string) (narrative.Response, error) {
	var response narrative.Response
	if err := json.Unmarshal([]byte(content), &response); err != nil {
		return narrative.Response{Narrative: content}, nil
	}
	if response.Confidence < 0 {
		response.Confidence = 0
	}
	if response.Confidence > 1 {
		response.Confidence = 1
	}
	return response, nil
}
