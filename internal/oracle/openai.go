package oracle

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIClient grades answer images through an OpenAI-compatible vision
// endpoint. Any provider speaking the chat-completions API works; the
// base URL comes from config.
type OpenAIClient struct {
	api   *openai.Client
	model string
	log   zerolog.Logger
}

// NewOpenAIClient creates an OpenAIClient. baseURL may be empty for the
// default endpoint.
func NewOpenAIClient(baseURL, apiKey, model string, log zerolog.Logger) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAIClient{
		api:   openai.NewClientWithConfig(cfg),
		model: model,
		log:   log.With().Str("component", "grading_oracle").Logger(),
	}
}

// Grade sends the answer image and grading context to the model and
// parses its JSON verdict.
func (c *OpenAIClient) Grade(ctx context.Context, imageURL string, fullScore float64, correctAnswer string) (*Result, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: buildSystemPrompt(fullScore, correctAnswer),
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: imageURL},
					},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("oracle API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("oracle returned no choices")
	}

	raw := resp.Choices[0].Message.Content
	c.log.Debug().Str("raw", raw).Msg("Oracle response")

	var result Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return nil, fmt.Errorf("parse oracle response: %w (raw: %s)", err, raw)
	}

	// Clamp into the contract: score within [0, fullScore], confidence [0,1].
	if result.Score < 0 {
		result.Score = 0
	}
	if result.Score > fullScore {
		result.Score = fullScore
	}
	if result.Confidence < 0 {
		result.Confidence = 0
	}
	if result.Confidence > 1 {
		result.Confidence = 1
	}
	return &result, nil
}

func buildSystemPrompt(fullScore float64, correctAnswer string) string {
	prompt := "You are grading a scanned answer to one exam question.\n\n"
	prompt += fmt.Sprintf("FULL SCORE: %g\n", fullScore)
	if correctAnswer != "" {
		prompt += fmt.Sprintf("CORRECT ANSWER: %s\n", correctAnswer)
	} else {
		prompt += "No answer key exists; judge the content on its merits.\n"
	}
	prompt += "\nRead the handwritten answer in the image and grade it.\n"
	prompt += "Respond ONLY with a JSON object:\n"
	prompt += `{"score": <number 0 to full score>, "comment": "<brief feedback>", "confidence": <number 0 to 1>}`
	prompt += "\n"
	return prompt
}
