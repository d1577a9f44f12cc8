package units

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"percept/internal/analyze"
)

const defaultVisionModel = openai.GPT4oMini

// Vision captions the artifact with a vision-language model through an
// OpenAI-compatible chat endpoint. It is optional and disabled without an
// API key; the per-unit timeout rides on the request context.
type Vision struct {
	client *openai.Client
	model  string
}

// NewVision builds the caption unit. model and baseURL are optional.
func NewVision(apiKey, model, baseURL string) *Vision {
	if model == "" {
		model = defaultVisionModel
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &Vision{client: openai.NewClientWithConfig(cfg), model: model}
}

func (v *Vision) Contribute(ctx context.Context, snap *analyze.Snapshot) ([]analyze.Contribution, error) {
	art := snap.Artifact
	dataURI := fmt.Sprintf("data:%s;base64,%s", art.MIME, base64.StdEncoding.EncodeToString(art.Bytes))

	// Earlier units' findings prime the model toward specifics.
	prompt := "Describe this image in one concise sentence."
	if dominant := snap.SignalString("color.dominant"); dominant != "" && dominant != "none" {
		prompt += fmt.Sprintf(" The dominant color is %s.", dominant)
	}
	if snap.SignalBool("text.likely") {
		prompt += " It appears to contain printed text; mention what kind of document it is."
	}

	resp, err := v.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     v.model,
		MaxTokens: 120,
		Messages: []openai.ChatCompletionMessage{{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: prompt},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{
					URL:    dataURI,
					Detail: openai.ImageURLDetailLow,
				}},
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("vision completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("vision completion: empty response")
	}

	caption := strings.TrimSpace(resp.Choices[0].Message.Content)
	if caption == "" {
		return nil, fmt.Errorf("vision completion: empty caption")
	}

	return []analyze.Contribution{{
		Category: "caption",
		Reason:   "vision-language caption",
		Signals: map[string]any{
			"caption.text":       caption,
			"caption.confidence": 0.85,
		},
		Confidence: analyze.ConfidenceValue(0.85),
	}}, nil
}
