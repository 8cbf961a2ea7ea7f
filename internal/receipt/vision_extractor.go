package receipt

import (
	"context"
	"encoding/base64"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// VisionExtractor reads receipt files with a vision model. PDF receipts are
// rasterized page by page before being sent.
type VisionExtractor struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// NewVisionExtractor creates a vision-backed receipt extractor
func NewVisionExtractor(apiKey, model string, logger *zap.Logger) *VisionExtractor {
	return &VisionExtractor{
		client: openai.NewClient(apiKey),
		model:  model,
		logger: logger,
	}
}

// Extract rasterizes the receipt and asks the vision model for a draft.
// Only the first two pages are sent; receipts rarely have more and the
// remainder only adds cost.
func (e *VisionExtractor) Extract(ctx context.Context, path string) (*Draft, error) {
	e.logger.Info("Extracting receipt draft", zap.String("path", path))

	images, err := renderPages(path)
	if err != nil {
		e.logger.Error("Failed to render receipt", zap.Error(err))
		return nil, fmt.Errorf("failed to render receipt: %w", err)
	}
	if len(images) == 0 {
		return nil, fmt.Errorf("no pages rendered from %s", path)
	}
	if len(images) > 2 {
		images = images[:2]
	}

	contentParts := []openai.ChatMessagePart{{
		Type: openai.ChatMessagePartTypeText,
		Text: visionPrompt,
	}}
	for _, img := range images {
		contentParts = append(contentParts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    fmt.Sprintf("data:image/jpeg;base64,%s", base64.StdEncoding.EncodeToString(img)),
				Detail: openai.ImageURLDetailHigh,
			},
		})
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.model,
		Temperature: 0.1,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You extract structured expense data from receipt images.",
			},
			{
				Role:         openai.ChatMessageRoleUser,
				MultiContent: contentParts,
			},
		},
	})
	if err != nil {
		e.logger.Error("Failed to call vision API", zap.Error(err))
		return nil, fmt.Errorf("failed to extract receipt draft: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from vision API")
	}

	draft, err := parseDraft(resp.Choices[0].Message.Content)
	if err != nil {
		e.logger.Error("Failed to parse extraction result", zap.Error(err))
		return nil, err
	}

	e.logger.Info("Receipt draft extracted",
		zap.Float64("amount", draft.Amount),
		zap.String("category", draft.Category),
	)
	return draft, nil
}

const visionPrompt = `Read this receipt and respond with a single JSON object:
{
  "amount": <total amount as a number>,
  "currency": "<three-letter currency code if visible>",
  "date": "<purchase date as YYYY-MM-DD>",
  "description": "<short description of the purchase>",
  "category": "<one of: Travel, Meals, Office Supplies, Entertainment, Transportation, Accommodation, Training, Software, Hardware, Other>"
}
Omit any field you cannot read. Respond with JSON only.`

// Verify interface compliance
var _ Extractor = (*VisionExtractor)(nil)
