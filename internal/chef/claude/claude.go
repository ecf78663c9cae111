package claude

import (
	"context"
	"fmt"

	anthropic "github.com/liushuangls/go-anthropic/v2"

	"github.com/akowalska/fridgetrack/internal/chef"
)

type ClaudeSuggester struct {
	client *anthropic.Client
	model  anthropic.Model
}

func NewClaudeSuggester(apiKey, model string, opts ...anthropic.ClientOption) *ClaudeSuggester {
	return &ClaudeSuggester{
		client: anthropic.NewClient(apiKey, opts...),
		model:  anthropic.Model(model),
	}
}

func (s *ClaudeSuggester) Suggest(ctx context.Context, prompt string) (*chef.Result, error) {
	resp, err := s.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model: s.model,
		// Eight recipes with four steps each fit comfortably; headroom for
		// verbose models.
		MaxTokens: 4096,
		Messages: []anthropic.Message{
			anthropic.NewUserTextMessage(prompt),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call claude: %w", err)
	}

	var responseText string
	for _, content := range resp.Content {
		if content.Type == anthropic.MessagesContentTypeText {
			responseText = content.GetText()
			break
		}
	}
	if responseText == "" {
		return nil, fmt.Errorf("claude returned no text content")
	}

	recipes, err := chef.ParseResponse(responseText)
	if err != nil {
		return nil, err
	}

	return &chef.Result{
		Recipes:     recipes,
		RawResponse: responseText,
	}, nil
}
