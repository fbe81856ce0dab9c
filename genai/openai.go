package genai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const narratorSystemPrompt = "You are the ringside announcer of an NFT battle arena. " +
	"Answer with a single vivid paragraph, no preamble."

// OpenAIProvider implements Provider on the OpenAI API: chat completions
// for narratives and the images endpoint for artifacts.
type OpenAIProvider struct {
	client     openai.Client
	textModel  openai.ChatModel
	imageModel openai.ImageModel
}

func NewOpenAIProvider(apiKey string) *OpenAIProvider {
	return &OpenAIProvider{
		client:     openai.NewClient(option.WithAPIKey(apiKey)),
		textModel:  openai.ChatModelGPT4o,
		imageModel: openai.ImageModelDallE3,
	}
}

func (p *OpenAIProvider) GenerateText(ctx context.Context, prompt string, history []string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(narratorSystemPrompt),
	}
	if len(history) > 0 {
		messages = append(messages, openai.SystemMessage(
			"Earlier in this battle:\n"+strings.Join(history, "\n")))
	}
	messages = append(messages, openai.UserMessage(prompt))

	completion, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    p.textModel,
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("chat completion: no choices returned")
	}

	text := strings.TrimSpace(completion.Choices[0].Message.Content)
	if text == "" {
		return "", errors.New("chat completion: empty content")
	}
	return text, nil
}

// GenerateImage renders the prompt. The images endpoint takes no reference
// images, so refs only inform the caller-built prompt.
func (p *OpenAIProvider) GenerateImage(ctx context.Context, prompt string, _ [][]byte) ([]byte, error) {
	res, err := p.client.Images.Generate(ctx, openai.ImageGenerateParams{
		Prompt:         prompt,
		Model:          p.imageModel,
		ResponseFormat: openai.ImageGenerateParamsResponseFormatB64JSON,
		Size:           openai.ImageGenerateParamsSize1024x1024,
		N:              openai.Int(1),
	})
	if err != nil {
		return nil, fmt.Errorf("image generation: %w", err)
	}
	if len(res.Data) == 0 || res.Data[0].B64JSON == "" {
		return nil, errors.New("image generation: empty response")
	}

	data, err := base64.StdEncoding.DecodeString(res.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("decode image payload: %w", err)
	}
	return data, nil
}
