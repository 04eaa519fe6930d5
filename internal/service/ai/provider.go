package ai

import (
	"context"
	"fmt"
	"os"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"meetrecap/internal/config"
)

// Environment variables holding provider credentials. Keys are read on
// every call rather than cached so a rotation takes effect immediately.
const (
	openaiKeyEnv = "OPENAI_API_KEY"
	geminiKeyEnv = "GEMINI_API_KEY"
	claudeKeyEnv = "ANTHROPIC_API_KEY"
)

// Provider is a single AI backend capable of turning a message set into
// summary text.
type Provider interface {
	Name() string
	// Configured reports whether a credential is present for this backend.
	Configured() bool
	Generate(ctx context.Context, messages []*schema.Message) (string, error)
}

type openaiProvider struct {
	cfg config.ProviderConfig
}

func (p *openaiProvider) Name() string { return "openai" }

func (p *openaiProvider) Configured() bool { return os.Getenv(openaiKeyEnv) != "" }

func (p *openaiProvider) Generate(ctx context.Context, messages []*schema.Message) (string, error) {
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: p.cfg.BaseURL,
		Model:   p.cfg.Model,
		APIKey:  os.Getenv(openaiKeyEnv),
	})
	if err != nil {
		return "", fmt.Errorf("init openai model: %w", err)
	}
	out, err := chatModel.Generate(ctx, messages)
	if err != nil {
		return "", err
	}
	return out.Content, nil
}

type geminiProvider struct {
	cfg config.ProviderConfig
}

func (p *geminiProvider) Name() string { return "gemini" }

func (p *geminiProvider) Configured() bool { return os.Getenv(geminiKeyEnv) != "" }

func (p *geminiProvider) Generate(ctx context.Context, messages []*schema.Message) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: os.Getenv(geminiKeyEnv),
	})
	if err != nil {
		return "", fmt.Errorf("init gemini client: %w", err)
	}
	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client: client,
		Model:  p.cfg.Model,
	})
	if err != nil {
		return "", fmt.Errorf("init gemini model: %w", err)
	}
	out, err := chatModel.Generate(ctx, messages)
	if err != nil {
		return "", err
	}
	return out.Content, nil
}

type claudeProvider struct {
	cfg config.ProviderConfig
}

func (p *claudeProvider) Name() string { return "claude" }

func (p *claudeProvider) Configured() bool { return os.Getenv(claudeKeyEnv) != "" }

func (p *claudeProvider) Generate(ctx context.Context, messages []*schema.Message) (string, error) {
	var baseURLPtr *string
	if p.cfg.BaseURL != "" {
		baseURLPtr = &p.cfg.BaseURL
	}
	chatModel, err := claude.NewChatModel(ctx, &claude.Config{
		APIKey:    os.Getenv(claudeKeyEnv),
		Model:     p.cfg.Model,
		BaseURL:   baseURLPtr,
		MaxTokens: 3000,
	})
	if err != nil {
		return "", fmt.Errorf("init claude model: %w", err)
	}
	out, err := chatModel.Generate(ctx, messages)
	if err != nil {
		return "", err
	}
	return out.Content, nil
}
