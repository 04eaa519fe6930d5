package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/cloudwego/eino/schema"

	"meetrecap/internal/config"
)

var (
	// ErrNoProviderConfigured means zero credentials are present. Kept
	// distinct from ErrAllProvidersFailed so operators can tell "configure
	// a key" apart from "the services are down".
	ErrNoProviderConfigured = errors.New("no AI provider configured: set OPENAI_API_KEY, GEMINI_API_KEY or ANTHROPIC_API_KEY")
	ErrAllProvidersFailed   = errors.New("all AI providers failed")
)

const systemPrompt = "You are a meeting assistant. Produce a meeting summary following the user's instructions exactly."

// Chain tries AI backends in a fixed priority order until one returns a
// non-empty result. A failing provider is logged and skipped, never
// retried.
type Chain struct {
	providers []Provider
}

// NewChain builds the chain in its fixed order: openai, gemini, claude.
// Base URL and model name for each come from config; credentials come from
// the environment at call time.
func NewChain(cfg *config.Config) *Chain {
	return &Chain{providers: []Provider{
		&openaiProvider{cfg: cfg.Providers["openai"]},
		&geminiProvider{cfg: cfg.Providers["gemini"]},
		&claudeProvider{cfg: cfg.Providers["claude"]},
	}}
}

// NewChainWithProviders builds a chain over an explicit provider list, in
// the order given. Used by tests to substitute fakes.
func NewChainWithProviders(providers ...Provider) *Chain {
	return &Chain{providers: providers}
}

// Generate produces summary text for the transcript under the given
// instruction prompt, returning the name of the provider that served it.
// The prompt and transcript are sent verbatim, untruncated.
func (c *Chain) Generate(ctx context.Context, transcript, prompt string) (string, string, error) {
	candidates := make([]Provider, 0, len(c.providers))
	for _, p := range c.providers {
		if p.Configured() {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		return "", "", ErrNoProviderConfigured
	}

	messages := buildMessages(transcript, prompt)

	var failures []string
	for _, p := range candidates {
		text, err := p.Generate(ctx, messages)
		if err != nil {
			log.Printf("provider %s failed: %v", p.Name(), err)
			failures = append(failures, fmt.Sprintf("%s: %v", p.Name(), err))
			continue
		}
		if strings.TrimSpace(text) == "" {
			log.Printf("provider %s returned empty result", p.Name())
			failures = append(failures, fmt.Sprintf("%s: empty result", p.Name()))
			continue
		}
		return text, p.Name(), nil
	}
	return "", "", fmt.Errorf("%w: %s", ErrAllProvidersFailed, strings.Join(failures, "; "))
}

// buildMessages is the single place the instruction template lives; every
// provider receives the identical message set.
func buildMessages(transcript, prompt string) []*schema.Message {
	return []*schema.Message{
		{Role: schema.System, Content: systemPrompt},
		{Role: schema.User, Content: fmt.Sprintf("%s\n\nTranscript:\n%s", prompt, transcript)},
	}
}
