package factory

import (
	"fmt"

	"github.com/newthinker/compass/internal/core"
	"github.com/newthinker/compass/internal/llm"
	"github.com/newthinker/compass/internal/llm/claude"
	"github.com/newthinker/compass/internal/llm/ollama"
	"github.com/newthinker/compass/internal/llm/openai"
)

// New creates an LLM provider based on configuration.
func New(cfg llm.Config) (llm.Provider, error) {
	switch cfg.Provider {
	case "claude":
		return claude.New(cfg.Claude.APIKey, cfg.Claude.Model)
	case "openai":
		return openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	case "ollama":
		return ollama.New(cfg.Ollama.Endpoint, cfg.Ollama.Model)
	default:
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown LLM provider: %s", cfg.Provider))
	}
}
