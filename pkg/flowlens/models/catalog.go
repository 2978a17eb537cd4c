package models

// DefaultModelID is the builtin analyzer, always available.
const DefaultModelID = "builtin-analyzer"

// Catalog returns the built-in backends in display order.
func Catalog() []Descriptor {
	return []Descriptor{
		{
			ID:             "openai-gpt-3.5",
			Name:           "OpenAI GPT-3.5 Turbo",
			Provider:       ProviderOpenAI,
			Endpoint:       "https://api.openai.com/v1/chat/completions",
			Model:          "gpt-3.5-turbo",
			MaxTokens:      4096,
			Temperature:    0.3,
			RequiresAPIKey: true,
			Icon:           "🤖",
			Description:    "Fast and efficient model for code analysis",
			Features:       []string{"code-analysis", "recommendations", "security-check"},
		},
		{
			ID:             "openai-gpt-4",
			Name:           "OpenAI GPT-4",
			Provider:       ProviderOpenAI,
			Endpoint:       "https://api.openai.com/v1/chat/completions",
			Model:          "gpt-4",
			MaxTokens:      8192,
			Temperature:    0.3,
			RequiresAPIKey: true,
			Icon:           "🧠",
			Description:    "Advanced model for in-depth analysis",
			Features:       []string{"code-analysis", "recommendations", "security-check", "architecture-review"},
		},
		{
			ID:             "claude-3-haiku",
			Name:           "Claude 3 Haiku",
			Provider:       ProviderAnthropic,
			Endpoint:       "https://api.anthropic.com/v1/messages",
			Model:          "claude-3-haiku-20240307",
			MaxTokens:      4096,
			Temperature:    0.3,
			RequiresAPIKey: true,
			Icon:           "🎭",
			Description:    "Fast Claude model for basic analysis",
			Features:       []string{"code-analysis", "recommendations"},
		},
		{
			ID:             "claude-3-sonnet",
			Name:           "Claude 3 Sonnet",
			Provider:       ProviderAnthropic,
			Endpoint:       "https://api.anthropic.com/v1/messages",
			Model:          "claude-3-sonnet-20240229",
			MaxTokens:      4096,
			Temperature:    0.3,
			RequiresAPIKey: true,
			Icon:           "🎼",
			Description:    "Balanced model for quality analysis",
			Features:       []string{"code-analysis", "recommendations", "security-check"},
		},
		{
			ID:          "ollama-codellama",
			Name:        "Ollama CodeLlama",
			Provider:    ProviderOllama,
			Endpoint:    "http://localhost:11434/api/generate",
			Model:       "codellama:7b",
			MaxTokens:   2048,
			Temperature: 0.2,
			Icon:        "🦙",
			Description: "Local model for code analysis",
			Features:    []string{"code-analysis", "recommendations"},
		},
		{
			ID:          "ollama-llama2",
			Name:        "Ollama Llama2",
			Provider:    ProviderOllama,
			Endpoint:    "http://localhost:11434/api/generate",
			Model:       "llama2:7b",
			MaxTokens:   2048,
			Temperature: 0.3,
			Icon:        "🦙",
			Description: "General-purpose local model",
			Features:    []string{"code-analysis", "recommendations"},
		},
		{
			ID:          "lmstudio-local",
			Name:        "LM Studio Local",
			Provider:    ProviderLMStudio,
			Endpoint:    "http://localhost:1234/v1/chat/completions",
			Model:       "local-model",
			MaxTokens:   4096,
			Temperature: 0.3,
			Icon:        "🏠",
			Description: "Local model served by LM Studio",
			Features:    []string{"code-analysis", "recommendations"},
		},
		{
			ID:          DefaultModelID,
			Name:        "Builtin analyzer",
			Provider:    ProviderBuiltin,
			Icon:        "⚙️",
			Description: "Basic analysis without AI (always available)",
			Features:    []string{"basic-analysis", "pattern-detection"},
		},
	}
}
