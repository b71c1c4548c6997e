package cmd

import (
	"os"

	"github.com/spf13/viper"

	"github.com/nebulascloud/jaci/internal/llm"
	"github.com/nebulascloud/jaci/internal/store"
)

// newAssistant creates an LLM client from config/env, or returns nil
// if no API key is configured for the selected provider.
func newAssistant(useContext bool, st store.Store) *llm.Client {
	var provider llm.Provider

	switch viper.GetString("llm.provider") {
	case "anthropic":
		apiKey := viper.GetString("anthropic.api_key")
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil
		}
		provider = llm.NewAnthropicProvider(apiKey, viper.GetString("anthropic.model"))
	default:
		apiKey := viper.GetString("openai.api_key")
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil
		}
		provider = llm.NewOpenAIProvider(apiKey, viper.GetString("openai.model"))
	}

	return llm.NewClient(provider, llm.Options{
		MaxAttempts: viper.GetInt("retry.max_attempts"),
		RetryDelay:  viper.GetDuration("retry.delay"),
		UseContext:  useContext,
		Store:       st,
	})
}
