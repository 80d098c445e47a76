package llm

import "github.com/sandevgo/archivist/internal/core"

const openRouterBaseURL = "https://openrouter.ai/api"

type OpenRouter struct {
	*OpenAICompatible
}

func NewOpenRouter(opts Options) *OpenRouter {
	if opts.BaseURL == "" {
		opts.BaseURL = openRouterBaseURL
	}
	return &OpenRouter{
		OpenAICompatible: NewOpenAICompatible(OpenAICompatibleConfig{
			Options:    opts,
			AuthHeader: "Authorization",
			AuthPrefix: "Bearer ",
			ExtraHeaders: map[string]string{
				"HTTP-Referer": core.RepositoryURL,
				"X-Title":      core.AppName,
			},
		}),
	}
}
