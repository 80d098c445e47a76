package llm

const openAIBaseURL = "https://api.openai.com"

// OpenAI provider is implemented using OpenAICompatible.
type OpenAI struct {
	*OpenAICompatible
}

func NewOpenAI(opts Options) *OpenAI {
	if opts.BaseURL == "" {
		opts.BaseURL = openAIBaseURL
	}
	return &OpenAI{
		OpenAICompatible: NewOpenAICompatible(OpenAICompatibleConfig{
			Options:    opts,
			AuthHeader: "Authorization",
			AuthPrefix: "Bearer ",
		}),
	}
}
