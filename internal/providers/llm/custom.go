package llm

// CustomOpenAI talks to any server that speaks the chat-completions protocol.
type CustomOpenAI struct {
	*OpenAICompatible
}

func NewCustomOpenAI(opts Options) *CustomOpenAI {
	return &CustomOpenAI{
		OpenAICompatible: NewOpenAICompatible(OpenAICompatibleConfig{
			Options:    opts,
			AuthHeader: "Authorization",
			AuthPrefix: "Bearer ",
		}),
	}
}
