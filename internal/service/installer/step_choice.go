package installer

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

type choice struct {
	label string
	value string
}

// ChoiceStep stores the selected choice's value under key.
type ChoiceStep struct {
	title   string
	key     string
	choices []choice
	cursor  int
	skip    func(*InstallState) bool
}

func (s *ChoiceStep) Init() tea.Cmd {
	return next
}

func (s *ChoiceStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if s.skip != nil && s.skip(state) {
		return nil, nil
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if s.cursor > 0 {
				s.cursor--
			}
		case "down", "j":
			if s.cursor < len(s.choices)-1 {
				s.cursor++
			}
		case "enter":
			state.EnvVars[s.key] = s.choices[s.cursor].value
			return nil, nil
		}
	}
	return s, nil
}

func (s *ChoiceStep) View(state *InstallState) string {
	var b strings.Builder
	b.WriteString(s.title + ":\n\n")
	for i, c := range s.choices {
		if s.cursor == i {
			b.WriteString(selStyle.Render(fmt.Sprintf("❯ %s", c.label)) + "\n")
		} else {
			b.WriteString(itemStyle.Render(fmt.Sprintf("  %s", c.label)) + "\n")
		}
	}
	b.WriteString("\n(press ctrl+c to quit)\n")
	return b.String()
}

func NewProviderStep() Step {
	return &ChoiceStep{
		title: "Select your AI provider",
		key:   keyProvider,
		choices: []choice{
			{"OpenAI", "openai"},
			{"Anthropic", "anthropic"},
			{"OpenRouter", "openrouter"},
			{"Ollama (local)", "ollama"},
			{"Custom OpenAI-compatible endpoint", "custom"},
			{"Eino (OpenAI via CloudWeGo Eino)", "eino"},
		},
	}
}

func NewStoreStep() Step {
	return &ChoiceStep{
		title: "Where should message history be stored",
		key:   keyStore,
		choices: []choice{
			{"SQLite file in the runtime directory", "sqlite"},
			{"PostgreSQL", "postgres"},
		},
	}
}

func NewTransportStep() Step {
	return &ChoiceStep{
		title: "Which chat platforms should the bot join",
		key:   keyTransports,
		choices: []choice{
			{"Discord", "discord"},
			{"Telegram", "telegram"},
			{"Discord and Telegram", "both"},
			{"None (HTTP API and CLI only)", "none"},
		},
	}
}
