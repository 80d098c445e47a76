package installer

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandevgo/archivist/internal/config"
	"github.com/sandevgo/archivist/internal/core"
	"github.com/sandevgo/archivist/internal/providers/llm"
)

// listerFunc builds a model lister for the collected provider settings.
// A nil lister means the provider cannot enumerate models.
type listerFunc func(ctx context.Context, cfg *config.LLMConfig) (core.ModelLister, error)

func defaultLister(ctx context.Context, cfg *config.LLMConfig) (core.ModelLister, error) {
	client, err := llm.NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	lister, _ := client.(core.ModelLister)
	return lister, nil
}

// ModelStep lets the user pick a model from the provider's catalogue and
// falls back to free text when the provider has none.
type ModelStep struct {
	list     list.Model
	lister   listerFunc
	loading  bool
	fetching bool
	err      error
}

func NewModelStep() Step {
	return newModelStep(defaultLister)
}

func newModelStep(lister listerFunc) *ModelStep {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Select AI Model"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle

	return &ModelStep{
		list:    l,
		lister:  lister,
		loading: true,
	}
}

func (s *ModelStep) Init() tea.Cmd {
	return next
}

func manualModelStep() Step {
	return newInputStep("Enter the model name", keyModel, "o3-mini", withDefault("o3-mini"))
}

func (s *ModelStep) fetch(state *InstallState) tea.Cmd {
	cfg := &config.LLMConfig{
		Provider: state.Provider(),
		APIKey:   state.EnvVars[keyAPIKey],
		BaseURL:  state.EnvVars[keyBaseURL],
		Timeout:  30 * time.Second,
	}
	lister := s.lister

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		l, err := lister(ctx, cfg)
		if err != nil {
			return errMsg(err)
		}
		if l == nil {
			return manualMsg{}
		}
		models, err := l.Models(ctx)
		if err != nil {
			return errMsg(err)
		}
		if len(models) == 0 {
			return manualMsg{}
		}

		items := make([]list.Item, 0, len(models))
		for _, mod := range models {
			desc := "ID: " + mod.ID
			if mod.ContextLength > 0 {
				desc = fmt.Sprintf("ID: %s | Context: %d", mod.ID, mod.ContextLength)
			}
			title := mod.Name
			if title == "" {
				title = mod.ID
			}
			items = append(items, item{id: mod.ID, title: title, desc: desc})
		}
		return modelsMsg(items)
	}
}

func (s *ModelStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if s.loading && !s.fetching {
		s.fetching = true
		return s, s.fetch(state)
	}

	s.list.SetSize(width, height-4)

	var cmd tea.Cmd
	switch msg := msg.(type) {
	case manualMsg:
		step := manualModelStep()
		return step, step.Init()

	case modelsMsg:
		s.list.SetItems(msg)
		s.loading = false
		s.fetching = false
		return s, nil

	case errMsg:
		s.loading = false
		s.fetching = false
		s.err = msg
		return s, nil

	case tea.KeyMsg:
		if s.err != nil {
			switch msg.String() {
			case "enter":
				s.err = nil
				s.loading = true
				s.fetching = false
				return s, next
			case "m":
				step := manualModelStep()
				return step, step.Init()
			}
			return s, nil
		}

		if msg.String() == "enter" {
			wasFiltering := s.list.FilterState() == list.Filtering
			s.list, cmd = s.list.Update(msg)

			if wasFiltering || s.list.FilterState() == list.Filtering {
				return s, cmd
			}

			if i, ok := s.list.SelectedItem().(item); ok {
				state.EnvVars[keyModel] = i.id
				return nil, nil
			}
			return s, cmd
		}
	}

	s.list, cmd = s.list.Update(msg)
	return s, cmd
}

func (s *ModelStep) View(state *InstallState) string {
	if s.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error fetching models: %v", s.err)) +
			"\n\nCheck your API key and connection.\n\n(press enter to retry, m to type a model name, ctrl+c to quit)\n"
	}
	if s.loading {
		return "Fetching available models...\n"
	}
	return s.list.View()
}
