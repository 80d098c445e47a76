package installer

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sandevgo/archivist/pkg/env"
)

// FinalizationStep derives transport flags and drops wizard-only keys.
type FinalizationStep struct{}

func NewFinalizationStep() Step {
	return &FinalizationStep{}
}

func (s *FinalizationStep) Init() tea.Cmd {
	return next
}

func (s *FinalizationStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	finalize(state)
	return nil, nil
}

func finalize(state *InstallState) {
	state.EnvVars[keyEnableDisc] = fmt.Sprint(state.EnvVars[keyDiscordToken] != "")
	state.EnvVars[keyEnableTg] = fmt.Sprint(state.EnvVars[keyTelegramTok] != "")

	if state.EnvVars[keyDebug] == "" {
		state.EnvVars[keyDebug] = "0"
	}
	if state.EnvVars[keyStore] != "postgres" {
		delete(state.EnvVars, keyDatabaseURL)
	}

	delete(state.EnvVars, keyTransports)
}

func (s *FinalizationStep) View(state *InstallState) string {
	return "Finalizing configuration...\n"
}

// SaveEnvStep writes the collected configuration to the .env file.
type SaveEnvStep struct {
	path  string
	err   error
	saved bool
}

func NewSaveEnvStep(path string) Step {
	return &SaveEnvStep{path: path}
}

func (s *SaveEnvStep) Init() tea.Cmd {
	return next
}

func (s *SaveEnvStep) Update(msg tea.Msg, state *InstallState, width, height int) (Step, tea.Cmd) {
	if s.saved {
		return nil, nil
	}
	if s.err != nil {
		return s, nil
	}

	if err := env.WriteFile(s.path, state.EnvVars); err != nil {
		if errors.Is(err, env.ErrExists) {
			err = fmt.Errorf("%w, remove it to reinstall", err)
		}
		s.err = err
		return s, nil
	}

	s.saved = true
	return nil, nil
}

func (s *SaveEnvStep) View(state *InstallState) string {
	if s.err != nil {
		return errorStyle.Render(fmt.Sprintf("Error: %v", s.err)) + "\n\n(press ctrl+c to quit)\n"
	}
	if s.saved {
		return "Configuration saved to " + s.path + "\n"
	}
	return "Saving configuration...\n"
}
