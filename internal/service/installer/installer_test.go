package installer

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/sandevgo/archivist/internal/config"
	"github.com/sandevgo/archivist/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	down  = tea.KeyMsg{Type: tea.KeyDown}
)

func typeText(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestChoiceStep(t *testing.T) {
	state := NewInstallState()
	step := NewProviderStep()

	got, _ := step.Update(down, state, 80, 24)
	require.NotNil(t, got)
	got, _ = step.Update(enter, state, 80, 24)

	assert.Nil(t, got)
	assert.Equal(t, "anthropic", state.EnvVars[keyProvider])
}

func TestInputStep(t *testing.T) {
	t.Run("required value", func(t *testing.T) {
		state := NewInstallState()
		step := newInputStep("Token", keyDiscordToken, "")

		got, _ := step.Update(enter, state, 80, 24)
		require.NotNil(t, got)
		assert.ErrorIs(t, step.err, errRequired)

		step.Update(typeText("abc"), state, 80, 24)
		got, _ = step.Update(enter, state, 80, 24)
		assert.Nil(t, got)
		assert.Equal(t, "abc", state.EnvVars[keyDiscordToken])
	})

	t.Run("default value", func(t *testing.T) {
		state := NewInstallState()
		step := newInputStep("URL", keyBaseURL, "", withDefault("http://127.0.0.1:11434"))

		got, _ := step.Update(enter, state, 80, 24)
		assert.Nil(t, got)
		assert.Equal(t, "http://127.0.0.1:11434", state.EnvVars[keyBaseURL])
	})

	t.Run("optional empty", func(t *testing.T) {
		state := NewInstallState()
		step := newInputStep("Admins", keyTelegramAdm, "", optional())

		got, _ := step.Update(enter, state, 80, 24)
		assert.Nil(t, got)
		assert.NotContains(t, state.EnvVars, keyTelegramAdm)
	})

	t.Run("validation", func(t *testing.T) {
		state := NewInstallState()
		step := newInputStep("Admins", keyTelegramAdm, "", validateWith(validateIDList))

		step.Update(typeText("12,abc"), state, 80, 24)
		got, _ := step.Update(enter, state, 80, 24)
		require.NotNil(t, got)
		assert.Error(t, step.err)
	})
}

func TestSkippedSteps(t *testing.T) {
	state := NewInstallState()
	state.EnvVars[keyProvider] = "ollama"
	state.EnvVars[keyStore] = "sqlite"
	state.EnvVars[keyTransports] = "discord"

	for name, step := range map[string]Step{
		"api key":         NewAPIKeyStep(),
		"database url":    NewDatabaseURLStep(),
		"telegram token":  NewTelegramTokenStep(),
		"telegram admins": NewTelegramAdminStep(),
	} {
		got, _ := step.Update(nextMsg{}, state, 80, 24)
		assert.Nil(t, got, name)
	}

	got, _ := NewDiscordTokenStep().Update(nextMsg{}, state, 80, 24)
	assert.NotNil(t, got)
}

func TestBaseURLStep_BuildsForProvider(t *testing.T) {
	state := NewInstallState()
	state.EnvVars[keyProvider] = "openai"
	got, _ := NewBaseURLStep().Update(nextMsg{}, state, 80, 24)
	assert.Nil(t, got)

	state.EnvVars[keyProvider] = "custom"
	got, cmd := NewBaseURLStep().Update(nextMsg{}, state, 80, 24)
	require.IsType(t, &InputStep{}, got)
	assert.NotNil(t, cmd)
}

type fakeLister struct {
	models []core.Model
	err    error
}

func (f fakeLister) Models(context.Context) ([]core.Model, error) { return f.models, f.err }

func run(cmd tea.Cmd) tea.Msg {
	if cmd == nil {
		return nil
	}
	return cmd()
}

func TestModelStep_SelectsListedModel(t *testing.T) {
	state := NewInstallState()
	state.EnvVars[keyProvider] = "openrouter"

	var seen *config.LLMConfig
	step := newModelStep(func(_ context.Context, cfg *config.LLMConfig) (core.ModelLister, error) {
		seen = cfg
		return fakeLister{models: []core.Model{{ID: "openai/gpt-4o", Name: "GPT-4o", ContextLength: 128000}}}, nil
	})

	_, cmd := step.Update(nextMsg{}, state, 80, 24)
	msg := run(cmd)
	require.IsType(t, modelsMsg{}, msg)
	step.Update(msg, state, 80, 24)

	got, _ := step.Update(enter, state, 80, 24)
	assert.Nil(t, got)
	assert.Equal(t, "openai/gpt-4o", state.EnvVars[keyModel])
	assert.Equal(t, "openrouter", seen.Provider)
}

func TestModelStep_FallsBackToManualEntry(t *testing.T) {
	state := NewInstallState()
	step := newModelStep(func(context.Context, *config.LLMConfig) (core.ModelLister, error) {
		return nil, nil
	})

	_, cmd := step.Update(nextMsg{}, state, 80, 24)
	got, _ := step.Update(run(cmd), state, 80, 24)
	assert.IsType(t, &InputStep{}, got)
}

func TestModelStep_ErrorAllowsRetry(t *testing.T) {
	state := NewInstallState()
	step := newModelStep(func(context.Context, *config.LLMConfig) (core.ModelLister, error) {
		return fakeLister{err: errors.New("unauthorized")}, nil
	})

	_, cmd := step.Update(nextMsg{}, state, 80, 24)
	step.Update(run(cmd), state, 80, 24)
	assert.Contains(t, step.View(state), "unauthorized")

	got, _ := step.Update(typeText("m"), state, 80, 24)
	assert.IsType(t, &InputStep{}, got)
}

func TestFinalizeAndSave(t *testing.T) {
	state := NewInstallState()
	state.EnvVars[keyProvider] = "openai"
	state.EnvVars[keyAPIKey] = "sk-test"
	state.EnvVars[keyStore] = "sqlite"
	state.EnvVars[keyDatabaseURL] = "postgres://stale"
	state.EnvVars[keyTransports] = "discord"
	state.EnvVars[keyDiscordToken] = "discord-token"

	finalize(state)
	assert.Equal(t, "true", state.EnvVars[keyEnableDisc])
	assert.Equal(t, "false", state.EnvVars[keyEnableTg])
	assert.NotContains(t, state.EnvVars, keyTransports)
	assert.NotContains(t, state.EnvVars, keyDatabaseURL)

	path := filepath.Join(t.TempDir(), ".env")
	step := NewSaveEnvStep(path)
	got, _ := step.Update(nextMsg{}, state, 80, 24)
	assert.Nil(t, got)

	saved, err := godotenv.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "sk-test", saved[keyAPIKey])
	assert.Equal(t, "true", saved[keyEnableDisc])

	again := NewSaveEnvStep(path)
	got, _ = again.Update(nextMsg{}, state, 80, 24)
	assert.NotNil(t, got)
	assert.Contains(t, again.View(state), "already exists")
}
