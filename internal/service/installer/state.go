package installer

import "strings"

// Environment keys the wizard writes.
const (
	keyProvider     = "ARCHIVIST_LLM_PROVIDER"
	keyModel        = "ARCHIVIST_LLM_MODEL"
	keyAPIKey       = "ARCHIVIST_LLM_API_KEY"
	keyBaseURL      = "ARCHIVIST_LLM_BASE_URL"
	keyStore        = "ARCHIVIST_STORE"
	keyDatabaseURL  = "ARCHIVIST_DATABASE_URL"
	keyDiscordToken = "ARCHIVIST_DISCORD_TOKEN"
	keyTelegramTok  = "ARCHIVIST_TELEGRAM_TOKEN"
	keyTelegramAdm  = "ARCHIVIST_TELEGRAM_ADMIN_IDS"
	keyEnableDisc   = "ARCHIVIST_ENABLE_DISCORD"
	keyEnableTg     = "ARCHIVIST_ENABLE_TELEGRAM"
	keyDebug        = "ARCHIVIST_DEBUG"

	// keyTransports only steers the wizard and is never saved.
	keyTransports = "transports"
)

type InstallState struct {
	EnvVars map[string]string
}

func NewInstallState() *InstallState {
	return &InstallState{
		EnvVars: make(map[string]string),
	}
}

func (s *InstallState) Provider() string {
	return strings.ToLower(s.EnvVars[keyProvider])
}

func (s *InstallState) wantsTransport(name string) bool {
	t := s.EnvVars[keyTransports]
	return t == name || t == "both"
}
