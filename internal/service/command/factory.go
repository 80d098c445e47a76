package command

import (
	"github.com/sandevgo/archivist/internal/core"
)

type Pipeline interface {
	Asker
	HistoryClearer
}

// NewCommands returns the commands every chat transport offers.
func NewCommands(pipeline Pipeline, store core.RecordBrowser) []core.Command {
	return []core.Command{
		NewAskCommand(pipeline),
		NewClearCommand(pipeline),
		NewSearchCommand(store),
		NewStatusCommand(store),
	}
}

// NewRouter wires common and transport specific commands plus help.
func NewRouter(prefix string, reportUnknown bool, commands ...core.Command) *Router {
	var r *Router
	help := NewHelpCommand(prefix, func() []core.Command { return r.ListCommands() })
	all := append(append([]core.Command{}, commands...), help)
	r = New(prefix, reportUnknown, all)
	return r
}
