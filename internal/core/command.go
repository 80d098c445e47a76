package core

import "context"

// Request carries who asked what, and where.
type Request struct {
	UserID  string
	Scope   string
	Channel string
	// Admin is set by transports that can verify server permissions.
	Admin bool
}

type Command interface {
	Name() string
	Description() string
	Usage() string
	AdminOnly() bool
	Execute(ctx context.Context, req Request, args string) (string, error)
}

type CmdRouter interface {
	Execute(ctx context.Context, req Request, input string) (string, bool)
	ListCommands() []Command
}
