package command

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/sandevgo/archivist/internal/core"
	"github.com/sandevgo/archivist/internal/metrics"
	"github.com/sandevgo/archivist/pkg/log"
)

const adminRequired = "This command requires administrator permissions."

var errCommandFailed = errors.New("something went wrong, please try again later")

var _ core.CmdRouter = (*Router)(nil)

type Router struct {
	prefix        string
	commands      map[string]core.Command
	reportUnknown bool
	formatter     *ResponseFormatter
}

// New builds a router for commands written as <prefix><name> [args].
// Unknown commands are ignored unless reportUnknown is set, since a shared
// prefix like "!" is often claimed by other bots in the same channel.
func New(prefix string, reportUnknown bool, commands []core.Command) *Router {
	r := &Router{
		prefix:        prefix,
		commands:      make(map[string]core.Command),
		reportUnknown: reportUnknown,
		formatter:     NewResponseFormatter(),
	}

	for _, cmd := range commands {
		r.commands[cmd.Name()] = cmd
	}
	return r
}

func (r *Router) Prefix() string {
	return r.prefix
}

// Execute reports whether input was handled as a command.
func (r *Router) Execute(ctx context.Context, req core.Request, input string) (string, bool) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, r.prefix) {
		return "", false
	}

	body := strings.TrimPrefix(input, r.prefix)
	name, args := body, ""
	if i := strings.IndexFunc(body, unicode.IsSpace); i >= 0 {
		name, args = body[:i], body[i:]
	}
	// telegram appends @botname in groups
	name, _, _ = strings.Cut(name, "@")
	if name == "" {
		return "", false
	}

	cmd, ok := r.commands[name]
	if !ok {
		if r.reportUnknown {
			return fmt.Sprintf("Unknown command: %s%s", r.prefix, name), true
		}
		return "", false
	}

	if cmd.AdminOnly() && !req.Admin {
		return adminRequired, true
	}

	metrics.CommandsTotal.WithLabelValues(name).Inc()
	result, err := cmd.Execute(ctx, req, strings.TrimSpace(args))
	if err != nil {
		log.FromCtx(ctx).Error().Err(err).Str("command", name).Msg("command failed")
		// only argument problems are shown to the user
		if errors.Is(err, core.ErrInvalidArgs) {
			return r.formatter.Combine(r.formatter.Error(err), r.formatter.Usage(r.prefix+cmd.Usage())), true
		}
		return r.formatter.Error(errCommandFailed), true
	}
	return result, true
}

// ListCommands returns commands sorted by name.
func (r *Router) ListCommands() []core.Command {
	res := make([]core.Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		res = append(res, cmd)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name() < res[j].Name() })
	return res
}
