package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/sandevgo/archivist/internal/core"
	"github.com/sandevgo/archivist/internal/service/command"
	"github.com/sandevgo/archivist/pkg/log"
)

const defaultUserID = "cli-local"

type Asker interface {
	Answer(ctx context.Context, userID, scope, question string) string
}

type Options struct {
	RuntimePath string
	// Scope is the server whose history questions are answered from.
	Scope  string
	UserID string
}

// ReadLine is an interactive terminal session over the answering pipeline.
type ReadLine struct {
	opts   Options
	asker  Asker
	router *command.Router
	rl     *readline.Instance
}

func NewReadLine(asker Asker, router *command.Router, opts Options) (*ReadLine, error) {
	if err := os.MkdirAll(opts.RuntimePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create runtime directory: %w", err)
	}
	if opts.UserID == "" {
		opts.UserID = defaultUserID
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          ">>> ",
		HistoryFile:     filepath.Join(opts.RuntimePath, "input_history"),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, err
	}

	return &ReadLine{opts: opts, asker: asker, router: router, rl: rl}, nil
}

func (r *ReadLine) Name() string { return "cli" }

func (r *ReadLine) Start(ctx context.Context) error {
	logger := log.FromCtx(ctx)
	logger.Info().Str("scope", r.opts.Scope).Msg("chat started, type 'exit' to quit")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := r.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				if len(line) == 0 {
					return nil
				}
				continue
			} else if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		reply, quit := r.handle(ctx, line)
		if quit {
			return nil
		}
		if reply != "" {
			fmt.Fprintln(r.rl.Stdout(), reply)
		}
	}
}

// handle turns one input line into a reply. Lines starting with the
// command prefix go to the router, everything else is a question.
func (r *ReadLine) handle(ctx context.Context, line string) (string, bool) {
	line = strings.TrimSpace(line)
	switch line {
	case "":
		return "", false
	case "exit", "quit":
		return "", true
	}

	req := core.Request{UserID: r.opts.UserID, Scope: r.opts.Scope, Admin: true}
	if reply, ok := r.router.Execute(ctx, req, line); ok {
		return reply, false
	}
	return r.asker.Answer(ctx, r.opts.UserID, r.opts.Scope, line), false
}

func (r *ReadLine) Shutdown(ctx context.Context) error {
	if r.rl != nil {
		return r.rl.Close()
	}
	return nil
}
