package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/diode"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	fileMaxSizeMB  = 10
	fileMaxBackups = 5
)

// Options controls where the process logger writes.
type Options struct {
	Debug bool
	// File enables a rotating JSON log file next to the console output.
	File string
}

func NewContextWithLogger(ctx context.Context, debug bool) (context.Context, func()) {
	return NewContextWithOptions(ctx, Options{Debug: debug})
}

func NewContextWithOptions(ctx context.Context, opts Options) (context.Context, func()) {
	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		return ""
	}

	if opts.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// Use a diode (ring buffer) for non-blocking logging
	wr := diode.NewWriter(os.Stdout, 1000, 5*time.Millisecond, func(missed int) {
		fmt.Printf("Logger Dropped %d messages\n", missed)
	})

	var out io.Writer = zerolog.ConsoleWriter{
		Out:        wr,
		TimeFormat: time.DateTime,
		PartsOrder: []string{
			zerolog.LevelFieldName,
			zerolog.TimestampFieldName,
			zerolog.CallerFieldName,
			zerolog.MessageFieldName,
		},
	}

	var rotating *lumberjack.Logger
	if opts.File != "" {
		rotating = &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    fileMaxSizeMB,
			MaxBackups: fileMaxBackups,
			Compress:   true,
		}
		out = zerolog.MultiLevelWriter(out, rotating)
	}

	logger := zerolog.New(out).
		With().
		Timestamp().
		CallerWithSkipFrameCount(2).
		Logger()

	log.Logger = logger

	return log.With().Logger().WithContext(ctx), func() {
		wr.Close()
		if rotating != nil {
			_ = rotating.Close()
		}
	}
}

func FromCtx(ctx context.Context) *zerolog.Logger {
	return log.Ctx(ctx)
}

// WithFields returns ctx carrying a child logger enriched by fn.
func WithFields(ctx context.Context, fn func(zerolog.Context) zerolog.Context) context.Context {
	logger := fn(FromCtx(ctx).With()).Logger()
	return logger.WithContext(ctx)
}
