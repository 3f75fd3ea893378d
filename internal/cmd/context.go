package cmd

import (
	"context"
	"io"
	"os"

	"go.uber.org/zap"
)

type errorFormatKey struct{}
type ioKey struct{}
type loggerKey struct{}

type ioState struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

// WithErrorFormat stores the error format in the context.
func WithErrorFormat(ctx context.Context, format string) context.Context {
	return context.WithValue(ctx, errorFormatKey{}, format)
}

// ErrorFormatFromContext retrieves the error format from context.
func ErrorFormatFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(errorFormatKey{}).(string); ok {
		return v
	}
	return ""
}

func withIO(ctx context.Context, in io.Reader, out, err io.Writer) context.Context {
	return context.WithValue(ctx, ioKey{}, ioState{in: in, out: out, err: err})
}

func stdinFromContext(ctx context.Context) io.Reader {
	if ctx != nil {
		if v, ok := ctx.Value(ioKey{}).(ioState); ok && v.in != nil {
			return v.in
		}
	}
	return os.Stdin
}

func stdoutFromContext(ctx context.Context) io.Writer {
	if ctx != nil {
		if v, ok := ctx.Value(ioKey{}).(ioState); ok && v.out != nil {
			return v.out
		}
	}
	return os.Stdout
}

func stderrFromContext(ctx context.Context) io.Writer {
	if ctx != nil {
		if v, ok := ctx.Value(ioKey{}).(ioState); ok && v.err != nil {
			return v.err
		}
	}
	return os.Stderr
}

func withLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

func loggerFromContext(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok {
			return l
		}
	}
	return nil
}

func currentContext() context.Context {
	if rootCmd != nil && rootCmd.Context() != nil {
		return rootCmd.Context()
	}
	return context.Background()
}
