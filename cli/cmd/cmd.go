package cmd

import (
	"context"
	"io"
	"os"

	"github.com/alecthomas/kong"
)

// contextKey stores a [kong.Context] value in a [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given
// kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok {
		return nil
	}

	return ktx
}

// stdio is the special path indicating stdin or stdout.
const stdio = "-"

// readSource reads the spec document from path, or from stdin when path
// is "-".
func readSource(path string) ([]byte, error) {
	if path == stdio {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, ErrReadSpec.Wrap(err)
		}

		return data, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ErrReadSpec.Wrap(err)
	}

	return data, nil
}

// writeOutput writes the rendered document to path, or to the command's
// stdout when path is "-". The file is written only after generation has
// fully succeeded, so a failed run never leaves partial output behind.
func writeOutput(ctx context.Context, path, content string) error {
	if path == stdio {
		out := io.Writer(os.Stdout)
		if ktx := kongContextFrom(ctx); ktx != nil {
			out = ktx.Stdout
		}

		if _, err := io.WriteString(out, content); err != nil {
			return ErrWriteOutput.Wrap(err)
		}

		return nil
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return ErrWriteOutput.Wrap(err)
	}

	return nil
}
