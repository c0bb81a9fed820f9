package vm

import (
	"context"

	"github.com/deepnoodle-ai/ilweave/bytecode"
)

// Run calls method in a new Virtual Machine and returns the result.
func Run(ctx context.Context, method *bytecode.Method, args []any, options ...Option) (any, error) {
	return New(options...).Call(ctx, method, args...)
}
