// Package service contains application services.
package service

import (
	"context"

	"github.com/Strob0t/PMForge/internal/domain/update"
)

type sourceKey struct{}

// WithSource records who is performing mutations made with ctx.
func WithSource(ctx context.Context, src update.Source) context.Context {
	return context.WithValue(ctx, sourceKey{}, src)
}

// SourceFrom returns the mutation source stored in ctx, or update.SourceAPI.
func SourceFrom(ctx context.Context) update.Source {
	if src, ok := ctx.Value(sourceKey{}).(update.Source); ok && src != "" {
		return src
	}
	return update.SourceAPI
}
