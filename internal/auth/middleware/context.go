package auth

import "context"

type ctxKey struct{}

var ctxKeySub = ctxKey{}

func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, ctxKeySub, sub)
}

func SubjectFromContext(ctx context.Context) string {
	if s, ok := ctx.Value(ctxKeySub).(string); ok {
		return s
	}
	return ""
}
