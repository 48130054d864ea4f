package web

import "context"

type subjectKey struct{}

// WithSubject stores the authenticated token subject in ctx.
func WithSubject(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, subjectKey{}, subject)
}

// Subject returns the authenticated token subject, or "" outside the
// bearer protected routes.
func Subject(ctx context.Context) string {
	s, _ := ctx.Value(subjectKey{}).(string)
	return s
}
