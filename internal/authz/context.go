package authz

import "context"

type ctxKey string

const ContextSubjectKey ctxKey = "subject"

func SubjectFromContext(ctx context.Context) (*Subject, bool) {
	s, ok := ctx.Value(ContextSubjectKey).(*Subject)
	return s, ok && s != nil
}

func ContextWithSubject(ctx context.Context, s *Subject) context.Context {
	return context.WithValue(ctx, ContextSubjectKey, s)
}
