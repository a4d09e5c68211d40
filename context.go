package activity

import (
	"context"
)

type scopeKey struct{}

// ContextWithScope returns a copy of ctx carrying s as its innermost scope.
func ContextWithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, s)
}

// ScopeFromContext returns the innermost scope carried by ctx, materialized or not.
func ScopeFromContext(ctx context.Context) *Scope {
	if ctx == nil {
		return nil
	}
	s, _ := ctx.Value(scopeKey{}).(*Scope)

	return s
}

// Current returns the ambient current scope of ctx: the innermost carried
// scope that is materialized and has not ended. It returns nil if there is none.
func Current(ctx context.Context) *Scope {
	return currentFrom(ScopeFromContext(ctx))
}

// CurrentActivity returns the Activity of Current(ctx), or nil.
func CurrentActivity(ctx context.Context) *Activity {
	if s := Current(ctx); s != nil {
		return s.Activity()
	}

	return nil
}

func currentFrom(s *Scope) *Scope {
	for ; s != nil; s = s.outer {
		if s.isCurrent() {
			return s
		}
	}

	return nil
}
