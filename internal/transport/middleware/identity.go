package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/niklvrr/IssueTracker/internal/domain"
)

const (
	UserIdHeader         = "X-User-Id"
	OrganizationIdHeader = "X-Organization-Id"
)

type identityKey struct{}

// Identity переносит пользователя и организацию из заголовков шлюза аутентификации в контекст.
// Отсутствие заголовков не ошибка здесь, сервисы сами отвечают UNAUTHORIZED.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := domain.Identity{
			UserId:         strings.TrimSpace(r.Header.Get(UserIdHeader)),
			OrganizationId: strings.TrimSpace(r.Header.Get(OrganizationIdHeader)),
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
	})
}

func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

func IdentityFromContext(ctx context.Context) domain.Identity {
	identity, _ := ctx.Value(identityKey{}).(domain.Identity)
	return identity
}
