package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/cardnight/tournament-system/services"
)

type contextKey string

const claimsContextKey contextKey = "claims"

// TokenParser проверяет подпись токена и возвращает его claims.
type TokenParser interface {
	ParseToken(tokenString string) (*services.Claims, error)
}

type Auth struct {
	parser TokenParser
}

func NewAuth(parser TokenParser) *Auth {
	return &Auth{parser: parser}
}

// Authenticate требует валидный Bearer-токен и кладёт claims в контекст.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		claims, err := a.parser.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), claimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Authorize пропускает только перечисленные роли. Вешается после
// Authenticate.
func (a *Auth) Authorize(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			for _, role := range roles {
				if role == claims.Role {
					next.ServeHTTP(w, r)
					return
				}
			}
			http.Error(w, "Forbidden", http.StatusForbidden)
		})
	}
}

// ClaimsFromContext достаёт claims, положенные Authenticate; nil, если
// запрос не аутентифицирован.
func ClaimsFromContext(ctx context.Context) *services.Claims {
	claims, _ := ctx.Value(claimsContextKey).(*services.Claims)
	return claims
}
