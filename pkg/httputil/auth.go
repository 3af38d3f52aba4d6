package httputil

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/complyflow/complyflow-backend/pkg/config"
	"github.com/complyflow/complyflow-backend/pkg/errors"
)

// ServiceClaims are the claims carried by service-to-service tokens.
type ServiceClaims struct {
	jwt.RegisteredClaims
	ServiceName string `json:"service_name"`
}

// ServiceAuth verifies HS256 bearer tokens issued to calling services.
// Health endpoints are exempt so monitoring does not need a token.
func ServiceAuth(cfg *config.JWTConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/health" {
				next.ServeHTTP(w, r)
				return
			}

			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				Error(w, errors.Unauthorized("missing bearer token"))
				return
			}
			tokenString := strings.TrimPrefix(header, "Bearer ")

			claims := &ServiceClaims{}
			token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, errors.TokenInvalid()
				}
				return []byte(cfg.Secret), nil
			}, jwt.WithIssuer(cfg.Issuer))
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					Error(w, errors.TokenExpired())
					return
				}
				Error(w, errors.TokenInvalid())
				return
			}
			if !token.Valid {
				Error(w, errors.TokenInvalid())
				return
			}

			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), claims.ServiceName)))
		})
	}
}
