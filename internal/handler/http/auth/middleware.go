// Package auth validates the bearer tokens issued by the external account
// system and exposes the authenticated user id to handlers.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"newsletter-curator/internal/handler/http/respond"
	"newsletter-curator/internal/observability/logging"
)

type ctxKey string

const ctxUser ctxKey = "user_id"

var (
	ErrMissingToken = errors.New("missing bearer token")
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
	ErrInvalidSub   = errors.New("invalid sub claim")
)

// Authz requires an HS256 JWT signed with secret. The numeric "sub" claim
// becomes the user id available through UserID.
func Authz(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			userID, err := validateJWT(r.Header.Get("Authorization"), secret)
			RecordAuthDuration(time.Since(start).Seconds())
			if err != nil {
				RecordAuthRequest(resultLabel(err))
				logging.WithRequestID(r.Context(), slog.Default()).Warn("authentication failed",
					"path", r.URL.Path, "reason", err.Error())
				respond.SafeError(w, http.StatusUnauthorized, fmt.Errorf("unauthorized: %w", err))
				return
			}
			RecordAuthRequest("success")
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}

// WithUserID stores the authenticated user id in ctx.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, ctxUser, userID)
}

// UserID returns the authenticated user id, if any.
func UserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(ctxUser).(int64)
	return id, ok && id > 0
}

// SignToken issues a token accepted by Authz. Tokens normally come from the
// account system; this is for operators and tests.
func SignToken(secret []byte, userID int64, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": strconv.FormatInt(userID, 10),
		"exp": time.Now().Add(ttl).Unix(),
	})
	return token.SignedString(secret)
}

func validateJWT(authz string, secret []byte) (int64, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(authz, prefix) {
		return 0, ErrMissingToken
	}
	tokenString := strings.TrimPrefix(authz, prefix)
	tok, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, ErrTokenExpired
		}
		return 0, ErrInvalidToken
	}
	if !tok.Valid {
		return 0, ErrInvalidToken
	}
	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return 0, ErrInvalidToken
	}
	return subjectID(claims["sub"])
}

// subjectID accepts the user id either as a JSON number or a decimal string.
func subjectID(sub any) (int64, error) {
	var id int64
	switch v := sub.(type) {
	case string:
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, ErrInvalidSub
		}
		id = parsed
	case float64:
		if v != float64(int64(v)) {
			return 0, ErrInvalidSub
		}
		id = int64(v)
	default:
		return 0, ErrInvalidSub
	}
	if id <= 0 {
		return 0, ErrInvalidSub
	}
	return id, nil
}

func resultLabel(err error) string {
	switch {
	case errors.Is(err, ErrMissingToken):
		return "missing"
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	default:
		return "invalid"
	}
}
