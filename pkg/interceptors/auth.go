package interceptors

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/sessions"
	"golang.org/x/crypto/hkdf"
)

// SessionUserIDKey is the session value holding the signed-in user id.
const SessionUserIDKey = "user_id"

type AuthConfig struct {
	// JWTSecret verifies HS256 bearer tokens. Empty disables bearer auth.
	JWTSecret []byte
	// Sessions decodes the session cookie. Nil disables cookie auth.
	Sessions    sessions.Store
	SessionName string
}

// NewSessionStore builds a cookie store whose signing and encryption keys are
// derived from secret.
func NewSessionStore(secret string, secure bool) (*sessions.CookieStore, error) {
	if secret == "" {
		return nil, errors.New("session secret is required")
	}
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte("local-guide session cookie"))
	hashKey := make([]byte, 64)
	blockKey := make([]byte, 32)
	if _, err := io.ReadFull(kdf, hashKey); err != nil {
		return nil, fmt.Errorf("derive session hash key: %w", err)
	}
	if _, err := io.ReadFull(kdf, blockKey); err != nil {
		return nil, fmt.Errorf("derive session block key: %w", err)
	}

	store := sessions.NewCookieStore(hashKey, blockKey)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int((30 * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
	return store, nil
}

// NewToken signs an HS256 token for userID.
func NewToken(secret []byte, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func parseToken(secret []byte, raw string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// NewAuthInterceptor resolves the caller from a bearer token or the session
// cookie. Requests to publicPaths pass through untouched; other requests
// without a valid credential get 401.
func NewAuthInterceptor(cfg AuthConfig, publicPaths ...string) Interceptor {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if slices.Contains(publicPaths, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			if header := r.Header.Get("Authorization"); header != "" {
				raw, ok := strings.CutPrefix(header, "Bearer ")
				if !ok || len(cfg.JWTSecret) == 0 {
					WriteError(w, http.StatusUnauthorized, "unsupported authorization scheme")
					return
				}
				userID, err := parseToken(cfg.JWTSecret, strings.TrimSpace(raw))
				if err != nil {
					WriteError(w, http.StatusUnauthorized, "invalid or expired token")
					return
				}
				next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
				return
			}

			if cfg.Sessions != nil {
				sess, err := cfg.Sessions.Get(r, cfg.SessionName)
				if err == nil {
					if userID, _ := sess.Values[SessionUserIDKey].(string); userID != "" {
						next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
						return
					}
				}
			}

			WriteError(w, http.StatusUnauthorized, "authentication required")
		})
	}
}
