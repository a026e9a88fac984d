package httpapi

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const clientContextKey contextKey = "client"

// JWTClaims represents the claims in the JWT token
type JWTClaims struct {
	jwt.RegisteredClaims
	KeyID string `json:"key_id"`
}

// AuthClient represents the authenticated API client in request context
type AuthClient struct {
	KeyID string
}

// hashToken returns the hex-encoded SHA-256 of token.
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// keyID is a stable, non-secret identifier for an API key.
func keyID(apiKey string) string {
	return hashToken(apiKey)[:12]
}

// matchAPIKey reports whether key is one of the configured keys. Every key
// is compared so the timing does not depend on which one matched.
func (r *Router) matchAPIKey(key string) bool {
	if key == "" {
		return false
	}
	matched := 0
	for _, k := range r.cfg.APIKeys {
		matched |= subtle.ConstantTimeCompare([]byte(k), []byte(key))
	}
	return matched == 1
}

// bearerToken extracts the token from "Authorization: Bearer <token>". Browsers
// cannot set headers on websocket upgrades, so ?token= is accepted there.
func bearerToken(req *http.Request) (string, string) {
	authHeader := req.Header.Get("Authorization")
	if authHeader == "" {
		if t := req.URL.Query().Get("token"); t != "" && isWebSocketUpgrade(req) {
			return t, ""
		}
		return "", "missing authorization header"
	}

	// Expect "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", "invalid authorization format"
	}
	return parts[1], ""
}

func isWebSocketUpgrade(req *http.Request) bool {
	return strings.EqualFold(req.Header.Get("Upgrade"), "websocket")
}

func (r *Router) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		tokenString, problem := bearerToken(req)
		if problem != "" {
			writeError(w, http.StatusUnauthorized, problem)
			return
		}

		token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(r.cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			http.Error(w, `{"error": "invalid token"}`, http.StatusUnauthorized)
			return
		}

		claims, ok := token.Claims.(*JWTClaims)
		if !ok || claims.KeyID == "" {
			http.Error(w, `{"error": "invalid token claims"}`, http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(req.Context(), clientContextKey, &AuthClient{KeyID: claims.KeyID})
		next.ServeHTTP(w, req.WithContext(ctx))
	}
}

// getAuthClient retrieves the authenticated client from context
func getAuthClient(ctx context.Context) *AuthClient {
	client, _ := ctx.Value(clientContextKey).(*AuthClient)
	return client
}

func (r *Router) generateJWT(kid string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(r.cfg.JWTExpiry)

	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   kid,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		KeyID: kid,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(r.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// handleIssueToken exchanges an API key (X-API-Key header) for a JWT.
func (r *Router) handleIssueToken(w http.ResponseWriter, req *http.Request) {
	if r.cfg.JWTSecret == "" || len(r.cfg.APIKeys) == 0 {
		http.Error(w, `{"error": "authentication not configured"}`, http.StatusServiceUnavailable)
		return
	}

	apiKey := req.Header.Get("X-API-Key")
	if !r.matchAPIKey(apiKey) {
		http.Error(w, `{"error": "invalid api key"}`, http.StatusUnauthorized)
		return
	}

	kid := keyID(apiKey)
	token, expiresAt, err := r.generateJWT(kid)
	if err != nil {
		r.logger.Printf("auth: failed to sign token: %v", err)
		captureError(req, err, "auth: failed to sign token")
		http.Error(w, `{"error": "failed to issue token"}`, http.StatusInternalServerError)
		return
	}

	r.logger.Printf("auth: issued token for key %s", kid)
	writeJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"expires_at": expiresAt.UTC(),
	})
}
