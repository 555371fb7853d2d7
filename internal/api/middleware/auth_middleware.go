package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type SpectatorIDKey struct{}

var (
	ErrMissingToken   = errors.New("token is required")
	ErrInvalidToken   = errors.New("invalid token")
	ErrMissingSubject = errors.New("token claims missing 'sub'")
)

// GetSpectatorIDFromContext retrieves the spectator ID from the context.
func GetSpectatorIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(SpectatorIDKey{}).(string)
	return id, ok
}

// writeJSONError writes a JSON error response
func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// VerifyToken はHS256で署名されたJWTを検証し、'sub' クレームを返します。
// "Bearer " プレフィックスが付いていれば取り除きます。
//
// Parameters:
//   tokenString : 検証するトークン
//   secret      : 署名の検証に使う共有鍵
// Returns:
//   string: トークンの sub
//   error : 検証に失敗した場合
func VerifyToken(tokenString, secret string) (string, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	if tokenString == "" {
		return "", ErrMissingToken
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// アルゴリズムがHMACであることを確認
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	sub, ok := claims["sub"].(string)
	if !ok || sub == "" {
		return "", ErrMissingSubject
	}
	return sub, nil
}

// AuthMiddleware は観戦用エンドポイントのトークンを検証するミドルウェアを返します。
// secret が空の場合は認証を行わず、リクエストごとに匿名の観戦者IDを割り当てます。
func AuthMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				ctx := context.WithValue(r.Context(), SpectatorIDKey{}, "anonymous-"+uuid.New().String())
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSONError(w, http.StatusUnauthorized, "Authorization header is required")
				return
			}
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeJSONError(w, http.StatusUnauthorized, "Invalid Authorization header format. Must be 'Bearer <token>'")
				return
			}

			spectatorID, err := VerifyToken(authHeader, secret)
			if err != nil {
				log.Printf("[AuthMiddleware] Token rejected: %v", err)
				writeJSONError(w, http.StatusUnauthorized, "Invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), SpectatorIDKey{}, spectatorID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
