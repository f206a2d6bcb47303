package http

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/openmeet/ticketgate/pkg/logger"
)

type verifierKey struct{}

// Middleware authenticates door-scanner devices. Each device holds a
// short-lived HS256 token whose "addr" claim is the hex form of the
// verifier identity the check-in challenge is bound to.
type Middleware struct {
	secret []byte
	logger logger.Logger
}

func NewMiddleware(secret string, logger logger.Logger) *Middleware {
	return &Middleware{
		secret: []byte(secret),
		logger: logger,
	}
}

func (m *Middleware) VerifierAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			unauthorized(w, "Missing Authorization header")
			return
		}

		// Expect: "Bearer token"
		if !strings.HasPrefix(authHeader, "Bearer ") {
			unauthorized(w, "Invalid token format")
			return
		}
		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secret, nil
		})
		if err != nil || !token.Valid {
			m.logger.Debugf(r.Context(), "http.Middleware.VerifierAuth: token rejected: %v", err)
			unauthorized(w, "Invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			unauthorized(w, "Invalid token claims")
			return
		}

		addrHex, _ := claims["addr"].(string)
		identity, err := hex.DecodeString(addrHex)
		if err != nil || len(identity) == 0 {
			unauthorized(w, "Invalid verifier identity")
			return
		}

		ctx := context.WithValue(r.Context(), verifierKey{}, identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// VerifierIdentity returns the authenticated device identity placed in
// the context by VerifierAuth, or nil outside the guarded routes.
func VerifierIdentity(ctx context.Context) []byte {
	identity, _ := ctx.Value(verifierKey{}).([]byte)
	return identity
}

// MintVerifierToken issues a device token during scanner enrollment.
func MintVerifierToken(secret []byte, identity []byte, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"addr": hex.EncodeToString(identity),
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(ttl).Unix(),
	})
	return token.SignedString(secret)
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, `{"error":%q,"code":%d}`, message, http.StatusUnauthorized)
}
