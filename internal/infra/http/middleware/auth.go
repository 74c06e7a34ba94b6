package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/render"
	"github.com/golang-jwt/jwt/v5"
	"github.com/xavierca1/funnel-leads/internal/entity"
	"github.com/xavierca1/funnel-leads/internal/log"
)

type contextKey string

const UserContextKey = contextKey("business_user")

type userFinder interface {
	FindByID(ctx context.Context, id string) (*entity.BusinessUser, error)
}

type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

type Auth struct {
	Secret []byte
	Users  userFinder
}

func NewAuth(secret string, users userFinder) *Auth {
	return &Auth{Secret: []byte(secret), Users: users}
}

// Protect exige um JWT válido (header Bearer ou ?token=, que o websocket usa)
// e coloca o usuário dono no contexto.
func (a *Auth) Protect(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := tokenFromRequest(r)
		if token == "" {
			unauthorized(w, r, "Not authorized")
			return
		}

		claims, err := a.parse(token)
		if err != nil {
			log.Debugf("token rejeitado: %v", err)
			unauthorized(w, r, "Invalid token")
			return
		}

		user, err := a.Users.FindByID(r.Context(), claims.UserID)
		if err != nil {
			if !errors.Is(err, entity.ErrUserNotFound) {
				log.Errorf("❌ Erro ao carregar usuário %s: %v", claims.UserID, err)
			}
			unauthorized(w, r, "Invalid token")
			return
		}
		if !user.IsActive {
			unauthorized(w, r, "Invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
	})
}

func (a *Auth) parse(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		return a.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims.UserID == "" {
		return nil, errors.New("claim user_id ausente")
	}
	return claims, nil
}

func tokenFromRequest(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if parts := strings.SplitN(h, " ", 2); len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			if t := strings.TrimSpace(parts[1]); t != "" {
				return t
			}
		}
	}
	return r.URL.Query().Get("token")
}

func unauthorized(w http.ResponseWriter, r *http.Request, message string) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, map[string]string{"message": message})
}

func WithUser(ctx context.Context, user *entity.BusinessUser) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

func UserFromContext(ctx context.Context) (*entity.BusinessUser, bool) {
	user, ok := ctx.Value(UserContextKey).(*entity.BusinessUser)
	return user, ok && user != nil
}

// SignToken emite um token HS256 com a claim user_id.
func SignToken(secret, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("falha ao assinar token: %w", err)
	}
	return signed, nil
}
