package fakebackend

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-payment-console/entities"
)

var signingKey = []byte("fakebackend-signing-key")

type userKey struct{}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type loginResponse struct {
	Token        string   `json:"token"`
	RefreshToken string   `json:"refreshToken"`
	TokenType    string   `json:"tokenType"`
	ExpiresIn    int64    `json:"expiresIn"`
	ID           int64    `json:"id"`
	UserID       int64    `json:"userId"`
	Email        string   `json:"email"`
	Roles        []string `json:"roles"`
}

// issue mints an access token for u. Callers hold b.mu.
func (b *Backend) issue(u *User) (loginResponse, error) {
	now := b.now()
	expiresAt := now.Add(b.tokenLifetime)
	claims := jwt.MapClaims{
		"sub":    u.Email,
		"email":  u.Email,
		"userId": u.ID,
		"roles":  u.Roles,
		"iat":    now.Unix(),
		"exp":    expiresAt.Unix(),
		"jti":    uuid.NewString(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(signingKey)
	if err != nil {
		return loginResponse{}, err
	}
	refresh := uuid.NewString()
	b.tokens[token] = session{userID: u.ID, expiresAt: expiresAt}
	b.refreshTokens[refresh] = u.ID
	return loginResponse{
		Token:        token,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(b.tokenLifetime / time.Second),
		ID:           u.ID,
		UserID:       u.ID,
		Email:        u.Email,
		Roles:        append([]string{}, u.Roles...),
	}, nil
}

func (b *Backend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	var found *User
	for _, u := range b.users {
		if strings.EqualFold(u.Email, req.Username) {
			found = u
			break
		}
	}
	if found == nil || !CheckPasswordHash(req.Password, found.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "Bad credentials")
		return
	}
	resp, err := b.issue(found)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeData(w, resp)
}

func (b *Backend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decode(w, r, &req) {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	id, ok := b.refreshTokens[req.RefreshToken]
	u := b.users[id]
	if !ok || u == nil {
		writeError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	delete(b.refreshTokens, req.RefreshToken)
	resp, err := b.issue(u)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeData(w, resp)
}

func (b *Backend) handleLogout(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	delete(b.tokens, bearer(r))
	b.mu.Unlock()
	writeData(w, nil)
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return h[7:]
	}
	return ""
}

// authenticated rejects requests without a live access token and records the caller.
func (b *Backend) authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		sess, ok := b.tokens[bearer(r)]
		if ok && !b.now().Before(sess.expiresAt) {
			delete(b.tokens, bearer(r))
			ok = false
		}
		u := b.users[sess.userID]
		b.mu.Unlock()
		if !ok || u == nil {
			writeError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), userKey{}, u)))
	}
}

// admin additionally requires ROLE_ADMIN.
func (b *Backend) admin(next http.HandlerFunc) http.HandlerFunc {
	return b.authenticated(func(w http.ResponseWriter, r *http.Request) {
		if !caller(r).HasRole(entities.RoleAdmin) {
			writeError(w, http.StatusForbidden, "Access denied")
			return
		}
		next(w, r)
	})
}

func caller(r *http.Request) *User {
	u, _ := r.Context().Value(userKey{}).(*User)
	return u
}
