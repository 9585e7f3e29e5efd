package session

import (
	"slices"

	"github.com/jrsteele09/go-payment-console/internal/utils"
)

// Identity is the authenticated user as reported by the backend.
type Identity struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"userId"`
	Email  string `json:"email"`
}

// State is the session value. Authenticated is true exactly when Token is set,
// and Roles is nil whenever the session is unauthenticated.
type State struct {
	Authenticated bool      `json:"isAuthenticated"`
	Token         string    `json:"token,omitempty"`
	RefreshToken  string    `json:"refreshToken,omitempty"`
	TokenType     string    `json:"tokenType,omitempty"`
	ExpiresIn     *int64    `json:"expiresIn"`
	Identity      *Identity `json:"identity"`
	Roles         []string  `json:"roles"`
	Loading       bool      `json:"loading"`
	Error         string    `json:"error,omitempty"`
}

func (s State) IsAuthenticated() bool {
	return s.Authenticated
}

func (s State) HasRole(role string) bool {
	return slices.Contains(s.Roles, role)
}

func (s State) clone() State {
	c := s
	if s.Roles != nil {
		c.Roles = slices.Clone(s.Roles)
	}
	if s.ExpiresIn != nil {
		c.ExpiresIn = utils.Ptr(*s.ExpiresIn)
	}
	if s.Identity != nil {
		id := *s.Identity
		c.Identity = &id
	}
	return c
}

// persistedState is the durable form of State, without the transient loading and error fields.
type persistedState struct {
	Authenticated bool      `json:"isAuthenticated"`
	Token         string    `json:"token"`
	RefreshToken  string    `json:"refreshToken,omitempty"`
	TokenType     string    `json:"tokenType,omitempty"`
	ExpiresIn     *int64    `json:"expiresIn,omitempty"`
	Identity      *Identity `json:"identity,omitempty"`
	Roles         []string  `json:"roles"`
}

func toPersisted(s State) persistedState {
	return persistedState{
		Authenticated: s.Authenticated,
		Token:         s.Token,
		RefreshToken:  s.RefreshToken,
		TokenType:     s.TokenType,
		ExpiresIn:     s.ExpiresIn,
		Identity:      s.Identity,
		Roles:         s.Roles,
	}
}

func (p persistedState) state() State {
	roles := p.Roles
	if roles == nil {
		roles = []string{}
	}
	return State{
		Authenticated: true,
		Token:         p.Token,
		RefreshToken:  p.RefreshToken,
		TokenType:     p.TokenType,
		ExpiresIn:     p.ExpiresIn,
		Identity:      p.Identity,
		Roles:         roles,
	}
}
