package session

import (
	"context"

	"github.com/jrsteele09/go-payment-console/apiclient"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// Credentials are the login form values.
type Credentials struct {
	Username string `json:"username" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginPayload is the backend's login and refresh response. Token and AccessToken are
// alternative names for the bearer token, as are Roles and Role.
type LoginPayload struct {
	Token        string   `json:"token"`
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	TokenType    string   `json:"tokenType"`
	ExpiresIn    *int64   `json:"expiresIn"`
	ID           int64    `json:"id"`
	UserID       int64    `json:"userId"`
	Email        string   `json:"email"`
	Roles        []string `json:"roles"`
	Role         string   `json:"role"`
}

func (p LoginPayload) bearer() string {
	if p.Token != "" {
		return p.Token
	}
	return p.AccessToken
}

// Authenticator is the backend side of the session lifecycle.
type Authenticator interface {
	Login(ctx context.Context, creds Credentials) (*LoginPayload, error)
	Refresh(ctx context.Context, refreshToken string) (*LoginPayload, error)
	Logout(ctx context.Context, tok *oauth2.Token) error
}

type poster interface {
	Post(ctx context.Context, path string, body, out any) error
}

// APIAuthenticator authenticates against the payment backend's auth endpoints.
type APIAuthenticator struct {
	api poster
}

var _ Authenticator = (*APIAuthenticator)(nil)

func NewAPIAuthenticator(api poster) *APIAuthenticator {
	return &APIAuthenticator{api: api}
}

func (a *APIAuthenticator) Login(ctx context.Context, creds Credentials) (*LoginPayload, error) {
	var payload LoginPayload
	if err := a.api.Post(ctx, apiclient.EndpointLogin, creds, &payload); err != nil {
		return nil, err
	}
	if payload.bearer() == "" {
		return nil, errors.New("[Login] backend returned no token")
	}
	return &payload, nil
}

func (a *APIAuthenticator) Refresh(ctx context.Context, refreshToken string) (*LoginPayload, error) {
	var payload LoginPayload
	body := map[string]string{"refreshToken": refreshToken}
	if err := a.api.Post(ctx, apiclient.EndpointRefresh, body, &payload); err != nil {
		return nil, errors.Wrap(err, "[Refresh] refresh token rejected")
	}
	if payload.bearer() == "" {
		return nil, errors.New("[Refresh] backend returned no token")
	}
	return &payload, nil
}

// Logout tells the backend to drop tok. It runs after the local session is gone, so the
// token is passed explicitly instead of coming from the session.
func (a *APIAuthenticator) Logout(ctx context.Context, tok *oauth2.Token) error {
	return a.api.Post(apiclient.ContextWithToken(ctx, tok), apiclient.EndpointUserLogout, nil, nil)
}
