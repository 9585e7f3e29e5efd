// Package session holds the console's authentication state for one browser workspace.
package session

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/jrsteele09/go-payment-console/apiclient"
	"github.com/jrsteele09/go-payment-console/entities"
	"github.com/jrsteele09/go-payment-console/internal/errors"
	"github.com/jrsteele09/go-payment-console/internal/utils"
	"github.com/jrsteele09/go-payment-console/metrics"
	"github.com/jrsteele09/go-payment-console/storage"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

// Durable storage keys.
const (
	KeyPersistAuth = "persist:auth"
	KeyToken       = "token"
	KeyExpiration  = "expiration"
)

// Lifecycle topics published on the session bus. Handlers receive the State after the change.
const (
	TopicLogin     = "session:login"
	TopicRefreshed = "session:refreshed"
	TopicLogout    = "session:logout"
	TopicExpired   = "session:expired"
)

const (
	defaultTokenType     = "Bearer"
	defaultLogoutTimeout = 5 * time.Second
	loginFailedMessage   = "Login failed"
	badCredentialsText   = "Invalid username or password"
)

type Store struct {
	mu         sync.Mutex
	state      State
	expiresAt  int64 // epoch ms, 0 when unknown
	generation uint64

	auth    Authenticator
	persist storage.Store
	bus     EventBus.Bus
	metrics *metrics.Metrics

	now           func() time.Time
	logoutTimeout time.Duration
	refreshGroup  singleflight.Group
	background    sync.WaitGroup
}

var _ oauth2.TokenSource = (*Store)(nil)

type Option func(*Store)

func WithNowFunc(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

func WithBus(bus EventBus.Bus) Option {
	return func(s *Store) { s.bus = bus }
}

// WithLogoutTimeout bounds the best-effort server logout call.
func WithLogoutTimeout(d time.Duration) Option {
	return func(s *Store) { s.logoutTimeout = d }
}

// New returns an unauthenticated store. Call Rehydrate to restore a persisted session.
func New(auth Authenticator, persist storage.Store, opts ...Option) *Store {
	s := &Store{
		auth:          auth,
		persist:       persist,
		now:           time.Now,
		logoutTimeout: defaultLogoutTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.bus == nil {
		s.bus = EventBus.New()
	}
	return s
}

// State returns a copy of the current session.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe registers fn, a func(State), for a lifecycle topic.
func (s *Store) Subscribe(topic string, fn func(State)) error {
	return s.bus.Subscribe(topic, fn)
}

// Wait blocks until background server logouts have finished.
func (s *Store) Wait() {
	s.background.Wait()
}

// Rehydrate rebuilds the session from durable storage. Expired or inconsistent
// persisted state collapses to the unauthenticated default and its keys are removed.
func (s *Store) Rehydrate(ctx context.Context) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	restored, expiresAt, ok, err := s.readPersisted(ctx)
	if err != nil {
		return s.state.clone(), errors.Wrap(errors.KindStorage, "session.Rehydrate", "Unable to restore session", err)
	}
	if !ok {
		s.state = State{}
		s.expiresAt = 0
		s.removePersisted(ctx)
		return s.state.clone(), nil
	}

	s.state = restored
	s.expiresAt = expiresAt
	s.generation++
	return s.state.clone(), nil
}

func (s *Store) readPersisted(ctx context.Context) (State, int64, bool, error) {
	token, found, err := s.persist.Get(ctx, KeyToken)
	if err != nil || !found || token == "" {
		return State{}, 0, false, err
	}
	blob, found, err := s.persist.Get(ctx, KeyPersistAuth)
	if err != nil || !found {
		return State{}, 0, false, err
	}
	var p persistedState
	if err := json.Unmarshal([]byte(blob), &p); err != nil {
		log.Warn().Err(err).Msg("discarding unreadable persisted session")
		return State{}, 0, false, nil
	}
	if !p.Authenticated || p.Token != token {
		log.Warn().Msg("discarding persisted session with mismatched token")
		return State{}, 0, false, nil
	}

	restored := p.state()
	raw, found, err := s.persist.Get(ctx, KeyExpiration)
	if err != nil {
		return State{}, 0, false, err
	}
	if !found {
		restored.ExpiresIn = nil
		return restored, 0, true, nil
	}
	expiresAt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Warn().Str("expiration", raw).Msg("discarding persisted session with invalid expiration")
		return State{}, 0, false, nil
	}
	remaining := expiresAt - s.now().UnixMilli()
	if remaining <= 0 {
		log.Info().Msg("persisted session has expired")
		return State{}, 0, false, nil
	}
	restored.ExpiresIn = utils.Ptr(remaining / 1000)
	return restored, expiresAt, true, nil
}

// Login authenticates creds and replaces the whole session on success.
func (s *Store) Login(ctx context.Context, creds Credentials) (State, error) {
	const op = "session.Login"

	if err := entities.Validate(creds); err != nil {
		s.metrics.RecordLogin(false)
		return s.failLogin(ctx, op, err.Error(), err)
	}

	s.mu.Lock()
	s.state.Loading = true
	s.state.Error = ""
	s.mu.Unlock()

	payload, err := s.auth.Login(ctx, creds)
	if err != nil {
		s.metrics.RecordLogin(false)
		fallback := loginFailedMessage
		if apiclient.StatusOf(err) == http.StatusUnauthorized {
			fallback = badCredentialsText
		}
		log.Info().Err(err).Str("username", creds.Username).Msg("login rejected")
		return s.failLogin(ctx, op, apiclient.MessageOr(err, fallback), err)
	}

	s.mu.Lock()
	state, expiresAt := s.fromPayload(payload, nil)
	s.state = state
	s.expiresAt = expiresAt
	s.generation++
	s.writePersisted(ctx)
	result := s.state.clone()
	s.mu.Unlock()

	s.metrics.RecordLogin(true)
	log.Info().Str("username", creds.Username).Strs("roles", result.Roles).Msg("login succeeded")
	s.bus.Publish(TopicLogin, result)
	return result, nil
}

// failLogin records message and drops the credentials. Identity and token type are left as they were.
func (s *Store) failLogin(ctx context.Context, op, message string, cause error) (State, error) {
	s.mu.Lock()
	wasAuthenticated := s.state.Authenticated
	s.state.Loading = false
	s.state.Error = message
	s.state.Authenticated = false
	s.state.Token = ""
	s.state.RefreshToken = ""
	s.state.Roles = nil
	s.state.ExpiresIn = nil
	s.expiresAt = 0
	s.generation++
	s.removePersisted(ctx)
	result := s.state.clone()
	s.mu.Unlock()

	if wasAuthenticated {
		s.bus.Publish(TopicLogout, result)
	}
	return result, errors.Auth(op, message, cause)
}

// fromPayload builds a fresh session from a login or refresh response. Fields the
// payload and token claims leave empty fall back to prev when it is given.
func (s *Store) fromPayload(p *LoginPayload, prev *State) (State, int64) {
	token := p.bearer()
	claims, isJWT := parseClaims(token)
	nowMs := s.now().UnixMilli()

	state := State{
		Authenticated: true,
		Token:         token,
		RefreshToken:  p.RefreshToken,
		TokenType:     p.TokenType,
	}
	if state.TokenType == "" {
		state.TokenType = defaultTokenType
	}

	var expiresAt int64
	switch {
	case p.ExpiresIn != nil:
		expiresAt = nowMs + *p.ExpiresIn*1000
	case isJWT && claims.ExpiresAt != nil:
		expiresAt = *claims.ExpiresAt
	}
	if expiresAt > 0 {
		state.ExpiresIn = utils.Ptr(max(0, expiresAt-nowMs) / 1000)
	}

	identity := Identity{ID: p.ID, UserID: p.UserID, Email: p.Email}
	if identity.Email == "" && isJWT {
		identity.Email = claims.Email
		if identity.Email == "" {
			identity.Email = claims.Subject
		}
	}
	if identity.UserID == 0 && isJWT {
		identity.UserID = claims.UserID
	}
	if identity != (Identity{}) {
		state.Identity = &identity
	}

	switch {
	case len(p.Roles) > 0:
		state.Roles = append([]string{}, p.Roles...)
	case p.Role != "":
		state.Roles = []string{p.Role}
	case isJWT && len(claims.Roles) > 0:
		state.Roles = claims.Roles
	default:
		state.Roles = []string{}
	}

	if prev != nil {
		if state.RefreshToken == "" {
			state.RefreshToken = prev.RefreshToken
		}
		if state.Identity == nil && prev.Identity != nil {
			id := *prev.Identity
			state.Identity = &id
		}
		if len(state.Roles) == 0 {
			state.Roles = append([]string{}, prev.Roles...)
		}
	}
	return state, expiresAt
}

// Logout resets the session and removes the persisted keys. The server-side logout
// runs in the background and its failure never blocks the local reset.
func (s *Store) Logout(ctx context.Context) {
	prev, changed := s.reset(ctx)
	if !changed {
		return
	}
	log.Info().Msg("session logged out")
	s.bus.Publish(TopicLogout, State{})
	s.serverLogout(ctx, prev)
}

func (s *Store) reset(ctx context.Context) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.state
	s.state = State{}
	s.expiresAt = 0
	s.generation++
	s.removePersisted(ctx)
	return prev, prev.Authenticated
}

func (s *Store) serverLogout(ctx context.Context, prev State) {
	if s.auth == nil || prev.Token == "" {
		return
	}
	tok := &oauth2.Token{AccessToken: prev.Token, TokenType: prev.TokenType}
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.logoutTimeout)
		defer cancel()
		if err := s.auth.Logout(ctx, tok); err != nil {
			log.Warn().Err(err).Msg("server logout failed")
		}
	}()
}

func (s *Store) expire(ctx context.Context) {
	prev, changed := s.reset(ctx)
	if changed {
		log.Info().Msg("session expired")
		s.bus.Publish(TopicLogout, State{})
	}
	s.bus.Publish(TopicExpired, State{})
	s.serverLogout(ctx, prev)
}

// CheckExpiration returns the remaining session lifetime in seconds. With no persisted
// expiration it returns the in-memory value, which may be nil. An elapsed session is
// logged out and reported as a session expired error.
func (s *Store) CheckExpiration(ctx context.Context) (*int64, error) {
	const op = "session.CheckExpiration"

	raw, found, err := s.persist.Get(ctx, KeyExpiration)
	if err != nil {
		return s.State().ExpiresIn, errors.Wrap(errors.KindStorage, op, "Unable to read session expiration", err)
	}
	if !found {
		return s.State().ExpiresIn, nil
	}
	expiresAt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Warn().Str("expiration", raw).Msg("invalid persisted expiration")
		s.expire(ctx)
		return nil, errors.SessionExpired(op)
	}

	remaining := expiresAt - s.now().UnixMilli()
	if remaining <= 0 {
		s.expire(ctx)
		return nil, errors.SessionExpired(op)
	}

	seconds := remaining / 1000
	s.mu.Lock()
	if s.state.Authenticated {
		s.state.ExpiresIn = utils.Ptr(seconds)
	}
	s.mu.Unlock()
	return utils.Ptr(seconds), nil
}

// Refresh exchanges the refresh token for new credentials. Concurrent callers share one
// backend call, which is not cancelled with the first caller's ctx. A rejected refresh token
// logs the session out. Other failures leave the session as it was.
func (s *Store) Refresh(ctx context.Context) (State, error) {
	shared := context.WithoutCancel(ctx)
	v, err, _ := s.refreshGroup.Do("refresh", func() (any, error) {
		return s.refresh(shared)
	})
	if err != nil {
		return State{}, err
	}
	return v.(State).clone(), nil
}

func (s *Store) refresh(ctx context.Context) (State, error) {
	const op = "session.Refresh"

	s.mu.Lock()
	prev := s.state.clone()
	gen := s.generation
	s.mu.Unlock()

	if !prev.Authenticated || prev.RefreshToken == "" {
		s.expire(ctx)
		return State{}, errors.SessionExpired(op)
	}

	payload, err := s.auth.Refresh(ctx, prev.RefreshToken)
	if err != nil {
		switch apiclient.StatusOf(err) {
		case http.StatusBadRequest, http.StatusUnauthorized:
			log.Warn().Err(err).Msg("refresh token rejected")
			s.expire(ctx)
			return State{}, errors.SessionExpired(op)
		}
		log.Warn().Err(err).Msg("token refresh failed")
		return State{}, errors.Fetch(op, apiclient.MessageOr(err, "Unable to refresh session"), err)
	}

	s.mu.Lock()
	if s.generation != gen {
		current := s.state.clone()
		s.mu.Unlock()
		log.Debug().Msg("discarding refresh for a replaced session")
		return current, nil
	}
	state, expiresAt := s.fromPayload(payload, &prev)
	s.state = state
	s.expiresAt = expiresAt
	s.generation++
	s.writePersisted(ctx)
	result := s.state.clone()
	s.mu.Unlock()

	s.bus.Publish(TopicRefreshed, result)
	return result, nil
}

// Token implements oauth2.TokenSource for the request client.
func (s *Store) Token() (*oauth2.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.Authenticated {
		return nil, errors.ErrNotAuthenticated
	}
	tok := &oauth2.Token{
		AccessToken:  s.state.Token,
		TokenType:    s.state.TokenType,
		RefreshToken: s.state.RefreshToken,
	}
	if s.expiresAt > 0 {
		tok.Expiry = time.UnixMilli(s.expiresAt)
	}
	return tok, nil
}

// writePersisted must be called with mu held.
func (s *Store) writePersisted(ctx context.Context) {
	blob, err := json.Marshal(toPersisted(s.state))
	if err != nil {
		log.Err(err).Msg("unable to encode session")
		return
	}
	if err := s.persist.Set(ctx, KeyPersistAuth, string(blob)); err != nil {
		log.Err(err).Msg("unable to persist session")
	}
	if err := s.persist.Set(ctx, KeyToken, s.state.Token); err != nil {
		log.Err(err).Msg("unable to persist token")
	}
	if s.expiresAt > 0 {
		err = s.persist.Set(ctx, KeyExpiration, strconv.FormatInt(s.expiresAt, 10))
	} else {
		err = s.persist.Delete(ctx, KeyExpiration)
	}
	if err != nil {
		log.Err(err).Msg("unable to persist session expiration")
	}
}

// removePersisted must be called with mu held.
func (s *Store) removePersisted(ctx context.Context) {
	if err := s.persist.Delete(ctx, KeyPersistAuth, KeyToken, KeyExpiration); err != nil {
		log.Err(err).Msg("unable to remove persisted session")
	}
}
