package session_test

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/go-payment-console/apiclient"
	"github.com/jrsteele09/go-payment-console/internal/errors"
	"github.com/jrsteele09/go-payment-console/internal/utils"
	"github.com/jrsteele09/go-payment-console/session"
	"github.com/jrsteele09/go-payment-console/storage"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

type stubAuthenticator struct {
	mu           sync.Mutex
	loginFn      func(session.Credentials) (*session.LoginPayload, error)
	refreshFn    func(string) (*session.LoginPayload, error)
	logoutErr    error
	loginCalls   int
	refreshCalls atomic.Int32
	loggedOut    []string
}

func (a *stubAuthenticator) Login(_ context.Context, creds session.Credentials) (*session.LoginPayload, error) {
	a.mu.Lock()
	a.loginCalls++
	fn := a.loginFn
	a.mu.Unlock()
	return fn(creds)
}

func (a *stubAuthenticator) Refresh(ctx context.Context, refreshToken string) (*session.LoginPayload, error) {
	a.refreshCalls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return a.refreshFn(refreshToken)
}

func (a *stubAuthenticator) Logout(_ context.Context, tok *oauth2.Token) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.loggedOut = append(a.loggedOut, tok.AccessToken)
	return a.logoutErr
}

type testFixture struct {
	ctx     context.Context
	now     time.Time
	auth    *stubAuthenticator
	persist storage.Store
	store   *session.Store
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	f := &testFixture{
		ctx:     context.Background(),
		now:     time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		persist: storage.NewMemory(),
	}
	f.auth = &stubAuthenticator{
		loginFn: func(session.Credentials) (*session.LoginPayload, error) {
			return &session.LoginPayload{Token: "t1", ExpiresIn: utils.Ptr[int64](3600), Roles: []string{"ROLE_ADMIN"}}, nil
		},
	}
	f.store = session.New(f.auth, f.persist, session.WithNowFunc(func() time.Time { return f.now }))
	return f
}

var adminCreds = session.Credentials{Username: "admin@x.com", Password: "password1"}

func (f *testFixture) persisted(t *testing.T, key string) (string, bool) {
	t.Helper()
	v, found, err := f.persist.Get(f.ctx, key)
	require.NoError(t, err)
	return v, found
}

func requireInvariant(t *testing.T, s session.State) {
	t.Helper()
	require.Equal(t, s.Token != "", s.IsAuthenticated())
	if !s.IsAuthenticated() {
		require.Nil(t, s.Roles)
	}
}

func requireLoggedOut(t *testing.T, f *testFixture) {
	t.Helper()
	require.Equal(t, session.State{}, f.store.State())
	for _, key := range []string{session.KeyPersistAuth, session.KeyToken, session.KeyExpiration} {
		_, found := f.persisted(t, key)
		require.False(t, found, key)
	}
}

func TestLogin(t *testing.T) {
	t.Run("successful login populates and persists the session", func(t *testing.T) {
		f := setupTestFixture(t)

		state, err := f.store.Login(f.ctx, adminCreds)
		require.NoError(t, err)
		require.True(t, state.IsAuthenticated())
		require.Equal(t, []string{"ROLE_ADMIN"}, state.Roles)
		require.Equal(t, "Bearer", state.TokenType)
		require.Equal(t, int64(3600), *state.ExpiresIn)
		require.False(t, state.Loading)

		expiration, found := f.persisted(t, session.KeyExpiration)
		require.True(t, found)
		require.Equal(t, strconv.FormatInt(f.now.UnixMilli()+3_600_000, 10), expiration)
		token, _ := f.persisted(t, session.KeyToken)
		require.Equal(t, "t1", token)
		_, found = f.persisted(t, session.KeyPersistAuth)
		require.True(t, found)
	})

	t.Run("login overwrites an existing session", func(t *testing.T) {
		f := setupTestFixture(t)
		f.auth.loginFn = func(session.Credentials) (*session.LoginPayload, error) {
			return &session.LoginPayload{Token: "t1", RefreshToken: "r1", Email: "admin@x.com", Roles: []string{"ROLE_ADMIN"}}, nil
		}
		_, err := f.store.Login(f.ctx, adminCreds)
		require.NoError(t, err)

		f.auth.loginFn = func(session.Credentials) (*session.LoginPayload, error) {
			return &session.LoginPayload{AccessToken: "t2", Role: "ROLE_CLIENT"}, nil
		}
		state, err := f.store.Login(f.ctx, session.Credentials{Username: "client@x.com", Password: "password2"})
		require.NoError(t, err)
		require.Equal(t, "t2", state.Token)
		require.Empty(t, state.RefreshToken)
		require.Nil(t, state.Identity)
		require.Nil(t, state.ExpiresIn)
		require.Equal(t, []string{"ROLE_CLIENT"}, state.Roles)
		_, found := f.persisted(t, session.KeyExpiration)
		require.False(t, found)
	})

	t.Run("rejected login keeps identity and clears credentials", func(t *testing.T) {
		f := setupTestFixture(t)
		f.auth.loginFn = func(session.Credentials) (*session.LoginPayload, error) {
			return &session.LoginPayload{Token: "t1", Email: "admin@x.com", Roles: []string{"ROLE_ADMIN"}}, nil
		}
		_, err := f.store.Login(f.ctx, adminCreds)
		require.NoError(t, err)

		f.auth.loginFn = func(session.Credentials) (*session.LoginPayload, error) {
			return nil, &apiclient.Error{Status: 401, Message: "Bad credentials"}
		}
		state, err := f.store.Login(f.ctx, adminCreds)
		require.Error(t, err)
		require.True(t, errors.IsKind(err, errors.KindAuth))
		require.Equal(t, "Bad credentials", state.Error)
		require.False(t, state.IsAuthenticated())
		require.Empty(t, state.Token)
		require.NotNil(t, state.Identity)
		require.Equal(t, "admin@x.com", state.Identity.Email)
		requireInvariant(t, state)
		_, found := f.persisted(t, session.KeyToken)
		require.False(t, found)
	})

	t.Run("rejection without a backend message uses a fallback", func(t *testing.T) {
		f := setupTestFixture(t)
		f.auth.loginFn = func(session.Credentials) (*session.LoginPayload, error) {
			return nil, &apiclient.Error{Status: 401}
		}
		state, err := f.store.Login(f.ctx, adminCreds)
		require.Error(t, err)
		require.Equal(t, "Invalid username or password", state.Error)
		require.Equal(t, "Invalid username or password", errors.Message(err))
	})

	t.Run("invalid credentials never reach the backend", func(t *testing.T) {
		f := setupTestFixture(t)
		state, err := f.store.Login(f.ctx, session.Credentials{Username: "admin", Password: "password1"})
		require.Error(t, err)
		require.True(t, errors.IsKind(err, errors.KindAuth))
		require.Equal(t, "Invalid email", state.Error)

		_, err = f.store.Login(f.ctx, session.Credentials{Username: "admin@x.com", Password: "short"})
		require.Equal(t, "Password must be at least 8 characters", errors.Message(err))
		require.Zero(t, f.auth.loginCalls)
	})

	t.Run("claims fill in missing payload fields", func(t *testing.T) {
		f := setupTestFixture(t)
		exp := f.now.Add(30 * time.Minute)
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"sub":         "client@x.com",
			"exp":         exp.Unix(),
			"userId":      42,
			"authorities": []string{"ROLE_CLIENT", "READ"},
		}).SignedString([]byte("backend-secret"))
		require.NoError(t, err)
		f.auth.loginFn = func(session.Credentials) (*session.LoginPayload, error) {
			return &session.LoginPayload{AccessToken: token, TokenType: "bearer"}, nil
		}

		state, err := f.store.Login(f.ctx, adminCreds)
		require.NoError(t, err)
		require.Equal(t, []string{"ROLE_CLIENT", "READ"}, state.Roles)
		require.Equal(t, int64(1800), *state.ExpiresIn)
		require.Equal(t, &session.Identity{UserID: 42, Email: "client@x.com"}, state.Identity)
		require.True(t, state.HasRole("ROLE_CLIENT"))
		require.False(t, state.HasRole("ROLE_ADMIN"))
	})
}

func TestAuthInvariantAcrossLifecycle(t *testing.T) {
	f := setupTestFixture(t)
	fail := func(session.Credentials) (*session.LoginPayload, error) {
		return nil, &apiclient.Error{Status: 500}
	}
	succeed := f.auth.loginFn

	steps := []func(){
		func() { _, _ = f.store.Login(f.ctx, adminCreds) },
		func() { f.store.Logout(f.ctx) },
		func() { f.store.Logout(f.ctx) },
		func() { f.auth.loginFn = fail; _, _ = f.store.Login(f.ctx, adminCreds) },
		func() { f.auth.loginFn = succeed; _, _ = f.store.Login(f.ctx, adminCreds) },
		func() { _, _ = f.store.Login(f.ctx, adminCreds) },
		func() { f.auth.loginFn = fail; _, _ = f.store.Login(f.ctx, adminCreds) },
		func() { f.store.Logout(f.ctx) },
	}
	for _, step := range steps {
		step()
		requireInvariant(t, f.store.State())
	}
	f.store.Wait()
}

func TestLogout(t *testing.T) {
	t.Run("resets state, removes keys and calls the backend with the old token", func(t *testing.T) {
		f := setupTestFixture(t)
		var events []string
		require.NoError(t, f.store.Subscribe(session.TopicLogout, func(s session.State) {
			events = append(events, "logout")
			require.False(t, s.IsAuthenticated())
		}))

		_, err := f.store.Login(f.ctx, adminCreds)
		require.NoError(t, err)
		f.store.Logout(f.ctx)
		f.store.Logout(f.ctx)
		f.store.Wait()

		requireLoggedOut(t, f)
		require.Equal(t, []string{"logout"}, events)
		require.Equal(t, []string{"t1"}, f.auth.loggedOut)
	})

	t.Run("server logout failure does not block local logout", func(t *testing.T) {
		f := setupTestFixture(t)
		f.auth.logoutErr = &apiclient.Error{Status: 503}
		_, err := f.store.Login(f.ctx, adminCreds)
		require.NoError(t, err)

		f.store.Logout(f.ctx)
		requireLoggedOut(t, f)
		f.store.Wait()
	})
}

func TestCheckExpiration(t *testing.T) {
	t.Run("no persisted state returns the in-memory value", func(t *testing.T) {
		f := setupTestFixture(t)
		remaining, err := f.store.CheckExpiration(f.ctx)
		require.NoError(t, err)
		require.Nil(t, remaining)
	})

	t.Run("returns remaining seconds", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.store.Login(f.ctx, adminCreds)
		require.NoError(t, err)

		f.now = f.now.Add(10 * time.Minute)
		remaining, err := f.store.CheckExpiration(f.ctx)
		require.NoError(t, err)
		require.Equal(t, int64(3000), *remaining)
		require.Equal(t, int64(3000), *f.store.State().ExpiresIn)
	})

	t.Run("elapsed expiration forces logout", func(t *testing.T) {
		f := setupTestFixture(t)
		expired := 0
		require.NoError(t, f.store.Subscribe(session.TopicExpired, func(session.State) { expired++ }))
		_, err := f.store.Login(f.ctx, adminCreds)
		require.NoError(t, err)

		require.NoError(t, f.persist.Set(f.ctx, session.KeyExpiration, strconv.FormatInt(f.now.UnixMilli()-1000, 10)))
		remaining, err := f.store.CheckExpiration(f.ctx)
		require.Nil(t, remaining)
		require.True(t, errors.Is(err, errors.ErrSessionExpired))
		require.True(t, errors.IsKind(err, errors.KindSessionExpired))
		require.Equal(t, 1, expired)
		requireLoggedOut(t, f)
		f.store.Wait()
	})

	t.Run("expiry is reached exactly at the timestamp", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.store.Login(f.ctx, adminCreds)
		require.NoError(t, err)

		f.now = f.now.Add(time.Hour)
		_, err = f.store.CheckExpiration(f.ctx)
		require.True(t, errors.IsKind(err, errors.KindSessionExpired))
		requireLoggedOut(t, f)
		f.store.Wait()
	})
}

func TestRehydrate(t *testing.T) {
	t.Run("restores a persisted session", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.store.Login(f.ctx, adminCreds)
		require.NoError(t, err)

		f.now = f.now.Add(time.Minute)
		reloaded := session.New(f.auth, f.persist, session.WithNowFunc(func() time.Time { return f.now }))
		state, err := reloaded.Rehydrate(f.ctx)
		require.NoError(t, err)
		require.True(t, state.IsAuthenticated())
		require.Equal(t, "t1", state.Token)
		require.Equal(t, []string{"ROLE_ADMIN"}, state.Roles)
		require.Equal(t, int64(3540), *state.ExpiresIn)

		tok, err := reloaded.Token()
		require.NoError(t, err)
		require.Equal(t, "t1", tok.AccessToken)
		require.Equal(t, f.now.Add(59*time.Minute).UnixMilli(), tok.Expiry.UnixMilli())
	})

	t.Run("expired persisted session collapses to default", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.store.Login(f.ctx, adminCreds)
		require.NoError(t, err)

		f.now = f.now.Add(2 * time.Hour)
		reloaded := session.New(f.auth, f.persist, session.WithNowFunc(func() time.Time { return f.now }))
		state, err := reloaded.Rehydrate(f.ctx)
		require.NoError(t, err)
		require.Equal(t, session.State{}, state)
		_, found := f.persisted(t, session.KeyToken)
		require.False(t, found)
	})

	t.Run("token mismatch is rejected", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.store.Login(f.ctx, adminCreds)
		require.NoError(t, err)
		require.NoError(t, f.persist.Set(f.ctx, session.KeyToken, "tampered"))

		state, err := f.store.Rehydrate(f.ctx)
		require.NoError(t, err)
		require.False(t, state.IsAuthenticated())
		requireInvariant(t, state)
	})

	t.Run("nothing persisted", func(t *testing.T) {
		f := setupTestFixture(t)
		state, err := f.store.Rehydrate(f.ctx)
		require.NoError(t, err)
		require.Equal(t, session.State{}, state)
		_, err = f.store.Token()
		require.ErrorIs(t, err, errors.ErrNotAuthenticated)
	})
}

func TestRefresh(t *testing.T) {
	t.Run("replaces credentials and keeps identity", func(t *testing.T) {
		f := setupTestFixture(t)
		f.auth.loginFn = func(session.Credentials) (*session.LoginPayload, error) {
			return &session.LoginPayload{Token: "t1", RefreshToken: "r1", Email: "admin@x.com", Roles: []string{"ROLE_ADMIN"}, ExpiresIn: utils.Ptr[int64](60)}, nil
		}
		f.auth.refreshFn = func(rt string) (*session.LoginPayload, error) {
			require.Equal(t, "r1", rt)
			return &session.LoginPayload{Token: "t2", ExpiresIn: utils.Ptr[int64](3600)}, nil
		}
		_, err := f.store.Login(f.ctx, adminCreds)
		require.NoError(t, err)

		state, err := f.store.Refresh(f.ctx)
		require.NoError(t, err)
		require.Equal(t, "t2", state.Token)
		require.Equal(t, "r1", state.RefreshToken)
		require.Equal(t, "admin@x.com", state.Identity.Email)
		require.Equal(t, []string{"ROLE_ADMIN"}, state.Roles)
		token, _ := f.persisted(t, session.KeyToken)
		require.Equal(t, "t2", token)
	})

	t.Run("concurrent callers share one backend call", func(t *testing.T) {
		f := setupTestFixture(t)
		release := make(chan struct{})
		f.auth.loginFn = func(session.Credentials) (*session.LoginPayload, error) {
			return &session.LoginPayload{Token: "t1", RefreshToken: "r1"}, nil
		}
		f.auth.refreshFn = func(string) (*session.LoginPayload, error) {
			<-release
			return &session.LoginPayload{Token: "t2"}, nil
		}
		_, err := f.store.Login(f.ctx, adminCreds)
		require.NoError(t, err)

		var wg sync.WaitGroup
		tokens := make([]string, 5)
		for i := range tokens {
			wg.Add(1)
			go func() {
				defer wg.Done()
				s, err := f.store.Refresh(f.ctx)
				if err == nil {
					tokens[i] = s.Token
				}
			}()
		}
		require.Eventually(t, func() bool { return f.auth.refreshCalls.Load() == 1 }, time.Second, time.Millisecond)
		time.Sleep(50 * time.Millisecond)
		close(release)
		wg.Wait()

		require.Equal(t, int32(1), f.auth.refreshCalls.Load())
		require.Equal(t, []string{"t2", "t2", "t2", "t2", "t2"}, tokens)
	})

	t.Run("failure logs out", func(t *testing.T) {
		f := setupTestFixture(t)
		f.auth.loginFn = func(session.Credentials) (*session.LoginPayload, error) {
			return &session.LoginPayload{Token: "t1", RefreshToken: "r1"}, nil
		}
		f.auth.refreshFn = func(string) (*session.LoginPayload, error) {
			return nil, &apiclient.Error{Status: 401}
		}
		_, err := f.store.Login(f.ctx, adminCreds)
		require.NoError(t, err)

		_, err = f.store.Refresh(f.ctx)
		require.True(t, errors.IsKind(err, errors.KindSessionExpired))
		requireLoggedOut(t, f)
		f.store.Wait()
	})

	t.Run("transport failure keeps the session", func(t *testing.T) {
		f := setupTestFixture(t)
		f.auth.loginFn = func(session.Credentials) (*session.LoginPayload, error) {
			return &session.LoginPayload{Token: "t1", RefreshToken: "r1"}, nil
		}
		f.auth.refreshFn = func(string) (*session.LoginPayload, error) {
			return nil, &apiclient.Error{Status: http.StatusBadGateway}
		}
		_, err := f.store.Login(f.ctx, adminCreds)
		require.NoError(t, err)

		_, err = f.store.Refresh(f.ctx)
		require.True(t, errors.IsKind(err, errors.KindFetch))
		state := f.store.State()
		require.True(t, state.Authenticated)
		require.Equal(t, "t1", state.Token)
		token, found := f.persisted(t, session.KeyToken)
		require.True(t, found)
		require.Equal(t, "t1", token)
	})

	t.Run("cancelled caller does not end the session", func(t *testing.T) {
		f := setupTestFixture(t)
		f.auth.loginFn = func(session.Credentials) (*session.LoginPayload, error) {
			return &session.LoginPayload{Token: "t1", RefreshToken: "r1"}, nil
		}
		f.auth.refreshFn = func(string) (*session.LoginPayload, error) {
			return &session.LoginPayload{Token: "t2"}, nil
		}
		_, err := f.store.Login(f.ctx, adminCreds)
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(f.ctx)
		cancel()
		state, err := f.store.Refresh(ctx)
		require.NoError(t, err)
		require.Equal(t, "t2", state.Token)
	})

	t.Run("without a refresh token", func(t *testing.T) {
		f := setupTestFixture(t)
		_, err := f.store.Refresh(f.ctx)
		require.True(t, errors.IsKind(err, errors.KindSessionExpired))
		require.Zero(t, f.auth.refreshCalls.Load())
	})
}
