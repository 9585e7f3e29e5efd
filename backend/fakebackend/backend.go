// Package fakebackend is an in-process stand-in for the payment REST backend.
package fakebackend

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-payment-console/entities"
)

type session struct {
	userID    int64
	expiresAt time.Time
}

type failure struct {
	status  int
	message string
}

type Backend struct {
	mux *http.ServeMux

	mu            sync.Mutex
	now           func() time.Time
	tokenLifetime time.Duration
	nextID        int64
	users         map[int64]*User
	tokens        map[string]session
	refreshTokens map[string]int64
	clients       map[int64]entities.Client
	accounts      map[int64]entities.Account
	packages      map[int64]entities.Package
	roles         []entities.Role
	transactions  map[int64]entities.Transaction
	qrImages      map[int64]qrImage
	failNext      map[string]failure
	calls         map[string]int
}

type qrImage struct {
	data        []byte
	contentType string
}

type Option func(*Backend)

func WithNowFunc(now func() time.Time) Option {
	return func(b *Backend) { b.now = now }
}

func WithTokenLifetime(d time.Duration) Option {
	return func(b *Backend) { b.tokenLifetime = d }
}

func New(opts ...Option) *Backend {
	b := &Backend{
		mux:           http.NewServeMux(),
		now:           time.Now,
		tokenLifetime: time.Hour,
		users:         make(map[int64]*User),
		tokens:        make(map[string]session),
		refreshTokens: make(map[string]int64),
		clients:       make(map[int64]entities.Client),
		accounts:      make(map[int64]entities.Account),
		packages:      make(map[int64]entities.Package),
		transactions:  make(map[int64]entities.Transaction),
		qrImages:      make(map[int64]qrImage),
		failNext:      make(map[string]failure),
		calls:         make(map[string]int),
		roles: []entities.Role{
			{ID: 1, Name: entities.RoleAdmin, Permissions: []string{entities.PermissionRead, entities.PermissionCreate, entities.PermissionUpdate, entities.PermissionDelete}},
			{ID: 2, Name: entities.RoleClient, Permissions: []string{entities.PermissionRead}},
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	b.routes()
	return b
}

// SetTokenLifetime changes the expiresIn of tokens issued from now on.
func (b *Backend) SetTokenLifetime(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokenLifetime = d
}

// FailNext makes the next request matching route (e.g. "GET /clients") fail with status.
// An empty message sends an error body without a message field.
func (b *Backend) FailNext(route string, status int, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failNext[route] = failure{status: status, message: message}
}

// Calls reports how many requests reached route.
func (b *Backend) Calls(route string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[route]
}

// RevokeAll invalidates every issued access and refresh token.
func (b *Backend) RevokeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tokens = make(map[string]session)
	b.refreshTokens = make(map[string]int64)
}

func (b *Backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mux.ServeHTTP(w, r)
}

func (b *Backend) id() int64 {
	b.nextID++
	return b.nextID
}

// AddUser registers a login. Users with ROLE_CLIENT also get a client record.
func (b *Backend) AddUser(email, password, name string, roles ...string) (*User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	u := &User{ID: b.id(), Email: email, Name: name, PasswordHash: hash, Roles: roles}
	if u.HasRole(entities.RoleClient) {
		c := entities.Client{ID: u.ID, Name: name, Email: email, Active: true}
		b.clients[c.ID] = c
		u.ClientID = c.ID
	}
	b.users[u.ID] = u
	return u, nil
}

func (b *Backend) SeedClient(c entities.Client) entities.Client {
	b.mu.Lock()
	defer b.mu.Unlock()
	if c.ID == 0 {
		c.ID = b.id()
	}
	b.clients[c.ID] = c
	return c
}

func (b *Backend) SeedAccount(a entities.Account) entities.Account {
	b.mu.Lock()
	defer b.mu.Unlock()
	if a.ID == 0 {
		a.ID = b.id()
	}
	b.accounts[a.ID] = a
	return a
}

func (b *Backend) SeedTransaction(t entities.Transaction) entities.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	if t.ID == 0 {
		t.ID = b.id()
	}
	if t.Reference == "" {
		t.Reference = "TX-" + strings.ToUpper(uuid.NewString()[:8])
	}
	b.transactions[t.ID] = t
	return t
}

func (b *Backend) Client(id int64) (entities.Client, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.clients[id]
	return c, ok
}

func (b *Backend) Account(id int64) (entities.Account, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	a, ok := b.accounts[id]
	return a, ok
}

func (b *Backend) Transaction(id int64) (entities.Transaction, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t, ok := b.transactions[id]
	return t, ok
}

type envelope struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func writeData(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(envelope{Status: http.StatusOK, Message: "success", Data: data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if message == "" {
		_, _ = w.Write([]byte(`{}`))
		return
	}
	_ = json.NewEncoder(w).Encode(envelope{Status: status, Message: message})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request body")
		return false
	}
	return true
}
