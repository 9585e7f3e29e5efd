// Package console is the injected root store for one browser workspace: the session,
// UI signals and entity caches, plus the actions views dispatch against them.
package console

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/jrsteele09/go-payment-console/apiclient"
	"github.com/jrsteele09/go-payment-console/cache"
	"github.com/jrsteele09/go-payment-console/entities"
	"github.com/jrsteele09/go-payment-console/metrics"
	"github.com/jrsteele09/go-payment-console/session"
	"github.com/jrsteele09/go-payment-console/ui"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// API is the request client surface the console uses.
type API interface {
	Do(ctx context.Context, method, path string, body, out any) (int, error)
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Put(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string) error
	Upload(ctx context.Context, path, field, filename string, r io.Reader, out any) error
	Download(ctx context.Context, path string) ([]byte, string, error)
}

var _ API = (*apiclient.Client)(nil)

type Store struct {
	api     API
	session *session.Store
	ui      *ui.Store
	metrics *metrics.Metrics
	now     func() time.Time

	clients      *cache.Slice[entities.Client]
	accounts     *cache.Slice[entities.Account]
	roles        *cache.Slice[entities.Role]
	packages     *cache.Slice[entities.Package]
	transactions *cache.Slice[entities.Transaction]
	reports      *cache.Slice[entities.Transaction]

	mu      sync.RWMutex
	balance *entities.Balance
	profile *entities.Profile
}

type Option func(*Store)

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

func WithNowFunc(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func WithUI(u *ui.Store) Option {
	return func(s *Store) { s.ui = u }
}

// New wires the caches to api and resets them whenever sess logs out or expires.
func New(api API, sess *session.Store, opts ...Option) (*Store, error) {
	s := &Store{
		api:     api,
		session: sess,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ui == nil {
		s.ui = ui.New()
	}

	withMetrics := cache.WithMetrics(s.metrics)
	s.clients = cache.New("clients", listFetcher[entities.Client](api, apiclient.EndpointClients, "Loading clients failed"), withMetrics)
	s.accounts = cache.New("accounts", listFetcher[entities.Account](api, apiclient.EndpointAccounts, "Loading Accounts failed"), withMetrics)
	s.roles = cache.New("roles", listFetcher[entities.Role](api, apiclient.EndpointRoles, "Loading roles failed"), withMetrics)
	s.packages = cache.New("packages", listFetcher[entities.Package](api, apiclient.EndpointPackages, "Loading packages failed"), withMetrics)
	s.transactions = cache.New("transactions", queryFetcher[entities.Transaction](api, apiclient.EndpointTransactionsQuery, "Loading transactions failed"),
		withMetrics, cache.WithQuery(entities.DefaultTransactionQuery()))
	s.reports = cache.New("reports", queryFetcher[entities.Transaction](api, apiclient.EndpointTransactionsQuery, "Loading Reports failed"),
		withMetrics, cache.WithQuery(entities.DefaultTransactionQuery()))

	for _, topic := range []string{session.TopicLogout, session.TopicExpired} {
		if err := sess.Subscribe(topic, s.onSessionEnded); err != nil {
			return nil, errors.Wrapf(err, "[New] subscribe %s", topic)
		}
	}
	return s, nil
}

func (s *Store) onSessionEnded(session.State) {
	s.Reset()
}

// Reset drops every cached entity, the balance and the profile.
func (s *Store) Reset() {
	s.clients.Reset()
	s.accounts.Reset()
	s.roles.Reset()
	s.packages.Reset()
	s.transactions.Reset()
	s.reports.Reset()

	s.mu.Lock()
	s.balance = nil
	s.profile = nil
	s.mu.Unlock()
	log.Debug().Msg("console caches reset")
}

func (s *Store) Session() *session.Store                          { return s.session }
func (s *Store) UI() *ui.Store                                    { return s.ui }
func (s *Store) Clients() *cache.Slice[entities.Client]           { return s.clients }
func (s *Store) Accounts() *cache.Slice[entities.Account]         { return s.accounts }
func (s *Store) Roles() *cache.Slice[entities.Role]               { return s.roles }
func (s *Store) Packages() *cache.Slice[entities.Package]         { return s.packages }
func (s *Store) Transactions() *cache.Slice[entities.Transaction] { return s.transactions }
func (s *Store) Reports() *cache.Slice[entities.Transaction]      { return s.reports }

func (s *Store) Balance() *entities.Balance {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.balance == nil {
		return nil
	}
	b := *s.balance
	return &b
}

func (s *Store) Profile() *entities.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return nil
	}
	p := *s.profile
	return &p
}
