package console

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-payment-console/apiclient"
	"github.com/jrsteele09/go-payment-console/cache"
	"github.com/jrsteele09/go-payment-console/entities"
	"github.com/jrsteele09/go-payment-console/internal/errors"
	"github.com/jrsteele09/go-payment-console/ui"
)

func listFetcher[E any](api API, path, fallback string) cache.Fetcher[E] {
	return func(ctx context.Context, _ any) (cache.Page[E], error) {
		var items []E
		if err := api.Get(ctx, path, &items); err != nil {
			return cache.Page[E]{}, errors.Fetch(path, apiclient.MessageOr(err, fallback), err)
		}
		return cache.Page[E]{Items: items}, nil
	}
}

// queryFetcher posts the slice's query and reads a paginated envelope.
func queryFetcher[E any](api API, path, fallback string) cache.Fetcher[E] {
	return func(ctx context.Context, query any) (cache.Page[E], error) {
		var page apiclient.Page[E]
		if _, err := api.Do(ctx, http.MethodPost, path, query, &page); err != nil {
			return cache.Page[E]{}, errors.Fetch(path, apiclient.MessageOr(err, fallback), err)
		}
		return cache.Page[E]{
			Items: page.Content,
			Pagination: &cache.Pagination{
				Page:          page.Page,
				Size:          page.Size,
				TotalElements: page.TotalElements,
				TotalPages:    page.TotalPages,
			},
		}, nil
	}
}

// fetchInto runs a slice fetch and toasts its failure. Superseded fetches are silent.
func fetchInto[E cache.Identifiable](ctx context.Context, s *Store, slice *cache.Slice[E], query any) ([]E, error) {
	items, err := slice.FetchAll(ctx, query)
	if err != nil && !errors.Is(err, cache.ErrSuperseded) {
		s.ui.ShowToast(errors.Message(err), ui.SeverityError)
	}
	return items, err
}

func (s *Store) FetchClients(ctx context.Context) ([]entities.Client, error) {
	return fetchInto(ctx, s, s.clients, nil)
}

func (s *Store) FetchAccounts(ctx context.Context) ([]entities.Account, error) {
	return fetchInto(ctx, s, s.accounts, nil)
}

func (s *Store) FetchRoles(ctx context.Context) ([]entities.Role, error) {
	return fetchInto(ctx, s, s.roles, nil)
}

func (s *Store) FetchPackages(ctx context.Context) ([]entities.Package, error) {
	return fetchInto(ctx, s, s.packages, nil)
}

// FetchTransactions loads the transaction list. A nil query reuses the previous one.
func (s *Store) FetchTransactions(ctx context.Context, query *entities.TransactionQuery) ([]entities.Transaction, error) {
	return fetchInto(ctx, s, s.transactions, queryArg(query))
}

func (s *Store) FetchReports(ctx context.Context, query *entities.TransactionQuery) ([]entities.Transaction, error) {
	return fetchInto(ctx, s, s.reports, queryArg(query))
}

func queryArg(q *entities.TransactionQuery) any {
	if q == nil {
		return nil
	}
	query := *q
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Size <= 0 {
		query.Size = entities.DefaultTransactionQuery().Size
	}
	return query
}

// FetchBalance loads the signed-in client's balance and commission.
func (s *Store) FetchBalance(ctx context.Context) (*entities.Balance, error) {
	var balance entities.Balance
	if err := s.api.Get(ctx, apiclient.EndpointBalance, &balance); err != nil {
		msg := apiclient.MessageOr(err, "Loading balance failed")
		s.ui.ShowToast(msg, ui.SeverityError)
		return nil, errors.Fetch("balance.fetch", msg, err)
	}
	s.mu.Lock()
	s.balance = &balance
	s.mu.Unlock()
	return s.Balance(), nil
}

// LoadTransaction fetches one transaction, caches it and makes it the selection.
func (s *Store) LoadTransaction(ctx context.Context, id int64) (entities.Transaction, error) {
	var tx entities.Transaction
	if err := s.api.Get(ctx, apiclient.Path(apiclient.EndpointTransaction, id), &tx); err != nil {
		msg := apiclient.MessageOr(err, "Failed to load transaction!")
		s.ui.ShowToast(msg, ui.SeverityError)
		return entities.Transaction{}, errors.Fetch("transactions.get", msg, err)
	}
	s.transactions.AddLocal(tx)
	s.transactions.Select(tx.ID)
	return tx, nil
}

// LoadDashboard reads the aggregate for period: today, week, month or year.
func (s *Store) LoadDashboard(ctx context.Context, period string) (entities.Dashboard, error) {
	const op = "dashboard.load"
	if !entities.ValidPeriod(period) {
		err := errors.New(errors.KindValidation, op, "Unknown period: "+period)
		s.ui.ShowToast(err.Message, ui.SeverityError)
		return entities.Dashboard{}, err
	}

	done := s.ui.BeginLoading()
	defer done()

	var dashboard entities.Dashboard
	if err := s.api.Get(ctx, apiclient.DashboardPath(period), &dashboard); err != nil {
		msg := apiclient.MessageOr(err, "Something went wrong!")
		s.ui.ShowToast(msg, ui.SeverityError)
		return entities.Dashboard{}, errors.Fetch(op, msg, err)
	}
	if dashboard.RecentTransactions == nil {
		dashboard.RecentTransactions = []entities.Transaction{}
	}
	return dashboard, nil
}
