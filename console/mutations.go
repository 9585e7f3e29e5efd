package console

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-payment-console/apiclient"
	"github.com/jrsteele09/go-payment-console/entities"
	"github.com/jrsteele09/go-payment-console/internal/errors"
	"github.com/jrsteele09/go-payment-console/ui"
	"github.com/rs/zerolog/log"
)

// mutate runs call with the busy indicator on. A failure is toasted and returned as a
// mutation error; the caller applies its local change only when mutate returns nil.
func (s *Store) mutate(ctx context.Context, op, fallback, success string, call func(context.Context) error) error {
	done := s.ui.BeginLoading()
	defer done()

	if err := call(ctx); err != nil {
		msg := apiclient.MessageOr(err, fallback)
		log.Warn().Err(err).Str("op", op).Msg("mutation failed")
		s.ui.ShowToast(msg, ui.SeverityError)
		return errors.Mutation(op, msg, err)
	}
	if success != "" {
		s.ui.ShowToast(success, ui.SeveritySuccess)
	}
	return nil
}

// invalid rejects a form before any network call.
func (s *Store) invalid(op string, err error) error {
	s.ui.ShowToast(err.Error(), ui.SeverityError)
	return errors.Mutation(op, err.Error(), errors.ErrInvalidRequest)
}

func (s *Store) CreateClient(ctx context.Context, c entities.Client) (entities.Client, error) {
	const op = "clients.create"
	if err := entities.Validate(c); err != nil {
		return entities.Client{}, s.invalid(op, err)
	}
	created := c
	err := s.mutate(ctx, op, "Create client failed", "Client created", func(ctx context.Context) error {
		return s.api.Post(ctx, apiclient.EndpointClients, c, &created)
	})
	if err != nil {
		return entities.Client{}, err
	}
	created.Password = ""
	s.clients.AddLocal(created)
	return created, nil
}

func (s *Store) UpdateClient(ctx context.Context, c entities.Client) (entities.Client, error) {
	const op = "clients.update"
	if err := entities.Validate(c); err != nil {
		return entities.Client{}, s.invalid(op, err)
	}
	updated := c
	err := s.mutate(ctx, op, "Update client failed", "Client updated", func(ctx context.Context) error {
		return s.api.Put(ctx, apiclient.EndpointClients, c, &updated)
	})
	if err != nil {
		return entities.Client{}, err
	}
	s.clients.UpdateLocal(updated)
	return updated, nil
}

func (s *Store) DeleteClient(ctx context.Context, id int64) error {
	err := s.mutate(ctx, "clients.delete", "Delete client failed", "Client deleted", func(ctx context.Context) error {
		return s.api.Delete(ctx, apiclient.Path(apiclient.EndpointClient, id))
	})
	if err != nil {
		return err
	}
	s.clients.RemoveLocal(id)
	return nil
}

func (s *Store) CreateAccount(ctx context.Context, a entities.Account) (entities.Account, error) {
	const op = "accounts.create"
	if err := entities.Validate(a); err != nil {
		return entities.Account{}, s.invalid(op, err)
	}
	created := a
	err := s.mutate(ctx, op, "Create account failed", "Account created", func(ctx context.Context) error {
		return s.api.Post(ctx, apiclient.EndpointAccounts, a, &created)
	})
	if err != nil {
		return entities.Account{}, err
	}
	s.accounts.AddLocal(created)
	return created, nil
}

func (s *Store) UpdateAccount(ctx context.Context, a entities.Account) (entities.Account, error) {
	const op = "accounts.update"
	if err := entities.Validate(a); err != nil {
		return entities.Account{}, s.invalid(op, err)
	}
	updated := a
	err := s.mutate(ctx, op, "Update account failed", "Account updated", func(ctx context.Context) error {
		return s.api.Put(ctx, apiclient.EndpointAccounts, a, &updated)
	})
	if err != nil {
		return entities.Account{}, err
	}
	s.accounts.UpdateLocal(updated)
	return updated, nil
}

func (s *Store) DeleteAccount(ctx context.Context, id int64) error {
	err := s.mutate(ctx, "accounts.delete", "Delete account failed", "Account deleted", func(ctx context.Context) error {
		return s.api.Delete(ctx, apiclient.Path(apiclient.EndpointAccount, id))
	})
	if err != nil {
		return err
	}
	s.accounts.RemoveLocal(id)
	return nil
}

// ConfirmDeleteAccount opens a confirmation modal whose action deletes the account.
func (s *Store) ConfirmDeleteAccount(id int64) error {
	account, ok := s.accounts.Find(id)
	if !ok {
		return errors.Mutation("accounts.delete", "Account not found", errors.ErrNotFound)
	}
	s.ui.ShowModal(ui.Modal{
		Title:       "Delete account",
		Description: fmt.Sprintf("Delete %s (%s %s)? This cannot be undone.", account.Name, account.Bank, account.AccountNumber),
		ActionText:  "Delete",
		Action: func(ctx context.Context) error {
			return s.DeleteAccount(ctx, id)
		},
	})
	return nil
}

// SelectAccount focuses a cached account, e.g. before adding a package or withdrawing.
func (s *Store) SelectAccount(id int64) (entities.Account, bool) {
	return s.accounts.Select(id)
}

// SaveThreshold stores the daily and monthly limits of a cached account.
func (s *Store) SaveThreshold(ctx context.Context, th entities.Threshold) (entities.Account, error) {
	const op = "accounts.threshold"
	if err := entities.Validate(th); err != nil {
		return entities.Account{}, s.invalid(op, err)
	}
	account, ok := s.accounts.Find(th.AccountID)
	if !ok {
		s.ui.ShowToast("Account not found", ui.SeverityError)
		return entities.Account{}, errors.Mutation(op, "Account not found", errors.ErrNotFound)
	}
	account.MaxDaily = th.MaxDaily
	account.MaxMonthly = th.MaxMonthly

	updated := account
	err := s.mutate(ctx, op, "Saving thresholds failed", "Thresholds saved", func(ctx context.Context) error {
		return s.api.Put(ctx, apiclient.EndpointAccounts, account, &updated)
	})
	if err != nil {
		return entities.Account{}, err
	}
	s.accounts.UpdateLocal(updated)
	return updated, nil
}

// CreatePackage adds a package. Without an explicit account it is attached to the selected account.
func (s *Store) CreatePackage(ctx context.Context, p entities.Package) (entities.Package, error) {
	const op = "packages.create"
	if p.AccountID == 0 {
		selected, ok := s.accounts.Selected()
		if !ok {
			s.ui.ShowToast("Select an account first", ui.SeverityWarning)
			return entities.Package{}, errors.Mutation(op, "Select an account first", errors.ErrNoSelection)
		}
		p.AccountID = selected.ID
	}
	if err := entities.Validate(p); err != nil {
		return entities.Package{}, s.invalid(op, err)
	}
	created := p
	err := s.mutate(ctx, op, "Create package failed", "Package created", func(ctx context.Context) error {
		return s.api.Post(ctx, apiclient.EndpointPackages, p, &created)
	})
	if err != nil {
		return entities.Package{}, err
	}
	s.packages.AddLocal(created)
	return created, nil
}

func (s *Store) UpdatePackage(ctx context.Context, p entities.Package) (entities.Package, error) {
	const op = "packages.update"
	if err := entities.Validate(p); err != nil {
		return entities.Package{}, s.invalid(op, err)
	}
	updated := p
	err := s.mutate(ctx, op, "Update package failed", "Package updated", func(ctx context.Context) error {
		return s.api.Put(ctx, apiclient.EndpointPackages, p, &updated)
	})
	if err != nil {
		return entities.Package{}, err
	}
	s.packages.UpdateLocal(updated)
	return updated, nil
}

func (s *Store) DeletePackage(ctx context.Context, id int64) error {
	err := s.mutate(ctx, "packages.delete", "Delete package failed", "Package deleted", func(ctx context.Context) error {
		return s.api.Delete(ctx, apiclient.Path(apiclient.EndpointPackage, id))
	})
	if err != nil {
		return err
	}
	s.packages.RemoveLocal(id)
	return nil
}
