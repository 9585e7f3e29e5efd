package console

import (
	"context"

	"github.com/jrsteele09/go-payment-console/apiclient"
	"github.com/jrsteele09/go-payment-console/entities"
	"github.com/jrsteele09/go-payment-console/internal/errors"
	"github.com/jrsteele09/go-payment-console/ui"
)

func (s *Store) userID() (int64, bool) {
	state := s.session.State()
	if !state.IsAuthenticated() || state.Identity == nil {
		return 0, false
	}
	if state.Identity.UserID != 0 {
		return state.Identity.UserID, true
	}
	return state.Identity.ID, state.Identity.ID != 0
}

func (s *Store) LoadProfile(ctx context.Context) (*entities.Profile, error) {
	const op = "profile.load"
	id, ok := s.userID()
	if !ok {
		return nil, errors.Fetch(op, "No signed-in user", errors.ErrNotAuthenticated)
	}
	var profile entities.Profile
	if err := s.api.Get(ctx, apiclient.Path(apiclient.EndpointUser, id), &profile); err != nil {
		msg := apiclient.MessageOr(err, "Loading profile failed")
		s.ui.ShowToast(msg, ui.SeverityError)
		return nil, errors.Fetch(op, msg, err)
	}
	s.mu.Lock()
	s.profile = &profile
	s.mu.Unlock()
	return s.Profile(), nil
}

func (s *Store) UpdateProfile(ctx context.Context, p entities.Profile) (*entities.Profile, error) {
	const op = "profile.update"
	if p.ID == 0 {
		p.ID, _ = s.userID()
	}
	if err := entities.Validate(p); err != nil {
		return nil, s.invalid(op, err)
	}
	updated := p
	err := s.mutate(ctx, op, "Update failed", "Profile updated successfully", func(ctx context.Context) error {
		return s.api.Put(ctx, apiclient.EndpointUsers, p, &updated)
	})
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.profile = &updated
	s.mu.Unlock()
	return s.Profile(), nil
}

// ChangePassword requires a new password of at least 8 characters and a matching confirmation.
func (s *Store) ChangePassword(ctx context.Context, change entities.PasswordChange) error {
	const op = "profile.password"
	if err := entities.Validate(change); err != nil {
		return s.invalid(op, err)
	}
	return s.mutate(ctx, op, "Update failed", "Password updated successfully", func(ctx context.Context) error {
		return s.api.Post(ctx, apiclient.EndpointUserPasswordUpdate, change, nil)
	})
}
