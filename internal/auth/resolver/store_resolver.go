package resolver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/auth"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/logger"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/user"
)

const defaultMaxAttempts = 3

// ErrIdentityConflict is returned when the identity cannot be given an
// account: its email belongs to a user already linked to a different subject
// of the same provider, or its address stays taken by another account.
var ErrIdentityConflict = errors.New("identity conflicts with an existing account")

// StoreResolver finds, links or creates users through a user.Store.
// Concurrent first logins are settled by the store's unique constraints:
// a create that loses the race re-runs the lookups and returns the winner.
type StoreResolver struct {
	users       user.Store
	maxAttempts int
}

func NewStoreResolver(users user.Store) *StoreResolver {
	return &StoreResolver{users: users, maxAttempts: defaultMaxAttempts}
}

// PlaceholderEmail is the stable address used when a provider sends no email.
func PlaceholderEmail(provider user.Provider, subject string) string {
	return strings.ToLower(subject) + "@" + provider.PlaceholderDomain()
}

func (r *StoreResolver) Resolve(ctx context.Context, identity *auth.Identity) (*user.User, error) {
	if identity == nil || identity.Subject == "" || !identity.Provider.Valid() {
		return nil, errors.New("resolver: incomplete identity")
	}

	for attempt := 1; attempt <= r.maxAttempts; attempt++ {
		u, err := r.resolveOnce(ctx, identity)
		if err == nil {
			return u, nil
		}
		if !errors.Is(err, user.ErrConflict) {
			return nil, err
		}

		logger.Debug("identity resolution lost a race, retrying", map[string]any{
			"provider": string(identity.Provider),
			"attempt":  attempt,
		})
	}

	logger.Warn("identity resolution kept conflicting", map[string]any{
		"provider":    string(identity.Provider),
		"placeholder": r.trustedEmail(identity) == "",
	})
	return nil, fmt.Errorf("resolver: gave up after %d attempts: %w: %w", r.maxAttempts, ErrIdentityConflict, user.ErrConflict)
}

func (r *StoreResolver) resolveOnce(ctx context.Context, identity *auth.Identity) (*user.User, error) {
	// 1. Known (provider, subject)
	u, err := r.users.FindByProviderID(ctx, identity.Provider, identity.Subject)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, user.ErrNotFound) {
		return nil, fmt.Errorf("resolver: find by provider: %w", err)
	}

	email := r.trustedEmail(identity)
	placeholder := email == ""

	// 2. Existing account with the same verified email gets this provider linked
	if !placeholder {
		existing, err := r.users.FindByEmail(ctx, email)
		switch {
		case err == nil:
			return r.link(ctx, existing, identity)
		case !errors.Is(err, user.ErrNotFound):
			return nil, fmt.Errorf("resolver: find by email: %w", err)
		}
	} else {
		email = PlaceholderEmail(identity.Provider, identity.Subject)
	}

	// 3. New user
	created, err := r.users.Create(ctx, user.NewUser{
		Email:      email,
		Provider:   identity.Provider,
		ProviderID: identity.Subject,
	})
	if err != nil {
		if errors.Is(err, user.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("resolver: create: %w", err)
	}

	logger.Info("user created from provider identity", map[string]any{
		"user_id":     created.ID,
		"provider":    string(identity.Provider),
		"placeholder": placeholder,
	})

	return created, nil
}

// trustedEmail is the identity's email when the provider vouches for it.
// Unverified or reserved addresses are never used to link or create.
func (r *StoreResolver) trustedEmail(identity *auth.Identity) string {
	email := strings.ToLower(strings.TrimSpace(identity.Email))
	if !identity.EmailVerified || user.IsPlaceholderEmail(email) {
		return ""
	}
	return email
}

func (r *StoreResolver) link(ctx context.Context, existing *user.User, identity *auth.Identity) (*user.User, error) {
	linked, err := r.users.LinkProviderID(ctx, existing.ID, identity.Provider, identity.Subject)
	switch {
	case err == nil:
		logger.Info("provider linked to existing user", map[string]any{
			"user_id":  linked.ID,
			"provider": string(identity.Provider),
		})
		return linked, nil
	case errors.Is(err, user.ErrAlreadyLinked):
		return nil, ErrIdentityConflict
	case errors.Is(err, user.ErrConflict):
		// another request linked or created this subject first
		return nil, err
	}
	return nil, fmt.Errorf("resolver: link: %w", err)
}
