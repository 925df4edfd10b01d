package resolver

import (
	"context"

	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/auth"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/user"
)

// Resolver determines which internal user an external identity belongs to.
// It is the only place where identity-to-user mapping logic lives.
type Resolver interface {
	Resolve(ctx context.Context, identity *auth.Identity) (*user.User, error)
}
