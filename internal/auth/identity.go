package auth

import "github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/user"

// Identity is the verified result of an external provider token.
// It contains facts only, no decisions.
type Identity struct {
	Provider      user.Provider
	Subject       string // provider-scoped unique user identifier (sub)
	Email         string // optional; Apple may omit it after the first login
	EmailVerified bool
}
