package provider

import (
	"context"
	"errors"
	"strconv"

	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/auth"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/logger"
	"github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/user"

	"github.com/coreos/go-oidc/v3/oidc"
)

// flexBool accepts both JSON booleans and the "true"/"false" strings Apple sends.
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		*b = false
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		return err
	}
	*b = flexBool(v)
	return nil
}

// VerifyIDToken runs verifier over rawToken and extracts an Identity.
// Every failure is logged at debug level and collapsed to ErrInvalidToken.
func VerifyIDToken(
	ctx context.Context,
	verifier *oidc.IDTokenVerifier,
	name user.Provider,
	rawToken string,
) (*auth.Identity, error) {

	if rawToken == "" {
		return nil, ErrInvalidToken
	}

	idToken, err := verifier.Verify(ctx, rawToken)
	if err != nil {
		return nil, reject(name, err)
	}

	var claims struct {
		Subject       string   `json:"sub"`
		Email         string   `json:"email"`
		EmailVerified flexBool `json:"email_verified"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return nil, reject(name, err)
	}
	if claims.Subject == "" {
		return nil, reject(name, errors.New("missing sub claim"))
	}

	logger.Debug("provider token verified", map[string]any{
		"provider":       string(name),
		"email_present":  claims.Email != "",
		"email_verified": bool(claims.EmailVerified),
		"expiry_unix":    idToken.Expiry.Unix(),
	})

	return &auth.Identity{
		Provider:      name,
		Subject:       claims.Subject,
		Email:         claims.Email,
		EmailVerified: bool(claims.EmailVerified),
	}, nil
}

func reject(name user.Provider, cause error) error {
	logger.Debug("provider token rejected", map[string]any{
		"provider": string(name),
		"error":    cause.Error(),
	})
	return ErrInvalidToken
}
