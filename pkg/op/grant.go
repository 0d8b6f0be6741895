package op

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zitadel/authserver/pkg/oidc"
)

// GrantState is the lifecycle state of an authorization code.
// The only transitions are out of GrantStateIssued, and
// from GrantStateRedeemed to GrantStateRevoked on reuse.
type GrantState int

const (
	GrantStateIssued GrantState = iota
	GrantStateRedeemed
	GrantStateExpired
	GrantStateRevoked
)

var grantStateNames = [...]string{"issued", "redeemed", "expired", "revoked"}

func (s GrantState) String() string {
	if s < 0 || int(s) >= len(grantStateNames) {
		return fmt.Sprintf("GrantState(%d)", int(s))
	}
	return grantStateNames[s]
}

func (s GrantState) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(grantStateNames) {
		return nil, fmt.Errorf("invalid grant state %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *GrantState) UnmarshalText(text []byte) error {
	for i, name := range grantStateNames {
		if name == string(text) {
			*s = GrantState(i)
			return nil
		}
	}
	return fmt.Errorf("invalid grant state %q", text)
}

// Grant is an authorization code and everything
// the end-user consented to when it was issued.
type Grant struct {
	Code string `json:"code"`
	// ID is shared by every token minted from the grant,
	// including the ones minted by later refreshes.
	ID                  string                   `json:"id"`
	ClientID            string                   `json:"client_id"`
	Subject             string                   `json:"subject"`
	Scopes              []string                 `json:"scopes"`
	RedirectURI         string                   `json:"redirect_uri"`
	Nonce               string                   `json:"nonce,omitempty"`
	ACR                 string                   `json:"acr,omitempty"`
	AMR                 []string                 `json:"amr,omitempty"`
	AuthTime            time.Time                `json:"auth_time"`
	IssuedAt            time.Time                `json:"issued_at"`
	ExpiresAt           time.Time                `json:"expires_at"`
	State               GrantState               `json:"state"`
	CodeChallenge       string                   `json:"code_challenge,omitempty"`
	CodeChallengeMethod oidc.CodeChallengeMethod `json:"code_challenge_method,omitempty"`
	Claims              *oidc.ClaimsRequest      `json:"claims,omitempty"`
}

func (g *Grant) GetCodeChallenge() *oidc.CodeChallenge {
	if g.CodeChallenge == "" {
		return nil
	}
	return &oidc.CodeChallenge{
		Challenge: g.CodeChallenge,
		Method:    g.CodeChallengeMethod,
	}
}

func (g *Grant) Expired(now time.Time) bool {
	return !now.Before(g.ExpiresAt)
}

func (g *Grant) tokenRequest() *tokenRequest {
	return &tokenRequest{
		grantID:  g.ID,
		clientID: g.ClientID,
		subject:  g.Subject,
		scopes:   g.Scopes,
		nonce:    g.Nonce,
		authTime: g.AuthTime,
		amr:      g.AMR,
		acr:      g.ACR,
		claims:   g.Claims,
	}
}

type redemptionResult string

const (
	redemptionSuccess  redemptionResult = "success"
	redemptionReused   redemptionResult = "reused"
	redemptionExpired  redemptionResult = "expired"
	redemptionRejected redemptionResult = "rejected"
)

// redeemGrant performs the ISSUED to REDEEMED transition.
// A grant which already left ISSUED is handled as reuse or expiry,
// so the returned error is always an invalid_grant or a server error.
func (o *Provider) redeemGrant(ctx context.Context, grant *Grant) error {
	ctx, span := tracer.Start(ctx, "redeemGrant")
	defer span.End()

	switch grant.State {
	case GrantStateRedeemed, GrantStateRevoked:
		return o.grantReused(ctx, grant)
	case GrantStateExpired:
		o.metrics.redemption(redemptionExpired)
		return oidc.ErrInvalidGrant().WithDescription("code has expired")
	}
	if grant.Expired(o.now()) {
		if _, err := o.storage.UpdateGrantState(ctx, grant.Code, GrantStateIssued, GrantStateExpired); err != nil {
			return oidc.ErrServerError().WithParent(err)
		}
		o.metrics.redemption(redemptionExpired)
		return oidc.ErrInvalidGrant().WithDescription("code has expired")
	}
	ok, err := o.storage.UpdateGrantState(ctx, grant.Code, GrantStateIssued, GrantStateRedeemed)
	if err != nil {
		return oidc.ErrServerError().WithParent(err)
	}
	if !ok {
		// lost the race against a concurrent redemption or the sweeper
		current, err := o.storage.GrantByCode(ctx, grant.Code)
		if err != nil {
			return oidc.ErrInvalidGrant().WithDescription("code is invalid").WithParent(err)
		}
		if current.State == GrantStateExpired {
			o.metrics.redemption(redemptionExpired)
			return oidc.ErrInvalidGrant().WithDescription("code has expired")
		}
		return o.grantReused(ctx, current)
	}
	grant.State = GrantStateRedeemed
	return nil
}

// grantReused revokes the grant and every token minted from it.
// The revocation completes before the error is returned.
func (o *Provider) grantReused(ctx context.Context, grant *Grant) error {
	o.metrics.redemption(redemptionReused)
	if _, err := o.storage.UpdateGrantState(ctx, grant.Code, GrantStateRedeemed, GrantStateRevoked); err != nil {
		return oidc.ErrServerError().WithParent(err)
	}
	n, err := o.storage.RevokeTokensByGrant(ctx, grant.ID)
	if err != nil {
		return oidc.ErrServerError().WithParent(err)
	}
	o.metrics.cascadeRevoked(n)
	o.logger.WarnContext(ctx, "authorization code reused, grant revoked",
		"client_id", grant.ClientID,
		"grant_id", grant.ID,
		"revoked_tokens", n,
	)
	return oidc.ErrInvalidGrant().WithDescription("code has already been used")
}

// confirmRedemption checks the grant was not revoked by a concurrent
// reuse while its tokens were minted, and revokes them if it was.
func (o *Provider) confirmRedemption(ctx context.Context, grant *Grant) error {
	current, err := o.storage.GrantByCode(ctx, grant.Code)
	switch {
	case errors.Is(err, ErrNotFound):
		// deleted meanwhile, its tokens are revoked like on reuse
	case err != nil:
		return oidc.ErrServerError().WithParent(err)
	case current.State == GrantStateRedeemed:
		return nil
	}
	n, err := o.storage.RevokeTokensByGrant(ctx, grant.ID)
	if err != nil {
		return oidc.ErrServerError().WithParent(err)
	}
	o.metrics.cascadeRevoked(n)
	return oidc.ErrInvalidGrant().WithDescription("code has already been used")
}
