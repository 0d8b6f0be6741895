package mock

import (
	"testing"
	"time"

	"github.com/golang/mock/gomock"

	"github.com/zitadel/authserver/pkg/oidc"
	"github.com/zitadel/authserver/pkg/op"
)

func NewClient(t *testing.T) op.Client {
	return NewMockClient(gomock.NewController(t))
}

// NewClientExpectAny returns a client which accepts any of its
// registered redirect_uris and uses the login UI at "login?id=".
func NewClientExpectAny(t *testing.T, appType op.ApplicationType) op.Client {
	c := NewClient(t)
	m := c.(*MockClient)
	m.EXPECT().GetID().AnyTimes().Return("client")
	m.EXPECT().RedirectURIs().AnyTimes().Return([]string{
		"https://registered.com/callback",
		"http://registered.com/callback",
		"http://localhost:9999/callback",
		"custom://callback",
	})
	m.EXPECT().ApplicationType().AnyTimes().Return(appType)
	m.EXPECT().LoginURL(gomock.Any()).AnyTimes().DoAndReturn(
		func(id string) string {
			return "login?id=" + id
		})
	m.EXPECT().IsScopeAllowed(gomock.Any()).AnyTimes().Return(false)
	m.EXPECT().ClockSkew().AnyTimes().Return(time.Duration(0))
	return c
}

func NewClientWithConfig(t *testing.T, uri []string, appType op.ApplicationType, responseTypes []oidc.ResponseType) op.Client {
	c := NewClient(t)
	m := c.(*MockClient)
	m.EXPECT().RedirectURIs().AnyTimes().Return(uri)
	m.EXPECT().ApplicationType().AnyTimes().Return(appType)
	m.EXPECT().ResponseTypes().AnyTimes().Return(responseTypes)
	return c
}

// NewConfidentialClient returns a client authenticating with client_secret_basic.
func NewConfidentialClient(t *testing.T, id, secret string, grantTypes ...oidc.GrantType) op.Client {
	c := NewClient(t)
	m := c.(*MockClient)
	m.EXPECT().GetID().AnyTimes().Return(id)
	m.EXPECT().SharedSecret().AnyTimes().Return(secret)
	m.EXPECT().AuthMethod().AnyTimes().Return(oidc.AuthMethodBasic)
	m.EXPECT().GrantTypes().AnyTimes().Return(grantTypes)
	m.EXPECT().IsScopeAllowed(gomock.Any()).AnyTimes().Return(false)
	m.EXPECT().ClockSkew().AnyTimes().Return(time.Duration(0))
	return c
}
