package op_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"github.com/zitadel/authserver/pkg/oidc"
	"github.com/zitadel/authserver/pkg/op"
	"github.com/zitadel/authserver/pkg/op/mock"
)

func TestSweeper(t *testing.T) {
	ts := newTestServer(t, func(c *op.Config) {
		c.GrantRetention = 10 * time.Minute
	})
	ctx := context.Background()
	sweeper := ts.provider.Sweeper()

	conf := ts.oauth2Config("web", "secret", webRedirectURI, oidc.ScopeOpenID)
	redeemed := ts.code(t, conf)
	tokens, oidcErr := ts.token(t, codeForm(redeemed, webRedirectURI), "web", "secret")
	require.Nil(t, oidcErr)
	require.NotEmpty(t, tokens.RefreshToken)
	unredeemed := ts.code(t, conf)
	pending := ts.pendingAuthRequest(t, webCodeParams())

	grantExists := func(code string) bool {
		_, err := ts.storage.GrantByCode(ctx, code)
		if errors.Is(err, op.ErrNotFound) {
			return false
		}
		require.NoError(t, err)
		return true
	}

	ts.clock.Add(5 * time.Minute)
	require.NoError(t, sweeper.Sweep(ctx))
	assert.True(t, grantExists(redeemed), "expired grants are retained")
	assert.True(t, grantExists(unredeemed), "expired grants are retained")

	ts.clock.Add(10 * time.Minute)
	require.NoError(t, sweeper.Sweep(ctx))
	assert.True(t, grantExists(redeemed), "the grant has active tokens")
	assert.False(t, grantExists(unredeemed))
	_, err := ts.storage.AuthRequestByID(ctx, pending)
	assert.NoError(t, err, "the auth request has not expired yet")

	_, oidcErr = ts.token(t, codeForm(unredeemed, webRedirectURI), "web", "secret")
	require.NotNil(t, oidcErr)
	assert.Equal(t, oidc.InvalidGrant, oidcErr.ErrorType)

	// access and id token expire, the refresh token keeps the grant
	ts.clock.Add(time.Hour)
	require.NoError(t, sweeper.Sweep(ctx))
	_, err = ts.storage.AuthRequestByID(ctx, pending)
	assert.ErrorIs(t, err, op.ErrNotFound)
	status, _ := ts.userinfo(t, tokens.AccessToken)
	assert.Equal(t, 401, status)
	assert.True(t, grantExists(redeemed))

	// reuse revokes the refresh token, which releases the grant
	_, oidcErr = ts.token(t, codeForm(redeemed, webRedirectURI), "web", "secret")
	require.NotNil(t, oidcErr)
	assert.Equal(t, oidc.InvalidGrant, oidcErr.ErrorType)
	require.NoError(t, sweeper.Sweep(ctx))
	assert.False(t, grantExists(redeemed))

	status, body := ts.get(t, "/metrics")
	require.Equal(t, 200, status)
	assert.Contains(t, body, `authserver_swept_records_total{kind="grant"} 2`)
	assert.Contains(t, body, `authserver_swept_records_total{kind="token"} 2`)
}

func TestSweeper_reuseAfterCodeLifetime(t *testing.T) {
	ts := newTestServer(t)
	ctx := context.Background()
	conf := ts.oauth2Config("web", "secret", webRedirectURI, oidc.ScopeOpenID)
	code := ts.code(t, conf)
	tokens, oidcErr := ts.token(t, codeForm(code, webRedirectURI), "web", "secret")
	require.Nil(t, oidcErr)

	ts.clock.Add(2 * time.Minute)
	require.NoError(t, ts.provider.Sweeper().Sweep(ctx))

	_, oidcErr = ts.token(t, codeForm(code, webRedirectURI), "web", "secret")
	require.NotNil(t, oidcErr)
	assert.Equal(t, oidc.InvalidGrant, oidcErr.ErrorType)
	assert.Equal(t, "code has already been used", oidcErr.Description)

	status, _ := ts.userinfo(t, tokens.AccessToken)
	assert.Equal(t, 401, status)
	_, oidcErr = ts.token(t, url.Values{
		"grant_type":    {string(oidc.GrantTypeRefreshToken)},
		"refresh_token": {tokens.RefreshToken},
	}, "web", "secret")
	require.NotNil(t, oidcErr)
	assert.Equal(t, oidc.InvalidGrant, oidcErr.ErrorType)
}

func TestSweeper_Sweep(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	retention := 5 * time.Minute

	tests := []struct {
		name       string
		setup      func(s *mock.MockStorage)
		wantGrants float64
		wantErr    bool
	}{
		{
			name: "expire and delete",
			setup: func(s *mock.MockStorage) {
				s.EXPECT().ExpiredGrants(gomock.Any(), now.Add(-retention)).Return([]*op.Grant{
					{Code: "issued", ID: "1", State: op.GrantStateIssued},
					{Code: "redeemed", ID: "2", State: op.GrantStateRedeemed},
					{Code: "gone", ID: "3", State: op.GrantStateRevoked},
				}, nil)
				s.EXPECT().UpdateGrantState(gomock.Any(), "issued", op.GrantStateIssued, op.GrantStateExpired).Return(true, nil)
				s.EXPECT().HasActiveTokens(gomock.Any(), "2", now).Return(false, nil)
				s.EXPECT().HasActiveTokens(gomock.Any(), "3", now).Return(false, nil)
				s.EXPECT().DeleteGrant(gomock.Any(), "issued").Return(nil)
				s.EXPECT().DeleteGrant(gomock.Any(), "redeemed").Return(nil)
				s.EXPECT().DeleteGrant(gomock.Any(), "gone").Return(fmt.Errorf("grant: %w", op.ErrNotFound))
				s.EXPECT().DeleteExpiredTokens(gomock.Any(), now).Return(4, nil)
				s.EXPECT().DeleteExpiredAuthRequests(gomock.Any(), now).Return(1, nil)
			},
			wantGrants: 3,
		},
		{
			name: "redeemed grant with active tokens",
			setup: func(s *mock.MockStorage) {
				s.EXPECT().ExpiredGrants(gomock.Any(), now.Add(-retention)).Return([]*op.Grant{
					{Code: "in-use", ID: "1", State: op.GrantStateRedeemed},
				}, nil)
				s.EXPECT().HasActiveTokens(gomock.Any(), "1", now).Return(true, nil)
				s.EXPECT().DeleteGrant(gomock.Any(), gomock.Any()).Times(0)
				s.EXPECT().DeleteExpiredTokens(gomock.Any(), now).Return(0, nil)
				s.EXPECT().DeleteExpiredAuthRequests(gomock.Any(), now).Return(0, nil)
			},
			wantGrants: 0,
		},
		{
			name: "redeemed while sweeping",
			setup: func(s *mock.MockStorage) {
				s.EXPECT().ExpiredGrants(gomock.Any(), gomock.Any()).Return([]*op.Grant{
					{Code: "raced", ID: "1", State: op.GrantStateIssued},
				}, nil)
				s.EXPECT().UpdateGrantState(gomock.Any(), "raced", op.GrantStateIssued, op.GrantStateExpired).Return(false, nil)
				s.EXPECT().DeleteGrant(gomock.Any(), gomock.Any()).Times(0)
				s.EXPECT().DeleteExpiredTokens(gomock.Any(), now).Return(0, nil)
				s.EXPECT().DeleteExpiredAuthRequests(gomock.Any(), now).Return(0, nil)
			},
			wantGrants: 0,
		},
		{
			name: "errors do not stop the other kinds",
			setup: func(s *mock.MockStorage) {
				s.EXPECT().ExpiredGrants(gomock.Any(), gomock.Any()).Return(nil, errors.New("unavailable"))
				s.EXPECT().DeleteExpiredTokens(gomock.Any(), now).Return(0, errors.New("unavailable"))
				s.EXPECT().DeleteExpiredAuthRequests(gomock.Any(), now).Return(2, nil)
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			storage := mock.NewMockStorage(ctrl)
			tt.setup(storage)
			metrics := op.NewMetrics(prometheus.NewRegistry())

			sweeper := op.NewSweeper(storage, time.Minute, retention,
				op.WithSweeperClock(func() time.Time { return now }),
				op.WithSweeperMetrics(metrics),
				op.WithSweeperLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
			)
			err := sweeper.Sweep(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantGrants, testutil.ToFloat64(metrics.SweptRecords.WithLabelValues("grant")))
		})
	}
}

func TestSweeper_Run(t *testing.T) {
	ctrl := gomock.NewController(t)
	storage := mock.NewMockStorage(ctrl)
	swept := make(chan struct{}, 1)
	storage.EXPECT().ExpiredGrants(gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	storage.EXPECT().DeleteExpiredTokens(gomock.Any(), gomock.Any()).Return(0, nil).AnyTimes()
	storage.EXPECT().DeleteExpiredAuthRequests(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, time.Time) (int, error) {
		select {
		case swept <- struct{}{}:
		default:
		}
		return 0, nil
	}).AnyTimes()

	sweeper := op.NewSweeper(storage, 10*time.Millisecond, 0,
		op.WithSweeperLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()

	select {
	case <-swept:
	case <-time.After(5 * time.Second):
		t.Fatal("sweeper did not run")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("sweeper did not stop")
	}
}
