package op

import (
	"context"
	"net/http"

	"github.com/zitadel/logging"
	"golang.org/x/exp/slog"
)

type issuerKey struct{}

// issuerMiddleware resolves the issuer of every request once,
// so handlers and storage read it with IssuerFromContext.
func issuerMiddleware(issuer IssuerFromRequest) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(ContextWithIssuer(r.Context(), issuer(r))))
		})
	}
}

// IssuerFromContext returns the issuer the request was served under,
// or an empty string outside of a request.
func IssuerFromContext(ctx context.Context) string {
	issuer, _ := ctx.Value(issuerKey{}).(string)
	return issuer
}

func ContextWithIssuer(ctx context.Context, issuer string) context.Context {
	return context.WithValue(ctx, issuerKey{}, issuer)
}

// Logger returns the request scoped logger set by the LogMiddleware,
// or the logger of the Provider.
func (o *Provider) Logger(ctx context.Context) *slog.Logger {
	if logger, ok := logging.FromContext(ctx); ok {
		return logger
	}
	return o.logger
}

// logCtxWithClient adds the client to the request scoped logger.
func (o *Provider) logCtxWithClient(ctx context.Context, clientID string) context.Context {
	return logging.ToContext(ctx, o.Logger(ctx).With(slog.String("client_id", clientID)))
}
