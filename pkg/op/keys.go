package op

import (
	"context"
	"net/http"

	jose "github.com/go-jose/go-jose/v4"

	httphelper "github.com/zitadel/authserver/pkg/http"
	"github.com/zitadel/authserver/pkg/oidc"
)

// Keys serves the public signing keys of the server as JWKS.
func (o *Provider) Keys(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracer.Start(r.Context(), "Keys")
	defer span.End()

	keySet, err := o.keySet(ctx)
	if err != nil {
		RequestError(w, r, oidc.ErrServerError().WithParent(err), o.Logger(ctx))
		return
	}
	w.Header().Set("Cache-Control", "max-age=300, must-revalidate")
	httphelper.MarshalJSON(w, keySet)
}

func (o *Provider) keySet(ctx context.Context) (*jose.JSONWebKeySet, error) {
	keys, err := o.storage.KeySet(ctx)
	if err != nil {
		return nil, err
	}
	return jsonWebKeySet(keys), nil
}

func jsonWebKeySet(keys []Key) *jose.JSONWebKeySet {
	webKeys := make([]jose.JSONWebKey, len(keys))
	for i, key := range keys {
		webKeys[i] = jose.JSONWebKey{
			Key:       key.Key(),
			KeyID:     key.ID(),
			Algorithm: string(key.Algorithm()),
			Use:       key.Use(),
		}
	}
	return &jose.JSONWebKeySet{Keys: webKeys}
}
