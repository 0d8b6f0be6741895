package http

import (
	"encoding/json"
	"net/http"
)

const (
	ContentTypeJSON = "application/json"
	ContentTypeJWT  = "application/jwt"
)

func MarshalJSON(w http.ResponseWriter, i any) {
	MarshalJSONWithStatus(w, i, http.StatusOK)
}

// MarshalJSONWithStatus writes i as JSON body. The value is marshaled
// before any header is sent, so a failure still results in a 500.
func MarshalJSONWithStatus(w http.ResponseWriter, i any, status int) {
	var body []byte
	if i != nil {
		var err error
		if body, err = json.Marshal(i); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	}
	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(status)
	w.Write(body) //nolint:errcheck
}

// WriteJWT writes a compact serialized JWT as application/jwt body.
func WriteJWT(w http.ResponseWriter, jwt string) {
	w.Header().Set("content-type", ContentTypeJWT)
	w.WriteHeader(http.StatusOK)
	//nolint:errcheck
	w.Write([]byte(jwt))
}
