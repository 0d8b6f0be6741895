package op

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogMiddleware(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		status    int
		wantLevel string
		wantLog   bool
	}{
		{"ok", "/userinfo", http.StatusOK, "INFO", true},
		{"client error", "/oauth/token", http.StatusBadRequest, "INFO", true},
		{"server error", "/oauth/token", http.StatusInternalServerError, "ERROR", true},
		{"health check", healthEndpoint, http.StatusOK, "", false},
		{"failing readiness check", readinessEndpoint, http.StatusInternalServerError, "ERROR", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := new(strings.Builder)
			start := time.Unix(1700000000, 0)
			calls := 0
			o := &Provider{
				logger: newLogger(testLogger(out)),
				now: func() time.Time {
					calls++
					return start.Add(time.Duration(calls) * time.Millisecond)
				},
			}
			var requestID string
			handler := o.LogMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				id, ok := RequestIDFromContext(r.Context())
				require.True(t, ok)
				requestID = id.String()
				assert.Same(t, o.logger, o.Logger(r.Context()))
				w.WriteHeader(tt.status)
				w.Write([]byte("body"))
			}))
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, tt.path, nil))

			if !tt.wantLog {
				assert.Empty(t, out.String())
				return
			}
			var record map[string]any
			require.NoError(t, json.Unmarshal([]byte(out.String()), &record))
			assert.Equal(t, tt.wantLevel, record["level"])
			assert.Equal(t, "request", record["msg"])
			assert.Equal(t, tt.path, record["path"])
			assert.Equal(t, float64(tt.status), record["status"])
			assert.Equal(t, float64(4), record["bytes"])
			assert.Equal(t, requestID, record["request_id"])
		})
	}
}
