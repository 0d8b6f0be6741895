package op

import (
	"context"
	"net/http"

	"github.com/rs/xid"
	"github.com/zitadel/logging"
	"golang.org/x/exp/slog"
)

func newLogger(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return slog.New(&requestIDHandler{next: logger.Handler()})
}

type requestIDKey struct{}

// RequestIDFromContext returns the id the LogMiddleware assigned to the request.
func RequestIDFromContext(ctx context.Context) (xid.ID, bool) {
	id, ok := ctx.Value(requestIDKey{}).(xid.ID)
	return id, ok
}

// requestIDHandler stamps every record logged with a request
// context with the id of the request.
type requestIDHandler struct {
	next slog.Handler
}

func (h *requestIDHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *requestIDHandler) Handle(ctx context.Context, record slog.Record) error {
	if id, ok := RequestIDFromContext(ctx); ok {
		record = record.Clone()
		record.AddAttrs(slog.String("request_id", id.String()))
	}
	return h.next.Handle(ctx, record)
}

func (h *requestIDHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &requestIDHandler{next: h.next.WithAttrs(attrs)}
}

func (h *requestIDHandler) WithGroup(name string) slog.Handler {
	return &requestIDHandler{next: h.next.WithGroup(name)}
}

// quietPaths are polled by orchestrators and only logged at debug level.
var quietPaths = map[string]bool{
	healthEndpoint:    true,
	readinessEndpoint: true,
	metricsEndpoint:   true,
}

// LogMiddleware assigns a request id, stores the request scoped logger
// in the context and logs every response. Server errors are logged
// at error level.
func (o *Provider) LogMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := o.now()
			ctx := context.WithValue(r.Context(), requestIDKey{}, xid.New())
			ctx = logging.ToContext(ctx, o.logger)
			r = r.WithContext(ctx)
			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			level := slog.LevelInfo
			switch {
			case rec.status >= http.StatusInternalServerError:
				level = slog.LevelError
			case quietPaths[r.URL.Path]:
				level = slog.LevelDebug
			}
			o.logger.LogAttrs(ctx, level, "request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.statusCode()),
				slog.Int("bytes", rec.written),
				slog.Duration("duration", o.now().Sub(start)),
			)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status  int
	written int
}

func (w *statusRecorder) statusCode() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (w *statusRecorder) WriteHeader(status int) {
	if w.status == 0 {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.written += n
	return n, err
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (w *statusRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
