package gateway

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
)

// NewRouter mounts h on every path, behind request logging.
func NewRouter(h http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, logRequests)
	r.Handle("/", h)
	r.Handle("/*", h)
	return r
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			log.WithFields(log.Fields{
				"id":       middleware.GetReqID(r.Context()),
				"remote":   r.RemoteAddr,
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   ww.Status(),
				"size":     ww.BytesWritten(),
				"duration": time.Since(start),
			}).Info("Served")
		}()
		next.ServeHTTP(ww, r)
	})
}
