// Package gateway implements the HTTP face of text2kv: a token-protected
// handler that reads and writes named text entries in a storage.Store, and
// renders a configuration page and upload scripts for clients.
package gateway

import (
	"bytes"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/nicolagi/text2kv/storage"
	log "github.com/sirupsen/logrus"
)

type Option func(*options)

type options struct {
	token          string
	store          storage.Store
	scheme         string
	formBase64     bool
	verifyAttempts int
	verifyInterval time.Duration
	maxUploadSize  int64
	maxMemory      int64
}

// WithToken sets the secret every request must carry in its token query
// parameter. With an empty token, all requests are rejected.
func WithToken(value string) Option {
	return func(o *options) {
		o.token = value
	}
}

func WithStore(value storage.Store) Option {
	return func(o *options) {
		o.store = value
	}
}

// WithScheme sets the scheme used in links and scripts handed out to
// clients, https by default.
func WithScheme(value string) Option {
	return func(o *options) {
		o.scheme = value
	}
}

// WithFormBase64 controls whether files uploaded via forms are base64
// decoded before being stored. It is on by default, as the upload scripts
// send base64.
func WithFormBase64(value bool) Option {
	return func(o *options) {
		o.formBase64 = value
	}
}

// WithVerifyAttempts sets how many times the content is read back after a
// put before giving up on it matching. Values below one mean one.
func WithVerifyAttempts(value int) Option {
	return func(o *options) {
		o.verifyAttempts = value
	}
}

func WithVerifyInterval(value time.Duration) Option {
	return func(o *options) {
		o.verifyInterval = value
	}
}

// WithMaxUploadSize caps request bodies.
func WithMaxUploadSize(value int64) Option {
	return func(o *options) {
		o.maxUploadSize = value
	}
}

// Handler serves entries from a store. It holds no mutable state and is safe
// for concurrent use.
type Handler struct {
	opts options
}

func New(opts ...Option) *Handler {
	h := &Handler{}
	h.opts.scheme = "https"
	h.opts.formBase64 = true
	h.opts.verifyAttempts = 1
	h.opts.verifyInterval = 250 * time.Millisecond
	h.opts.maxUploadSize = 25 << 20
	h.opts.maxMemory = 8 << 20
	for _, o := range opts {
		o(&h.opts)
	}
	if h.opts.verifyAttempts < 1 {
		h.opts.verifyAttempts = 1
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := log.WithFields(log.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	})
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.maxUploadSize)
	resp, err := h.serveSafely(r, logger)
	if err != nil {
		resp = errorResponse(err)
		logger = logger.WithFields(log.Fields{
			"err":    err,
			"status": resp.status,
		})
		if resp.status >= http.StatusInternalServerError {
			logger.Error("Request failed")
		} else {
			logger.Debug("Request rejected")
		}
	}
	if err := resp.write(w); err != nil {
		logger.WithField("err", err).Warn("Failed writing response")
	}
}

// serveSafely turns panics into errors, so that every request gets a
// response.
func (h *Handler) serveSafely(r *http.Request, logger *log.Entry) (resp *response, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger.WithField("panic", rec).Errorf("Recovered\n%s", debug.Stack())
			resp, err = nil, fmt.Errorf("%v", rec)
		}
	}()
	return h.serve(r, logger)
}

func (h *Handler) serve(r *http.Request, logger *log.Entry) (*response, error) {
	if !h.authorized(r) {
		return nil, ErrInvalidToken
	}
	if h.opts.store == nil {
		return nil, ErrNoStore
	}
	intent := Classify(r)
	logger = logger.WithFields(log.Fields{
		"intent": intent.Kind,
		"name":   intent.Name,
	})
	switch intent.Kind {
	case RenderPage:
		return h.renderPage(r)
	case RenderScript:
		return h.renderScript(r, intent.Script)
	case ReadEntry:
		return h.read(intent.Name, logger)
	}
	if !intent.Kind.IsWrite() {
		return nil, fmt.Errorf("%v: unhandled intent", intent.Kind)
	}
	content, err := h.content(r, intent)
	if err != nil {
		return nil, err
	}
	return h.write(intent.Name, content, logger)
}

func (h *Handler) authorized(r *http.Request) bool {
	if h.opts.token == "" {
		return false
	}
	got := r.URL.Query().Get("token")
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.opts.token)) == 1
}

func (h *Handler) read(name string, logger *log.Entry) (*response, error) {
	content, err := h.opts.store.Get([]byte(name))
	if err != nil {
		return nil, err
	}
	logger.WithField("size", len(content)).Debug("Read")
	return textResponse(http.StatusOK, content), nil
}

// write puts content under name and reads it back, responding with what was
// read only if it matches what was put.
func (h *Handler) write(name string, content []byte, logger *log.Entry) (*response, error) {
	key := []byte(name)
	if err := h.opts.store.Put(key, content); err != nil {
		return nil, fmt.Errorf("could not store %q: %w", name, err)
	}
	for attempt := 1; ; attempt++ {
		stored, err := h.opts.store.Get(key)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("could not read back %q: %w", name, err)
		}
		if err == nil && bytes.Equal(stored, content) {
			logger.WithFields(log.Fields{
				"size":     len(stored),
				"attempts": attempt,
			}).Debug("Wrote")
			return textResponse(http.StatusOK, stored), nil
		}
		if attempt >= h.opts.verifyAttempts {
			return nil, ErrVerificationFailed
		}
		logger.WithField("attempt", attempt).Warn("Read back content differs, retrying")
		time.Sleep(h.opts.verifyInterval)
	}
}
