package storage

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	log "github.com/sirupsen/logrus"
)

// NewRemoteHandler serves store over HTTP, for use by RemoteStore.
//
// Valid requests are GETs and PUTs to paths of the form "/b33f", that is,
// slash followed by the hex-encoded key. Requests for other paths or with
// other methods get 400. Missing keys get 404 with no body. Other failures
// get 500 and the error message in the body.
func NewRemoteHandler(store Store) http.Handler {
	return &remoteHandler{store: store}
}

type remoteHandler struct {
	store Store
}

func (h *remoteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := log.WithFields(log.Fields{
		"op":   r.Method,
		"path": r.URL.Path,
	})
	var status int
	var body []byte
	key, err := hex.DecodeString(strings.TrimPrefix(r.URL.Path, "/"))
	switch {
	case err != nil:
		status, body = http.StatusBadRequest, []byte(fmt.Sprintf("%q: not a valid path, expecting hex key only", r.URL.Path))
	case r.Method == http.MethodGet:
		status, body = h.get(key, logger)
	case r.Method == http.MethodPut:
		status, body = h.put(key, r.Body, logger)
	default:
		status, body = http.StatusBadRequest, []byte(fmt.Sprintf("%q: invalid method, expecting GET or PUT", r.Method))
	}
	if status == http.StatusBadRequest {
		logger.Warn("Bad request")
	}
	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(status)
	if body != nil {
		if _, err := w.Write(body); err != nil {
			logger.WithField("err", err).Error("Failed writing response")
		}
	}
}

func (h *remoteHandler) get(key []byte, logger *log.Entry) (int, []byte) {
	value, err := h.store.Get(key)
	if errors.Is(err, ErrNotFound) {
		logger.Debug("Not found")
		return http.StatusNotFound, nil
	}
	if err != nil {
		logger.WithField("err", err).Error("Get failed")
		return http.StatusInternalServerError, []byte(err.Error())
	}
	logger.Debug("Got")
	return http.StatusOK, value
}

func (h *remoteHandler) put(key []byte, body io.Reader, logger *log.Entry) (int, []byte) {
	value, err := io.ReadAll(body)
	if err == nil {
		err = h.store.Put(key, value)
	}
	if err != nil {
		logger.WithField("err", err).Error("Put failed")
		return http.StatusInternalServerError, []byte(err.Error())
	}
	logger.Debug("Put")
	return http.StatusOK, nil
}
