package gateway

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
)

const (
	contentTypeText = "text/plain; charset=utf-8"
	contentTypeHTML = "text/html; charset=UTF-8"
)

type response struct {
	status int
	header http.Header
	body   []byte
}

func textResponse(status int, body []byte) *response {
	resp := &response{
		status: status,
		header: make(http.Header),
		body:   body,
	}
	resp.header.Set("Content-Type", contentTypeText)
	return resp
}

// write sends resp, making sure no client or intermediary caches it.
func (resp *response) write(w http.ResponseWriter) error {
	h := w.Header()
	for k, v := range resp.header {
		h[k] = v
	}
	h.Set("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
	h.Set("Pragma", "no-cache")
	h.Set("Expires", "0")
	h.Set("ETag", fmt.Sprintf("%q", uuid.NewString()))
	h.Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	w.WriteHeader(resp.status)
	_, err := w.Write(resp.body)
	return err
}
