package gateway

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/text/encoding/unicode"
)

// content extracts the bytes a write intent asks to store.
func (h *Handler) content(r *http.Request, intent Intent) ([]byte, error) {
	switch intent.Kind {
	case WriteFromText:
		return []byte(r.URL.Query().Get("text")), nil
	case WriteFromBase64:
		return decodeBase64(r.URL.Query().Get("b64"))
	case WriteFromForm:
		content, err := h.formContent(r)
		if err != nil {
			return nil, fmt.Errorf("error processing the request: %w", err)
		}
		return content, nil
	}
	return nil, fmt.Errorf("%v: not a write", intent.Kind)
}

func (h *Handler) formContent(r *http.Request) ([]byte, error) {
	err := r.ParseMultipartForm(h.opts.maxMemory)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return nil, err
	}
	var raw []byte
	file, _, err := r.FormFile("file")
	switch {
	case err == nil:
		defer func() {
			_ = file.Close()
		}()
		if raw, err = io.ReadAll(file); err != nil {
			return nil, err
		}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// Plain form fields are accepted too.
		values, ok := r.PostForm["file"]
		if !ok || len(values) == 0 {
			return nil, ErrMissingFile
		}
		raw = []byte(values[0])
	default:
		return nil, err
	}
	text := decodeText(raw)
	if !h.opts.formBase64 {
		return text, nil
	}
	return decodeBase64(string(text))
}

// decodeBase64 decodes s the way browsers' atob does, then decodes the
// result as UTF-8 text. Spaces are taken to be plus signs mangled by query
// or form encoding.
func decodeBase64(s string) ([]byte, error) {
	s = strings.ReplaceAll(s, " ", "+")
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\t', '\n', '\f', '\r':
			return -1
		}
		return r
	}, s)
	if len(s)%4 == 0 {
		if strings.HasSuffix(s, "==") {
			s = s[:len(s)-2]
		} else if strings.HasSuffix(s, "=") {
			s = s[:len(s)-1]
		}
	}
	b, err := base64.RawStdEncoding.DecodeString(s)
	if err != nil {
		return nil, ErrInvalidBase64
	}
	return decodeText(b), nil
}

// decodeText strips a leading byte order mark and replaces invalid UTF-8
// sequences with U+FFFD.
func decodeText(b []byte) []byte {
	text, err := unicode.UTF8BOM.NewDecoder().Bytes(b)
	if err != nil {
		return b
	}
	return text
}
