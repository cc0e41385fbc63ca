package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// RemoteStore implements Store. It requires to connect to a kvserver, or
// anything else serving NewRemoteHandler.
type RemoteStore struct {
	address string
	client  *http.Client
}

// NewRemoteStore returns a client for the server at address, which is either
// a host:port pair or a base URL.
func NewRemoteStore(address string) *RemoteStore {
	if !strings.Contains(address, "://") {
		address = "http://" + address
	}
	return &RemoteStore{
		address: strings.TrimSuffix(address, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (r *RemoteStore) Put(key, value []byte) (err error) {
	url := r.pathFor(key)
	request, err := http.NewRequest(http.MethodPut, url, bytes.NewReader(value))
	if err != nil {
		return err
	}
	response, err := r.client.Do(request)
	if response != nil && response.Body != nil {
		defer func() {
			_ = response.Body.Close()
		}()
	}
	if err != nil {
		return err
	}
	body, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}
	if response.StatusCode != http.StatusOK {
		return errors.New(string(body))
	}
	return nil
}

func (r *RemoteStore) Get(key []byte) (value []byte, err error) {
	url := r.pathFor(key)
	response, err := r.client.Get(url)
	if response != nil && response.Body != nil {
		defer func() {
			_ = response.Body.Close()
		}()
	}
	if err != nil {
		return nil, err
	}
	if response.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%.40q: %w", key, ErrNotFound)
	}
	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}
	if response.StatusCode != http.StatusOK {
		return nil, errors.New(string(body))
	}
	if body == nil {
		body = []byte{}
	}
	return body, nil
}

func (r *RemoteStore) pathFor(key []byte) string {
	return fmt.Sprintf("%s/%x", r.address, key)
}
