package main

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentLeavesSignalsAlone(t *testing.T) {
	assert.False(t, agentOptions.ShutdownCleanup)
}

func TestServeDrainsInFlightRequests(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.Nil(t, err)

	entered := make(chan struct{})
	release := make(chan struct{})
	srv := &http.Server{
		Handler: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			close(entered)
			<-release
			w.WriteHeader(http.StatusOK)
		}),
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	served := make(chan error, 1)
	go func() {
		served <- serve(ctx, srv, ln)
	}()

	responses := make(chan *http.Response, 1)
	go func() {
		resp, err := http.Get("http://" + ln.Addr().String())
		if err != nil {
			close(responses)
			return
		}
		resp.Body.Close()
		responses <- resp
	}()

	<-entered
	cancel()
	assert.Never(t, func() bool { return len(served) > 0 }, 200*time.Millisecond, 10*time.Millisecond)

	close(release)
	resp, ok := <-responses
	require.True(t, ok)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	select {
	case err := <-served:
		assert.Nil(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after the last request completed")
	}
}

func TestServeStopsWithoutRequests(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.Nil(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Nil(t, serve(ctx, &http.Server{Handler: http.NotFoundHandler()}, ln))
}
