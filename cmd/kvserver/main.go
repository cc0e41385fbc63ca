package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/gops/agent"
	"github.com/nicolagi/text2kv/storage"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "kvserver",
		Usage: "serve a key-value store over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: os.ExpandEnv("$HOME/lib/text2kv/kvserver.config"),
				Usage: "location of configuration file",
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.WithField("err", err).Fatal("Exiting")
	}
}

func run(cCtx *cli.Context) error {
	pathname := cCtx.String("config")
	c, err := loadConfig(pathname)
	if err != nil {
		log.WithFields(log.Fields{
			"err":  err,
			"path": pathname,
		}).Error("Could not load configuration")
		return err
	}

	if c.Debug {
		log.SetLevel(log.DebugLevel)
	}

	// Signals are handled by run, so the server drains before the store closes.
	if err := agent.Listen(agentOptions); err != nil {
		log.WithField("err", err).Warn("Could not start gops agent")
	} else {
		defer agent.Close()
	}

	store, err := storage.Open(c.Store)
	if err != nil {
		return err
	}
	defer func() {
		if err := storage.Close(store); err != nil {
			log.WithField("err", err).Warn("Could not close store")
		}
	}()

	srv := &http.Server{
		Addr:              c.Listen,
		Handler:           storage.NewRemoteHandler(store),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", c.Listen)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cCtx.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serve(ctx, srv, ln)
}

var agentOptions = agent.Options{}

// serve runs srv on ln until ctx is done, then returns once in-flight
// requests have completed, or after a timeout.
func serve(ctx context.Context, srv *http.Server, ln net.Listener) error {
	errc := make(chan error, 1)
	go func() {
		log.WithField("addr", ln.Addr()).Info("Listening")
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
