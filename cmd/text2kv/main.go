package main

import (
	"context"
	"errors"
	"io/fs"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/gops/agent"
	"github.com/nicolagi/text2kv/gateway"
	"github.com/nicolagi/text2kv/storage"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var flags = []cli.Flag{
	&cli.StringFlag{
		Name:  "config",
		Value: os.ExpandEnv("$HOME/lib/text2kv/text2kv.config"),
		Usage: "location of configuration file",
	},
	&cli.StringFlag{
		Name:    "token",
		Usage:   "secret clients must pass in the token query parameter",
		EnvVars: []string{"TEXT2KV_TOKEN", "TOKEN"},
	},
	&cli.StringFlag{
		Name:    "listen",
		Usage:   "address to listen on",
		EnvVars: []string{"TEXT2KV_LISTEN"},
	},
	&cli.BoolFlag{
		Name:  "debug",
		Usage: "log debug messages",
	},
}

func main() {
	app := &cli.App{
		Name:   "text2kv",
		Usage:  "serve text entries from a key-value store over HTTP",
		Flags:  flags,
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.WithField("err", err).Fatal("Exiting")
	}
}

func run(cCtx *cli.Context) error {
	c, err := configure(cCtx)
	if err != nil {
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

	interval, _ := c.verifyInterval()
	handler := gateway.New(
		gateway.WithToken(c.Token),
		gateway.WithStore(store),
		gateway.WithScheme(c.Scheme),
		gateway.WithFormBase64(c.FormBase64),
		gateway.WithVerifyAttempts(c.VerifyAttempts),
		gateway.WithVerifyInterval(interval),
		gateway.WithMaxUploadSize(c.MaxUploadBytes),
	)
	srv := &http.Server{
		Addr:              c.Listen,
		Handler:           gateway.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
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

// configure merges the config file, if any, with flags and environment.
func configure(cCtx *cli.Context) (*config, error) {
	pathname := cCtx.String("config")
	c, err := loadConfig(pathname)
	if errors.Is(err, fs.ErrNotExist) && !cCtx.IsSet("config") {
		log.WithField("path", pathname).Info("No configuration file, using defaults")
		c, err = defaultConfig(), nil
	}
	if err != nil {
		return nil, err
	}
	if cCtx.IsSet("token") {
		c.Token = cCtx.String("token")
	}
	if cCtx.IsSet("listen") {
		c.Listen = cCtx.String("listen")
	}
	if cCtx.Bool("debug") {
		c.Debug = true
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
