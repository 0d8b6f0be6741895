package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/exp/slog"

	"github.com/zitadel/authserver/internal/config"
	"github.com/zitadel/authserver/internal/login"
	"github.com/zitadel/authserver/pkg/op"
	"github.com/zitadel/authserver/pkg/storage"
)

const shutdownTimeout = 10 * time.Second

type server struct {
	cfg      *config.Config
	logger   *slog.Logger
	provider *op.Provider
	handler  http.Handler
	closers  []io.Closer
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newServer wires the directory, the storage backend, the provider
// and the login UI.
func newServer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *server, err error) {
	s := &server{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			s.Close()
		}
	}()

	keys, err := keyRing(cfg.Keys)
	if err != nil {
		return nil, err
	}
	dir := storage.NewDirectory(keys, cfg.LoginURL)
	var dirConfig *storage.DirectoryConfig
	if cfg.Directory != "" {
		if dirConfig, err = storage.LoadDirectoryConfig(cfg.Directory); err != nil {
			return nil, err
		}
		if err = dir.AddUsers(dirConfig.Users, 0); err != nil {
			return nil, err
		}
	}

	store, err := s.openStorage(ctx, dir)
	if err != nil {
		return nil, err
	}
	opConfig, err := cfg.Provider()
	if err != nil {
		return nil, err
	}
	opts := []op.Option{op.WithLogger(logger)}
	if cfg.AllowInsecure {
		opts = append(opts, op.WithAllowInsecure())
	}
	if s.provider, err = op.NewOpenIDProvider(cfg.Issuer, opConfig, store, opts...); err != nil {
		return nil, err
	}
	if dirConfig != nil {
		if err = dir.AddClients(ctx, dirConfig.Clients, s.provider.ValidateClientMetadata); err != nil {
			return nil, err
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/login/", login.New(s.provider, dir))
	mux.Handle("/", s.provider.HttpHandler())
	s.handler = mux
	return s, nil
}

func keyRing(cfg config.KeysConfig) (*storage.KeyRing, error) {
	if len(cfg.Signing) == 0 {
		return storage.GenerateKeyRing()
	}
	return storage.LoadKeyRing(cfg.Signing, cfg.Decryption)
}

func (s *server) openStorage(ctx context.Context, dir *storage.Directory) (op.Storage, error) {
	switch backend := s.cfg.Storage.Backend; backend {
	case config.BackendMemory:
		return storage.NewMemory(dir), nil
	case config.BackendBolt:
		store, err := storage.OpenBolt(s.cfg.Storage.Path, dir)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, store)
		return store, nil
	case config.BackendSQLite, config.BackendPostgres:
		store, err := storage.OpenSQL(ctx, storage.SQLDriver(backend), s.cfg.Storage.DSN, dir)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, store)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// Run serves until ctx is done and then shuts down gracefully.
func (s *server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return err
	}
	return s.serve(ctx, listener)
}

func (s *server) serve(ctx context.Context, listener net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	sweeperDone := make(chan struct{})
	go func() {
		defer close(sweeperDone)
		s.provider.Sweeper().Run(sweepCtx)
	}()
	defer func() {
		stopSweeper()
		<-sweeperDone
	}()

	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoContext(ctx, "server listening", "addr", listener.Addr().String(), "issuer", s.cfg.Issuer)
		errCh <- httpServer.Serve(listener)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	s.logger.InfoContext(ctx, "shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *server) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c.Close())
	}
	s.closers = nil
	return errors.Join(errs...)
}
