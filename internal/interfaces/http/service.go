package httpinterface

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Kenbak/zipher/internal/core/application"
	"github.com/Kenbak/zipher/internal/infrastructure/pubsub"
	"github.com/Kenbak/zipher/internal/interfaces"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 5 * time.Second

// ServiceOpts ...
type ServiceOpts struct {
	Port       int
	SyncSvc    application.SyncService
	AutoSyncer *application.AutoSyncer
	Session    *application.Session
	PubSub     *pubsub.Service
	// MetricsHandler, if defined, is served at /metrics.
	MetricsHandler http.Handler
}

func (o ServiceOpts) validate() error {
	if o.Port <= 0 || o.Port > 65535 {
		return fmt.Errorf("invalid port %d", o.Port)
	}
	if o.SyncSvc == nil {
		return application.ErrNullSyncService
	}
	if o.AutoSyncer == nil {
		return fmt.Errorf("missing auto syncer")
	}
	if o.Session == nil {
		return application.ErrNullSession
	}
	if o.PubSub == nil {
		return fmt.Errorf("missing pubsub service")
	}
	return nil
}

type service struct {
	server   *http.Server
	listener net.Listener
}

// NewService returns the HTTP interface of the daemon.
func NewService(opts ServiceOpts) (interfaces.Service, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	return &service{
		server: &http.Server{
			Addr:              fmt.Sprintf(":%d", opts.Port),
			Handler:           NewHandler(opts),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// NewHandler returns the router of the HTTP interface.
func NewHandler(opts ServiceOpts) http.Handler {
	h := &handler{
		syncSvc:    opts.SyncSvc,
		autoSyncer: opts.AutoSyncer,
		session:    opts.Session,
		pubsub:     opts.PubSub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/sync", h.sync)
	mux.HandleFunc("/v1/balance", h.balance)
	mux.HandleFunc("/v1/decrypt", h.decrypt)
	mux.HandleFunc("/v1/reset", h.reset)
	mux.HandleFunc("/v1/sync/events", h.syncEvents)
	if opts.MetricsHandler != nil {
		mux.Handle("/metrics", opts.MetricsHandler)
	}

	return withLogger(mux)
}

func (s *service) Start() error {
	lis, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return err
	}
	s.listener = lis

	go func() {
		if err := s.server.Serve(lis); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("http: server stopped unexpectedly")
		}
	}()

	log.Infof("http interface listening on %s", s.server.Addr)
	return nil
}

func (s *service) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("http: failed to gracefully shutdown server")
	}
	log.Debug("http interface stopped")
}

func withLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		log.Debugf("%s %s", req.Method, req.URL.Path)
		next.ServeHTTP(w, req)
	})
}
