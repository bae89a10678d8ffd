package appServer

import (
	"context"
	"crypto/tls"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ds124wfegd/eventwaitlist/config"
	"github.com/ds124wfegd/eventwaitlist/internal/service"
	"github.com/ds124wfegd/eventwaitlist/internal/transport"
	"github.com/ds124wfegd/eventwaitlist/internal/worker"
	"github.com/ds124wfegd/eventwaitlist/pkg/eventsapi"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Server struct {
	httpServer *http.Server
}

func (s *Server) Run(cfg *config.Config, handler http.Handler) error {
	s.httpServer = &http.Server{
		Addr:              cfg.GetServerAddress(),
		Handler:           handler,
		MaxHeaderBytes:    1 << 20,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
		ReadHeaderTimeout: 3 * time.Second,
		TLSConfig:         &tls.Config{MinVersion: tls.VersionTLS12},           // ban on outdate TLS certificate
		ErrorLog:          log.New(os.Stderr, "SERVER ERROR: ", log.LstdFlags), // os.Stderr can be replaced with ElsasticSearch in the feature
	}
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func NewServer(cfg *config.Config) {

	setupLogger(cfg.Log.Level)

	// Initialize storage
	store, closeStore, err := newTableStore(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize waitlist storage: %v", err)
	}
	defer closeStore()
	logrus.WithField("backend", cfg.Storage.Backend).Info("Waitlist storage initialized")

	// Initialize events API client
	eventsClient := eventsapi.NewClient(cfg.EventsAPI.BaseURL, cfg.EventsAPI.APIKey, cfg.EventsAPI.Timeout)
	if !eventsClient.Configured() {
		logrus.Warn("Events API base URL not provided, event routes disabled")
	}

	// Initialize services
	waitlistService := service.NewWaitlistService(store)
	eventService := service.NewEventService(eventsClient, waitlistService)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize prune worker
	if cfg.Worker.PruneInterval > 0 {
		pruneWorker := worker.NewWaitlistPruneWorker(waitlistService, cfg.Worker.PruneInterval)
		go pruneWorker.Start(ctx)
	} else {
		logrus.Info("Waitlist prune worker disabled")
	}

	// Initialize handlers
	waitlistHandler := transport.NewWaitlistHandler(waitlistService)
	eventHandler := transport.NewEventHandler(eventService)

	// Setup HTTP server
	if cfg.IsProduction() || cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := new(Server)
	go func() {
		if err := srv.Run(cfg, transport.InitRoutes(waitlistHandler, eventHandler, cfg.Server.RequestTimeout)); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("error occured while running http server: %s", err.Error())
		}
	}()

	logrus.WithField("addr", cfg.GetServerAddress()).Print("App Started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	logrus.Print("App Shutting Down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("error occured on server shutting down: %s", err.Error())
	}
}

func setupLogger(level string) {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetOutput(os.Stdout)

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		logrus.Warnf("Unknown log level %q, using info", level)
		parsed = logrus.InfoLevel
	}
	logrus.SetLevel(parsed)
}
