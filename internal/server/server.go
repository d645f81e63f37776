// Package server provides the HTTP API for menumerge: primary dataset
// submission, snapshot reads, operational endpoints and realtime updates.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/agentstation/menumerge"
	"github.com/agentstation/menumerge/internal/server/cache"
	"github.com/agentstation/menumerge/internal/server/events"
	"github.com/agentstation/menumerge/internal/server/events/adapters"
	"github.com/agentstation/menumerge/internal/server/middleware"
	"github.com/agentstation/menumerge/internal/server/sse"
	ws "github.com/agentstation/menumerge/internal/server/websocket"
	"github.com/agentstation/menumerge/pkg/constants"
	"github.com/agentstation/menumerge/pkg/errors"
	"github.com/agentstation/menumerge/pkg/menus"
	"github.com/agentstation/menumerge/pkg/reconciler"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	client         menumerge.Client
	cache          *cache.Cache
	broker         *events.Broker
	wsHub          *ws.Hub
	sseBroadcaster *sse.Broadcaster
	limiter        *middleware.RateLimiter
	upgrader       websocket.Upgrader
	logger         *zerolog.Logger
	config         Config
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	startTime      time.Time
}

// New creates a server for client. The client's hooks are connected to the
// event broker, so New must be called once per client.
func New(client menumerge.Client, cfg Config, logger *zerolog.Logger) (*Server, error) {
	if client == nil {
		return nil, errors.NewConfigError("server", "client is required", nil)
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = constants.CacheTTL
	}
	if cfg.RetryAfter <= 0 {
		cfg.RetryAfter = 5 * time.Second
	}

	broker := events.NewBroker(logger)
	wsHub := ws.NewHub(logger)
	sseBroadcaster := sse.NewBroadcaster(logger)

	broker.Subscribe(adapters.NewWebSocketSubscriber(wsHub))
	broker.Subscribe(adapters.NewSSESubscriber(sseBroadcaster))
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := adapters.NewKafkaSubscriber(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, errors.NewConfigError("kafka", "invalid event streaming settings", err)
		}
		broker.Subscribe(kafka)
		logger.Info().
			Strs("brokers", cfg.KafkaBrokers).
			Str("topic", cfg.KafkaTopic).
			Msg("Kafka event publishing enabled")
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		client:         client,
		cache:          cache.New(cfg.CacheTTL, constants.CacheCleanupInterval),
		broker:         broker,
		wsHub:          wsHub,
		sseBroadcaster: sseBroadcaster,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(_ *http.Request) bool {
				return true
			},
		},
		logger:    logger,
		config:    cfg,
		ctx:       ctx,
		cancel:    cancel,
		startTime: time.Now(),
	}
	if cfg.RateLimit > 0 {
		s.limiter = middleware.NewRateLimiter(cfg.RateLimit, logger)
	}

	s.connectHooks()
	return s, nil
}

// connectHooks forwards client events to the broker. A replaced snapshot
// also invalidates the encoded response cache.
func (s *Server) connectHooks() {
	s.client.OnSnapshotReplaced(func(snapshot *menus.Snapshot, stats reconciler.Stats) {
		s.cache.Clear()
		s.broker.Publish(events.SnapshotReplaced, map[string]any{
			"last_update": snapshot.LastUpdate,
			"groups":      len(snapshot.Data),
			"stats":       stats,
		})
	})

	s.client.OnPrimarySubmitted(func(primary *menus.PrimaryDataset) {
		s.broker.Publish(events.PrimarySubmitted, map[string]any{
			"items":     len(primary.Menus),
			"vat_rates": len(primary.VatRates),
		})
	})

	s.client.OnCycleFailed(func(cycleID string, err error) {
		s.broker.Publish(events.CycleFailed, map[string]any{
			"cycle_id": cycleID,
			"error":    err.Error(),
		})
	})

	s.logger.Debug().Msg("Client hooks connected to event broker")
}

// Start starts background services (broker, WebSocket hub, SSE broadcaster,
// rate limiter cleanup).
func (s *Server) Start() {
	s.goBackground(s.broker.Run)
	s.goBackground(s.wsHub.Run)
	s.goBackground(s.sseBroadcaster.Run)
	if s.limiter != nil {
		s.goBackground(func(ctx context.Context) {
			s.limiter.Cleanup(ctx, time.Minute)
		})
	}
	s.logger.Debug().Msg("Background services started")
}

func (s *Server) goBackground(fn func(context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(s.ctx)
	}()
}

// Handler returns the configured http.Handler with middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.setupRouter()
}

// HTTPServer returns an http.Server bound to the configured address.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Host, s.config.Port),
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}
}

// Shutdown stops the background services and waits for them, bounded by ctx.
// Streaming clients are disconnected.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down server background services")
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info().Msg("Background services shut down")
		return nil
	case <-ctx.Done():
		s.logger.Warn().Msg("Background services shutdown timed out")
		return errors.NewTimeoutError("server shutdown", "", ctx.Err().Error())
	}
}

// Cache returns the server's cache instance.
func (s *Server) Cache() *cache.Cache {
	return s.cache
}

// Broker returns the event broker for publishing events.
func (s *Server) Broker() *events.Broker {
	return s.broker
}
