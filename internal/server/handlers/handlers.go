// Package handlers provides HTTP request handlers for the menumerge API.
package handlers

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/agentstation/menumerge"
	"github.com/agentstation/menumerge/internal/server/cache"
	"github.com/agentstation/menumerge/internal/server/events"
	"github.com/agentstation/menumerge/internal/server/sse"
	ws "github.com/agentstation/menumerge/internal/server/websocket"
)

// Deps are the collaborators shared by all handlers.
type Deps struct {
	Client         menumerge.Client
	Cache          *cache.Cache
	Broker         *events.Broker
	WSHub          *ws.Hub
	SSEBroadcaster *sse.Broadcaster
	Upgrader       websocket.Upgrader
	Logger         *zerolog.Logger
	RetryAfter     time.Duration
	StartTime      time.Time
}

// Handlers provides access to all HTTP handlers.
type Handlers struct {
	client         menumerge.Client
	cache          *cache.Cache
	broker         *events.Broker
	wsHub          *ws.Hub
	sseBroadcaster *sse.Broadcaster
	upgrader       websocket.Upgrader
	logger         *zerolog.Logger
	retryAfter     int
	startTime      time.Time
	metrics        *prometheus.Registry
}

// New creates a new Handlers instance.
func New(d Deps) *Handlers {
	retryAfter := int(d.RetryAfter / time.Second)
	if retryAfter < 1 {
		retryAfter = 1
	}
	h := &Handlers{
		client:         d.Client,
		cache:          d.Cache,
		broker:         d.Broker,
		wsHub:          d.WSHub,
		sseBroadcaster: d.SSEBroadcaster,
		upgrader:       d.Upgrader,
		logger:         d.Logger,
		retryAfter:     retryAfter,
		startTime:      d.StartTime,
	}
	h.metrics = h.newMetricsRegistry()
	return h
}
