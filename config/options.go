package config

import "time"

var (
	DefaultRequestTimeout = 10 * time.Second
	DefaultProbeTimeout   = 5 * time.Second
	DefaultProbeCacheTTL  = 10 * time.Minute

	CatalogCacheMaxSize int64 = 16
	ProbeCacheMaxSize   int64 = 1000

	SessionEventBuffer = 32

	WebSocketWriteTimeout = 5 * time.Second
	WebSocketPingInterval = 30 * time.Second
	WebSocketPongTimeout  = 60 * time.Second
	WebSocketSendBuffer   = 8

	ShutdownGracePeriod = 3 * time.Second
)

var (
	MaxCatalogBytes   int64 = 16 << 20
	MaxErrorBodyBytes int64 = 4 << 10
)
