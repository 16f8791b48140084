package config

import "time"

// Pairing and signature freshness windows
const (
	PairingTTL       = 10 * time.Minute
	MaxSignatureSkew = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 60 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Outbound delivery
const OutboundRequestTimeout = 30 * time.Second

// Database connection pool settings
const (
	DBMaxOpenConns    = 25
	DBMaxIdleConns    = 5
	DBConnMaxLifetime = 5 * time.Minute
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Background job intervals
const (
	CleanupJobInterval   = 5 * time.Minute
	DeliveryLogRetention = 14 * 24 * time.Hour
)
