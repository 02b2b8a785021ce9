package health

import "context"

// CachePinger checks Redis availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// ProviderChecker checks embedding provider availability.
type ProviderChecker interface {
	HealthCheck(ctx context.Context) error
}

// WarehousePinger checks warehouse availability.
type WarehousePinger interface {
	Ping(ctx context.Context) error
}
