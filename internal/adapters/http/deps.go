package http

import (
	"github.com/nats-io/nats.go"

	"github.com/aldapa/trackside/internal/adapters/postgres"
	"github.com/aldapa/trackside/internal/adapters/valkey"
	"github.com/aldapa/trackside/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Routes  *usecases.RouteService
	Hazards *usecases.HazardService
	Loops   *usecases.LoopService
	NATS    *nats.Conn
	DB      *postgres.DB
	Cache   *valkey.Cache
}
