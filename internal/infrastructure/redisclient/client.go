// Package redisclient implementa sobre Redis el ledger de stock, el consecutivo diario
// y la caché de reportes. Las operaciones compuestas corren como scripts Lua atómicos.
package redisclient

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/billing-engine/pkg/config"
)

//go:embed scripts/reserve_stock.lua
var reserveStockScript string

//go:embed scripts/release_stock.lua
var releaseStockScript string

//go:embed scripts/next_seq.lua
var nextSeqScript string

// Client envuelve la conexión y los scripts cargados.
type Client struct {
	rdb           *redis.Client
	reserveScript *redis.Script
	releaseScript *redis.Script
	nextSeqScript *redis.Script
}

// NewClient conecta y verifica con PING.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Client{
		rdb:           rdb,
		reserveScript: redis.NewScript(reserveStockScript),
		releaseScript: redis.NewScript(releaseStockScript),
		nextSeqScript: redis.NewScript(nextSeqScript),
	}, nil
}

// Redis devuelve el cliente subyacente.
func (c *Client) Redis() *redis.Client {
	return c.rdb
}

// Ping verifica la conexión (health check).
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close cierra la conexión.
func (c *Client) Close() error {
	return c.rdb.Close()
}
