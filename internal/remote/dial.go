package remote

import (
	"go.uber.org/zap"

	"studytracker/backend/internal/config"
	"studytracker/backend/internal/query"
)

// Dial builds a client for cfg and a query layer already connected to it.
// The layer caches reads for cfg.CacheTTL; opts are applied after that and
// may override it.
func Dial(cfg config.ClientConfig, log *zap.Logger, opts ...query.Option) (*query.Layer, *Client) {
	client := New(cfg, WithLogger(log))
	layerOpts := append([]query.Option{
		query.WithCacheTTL(cfg.CacheTTL),
		query.WithLogger(log),
	}, opts...)
	layer := query.New(layerOpts...)
	layer.Connect(client)
	return layer, client
}

// DialEnv is Dial with the configuration read from the environment.
func DialEnv(log *zap.Logger, opts ...query.Option) (*query.Layer, *Client) {
	return Dial(config.LoadClient(), log, opts...)
}
