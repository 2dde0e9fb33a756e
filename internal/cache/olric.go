package cache

import (
	"context"
	"errors"
	"io"
	stdlog "log"
	"net"
	"strconv"
	"time"

	"github.com/olric-data/olric"
	olricconfig "github.com/olric-data/olric/config"
	"github.com/rs/zerolog"
)

const (
	olricStartTimeout = 10 * time.Second
	olricPingKey      = "__transit_gate_ping__"
)

// olricCache shares trust entries across gate replicas. db is nil when the
// gate is only a cluster client.
type olricCache struct {
	db     *olric.Olric
	client olric.Client
	dmap   olric.DMap
	log    zerolog.Logger
	guard
}

var (
	_ Cache  = (*olricCache)(nil)
	_ Pinger = (*olricCache)(nil)
)

func splitBindAddr(addr string) (string, int) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return addr, 0
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return host, 0
	}
	return host, port
}

func newOlricCache(ctx context.Context, cfg *OlricConfig) (*olricCache, error) {
	log := logger().With().Str("backend", "olric").Str("dmap", cfg.GetDMapName()).Logger()
	if cfg.Embedded {
		return startEmbeddedOlric(ctx, cfg, log)
	}
	return dialOlricCluster(ctx, cfg, log)
}

func startEmbeddedOlric(ctx context.Context, cfg *OlricConfig, log zerolog.Logger) (*olricCache, error) {
	c := olricconfig.New("local")
	host, port := splitBindAddr(cfg.BindAddr)
	c.BindAddr = host
	if port > 0 {
		c.BindPort = port
	}
	if len(cfg.Peers) > 0 {
		c.Peers = cfg.Peers
	}
	c.LogOutput = io.Discard
	c.Logger = stdlog.New(io.Discard, "", 0)

	ready := make(chan struct{})
	c.Started = func() { close(ready) }

	db, err := olric.New(c)
	if err != nil {
		log.Error().Err(err).Msg("olric: failed to create embedded member")
		return nil, err
	}

	startErr := make(chan error, 1)
	go func() {
		if err := db.Start(); err != nil {
			startErr <- err
		}
	}()

	startCtx, cancel := context.WithTimeout(ctx, olricStartTimeout)
	defer cancel()

	select {
	case <-ready:
	case err := <-startErr:
		log.Error().Err(err).Msg("olric: embedded member failed to start")
		return nil, err
	case <-startCtx.Done():
		shutdownOlric(db, log)
		return nil, startCtx.Err()
	}

	client := db.NewEmbeddedClient()
	dm, err := client.NewDMap(cfg.GetDMapName())
	if err != nil {
		log.Error().Err(err).Msg("olric: failed to open dmap")
		shutdownOlric(db, log)
		return nil, err
	}

	log.Info().Str("bind_addr", host).Int("bind_port", port).Int("peers", len(cfg.Peers)).
		Msg("olric embedded trust cache started")
	return &olricCache{db: db, client: client, dmap: dm, log: log}, nil
}

func dialOlricCluster(ctx context.Context, cfg *OlricConfig, log zerolog.Logger) (*olricCache, error) {
	client, err := olric.NewClusterClient(cfg.Addresses)
	if err != nil {
		log.Error().Err(err).Strs("addresses", cfg.Addresses).Msg("olric: failed to reach cluster")
		return nil, err
	}

	dm, err := client.NewDMap(cfg.GetDMapName())
	if err != nil {
		log.Error().Err(err).Msg("olric: failed to open dmap")
		if closeErr := client.Close(ctx); closeErr != nil {
			log.Error().Err(closeErr).Msg("olric: failed to close client")
		}
		return nil, err
	}

	log.Info().Strs("addresses", cfg.Addresses).Msg("olric cluster trust cache connected")
	return &olricCache{client: client, dmap: dm, log: log}, nil
}

func shutdownOlric(db *olric.Olric, log zerolog.Logger) {
	if err := db.Shutdown(context.Background()); err != nil {
		log.Error().Err(err).Msg("olric: shutdown failed")
	}
}

func (o *olricCache) Get(ctx context.Context, key string) ([]byte, error) {
	release, err := o.enter(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	resp, err := o.dmap.Get(ctx, key)
	if errors.Is(err, olric.ErrKeyNotFound) {
		o.log.Debug().Bool("hit", false).Msg("trust cache get")
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	value, err := resp.Byte()
	if err != nil {
		return nil, err
	}
	o.log.Debug().Bool("hit", true).Msg("trust cache get")
	return cloneBytes(value), nil
}

func (o *olricCache) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	release, err := o.enter(ctx)
	if err != nil {
		return err
	}
	defer release()

	if err := o.dmap.Put(ctx, key, cloneBytes(value), olric.EX(ttl)); err != nil {
		o.log.Debug().Err(err).Msg("trust cache set failed")
		return err
	}
	return nil
}

func (o *olricCache) Delete(ctx context.Context, key string) error {
	release, err := o.enter(ctx)
	if err != nil {
		return err
	}
	defer release()

	_, err = o.dmap.Delete(ctx, key)
	if errors.Is(err, olric.ErrKeyNotFound) {
		return nil
	}
	return err
}

// Ping treats a miss on a sentinel key as healthy.
func (o *olricCache) Ping(ctx context.Context) error {
	release, err := o.enter(ctx)
	if err != nil {
		return err
	}
	defer release()

	_, err = o.dmap.Get(ctx, olricPingKey)
	if err == nil || errors.Is(err, olric.ErrKeyNotFound) {
		return nil
	}
	return err
}

func (o *olricCache) Close() error {
	var closeErr error
	o.shut(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if o.db != nil {
			closeErr = o.db.Shutdown(ctx)
		} else {
			closeErr = o.client.Close(ctx)
		}
		o.log.Info().Err(closeErr).Msg("olric trust cache closed")
	})
	return closeErr
}
