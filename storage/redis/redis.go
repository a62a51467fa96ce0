// Package redis implements the storage origin on Redis, for siblings that
// do not share a filesystem. Every Set/Del also publishes the new value on
// a per-key channel, which is how Watch observes changes made by other
// instances.
package redis

import (
	"context"
	"errors"
	"sync"

	goredis "github.com/redis/go-redis/v9"

	st "github.com/unkn0wn-root/entsync/storage"
)

var ErrNilClient = errors.New("redis storage: nil client")

const channelPrefix = "entsync:ev:"

type Store struct {
	rdb         goredis.UniversalClient
	closeClient bool
}

var _ st.WatchableStore = (*Store)(nil)

type Config struct {
	Client      goredis.UniversalClient
	CloseClient bool // set true only if this store exclusively owns the client
}

func New(cfg Config) (*Store, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Store{rdb: cfg.Client, closeClient: cfg.CloseClient}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.rdb.Get(ctx, key).Bytes()
	if err == goredis.Nil {
		return nil, false, nil // miss
	}
	if err != nil {
		return nil, false, err // transport/server error
	}
	return b, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.rdb.Pipelined(ctx, func(p goredis.Pipeliner) error {
		p.Set(ctx, key, value, 0)
		p.Publish(ctx, channelPrefix+key, value)
		return nil
	})
	return err
}

func (s *Store) Del(ctx context.Context, key string) error {
	_, err := s.rdb.Pipelined(ctx, func(p goredis.Pipeliner) error {
		p.Del(ctx, key)
		p.Publish(ctx, channelPrefix+key, "")
		return nil
	})
	return err
}

// Watch subscribes to the per-key channel. fn receives the published value;
// a Del arrives as an empty payload and is delivered as nil.
func (s *Store) Watch(key string, fn func(value []byte)) (func(), error) {
	ps := s.rdb.Subscribe(context.Background(), channelPrefix+key)
	// force the SUBSCRIBE round-trip so a failed connection surfaces here
	if _, err := ps.Receive(context.Background()); err != nil {
		ps.Close()
		return nil, err
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for msg := range ps.Channel() {
			if msg.Payload == "" {
				fn(nil)
				continue
			}
			fn([]byte(msg.Payload))
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() {
			ps.Close()
			wg.Wait()
		})
	}
	return stop, nil
}

// Close releases the underlying redis client only when this store owns it.
// Safe to call multiple times; repeated calls become no-ops.
func (s *Store) Close(context.Context) error {
	if s.closeClient {
		if err := s.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
			return err
		}
	}
	return nil
}
