package erp

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/unkn0wn-root/entsync"
	"github.com/unkn0wn-root/entsync/auth"
	"github.com/unkn0wn-root/entsync/broadcast"
	"github.com/unkn0wn-root/entsync/connectivity"
	"github.com/unkn0wn-root/entsync/remote"
	"github.com/unkn0wn-root/entsync/storage"
	filestore "github.com/unkn0wn-root/entsync/storage/file"
	redisstore "github.com/unkn0wn-root/entsync/storage/redis"
)

// Env is one application instance's view of the synchronization layer:
// the shared components plus one store per entity kind.
type Env struct {
	Monitor   *connectivity.Monitor
	Client    *remote.Client
	Broadcast *broadcast.Broadcaster
	Snapshots storage.WatchableStore

	Customers entsync.Store[Customer]
	Products  entsync.Store[Product]
	Orders    entsync.Store[Order]
	Documents entsync.Store[Document]
	Inventory entsync.Store[InventoryItem]
}

// Open wires the layer from cfg. The storage origin is Redis when
// cfg.RedisAddr is set, otherwise a directory of snapshot files; instances
// sharing that origin invalidate each other. log and notify may be nil.
func Open(cfg entsync.Config, log entsync.Logger, notify entsync.Notifier) (*Env, error) {
	if log == nil {
		log = entsync.NopLogger{}
	}
	if notify == nil {
		notify = entsync.NopNotifier{}
	}
	if cfg.StorageDir == "" {
		cfg.StorageDir = ".entsync"
	}

	monitor := connectivity.NewMonitor(true)

	var tokens auth.TokenSource = auth.Nop{}
	if cfg.Token != "" {
		if src, err := auth.NewJWT(cfg.Token); err == nil {
			tokens = src
		} else {
			// not a JWT; attach it opaquely and let the server judge
			tokens = auth.Static(cfg.Token)
		}
	}

	client, err := remote.New(remote.Config{
		BaseURL:      cfg.BaseURL,
		Connectivity: monitor,
		Tokens:       tokens,
		Notifier:     notify,
		Logger:       log,
	})
	if err != nil {
		return nil, err
	}

	var snaps storage.WatchableStore
	if cfg.RedisAddr != "" {
		snaps, err = redisstore.New(redisstore.Config{
			Client:      goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr}),
			CloseClient: true,
		})
	} else {
		snaps, err = filestore.New(cfg.StorageDir)
	}
	if err != nil {
		return nil, err
	}

	bcast, err := broadcast.New(broadcast.Options{Bus: snaps, Logger: log})
	if err != nil {
		snaps.Close(context.Background())
		return nil, err
	}

	env := &Env{
		Monitor:   monitor,
		Client:    client,
		Broadcast: bcast,
		Snapshots: snaps,
	}
	ttl := time.Duration(cfg.TTL)

	fail := func(err error) (*Env, error) {
		env.Close(context.Background())
		return nil, err
	}

	if env.Customers, err = entsync.New(entsync.Options[Customer, customerWire]{
		Entity:    EntityCustomer,
		Source:    remote.NewCollection[customerWire](client, "/customers"),
		Map:       customerMapping(),
		Snapshots: snaps,
		Broadcast: bcast,
		Logger:    log,
		Notifier:  notify,
		TTL:       ttl,
	}); err != nil {
		return fail(err)
	}

	if env.Products, err = entsync.New(entsync.Options[Product, productWire]{
		Entity:    EntityProduct,
		Source:    remote.NewCollection[productWire](client, "/products"),
		Map:       productMapping(),
		Snapshots: snaps,
		Broadcast: bcast,
		Logger:    log,
		Notifier:  notify,
		TTL:       ttl,
	}); err != nil {
		return fail(err)
	}

	if env.Orders, err = entsync.New(entsync.Options[Order, orderWire]{
		Entity:    EntityOrder,
		Source:    remote.NewCollection[orderWire](client, "/orders"),
		Map:       orderMapping(),
		Snapshots: snaps,
		Broadcast: bcast,
		Logger:    log,
		Notifier:  notify,
		TTL:       ttl,
	}); err != nil {
		return fail(err)
	}

	if env.Documents, err = entsync.New(entsync.Options[Document, documentWire]{
		Entity:    EntityDocument,
		Source:    remote.NewCollection[documentWire](client, "/documents"),
		Map:       documentMapping(),
		Snapshots: snaps,
		Broadcast: bcast,
		Logger:    log,
		Notifier:  notify,
		TTL:       ttl,
	}); err != nil {
		return fail(err)
	}

	if env.Inventory, err = entsync.New(entsync.Options[InventoryItem, inventoryWire]{
		Entity:    EntityInventory,
		Source:    remote.NewCollection[inventoryWire](client, "/inventory"),
		Map:       inventoryMapping(),
		Snapshots: snaps,
		Broadcast: bcast,
		Logger:    log,
		Notifier:  notify,
		TTL:       ttl,
	}); err != nil {
		return fail(err)
	}

	return env, nil
}

// Close detaches every store, stops the broadcaster and releases the
// storage origin. Durable snapshots already written stay behind.
func (e *Env) Close(ctx context.Context) error {
	for _, s := range []interface{ Close() error }{
		e.Customers, e.Products, e.Orders, e.Documents, e.Inventory,
	} {
		if s != nil {
			_ = s.Close()
		}
	}
	if e.Broadcast != nil {
		_ = e.Broadcast.Close()
	}
	if e.Snapshots != nil {
		return e.Snapshots.Close(ctx)
	}
	return nil
}
