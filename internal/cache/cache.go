package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	applog "shopcatalog/internal/log"
)

// Stamp is the invalidation state a miss was observed under. Set uses it to
// refuse bytes built before a later invalidation.
type Stamp struct {
	Gen int64
	Ver int64
}

// ProductCache holds serialized product representations keyed by product id.
type ProductCache interface {
	// Get returns the cached bytes or, on a miss, the stamp to hand to Set.
	Get(ctx context.Context, id string) ([]byte, Stamp, bool)
	// Set stores data unless id was invalidated after stamp was taken.
	Set(ctx context.Context, id string, stamp Stamp, data []byte)
	Invalidate(ctx context.Context, ids ...string)
	InvalidateAll(ctx context.Context)
}

// Nop caches nothing.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, Stamp, bool) { return nil, Stamp{}, false }
func (Nop) Set(context.Context, string, Stamp, []byte)        {}
func (Nop) Invalidate(context.Context, ...string)             {}
func (Nop) InvalidateAll(context.Context)                     {}

const genKey = "product:gen"

// Redis stores representations under product:v<gen>:<id>. Bumping the
// generation orphans every entry at once; orphans expire with the TTL.
// Each id also has a version counter, bumped on every invalidation.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedis(addr, password string, db int, ttl time.Duration) *Redis {
	return NewRedisFromClient(redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}), ttl)
}

func NewRedisFromClient(rdb *redis.Client, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Redis{rdb: rdb, ttl: ttl}
}

// Ping reports whether the server is reachable.
func (r *Redis) Ping(ctx context.Context) error { return r.rdb.Ping(ctx).Err() }

func (r *Redis) Close() error { return r.rdb.Close() }

func (r *Redis) key(gen int64, id string) string {
	return fmt.Sprintf("product:v%d:%s", gen, id)
}

func verKey(id string) string { return "product:ver:" + id }

type mgetter interface {
	MGet(ctx context.Context, keys ...string) *redis.SliceCmd
}

// stamp reads the generation and the id's version in one round trip.
func (r *Redis) stamp(ctx context.Context, c mgetter, id string) (Stamp, error) {
	vals, err := c.MGet(ctx, genKey, verKey(id)).Result()
	if err != nil {
		return Stamp{}, err
	}
	var st Stamp
	for i, dst := range []*int64{&st.Gen, &st.Ver} {
		s, ok := vals[i].(string)
		if !ok {
			continue
		}
		if *dst, err = strconv.ParseInt(s, 10, 64); err != nil {
			return Stamp{}, err
		}
	}
	return st, nil
}

func (r *Redis) Get(ctx context.Context, id string) ([]byte, Stamp, bool) {
	st, err := r.stamp(ctx, r.rdb, id)
	if err != nil {
		r.warn("cache.get", err, id)
		return nil, st, false
	}
	b, err := r.rdb.Get(ctx, r.key(st.Gen, id)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.warn("cache.get", err, id)
		}
		return nil, st, false
	}
	return b, st, true
}

// Set writes under WATCH so an invalidation racing the write aborts it.
func (r *Redis) Set(ctx context.Context, id string, stamp Stamp, data []byte) {
	err := r.rdb.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := r.stamp(ctx, tx, id)
		if err != nil {
			return err
		}
		if cur != stamp {
			return errStale
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, r.key(cur.Gen, id), data, r.ttl)
			return nil
		})
		return err
	}, genKey, verKey(id))
	switch {
	case err == nil, errors.Is(err, errStale), errors.Is(err, redis.TxFailedErr):
	default:
		r.warn("cache.set", err, id)
	}
}

var errStale = errors.New("cache: representation invalidated while building")

func (r *Redis) Invalidate(ctx context.Context, ids ...string) {
	if len(ids) == 0 {
		return
	}
	gen, err := r.rdb.Get(ctx, genKey).Int64()
	if errors.Is(err, redis.Nil) {
		err = nil
	}
	if err == nil {
		_, err = r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
			for _, id := range ids {
				p.Incr(ctx, verKey(id))
				p.Del(ctx, r.key(gen, id))
			}
			return nil
		})
	}
	if err != nil {
		r.warn("cache.invalidate", err, ids...)
	}
}

func (r *Redis) InvalidateAll(ctx context.Context) {
	if err := r.rdb.Incr(ctx, genKey).Err(); err != nil {
		r.warn("cache.invalidate_all", err)
	}
}

func (r *Redis) warn(action string, err error, ids ...string) {
	applog.L().Warn(action, zap.Error(err), zap.Strings("ids", ids))
}
