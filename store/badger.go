package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dgraph-io/badger/v4"

	"github.com/rushteam/shoprec/core"
)

// BadgerStore 是 BadgerDB 实现的 Store，单机部署时持久化浏览历史与计数，重启不丢失。
type BadgerStore struct {
	db    *badger.DB
	owned bool
}

// NewBadgerStore 打开 dir 下的 BadgerDB；dir 为空时使用内存模式。
func NewBadgerStore(dir string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeUnavailable, "store: open badger").Wrap(err)
	}
	return &BadgerStore{db: db, owned: true}, nil
}

// NewBadgerStoreFromDB 复用已打开的 DB，Close 不会关闭它。
func NewBadgerStoreFromDB(db *badger.DB) *BadgerStore {
	return &BadgerStore{db: db}
}

func (b *BadgerStore) Name() string { return "badger" }

func (b *BadgerStore) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return core.ErrStoreNotFound
		}
		if err != nil {
			return fmt.Errorf("get %s: %w", key, err)
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (b *BadgerStore) Set(_ context.Context, key string, value []byte, ttl ...int) error {
	return b.db.Update(func(txn *badger.Txn) error {
		e := badger.NewEntry([]byte(key), value)
		if d := ttlDuration(ttl); d > 0 {
			e = e.WithTTL(d)
		}
		return txn.SetEntry(e)
	})
}

func (b *BadgerStore) Delete(_ context.Context, key string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// IncrBy 在一个事务内读改写；并发冲突时重试。
func (b *BadgerStore) IncrBy(ctx context.Context, key string, delta int64) (int64, error) {
	for {
		var cur int64
		err := b.db.Update(func(txn *badger.Txn) error {
			cur = 0
			item, err := txn.Get([]byte(key))
			switch {
			case errors.Is(err, badger.ErrKeyNotFound):
			case err != nil:
				return err
			default:
				if err := item.Value(func(val []byte) error {
					n, perr := strconv.ParseInt(string(val), 10, 64)
					if perr != nil {
						return core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput, "store: value is not an integer").Wrap(perr)
					}
					cur = n
					return nil
				}); err != nil {
					return err
				}
			}
			cur += delta
			return txn.Set([]byte(key), []byte(strconv.FormatInt(cur, 10)))
		})
		if errors.Is(err, badger.ErrConflict) {
			if ctx.Err() != nil {
				return 0, ctx.Err()
			}
			continue
		}
		if err != nil {
			return 0, err
		}
		return cur, nil
	}
}

func (b *BadgerStore) Close() error {
	if !b.owned {
		return nil
	}
	return b.db.Close()
}

var _ core.CounterStore = (*BadgerStore)(nil)
