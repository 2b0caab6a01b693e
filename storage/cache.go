package storage

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"todo-api/domain"
)

type backend interface {
	InsertTodo(ctx context.Context, t domain.Todo) error
	FetchTodos(ctx context.Context, userEmail string) ([]domain.Todo, error)
	UpdateTodo(ctx context.Context, id int64, u domain.TodoUpdate) (domain.Todo, error)
	DeleteTodo(ctx context.Context, id int64) (string, error)
}

// Cache wraps a Storage instance with Redis-backed caching of per-user
// todo lists. Every mutation evicts the owning user's cached list, so
// staleness is bounded by the TTL only for users mutated elsewhere.
type Cache struct {
	base  backend
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching wrapper using the provided Redis client and
// TTL. A zero TTL disables cache writes but mutations still evict.
func NewCache(base backend, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base storage is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) InsertTodo(ctx context.Context, t domain.Todo) error {
	if err := c.base.InsertTodo(ctx, t); err != nil {
		return err
	}
	c.evict(ctx, t.UserEmail)
	return nil
}

func (c *Cache) FetchTodos(ctx context.Context, userEmail string) ([]domain.Todo, error) {
	if todos, ok := c.loadFromCache(ctx, userEmail); ok {
		return todos, nil
	}

	todos, err := c.base.FetchTodos(ctx, userEmail)
	if err != nil {
		return nil, err
	}

	c.store(ctx, userEmail, todos)
	return todos, nil
}

func (c *Cache) UpdateTodo(ctx context.Context, id int64, u domain.TodoUpdate) (domain.Todo, error) {
	updated, err := c.base.UpdateTodo(ctx, id, u)
	if err != nil {
		return domain.Todo{}, err
	}
	c.evict(ctx, updated.UserEmail)
	return updated, nil
}

func (c *Cache) DeleteTodo(ctx context.Context, id int64) (string, error) {
	owner, err := c.base.DeleteTodo(ctx, id)
	if err != nil {
		return "", err
	}
	if owner != "" {
		c.evict(ctx, owner)
	}
	return owner, nil
}

func (c *Cache) loadFromCache(ctx context.Context, userEmail string) ([]domain.Todo, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, todosCacheKey(userEmail)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to the backing storage without failing.
			_ = c.redis.Del(ctx, todosCacheKey(userEmail)).Err()
		}
		return nil, false
	}
	var todos []domain.Todo
	if err := sonic.Unmarshal(data, &todos); err != nil {
		_ = c.redis.Del(ctx, todosCacheKey(userEmail)).Err()
		return nil, false
	}
	return todos, true
}

func (c *Cache) store(ctx context.Context, userEmail string, todos []domain.Todo) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := sonic.Marshal(todos)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, todosCacheKey(userEmail), data, c.ttl).Err()
}

func (c *Cache) evict(ctx context.Context, userEmail string) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, todosCacheKey(userEmail)).Result()
}

func todosCacheKey(userEmail string) string {
	return "todos:" + userEmail
}
