package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ds124wfegd/eventwaitlist/internal/entity"

	"github.com/go-redis/redis/v8"
)

// RedisDocument stores the table as a JSON string under a single key.
type RedisDocument struct {
	client *redis.Client
	key    string
}

func NewRedisDocument(client *redis.Client, key string) *RedisDocument {
	return &RedisDocument{client: client, key: key}
}

func (d *RedisDocument) Fetch(ctx context.Context) (entity.WaitlistTable, error) {
	data, err := d.client.Get(ctx, d.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, entity.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to get waitlist from redis: %w", err)
	}

	return decodeTable(data)
}

func (d *RedisDocument) Replace(ctx context.Context, table entity.WaitlistTable) error {
	data, err := json.Marshal(table)
	if err != nil {
		return fmt.Errorf("failed to encode waitlist: %w", err)
	}

	if err := d.client.Set(ctx, d.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to store waitlist in redis: %w", err)
	}
	return nil
}
