package redis

import (
	"context"
	"fmt"

	backend "github.com/redis/go-redis/v9"
)

// Connect parses a redis:// URL, creates a client and checks connectivity.
func Connect(ctx context.Context, url string) (*backend.Client, error) {
	opts, err := backend.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := backend.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}
	return client, nil
}
