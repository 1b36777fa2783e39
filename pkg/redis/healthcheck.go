package redis

import (
	"context"
	"errors"

	backend "github.com/redis/go-redis/v9"
)

// Healthcheck returns a closure that pings the server.
func Healthcheck(client backend.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}
