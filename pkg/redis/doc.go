// Package redis connects to Redis with go-redis and stores records as hashes.
//
// Each record lives under "<prefix><kind>:<id>" with one JSON-encoded hash
// field per attribute. Save replaces the hash inside MULTI/EXEC; UpdateFields
// runs a small script that sets fields only on an existing hash, so a single
// attribute update never resurrects a deleted record.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//	    return err
//	}
//	store := redis.NewStore(client, redis.WithKeyPrefix(cfg.KeyPrefix))
package redis
