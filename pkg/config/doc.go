// Package config loads configuration structs from environment variables.
//
// Fields are described with github.com/caarlos0/env/v11 struct tags. Dotenv
// files are read with github.com/joho/godotenv and only fill variables the
// process environment does not set, so deployments can always override them.
//
//	type Config struct {
//		Backend     string `env:"STATECTL_BACKEND" envDefault:"sqlite"`
//		Definitions string `env:"STATECTL_DEFINITIONS,required"`
//	}
//
//	var cfg Config
//	config.MustLoad(&cfg, config.WithEnvFiles(".env", ".env.local"))
//
// Every backend package owns its Config type (pg.Config, mongo.Config,
// redis.Config, sqlite.Config) and is loaded the same way.
package config
