package config

import (
	"errors"
	"fmt"
	"maps"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// DefaultEnvFile is read by Load when no env files are given and it exists.
const DefaultEnvFile = ".env"

type options struct {
	files   []string
	prefix  string
	environ map[string]string
}

// Option configures Load.
type Option func(*options)

// WithEnvFiles reads the given dotenv files instead of DefaultEnvFile.
// Later files override earlier ones; a missing file is an error.
func WithEnvFiles(paths ...string) Option {
	return func(o *options) {
		o.files = append(o.files, paths...)
	}
}

// WithPrefix prepends prefix to every env tag.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// WithEnviron replaces the process environment as the source of variables.
func WithEnviron(environ map[string]string) Option {
	return func(o *options) {
		o.environ = environ
	}
}

// Load parses environment variables into v using its `env` struct tags.
// Values from dotenv files fill in whatever the environment leaves unset;
// the process environment always wins.
//
//	type Config struct {
//		Backend string `env:"STATECTL_BACKEND" envDefault:"sqlite"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
func Load[T any](v *T, opts ...Option) error {
	if v == nil {
		return ErrNilPointer
	}
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	environ, err := o.environment()
	if err != nil {
		return err
	}
	if err := env.ParseWithOptions(v, env.Options{Prefix: o.prefix, Environment: environ}); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad works like Load but panics if loading fails.
func MustLoad[T any](v *T, opts ...Option) {
	if err := Load(v, opts...); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}

func (o options) environment() (map[string]string, error) {
	files := o.files
	if len(files) == 0 {
		if _, err := os.Stat(DefaultEnvFile); err == nil {
			files = []string{DefaultEnvFile}
		}
	}

	out := make(map[string]string)
	if len(files) > 0 {
		fromFiles, err := godotenv.Read(files...)
		if err != nil {
			return nil, errors.Join(ErrLoadingEnvFile, err)
		}
		maps.Copy(out, fromFiles)
	}

	if o.environ != nil {
		maps.Copy(out, o.environ)
	} else {
		maps.Copy(out, env.ToMap(os.Environ()))
	}
	return out, nil
}
