package valkey

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/mstoykov/envconfig"
	"gopkg.in/guregu/null.v3"
)

const (
	DefaultHost = "127.0.0.1"
	DefaultPort = 6379
	DefaultDB   = 0
)

// ConnectionOptions are the caller supplied connection settings.
// Every field is nullable: unset fields fall back to the defaults when the
// descriptor is built.
type ConnectionOptions struct {
	Host     null.String  `json:"host" envconfig:"VALKEY_HOST"`
	Port     null.Int     `json:"port" envconfig:"VALKEY_PORT"`
	Username null.String  `json:"username" envconfig:"VALKEY_USERNAME"`
	Password null.String  `json:"password" envconfig:"VALKEY_PASSWORD"`
	DB       null.Int     `json:"db" envconfig:"VALKEY_DB"`
	Timeout  NullDuration `json:"timeout" envconfig:"VALKEY_TIMEOUT"`
}

// DefaultConnectionOptions returns host 127.0.0.1, port 6379 and db 0.
func DefaultConnectionOptions() ConnectionOptions {
	return ConnectionOptions{
		Host: null.StringFrom(DefaultHost),
		Port: null.IntFrom(DefaultPort),
		DB:   null.IntFrom(DefaultDB),
	}
}

// Apply overlays the set fields of cfg on top of c.
func (c ConnectionOptions) Apply(cfg ConnectionOptions) ConnectionOptions {
	if cfg.Host.Valid {
		c.Host = cfg.Host
	}
	if cfg.Port.Valid {
		c.Port = cfg.Port
	}
	if cfg.Username.Valid {
		c.Username = cfg.Username
	}
	if cfg.Password.Valid {
		c.Password = cfg.Password
	}
	if cfg.DB.Valid {
		c.DB = cfg.DB
	}
	if cfg.Timeout.Valid {
		c.Timeout = cfg.Timeout
	}
	return c
}

// ConnectionOptionsFromEnv reads VALKEY_HOST, VALKEY_PORT, VALKEY_USERNAME,
// VALKEY_PASSWORD, VALKEY_DB and VALKEY_TIMEOUT from env. Missing variables
// are left unset.
func ConnectionOptionsFromEnv(env map[string]string) (ConnectionOptions, error) {
	opts := ConnectionOptions{}
	err := envconfig.Process("", &opts, func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})
	if err != nil {
		return ConnectionOptions{}, fmt.Errorf("reading connection options from environment: %w", err)
	}
	return opts, nil
}

// NullDuration is a nullable time.Duration, in the same vein as the types
// of gopkg.in/guregu/null.v3. Text is parsed with time.ParseDuration; a bare
// number is taken as milliseconds.
type NullDuration struct {
	Duration time.Duration
	Valid    bool
}

func NullDurationFrom(d time.Duration) NullDuration {
	return NullDuration{Duration: d, Valid: true}
}

func (d *NullDuration) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*d = NullDuration{}
		return nil
	}
	v, err := parseDuration(string(data))
	if err != nil {
		return err
	}
	*d = NullDuration{Duration: v, Valid: true}
	return nil
}

func (d *NullDuration) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte(`null`)) {
		*d = NullDuration{}
		return nil
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch v := v.(type) {
	case float64:
		*d = NullDuration{Duration: time.Duration(v * float64(time.Millisecond)), Valid: true}
		return nil
	case string:
		return d.UnmarshalText([]byte(v))
	default:
		return fmt.Errorf("invalid duration %s", data)
	}
}

func (d NullDuration) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte(`null`), nil
	}
	return json.Marshal(d.Duration.String())
}

func (d NullDuration) ValueOrZero() time.Duration {
	if !d.Valid {
		return 0
	}
	return d.Duration
}

func parseDuration(s string) (time.Duration, error) {
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(s)
}
