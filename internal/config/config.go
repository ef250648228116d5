// Package config holds build metadata and the runtime configuration of the
// barbershop binary.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/edirooss/barbershop/internal/shop"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Build metadata, set with -ldflags "-X".
var (
	Version   = "dev"
	GitCommit = "none"
	BuildDate = "unknown"
)

// Timing mirrors shop.Timing plus the arrival pacing, as YAML durations
// ("1.5s", "300ms").
type Timing struct {
	CutMin     Duration `yaml:"cut_min"`
	CutMax     Duration `yaml:"cut_max"`
	PayMin     Duration `yaml:"pay_min"`
	PayMax     Duration `yaml:"pay_max"`
	ArrivalMax Duration `yaml:"arrival_max"`
}

// Config is the content of barbershop.yaml. Facility sizes are fixed in
// package shop and are not configurable.
type Config struct {
	HTTPAddr string `yaml:"http_address"`
	Port     string `yaml:"port"`

	// Empty RedisAddr disables the Redis sink.
	RedisAddr   string `yaml:"redis_address"`
	RedisStream string `yaml:"redis_stream"`

	// Empty AMQPURL disables the broker sink.
	AMQPURL   string `yaml:"amqp_url"`
	AMQPQueue string `yaml:"amqp_queue"`

	SinkBuffer int    `yaml:"sink_buffer"`
	Timing     Timing `yaml:"timing"`
	IsDev      bool   `yaml:"-"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		HTTPAddr:   "127.0.0.1",
		Port:       "8080",
		SinkBuffer: 1024,
		Timing: Timing{
			CutMin:     Duration(shop.DefaultTiming.CutMin),
			CutMax:     Duration(shop.DefaultTiming.CutMax),
			PayMin:     Duration(shop.DefaultTiming.PayMin),
			PayMax:     Duration(shop.DefaultTiming.PayMax),
			ArrivalMax: Duration(3 * time.Second),
		},
	}
}

// Load reads the optional .env file, then path over the defaults. A missing
// file of either kind is not an error.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.IsDev = os.Getenv("ENV") == "dev"
	return cfg, cfg.Validate()
}

// Validate rejects inverted or negative timing ranges.
func (c Config) Validate() error {
	t := c.Timing
	switch {
	case t.CutMin < 0 || t.PayMin < 0 || t.ArrivalMax < 0:
		return errors.New("timing: durations must not be negative")
	case t.CutMax < t.CutMin:
		return fmt.Errorf("timing: cut_max %s below cut_min %s", t.CutMax, t.CutMin)
	case t.PayMax < t.PayMin:
		return fmt.Errorf("timing: pay_max %s below pay_min %s", t.PayMax, t.PayMin)
	}
	return nil
}

// ShopTiming converts the timing block for package shop.
func (c Config) ShopTiming() shop.Timing {
	return shop.Timing{
		CutMin: time.Duration(c.Timing.CutMin),
		CutMax: time.Duration(c.Timing.CutMax),
		PayMin: time.Duration(c.Timing.PayMin),
		PayMax: time.Duration(c.Timing.PayMax),
	}
}

// Duration is a time.Duration that unmarshals from a Go duration string.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", n.Line, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) String() string { return time.Duration(d).String() }
