package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const DefaultFile = "golemate.json"

type Config struct {
	Engine      EngineConfig      `json:"engine"`
	Distributed DistributedConfig `json:"distributed"`
	Server      ServerConfig      `json:"server"`
	Log         LogConfig         `json:"log"`
}

type EngineConfig struct {
	Path    string `json:"path"`    // local UCI engine binary
	Threads int    `json:"threads"` //
	Hash    int    `json:"hash"`    // MB
}

type DistributedConfig struct {
	ServerURL      string `json:"server_url"`
	DataDir        string `json:"datadir"`
	Hash           int    `json:"hash"` // MB
	PollMillis     int    `json:"poll_interval_ms"`
	TimeoutSeconds int    `json:"timeout_s"` // whole remote run, 0: no bound
}

func (d DistributedConfig) PollInterval() time.Duration {
	return time.Duration(d.PollMillis) * time.Millisecond
}

func (d DistributedConfig) Timeout() time.Duration {
	return time.Duration(d.TimeoutSeconds) * time.Second
}

type ServerConfig struct {
	Addr      string `json:"addr"`
	QueueSize int    `json:"queue_size"`
}

type LogConfig struct {
	Level   string `json:"level"`   // debug/info/warn/error
	File    string `json:"file"`    // empty: stderr
	Debug   bool   `json:"debug"`   // development encoder
	Console bool   `json:"console"` // console encoder on stderr
}

func defaultConfig() Config {
	return Config{
		Engine: EngineConfig{
			Threads: 8,
			Hash:    1024,
		},
		Distributed: DistributedConfig{
			ServerURL:      "http://localhost:8080",
			Hash:           128,
			PollMillis:     500,
			TimeoutSeconds: 1800,
		},
		Server: ServerConfig{
			Addr:      ":8080",
			QueueSize: 100,
		},
		Log: LogConfig{
			Level: "info",
			File:  "golemate.log",
		},
	}
}

// Load reads file (defaults when it does not exist), then .env and the
// GOLEMATE_* environment variables on top.
func Load(file string) (*Config, error) {
	if file == "" {
		file = DefaultFile
	}
	c := defaultConfig()

	if _, err := os.Stat(file); err == nil {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if err := json.NewDecoder(f).Decode(&c); err != nil {
			return nil, fmt.Errorf("error decode config %s: %v", file, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	// a missing .env is fine
	_ = godotenv.Load()
	if err := applyEnv(&c); err != nil {
		return nil, err
	}
	correctableConfig(&c)
	return &c, nil
}

func (c *Config) Save(file string) error {
	jsonData, err := json.MarshalIndent(c, "", "    ")
	if err != nil {
		return err
	}
	return os.WriteFile(file, jsonData, 0644)
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs error
	if c.Engine.Threads <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("engine.threads must be positive, got %d", c.Engine.Threads))
	}
	if c.Engine.Hash <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("engine.hash must be positive, got %d", c.Engine.Hash))
	}
	if c.Distributed.Hash <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("distributed.hash must be positive, got %d", c.Distributed.Hash))
	}
	if c.Distributed.PollMillis <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("distributed.poll_interval_ms must be positive, got %d", c.Distributed.PollMillis))
	}
	if c.Distributed.TimeoutSeconds < 0 {
		errs = multierror.Append(errs, fmt.Errorf("distributed.timeout_s must not be negative, got %d", c.Distributed.TimeoutSeconds))
	}
	if c.Server.QueueSize <= 0 {
		errs = multierror.Append(errs, fmt.Errorf("server.queue_size must be positive, got %d", c.Server.QueueSize))
	}
	return errs
}

// GOLEMATE_HASH sets both hash sizes, like the --hash flag.
var envInts = map[string]func(c *Config, n int){
	"GOLEMATE_THREADS":    func(c *Config, n int) { c.Engine.Threads = n },
	"GOLEMATE_HASH":       func(c *Config, n int) { c.Engine.Hash, c.Distributed.Hash = n, n },
	"GOLEMATE_QUEUE_SIZE": func(c *Config, n int) { c.Server.QueueSize = n },
	"GOLEMATE_POLL_MS":    func(c *Config, n int) { c.Distributed.PollMillis = n },
	"GOLEMATE_TIMEOUT_S":  func(c *Config, n int) { c.Distributed.TimeoutSeconds = n },
}

var envStrings = map[string]func(c *Config) *string{
	"GOLEMATE_ENGINE_PATH": func(c *Config) *string { return &c.Engine.Path },
	"GOLEMATE_SERVER_URL":  func(c *Config) *string { return &c.Distributed.ServerURL },
	"GOLEMATE_DATADIR":     func(c *Config) *string { return &c.Distributed.DataDir },
	"GOLEMATE_SERVER_ADDR": func(c *Config) *string { return &c.Server.Addr },
	"GOLEMATE_LOG_LEVEL":   func(c *Config) *string { return &c.Log.Level },
	"GOLEMATE_LOG_FILE":    func(c *Config) *string { return &c.Log.File },
}

func applyEnv(c *Config) error {
	for name, field := range envStrings {
		if v, ok := os.LookupEnv(name); ok {
			*field(c) = v
		}
	}
	var errs error
	for name, set := range envInts {
		v, ok := os.LookupEnv(name)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "error converting %s", name))
			continue
		}
		set(c, n)
	}
	return errs
}

func correctableConfig(c *Config) {
	def := defaultConfig()
	if c.Engine.Threads <= 0 {
		c.Engine.Threads = def.Engine.Threads
	}
	if c.Engine.Hash <= 0 {
		c.Engine.Hash = def.Engine.Hash
	}
	if c.Distributed.Hash <= 0 {
		c.Distributed.Hash = def.Distributed.Hash
	}
	if c.Distributed.PollMillis <= 0 {
		c.Distributed.PollMillis = def.Distributed.PollMillis
	}
	if c.Distributed.TimeoutSeconds < 0 {
		c.Distributed.TimeoutSeconds = def.Distributed.TimeoutSeconds
	}
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	if c.Server.QueueSize <= 0 {
		c.Server.QueueSize = def.Server.QueueSize
	}
	if _, ok := levels[c.Log.Level]; !ok {
		c.Log.Level = def.Log.Level
	}
}

var levels = map[string]struct{}{"debug": {}, "info": {}, "warn": {}, "error": {}}
