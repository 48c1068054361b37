package ops

import (
	"encoding/json"
	"fmt"
	"os"

	"main/internal/guard"
	"main/internal/model"
	"main/internal/strategy/grid"
	"main/internal/txmgr"
)

// FileConfig mirrors the JSON config layout.
type FileConfig struct {
	Pair      model.Pair       `json:"pair"`
	Engine    EngineConfig     `json:"engine"`
	Txmgr     txmgr.Config     `json:"txmgr"`
	Guard     guard.Config     `json:"guard"`
	Grid      grid.Config      `json:"grid"`
	Journal   JournalConfig    `json:"journal"`
	Profiling ProfilingConfig  `json:"profiling"`
}

// EngineConfig sizes the inbound queue.
type EngineConfig struct {
	QueueCapacity int `json:"queueCapacity"`
}

// JournalConfig enables the Postgres journal when a DSN is set.
type JournalConfig struct {
	DSN string `json:"dsn"`
}

// ProfilingConfig enables pyroscope when a server address is set.
type ProfilingConfig struct {
	ServerAddress string `json:"serverAddress"`
}

// Loaded is the resolved configuration ready for use.
type Loaded struct {
	Pair      model.Pair
	Engine    EngineConfig
	Txmgr     txmgr.Config
	Guard     guard.Config
	Grid      grid.Config
	Journal   JournalConfig
	Profiling ProfilingConfig
}

// Load reads a JSON config file and validates it.
func Load(path string) (Loaded, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Loaded{}, err
	}
	var cfg FileConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Loaded{}, err
	}
	return resolve(cfg)
}

// Default returns the paper-trading defaults used when no config file
// is given.
func Default() Loaded {
	loaded, err := resolve(FileConfig{
		Pair: model.Pair{
			Name:  "WETH/USDC",
			Base:  "WETH",
			Quote: "USDC",
			Scale: model.ScaleSpec{PriceScale: 6, SizeScale: 6},
		},
		Engine: EngineConfig{QueueCapacity: 1024},
		Guard:  guard.Config{Threshold: 5},
	})
	if err != nil {
		panic(err)
	}
	return loaded
}

func resolve(cfg FileConfig) (Loaded, error) {
	if cfg.Pair.Name == "" {
		return Loaded{}, fmt.Errorf("pair name is empty")
	}
	if cfg.Pair.Base == "" || cfg.Pair.Quote == "" {
		return Loaded{}, fmt.Errorf("pair %s is missing base or quote asset", cfg.Pair.Name)
	}
	if cfg.Pair.Scale.PriceScale < 0 || cfg.Pair.Scale.SizeScale < 0 {
		return Loaded{}, fmt.Errorf("pair %s scale must be >= 0", cfg.Pair.Name)
	}
	if cfg.Engine.QueueCapacity <= 0 {
		cfg.Engine.QueueCapacity = 1024
	}
	if cfg.Grid.Levels < 0 || cfg.Grid.Step < 0 || cfg.Grid.Size < 0 {
		return Loaded{}, fmt.Errorf("grid config must be >= 0")
	}
	return Loaded{
		Pair:      cfg.Pair,
		Engine:    cfg.Engine,
		Txmgr:     cfg.Txmgr,
		Guard:     cfg.Guard,
		Grid:      cfg.Grid,
		Journal:   cfg.Journal,
		Profiling: cfg.Profiling,
	}, nil
}
