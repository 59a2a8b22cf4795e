package depot

import (
	"filedepot/internal/storage"
)

type Config struct {
	// DataDir is the storage root. With the default engine every area is a
	// directory directly below it.
	DataDir string
	// StagingDir receives upload payloads before they are moved into an
	// area. Defaults to <DataDir>/.staging.
	StagingDir string
	Areas      []Area
	Engine     storage.StorageEngine
	Journal    Journal
}

type ConfigOption func(*Config)

func WithStorageEngine(engine storage.StorageEngine) ConfigOption {
	return func(cfg *Config) {
		cfg.Engine = engine
	}
}

func WithDataDir(dataDir string) ConfigOption {
	return func(cfg *Config) {
		cfg.DataDir = dataDir
	}
}

func WithStagingDir(dir string) ConfigOption {
	return func(cfg *Config) {
		cfg.StagingDir = dir
	}
}

func WithAreas(areas ...Area) ConfigOption {
	return func(cfg *Config) {
		cfg.Areas = areas
	}
}

func WithJournal(journal Journal) ConfigOption {
	return func(cfg *Config) {
		cfg.Journal = journal
	}
}

func NewConfig(opts ...ConfigOption) Config {
	cfg := Config{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
