package reader

import (
	"feedmark/internal/core"
)

// Config represents reader feature configuration
type Config struct {
	Enabled            bool
	ParallelPartitions bool
}

// NewConfig creates reader config from core config
func NewConfig(coreConfig *core.Config) *Config {
	return &Config{
		Enabled:            coreConfig.Features.Reader.Enabled,
		ParallelPartitions: coreConfig.Features.Reader.ParallelPartitions,
	}
}
