package stream

import "time"

// Config holds the batching thresholds of the stream consumer.
type Config struct {
	// Buffer is the number of fetched pages held ahead of the consumer.
	Buffer int `mapstructure:"buffer" default:"8"`
	// CheckpointPages closes a batch after this many pages.
	CheckpointPages int `mapstructure:"checkpoint_pages" default:"10"`
	// CheckpointItems closes a batch once this many items are buffered.
	CheckpointItems int `mapstructure:"checkpoint_items" default:"5000"`
	// MaxStalenessSeconds closes a batch this long after its first page arrived.
	MaxStalenessSeconds int `mapstructure:"max_staleness_seconds" default:"30"`
}

func (c Config) buffer() int {
	if c.Buffer <= 0 {
		return 8
	}
	return c.Buffer
}

func (c Config) staleness() time.Duration {
	if c.MaxStalenessSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.MaxStalenessSeconds) * time.Second
}
