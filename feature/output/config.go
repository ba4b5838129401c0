package output

import "time"

// Config holds configuration of the storage service writer.
type Config struct {
	// BaseURL is the storage service root; the catalog is read from it too.
	BaseURL string `mapstructure:"base_url" default:"http://localhost:8000"`
	// Token is sent as a bearer token when set.
	Token string `mapstructure:"token" default:""`
	// ItemPath receives item rows.
	ItemPath string `mapstructure:"item_path" default:"/item/"`
	// ModifierPath receives modifier fact rows.
	ModifierPath string `mapstructure:"modifier_path" default:"/itemModifier/"`
	// ChunkSize is the number of rows per request.
	ChunkSize int `mapstructure:"chunk_size" default:"500"`
	// MaxAttempts bounds attempts per chunk.
	MaxAttempts int `mapstructure:"max_attempts" default:"5"`
	// BackoffInitialMillis is the first retry delay.
	BackoffInitialMillis int `mapstructure:"backoff_initial_millis" default:"500"`
	// BackoffMaxMillis caps the retry delay.
	BackoffMaxMillis int `mapstructure:"backoff_max_millis" default:"30000"`
	// TimeoutSeconds bounds one request.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// QueueSize is the number of batches buffered ahead of the writer.
	QueueSize int `mapstructure:"queue_size" default:"16"`
	// DeadLetterPrefix is the object prefix of spooled chunks.
	DeadLetterPrefix string `mapstructure:"dead_letter_prefix" default:"deadletter"`
}

func (c Config) chunkSize() int {
	if c.ChunkSize <= 0 {
		return 500
	}
	return c.ChunkSize
}

func (c Config) maxAttempts() uint {
	if c.MaxAttempts <= 0 {
		return 5
	}
	return uint(c.MaxAttempts)
}

func (c Config) backoffInitial() time.Duration {
	if c.BackoffInitialMillis <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.BackoffInitialMillis) * time.Millisecond
}

func (c Config) backoffMax() time.Duration {
	if c.BackoffMaxMillis <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.BackoffMaxMillis) * time.Millisecond
}

func (c Config) timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}
