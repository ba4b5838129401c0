package cursor

// Config holds configuration for cursor persistence.
type Config struct {
	// Backend selects where the cursor is stored: file, database or object.
	Backend string `mapstructure:"backend" default:"file"`
	// Path is the cursor file for the file backend.
	Path string `mapstructure:"path" default:"data/cursor"`
	// Name identifies the cursor row for the database backend.
	Name string `mapstructure:"name" default:"public-stash-tabs"`
	// ObjectKey is the object name for the object backend.
	ObjectKey string `mapstructure:"object_key" default:"state/cursor"`
	// Override replaces the stored cursor on the next start (manual reset).
	Override string `mapstructure:"override" default:""`
}

const (
	BackendFile     = "file"
	BackendDatabase = "database"
	BackendObject   = "object"
)
