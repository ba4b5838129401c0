package modifier

// Config holds configuration of the modifier catalog.
type Config struct {
	// RefreshMinutes is the interval between catalog refreshes. Zero disables refresh.
	RefreshMinutes int `mapstructure:"refresh_minutes" default:"60"`
	// Path is the catalog endpoint relative to the storage service base URL.
	Path string `mapstructure:"path" default:"/modifier/"`
	// TimeoutSeconds bounds one catalog request.
	TimeoutSeconds int `mapstructure:"timeout_seconds" default:"30"`
	// MaxAttempts bounds catalog fetch attempts.
	MaxAttempts int `mapstructure:"max_attempts" default:"3"`
}
