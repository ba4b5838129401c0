package detector

// Config holds the detector pipeline configuration.
// List values are comma separated in the environment.
type Config struct {
	// Variants enables detectors by name, in evaluation order.
	Variants []string `mapstructure:"variants" default:"unique,unique_unidentified,unique_foulborn,idol"`
	// Leagues restricts listings to these leagues. Empty accepts every league.
	Leagues []string `mapstructure:"leagues" default:""`
	// WantedNames restricts identified uniques to these names. Empty accepts every unique.
	WantedNames []string `mapstructure:"wanted_names" default:""`
	// WantedBases restricts unidentified uniques to these base types. Empty accepts every base.
	WantedBases []string `mapstructure:"wanted_bases" default:""`
	// ExcludedIdolBases lists idol base types that are never reported.
	ExcludedIdolBases []string `mapstructure:"excluded_idol_bases" default:""`
}

// DedupConfig holds the fingerprint window configuration.
type DedupConfig struct {
	// Generations is the number of prior batch windows a fingerprint is remembered for.
	Generations int `mapstructure:"generations" default:"1"`
}
