package config

// CorpusConfig holds per-corpus settings from the config file.
// Zero values mean "not set" and fall back to the defaults section or the
// command line.
type CorpusConfig struct {
	// Damping overrides the damping factor for this corpus.
	Damping float64 `yaml:"damping,omitempty"`

	// Samples overrides the number of random walk samples.
	Samples int `yaml:"samples,omitempty"`

	// Seed fixes the random walk seed for reproducible runs.
	Seed uint64 `yaml:"seed,omitempty"`

	// Tolerance overrides the agreement tolerance between the two methods.
	Tolerance float64 `yaml:"tolerance,omitempty"`

	// Extensions overrides the file extensions treated as documents.
	Extensions []string `yaml:"extensions,omitempty"`

	// IgnorePatterns are glob patterns for file names to leave out.
	// They are added to any patterns given on the command line.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`
}

// File represents the structure of the .pagerank configuration file.
type File struct {
	// Corpora maps corpus directory base names to their settings.
	Corpora map[string]CorpusConfig `yaml:"corpora,omitempty"`

	// Defaults applies to every corpus unless overridden in Corpora.
	Defaults CorpusConfig `yaml:"defaults,omitempty"`
}

// GetCorpusConfig returns the settings for the named corpus merged over the
// defaults.
func (cf *File) GetCorpusConfig(name string) CorpusConfig {
	result := cf.Defaults

	if cc, ok := cf.Corpora[name]; ok {
		if cc.Damping != 0 {
			result.Damping = cc.Damping
		}
		if cc.Samples != 0 {
			result.Samples = cc.Samples
		}
		if cc.Seed != 0 {
			result.Seed = cc.Seed
		}
		if cc.Tolerance != 0 {
			result.Tolerance = cc.Tolerance
		}
		if len(cc.Extensions) > 0 {
			result.Extensions = cc.Extensions
		}
		if len(cc.IgnorePatterns) > 0 {
			result.IgnorePatterns = cc.IgnorePatterns
		}
	}

	return result
}
