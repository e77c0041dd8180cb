package llm

// Config selects the provider model and sampling behavior for completion
// calls. Low temperature keeps structured extraction output stable across
// identical inputs.
type Config struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
}

// DefaultConfig returns the standard Gemini configuration.
func DefaultConfig() *Config {
	return &Config{
		Model:       "gemini-2.5-flash",
		Temperature: 0.1,
	}
}
