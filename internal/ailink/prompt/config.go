package prompt

// Config is the optional YAML frontmatter of a prompt template.
type Config struct {
	Model       string   `yaml:"model,omitempty" json:"model,omitempty"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty" json:"temperature,omitempty"`
	MaxTokens   *int     `yaml:"max_tokens,omitempty" json:"max_tokens,omitempty"`
}

// Template is a loaded prompt template.
type Template struct {
	Config Config
	Body   string
	Source string
}
