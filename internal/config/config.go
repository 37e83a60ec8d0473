package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
)

// DefaultFileName is the optional settings file looked up in the repository
// root.
const DefaultFileName = ".magic-pipe.toml"

// Config is the effective configuration of one review run. It is built
// once at process start and passed to each component; nothing reads the
// environment after Load returns.
type Config struct {
	// Mode selects the review backend, "direct" or "mcp".
	Mode  string `toml:"mode"`
	Model string `toml:"model"`

	// APIKey authenticates direct mode. Secrets come from the
	// environment only, never from the settings file.
	APIKey      string `toml:"-"`
	APIBaseURL  string `toml:"api_base_url"`
	MCPEndpoint string `toml:"mcp_endpoint"`

	RepoDir      string `toml:"-"`
	BaseRef      string `toml:"base_ref"`
	HeadRef      string `toml:"head_ref"`
	ContextLines int    `toml:"context_lines"`

	Detailed      bool `toml:"detailed_reviews"`
	Debug         bool `toml:"debug"`
	RedactSecrets bool `toml:"redact_secrets"`

	MaxPromptTokens    int `toml:"max_prompt_tokens"`
	MaxInFlight        int `toml:"max_in_flight"`
	MaxAttempts        int `toml:"max_attempts"`
	CallTimeoutSeconds int `toml:"call_timeout_seconds"`
	RunDeadlineSeconds int `toml:"run_deadline_seconds"`

	OutputPath string       `toml:"output_path"`
	Cache      CacheConfig  `toml:"cache"`
	GitHub     GitHubConfig `toml:"github"`
}

// CacheConfig controls response caching.
type CacheConfig struct {
	Enabled    bool   `toml:"enabled"`
	Dir        string `toml:"dir"`
	TTLSeconds int    `toml:"ttl_seconds"`
}

// GitHubConfig controls posting the report back to the pull request.
type GitHubConfig struct {
	Token       string `toml:"-"`
	Repository  string `toml:"repository"`
	PRNumber    int    `toml:"-"`
	PostComment bool   `toml:"post_comment"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		Mode:               "direct",
		Model:              "gpt-4",
		RepoDir:            ".",
		BaseRef:            "origin/main",
		HeadRef:            "HEAD",
		RedactSecrets:      true,
		MaxInFlight:        4,
		MaxAttempts:        3,
		CallTimeoutSeconds: 60,
		OutputPath:         "code-review.md",
		Cache: CacheConfig{
			Enabled:    false,
			TTLSeconds: 86400,
		},
	}
}

// Load builds the effective config by merging: defaults <- file <- env.
// The file path usually comes from a CLI flag; an empty path falls back to
// DefaultFileName, which may be absent.
func Load(filePath string) (Config, error) {
	cfg := Default()

	explicit := filePath != ""
	if !explicit {
		filePath = DefaultFileName
	}
	if err := mergeFile(&cfg, filePath, explicit); err != nil {
		return Config{}, err
	}
	mergeEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func mergeFile(cfg *Config, path string, explicit bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return fmt.Errorf("reading settings file: %w", err)
	}
	// Decoding into the live config keeps defaults for keys the file
	// omits.
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func mergeEnv(cfg *Config) {
	if v := os.Getenv("REVIEW_MODE"); v != "" {
		cfg.Mode = v
	}
	if v := os.Getenv("MODEL_NAME"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("API_BASE_URL"); v != "" {
		cfg.APIBaseURL = v
	}
	if v := os.Getenv("MCP_ENDPOINT"); v != "" {
		cfg.MCPEndpoint = v
	}
	if v := os.Getenv("GITHUB_WORKSPACE"); v != "" {
		cfg.RepoDir = v
	}
	if v := os.Getenv("BASE_REF"); v != "" {
		cfg.BaseRef = v
	}
	if v := os.Getenv("HEAD_REF"); v != "" {
		cfg.HeadRef = v
	}
	if v := os.Getenv("DEBUG_MODE"); v != "" {
		cfg.Debug = isTruthy(v)
	}
	if v := os.Getenv("DETAILED_REVIEWS"); v != "" {
		cfg.Detailed = isTruthy(v)
	}
	if v := os.Getenv("OUTPUT_PATH"); v != "" {
		cfg.OutputPath = v
	}
	if v := os.Getenv("GITHUB_TOKEN"); v != "" {
		cfg.GitHub.Token = v
	}
	if v := os.Getenv("GITHUB_REPOSITORY"); v != "" {
		cfg.GitHub.Repository = v
	}
	if v := os.Getenv("PR_NUMBER"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.GitHub.PRNumber = n
		}
	}
	if v := os.Getenv("POST_COMMENT"); v != "" {
		cfg.GitHub.PostComment = isTruthy(v)
	}
}

func (c *Config) validate() error {
	switch c.Mode {
	case "direct", "mcp":
	default:
		return fmt.Errorf("invalid REVIEW_MODE %q, want direct or mcp", c.Mode)
	}
	if c.MaxInFlight <= 0 {
		return fmt.Errorf("max_in_flight must be positive, got %d", c.MaxInFlight)
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max_attempts must be positive, got %d", c.MaxAttempts)
	}
	return nil
}

// isTruthy mirrors the lenient boolean parsing of CI environments, where
// values arrive as "true", "1", or "yes".
func isTruthy(v string) bool {
	switch v {
	case "true", "True", "TRUE", "1", "yes", "Yes", "YES", "on":
		return true
	}
	return false
}
