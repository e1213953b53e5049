package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"
)

const (
	// EnvPrefix matches the way the Actions runner exposes step inputs.
	EnvPrefix = "INPUT"

	DefaultConfigDir    = ".reviewapp"
	DefaultConfigFile   = "config.yaml"
	DefaultEnvFile      = ".env"
	DefaultHerokuAPIURL = "https://api.heroku.com"
)

// Load builds the Config from defaults, an optional YAML config file, an
// optional .env file and the environment, in increasing precedence.
//
// envFile is merged only when non-empty. A missing DefaultEnvFile is
// ignored; any other missing path is an error. Runs inside a workflow pass ""
// so nothing from the checked-out workspace can change settings.
func Load(configPath, envFile string) (*Config, error) {
	if envFile != "" {
		// Variables already present in the environment win over .env entries.
		if err := godotenv.Load(envFile); err != nil && (envFile != DefaultEnvFile || !isNotExist(err)) {
			return nil, fmt.Errorf("reading %s: %w", envFile, err)
		}
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	} else if home, err := os.UserHomeDir(); err == nil {
		v.SetConfigName("config")
		v.AddConfigPath(filepath.Join(home, DefaultConfigDir))
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !isNotExist(err) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.GitHubAPIURL == "" {
		cfg.GitHubAPIURL = enterpriseAPIURL(os.Getenv("GITHUB_API_URL"))
	}
	return &cfg, nil
}

// Validate reports every missing required setting in a single error.
func (c *Config) Validate() error {
	var missing []string
	if c.GitHubToken == "" {
		missing = append(missing, "github_token")
	}
	if c.HerokuAPIToken == "" {
		missing = append(missing, "heroku_api_token")
	}
	if c.HerokuPipelineID == "" {
		missing = append(missing, "heroku_pipeline_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required input, please check you have set a value for each of the following inputs: %s",
			strings.Join(missing, ", "))
	}
	if c.HTTPRetryMax < 0 {
		return fmt.Errorf("http_retry_max must not be negative, got %d", c.HTTPRetryMax)
	}
	return nil
}

// Save writes cfg to configPath (or the default location) as YAML.
func Save(cfg *Config, configPath string) error {
	path, err := ConfigPath(configPath)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("serialising config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// ConfigPath returns the effective config file path.
func ConfigPath(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, DefaultConfigDir, DefaultConfigFile), nil
}

// Redacted returns a copy of c with credentials masked.
func (c *Config) Redacted() Config {
	out := *c
	if out.GitHubToken != "" {
		out.GitHubToken = "ghp-***"
	}
	if out.HerokuAPIToken != "" {
		out.HerokuAPIToken = "***"
	}
	return out
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("github_token", "")
	v.SetDefault("heroku_api_token", "")
	v.SetDefault("heroku_pipeline_id", "")
	v.SetDefault("github_label", "")
	v.SetDefault("should_comment_pull_request", false)
	v.SetDefault("should_wait_for_build", true)
	v.SetDefault("heroku_api_url", DefaultHerokuAPIURL)
	v.SetDefault("github_api_url", "")
	v.SetDefault("http_retry_max", 3)
}

// enterpriseAPIURL keeps the runner-provided API URL only when it points
// somewhere other than public GitHub.
func enterpriseAPIURL(u string) string {
	u = strings.TrimSpace(u)
	if u == "" || strings.TrimRight(u, "/") == "https://api.github.com" {
		return ""
	}
	return u
}

func isNotExist(err error) bool {
	return os.IsNotExist(err) || strings.Contains(err.Error(), "no such file")
}
