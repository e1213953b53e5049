package config

// Config is the single configuration value for a reviewapp run. It is built
// once by Load and passed explicitly to every collaborator.
//
// Inside GitHub Actions every key is read from the matching INPUT_<KEY>
// environment variable, so the action.yml inputs map straight onto it.
type Config struct {
	GitHubToken      string `mapstructure:"github_token"       json:"github_token"       yaml:"github_token"`
	HerokuAPIToken   string `mapstructure:"heroku_api_token"   json:"heroku_api_token"   yaml:"heroku_api_token"`
	HerokuPipelineID string `mapstructure:"heroku_pipeline_id" json:"heroku_pipeline_id" yaml:"heroku_pipeline_id"`

	// Label triggers creation on "labeled" events and is added to the PR
	// after a deploy. Empty (or "false") disables both.
	Label string `mapstructure:"github_label" json:"github_label" yaml:"github_label"`
	// CommentPullRequest posts the review app URL as a PR comment.
	CommentPullRequest bool `mapstructure:"should_comment_pull_request" json:"should_comment_pull_request" yaml:"should_comment_pull_request"`
	// WaitForBuild blocks until the build for the head commit succeeds.
	WaitForBuild bool `mapstructure:"should_wait_for_build" json:"should_wait_for_build" yaml:"should_wait_for_build"`

	// HerokuAPIURL overrides the platform endpoint (useful for proxies and tests).
	HerokuAPIURL string `mapstructure:"heroku_api_url" json:"heroku_api_url" yaml:"heroku_api_url"`
	// GitHubAPIURL targets GitHub Enterprise when set (e.g. https://ghe.example.com/api/v3/).
	GitHubAPIURL string `mapstructure:"github_api_url" json:"github_api_url" yaml:"github_api_url"`
	// HTTPRetryMax bounds transport-level retries of 5xx and connection errors.
	HTTPRetryMax int `mapstructure:"http_retry_max" json:"http_retry_max" yaml:"http_retry_max"`
}

// TriggerLabel returns the configured label, or "" when labelling is disabled.
func (c *Config) TriggerLabel() string {
	switch c.Label {
	case "", "false":
		return ""
	default:
		return c.Label
	}
}
