package config

// SlackConfig holds Slack-specific configuration
type SlackConfig struct {
	BotToken  string `env:"SLACK_BOT_TOKEN" yaml:"bot_token" required:"true"`
	UserToken string `env:"SLACK_USER_TOKEN" yaml:"user_token"`
	APIURL    string `env:"SLACK_API_URL" yaml:"api_url"`
	PageLimit int    `env:"SLACK_PAGE_LIMIT" yaml:"page_limit" default:"200"`
}

// AsUserEnabled returns true if as-user sends are configured
func (c *SlackConfig) AsUserEnabled() bool {
	return c.UserToken != ""
}
