package config

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENV" default:"development"`
	AppBaseURL  string `envconfig:"APP_BASE_URL" default:"http://localhost:8080"`
	FrontendURL string `envconfig:"FRONTEND_URL" default:"http://localhost:3000"`

	DBConnectionString string `envconfig:"DATABASE_URL" required:"true"`

	JWTSecret     string `envconfig:"JWT_SECRET" required:"true"`
	SessionTTLHrs int    `envconfig:"SESSION_TTL_HOURS" default:"72"`

	// Shared secret for the scheduled sync trigger endpoint.
	CronSecret string `envconfig:"CRON_SECRET" required:"true"`

	// Google OAuth / Business Profile settings
	GoogleClientID     string `envconfig:"GOOGLE_CLIENT_ID" required:"true"`
	GoogleClientSecret string `envconfig:"GOOGLE_CLIENT_SECRET" required:"true"`
	GoogleRedirectURL  string `envconfig:"GOOGLE_REDIRECT_URL" required:"true"`

	// Stripe settings
	StripeSecretKey     string `envconfig:"STRIPE_SECRET_KEY" required:"true"`
	StripeWebhookSecret string `envconfig:"STRIPE_WEBHOOK_SECRET" required:"true"`
	StripePriceMonthly  string `envconfig:"STRIPE_PRICE_MONTHLY" required:"true"`
	StripePriceAnnual   string `envconfig:"STRIPE_PRICE_ANNUAL" required:"true"`
	StripeTrialDays     int    `envconfig:"STRIPE_TRIAL_DAYS" default:"14"`
	BillingReturnURL    string `envconfig:"BILLING_RETURN_URL" required:"true"`

	// SMTP settings for transactional email
	SMTPHost     string `envconfig:"SMTP_HOST" required:"true"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername string `envconfig:"SMTP_USERNAME" required:"true"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD" required:"true"`
	MailFrom     string `envconfig:"MAIL_FROM" default:"notifications@reviewhub.app"`

	// Anthropic settings for AI reply drafts
	AnthropicAPIKey string `envconfig:"ANTHROPIC_API_KEY"`
	AnthropicModel  string `envconfig:"ANTHROPIC_MODEL" default:"claude-haiku-4-5"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
