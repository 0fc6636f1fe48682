package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// StripeConfig holds Stripe-specific configuration.
type StripeConfig struct {
	SecretKey      string
	WebhookSecret  string
	YearlyPriceID  string
	MonthlyPriceID string
}

// GoogleConfig holds the OAuth client used for sign-in. Sign-in is disabled when ClientID is empty.
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// KafkaConfig holds the optional plan-change notifier settings.
type KafkaConfig struct {
	Brokers   []string
	PlanTopic string
}

type Config struct {
	Port         string
	AppEnv       string
	AppURL       string
	CORSOrigin   string
	DBURL        string
	JWTSecret    string
	CookieSecure bool

	// TrustedProxies lists the proxy addresses or CIDRs whose X-Forwarded-For is honoured.
	TrustedProxies []string

	PremiumContentHTML string

	Stripe StripeConfig
	Google GoogleConfig
	Kafka  KafkaConfig
}

var required = []string{
	"DB_URL",
	"JWT_SECRET",
	"STRIPE_SECRET_KEY",
	"STRIPE_WEBHOOK_SECRET",
	"STRIPE_YEARLY_PRICE_ID",
	"STRIPE_MONTHLY_PRICE_ID",
}

// Load reads a .env file when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found. Using system environment variables.")
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_URL", "http://localhost:8080")
	v.SetDefault("CORS_ORIGIN", "http://localhost:5173")
	v.SetDefault("KAFKA_PLAN_TOPIC", "billing.plan-changes")
	v.SetDefault("PREMIUM_CONTENT_HTML", "<p>This page is on the premium plan, so you can see premium features.</p>")
	v.SetDefault("COOKIE_SECURE", false)
	return v
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	var missing []string
	for _, key := range required {
		if strings.TrimSpace(v.GetString(key)) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	cfg := &Config{
		Port:               v.GetString("PORT"),
		AppEnv:             v.GetString("APP_ENV"),
		AppURL:             strings.TrimRight(v.GetString("APP_URL"), "/"),
		CORSOrigin:         v.GetString("CORS_ORIGIN"),
		DBURL:              v.GetString("DB_URL"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		CookieSecure:       v.GetBool("COOKIE_SECURE"),
		TrustedProxies:     splitList(v.GetString("TRUSTED_PROXIES")),
		PremiumContentHTML: v.GetString("PREMIUM_CONTENT_HTML"),
		Stripe: StripeConfig{
			SecretKey:      v.GetString("STRIPE_SECRET_KEY"),
			WebhookSecret:  v.GetString("STRIPE_WEBHOOK_SECRET"),
			YearlyPriceID:  v.GetString("STRIPE_YEARLY_PRICE_ID"),
			MonthlyPriceID: v.GetString("STRIPE_MONTHLY_PRICE_ID"),
		},
		Google: GoogleConfig{
			ClientID:     v.GetString("GOOGLE_CLIENT_ID"),
			ClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
			RedirectURL:  v.GetString("GOOGLE_REDIRECT_URL"),
		},
		Kafka: KafkaConfig{
			Brokers:   splitList(v.GetString("KAFKA_BROKERS")),
			PlanTopic: v.GetString("KAFKA_PLAN_TOPIC"),
		},
	}

	if cfg.Google.RedirectURL == "" && cfg.Google.ClientID != "" {
		cfg.Google.RedirectURL = cfg.AppURL + "/auth/google/callback"
	}

	if cfg.Stripe.YearlyPriceID == cfg.Stripe.MonthlyPriceID {
		return nil, fmt.Errorf("STRIPE_YEARLY_PRICE_ID and STRIPE_MONTHLY_PRICE_ID must differ")
	}
	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// GoogleSignInEnabled reports whether the Google OAuth client is fully configured.
func (c *Config) GoogleSignInEnabled() bool {
	return c.Google.ClientID != "" && c.Google.ClientSecret != "" && c.Google.RedirectURL != ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
