package config

import (
	"time"
)

type Server struct {
	Scheme string `envconfig:"SCHEME" default:"http"`
	Host   string `envconfig:"HOST" default:"localhost"`
	Port   int    `envconfig:"PORT" default:"3000"`
	// PublicURL is where the platform delivers webhooks, e.g. https://bff.example.com.
	PublicURL string `envconfig:"PUBLIC_URL"`
	// AdminToken unlocks operator routes. Empty disables them.
	AdminToken string `envconfig:"ADMIN_TOKEN"`
}

type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"json"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"2006-01-02 15:04:05"`
	Prefix     string `envconfig:"PREFIX" default:"[storefront]"`
}

type Admin struct {
	ShopDomain    string        `envconfig:"SHOP_DOMAIN"`
	AccessToken   string        `envconfig:"ACCESS_TOKEN"`
	APIVersion    string        `envconfig:"API_VERSION" default:"2024-10"`
	TokenHeader   string        `envconfig:"TOKEN_HEADER" default:"X-Shopify-Access-Token"`
	Timeout       time.Duration `envconfig:"TIMEOUT" default:"10s"`
	MaxRetries    int           `envconfig:"MAX_RETRIES" default:"5"`
	RetryBase     time.Duration `envconfig:"RETRY_BASE" default:"1s"`
	WebhookSecret string        `envconfig:"WEBHOOK_SECRET"`
}

type Currency struct {
	CacheTTL      time.Duration `envconfig:"CACHE_TTL" default:"1h"`
	Fallback      string        `envconfig:"FALLBACK" default:"USD"`
	MultiCurrency bool          `envconfig:"MULTI_CURRENCY" default:"true"`
	GeoHeader     string        `envconfig:"GEO_HEADER" default:"CF-IPCountry"`
	PreferenceTTL time.Duration `envconfig:"PREFERENCE_TTL" default:"720h"`
	SessionCookie string        `envconfig:"SESSION_COOKIE" default:"sf_session"`
}

//revive:disable
type Payment struct {
	StripeApiKey     string        `envconfig:"STRIPE_API_KEY"`
	NativeCooldown   time.Duration `envconfig:"NATIVE_COOLDOWN" default:"5s"`
	RedirectCooldown time.Duration `envconfig:"REDIRECT_COOLDOWN" default:"10s"`
	ShippingTitle    string        `envconfig:"SHIPPING_TITLE" default:"Standard Shipping"`
	ShippingPrice    string        `envconfig:"SHIPPING_PRICE" default:"0"`
}

//revive:enable

type Redis struct {
	URL          string        `envconfig:"URL"`
	KeyPrefix    string        `envconfig:"KEY_PREFIX" default:"storefront:"`
	Stream       string        `envconfig:"STREAM" default:"storefront.events"`
	PoolSize     int           `envconfig:"POOL_SIZE" default:"10"`
	DialTimeout  time.Duration `envconfig:"DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"3s"`
}

type DB struct {
	Url string `envconfig:"URL"`
	// SweepInterval is how often superseded quotes are retried for deletion.
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"15m"`
}

type RateLimit struct {
	MaxRequests int           `envconfig:"MAX_REQUESTS" default:"100"`
	Window      time.Duration `envconfig:"WINDOW" default:"1m"`
}

type App struct {
	Env       string     `envconfig:"APP_ENV" default:"development"`
	Server    *Server    `envconfig:"SERVER"`
	Log       *Log       `envconfig:"LOG"`
	Admin     *Admin     `envconfig:"ADMIN"`
	Currency  *Currency  `envconfig:"CURRENCY"`
	Payment   *Payment   `envconfig:"PAYMENT"`
	Redis     *Redis     `envconfig:"REDIS"`
	DB        *DB        `envconfig:"DATABASE"`
	RateLimit *RateLimit `envconfig:"RATE_LIMIT"`
}
