package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"go.uber.org/dig"
)

// Config represents the advisor service configuration.
type Config struct {
	Server    ServerConfig
	CORS      CORSConfig
	Models    ModelsConfig
	Tax       TaxConfig
	Providers ProvidersConfig
	Ledger    LedgerConfig
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Port         int `env:"SERVER_PORT"          envDefault:"8080"`
	ReadTimeout  int `env:"SERVER_READ_TIMEOUT"  envDefault:"30"`
	WriteTimeout int `env:"SERVER_WRITE_TIMEOUT" envDefault:"120"`
}

// CORSConfig contains CORS policy settings.
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"   envSeparator:"," envDefault:"*"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS"   envSeparator:"," envDefault:"GET,POST,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS"   envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS"                  envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE"                            envDefault:"86400"`
}

// ModelsConfig selects the model identifier per capability. These come
// from the settings collaborator on the device.
type ModelsConfig struct {
	TaxModel      string `env:"MODEL_TAX"       envDefault:"gpt-4o-mini"`
	VisionModel   string `env:"MODEL_VISION"    envDefault:"gpt-4o"`
	SearchModel   string `env:"MODEL_SEARCH"    envDefault:"sonar"`
	GuessModel    string `env:"MODEL_GUESS"     envDefault:"sonar"`
	AdditiveModel string `env:"MODEL_ADDITIVES" envDefault:"gpt-4o-mini"`
}

// TaxConfig carries the manual tax-rate override and the retry policy
// for tax-rate inference.
type TaxConfig struct {
	OverrideEnabled bool    `env:"TAX_OVERRIDE_ENABLED" envDefault:"false"`
	OverrideRate    float64 `env:"TAX_OVERRIDE_RATE"    envDefault:"0"`
	MaxRetries      int     `env:"TAX_MAX_RETRIES"      envDefault:"4"`
	RetryDelayMS    int     `env:"TAX_RETRY_DELAY_MS"   envDefault:"1000"`
}

// ProvidersConfig holds per-provider API credentials and the transport
// timeout.
type ProvidersConfig struct {
	OpenAIKey      string `env:"OPENAI_API_KEY"`
	PerplexityKey  string `env:"PERPLEXITY_API_KEY"`
	TimeoutSeconds int    `env:"PROVIDER_TIMEOUT" envDefault:"90"`
}

// LedgerConfig configures billing-ledger persistence and the optional
// credit limit used for remaining-credit reporting.
type LedgerConfig struct {
	RedisAddr   string  `env:"LEDGER_REDIS_ADDR"`
	RedisKey    string  `env:"LEDGER_REDIS_KEY"   envDefault:"advisor:ledger"`
	CreditLimit float64 `env:"LEDGER_CREDIT_LIMIT" envDefault:"0"`
}

// DepConfig is used for dependency injection with dig.
type DepConfig struct {
	dig.Out
	*ServerConfig
	*CORSConfig
	*ModelsConfig
	*TaxConfig
	*ProvidersConfig
	*LedgerConfig
}

// Load loads environment files and parses configuration.
func Load() *Config {
	for _, file := range []string{".env"} {
		_ = godotenv.Load(file)
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		panic(err)
	}

	return &cfg
}

// ParseDependenciesConfig returns pointers to sub-configs for dependency injection.
func ParseDependenciesConfig(cfg *Config) DepConfig {
	return DepConfig{
		dig.Out{},
		&cfg.Server,
		&cfg.CORS,
		&cfg.Models,
		&cfg.Tax,
		&cfg.Providers,
		&cfg.Ledger,
	}
}
