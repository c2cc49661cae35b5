package config

import "time"

type Config struct {
	Environment Environment
	Log         Log
	HTTP        HTTPServer
	DatabaseURL string `env:"DATABASE_URL" envDefault:"templatestore.db"`

	Payment Payment `envPrefix:"PAYMENT_"`
	License License `envPrefix:"LICENSE_"`
	Admin   Admin   `envPrefix:"ADMIN_"`
}

type Payment struct {
	// Shared secret used to verify webhook signatures. Empty means every
	// delivery is rejected (fail closed).
	SigningSecret  string        `env:"SIGNING_SECRET"`
	WebhookTimeout time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"10s"`
}

type License struct {
	KeyPrefix string `env:"KEY_PREFIX" envDefault:"TPL"`
	// Activation limits per license type. 0 means unbounded.
	SingleLimit   int `env:"SINGLE_LIMIT" envDefault:"5"`
	ExtendedLimit int `env:"EXTENDED_LIMIT" envDefault:"0"`
}

type Admin struct {
	JWTSecret string `env:"JWT_SECRET"`
}

type Environment struct {
	Name string `env:"ENVIRONMENT" envDefault:"development"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

type HTTPServer struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port string `env:"HTTP_PORT" envDefault:"8080"`
}
