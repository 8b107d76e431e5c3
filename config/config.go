package config

import (
	"crypto/rsa"

	"github.com/caarlos0/env/v6"
	"github.com/rs/zerolog/log"

	utils "github.com/focusboard/focusboard-server/utils-go"
)

type Config struct {
	Port           string `env:"LISTEN_ADDR" envDefault:":3000"`
	Timeout        uint64 `env:"TIMEOUT" envDefault:"10"`
	ReadBufferSize int    `env:"READ_BUFFER_SIZE" envDefault:"4096"`
	BodyLimit      int    `env:"BODY_LIMIT" envDefault:"1048576"`
	AppName        string `env:"APP_NAME" envDefault:"FocusBoard"`
	IsProduction   bool   `env:"PRODUCTION"`
	Dsn            string `env:"DSN"`
	CookieKey      string `env:"COOKIE_KEY"`

	JwtPublicKey        string `env:"JWT_PUBLIC_KEY"`
	JwtPrivateKey       string `env:"JWT_PRIVATE_KEY"`
	JwtParsedPublicKey  *rsa.PublicKey
	JwtParsedPrivateKey *rsa.PrivateKey

	Redis    RedisConfig    `envPrefix:"REDIS_"`
	Vapid    VapidConfig    `envPrefix:"VAPID_"`
	Dispatch DispatchConfig `envPrefix:"DISPATCH_"`
}

type RedisConfig struct {
	Url string `env:"URL" envDefault:"redis://localhost:6379"`
}

// VapidConfig holds the server's Web Push identity: a P-256 keypair in the
// URL-safe base64 layout browsers expect, plus the contact subject embedded
// in every VAPID token.
type VapidConfig struct {
	PublicKey  string `env:"PUBLIC_KEY"`
	PrivateKey string `env:"PRIVATE_KEY"`
	Subject    string `env:"SUBJECT" envDefault:"mailto:admin@focusboard.app"`
	Ttl        int    `env:"TTL" envDefault:"43200"`
}

type DispatchConfig struct {
	QueueKey    string `env:"QUEUE" envDefault:"focusboard:push:jobs"`
	SendTimeout uint64 `env:"SEND_TIMEOUT" envDefault:"10"`
	PopTimeout  uint64 `env:"POP_TIMEOUT" envDefault:"5"`
}

func Parse() (*Config, error) {
	cfg := Config{
		IsProduction: utils.ParseFlags(),
	}

	if err := env.Parse(&cfg); err != nil {
		log.Panic().Err(err).Msg("Failed to parse env config")
	}

	cfg.JwtParsedPublicKey = utils.ParsePublicKey(cfg.JwtPublicKey)
	cfg.JwtParsedPrivateKey = utils.ParsePrivateKey(cfg.JwtPrivateKey)

	return &cfg, nil
}
