package config

import "time"

type Config struct {
	App      AppConfig      `env-prefix:"APP_"`
	HTTP     HTTPConfig     `env-prefix:"HTTP_"`
	Database DatabaseConfig `env-prefix:"DB_"`
	Auth     AuthConfig     `env-prefix:"AUTH_"`
}

type AppConfig struct {
	LogLevel string `env:"LOG_LEVEL" env-default:"info"`
}

type HTTPConfig struct {
	Addr              string        `env:"ADDR" env-default:":8080"`
	AllowedOrigin     string        `env:"ALLOWED_ORIGIN" env-default:"*"`
	ReadHeaderTimeout time.Duration `env:"READ_HEADER_TIMEOUT" env-default:"5s"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"3s"`
}

type DatabaseConfig struct {
	Host         string        `env:"HOST" env-default:"localhost"`
	Port         string        `env:"PORT" env-default:"5432"`
	Name         string        `env:"NAME" env-default:"notes"`
	User         string        `env:"USER" env-default:"notes"`
	Password     string        `env:"PASSWORD"`
	SSLMode      string        `env:"SSLMODE" env-default:"disable"`
	PingAttempts uint          `env:"PING_ATTEMPTS" env-default:"5"`
	PingDelay    time.Duration `env:"PING_DELAY" env-default:"2s"`
	Migrate      bool          `env:"MIGRATE" env-default:"true"`
}

type AuthConfig struct {
	JWTSecret string `env:"JWT_SECRET" env-required:"true"`
}
