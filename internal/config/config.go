package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const (
	DefaultCacheTime = time.Hour
	MaxMemory        = 1 << 20
)

type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"fieldlog"`

	Server   ServerConfig   `envPrefix:"SERVER_"`
	DB       DBConfig       `envPrefix:"POSTGRES_"`
	Redis    RedisConfig    `envPrefix:"REDIS_"`
	Jaeger   JaegerConfig   `envPrefix:"JAEGER_"`
	Auth     AuthConfig     `envPrefix:"AUTH_"`
	Push     PushConfig     `envPrefix:"PUSH_"`
	Reminder ReminderConfig `envPrefix:"REMINDER_"`
	Email    EmailConfig    `envPrefix:"EMAIL_"`
}

type ServerConfig struct {
	Mode     string `env:"MODE"      envDefault:"dev"`
	Port     int    `env:"PORT"      envDefault:"8080"`
	GRPCPort int    `env:"GRPC_PORT" envDefault:"50050"`
	Scheme   string `env:"SCHEME"    envDefault:"http"`
	Domain   string `env:"DOMAIN"    envDefault:"localhost"`
}

type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"postgres"`
	Password string `env:"PASSWORD" envDefault:"postgres"`
	Database string `env:"DB"       envDefault:"fieldlog"`
}

type RedisConfig struct {
	Addr string `env:"ADDR" envDefault:"localhost:6379"`
	Pass string `env:"PASS"`
}

type JaegerConfig struct {
	Sampler  SamplerConfig  `envPrefix:"SAMPLER_"`
	Reporter ReporterConfig `envPrefix:"REPORTER_"`
}

type SamplerConfig struct {
	Type  string  `env:"TYPE"  envDefault:"const"`
	Param float64 `env:"PARAM" envDefault:"1"`
}

type ReporterConfig struct {
	LogSpans           bool   `env:"LOG_SPANS"  envDefault:"false"`
	LocalAgentHostPort string `env:"AGENT_ADDR" envDefault:"localhost:6831"`
}

type AuthConfig struct {
	JWT JWTConfig `envPrefix:"JWT_"`
}

type JWTConfig struct {
	AccessSecret  string        `env:"ACCESS_SECRET,required"`
	RefreshSecret string        `env:"REFRESH_SECRET,required"`
	Issuer        string        `env:"ISSUER"      envDefault:"fieldlog"`
	AccessTTL     time.Duration `env:"ACCESS_TTL"  envDefault:"24h"`
	RefreshTTL    time.Duration `env:"REFRESH_TTL" envDefault:"168h"`
}

// PushConfig leaves CredentialsFile empty when push delivery is not configured.
type PushConfig struct {
	CredentialsFile string `env:"CREDENTIALS_FILE"`
	ProjectID       string `env:"PROJECT_ID"`
}

type ReminderConfig struct {
	Enabled  bool          `env:"ENABLED"  envDefault:"true"`
	Spec     string        `env:"SPEC"     envDefault:"0 9 * * *"`
	Timezone string        `env:"TIMEZONE" envDefault:"Local"`
	LockTTL  time.Duration `env:"LOCK_TTL" envDefault:"30m"`
}

type EmailConfig struct {
	Server string `env:"SERVER"`
	Port   int    `env:"PORT" envDefault:"587"`
	User   string `env:"USER"`
	Pass   string `env:"PASS"`
}

// MustLoad reads an optional dotenv file and then the process environment.
func MustLoad(path string) Config {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		zap.L().Fatal("failed to read env file", zap.String("path", path), zap.Error(err))
	}

	conf := Config{}
	if err := env.Parse(&conf); err != nil {
		zap.L().Fatal("failed to parse config", zap.Error(err))
	}

	return conf
}

func (c ReminderConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}
