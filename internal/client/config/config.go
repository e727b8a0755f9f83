package config

import (
	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	APIURL     string `env:"API_URL"     envDefault:"http://localhost:8080"`
	DB         string `env:"DB"          envDefault:"fieldlog.db"`
	Mode       string `env:"MODE"        envDefault:"prod"`
	PushToken  string `env:"PUSH_TOKEN"`
	Platform   string `env:"PLATFORM"    envDefault:"android"`
	DeviceInfo string `env:"DEVICE_INFO" envDefault:"fieldlog-cli"`
}

// Load reads FIELDLOG_* variables, after an optional dotenv file.
func Load(path string) (Config, error) {
	if err := godotenv.Load(path); err != nil {
		zap.L().Debug("no env file", zap.String("path", path))
	}

	conf := Config{}
	err := env.ParseWithOptions(&conf, env.Options{Prefix: "FIELDLOG_"})
	return conf, err
}
