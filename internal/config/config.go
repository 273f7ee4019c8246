package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	RedisHost     string `env:"REDIS_HOST"     envDefault:"localhost"`
	RedisPort     uint16 `env:"REDIS_PORT"     envDefault:"6379" validate:"min=1000,max=65535"`
	RedisDb       int    `env:"REDIS_DB"       envDefault:"0"    validate:"min=0,max=15"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	PostgresHost     string `env:"POSTGRES_HOST"     envDefault:"localhost"`
	PostgresPort     string `env:"POSTGRES_PORT"     envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER"     envDefault:"chat_user"`
	PostgresPassword string `env:"POSTGRES_PASSWORD" envDefault:"chat_password"`
	PostgresDb       string `env:"POSTGRES_DB"       envDefault:"chat_db"`

	SecretKey                string `env:"SECRET_KEY"                  validate:"required,min=16"`
	Algorithm                string `env:"ALGORITHM"                   envDefault:"HS256" validate:"oneof=HS256 HS384 HS512"`
	AccessTokenExpireMinutes int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"30"    validate:"min=1"`
	BcryptCost               int    `env:"BCRYPT_COST"                 envDefault:"12"    validate:"min=4,max=31"`

	HistoryMaxLen  int   `env:"HISTORY_MAX_LEN"  envDefault:"500"  validate:"min=1"`
	HistoryReplay  int   `env:"HISTORY_REPLAY"   envDefault:"100"  validate:"min=0,ltefield=HistoryMaxLen"`
	MaxMessageSize int64 `env:"MAX_MESSAGE_SIZE" envDefault:"4096" validate:"min=64"`

	HttpServerPort uint16   `env:"HTTP_SERVER_PORT" envDefault:"8085" validate:"min=1000,max=65535"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS"  envSeparator:","`
	LogFormat      string   `env:"LOG_FORMAT"       envDefault:"console" validate:"oneof=console json"`
}

func LoadConfig() (*Config, error) {
	// Load environment variables from .env file
	err := godotenv.Load(".env")
	if err != nil {
		zap.L().Debug(".env file not found", zap.Error(err))
	}

	cfg := &Config{}
	if err = env.Parse(cfg); err != nil {
		zap.L().Error("config_load_failed", zap.Error(err))
		return nil, err
	}

	if err = Validate(cfg); err != nil {
		zap.L().Error("config_validation_failed", zap.Error(err))
		return nil, err
	}
	return cfg, nil
}

// Validate checks the struct tags; split out so callers building a Config by
// hand (tests, tools) get the same rules.
func Validate(cfg *Config) error {
	return validator.New().Struct(cfg)
}
