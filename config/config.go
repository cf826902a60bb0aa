package config

import (
	"net"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/viper"
)

const (
	EnvDev     = "dev"
	EnvStaging = "staging"
	EnvProd    = "prod"
)

const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type ServerConfig struct {
	Address     string `mapstructure:"address"`
	Environment string `mapstructure:"environment"`
}

type NodeConfig struct {
	Rank           int `mapstructure:"rank"`
	WorldSize      int `mapstructure:"world_size"`
	LocalWorldSize int `mapstructure:"local_world_size"`
}

type HealthcheckConfig struct {
	AbortOnError        bool   `mapstructure:"abort_on_error"`
	Interval            string `mapstructure:"interval"`
	Timeout             string `mapstructure:"timeout"`
	SetupTimeout        string `mapstructure:"setup_timeout"`
	SingleChannelRounds bool   `mapstructure:"single_channel_rounds"`
}

type StoreConfig struct {
	Backend  string `mapstructure:"backend"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Node        NodeConfig        `mapstructure:"node"`
	Healthcheck HealthcheckConfig `mapstructure:"healthcheck"`
	Store       StoreConfig       `mapstructure:"store"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

func Load() (*Config, error) {
	viper.SetDefault("server.environment", EnvDev)
	viper.SetDefault("server.address", ":9090")
	viper.SetDefault("healthcheck.abort_on_error", true)
	viper.SetDefault("healthcheck.interval", "60s")
	viper.SetDefault("healthcheck.timeout", "10s")
	viper.SetDefault("healthcheck.setup_timeout", "0s")
	viper.SetDefault("healthcheck.single_channel_rounds", false)
	viper.SetDefault("store.backend", StoreRedis)
	viper.SetDefault("store.address", "localhost:6379")
	viper.SetDefault("logging.level", LogLevelInfo)

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server,
			validation.Required,
			validation.By(func(value interface{}) error {
				sc, ok := value.(ServerConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a ServerConfig")
				}
				return validation.ValidateStruct(&sc,
					validation.Field(&sc.Environment,
						validation.Required,
						validation.In(EnvDev, EnvStaging, EnvProd),
					),
					validation.Field(&sc.Address,
						validation.Required,
						validation.By(validateHostPort),
					),
				)
			}),
		),
		validation.Field(&c.Node,
			validation.Required,
			validation.By(func(value interface{}) error {
				nc, ok := value.(NodeConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a NodeConfig")
				}
				return validation.ValidateStruct(&nc,
					validation.Field(&nc.Rank,
						validation.Min(0),
					),
					validation.Field(&nc.WorldSize,
						validation.Required,
						validation.Min(2),
					),
					validation.Field(&nc.LocalWorldSize,
						validation.Required,
						validation.Min(1),
					),
				)
			}),
		),
		validation.Field(&c.Healthcheck,
			validation.Required,
			validation.By(func(value interface{}) error {
				hc, ok := value.(HealthcheckConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a HealthcheckConfig")
				}
				return validation.ValidateStruct(&hc,
					validation.Field(&hc.Interval,
						validation.Required,
						validation.By(validateDuration),
					),
					validation.Field(&hc.Timeout,
						validation.Required,
						validation.By(validateDuration),
					),
					validation.Field(&hc.SetupTimeout,
						validation.By(validateDuration),
					),
				)
			}),
		),
		validation.Field(&c.Store,
			validation.Required,
			validation.By(validateStoreConfig),
		),
		validation.Field(&c.Logging,
			validation.Required,
			validation.By(func(value interface{}) error {
				lc, ok := value.(LoggingConfig)
				if !ok {
					return validation.NewError("validation_invalid_type", "must be a LoggingConfig")
				}
				return validation.ValidateStruct(&lc,
					validation.Field(&lc.Level,
						validation.Required,
						validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError),
					),
				)
			}),
		),
	)
}

func validateHostPort(value interface{}) error {
	addr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}

	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return validation.NewError("validation_invalid_hostport", "must be in host:port format")
	}

	if port == "" {
		return validation.NewError("validation_invalid_port", "port cannot be empty")
	}

	if host != "" {
		if err := is.Host.Validate(host); err != nil {
			return validation.NewError("validation_invalid_host", "invalid host")
		}
	}

	return nil
}

func validateDuration(value interface{}) error {
	durationStr, ok := value.(string)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a string")
	}
	if durationStr == "" {
		return nil
	}

	if _, err := time.ParseDuration(durationStr); err != nil {
		return validation.NewError("validation_invalid_duration", "must be a valid duration (e.g., 10s, 1m)")
	}

	return nil
}

func validateStoreConfig(value interface{}) error {
	sc, ok := value.(StoreConfig)
	if !ok {
		return validation.NewError("validation_invalid_type", "must be a StoreConfig")
	}

	if err := validation.ValidateStruct(&sc,
		validation.Field(&sc.Backend,
			validation.Required,
			validation.In(StoreMemory, StoreRedis),
		),
		validation.Field(&sc.DB,
			validation.Min(0),
		),
	); err != nil {
		return err
	}

	if sc.Backend == StoreRedis {
		if err := validateHostPort(sc.Address); err != nil {
			return err
		}
	}

	return nil
}
