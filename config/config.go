// Package config provides configuration management for the payment overlay service.
// Configuration can be loaded from YAML files and overridden by environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"overlay/entity"
	"sync"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const EnvProduction = "production"

// Config holds all configuration for the payment overlay service.
// Values can be set via YAML configuration file or environment variables.
// Environment variables take precedence over YAML values.
type Config struct {
	Env     string `yaml:"env" env:"APP_ENV" env-default:"development"`
	IsDebug bool   `yaml:"is_debug" env:"DEBUG" env-default:"false"`
	Listen  struct {
		BindIP   string `yaml:"bind_ip" env:"BIND_IP" env-default:"0.0.0.0"`
		Port     string `yaml:"port" env:"PORT" env-default:"3002"`
		TLS      bool   `yaml:"tls_enabled" env:"TLS_ENABLED" env-default:"false"`
		CertFile string `yaml:"cert_file" env:"TLS_CERT_FILE" env-default:""`
		KeyFile  string `yaml:"key_file" env:"TLS_KEY_FILE" env-default:""`
	} `yaml:"listen"`
	Gateway struct {
		PaymentUrl string `yaml:"payment_url" env:"GATEWAY_PAYMENT_URL" env-default:"https://payment.checkout.fi"`
		PollUrl    string `yaml:"poll_url" env:"GATEWAY_POLL_URL" env-default:"https://rpcapi.checkout.fi/poll"`
		RefundUrl  string `yaml:"refund_url" env:"GATEWAY_REFUND_URL" env-default:"https://rpcapi.checkout.fi/refund2"`
		Timeout    int    `yaml:"timeout_seconds" env:"GATEWAY_TIMEOUT" env-default:"30"`
		LogBodies  bool   `yaml:"log_bodies" env:"GATEWAY_LOG_BODIES" env-default:"false"`
	} `yaml:"gateway"`
	Mongo struct {
		Enabled  bool   `yaml:"enabled" env:"MONGO_ENABLED" env-default:"false"`
		Host     string `yaml:"host" env:"MONGO_HOST" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env:"MONGO_PORT" env-default:"27017"`
		User     string `yaml:"user" env:"MONGO_USER" env-default:"admin"`
		Password string `yaml:"password" env:"MONGO_PASSWORD" env-default:"pass"`
		Database string `yaml:"database" env:"MONGO_DATABASE" env-default:""`
	} `yaml:"mongo"`
	Redis struct {
		Enabled  bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
		Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"127.0.0.1:6379"`
		Password string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
		DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
		TTL      int    `yaml:"ttl_seconds" env:"REDIS_TTL" env-default:"300"`
	} `yaml:"redis"`
	// Merchant is a single merchant configured through the environment, convenient for test setups.
	Merchant struct {
		Id     string `yaml:"id" env:"MERCHANT_ID" env-default:""`
		Secret string `yaml:"secret" env:"MERCHANT_SECRET" env-default:""`
	} `yaml:"merchant"`
	Merchants []entity.MerchantParameters `yaml:"merchants"`
}

func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

func (c *Config) GatewayTimeout() time.Duration {
	if c.Gateway.Timeout <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.Gateway.Timeout) * time.Second
}

func (c *Config) RedisTTL() time.Duration {
	return time.Duration(c.Redis.TTL) * time.Second
}

// StaticMerchants returns the merchants declared in the configuration, the environment
// merchant first.
func (c *Config) StaticMerchants() []entity.MerchantParameters {
	merchants := make([]entity.MerchantParameters, 0, len(c.Merchants)+1)
	if c.Merchant.Id != "" {
		merchants = append(merchants, entity.MerchantParameters{
			MerchantId: c.Merchant.Id,
			Secret:     c.Merchant.Secret,
		})
	}
	return append(merchants, c.Merchants...)
}

var instance *Config
var once sync.Once

// GetConfig loads configuration from the specified YAML file path.
// Configuration values can be overridden by environment variables.
// This function uses a singleton pattern and only loads the config once.
//
// Example:
//
//	cfg, err := config.GetConfig("config.yml")
//	if err != nil {
//	    log.Fatal(err)
//	}
func GetConfig(path string) (*Config, error) {
	var err error
	once.Do(func() {
		instance, err = ReadConfig(path)
	})
	return instance, err
}

// ReadConfig loads a fresh configuration without touching the singleton.
// A missing file is not an error, the configuration then comes from the environment only.
func ReadConfig(path string) (*Config, error) {
	conf := &Config{}
	var err error
	if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
		err = cleanenv.ReadEnv(conf)
	} else {
		err = cleanenv.ReadConfig(path, conf)
	}
	if err != nil {
		desc, _ := cleanenv.GetDescription(conf, nil)
		return nil, fmt.Errorf("load config: %w; %s", err, desc)
	}
	return conf, nil
}
