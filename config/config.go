// Package config provides configuration management for the Webpay Plus payment facade.
// Configuration can be loaded from YAML files and overridden by environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvironmentIntegration = "INTEGRACION"
	EnvironmentProduction  = "PRODUCCION"

	integrationURL = "https://webpay3gint.transbank.cl"
	productionURL  = "https://webpay3g.transbank.cl"
)

// Config holds all configuration for the payment facade.
// Values can be set via YAML configuration file or environment variables.
// Environment variables take precedence over YAML values.
type Config struct {
	IsDebug     bool   `yaml:"is_debug" env:"DEBUG" env-default:"false"`
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME" env-default:"Webpay Plus Go Server"`
	BaseUrl     string `yaml:"base_url" env:"BASE_URL" env-default:"http://localhost:3001"`
	Listen      struct {
		BindIP   string `yaml:"bind_ip" env:"BIND_IP" env-default:"0.0.0.0"`
		Port     string `yaml:"port" env:"PORT" env-default:"5001"`
		TLS      bool   `yaml:"tls_enabled" env:"TLS_ENABLED" env-default:"false"`
		CertFile string `yaml:"cert_file" env:"TLS_CERT_FILE" env-default:""`
		KeyFile  string `yaml:"key_file" env:"TLS_KEY_FILE" env-default:""`
	} `yaml:"listen"`
	Cors struct {
		AllowedOrigin string `yaml:"allowed_origin" env:"CORS_ALLOWED_ORIGIN" env-default:"*"`
	} `yaml:"cors"`
	Mongo struct {
		Enabled  bool   `yaml:"enabled" env:"MONGO_ENABLED" env-default:"false"`
		Host     string `yaml:"host" env:"MONGO_HOST" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env:"MONGO_PORT" env-default:"27017"`
		User     string `yaml:"user" env:"MONGO_USER" env-default:""`
		Password string `yaml:"password" env:"MONGO_PASSWORD" env-default:""`
		Database string `yaml:"database" env:"MONGO_DATABASE" env-default:"webpay"`
	} `yaml:"mongo"`
	Transbank struct {
		CommerceCode string `yaml:"commerce_code" env:"TRANSBANK_COMMERCE_CODE" env-default:"597055555532"`
		ApiKey       string `yaml:"api_key" env:"TRANSBANK_API_KEY" env-default:"579B532A7440BB0C9079DED94D31EA1615BACEB56610332264630D42D0A36B1C"`
		Environment  string `yaml:"environment" env:"TRANSBANK_ENVIRONMENT" env-default:"INTEGRACION"`
		RequestUrl   string `yaml:"request_url" env:"TRANSBANK_REQUEST_URL" env-default:""`
	} `yaml:"transbank"`
}

var instance *Config
var once sync.Once

// GetConfig loads configuration from the specified YAML file path.
// Configuration values can be overridden by environment variables.
// When the file does not exist, configuration is read from the environment only.
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
		instance, err = load(path)
	})
	return instance, err
}

func load(path string) (*Config, error) {
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
	if err = conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func (c *Config) validate() error {
	c.Transbank.Environment = strings.ToUpper(strings.TrimSpace(c.Transbank.Environment))
	switch c.Transbank.Environment {
	case EnvironmentIntegration, EnvironmentProduction:
	default:
		return fmt.Errorf("unknown transbank environment %q", c.Transbank.Environment)
	}
	if c.Transbank.CommerceCode == "" || c.Transbank.ApiKey == "" {
		return fmt.Errorf("transbank credentials not configured")
	}
	c.BaseUrl = strings.TrimRight(c.BaseUrl, "/")
	return nil
}

// IsProduction reports whether the gateway runs against the live environment.
func (c *Config) IsProduction() bool {
	return c.Transbank.Environment == EnvironmentProduction
}

// GatewayURL returns the Webpay Plus host; an explicit request url wins over the environment default.
func (c *Config) GatewayURL() string {
	if c.Transbank.RequestUrl != "" {
		return strings.TrimRight(c.Transbank.RequestUrl, "/")
	}
	if c.IsProduction() {
		return productionURL
	}
	return integrationURL
}
