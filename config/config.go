// Package config provides configuration management for the PayFast payment service.
// Configuration can be loaded from YAML files and overridden by environment variables.
package config

import (
	"fmt"
	"net/netip"
	"strings"
	"sync"
	"time"

	"payfast/entity"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for the PayFast payment service.
// Values can be set via YAML configuration file or environment variables.
// Environment variables take precedence over YAML values.
type Config struct {
	IsDebug bool `yaml:"is_debug" env:"DEBUG" env-default:"false"`
	Listen  struct {
		BindIP   string `yaml:"bind_ip" env:"BIND_IP" env-default:"0.0.0.0"`
		Port     string `yaml:"port" env:"PORT" env-default:"5100"`
		TLS      bool   `yaml:"tls_enabled" env:"TLS_ENABLED" env-default:"false"`
		CertFile string `yaml:"cert_file" env:"TLS_CERT_FILE" env-default:""`
		KeyFile  string `yaml:"key_file" env:"TLS_KEY_FILE" env-default:""`
		// TrustForwarded takes the caller address from X-Forwarded-For; enable only behind a proxy.
		TrustForwarded bool `yaml:"trust_forwarded" env:"TRUST_FORWARDED" env-default:"false"`
		// TrustedProxies are addresses or CIDRs of the proxies in front of the service.
		TrustedProxies []string `yaml:"trusted_proxies" env:"TRUSTED_PROXIES" env-separator:","`
	} `yaml:"listen"`
	Store struct {
		Url string `yaml:"url" env:"STORE_URL" env-default:"http://localhost:5100/"`
	} `yaml:"store"`
	Mongo struct {
		Enabled  bool   `yaml:"enabled" env:"MONGO_ENABLED" env-default:"false"`
		Host     string `yaml:"host" env:"MONGO_HOST" env-default:"127.0.0.1"`
		Port     string `yaml:"port" env:"MONGO_PORT" env-default:"27017"`
		User     string `yaml:"user" env:"MONGO_USER" env-default:"admin"`
		Password string `yaml:"password" env:"MONGO_PASSWORD" env-default:"pass"`
		Database string `yaml:"database" env:"MONGO_DATABASE" env-default:"payfast"`
	} `yaml:"mongo"`
	Merchant struct {
		Id         string `yaml:"id" env:"MERCHANT_ID" env-default:""`
		Key        string `yaml:"key" env:"MERCHANT_KEY" env-default:""`
		Passphrase string `yaml:"passphrase" env:"MERCHANT_PASSPHRASE" env-default:""`
		// Production selects the live gateway; the sandbox is used otherwise.
		Production              bool    `yaml:"production" env:"MERCHANT_PRODUCTION" env-default:"false"`
		AdditionalFee           float64 `yaml:"additional_fee" env:"MERCHANT_ADDITIONAL_FEE" env-default:"0"`
		AdditionalFeePercentage bool    `yaml:"additional_fee_percentage" env:"MERCHANT_ADDITIONAL_FEE_PERCENTAGE" env-default:"false"`
	} `yaml:"merchant"`
	Gateway struct {
		ProductionUrl   string        `yaml:"production_url" env:"GATEWAY_PRODUCTION_URL" env-default:"https://www.payfast.co.za"`
		SandboxUrl      string        `yaml:"sandbox_url" env:"GATEWAY_SANDBOX_URL" env-default:"https://sandbox.payfast.co.za"`
		ValidateTimeout time.Duration `yaml:"validate_timeout" env:"GATEWAY_VALIDATE_TIMEOUT" env-default:"10s"`
		// AllowedHosts are resolved to the set of addresses notifications may come from.
		AllowedHosts []string `yaml:"allowed_hosts" env:"GATEWAY_ALLOWED_HOSTS" env-separator:"," env-default:"www.payfast.co.za,sandbox.payfast.co.za,w1w.payfast.co.za,w2w.payfast.co.za"`
	} `yaml:"gateway"`
	Resolver struct {
		CacheTTL time.Duration `yaml:"cache_ttl" env:"RESOLVER_CACHE_TTL" env-default:"60s"`
	} `yaml:"resolver"`
	Redis struct {
		Enabled  bool   `yaml:"enabled" env:"REDIS_ENABLED" env-default:"false"`
		Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"127.0.0.1:6379"`
		Password string `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
		DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
	} `yaml:"redis"`
	Kafka struct {
		Enabled bool     `yaml:"enabled" env:"KAFKA_ENABLED" env-default:"false"`
		Brokers []string `yaml:"brokers" env:"KAFKA_BROKERS" env-separator:"," env-default:"127.0.0.1:9092"`
		Topic   string   `yaml:"topic" env:"KAFKA_TOPIC" env-default:"payfast.order-paid"`
		// PublishTimeout bounds one publish, retries included.
		PublishTimeout time.Duration `yaml:"publish_timeout" env:"KAFKA_PUBLISH_TIMEOUT" env-default:"3s"`
	} `yaml:"kafka"`
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
		instance, err = Load(path)
	})
	return instance, err
}

// Load reads a fresh configuration from path, bypassing the singleton.
func Load(path string) (*Config, error) {
	conf := &Config{}
	if err := cleanenv.ReadConfig(path, conf); err != nil {
		desc, _ := cleanenv.GetDescription(conf, nil)
		return nil, fmt.Errorf("load config: %w; %s", err, desc)
	}
	if conf.Gateway.ValidateTimeout <= 0 {
		return nil, fmt.Errorf("load config: gateway validate timeout must be positive")
	}
	if conf.Resolver.CacheTTL < 0 {
		return nil, fmt.Errorf("load config: resolver cache ttl must not be negative")
	}
	if conf.Kafka.PublishTimeout <= 0 {
		return nil, fmt.Errorf("load config: kafka publish timeout must be positive")
	}
	if _, err := conf.TrustedProxyPrefixes(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return conf, nil
}

// TrustedProxyPrefixes parses the trusted proxies; a bare address is a
// single-host prefix.
func (c *Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(c.Listen.TrustedProxies))
	for _, value := range c.Listen.TrustedProxies {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if strings.Contains(value, "/") {
			prefix, err := netip.ParsePrefix(value)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", value, err)
			}
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(value)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", value, err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// GatewayUrl returns the gateway base url for the selected environment.
func (c *Config) GatewayUrl(sandbox bool) string {
	if sandbox {
		return c.Gateway.SandboxUrl
	}
	return c.Gateway.ProductionUrl
}

// Settings returns the merchant settings described by the configuration.
// They are used as install defaults and when no settings store is available.
func (c *Config) Settings() entity.Settings {
	return entity.Settings{
		MerchantId:              c.Merchant.Id,
		MerchantKey:             c.Merchant.Key,
		Passphrase:              c.Merchant.Passphrase,
		UseSandbox:              !c.Merchant.Production,
		AdditionalFee:           c.Merchant.AdditionalFee,
		AdditionalFeePercentage: c.Merchant.AdditionalFeePercentage,
	}
}
