package config

import (
	"log"
	"os"
	"time"

	"github.com/eshophub/storefront/pkg/utils"
	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env     string  `yaml:"env" env:"ENV" env-default:"local"`
	HTTP    HTTP    `yaml:"http"`
	Catalog Catalog `yaml:"catalog"`
	Auth    Auth    `yaml:"auth"`
	Storage Storage `yaml:"storage"`
	Redis   Redis   `yaml:"redis"`
	Limiter Limiter `yaml:"limiter"`
	Pricing Pricing `yaml:"pricing"`
}

type HTTP struct {
	Port    string        `yaml:"port" env:"HTTP_PORT" env-default:":3000"`
	Timeout time.Duration `yaml:"timeout" env-default:"4s"`
}

type Catalog struct {
	BaseURL string        `yaml:"base_url" env:"CATALOG_URL" env-default:"https://dummyjson.com"`
	Timeout time.Duration `yaml:"timeout" env-default:"5s"`
}

type Auth struct {
	BaseURL string        `yaml:"base_url" env:"AUTH_URL"`
	APIKey  string        `yaml:"api_key" env:"AUTH_API_KEY"`
	Timeout time.Duration `yaml:"timeout" env-default:"10s"`
}

type Storage struct {
	// Backend selects the KV implementation: file, redis or memory.
	Backend string `yaml:"backend" env:"STORAGE_BACKEND" env-default:"file"`
	Path    string `yaml:"path" env:"STORAGE_PATH" env-default:"./storefront.json"`
}

type Redis struct {
	Addr string `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
}

type Limiter struct {
	Max        int           `yaml:"max" env-default:"20"`
	Expiration time.Duration `yaml:"expiration" env-default:"5s"`
}

// Pricing carries the canonical cart policy: the flat fee applies when the
// subtotal is at or below the threshold, strictly greater ships free.
type Pricing struct {
	TaxRate               float64 `yaml:"tax_rate" env:"TAX_RATE" env-default:"0.10"`
	FreeShippingThreshold float64 `yaml:"free_shipping_threshold" env:"FREE_SHIPPING_THRESHOLD" env-default:"50"`
	FlatShippingFee       float64 `yaml:"flat_shipping_fee" env:"FLAT_SHIPPING_FEE" env-default:"10"`
}

func MustLoad() *Config {
	configPath := utils.ParseWithFallback("CONFIG_PATH", "./config/local.yaml")

	var cfg Config

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			log.Fatalf("error reading config from env: %v", err)
		}
		return &cfg
	}

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("error reading config: %v", err)
	}

	return &cfg
}
