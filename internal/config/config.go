package config

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env        string           `yaml:"env" env-default:"development"` // environment
	HTTPServer HTTPServerConfig `yaml:"http_server"`
	Database   DatabaseConfig   `yaml:"database"`
	JWT        JWTConfig        `yaml:"jwt"`
	Migrations MigrationsConfig `yaml:"migrations"`
	Payment    PaymentConfig    `yaml:"payment"`
	Orders     OrdersConfig     `yaml:"orders"`
	RabbitMQ   RabbitMQConfig   `yaml:"rabbitmq"`
}

// HTTPServerConfig структура http сервера
type HTTPServerConfig struct {
	Address     string        `yaml:"address" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// DatabaseConfig структура по работе с БД
type DatabaseConfig struct {
	Host     string `yaml:"host" env-default:"localhost"`
	Port     int    `yaml:"port" env-default:"5432"`
	User     string `yaml:"user" env-required:"true"`
	Password string `yaml:"-" env:"DB_PASSWORD" env-required:"true"`
	Name     string `yaml:"name" env-required:"true"`
}

// JWTConfig настройка jwt
type JWTConfig struct {
	Secret   string `yaml:"-" env:"JWT_SECRET" env-required:"true"`
	TokenTTL int    `yaml:"token_ttl" env-default:"60"`
}

type MigrationsConfig struct {
	Path string `yaml:"path" env-default:"./migrations"`
}

// PaymentConfig настройки платежного провайдера.
// Если ключи не заданы, платежи работают в mock-режиме.
type PaymentConfig struct {
	KeyID     string        `yaml:"-" env:"RAZORPAY_KEY_ID"`
	KeySecret string        `yaml:"-" env:"RAZORPAY_KEY_SECRET"`
	BaseURL   string        `yaml:"base_url" env-default:"https://api.razorpay.com"`
	Currency  string        `yaml:"currency" env-default:"INR"`
	Timeout   time.Duration `yaml:"timeout" env-default:"10s"`
}

// OrdersConfig настройки жизненного цикла заказов
type OrdersConfig struct {
	// RequireAuthOnPlace требует токен при создании заказа, userId должен совпадать с токеном
	RequireAuthOnPlace bool `yaml:"require_auth_on_place" env-default:"false"`
	// VerifyTotal пересчитывает totalAmount по позициям заказа
	VerifyTotal      bool `yaml:"verify_total" env-default:"false"`
	ReconcileWorkers int  `yaml:"reconcile_workers" env-default:"4"`
}

// RabbitMQConfig - пустой URL отключает публикацию событий
type RabbitMQConfig struct {
	URL      string `yaml:"-" env:"RABBITMQ_URL"`
	Exchange string `yaml:"exchange" env-default:"order_events"`
}

// MustLoad - если не загружаем - паникуем
func MustLoad() *Config {
	configPath := fetchConfigPath()
	if configPath == "" {
		log.Fatal("CONFIG_PATH not exists")
	}
	return MustLoadByPath(configPath)
}

func fetchConfigPath() string {
	var path string

	flag.StringVar(&path, "config", "", "path to config file")
	flag.Parse()

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	return path
}

func MustLoadByPath(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file not found: " + configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("can't read config file %s: %v", configPath, err)
	}

	return &cfg
}
