package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the full service configuration. Values come from an optional
// YAML file (PAYREC_CONFIG_FILE) with environment variables taking precedence.
type Config struct {
	Environment    string        `yaml:"environment"`
	ServiceName    string        `yaml:"service_name"`
	ServiceVersion string        `yaml:"service_version"`
	HTTP           HTTPConfig    `yaml:"http"`
	Database       Database      `yaml:"database"`
	VNPay          VNPayConfig   `yaml:"vnpay"`
	MoMo           MoMoConfig    `yaml:"momo"`
	Pages          ResultPages   `yaml:"pages"`
	Tracing        TracingConfig `yaml:"tracing"`
	Admin          AdminConfig   `yaml:"admin"`
}

type HTTPConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type Database struct {
	// DSN is a postgres connection string. Empty selects an on-disk sqlite
	// database, which is the zero-config development mode.
	DSN        string `yaml:"dsn"`
	SQLitePath string `yaml:"sqlite_path"`
}

// VNPayConfig carries merchant credentials for the card/bank gateway.
type VNPayConfig struct {
	TmnCode    string `yaml:"tmn_code"`
	HashSecret string `yaml:"hash_secret"`
	PayURL     string `yaml:"pay_url"`
	ReturnURL  string `yaml:"return_url"`
}

// MoMoConfig carries merchant credentials for the e-wallet gateway.
type MoMoConfig struct {
	PartnerCode string `yaml:"partner_code"`
	AccessKey   string `yaml:"access_key"`
	SecretKey   string `yaml:"secret_key"`
	Endpoint    string `yaml:"endpoint"`
	RedirectURL string `yaml:"redirect_url"`
	IPNURL      string `yaml:"ipn_url"`
}

// ResultPages are the browser destinations after reconciliation.
type ResultPages struct {
	SuccessURL string `yaml:"success_url"`
	FailureURL string `yaml:"failure_url"`
}

type TracingConfig struct {
	Enabled          bool    `yaml:"enabled"`
	ExporterEndpoint string  `yaml:"exporter_endpoint"`
	ExporterProtocol string  `yaml:"exporter_protocol"`
	SamplingRatio    float64 `yaml:"sampling_ratio"`
}

type AdminConfig struct {
	// APIKeyHash is the argon2id-encoded hash of the admin API key used by
	// the refund endpoint. An empty hash disables admin routes.
	APIKeyHash string `yaml:"api_key_hash"`
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func defaults() Config {
	return Config{
		Environment:    "development",
		ServiceName:    "payrec",
		ServiceVersion: "dev",
		HTTP: HTTPConfig{
			Addr:            ":8080",
			ShutdownTimeout: 10 * time.Second,
		},
		Database: Database{
			SQLitePath: "payrec.db",
		},
		VNPay: VNPayConfig{
			PayURL: "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		},
		MoMo: MoMoConfig{
			Endpoint: "https://test-payment.momo.vn/v2/gateway/api/create",
		},
		Pages: ResultPages{
			SuccessURL: "http://localhost:3000/payment/success",
			FailureURL: "http://localhost:3000/payment/failure",
		},
		Tracing: TracingConfig{
			ExporterProtocol: "grpc",
			SamplingRatio:    0.1,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file and
// environment overrides, then validates it.
func Load() (Config, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("PAYREC_CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Environment, "PAYREC_ENVIRONMENT")
	setString(&cfg.ServiceName, "PAYREC_SERVICE_NAME")
	setString(&cfg.ServiceVersion, "PAYREC_SERVICE_VERSION")
	setString(&cfg.HTTP.Addr, "PAYREC_HTTP_ADDR")
	setString(&cfg.Database.DSN, "PAYREC_DATABASE_DSN")
	setString(&cfg.Database.SQLitePath, "PAYREC_SQLITE_PATH")

	setString(&cfg.VNPay.TmnCode, "PAYREC_VNPAY_TMN_CODE")
	setString(&cfg.VNPay.HashSecret, "PAYREC_VNPAY_HASH_SECRET")
	setString(&cfg.VNPay.PayURL, "PAYREC_VNPAY_PAY_URL")
	setString(&cfg.VNPay.ReturnURL, "PAYREC_VNPAY_RETURN_URL")

	setString(&cfg.MoMo.PartnerCode, "PAYREC_MOMO_PARTNER_CODE")
	setString(&cfg.MoMo.AccessKey, "PAYREC_MOMO_ACCESS_KEY")
	setString(&cfg.MoMo.SecretKey, "PAYREC_MOMO_SECRET_KEY")
	setString(&cfg.MoMo.Endpoint, "PAYREC_MOMO_ENDPOINT")
	setString(&cfg.MoMo.RedirectURL, "PAYREC_MOMO_REDIRECT_URL")
	setString(&cfg.MoMo.IPNURL, "PAYREC_MOMO_IPN_URL")

	setString(&cfg.Pages.SuccessURL, "PAYREC_PAGE_SUCCESS_URL")
	setString(&cfg.Pages.FailureURL, "PAYREC_PAGE_FAILURE_URL")

	setBool(&cfg.Tracing.Enabled, "PAYREC_TRACING_ENABLED")
	setString(&cfg.Tracing.ExporterEndpoint, "PAYREC_TRACING_ENDPOINT")
	setString(&cfg.Tracing.ExporterProtocol, "PAYREC_TRACING_PROTOCOL")
	setFloat(&cfg.Tracing.SamplingRatio, "PAYREC_TRACING_SAMPLING_RATIO")

	setString(&cfg.Admin.APIKeyHash, "PAYREC_ADMIN_API_KEY_HASH")
}

func (c Config) validate() error {
	if strings.TrimSpace(c.Pages.SuccessURL) == "" || strings.TrimSpace(c.Pages.FailureURL) == "" {
		return errors.New("result page urls are required")
	}
	if c.IsProduction() {
		if strings.TrimSpace(c.Database.DSN) == "" {
			return errors.New("database dsn is required in production")
		}
		if strings.TrimSpace(c.VNPay.HashSecret) == "" {
			return errors.New("vnpay hash secret is required in production")
		}
		if strings.TrimSpace(c.MoMo.SecretKey) == "" {
			return errors.New("momo secret key is required in production")
		}
	}
	return nil
}

func setString(dst *string, key string) {
	if value, ok := os.LookupEnv(key); ok {
		*dst = strings.TrimSpace(value)
	}
}

func setBool(dst *bool, key string) {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseBool(strings.TrimSpace(value))
		if err == nil {
			*dst = parsed
		}
	}
}

func setFloat(dst *float64, key string) {
	if value, ok := os.LookupEnv(key); ok {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err == nil {
			*dst = parsed
		}
	}
}
