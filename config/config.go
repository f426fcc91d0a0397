package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

var (
	ErrPrivateKeyNotSet      = errors.New("PRIVATE_KEY not set in environment variables")
	ErrPayrollAddressNotSet  = errors.New("PAYROLL_CONTRACT_ADDRESS not set in environment variables")
	errInvalidAddressInField = errors.New("invalid address")
)

type Config struct {
	RPCURL          string         `mapstructure:"rpc_url" json:"rpc_url" validate:"required,url"`
	PrivateKey      string         `mapstructure:"private_key" json:"-"`
	PayrollContract common.Address `mapstructure:"payroll_contract_address" json:"payroll_contract_address"`
	ChainID         int64          `mapstructure:"chain_id" json:"chain_id,omitempty" validate:"gte=0"`
	ExplorerURL     string         `mapstructure:"explorer_url" json:"explorer_url,omitempty" validate:"omitempty,url"`

	Contracts struct {
		Factory           common.Address `mapstructure:"factory" json:"factory"`
		HedgeVaultManager common.Address `mapstructure:"hedge_vault_manager" json:"hedge_vault_manager"`
		Faucet            common.Address `mapstructure:"faucet" json:"faucet"`
		StableToken       common.Address `mapstructure:"stable_token" json:"stable_token"`
		VolatileToken     common.Address `mapstructure:"volatile_token" json:"volatile_token"`
	} `mapstructure:"contracts" json:"contracts"`

	Payment struct {
		GasLimit       uint64        `mapstructure:"gas_limit" json:"gas_limit" validate:"gt=0"`
		Method         string        `mapstructure:"method" json:"method" validate:"oneof=standard hedge force"`
		WaitTimeout    time.Duration `mapstructure:"wait_timeout" json:"wait_timeout" validate:"gt=0"`
		PlatformFeeBps uint64        `mapstructure:"platform_fee_bps" json:"platform_fee_bps" validate:"lte=10000"`
		ClaimTTL       time.Duration `mapstructure:"claim_ttl" json:"claim_ttl" validate:"gt=0"`
	} `mapstructure:"payment" json:"payment"`

	Scheduler struct {
		Cron         string           `mapstructure:"cron" json:"cron" validate:"required"`
		PollInterval time.Duration    `mapstructure:"poll_interval" json:"poll_interval" validate:"gt=0"`
		RunTimeout   time.Duration    `mapstructure:"run_timeout" json:"run_timeout" validate:"gt=0"`
		Contracts    []common.Address `mapstructure:"contracts" json:"contracts,omitempty"`
	} `mapstructure:"scheduler" json:"scheduler"`

	Server struct {
		Host string `mapstructure:"host" json:"host,omitempty"`
		Port int64  `mapstructure:"port" json:"port,omitempty" validate:"gt=0,lte=65535"`
	} `mapstructure:"server" json:"server"`

	Database struct {
		DSN string `mapstructure:"dsn" json:"dsn,omitempty"`
	} `mapstructure:"database" json:"database,omitempty"`

	Redis struct {
		Host     string `mapstructure:"host" json:"host,omitempty"`
		Port     string `mapstructure:"port" json:"port,omitempty"`
		User     string `mapstructure:"user" json:"user,omitempty"`
		Password string `mapstructure:"password" json:"password,omitempty"`
		DB       int    `mapstructure:"db" json:"db,omitempty"`
	} `mapstructure:"redis" json:"redis,omitempty"`

	BlockStorage struct {
		Host      string `mapstructure:"host" json:"host"`
		Region    string `mapstructure:"region" json:"region"`
		AccessKey string `mapstructure:"access_key" json:"access_key"`
		SecretKey string `mapstructure:"secret" json:"secret"`
		Bucket    string `mapstructure:"bucket" json:"bucket"`
	} `mapstructure:"block_storage" json:"block_storage"`

	Datadog struct {
		Host string `mapstructure:"host" json:"host,omitempty"`
		Port string `mapstructure:"port" json:"port,omitempty"`
	} `mapstructure:"datadog" json:"datadog"`

	JWTSecret string `mapstructure:"jwt_secret" json:"jwt_secret,omitempty"`

	Log struct {
		Level  string `mapstructure:"level" json:"level" validate:"oneof=trace debug info warn warning error fatal panic"`
		Format string `mapstructure:"format" json:"format" validate:"oneof=text json"`
	} `mapstructure:"log" json:"log"`
}

// Base Sepolia deployments.
var defaults = map[string]interface{}{
	"rpc_url":                       "http://127.0.0.1:8545",
	"private_key":                   "",
	"payroll_contract_address":      "",
	"chain_id":                      0,
	"explorer_url":                  "",
	"contracts.factory":             "0xE7f1cCB2fA6b47169643e243A546aAD27A6a8Af2",
	"contracts.hedge_vault_manager": "0xDf73efbCA01BaF9cBA1a4B588EcB225d84C97775",
	"contracts.faucet":              "0x3BFC31Ce8A2B1E0e758AfCDaa33766335112016a",
	"contracts.stable_token":        "0x799562f15e87d55aD66209bd63B4a87069D76dF3",
	"contracts.volatile_token":      "0x667E3c1507791e96A4AF670db14bE20c53267C2D",
	"payment.gas_limit":             500000,
	"payment.method":                "standard",
	"payment.wait_timeout":          "5m",
	"payment.platform_fee_bps":      100,
	"payment.claim_ttl":             "168h",
	"scheduler.cron":                "0 * * * *",
	"scheduler.poll_interval":       "30s",
	"scheduler.run_timeout":         "30m",
	"scheduler.contracts":           "",
	"server.host":                   "0.0.0.0",
	"server.port":                   8080,
	"database.dsn":                  "",
	"redis.host":                    "",
	"redis.port":                    "6379",
	"redis.user":                    "",
	"redis.password":                "",
	"redis.db":                      0,
	"block_storage.host":            "",
	"block_storage.region":          "us-east-1",
	"block_storage.access_key":      "",
	"block_storage.secret":          "",
	"block_storage.bucket":          "",
	"datadog.host":                  "",
	"datadog.port":                  "8125",
	"jwt_secret":                    "",
	"log.level":                     "info",
	"log.format":                    "text",
}

func GetConfigure() (*Config, error) {
	configName := os.Getenv("PK_CONFIG_NAME")
	if configName == "" {
		configName = "config"
	}

	return ReadConfig(configName)
}

// ReadConfig loads the named config file from the working directory when it
// exists and overlays environment variables (payment.gas_limit is read from
// PAYMENT_GAS_LIMIT).
func ReadConfig(configName string) (*Config, error) {
	v := viper.New()
	v.SetConfigName(configName)
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("fail to reading config file, %w", err)
		}
	}

	var cfg Config
	err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		StringToAddressHookFunc(),
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)))
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config, %w", err)
	}
	return &cfg, nil
}

// StringToAddressHookFunc decodes hex strings into common.Address. An empty
// string is the zero address.
func StringToAddressHookFunc() mapstructure.DecodeHookFuncType {
	addressType := reflect.TypeOf(common.Address{})
	return func(f reflect.Type, t reflect.Type, data interface{}) (interface{}, error) {
		if f.Kind() != reflect.String || t != addressType {
			return data, nil
		}
		s := strings.TrimSpace(data.(string))
		if s == "" {
			return common.Address{}, nil
		}
		if !common.IsHexAddress(s) {
			return nil, fmt.Errorf("%w: %q", errInvalidAddressInField, s)
		}
		return common.HexToAddress(s), nil
	}
}

// ValidateForRun checks the settings a payment run cannot start without.
func (c *Config) ValidateForRun() error {
	if c.PrivateKey == "" {
		return ErrPrivateKeyNotSet
	}
	if c.PayrollContract == (common.Address{}) {
		return ErrPayrollAddressNotSet
	}
	return nil
}

// ScheduledContracts is the payroll contract plus any extra contracts listed
// for the scheduler, without duplicates.
func (c *Config) ScheduledContracts() []common.Address {
	seen := make(map[common.Address]bool)
	var out []common.Address
	for _, addr := range append([]common.Address{c.PayrollContract}, c.Scheduler.Contracts...) {
		if addr == (common.Address{}) || seen[addr] {
			continue
		}
		seen[addr] = true
		out = append(out, addr)
	}
	return out
}

func (c *Config) RedisAddr() string {
	if c.Redis.Host == "" {
		return ""
	}
	return c.Redis.Host + ":" + c.Redis.Port
}
