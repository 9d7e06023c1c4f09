package shared

import (
	"encoding/json"
	"github.com/joho/godotenv"
	"github.com/tailscale/hujson"
	"log"
	"os"
)

const (
	configVarName  = "CONFIG"                // If set, will load config from this path and not from devConfigPath
	secretsVarName = "SECRETS"               // If set, will load secrets from this path and not from devSecretsPath
	devConfigPath  = "dev/config.dev.jsonc"  // Path to config file in development environment
	devSecretsPath = "dev/secrets.dev.jsonc" // Path to secrets file in development environment
	dotEnvPath     = ".env"
)

const (
	defaultResolvedObjectIdsCap = 200
	defaultPostPublicsCap       = 200
	defaultResponseHistoryCap   = 10
	defaultMaxParallelTasks     = 5
	defaultHttpTimeoutSec       = 10
	defaultProfileKeepDays      = 7
)

type Config struct {
	Secrets              Secrets  `json:"-"`
	LogFile              string   `json:"log_file"`
	LogLevel             string   `json:"log_level"`
	ServicePort          uint     `json:"service_port"`
	Host                 string   `json:"host"`
	DbFile               string   `json:"db_file"`
	ResolvedObjectIdsCap int      `json:"resolved_object_ids_cap"`
	PostPublicsCap       int      `json:"post_publics_cap"`
	ResponseHistoryCap   int      `json:"response_history_cap"`
	MaxParallelTasks     int      `json:"max_parallel_tasks"`
	HttpTimeoutSec       int      `json:"http_timeout_sec"`
	ResolveRedirects     bool     `json:"resolve_redirects"`
	DeliveryHookUrl      string   `json:"delivery_hook_url"`
	BlockedTargetsFile   string   `json:"blocked_targets_file"` // one domain per line; empty blocks nothing
	ProfileDir           string   `json:"profile_dir"`          // goroutine dumps go here; empty disables
	ProfileKeepDays      int      `json:"profile_keep_days"`
	Silos                []string `json:"silos"` // enabled silo names; empty enables all
}

type Secrets struct {
	ApiKeys            []string `json:"api_keys"`
	DeliveryHookKeyId  string   `json:"delivery_hook_key_id"`
	DeliveryHookSecret string   `json:"delivery_hook_secret"`
	MetricsAuth        string   `json:"metrics_auth"`
}

func LoadConfig() *Config {

	// Values from .env only fill variables not already set in the environment
	_ = godotenv.Load(dotEnvPath)

	// Where are our config and secrets files?
	cfgPath := os.Getenv(configVarName)
	if len(cfgPath) == 0 {
		cfgPath = devConfigPath
	}
	secretsPath := os.Getenv(secretsVarName)
	if len(secretsPath) == 0 {
		secretsPath = devSecretsPath
	}

	// Read config file
	var config Config
	mustDeserializeFile(cfgPath, &config)
	// Read secrets member from secrets file
	mustDeserializeFile(secretsPath, &config.Secrets)
	config.ApplyDefaults()
	return &config
}

// ApplyDefaults fills in every numeric setting that was left at zero.
func (cfg *Config) ApplyDefaults() {
	if cfg.ResolvedObjectIdsCap <= 0 {
		cfg.ResolvedObjectIdsCap = defaultResolvedObjectIdsCap
	}
	if cfg.PostPublicsCap <= 0 {
		cfg.PostPublicsCap = defaultPostPublicsCap
	}
	if cfg.ResponseHistoryCap <= 0 {
		cfg.ResponseHistoryCap = defaultResponseHistoryCap
	}
	if cfg.MaxParallelTasks <= 0 {
		cfg.MaxParallelTasks = defaultMaxParallelTasks
	}
	if cfg.HttpTimeoutSec <= 0 {
		cfg.HttpTimeoutSec = defaultHttpTimeoutSec
	}
	if cfg.ProfileKeepDays <= 0 {
		cfg.ProfileKeepDays = defaultProfileKeepDays
	}
}

func mustDeserializeFile[T any](fileName string, obj *T) {
	var err error
	var cfgJson []byte
	cfgJson, err = os.ReadFile(fileName)
	if err != nil {
		log.Fatal(err)
	}
	if err = deserializeJSONC(cfgJson, obj); err != nil {
		log.Fatal(err)
	}
}

func deserializeJSONC[T any](data []byte, obj *T) error {
	// JSONC => JSON
	data, err := standardizeJSON(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, obj)
}

func standardizeJSON(b []byte) ([]byte, error) {
	ast, err := hujson.Parse(b)
	if err != nil {
		return b, err
	}
	ast.Standardize()
	return ast.Pack(), nil
}
