package config

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/factorchain/compliance-node/internal/log"
)

// Cache provider names accepted in Cache.Provider
const (
	CacheProviderRedis  = "redis"
	CacheProviderValKey = "valkey"
	CacheProviderMemory = "memory"
	CacheProviderNone   = "none"
)

// Storage provider names returned by StorageProvider
const (
	StorageProviderIPFS  = "ipfs"
	StorageProviderLocal = "local"
)

// Configuration holds the project configuration
type Configuration struct {
	ServerURL     string        `mapstructure:"ServerUrl" tip:"Public base URL of this service"`
	ServerPort    int           `mapstructure:"ServerPort" tip:"Port the http server listens on"`
	Database      Database      `mapstructure:"Database"`
	Cache         Cache         `mapstructure:"Cache"`
	Storage       Storage       `mapstructure:"Storage"`
	Ledger        Ledger        `mapstructure:"Ledger"`
	HTTPBasicAuth HTTPBasicAuth `mapstructure:"HTTPBasicAuth"`
	Vault         Vault         `mapstructure:"Vault"`
	AWS           AWS           `mapstructure:"AWS"`
	Log           Log           `mapstructure:"Log"`
}

// Database has the database configuration
// URL: The database connection string
type Database struct {
	URL string `mapstructure:"Url" tip:"The Datasource name locator"`
}

// Cache configurations
type Cache struct {
	Provider string `mapstructure:"Provider" tip:"Cache provider: redis | valkey | memory"`
	URL      string `mapstructure:"Url" tip:"The cache server url"`
}

// Storage holds the document storage backend configuration.
//
// When IPFSNodeURL is empty, or its credentials cannot be resolved, the service
// falls back to the local cache-backed backend for the lifetime of the process.
type Storage struct {
	IPFSNodeURL    string        `mapstructure:"IpfsNodeUrl" tip:"IPFS node API url. Empty selects the local fallback backend"`
	IPFSGatewayURL string        `mapstructure:"IpfsGatewayUrl" tip:"Public IPFS gateway used to build document URLs"`
	IPFSAuthSecret string        `mapstructure:"IpfsAuthSecret" tip:"Pinning credential reference (vault://mount/path#key or aws-sm://name#key) or a literal token"`
	MFSRoot        string        `mapstructure:"MfsRoot" tip:"MFS directory the remote backend writes under"`
	Timeout        time.Duration `mapstructure:"Timeout" tip:"Timeout for remote storage calls"`
	MaxInFlight    int           `mapstructure:"MaxInFlight" tip:"Maximum concurrent remote storage calls"`
}

// Ledger holds the connection settings for the protocol ledger, the external
// collaborator that owns roles and the authoritative verification record.
type Ledger struct {
	URL             string        `mapstructure:"Url" tip:"Ledger RPC url"`
	ContractAddress string        `mapstructure:"ContractAddress" tip:"Verification registry contract address"`
	SettingsPath    string        `mapstructure:"SettingsPath" tip:"Optional YAML file with per network ledger settings"`
	ResponseTimeout time.Duration `mapstructure:"ResponseTimeout" tip:"RPC response timeout"`
}

// Vault configuration, used only to resolve pinning credentials
type Vault struct {
	Address string `mapstructure:"Address" tip:"Vault address"`
	Token   string `mapstructure:"Token" tip:"Vault access token"`
}

// AWS configuration, used only to resolve pinning credentials
type AWS struct {
	Region string `mapstructure:"Region" tip:"AWS region for the secrets manager client"`
}

// Log holds runtime configurations
//
// Level: The minimum log level to show on logs. Values can be
//
//	 -4: Debug
//		0: Info
//		4: Warning
//		8: Error
//
// Mode: Log mode is the format of the log. It can be text or json
// 1: JSON
// 2: Text
type Log struct {
	Level int `mapstructure:"Level" tip:"Minimum level to log: (-4:Debug, 0:Info, 4:Warning, 8:Error)"`
	Mode  int `mapstructure:"Mode" tip:"Log format (1: JSON, 2:Structured text)"`
}

// HTTPBasicAuth configuration. Reviewer endpoints are protected with basic http
// auth before the ledger role check happens. Here you can set the user and
// password to use.
type HTTPBasicAuth struct {
	User     string `mapstructure:"User" tip:"Basic auth username"`
	Password string `mapstructure:"Password" tip:"Basic auth password"`
}

// Sanitize performs some basic checks and sanitizations in the configuration.
// Returns nil if config is acceptable, error otherwise.
func (c *Configuration) Sanitize() error {
	sURL, err := c.validateServerURL()
	if err != nil {
		return fmt.Errorf("serverUrl is not a valid URL <%s>: %w", c.ServerURL, err)
	}
	c.ServerURL = sURL
	if c.Database.URL == "" {
		return fmt.Errorf("a database connection string must be provided")
	}
	if c.Storage.MFSRoot == "" {
		c.Storage.MFSRoot = "/compliance"
	}
	if c.Storage.MaxInFlight <= 0 {
		c.Storage.MaxInFlight = defaultMaxInFlight
	}
	if c.Storage.Timeout <= 0 {
		c.Storage.Timeout = defaultStorageTimeout
	}
	if c.Cache.Provider == CacheProviderNone && c.StorageProvider() == StorageProviderLocal {
		return fmt.Errorf("cache provider <none> cannot back the local storage backend: configure an IPFS node or a real cache provider")
	}
	return nil
}

// StorageProvider returns the storage backend this process must run with. The
// decision is taken once at startup and never renegotiated per call.
func (c *Configuration) StorageProvider() string {
	if c.Storage.IPFSNodeURL == "" {
		return StorageProviderLocal
	}
	return StorageProviderIPFS
}

const (
	defaultMaxInFlight    = 8
	defaultStorageTimeout = 30 * time.Second
)

func (c *Configuration) validateServerURL() (string, error) {
	sURL, err := url.ParseRequestURI(c.ServerURL)
	if err != nil {
		return c.ServerURL, err
	}
	if sURL.Scheme == "" {
		return c.ServerURL, fmt.Errorf("server URL must be an absolute URL")
	}
	sURL.RawQuery = ""
	return strings.Trim(strings.Trim(sURL.String(), "/"), "?"), nil
}

// Load loads the configuration from a file
func Load(fileName string) (*Configuration, error) {
	_ = godotenv.Load()
	bindEnv()
	pathFlag := viper.GetString("config")
	if _, err := os.Stat(pathFlag); err == nil {
		ext := filepath.Ext(pathFlag)
		if len(ext) > 1 {
			ext = ext[1:]
		}
		name := strings.Split(filepath.Base(pathFlag), ".")[0]
		viper.AddConfigPath(".")
		viper.SetConfigName(name)
		viper.SetConfigType(ext)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("toml")
		if fileName == "" {
			viper.SetConfigName("config")
		} else {
			viper.SetConfigName(fileName)
		}
	}
	config := &Configuration{
		Log: Log{
			Level: log.LevelDebug,
			Mode:  log.OutputText,
		},
		Cache: Cache{
			Provider: CacheProviderMemory,
		},
	}
	ctx := context.Background()
	if err := viper.ReadInConfig(); err != nil {
		log.Info(ctx, "config file not loaded, relying on env vars", "err", err)
	}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshalling configuration: %w", err)
	}
	return config, nil
}

func bindEnv() {
	viper.SetEnvPrefix("FACTOR")
	_ = viper.BindEnv("ServerUrl", "FACTOR_SERVER_URL")
	_ = viper.BindEnv("ServerPort", "FACTOR_SERVER_PORT")

	_ = viper.BindEnv("Database.Url", "FACTOR_DATABASE_URL")

	_ = viper.BindEnv("Cache.Provider", "FACTOR_CACHE_PROVIDER")
	_ = viper.BindEnv("Cache.Url", "FACTOR_CACHE_URL")

	_ = viper.BindEnv("Storage.IpfsNodeUrl", "FACTOR_STORAGE_IPFS_NODE_URL")
	_ = viper.BindEnv("Storage.IpfsGatewayUrl", "FACTOR_STORAGE_IPFS_GATEWAY_URL")
	_ = viper.BindEnv("Storage.IpfsAuthSecret", "FACTOR_STORAGE_IPFS_AUTH_SECRET")
	_ = viper.BindEnv("Storage.MfsRoot", "FACTOR_STORAGE_MFS_ROOT")
	_ = viper.BindEnv("Storage.Timeout", "FACTOR_STORAGE_TIMEOUT")
	_ = viper.BindEnv("Storage.MaxInFlight", "FACTOR_STORAGE_MAX_IN_FLIGHT")

	_ = viper.BindEnv("Ledger.Url", "FACTOR_LEDGER_URL")
	_ = viper.BindEnv("Ledger.ContractAddress", "FACTOR_LEDGER_CONTRACT_ADDRESS")
	_ = viper.BindEnv("Ledger.SettingsPath", "FACTOR_LEDGER_SETTINGS_PATH")
	_ = viper.BindEnv("Ledger.ResponseTimeout", "FACTOR_LEDGER_RESPONSE_TIMEOUT")

	_ = viper.BindEnv("HTTPBasicAuth.User", "FACTOR_API_AUTH_USER")
	_ = viper.BindEnv("HTTPBasicAuth.Password", "FACTOR_API_AUTH_PASSWORD")

	_ = viper.BindEnv("Vault.Address", "FACTOR_VAULT_ADDRESS")
	_ = viper.BindEnv("Vault.Token", "FACTOR_VAULT_TOKEN")

	_ = viper.BindEnv("AWS.Region", "FACTOR_AWS_REGION")

	_ = viper.BindEnv("Log.Level", "FACTOR_LOG_LEVEL")
	_ = viper.BindEnv("Log.Mode", "FACTOR_LOG_MODE")
}
