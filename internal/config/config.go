// Package config builds the explicit configuration object handed to every
// component at startup.
//
// Sources, lowest precedence first: built-in defaults, a config file given
// with -config (any format viper reads), a .env file in the working
// directory, ITEMTAG_* environment variables, and command-line flags that
// were set explicitly.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net/url"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Storage backends.
const (
	StorageFS = "fs"
	StorageS3 = "s3"
)

// EnvPrefix prefixes every environment variable the config reads.
const EnvPrefix = "ITEMTAG"

// Config holds runtime settings.
type Config struct {
	Addr    string `mapstructure:"addr"`
	DBPath  string `mapstructure:"db"`
	BaseURL string `mapstructure:"base_url"`
	LogPath string `mapstructure:"log"`

	Storage    string `mapstructure:"storage"`
	CodesDir   string `mapstructure:"codes_dir"`
	UploadsDir string `mapstructure:"uploads_dir"`

	S3Bucket    string `mapstructure:"s3_bucket"`
	S3Region    string `mapstructure:"s3_region"`
	S3Endpoint  string `mapstructure:"s3_endpoint"`
	S3AccessKey string `mapstructure:"s3_access_key"`
	S3SecretKey string `mapstructure:"s3_secret_key"`

	QRScale        int   `mapstructure:"qr_scale"`
	QRBorder       int   `mapstructure:"qr_border"`
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`
}

var defaults = map[string]any{
	"addr":             ":8080",
	"db":               "items.sqlite3",
	"base_url":         "",
	"log":              "",
	"storage":          StorageFS,
	"codes_dir":        "data/qr",
	"uploads_dir":      "data/uploads",
	"s3_bucket":        "",
	"s3_region":        "us-east-1",
	"s3_endpoint":      "",
	"s3_access_key":    "",
	"s3_secret_key":    "",
	"qr_scale":         20,
	"qr_border":        2,
	"max_upload_bytes": int64(20 << 20),
}

// dotenvPath is the optional .env file loaded into the environment.
var dotenvPath = ".env"

// Load parses args (without the program name) and merges all sources into a
// validated Config. A -h/-help request returns flag.ErrHelp.
func Load(args []string) (*Config, error) {
	flags := newFlagSet()
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if flags.NArg() > 0 {
		return nil, fmt.Errorf("unexpected argument: %s", flags.Arg(0))
	}

	if err := loadDotenv(); err != nil {
		return nil, err
	}

	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if path := configPath(flags); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	// Explicit flags win over everything else.
	flags.Visit(func(f *flag.Flag) {
		if key, ok := flagKeys[f.Name]; ok {
			v.Set(key, f.Value.String())
		}
	})

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func configPath(flags *flag.FlagSet) string {
	if p := flags.Lookup("config").Value.String(); p != "" {
		return p
	}
	return flags.Lookup("c").Value.String()
}

func loadDotenv() error {
	err := godotenv.Load(dotenvPath)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("loading %s: %w", dotenvPath, err)
}

// Validate checks that required settings are present and consistent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base URL is required (-base-url or ITEMTAG_BASE_URL)")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base URL %q must be an absolute http(s) URL", c.BaseURL)
	}

	switch c.Storage {
	case StorageFS:
		if c.CodesDir == "" || c.UploadsDir == "" {
			return errors.New("codes and uploads directories are required for fs storage")
		}
	case StorageS3:
		if c.S3Bucket == "" {
			return errors.New("s3 storage requires a bucket")
		}
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage)
	}

	if c.QRScale < 1 {
		return fmt.Errorf("qr scale must be positive, got %d", c.QRScale)
	}
	if c.QRBorder < 0 {
		return fmt.Errorf("qr border must not be negative, got %d", c.QRBorder)
	}
	if c.MaxUploadBytes < 1 {
		return fmt.Errorf("max upload size must be positive, got %d", c.MaxUploadBytes)
	}
	return nil
}

// flagKeys maps flag names (long and short) to config keys.
var flagKeys = map[string]string{
	"addr":          "addr",
	"a":             "addr",
	"db":            "db",
	"d":             "db",
	"base-url":      "base_url",
	"b":             "base_url",
	"log":           "log",
	"l":             "log",
	"storage":       "storage",
	"codes-dir":     "codes_dir",
	"uploads-dir":   "uploads_dir",
	"s3-bucket":     "s3_bucket",
	"s3-region":     "s3_region",
	"s3-endpoint":   "s3_endpoint",
	"s3-access-key": "s3_access_key",
	"s3-secret-key": "s3_secret_key",
	"qr-scale":      "qr_scale",
	"qr-border":     "qr_border",
	"max-upload":    "max_upload_bytes",
}

func newFlagSet() *flag.FlagSet {
	flags := flag.NewFlagSet("itemtag", flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	flags.Usage = func() {}

	// Values are only read back through Visit, so no defaults here.
	flags.String("config", "", "")
	flags.String("c", "", "")
	for name := range flagKeys {
		flags.String(name, "", "")
	}
	return flags
}

// Usage is the help text printed by the entrypoint.
const Usage = `Usage: itemtag [flags]

Flags:
  -c, -config <path>        config file (yaml, json, toml, ...)
  -b, -base-url <url>       URL prefix encoded into codes, e.g. https://example.com/item/ (required)
  -a, -addr <host:port>     listen address (default: :8080)
  -d, -db <path>            SQLite database path (default: items.sqlite3)
  -l, -log <path>           log file path (default: stdout/stderr only)
      -storage <fs|s3>      blob storage backend (default: fs)
      -codes-dir <path>     code image directory for fs storage (default: data/qr)
      -uploads-dir <path>   photo upload directory for fs storage (default: data/uploads)
      -s3-bucket <name>     bucket for s3 storage
      -s3-region <region>   bucket region (default: us-east-1)
      -s3-endpoint <url>    custom S3 endpoint, e.g. MinIO
      -s3-access-key <key>  static access key (default: AWS credential chain)
      -s3-secret-key <key>  static secret key
      -qr-scale <px>        pixels per QR module (default: 20)
      -qr-border <modules>  quiet zone width in modules (default: 2)
      -max-upload <bytes>   maximum item form size (default: 20971520)
  -h, -help                 show this help and exit

Every setting can also be given as ITEMTAG_<KEY>, e.g. ITEMTAG_BASE_URL.
`
