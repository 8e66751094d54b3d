package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Trivy   TrivyConfig   `mapstructure:"trivy"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type StorageConfig struct {
	DBPath string `mapstructure:"db_path"`
}

type TrivyConfig struct {
	Path        string        `mapstructure:"path"`
	CacheDir    string        `mapstructure:"cache_dir"`
	ScanTimeout time.Duration `mapstructure:"scan_timeout"`
}

var cfg *Config

func Init(cfgFile string) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "container-security-scanner"))
		}
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.BindEnv("server.port", "PORT")
	viper.BindEnv("storage.db_path", "SCANNER_DB_PATH")
	viper.BindEnv("trivy.path", "TRIVY_PATH")
	viper.BindEnv("trivy.cache_dir", "TRIVY_CACHE_DIR")
	viper.BindEnv("trivy.scan_timeout", "SCAN_TIMEOUT")

	viper.SetDefault("server.port", 5000)
	viper.SetDefault("storage.db_path", "/data/scans.db")
	viper.SetDefault("trivy.path", "trivy")

	viper.ReadInConfig()

	cfg = &Config{}
	viper.Unmarshal(cfg)
}

func Get() *Config {
	if cfg == nil {
		Init("")
	}
	return cfg
}

func (c *Config) ListenAddr() string {
	port := c.Server.Port
	if port <= 0 {
		port = 5000
	}
	return ":" + strconv.Itoa(port)
}

func (c *Config) DBPath() string {
	if c.Storage.DBPath != "" {
		return c.Storage.DBPath
	}
	return "/data/scans.db"
}

func (c *Config) TrivyPath() string {
	if c.Trivy.Path != "" {
		return c.Trivy.Path
	}
	return "trivy"
}

// CacheDir returns the directory where Trivy keeps its vulnerability
// database. Defaults to ~/.cache/trivy, matching Trivy's own default.
func (c *Config) CacheDir() string {
	if c.Trivy.CacheDir != "" {
		return c.Trivy.CacheDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("/root", ".cache", "trivy")
	}
	return filepath.Join(home, ".cache", "trivy")
}

// ScanTimeout bounds a single Trivy invocation. Zero means no limit.
func (c *Config) ScanTimeout() time.Duration {
	return c.Trivy.ScanTimeout
}
