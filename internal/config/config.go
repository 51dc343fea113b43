package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"

	"github.com/igraph100/DW-Spectrum/internal/auth"
	"github.com/igraph100/DW-Spectrum/internal/client"
	"github.com/igraph100/DW-Spectrum/internal/integration"
	"github.com/igraph100/DW-Spectrum/internal/publish"
)

const (
	fileName  = ".spectrum-cli"
	envPrefix = "SPECTRUM"

	DefaultPort = 7001
)

func init() {
	SetDefaults(viper.GetViper())
}

// SetDefaults registers every key with its default so env overrides work
// even for keys absent from the file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("host", "")
	v.SetDefault("port", DefaultPort)
	v.SetDefault("ssl", true)
	v.SetDefault("verify_ssl", false)
	v.SetDefault("username", "")
	v.SetDefault("password", "")
	v.SetDefault("client_id", "")
	v.SetDefault("instance", "")
	v.SetDefault("state_dir", "")
	v.SetDefault("intervals.devices", "15s")
	v.SetDefault("intervals.server", "15s")
	v.SetDefault("intervals.status", "30s")
	v.SetDefault("metrics.listen", ":9100")
	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.prefix", publish.DefaultPrefix)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// InitConfig reads in config file and ENV variables if set.
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".spectrum-cli" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(fileName)
	}

	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// A missing file is fine, the flags and env may carry everything.
	_ = viper.ReadInConfig()
}

// Connection builds the client configuration from v.
func Connection(v *viper.Viper) client.ClientConfig {
	return client.ClientConfig{
		Host:      strings.TrimSpace(v.GetString("host")),
		Port:      cast.ToInt(v.Get("port")),
		SSL:       v.GetBool("ssl"),
		VerifySSL: v.GetBool("verify_ssl"),
		Username:  v.GetString("username"),
		Password:  v.GetString("password"),
		ClientID:  v.GetString("client_id"),
	}
}

// Validate reports the first missing connection setting.
func Validate(cfg client.ClientConfig) error {
	switch {
	case cfg.Host == "":
		return errors.New("host is not configured, run 'spectrum-cli login' first")
	case cfg.Port <= 0 || cfg.Port > 65535:
		return fmt.Errorf("invalid port %d", cfg.Port)
	case cfg.Username == "":
		return errors.New("username is not configured")
	}
	return nil
}

// Intervals reads the poll periods. Unparseable values fall back to the
// poller defaults.
func Intervals(v *viper.Viper) integration.Intervals {
	return integration.Intervals{
		Devices: duration(v, "intervals.devices"),
		Server:  duration(v, "intervals.server"),
		Status:  duration(v, "intervals.status"),
	}
}

func duration(v *viper.Viper, key string) time.Duration {
	d, err := cast.ToDurationE(v.Get(key))
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// InstanceName is the configured instance name or one derived from the
// server address.
func InstanceName(v *viper.Viper) string {
	if name := strings.TrimSpace(v.GetString("instance")); name != "" {
		return name
	}
	return integration.InstanceID(Connection(v))
}

// StateDir is where the persisted caches live.
func StateDir(v *viper.Viper) (string, error) {
	if dir := v.GetString("state_dir"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, fileName+".d", "state"), nil
}

// Broker returns the MQTT settings; ok is false when no broker is set.
func Broker(v *viper.Viper) (cfg publish.BrokerConfig, prefix string, ok bool) {
	cfg = publish.BrokerConfig{
		URL:      v.GetString("mqtt.broker"),
		Username: v.GetString("mqtt.username"),
		Password: v.GetString("mqtt.password"),
	}
	return cfg, v.GetString("mqtt.prefix"), cfg.URL != ""
}

// SaveConnection stores validated connection settings. A client id is
// generated once and kept so the server sees a stable runtime guid.
func SaveConnection(v *viper.Viper, cfg client.ClientConfig) error {
	v.Set("host", cfg.Host)
	v.Set("port", cfg.Port)
	v.Set("ssl", cfg.SSL)
	v.Set("verify_ssl", cfg.VerifySSL)
	v.Set("username", cfg.Username)
	v.Set("password", cfg.Password)
	v.Set("client_id", auth.EnsureClientID(cfg.ClientID))
	return write(v)
}

func write(v *viper.Viper) error {
	// Ensure the file exists before writing
	if err := v.WriteConfig(); err != nil {
		// If file doesn't exist, create it
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if err := v.SafeWriteConfig(); err == nil {
				return nil
			}
		}
		// If it exists but failed to write, try writing to default path
		home, herr := os.UserHomeDir()
		if herr != nil {
			return err
		}
		return v.WriteConfigAs(filepath.Join(home, fileName+".yaml"))
	}
	return nil
}
