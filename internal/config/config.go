package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr      string
		PublicURL string
	}
	Database struct {
		Path string
	}
	Auth struct {
		Secret        string
		TokenTTLHours int
	}
	Log struct {
		Level string
	}
	Mail struct {
		Transport string
		From      string
		SMTP      struct {
			Host     string
			Port     int
			Username string
			Password string
		}
	}
	Storage struct {
		Bucket    string
		KeyPrefix string
		Region    string
		Endpoint  string
	}
	AWS struct {
		Profile string
	}
}

// Load reads configuration from environment variables and optional config files.
func Load() (Config, error) {
	loadDotEnv(".env")

	v := viper.New()
	v.SetEnvPrefix("TWITTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("server.addr", "0.0.0.0:8888")
	v.SetDefault("server.publicurl", "http://localhost:8888")
	v.SetDefault("database.path", "data/twitter.db")
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.tokenttlhours", 30*24)
	v.SetDefault("log.level", "info")
	v.SetDefault("mail.transport", "log")
	v.SetDefault("mail.from", "admin@twitter.com")
	v.SetDefault("mail.smtp.host", "")
	v.SetDefault("mail.smtp.port", 587)
	v.SetDefault("mail.smtp.username", "")
	v.SetDefault("mail.smtp.password", "")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.keyprefix", "outbox")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("aws.profile", "")

	v.SetConfigName("config")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // optional file

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// Validate reports settings the server cannot start without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Auth.Secret) == "" {
		return fmt.Errorf("auth secret is required")
	}
	switch c.Mail.Transport {
	case "log":
	case "smtp":
		if c.Mail.SMTP.Host == "" {
			return fmt.Errorf("mail smtp host is required for smtp transport")
		}
	case "s3":
		if c.Storage.Bucket == "" {
			return fmt.Errorf("storage bucket is required for s3 transport")
		}
	default:
		return fmt.Errorf("unknown mail transport %q", c.Mail.Transport)
	}
	return nil
}

func loadDotEnv(path string) {
	file, err := os.Open(path)
	if err != nil {
		return
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		partsIndex := strings.Index(line, "=")
		if partsIndex <= 0 {
			continue
		}

		key := strings.TrimSpace(line[:partsIndex])
		value := strings.TrimSpace(line[partsIndex+1:])
		value = strings.Trim(value, `"'`)
		if key == "" {
			continue
		}

		if _, exists := os.LookupEnv(key); !exists {
			_ = os.Setenv(key, value)
		}
	}
}
