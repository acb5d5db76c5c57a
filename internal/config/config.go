package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/viper"
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "pgx"
	DriverMySQL    = "mysql"
)

// Config holds application configuration values. It is built once at
// startup and passed to every constructor that needs it.
type Config struct {
	Auth      AuthConfig      `mapstructure:"auth"`
	Database  DatabaseConfig  `mapstructure:"database"`
	HTTP      HTTPConfig      `mapstructure:"http"`
	Bootstrap BootstrapConfig `mapstructure:"bootstrap"`
}

type AuthConfig struct {
	Secret     string `mapstructure:"secret"`
	BcryptCost int    `mapstructure:"bcrypt_cost"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	DSN      string `mapstructure:"dsn"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

type HTTPConfig struct {
	Port          string `mapstructure:"port"`
	AllowedOrigin string `mapstructure:"allowed_origin"`
}

// BootstrapConfig names the admin account created when no admin exists.
// The defaults are well known and must be rotated after first start.
type BootstrapConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "admin123"
)

var ErrMissingSecret = errors.New("JWT_SECRET is not set; refusing to start without a signing secret")

var envBindings = map[string]string{
	"auth.secret":         "JWT_SECRET",
	"auth.bcrypt_cost":    "BCRYPT_COST",
	"database.driver":     "DB_DRIVER",
	"database.dsn":        "DATABASE_DSN",
	"database.host":       "DB_HOST",
	"database.port":       "DB_PORT",
	"database.user":       "DB_USER",
	"database.password":   "DB_PASSWORD",
	"database.name":       "DB_NAME",
	"http.port":           "PORT",
	"http.allowed_origin": "CORS_ORIGIN",
	"bootstrap.username":  "ADMIN_USERNAME",
	"bootstrap.password":  "ADMIN_PASSWORD",
}

// Load reads configuration from the environment and an optional config.yaml
// in the working directory. It fails when a required value is missing or
// malformed.
func Load() (*Config, error) {
	v := viper.New()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.user", "root")
	v.SetDefault("database.name", "user_system")
	v.SetDefault("http.port", "3000")
	v.SetDefault("http.allowed_origin", "http://localhost:5173")
	v.SetDefault("bootstrap.username", DefaultAdminUsername)
	v.SetDefault("bootstrap.password", DefaultAdminPassword)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings the server cannot run without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Auth.Secret) == "" {
		return ErrMissingSecret
	}
	switch c.Database.Driver {
	case DriverSQLite, DriverPostgres, DriverMySQL:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q (want %s, %s or %s)", c.Database.Driver, DriverSQLite, DriverPostgres, DriverMySQL)
	}
	if _, err := strconv.Atoi(c.HTTP.Port); err != nil {
		return fmt.Errorf("invalid PORT value %q: %w", c.HTTP.Port, err)
	}
	if c.Bootstrap.Username == "" || c.Bootstrap.Password == "" {
		return errors.New("bootstrap admin username and password must not be empty")
	}
	if c.Auth.BcryptCost < 10 {
		log.Printf("BCRYPT_COST %d is below 10, using 10", c.Auth.BcryptCost)
		c.Auth.BcryptCost = 10
	}
	return nil
}

// DataSourceName returns DATABASE_DSN when set, otherwise a DSN assembled
// for the configured driver.
func (d DatabaseConfig) DataSourceName() string {
	if d.DSN != "" {
		return d.DSN
	}
	switch d.Driver {
	case DriverPostgres:
		port := d.Port
		if port == "" {
			port = "5432"
		}
		u := url.URL{
			Scheme:   "postgres",
			User:     url.UserPassword(d.User, d.Password),
			Host:     d.Host + ":" + port,
			Path:     "/" + d.Name,
			RawQuery: "sslmode=disable",
		}
		return u.String()
	case DriverMySQL:
		port := d.Port
		if port == "" {
			port = "3306"
		}
		mc := mysql.NewConfig()
		mc.User = d.User
		mc.Passwd = d.Password
		mc.Net = "tcp"
		mc.Addr = d.Host + ":" + port
		mc.DBName = d.Name
		mc.ParseTime = true
		// report matched rather than changed rows so an unchanged role is not a miss
		mc.ClientFoundRows = true
		return mc.FormatDSN()
	default:
		return d.Name + ".db"
	}
}

// String returns a representation with secrets masked.
func (c *Config) String() string {
	return fmt.Sprintf("Config{DB: %s/%s@%s, HTTP: :%s, CORS: %s, Auth: *** (masked) ***, Admin: %s}",
		c.Database.Driver, c.Database.Name, c.Database.Host, c.HTTP.Port, c.HTTP.AllowedOrigin, c.Bootstrap.Username)
}
