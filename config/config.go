package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-sql-driver/mysql"
	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

const (
	DriverMySQL   = "mysql"
	DriverSQLite3 = "sqlite3"

	ImageStoreLocal  = "local"
	ImageStoreRemote = "remote"
)

type Config struct {
	AppPort   string `env:"APP_PORT" envDefault:"8000"`
	AppEnv    string `env:"APP_ENV" envDefault:"development"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	DB    DBConfig
	Image ImageConfig
	S3    S3Config
}

type DBConfig struct {
	Driver          string        `env:"DB_DRIVER" envDefault:"mysql"`
	Host            string        `env:"DB_HOST" envDefault:"localhost"`
	Port            int           `env:"DB_PORT" envDefault:"3306"`
	User            string        `env:"DB_USER" envDefault:"root"`
	Password        string        `env:"DB_PASSWORD"`
	Name            string        `env:"DB_NAME" envDefault:"school_db"`
	SSL             *bool         `env:"DB_SSL"`
	Path            string        `env:"DB_PATH" envDefault:"school_db.sqlite"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"60s"`
	Migrate         bool          `env:"DB_MIGRATE" envDefault:"true"`
}

type ImageConfig struct {
	Store       string `env:"IMAGE_STORE"`
	Dir         string `env:"IMAGE_DIR" envDefault:"public/schoolImages"`
	BasePath    string `env:"IMAGE_BASE_PATH" envDefault:"/schoolImages"`
	Placeholder string `env:"IMAGE_PLACEHOLDER" envDefault:"/placeholder-school.jpg"`
	MaxBytes    int64  `env:"IMAGE_MAX_BYTES" envDefault:"5242880"`
}

type S3Config struct {
	Bucket          string `env:"S3_BUCKET"`
	Region          string `env:"S3_REGION"`
	Endpoint        string `env:"S3_ENDPOINT"`
	AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	PublicBaseURL   string `env:"S3_PUBLIC_BASE_URL"`
	ForcePathStyle  bool   `env:"S3_FORCE_PATH_STYLE"`
}

// Load reads an optional .env file and decodes the environment into a Config.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && len(files) > 0 {
		return nil, errors.Wrap(err, "load env file")
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, errors.Wrap(err, "parse env")
	}
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.DB.Driver = strings.ToLower(strings.TrimSpace(c.DB.Driver))
	c.Image.Store = strings.ToLower(strings.TrimSpace(c.Image.Store))
	if c.Image.Store == "" {
		if c.IsProduction() {
			c.Image.Store = ImageStoreRemote
		} else {
			c.Image.Store = ImageStoreLocal
		}
	}
	c.Image.BasePath = "/" + strings.Trim(c.Image.BasePath, "/")
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// UseTLS reports whether the MySQL connection is encrypted. Production
// connects over TLS unless DB_SSL says otherwise.
func (c *Config) UseTLS() bool {
	if c.DB.SSL != nil {
		return *c.DB.SSL
	}
	return c.IsProduction()
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	switch c.DB.Driver {
	case DriverMySQL:
		if c.DB.Name == "" {
			result = multierror.Append(result, fmt.Errorf("DB_NAME is required for %s", DriverMySQL))
		}
	case DriverSQLite3:
		if c.DB.Path == "" {
			result = multierror.Append(result, fmt.Errorf("DB_PATH is required for %s", DriverSQLite3))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("unknown DB_DRIVER %q", c.DB.Driver))
	}

	if c.DB.MaxOpenConns <= 0 {
		result = multierror.Append(result, fmt.Errorf("DB_MAX_OPEN_CONNS must be positive"))
	}

	switch c.Image.Store {
	case ImageStoreLocal:
		if c.Image.Dir == "" {
			result = multierror.Append(result, fmt.Errorf("IMAGE_DIR is required for the local image store"))
		}
	case ImageStoreRemote:
		if c.S3.Bucket == "" {
			result = multierror.Append(result, fmt.Errorf("S3_BUCKET is required for the remote image store"))
		}
		if c.S3.Region == "" {
			result = multierror.Append(result, fmt.Errorf("S3_REGION is required for the remote image store"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("unknown IMAGE_STORE %q", c.Image.Store))
	}

	if c.Image.MaxBytes <= 0 {
		result = multierror.Append(result, fmt.Errorf("IMAGE_MAX_BYTES must be positive"))
	}

	return result.ErrorOrNil()
}

// DSN returns the data source name for the configured driver.
func (c *Config) DSN() string {
	if c.DB.Driver == DriverSQLite3 {
		return c.DB.Path
	}

	mc := mysql.NewConfig()
	mc.User = c.DB.User
	mc.Passwd = c.DB.Password
	mc.Net = "tcp"
	mc.Addr = c.DB.Host + ":" + strconv.Itoa(c.DB.Port)
	mc.DBName = c.DB.Name
	mc.ParseTime = true
	// report matched rows, so an update that changes nothing is not a miss
	mc.ClientFoundRows = true
	if c.UseTLS() {
		mc.TLSConfig = "skip-verify"
	}
	return mc.FormatDSN()
}

// MigrationURL returns the golang-migrate database URL for the configured driver.
func (c *Config) MigrationURL() string {
	return c.DB.Driver + "://" + c.DSN()
}
