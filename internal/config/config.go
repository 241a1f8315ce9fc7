package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Cache     CacheConfig
	Tileset   TilesetConfig
	Metrics   MetricsConfig
	Generator GeneratorConfig
	Log       LogConfig
}

type ServerConfig struct {
	Host string
	Port int
	Env  string
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxConns        int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type CacheConfig struct {
	Enabled       bool
	TilesCacheTTL time.Duration
}

type TilesetConfig struct {
	Path      string
	SQLFile   string
	PublicURL string
}

type MetricsConfig struct {
	Enabled bool
	Address string
}

type GeneratorConfig struct {
	Workers int
	MinZoom int
	MaxZoom int
	Bounds  string
	Output  string
}

type LogConfig struct {
	Level string
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	// The .env file is a convenience for local runs; everything can come
	// from the environment alone.
	if err := viper.ReadInConfig(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host: firstString(viper.GetString("API_HOST"), "0.0.0.0"),
			Port: firstInt(viper.GetInt("API_PORT"), 8090),
			Env:  firstString(viper.GetString("API_ENV"), "development"),
		},
		Database: DatabaseConfig{
			Host:            firstString(viper.GetString("DB_HOST"), viper.GetString("PGHOST"), "localhost"),
			Port:            firstInt(viper.GetInt("DB_PORT"), viper.GetInt("PGPORT"), 5432),
			User:            firstString(viper.GetString("DB_USER"), viper.GetString("PGUSER"), "openmaptiles"),
			Password:        firstString(viper.GetString("DB_PASSWORD"), viper.GetString("PGPASSWORD"), "openmaptiles"),
			DBName:          firstString(viper.GetString("DB_NAME"), viper.GetString("PGDATABASE"), "openmaptiles"),
			SSLMode:         firstString(viper.GetString("DB_SSLMODE"), "disable"),
			MaxConns:        firstInt(viper.GetInt("DB_MAX_CONNS"), 16),
			MaxIdleConns:    firstInt(viper.GetInt("DB_MAX_IDLE_CONNS"), 4),
			ConnMaxLifetime: time.Duration(firstInt(viper.GetInt("DB_CONN_MAX_LIFETIME"), 300)) * time.Second,
			ConnMaxIdleTime: time.Duration(firstInt(viper.GetInt("DB_CONN_MAX_IDLE_TIME"), 60)) * time.Second,
		},
		Redis: RedisConfig{
			Host:     firstString(viper.GetString("REDIS_HOST"), "localhost"),
			Port:     firstInt(viper.GetInt("REDIS_PORT"), 6379),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		Cache: CacheConfig{
			Enabled:       viper.GetBool("CACHE_ENABLED"),
			TilesCacheTTL: time.Duration(firstInt(viper.GetInt("TILES_CACHE_TTL"), 3600)) * time.Second,
		},
		Tileset: TilesetConfig{
			Path:      viper.GetString("TILESET_PATH"),
			SQLFile:   viper.GetString("TILESET_SQL_FILE"),
			PublicURL: viper.GetString("TILESET_PUBLIC_URL"),
		},
		Metrics: MetricsConfig{
			Enabled: viper.GetBool("METRICS_ENABLED"),
			Address: firstString(viper.GetString("METRICS_ADDR"), ":2112"),
		},
		Generator: GeneratorConfig{
			Workers: firstInt(viper.GetInt("GENERATOR_WORKERS"), 4),
			MinZoom: viper.GetInt("GENERATOR_MIN_ZOOM"),
			MaxZoom: firstInt(viper.GetInt("GENERATOR_MAX_ZOOM"), 14),
			Bounds:  viper.GetString("GENERATOR_BOUNDS"),
			Output:  firstString(viper.GetString("GENERATOR_OUTPUT"), "tiles.mbtiles"),
		},
		Log: LogConfig{
			Level: firstString(viper.GetString("LOG_LEVEL"), "info"),
		},
	}

	return cfg, nil
}

func firstString(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstInt(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
		c.Database.SSLMode,
	)
}

func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
