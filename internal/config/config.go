package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type LogConfig struct {
	Level      string `yaml:"level" env:"LOG_LEVEL"`
	Path       string `yaml:"path" env:"LOG_PATH"`
	ErrorPath  string `yaml:"errorpath" env:"LOG_ERROR_PATH"`
	MaxSize    int    `yaml:"maxsize"`
	MaxBackups int    `yaml:"maxbackups"`
	MaxAge     int    `yaml:"maxage"`
	Compress   bool   `yaml:"compress"`
}

type ServerConfig struct {
	RunAddress   string        `yaml:"runaddress" env:"RUN_ADDRESS"`
	ReadTimeout  time.Duration `yaml:"readtimeout"`
	WriteTimeout time.Duration `yaml:"writetimeout"`
}

// StorageConfig описывает хранилище истории
type StorageConfig struct {
	Type             string `yaml:"type" env:"STORAGE_TYPE"` // memory, file, sqlite, postgres, redis
	DataPath         string `yaml:"datapath" env:"STORAGE_DATA_PATH"`
	DBPath           string `yaml:"dbpath" env:"STORAGE_DB_PATH"`
	ConnectionString string `yaml:"connectionstring" env:"DATABASE_DSN"`
	RedisAddress     string `yaml:"redisaddress" env:"REDIS_ADDRESS"`
	RedisKey         string `yaml:"rediskey"`
	HistoryLimit     int    `yaml:"historylimit" env:"HISTORY_LIMIT"`
}

// QRConfig задает параметры кодирования по умолчанию
type QRConfig struct {
	Encoder       string `yaml:"encoder" env:"ENCODER"` // barcode или skip2
	DefaultSize   int    `yaml:"defaultsize"`
	DefaultMargin int    `yaml:"defaultmargin"`
	DefaultLevel  string `yaml:"defaultlevel"`
}

type APIConfig struct {
	Token string `yaml:"token" env:"API_TOKEN"`
}

type AdminConfig struct {
	JWTSecret string `yaml:"jwtsecret" env:"JWT_SECRET"`
	DataPath  string `yaml:"datapath" env:"ADMIN_DATA_PATH"`
}

// ClientConfig используется CLI и ботом для обращения к сервису кодирования
type ClientConfig struct {
	ServiceURL  string        `yaml:"serviceurl" env:"SERVICE_URL"`
	Timeout     time.Duration `yaml:"timeout"`
	HistoryPath string        `yaml:"historypath" env:"CLIENT_HISTORY_PATH"`
}

type TelegramConfig struct {
	Token string `yaml:"token" env:"TELEGRAM_TOKEN"`
}

// Config представляет структуру конфигурации
type Config struct {
	Server   ServerConfig   `yaml:"server" envPrefix:"QR_"`
	Log      LogConfig      `yaml:"logger" envPrefix:"QR_"`
	Storage  StorageConfig  `yaml:"storage" envPrefix:"QR_"`
	QR       QRConfig       `yaml:"qr" envPrefix:"QR_"`
	API      APIConfig      `yaml:"api" envPrefix:"QR_"`
	Admin    AdminConfig    `yaml:"admin" envPrefix:"QR_"`
	Client   ClientConfig   `yaml:"client" envPrefix:"QR_"`
	Telegram TelegramConfig `yaml:"telegram" envPrefix:"QR_"`
}

// Default возвращает конфигурацию со значениями по умолчанию
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			RunAddress:   ":3001",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		},
		Storage: StorageConfig{
			Type:         "memory",
			DataPath:     "data",
			DBPath:       "data/history.db",
			RedisKey:     "qr:history",
			HistoryLimit: 10,
		},
		QR: QRConfig{
			Encoder:       "barcode",
			DefaultSize:   200,
			DefaultMargin: 2,
			DefaultLevel:  "M",
		},
		Admin: AdminConfig{
			DataPath: "data",
		},
		Client: ClientConfig{
			ServiceURL:  "http://localhost:3001",
			Timeout:     10 * time.Second,
			HistoryPath: "data/client",
		},
	}
}

// LoadConfig загружает конфигурацию из файла YAML, затем применяет .env и переменные окружения.
// Отсутствующий файл не считается ошибкой.
func LoadConfig(path string) (*Config, error) {
	config := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to unmarshal config data: %w", err)
			}
		}
	}

	// .env необязателен
	_ = godotenv.Load()

	if err := env.Parse(config); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	return config, nil
}
