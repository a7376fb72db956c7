package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App struct {
		Env  string
		Port string
		Host string
	}

	Database struct {
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string
	}

	WhatsApp struct {
		DebugLevel  string
		StorePrefix string
	}

	// AI configura o serviço externo de geração de texto usado pelo analisador
	// e pelo gerador de respostas automáticas.
	AI struct {
		Enabled bool
		BaseURL string
		APIKey  string
		Model   string
		Timeout time.Duration
	}

	// Pipeline configura o comportamento do pipeline autônomo de mensagens.
	Pipeline struct {
		// Cadência única do scheduler por conta (health check + sweep)
		TickInterval time.Duration
		// Janela de histórico enviada ao analisador
		HistoryWindow int
		// TTL dos marcadores de deduplicação em memória
		MarkerTTL time.Duration
		// Dias sem contato até um lead virar "cold"
		LeadColdAfterDays int
		// Dias sem follow-up até um lead "hot" virar "warm"
		LeadHotDecayDays int
	}

	// Reconnect configura o backoff exponencial de reconexão por conta.
	Reconnect struct {
		MinDelay    time.Duration
		MaxDelay    time.Duration
		MaxAttempts int
		Window      time.Duration
	}

	// AutoReply configura os padrões de resposta automática por conta.
	AutoReply struct {
		DefaultDelay time.Duration
		QRCodeTTL    time.Duration
	}

	Logging struct {
		Level          string
		Output         string
		ConsoleFormat  string
		FileFormat     string
		FilePath       string
		FileMaxSize    int
		FileMaxBackups int
		FileMaxAge     int
		FileCompress   bool
		ConsoleColors  bool

		AppName     string
		Environment string
		Version     string
		ServiceName string
	}

	RateLimit struct {
		Requests int
		Window   time.Duration
	}

	CORS struct {
		AllowedOrigins string
	}
}

func LoadConfig() (*Config, error) {
	// Carregar .env se existir
	_ = godotenv.Load()

	cfg := &Config{}

	// App
	cfg.App.Env = getEnv("APP_ENV", "development")
	cfg.App.Port = getEnv("APP_PORT", "8080")
	cfg.App.Host = getEnv("APP_HOST", "0.0.0.0")

	// Database
	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = getEnv("DB_PORT", "5432")
	cfg.Database.User = getEnv("DB_USER", "zcrm")
	cfg.Database.Password = getEnv("DB_PASSWORD", "zcrm123")
	cfg.Database.Name = getEnv("DB_NAME", "zcrm")
	cfg.Database.SSLMode = getEnv("DB_SSL_MODE", "disable")

	// WhatsApp
	cfg.WhatsApp.DebugLevel = getEnv("WA_DEBUG_LEVEL", "INFO")
	cfg.WhatsApp.StorePrefix = getEnv("WA_STORE_PREFIX", "zcrm")

	// AI
	cfg.AI.Enabled = getEnvAsBool("AI_ENABLED", true)
	cfg.AI.BaseURL = getEnv("AI_BASE_URL", "")
	cfg.AI.APIKey = getEnv("AI_API_KEY", "")
	cfg.AI.Model = getEnv("AI_MODEL", "gpt-4o-mini")
	cfg.AI.Timeout = getEnvAsDuration("AI_TIMEOUT", 20*time.Second)

	// Pipeline
	cfg.Pipeline.TickInterval = getEnvAsDuration("PIPELINE_TICK_INTERVAL", 10*time.Second)
	cfg.Pipeline.HistoryWindow = getEnvAsInt("PIPELINE_HISTORY_WINDOW", 15)
	cfg.Pipeline.MarkerTTL = getEnvAsDuration("PIPELINE_MARKER_TTL", 24*time.Hour)
	cfg.Pipeline.LeadColdAfterDays = getEnvAsInt("LEAD_COLD_AFTER_DAYS", 14)
	cfg.Pipeline.LeadHotDecayDays = getEnvAsInt("LEAD_HOT_DECAY_DAYS", 3)

	// Reconnect
	cfg.Reconnect.MinDelay = getEnvAsDuration("RECONNECT_MIN_DELAY", 2*time.Second)
	cfg.Reconnect.MaxDelay = getEnvAsDuration("RECONNECT_MAX_DELAY", 2*time.Minute)
	cfg.Reconnect.MaxAttempts = getEnvAsInt("RECONNECT_MAX_ATTEMPTS", 8)
	cfg.Reconnect.Window = getEnvAsDuration("RECONNECT_WINDOW", 15*time.Minute)

	// AutoReply
	cfg.AutoReply.DefaultDelay = getEnvAsDuration("AUTOREPLY_DEFAULT_DELAY", 3*time.Second)
	cfg.AutoReply.QRCodeTTL = getEnvAsDuration("QRCODE_TTL", 30*time.Second)

	// Logging
	cfg.Logging.Level = getEnv("LOG_LEVEL", "info")
	cfg.Logging.Output = getEnv("LOG_OUTPUT", "dual")
	cfg.Logging.ConsoleFormat = getEnv("LOG_CONSOLE_FORMAT", "console")
	cfg.Logging.FileFormat = getEnv("LOG_FILE_FORMAT", "json")
	cfg.Logging.FilePath = getEnv("LOG_FILE_PATH", "logs/zcrm.log")
	cfg.Logging.FileMaxSize = getEnvAsInt("LOG_FILE_MAX_SIZE", 100)
	cfg.Logging.FileMaxBackups = getEnvAsInt("LOG_FILE_MAX_BACKUPS", 3)
	cfg.Logging.FileMaxAge = getEnvAsInt("LOG_FILE_MAX_AGE", 28)
	cfg.Logging.FileCompress = getEnvAsBool("LOG_FILE_COMPRESS", true)
	cfg.Logging.ConsoleColors = getEnvAsBool("LOG_CONSOLE_COLORS", true)

	cfg.Logging.AppName = getEnv("APP_NAME", "zcrm")
	cfg.Logging.Environment = cfg.App.Env
	cfg.Logging.Version = getEnv("APP_VERSION", "1.0.0")
	cfg.Logging.ServiceName = getEnv("SERVICE_NAME", "whatsapp-crm")

	// Rate Limit
	cfg.RateLimit.Requests = getEnvAsInt("RATE_LIMIT_REQUESTS", 100)
	cfg.RateLimit.Window = getEnvAsDuration("RATE_LIMIT_WINDOW", time.Minute)

	// CORS
	cfg.CORS.AllowedOrigins = getEnv("CORS_ALLOWED_ORIGINS", "*")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func (c *Config) GetDatabaseDSN() string {
	return "postgres://" + c.Database.User + ":" + c.Database.Password +
		"@" + c.Database.Host + ":" + c.Database.Port +
		"/" + c.Database.Name + "?sslmode=" + c.Database.SSLMode
}

// Implementação da interface ConfigProvider para integração com o logger
func (c *Config) GetLogLevel() string         { return c.Logging.Level }
func (c *Config) GetLogOutput() string        { return c.Logging.Output }
func (c *Config) GetLogConsoleFormat() string { return c.Logging.ConsoleFormat }
func (c *Config) GetLogFileFormat() string    { return c.Logging.FileFormat }
func (c *Config) GetLogFilePath() string      { return c.Logging.FilePath }
func (c *Config) GetLogFileMaxSize() int      { return c.Logging.FileMaxSize }
func (c *Config) GetLogFileMaxBackups() int   { return c.Logging.FileMaxBackups }
func (c *Config) GetLogFileMaxAge() int       { return c.Logging.FileMaxAge }
func (c *Config) GetLogFileCompress() bool    { return c.Logging.FileCompress }
func (c *Config) GetLogConsoleColors() bool   { return c.Logging.ConsoleColors }
