package config

// LoggerConfig configures pkg/logger.
type LoggerConfig struct {
	Level      string // debug | info | warn | error
	Format     string // json | console
	Output     string // stdout | file
	FilePath   string
	MaxSize    int // megabytes before rotation
	MaxBackups int
	MaxAge     int // days
	Compress   bool
	Color      bool
	Stacktrace bool
	TimeZone   string
	TimeFormat string
}

func LoadLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:      envStr("LOG_LEVEL", "info"),
		Format:     envStr("LOG_FORMAT", "json"),
		Output:     envStr("LOG_OUTPUT", "stdout"),
		FilePath:   envStr("LOG_FILE", "logs/marina.log"),
		MaxSize:    envInt("LOG_MAX_SIZE_MB", 100),
		MaxBackups: envInt("LOG_MAX_BACKUPS", 3),
		MaxAge:     envInt("LOG_MAX_AGE_DAYS", 7),
		Compress:   envBool("LOG_COMPRESS", false),
		Color:      envBool("LOG_COLOR", false),
		Stacktrace: envBool("LOG_STACKTRACE", false),
		TimeZone:   envStr("LOG_TIMEZONE", "UTC"),
		TimeFormat: envStr("LOG_TIME_FORMAT", "2006-01-02T15:04:05.000Z07:00"),
	}
}
