package config

import (
	"os"
	"path"
	"sync"
	"time"

	"github.com/gwos/tstamp/logger"
	"github.com/gwos/tstamp/timestamp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

var (
	once sync.Once
	cfg  *Config
)

// LogLevel defines levels in logrus-style
type LogLevel int

// Enum levels
const (
	Error LogLevel = iota
	Warn
	Info
	Debug
	Trace
)

func (l LogLevel) String() string {
	return [...]string{"Error", "Warn", "Info", "Debug", "Trace"}[l]
}

// Logger defines logging configuration
type Logger struct {
	// LogCondense accepts time duration for condensing similar records
	// if 0 turn off condensing
	LogCondense time.Duration `env:"CONDENSE" yaml:"condense"`
	// LogElapsed adds elapsed time since start to each record
	LogElapsed bool `env:"ELAPSED" yaml:"elapsed"`
	// LogFile accepts file path to log in addition to stderr
	LogFile        string `env:"FILE" yaml:"file"`
	LogFileMaxSize int64  `env:"FILEMAXSIZE" yaml:"fileMaxSize"`
	// Log files are rotated count times before being removed.
	// If count is 0, old versions are removed rather than rotated.
	LogFileRotate int      `env:"FILEROTATE" yaml:"fileRotate"`
	LogLevel      LogLevel `env:"LEVEL" yaml:"level"`
	LogColors     bool     `env:"COLORS" yaml:"colors"`
	LogTimeFormat string   `env:"TIMEFORMAT" yaml:"timeFormat"`
}

// Calc defines calculator configuration
type Calc struct {
	// Strict requires inputs in "######.######" form
	Strict bool `env:"STRICT" yaml:"strict"`
	// Offset is added to every parsed input
	Offset timestamp.Timestamp `env:"OFFSET" yaml:"offset"`
	// ExportProm prints collected metrics after the sum command
	ExportProm       bool   `env:"EXPORTPROM" yaml:"exportProm"`
	MetricsNamespace string `env:"METRICSNAMESPACE" yaml:"metricsNamespace"`
}

// Config defines tscalc configuration
type Config struct {
	Logger Logger `envPrefix:"LOG_" yaml:"logger"`
	Calc   Calc   `envPrefix:"CALC_" yaml:"calc"`
}

func defaults() Config {
	return Config{
		Logger: Logger{
			LogCondense:    0,
			LogFileMaxSize: 1024 * 1024 * 10, // 10MB
			LogFileRotate:  5,
			LogLevel:       Warn,
			LogColors:      false,
			LogTimeFormat:  time.RFC3339,
		},
		Calc: Calc{
			Strict:           false,
			MetricsNamespace: "tscalc",
		},
	}
}

// GetConfig implements Singleton pattern
func GetConfig() *Config {
	once.Do(func() {
		cfg = Load()
	})
	return cfg
}

// Load merges defaults, config file, and env
func Load() *Config {
	/* buffer the logging while configuring */
	logBuf := &logger.LogBuffer{
		Level: zerolog.TraceLevel,
		Size:  16,
	}
	log.Logger = zerolog.New(logBuf).
		With().Timestamp().Caller().Logger()
	log.Debug().Msgf("Build info: %s / %s", buildTag, buildTime)

	c := new(Config)
	*c = defaults()
	if data, err := os.ReadFile(c.ConfigPath()); err != nil {
		log.Debug().Err(err).
			Str("configPath", c.ConfigPath()).
			Msg("could not read config")
	} else {
		if err := yaml.Unmarshal(data, c); err != nil {
			log.Err(err).
				Str("configData", string(data)).
				Str("configPath", c.ConfigPath()).
				Msg("could not parse config")
		}
	}
	if err := applyEnv(c); err != nil {
		log.Warn().Err(err).
			Msg("could not apply env vars")
	}
	log.Debug().
		Bool("strict", c.Calc.Strict).
		Stringer("offset", c.Calc.Offset).
		Msg("calc config")

	/* init logger and flush buffer */
	c.initLogger()
	logger.WriteLogBuffer(logBuf)
	return c
}

// ConfigPath returns config file path
func (c Config) ConfigPath() string {
	configPath := os.Getenv(ConfigEnv)
	if configPath == "" {
		configPath = ConfigName
		if wd, err := os.Getwd(); err == nil {
			configPath = path.Join(wd, ConfigName)
		}
	}
	return configPath
}

// Level returns zerolog level of configured LogLevel
func (c Config) Level() zerolog.Level {
	lvl := c.Logger.LogLevel
	if lvl > Trace {
		lvl = Trace
	}
	if lvl < Error {
		lvl = Error
	}
	return [...]zerolog.Level{3, 2, 1, 0, -1}[lvl]
}

func (c Config) initLogger() {
	lvl := c.Level()
	condense := c.Logger.LogCondense
	if lvl <= zerolog.DebugLevel {
		condense = 0
	}
	opts := []logger.Option{
		logger.WithCondense(condense),
		logger.WithLastErrors(10),
		logger.WithLevel(lvl),
		logger.WithNoColor(!c.Logger.LogColors),
		logger.WithTimeFormat(c.Logger.LogTimeFormat),
	}
	if c.Logger.LogElapsed {
		opts = append(opts, logger.WithElapsed(time.Now()))
	}
	if c.Logger.LogFile != "" {
		opts = append(opts, logger.WithLogFile(&logger.LogFile{
			FilePath: c.Logger.LogFile,
			MaxSize:  c.Logger.LogFileMaxSize,
			Rotate:   c.Logger.LogFileRotate,
		}))
	}
	logger.SetLogger(opts...)
}
