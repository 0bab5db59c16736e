package internal

import (
	"fmt"
	"os"
	"overlay/services"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogging configures the global zerolog logger, human readable outside production.
func InitLogging(env string, debug bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// LogMessage is the stored form of warnings and errors.
type LogMessage struct {
	Time     time.Time `json:"time" bson:"time"`
	Level    string    `json:"level" bson:"level"`
	Category string    `json:"category" bson:"category"`
	Text     string    `json:"text" bson:"text"`
}

func (l *LogMessage) DataType() string {
	return "log_message"
}

// Logger implements services.LogHandler for one component. Warnings and errors are
// also written to the database when one is set.
type Logger struct {
	category string
	database services.Database
	logger   zerolog.Logger
}

func NewLogger(category string, debug bool, database services.Database) *Logger {
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return &Logger{
		category: category,
		database: database,
		logger:   log.Logger.With().Str("category", category).Logger().Level(level),
	}
}

func (l *Logger) Debug(text string) {
	l.logger.Debug().Msg(text)
}

func (l *Logger) Info(text string) {
	l.logger.Info().Msg(text)
}

func (l *Logger) Warn(text string) {
	l.logger.Warn().Msg(text)
	l.store(zerolog.WarnLevel, text)
}

func (l *Logger) Error(text string, err error) {
	l.logger.Error().Err(err).Msg(text)
	if err != nil {
		text = fmt.Sprintf("%s: %v", text, err)
	}
	l.store(zerolog.ErrorLevel, text)
}

func (l *Logger) store(level zerolog.Level, text string) {
	if l.database == nil {
		return
	}
	message := &LogMessage{
		Time:     time.Now(),
		Level:    level.String(),
		Category: l.category,
		Text:     text,
	}
	if err := l.database.WriteLogMessage(message); err != nil {
		l.logger.Error().Err(err).Msg("write log message")
	}
}

// secret masks a value for logging, keeping a short prefix.
func secret(value string) string {
	if len(value) < 5 {
		return "***"
	}
	return value[0:5] + "***"
}
