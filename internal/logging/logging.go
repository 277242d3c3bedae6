package logging

import (
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/tutormatch/tutormatch/internal/config"
)

const (
	DefaultLogFilePath = "tutormatch.log"
	DefaultMaxSizeMB   = 50
	DefaultMaxBackups  = 5
	DefaultMaxAgeDays  = 30
	DefaultCompress    = true

	timeFormat = "2006-01-02 15:04:05"
)

// LevelForVerbosity maps the -v count to a log level name
func LevelForVerbosity(verbosity int) string {
	switch verbosity {
	case 0:
		return "info"
	case 1:
		return "debug"
	default:
		return "trace"
	}
}

// Apply sets the global log level and output writers.
// Output always goes to the console; when logFilePath is not "-" it is also
// written to a rotating file (empty means the default filename).
func Apply(level string, loader *config.Loader, logFilePath string) {
	applyLevel(level)
	log.Logger = zerolog.New(writer(os.Stdout, loader, logFilePath)).With().Timestamp().Logger()
}

func applyLevel(level string) {
	switch level {
	case "trace":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func writer(console io.Writer, loader *config.Loader, logFilePath string) io.Writer {
	consoleOutput := zerolog.ConsoleWriter{Out: console, TimeFormat: timeFormat}

	if logFilePath == "-" {
		return consoleOutput
	}
	if logFilePath == "" {
		logFilePath = loader.String("log.file", DefaultLogFilePath)
	}

	if err := ensureLogDir(logFilePath); err != nil {
		log.Error().Err(err).Str("path", logFilePath).Msg("Failed to prepare log directory; logging to console only")
		return consoleOutput
	}

	fileWriter := &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    positive(loader.Int("log.max_size_mb", DefaultMaxSizeMB), DefaultMaxSizeMB),
		MaxBackups: nonNegative(loader.Int("log.max_backups", DefaultMaxBackups), DefaultMaxBackups),
		MaxAge:     nonNegative(loader.Int("log.max_age_days", DefaultMaxAgeDays), DefaultMaxAgeDays),
		Compress:   loader.Bool("log.compress", DefaultCompress),
	}

	fileConsole := zerolog.ConsoleWriter{
		Out:        fileWriter,
		TimeFormat: timeFormat,
		NoColor:    true,
	}

	return zerolog.MultiLevelWriter(consoleOutput, fileConsole)
}

func positive(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

func nonNegative(v, fallback int) int {
	if v >= 0 {
		return v
	}
	return fallback
}

// FilePathForDB returns a log file path that lives alongside the database file.
func FilePathForDB(dbPath string) string {
	if dbPath == "" {
		return DefaultLogFilePath
	}
	absDBPath, err := filepath.Abs(dbPath)
	if err != nil {
		return filepath.Join(filepath.Dir(dbPath), DefaultLogFilePath)
	}
	return filepath.Join(filepath.Dir(absDBPath), DefaultLogFilePath)
}

func ensureLogDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
