package utils

import (
	"os"

	logger "github.com/sirupsen/logrus"

	"github.com/ethpandaops/herald/types"
)

// InitLogger configures the process logger from the logging config and
// returns the root entry components should derive their module loggers from.
func InitLogger(cfg *types.Config) *logger.Logger {
	log := logger.New()

	if cfg.Logging.OutputStderr {
		log.SetOutput(os.Stderr)
	} else {
		log.SetOutput(os.Stdout)
	}

	if cfg.Logging.OutputLevel != "" {
		level, err := logger.ParseLevel(cfg.Logging.OutputLevel)
		if err != nil {
			log.WithError(err).Warnf("invalid log level %v", cfg.Logging.OutputLevel)
		} else {
			log.SetLevel(level)
		}
	}

	if cfg.Logging.FilePath != "" {
		f, err := os.OpenFile(cfg.Logging.FilePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			log.WithError(err).Warnf("could not open log file %v", cfg.Logging.FilePath)
		} else {
			fileLogger := logger.New()
			fileLogger.SetOutput(f)
			if cfg.Logging.FileLevel != "" {
				if level, err := logger.ParseLevel(cfg.Logging.FileLevel); err == nil {
					fileLogger.SetLevel(level)
				}
			}
			log.AddHook(&fileLogHook{fileLogger: fileLogger})
		}
	}

	return log
}

type fileLogHook struct {
	fileLogger *logger.Logger
}

func (h *fileLogHook) Levels() []logger.Level {
	return logger.AllLevels
}

func (h *fileLogHook) Fire(entry *logger.Entry) error {
	if entry.Level > h.fileLogger.GetLevel() {
		return nil
	}
	h.fileLogger.WithFields(entry.Data).Log(entry.Level, entry.Message)
	return nil
}
