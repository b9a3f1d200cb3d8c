package internal

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the logger for a sorting run from the [logging] section of
// the config. Levels 1 through 4 map onto fatal, info, info, and debug; fatal
// messages always surface regardless of level. When log_to_file is set, output
// tees to the configured file as well as stderr.
func NewLogger(config Config) (*logrus.Logger, func() error, error) {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000000",
	})

	switch {
	case config.LogLevel >= 4:
		log.SetLevel(logrus.DebugLevel)
	case config.LogLevel >= 2:
		log.SetLevel(logrus.InfoLevel)
	default:
		log.SetLevel(logrus.FatalLevel)
	}

	closer := func() error { return nil }

	if config.LogToFile {
		file, err := os.OpenFile(config.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file %q: %w\nCheck the [logging] log_file path and its permissions", config.LogFile, err)
		}
		log.SetOutput(io.MultiWriter(os.Stderr, file))
		closer = file.Close
	}

	return log, closer, nil
}
