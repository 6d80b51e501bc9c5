package config

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// LogWriter is the writer used for application and database logs.
var LogWriter io.Writer = os.Stdout

// InitLogging points the standard logger at stdout plus a rotating file.
// The returned closer flushes the file on shutdown.
func InitLogging(path string) (io.Closer, io.Writer) {
	if path == "" {
		path = filepath.Join("logs", "vendor-api.log")
	}
	if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		log.Printf("Warning: Failed to create logs directory: %v", err)
		LogWriter = os.Stdout
		log.SetOutput(LogWriter)
		return noopCloser{}, LogWriter
	}

	rotator := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    50, // megabytes
		MaxBackups: 10,
		MaxAge:     30, // days
		Compress:   true,
	}

	LogWriter = io.MultiWriter(os.Stdout, rotator)
	log.SetOutput(LogWriter)
	return rotator, LogWriter
}

type noopCloser struct{}

func (noopCloser) Close() error { return nil }
