// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package engine

import (
	"os"
	"path/filepath"

	"github.com/ava-labs/avalanchego/utils/logging"
	"gopkg.in/natefinch/lumberjack.v2"
)

const logName = "symmem"

// NewLogger returns a logger writing to stderr at [config.LogLevel] and,
// when a log directory is configured, to a rotated JSON file in it.
func NewLogger(config Config) logging.Logger {
	consoleCore := logging.NewWrappedCore(config.LogLevel, os.Stderr, logging.Colors.ConsoleEncoder())
	if len(config.LogDirectory) == 0 {
		return logging.NewLogger("", consoleCore)
	}

	rw := &lumberjack.Logger{
		Filename:   filepath.Join(config.LogDirectory, logName+".log"),
		MaxSize:    config.LogMaxSize, // megabytes
		MaxBackups: config.LogMaxFiles,
	}
	fileCore := logging.NewWrappedCore(config.LogLevel, rw, logging.JSON.FileEncoder())
	return logging.NewLogger("", consoleCore, fileCore)
}
