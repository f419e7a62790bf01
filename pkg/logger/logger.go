// Copyright (c) 2024 routelab
//
// This software is released under the MIT License.
// see https://github.com/routelab/ospf/blob/main/LICENSE

package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogInit builds a logger that tees JSON output to fp and console output
// to stdout.
func LogInit(fp *os.File, dbg bool) *zap.Logger {
	pe := zap.NewProductionEncoderConfig()
	fileEncoder := zapcore.NewJSONEncoder(pe)
	pe.EncodeTime = zapcore.ISO8601TimeEncoder
	consoleEncoder := zapcore.NewConsoleEncoder(pe)
	var level zapcore.Level
	if dbg {
		level = zap.DebugLevel
	} else {
		level = zap.InfoLevel
	}
	core := zapcore.NewTee(
		zapcore.NewCore(fileEncoder, zapcore.AddSync(fp), level),
		zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), level),
	)
	return zap.New(core)
}

// ConsoleInit builds a stdout-only logger, JSON-encoded when jsonFmt is set.
func ConsoleInit(jsonFmt bool, dbg bool) *zap.Logger {
	pe := zap.NewProductionEncoderConfig()
	pe.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if jsonFmt {
		enc = zapcore.NewJSONEncoder(pe)
	} else {
		enc = zapcore.NewConsoleEncoder(pe)
	}
	var level zapcore.Level
	if dbg {
		level = zap.DebugLevel
	} else {
		level = zap.InfoLevel
	}
	return zap.New(zapcore.NewCore(enc, zapcore.AddSync(os.Stdout), level))
}
