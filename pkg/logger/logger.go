package logger

import (
	"go.uber.org/zap"
)

//Logger is the shared logger for the engine and the cli. Debug output is off unless SetVerbose is called.
var Logger *zap.Logger

var level = zap.NewAtomicLevelAt(zap.InfoLevel)

func init() {
	lc := zap.NewDevelopmentConfig()
	lc.EncoderConfig.TimeKey = ""
	lc.Level = level
	l, err := lc.Build()
	if err != nil {
		l = zap.NewNop()
	}
	Logger = l
}

//SetVerbose toggles debug level logging
func SetVerbose(v bool) {
	if v {
		level.SetLevel(zap.DebugLevel)
		return
	}
	level.SetLevel(zap.InfoLevel)
}
