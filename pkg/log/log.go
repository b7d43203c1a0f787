// Copyright 2026 Cyborg Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/wire"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ProviderSet provides the process logger.
var ProviderSet = wire.NewSet(ProvideLogger)

const (
	OutputStdout = "stdout"
	OutputFile   = "file"
)

// Conf is the [log] section of the config file.
type Conf struct {
	Output     string `mapstructure:"output"`
	Path       string `mapstructure:"path"`
	Filename   string `mapstructure:"filename"`
	Level      string `mapstructure:"level"`
	KeepHours  int    `mapstructure:"keepHours"`
	RotateSize int    `mapstructure:"rotateSize"` // MB
	RotateNum  int    `mapstructure:"rotateNum"`
}

func (c *Conf) SetDefaults() {
	if c.Output == "" {
		c.Output = OutputStdout
	}
	if c.Path == "" {
		c.Path = "logs"
	}
	if c.Filename == "" {
		c.Filename = "cyborg.log"
	}
	if c.Level == "" {
		c.Level = "info"
	}
	if c.KeepHours == 0 {
		c.KeepHours = 7 * 24
	}
	if c.RotateSize == 0 {
		c.RotateSize = 100
	}
	if c.RotateNum == 0 {
		c.RotateNum = 10
	}
}

// Logger wraps the sugared zap logger handed out through wire.
type Logger struct {
	*zap.SugaredLogger
}

var (
	mu     sync.RWMutex
	global = zap.NewNop().Sugar()
)

// ProvideLogger builds the logger from conf and installs it as the package logger.
func ProvideLogger(conf Conf) (*Logger, func(), error) {
	logger, err := NewLog(&conf)
	if err != nil {
		return nil, nil, err
	}
	SetLogger(logger)
	return logger, func() { _ = logger.Sync() }, nil
}

// NewLog creates a Logger from conf without touching the package logger.
func NewLog(conf *Conf) (*Logger, error) {
	conf.SetDefaults()

	level, err := zapcore.ParseLevel(strings.ToLower(conf.Level))
	if err != nil {
		level = zapcore.InfoLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	var ws zapcore.WriteSyncer
	switch conf.Output {
	case OutputFile:
		if err := os.MkdirAll(conf.Path, 0o755); err != nil {
			return nil, err
		}
		ws = zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(conf.Path, conf.Filename),
			MaxSize:    conf.RotateSize,
			MaxBackups: conf.RotateNum,
			MaxAge:     max(conf.KeepHours/24, 1),
			Compress:   true,
		})
	default:
		ws = zapcore.AddSync(os.Stdout)
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), ws, level)
	z := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	return &Logger{SugaredLogger: z.Sugar()}, nil
}

// SetLogger replaces the package logger.
func SetLogger(l *Logger) {
	if l == nil || l.SugaredLogger == nil {
		return
	}
	mu.Lock()
	global = l.SugaredLogger
	mu.Unlock()
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

func Debug(args ...any) { current().Debug(args...) }
func Info(args ...any)  { current().Info(args...) }
func Warn(args ...any)  { current().Warn(args...) }
func Error(args ...any) { current().Error(args...) }

func Debugw(msg string, keysAndValues ...any) { current().Debugw(msg, keysAndValues...) }
func Infow(msg string, keysAndValues ...any)  { current().Infow(msg, keysAndValues...) }
func Warnw(msg string, keysAndValues ...any)  { current().Warnw(msg, keysAndValues...) }
func Errorw(msg string, keysAndValues ...any) { current().Errorw(msg, keysAndValues...) }

func Sync() error { return current().Sync() }
