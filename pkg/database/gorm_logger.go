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

package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cyborghq/cyborg/pkg/log"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// gormLoggerAdapter routes gorm logs through pkg/log.
type gormLoggerAdapter struct {
	config gormlogger.Config
	level  gormlogger.LogLevel
}

func NewGormLoggerAdapter(config gormlogger.Config, level gormlogger.LogLevel) gormlogger.Interface {
	return &gormLoggerAdapter{config: config, level: level}
}

func (l *gormLoggerAdapter) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *gormLoggerAdapter) Info(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Info {
		log.WithContext(ctx).Infof(msg, args...)
	}
}

func (l *gormLoggerAdapter) Warn(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Warn {
		log.WithContext(ctx).Warnf(msg, args...)
	}
}

func (l *gormLoggerAdapter) Error(ctx context.Context, msg string, args ...any) {
	if l.level >= gormlogger.Error {
		log.WithContext(ctx).Errorf(msg, args...)
	}
}

func (l *gormLoggerAdapter) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && l.level >= gormlogger.Error &&
		!(l.config.IgnoreRecordNotFoundError && errors.Is(err, gorm.ErrRecordNotFound)) &&
		!errors.Is(err, gorm.ErrDuplicatedKey):
		sql, rows := fc()
		log.WithContext(ctx).Errorw("gorm query failed", "sql", sql, "rows", rows, "elapsed", elapsed, "error", err)
	case l.config.SlowThreshold > 0 && elapsed > l.config.SlowThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		log.WithContext(ctx).Warnw("gorm slow query", "sql", sql, "rows", rows, "elapsed", elapsed,
			"threshold", fmt.Sprint(l.config.SlowThreshold))
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		log.WithContext(ctx).Debugw("gorm query", "sql", sql, "rows", rows, "elapsed", elapsed)
	}
}
