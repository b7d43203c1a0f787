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

package config

import (
	"fmt"
	"sync"

	"github.com/cyborghq/cyborg/internal/engine/service"
	"github.com/cyborghq/cyborg/internal/pkg/aijob"
	"github.com/cyborghq/cyborg/internal/pkg/notify"
	"github.com/cyborghq/cyborg/internal/pkg/queue"
	"github.com/cyborghq/cyborg/internal/pkg/storage"
	"github.com/cyborghq/cyborg/pkg/cache"
	"github.com/cyborghq/cyborg/pkg/database"
	"github.com/cyborghq/cyborg/pkg/http"
	"github.com/cyborghq/cyborg/pkg/log"
	"github.com/cyborghq/cyborg/pkg/metrics"
	"github.com/cyborghq/cyborg/pkg/mq/kafka"
	"github.com/cyborghq/cyborg/pkg/trace"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type AppConfig struct {
	Log      log.Conf              `mapstructure:"log"`
	Http     http.Http             `mapstructure:"http"`
	Database database.Database     `mapstructure:"database"`
	Redis    cache.Redis           `mapstructure:"redis"`
	AI       aijob.Conf            `mapstructure:"ai"`
	Queue    queue.Conf            `mapstructure:"queue"`
	Sweeper  service.SweeperConf   `mapstructure:"sweeper"`
	Storage  storage.Storage       `mapstructure:"storage"`
	Notify   notify.Conf           `mapstructure:"notify"`
	Kafka    kafka.ProducerConfig  `mapstructure:"kafka"`
	Metrics  metrics.MetricsConfig `mapstructure:"metrics"`
	Trace    trace.TraceConfig     `mapstructure:"trace"`
}

// SetDefaults fills every section and applies environment overrides.
func (c *AppConfig) SetDefaults() {
	c.Log.SetDefaults()
	c.Http.SetDefaults()
	c.Database.SetDefaults()
	c.Redis.SetDefaults()
	c.AI.SetDefaults()
	c.AI.ApplyEnv()
	c.Queue.SetDefaults()
	c.Sweeper.SetDefaults()
	c.Storage.SetDefaults()
	c.Notify.SetDefaults()
	c.Metrics.SetDefaults()
	c.Trace.SetDefaults()
}

var (
	cfg  AppConfig
	mu   sync.RWMutex // guards cfg across hot reloads
	once sync.Once
)

func NewConf(confFile string) *AppConfig {
	once.Do(func() {
		loaded, err := LoadConfigFile(confFile)
		if err != nil {
			panic(fmt.Sprintf("load config file error: %s", err))
		}
		mu.Lock()
		cfg = loaded
		mu.Unlock()
	})
	c := GetConfig()
	return &c
}

// GetConfig returns a copy of the current configuration, including changes
// picked up by hot reload.
func GetConfig() AppConfig {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// LoadConfigFile reads confFile and watches it for changes. Components built
// at startup keep the values they were given; GetConfig reflects reloads.
func LoadConfigFile(confFile string) (AppConfig, error) {
	v := viper.New()
	v.SetConfigFile(confFile)
	if err := v.ReadInConfig(); err != nil {
		return AppConfig{}, fmt.Errorf("failed to read configuration file: %w", err)
	}

	var loaded AppConfig
	if err := v.Unmarshal(&loaded); err != nil {
		return AppConfig{}, fmt.Errorf("failed to unmarshal configuration file: %w", err)
	}
	loaded.SetDefaults()

	v.OnConfigChange(func(e fsnotify.Event) {
		log.Infow("configuration changed, reloading", "file", e.Name)
		var next AppConfig
		if err := v.Unmarshal(&next); err != nil {
			log.Errorw("failed to unmarshal configuration file", "error", err, "file", e.Name)
			return
		}
		next.SetDefaults()
		mu.Lock()
		cfg = next
		mu.Unlock()
		log.Infow("configuration reloaded", "file", e.Name)
	})
	v.WatchConfig()

	log.Infow("config file loaded", "path", confFile)
	return loaded, nil
}
