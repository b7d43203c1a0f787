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
	"github.com/google/wire"
)

// ProviderSet hands each config section to the package that owns it.
var ProviderSet = wire.NewSet(
	NewConf,
	ProvideLogConf,
	ProvideHttpConf,
	ProvideDatabaseConf,
	ProvideRedisConf,
	ProvideAIConf,
	ProvideQueueConf,
	ProvideSweeperConf,
	ProvideStorageConf,
	ProvideNotifyConf,
	ProvideKafkaConf,
	ProvideMetricsConf,
)

func ProvideLogConf(c *AppConfig) log.Conf                  { return c.Log }
func ProvideHttpConf(c *AppConfig) *http.Http               { return &c.Http }
func ProvideDatabaseConf(c *AppConfig) database.Database    { return c.Database }
func ProvideRedisConf(c *AppConfig) cache.Redis             { return c.Redis }
func ProvideAIConf(c *AppConfig) aijob.Conf                 { return c.AI }
func ProvideQueueConf(c *AppConfig) queue.Conf              { return c.Queue }
func ProvideSweeperConf(c *AppConfig) service.SweeperConf   { return c.Sweeper }
func ProvideStorageConf(c *AppConfig) storage.Storage       { return c.Storage }
func ProvideNotifyConf(c *AppConfig) notify.Conf            { return c.Notify }
func ProvideKafkaConf(c *AppConfig) kafka.ProducerConfig    { return c.Kafka }
func ProvideMetricsConf(c *AppConfig) metrics.MetricsConfig { return c.Metrics }
