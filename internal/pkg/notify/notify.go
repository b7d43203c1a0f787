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

package notify

import (
	"github.com/cyborghq/cyborg/pkg/event"
	"github.com/cyborghq/cyborg/pkg/log"
	"github.com/cyborghq/cyborg/pkg/mq/kafka"
	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(ProvideBus)

// Plan lifecycle event types.
const (
	EventPlanReady  = "actionPlan:ready"
	EventPlanFailed = "actionPlan:failed"
)

// Conf is the [notify] section of the config file.
type Conf struct {
	Webhook WebhookConf `mapstructure:"webhook"`
	Kafka   KafkaConf   `mapstructure:"kafka"`
}

type WebhookConf struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Secret  string `mapstructure:"secret"`
	Timeout int    `mapstructure:"timeout"` // seconds
}

type KafkaConf struct {
	Enabled bool   `mapstructure:"enabled"`
	Topic   string `mapstructure:"topic"`
}

func (c *Conf) SetDefaults() {
	if c.Webhook.Timeout <= 0 {
		c.Webhook.Timeout = 5
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "cyborg.action-plan.events"
	}
}

// ProvideBus builds the event bus with the sinks enabled in conf. The
// returned cleanup flushes the kafka producer.
func ProvideBus(conf Conf, kafkaConf kafka.ProducerConfig) (*event.Bus, func(), error) {
	conf.SetDefaults()
	bus := event.NewEventBus()
	cleanup := func() {}

	if conf.Webhook.Enabled && conf.Webhook.URL != "" {
		bus.RegisterHandler(event.Wildcard, NewWebhookSink(conf.Webhook))
		log.Infow("webhook event sink enabled", "url", conf.Webhook.URL)
	}
	if conf.Kafka.Enabled {
		producer, err := kafka.NewProducerFromConfig(kafkaConf)
		if err != nil {
			return nil, nil, err
		}
		bus.RegisterHandler(event.Wildcard, NewKafkaSink(producer, conf.Kafka.Topic))
		cleanup = producer.Close
		log.Infow("kafka event sink enabled", "topic", conf.Kafka.Topic)
	}
	return bus, cleanup, nil
}
