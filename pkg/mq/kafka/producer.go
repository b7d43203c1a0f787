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

package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
)

const defaultFlushTimeoutMs = 15000

// ProducerConfig is the [kafka] section of the config file.
type ProducerConfig struct {
	Config         `json:",inline" mapstructure:",squash"`
	Acks           string `json:"acks" mapstructure:"acks"`
	Retries        int    `json:"retries" mapstructure:"retries"`
	Compression    string `json:"compression" mapstructure:"compression"`
	FlushTimeoutMs int    `json:"flushTimeoutMs" mapstructure:"flushTimeoutMs"`
}

// Producer publishes messages and waits for their delivery report.
type Producer struct {
	producer     *kafka.Producer
	flushTimeout int
}

// NewProducerFromConfig creates a producer from a config file section.
func NewProducerFromConfig(cfg ProducerConfig) (*Producer, error) {
	normalizeProducerConfig(&cfg)

	config, err := buildBaseConfig(cfg.Config)
	if err != nil {
		return nil, err
	}
	clientID, err := buildClientId(cfg.ClientId)
	if err != nil {
		return nil, err
	}
	for key, value := range map[string]kafka.ConfigValue{
		"client.id":          clientID,
		"acks":               cfg.Acks,
		"retries":            cfg.Retries,
		"compression.type":   cfg.Compression,
		"enable.idempotence": cfg.Acks == "all",
	} {
		if err := config.SetKey(key, value); err != nil {
			return nil, fmt.Errorf("set %s: %w", key, err)
		}
	}

	producer, err := kafka.NewProducer(config)
	if err != nil {
		return nil, fmt.Errorf("create producer: %w", err)
	}
	return &Producer{producer: producer, flushTimeout: cfg.FlushTimeoutMs}, nil
}

func normalizeProducerConfig(cfg *ProducerConfig) {
	if cfg.Acks == "" {
		cfg.Acks = "all"
	}
	if cfg.Retries == 0 {
		cfg.Retries = 3
	}
	if cfg.Compression == "" {
		cfg.Compression = "snappy"
	}
	if cfg.ClientId == "" {
		cfg.ClientId = "cyborg"
	}
	if cfg.FlushTimeoutMs <= 0 {
		cfg.FlushTimeoutMs = defaultFlushTimeoutMs
	}
}

// Send publishes value under key and blocks until the broker acknowledges it
// or ctx is done.
func (p *Producer) Send(ctx context.Context, topic string, key string, value []byte, headers map[string]string) error {
	if p == nil || p.producer == nil {
		return errors.New("producer is not initialized")
	}
	if err := requireNonEmpty("topic", topic); err != nil {
		return err
	}

	message := &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(key),
		Value:          value,
		Headers:        toHeaders(headers),
	}

	delivery := make(chan kafka.Event, 1)
	if err := p.producer.Produce(message, delivery); err != nil {
		return fmt.Errorf("produce message: %w", err)
	}

	select {
	case e := <-delivery:
		m, ok := e.(*kafka.Message)
		if !ok {
			return fmt.Errorf("unexpected delivery event: %v", e)
		}
		if m.TopicPartition.Error != nil {
			return fmt.Errorf("deliver message: %w", m.TopicPartition.Error)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func toHeaders(headers map[string]string) []kafka.Header {
	if len(headers) == 0 {
		return nil
	}
	out := make([]kafka.Header, 0, len(headers))
	for k, v := range headers {
		out = append(out, kafka.Header{Key: k, Value: []byte(v)})
	}
	return out
}

// Close flushes outstanding messages and closes the producer.
func (p *Producer) Close() {
	if p == nil || p.producer == nil {
		return
	}
	p.producer.Flush(p.flushTimeout)
	p.producer.Close()
}
