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
	"context"

	"github.com/bytedance/sonic"
	"github.com/cyborghq/cyborg/pkg/event"
)

// MessageSender is the part of the kafka producer the sink needs.
type MessageSender interface {
	Send(ctx context.Context, topic string, key string, value []byte, headers map[string]string) error
}

// KafkaSink publishes events keyed by subject, so events of one plan stay ordered.
type KafkaSink struct {
	sender MessageSender
	topic  string
}

func NewKafkaSink(sender MessageSender, topic string) *KafkaSink {
	return &KafkaSink{sender: sender, topic: topic}
}

func (k *KafkaSink) Handle(ctx context.Context, e event.Event) error {
	value, err := sonic.Marshal(e)
	if err != nil {
		return err
	}
	return k.sender.Send(ctx, k.topic, e.Subject, value, map[string]string{
		"eventType": e.Type,
		"eventId":   e.Id,
	})
}
