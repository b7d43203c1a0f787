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
	"testing"
)

func TestBuildBaseConfig_Required(t *testing.T) {
	if _, err := buildBaseConfig(Config{}); err == nil {
		t.Fatal("expected error when bootstrapServers is empty")
	}
}

func TestBuildBaseConfig_WithAuth(t *testing.T) {
	cfg := Config{
		BootstrapServers: "localhost:9092",
		SecurityProtocol: "SASL_SSL",
		Sasl: SaslConfig{
			Mechanism: "PLAIN",
			Username:  "user",
			Password:  "pass",
		},
		Ssl: SslConfig{
			CaFile:   "ca.pem",
			CertFile: "cert.pem",
			KeyFile:  "key.pem",
			Password: "secret",
		},
	}

	config, err := buildBaseConfig(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := map[string]string{
		"bootstrap.servers":        "localhost:9092",
		"security.protocol":        "SASL_SSL",
		"sasl.mechanism":           "PLAIN",
		"sasl.username":            "user",
		"sasl.password":            "pass",
		"ssl.ca.location":          "ca.pem",
		"ssl.certificate.location": "cert.pem",
		"ssl.key.location":         "key.pem",
		"ssl.key.password":         "secret",
	}
	for key, value := range want {
		if got, err := config.Get(key, nil); err != nil || got != value {
			t.Fatalf("expected %s=%s, got %v (err=%v)", key, value, got, err)
		}
	}
}

func TestBuildBaseConfig_SkipsEmptyOptional(t *testing.T) {
	config, err := buildBaseConfig(Config{BootstrapServers: "localhost:9092"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := config.Get("sasl.username", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := config.Get("sasl.username", nil); got != nil {
		t.Fatalf("expected sasl.username to be unset, got %v", got)
	}
}

func TestNormalizeProducerConfig_KeepsExplicitValues(t *testing.T) {
	cfg := ProducerConfig{
		Config:         Config{ClientId: "client-1"},
		Acks:           "1",
		Retries:        5,
		Compression:    "gzip",
		FlushTimeoutMs: 500,
	}
	normalizeProducerConfig(&cfg)

	if cfg.ClientId != "client-1" || cfg.Acks != "1" || cfg.Retries != 5 || cfg.Compression != "gzip" || cfg.FlushTimeoutMs != 500 {
		t.Fatalf("explicit values overwritten: %+v", cfg)
	}
}

func TestToHeaders(t *testing.T) {
	if got := toHeaders(nil); got != nil {
		t.Fatalf("expected nil headers, got %v", got)
	}
	got := toHeaders(map[string]string{"eventType": "actionPlan:ready"})
	if len(got) != 1 || got[0].Key != "eventType" || string(got[0].Value) != "actionPlan:ready" {
		t.Fatalf("unexpected headers: %v", got)
	}
}

func TestSend_Uninitialized(t *testing.T) {
	var p *Producer
	if err := p.Send(context.Background(), "plans", "k", nil, nil); err == nil {
		t.Fatal("expected error from nil producer")
	}
}

func TestNormalizeProducerConfig_Defaults(t *testing.T) {
	cfg := ProducerConfig{}
	normalizeProducerConfig(&cfg)

	if cfg.Acks != "all" || cfg.Retries != 3 || cfg.Compression != "snappy" || cfg.ClientId != "cyborg" || cfg.FlushTimeoutMs != defaultFlushTimeoutMs {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestBuildClientId(t *testing.T) {
	id, err := buildClientId("cyborg")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(id) < len("CYBORG_CLIENT_") || id[:len("CYBORG_CLIENT_")] != "CYBORG_CLIENT_" {
		t.Fatalf("unexpected client id: %s", id)
	}
	if _, err := buildClientId(""); err == nil {
		t.Fatalf("expected error for empty client id")
	}
}
