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

package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/cyborghq/cyborg/pkg/log"
	"github.com/cyborghq/cyborg/pkg/safe"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsConfig is the [metrics] section of the config file.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

func (m *MetricsConfig) SetDefaults() {
	if m.Host == "" {
		m.Host = "0.0.0.0"
	}
	if m.Port == 0 {
		m.Port = 9090
	}
	if m.Path == "" {
		m.Path = "/metrics"
	}
}

// Server exposes a private Prometheus registry on its own listener.
type Server struct {
	config   MetricsConfig
	registry *prometheus.Registry
	app      *fiber.App
}

func NewServer(config MetricsConfig) *Server {
	config.SetDefaults()
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Server{config: config, registry: registry}
}

// GetRegistry returns the registry collectors should be registered with.
func (s *Server) GetRegistry() *prometheus.Registry {
	return s.registry
}

// Start listens in the background. It is a no-op when metrics are disabled.
func (s *Server) Start() error {
	if !s.config.Enabled {
		return nil
	}
	s.app = fiber.New(fiber.Config{DisableStartupMessage: true})
	s.app.Get(s.config.Path, adaptor.HTTPHandler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{
		Registry: s.registry,
	})))

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	safe.Go(func() {
		log.Infow("metrics server started", "address", addr, "path", s.config.Path)
		if err := s.app.Listen(addr); err != nil {
			log.Errorw("metrics server failed", "address", addr, "error", err)
		}
	})
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	if s.app == nil {
		return nil
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	return s.app.ShutdownWithContext(ctx)
}
