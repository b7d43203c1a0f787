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

package bootstrap

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cyborghq/cyborg/internal/engine/config"
	"github.com/cyborghq/cyborg/internal/engine/router"
	"github.com/cyborghq/cyborg/internal/engine/service"
	"github.com/cyborghq/cyborg/internal/pkg/queue"
	"github.com/cyborghq/cyborg/pkg/log"
	"github.com/cyborghq/cyborg/pkg/metrics"
	"github.com/cyborghq/cyborg/pkg/safe"
	"github.com/cyborghq/cyborg/pkg/shutdown"
	"github.com/cyborghq/cyborg/pkg/trace"
	"github.com/gofiber/fiber/v2"
)

type App struct {
	HttpApp       *fiber.App
	MetricsServer *metrics.Server
	Logger        *log.Logger
	AppConf       *config.AppConfig
	Queue         queue.Queue
	Services      *service.Services
	ShutdownMgr   *shutdown.Manager
}

// InitAppFunc builds the App from a config file path.
type InitAppFunc func(configPath string) (*App, func(), error)

func NewApp(
	logger *log.Logger,
	appConf *config.AppConfig,
	rt *router.Router,
	metricsServer *metrics.Server,
	q queue.Queue,
	services *service.Services,
	shutdownMgr *shutdown.Manager,
) (*App, func(), error) {
	app := &App{
		HttpApp:       rt.Router(),
		MetricsServer: metricsServer,
		Logger:        logger,
		AppConf:       appConf,
		Queue:         q,
		Services:      services,
		ShutdownMgr:   shutdownMgr,
	}

	cleanup := func() {
		if services != nil && services.Sweeper != nil {
			log.Info("Stopping stale plan sweeper...")
			services.Sweeper.Stop()
		}

		if metricsServer != nil {
			log.Info("Shutting down metrics server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metricsServer.Stop(shutdownCtx); err != nil {
				log.Errorw("Failed to stop metrics server", "error", err)
			}
		}

		log.Info("Shutting down OpenTelemetry tracing...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := trace.Shutdown(shutdownCtx); err != nil {
			log.Errorw("Failed to shutdown OpenTelemetry tracing", "error", err)
		}
	}

	return app, cleanup, nil
}

// Bootstrap builds the App and installs tracing.
func Bootstrap(configFile string, initApp InitAppFunc) (*App, func(), *config.AppConfig, error) {
	app, cleanup, err := initApp(configFile)
	if err != nil {
		return nil, nil, nil, err
	}
	appConf := app.AppConf

	if err := trace.Init(appConf.Trace); err != nil {
		if cleanup != nil {
			cleanup()
		}
		return nil, nil, nil, fmt.Errorf("failed to initialize OpenTelemetry tracing: %w", err)
	}

	return app, cleanup, appConf, nil
}

// StartWorkers registers the task handlers and starts the queue workers and
// the stale plan sweeper.
func StartWorkers(app *App) error {
	mux := queue.NewMux()
	app.Services.Generator.Register(mux)
	if err := app.Queue.Start(mux); err != nil {
		return fmt.Errorf("failed to start task queue: %w", err)
	}
	if err := app.Services.Sweeper.Start(); err != nil {
		return fmt.Errorf("failed to start stale plan sweeper: %w", err)
	}
	return nil
}

// Run starts the app and waits for an exit signal, then shuts down gracefully.
func Run(app *App, cleanup func()) {
	appConf := app.AppConf

	if app.MetricsServer != nil {
		if err := app.MetricsServer.Start(); err != nil {
			log.Errorw("Metrics server failed", "error", err)
		}
	}

	if err := StartWorkers(app); err != nil {
		log.Errorw("Failed to start workers", "error", err)
		cleanup()
		return
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	safe.Go(func() {
		addr := fmt.Sprintf("%s:%d", appConf.Http.Host, appConf.Http.Port)
		log.Infow("HTTP listener started", "address", addr)
		if err := app.HttpApp.Listen(addr); err != nil {
			log.Errorw("HTTP listener failed", "address", addr, "error", err)
		}
	})

	select {
	case sig := <-quit:
		log.Infow("Received OS signal, shutting down gracefully...", "signal", sig)
		app.ShutdownMgr.Shutdown()
	case <-app.ShutdownMgr.Wait():
		log.Info("Received shutdown request, shutting down gracefully...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(appConf.Http.ShutdownTimeout)*time.Second)
	defer shutdownCancel()
	if err := app.HttpApp.ShutdownWithContext(shutdownCtx); err != nil {
		log.Errorw("HTTP server shutdown error", "error", err)
	} else {
		log.Info("HTTP server shut down gracefully")
	}

	// queue workers, kafka producer, redis and the database close here
	cleanup()

	log.Info("Server shutdown complete")
}
