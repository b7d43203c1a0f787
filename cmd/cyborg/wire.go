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

//go:build wireinject
// +build wireinject

package main

import (
	"github.com/cyborghq/cyborg/internal/engine/bootstrap"
	"github.com/cyborghq/cyborg/internal/engine/config"
	"github.com/cyborghq/cyborg/internal/engine/repo"
	"github.com/cyborghq/cyborg/internal/engine/router"
	"github.com/cyborghq/cyborg/internal/engine/service"
	"github.com/cyborghq/cyborg/internal/pkg/aijob"
	"github.com/cyborghq/cyborg/internal/pkg/notify"
	"github.com/cyborghq/cyborg/internal/pkg/queue"
	"github.com/cyborghq/cyborg/internal/pkg/storage"
	"github.com/cyborghq/cyborg/pkg/cache"
	"github.com/cyborghq/cyborg/pkg/database"
	"github.com/cyborghq/cyborg/pkg/log"
	"github.com/cyborghq/cyborg/pkg/metrics"
	"github.com/cyborghq/cyborg/pkg/shutdown"
	"github.com/google/wire"
)

func initApp(configPath string) (*bootstrap.App, func(), error) {
	panic(wire.Build(
		// config sections
		config.ProviderSet,
		// logging (depends on config)
		log.ProviderSet,
		// database and cache (depend on config)
		database.ProviderSet,
		cache.ProviderSet,
		// task queue (depends on cache)
		queue.ProviderSet,
		// metrics registry
		metrics.ProviderSet,
		// repositories (depend on database)
		repo.ProviderSet,
		// report object storage
		storage.ProviderSet,
		// AI job client, poller and fallback (depend on config, metrics)
		aijob.ProviderSet,
		// lifecycle event bus (webhook, kafka)
		notify.ProviderSet,
		// services (depend on repo, queue, storage, aijob, notify)
		service.ProviderSet,
		shutdown.ProviderSet,
		// router (depends on service)
		router.ProviderSet,
		bootstrap.NewApp,
	))
}
