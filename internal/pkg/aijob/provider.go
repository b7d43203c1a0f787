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

package aijob

import (
	"github.com/google/wire"
	"github.com/prometheus/client_golang/prometheus"
)

var ProviderSet = wire.NewSet(
	ProvideJobClient,
	ProvideMetrics,
	ProvidePoller,
	ProvideFallbackGenerator,
)

func ProvideJobClient(conf Conf) JobClient {
	return NewClient(conf)
}

func ProvideMetrics(reg prometheus.Registerer) *Metrics {
	return NewMetrics(reg)
}

func ProvidePoller(conf Conf, client JobClient, m *Metrics) *Poller {
	conf.SetDefaults()
	return NewPoller(client, conf.Policy(), WithObserver(LogObserver{}), WithObserver(m))
}

func ProvideFallbackGenerator(conf Conf) *FallbackGenerator {
	return NewFallbackGenerator(conf.FallbackDelayDuration(), nil)
}
