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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConf(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigFileDefaults(t *testing.T) {
	path := writeConf(t, `
[http]
port = 9000

[ai]
enabled = true
baseUrl = "http://ai.internal/v1/"
`)
	c, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, c.Http.Port)
	assert.Equal(t, "/api", c.Http.Prefix)
	assert.Equal(t, 24*time.Hour, c.Http.Auth.AccessExpire)
	assert.True(t, c.AI.Enabled)
	assert.Equal(t, "http://ai.internal/v1", c.AI.BaseURL)
	assert.Equal(t, 2*time.Second, c.AI.Policy().Interval)
	assert.Equal(t, 5*time.Minute, c.AI.Policy().MaxWait)
	assert.Equal(t, "memory", c.Queue.Backend)
	assert.Equal(t, 600, c.Sweeper.StaleAfter)
	assert.Equal(t, "minio", c.Storage.Provider)
}

func TestLoadConfigFileEnvOverrides(t *testing.T) {
	t.Setenv("AI_ENABLED", "false")
	t.Setenv("AI_POLL_INTERVAL", "500")
	t.Setenv("AI_POLL_MAX_WAIT", "1000")
	path := writeConf(t, `
[ai]
enabled = true
`)
	c, err := LoadConfigFile(path)
	require.NoError(t, err)
	assert.False(t, c.AI.Enabled)
	assert.Equal(t, 500*time.Millisecond, c.AI.Policy().Interval)
	assert.Equal(t, time.Second, c.AI.Policy().MaxWait)
}

func TestLoadConfigFileMissing(t *testing.T) {
	_, err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestSampleConfigLoads(t *testing.T) {
	c, err := LoadConfigFile("../../../conf.d/config.toml")
	require.NoError(t, err)
	assert.Equal(t, "redis", c.Queue.Backend)
	assert.Greater(t, c.Sweeper.StaleAfter*1000, c.AI.PollMaxWait)
}
