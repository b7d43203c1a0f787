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

package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Http is the [http] section of the config file.
type Http struct {
	Host            string   `mapstructure:"host"`
	Port            int      `mapstructure:"port"`
	Prefix          string   `mapstructure:"prefix"`
	AccessLog       bool     `mapstructure:"accessLog"`
	ReadTimeout     int      `mapstructure:"readTimeout"` // seconds
	WriteTimeout    int      `mapstructure:"writeTimeout"`
	IdleTimeout     int      `mapstructure:"idleTimeout"`
	ShutdownTimeout int      `mapstructure:"shutdownTimeout"`
	BodyLimit       int      `mapstructure:"bodyLimit"` // bytes
	AllowOrigins    []string `mapstructure:"allowOrigins"`
	Auth            Auth     `mapstructure:"auth"`
}

// Auth configures bearer-token verification.
type Auth struct {
	SecretKey    string        `mapstructure:"secretKey"`
	Issuer       string        `mapstructure:"issuer"`
	AccessExpire time.Duration `mapstructure:"accessExpire"`
}

func (h *Http) SetDefaults() {
	if h.Host == "" {
		h.Host = "127.0.0.1"
	}
	if h.Port == 0 {
		h.Port = 8080
	}
	if h.Prefix == "" {
		h.Prefix = "/api"
	}
	if h.ReadTimeout == 0 {
		h.ReadTimeout = 60
	}
	if h.WriteTimeout == 0 {
		h.WriteTimeout = 60
	}
	if h.IdleTimeout == 0 {
		h.IdleTimeout = 60
	}
	if h.ShutdownTimeout == 0 {
		h.ShutdownTimeout = 10
	}
	if h.BodyLimit == 0 {
		h.BodyLimit = 20 * 1024 * 1024
	}
	if len(h.AllowOrigins) == 0 {
		h.AllowOrigins = []string{"http://localhost:3000", "http://localhost:5173", "http://127.0.0.1:5173"}
	}
	if h.Auth.Issuer == "" {
		h.Auth.Issuer = "cyborg"
	}
	if h.Auth.AccessExpire == 0 {
		h.Auth.AccessExpire = 24 * time.Hour
	}
	// Plain numbers in the config file are minutes; mapstructure would read them as nanoseconds.
	if h.Auth.AccessExpire > 0 && h.Auth.AccessExpire < time.Minute {
		h.Auth.AccessExpire = h.Auth.AccessExpire * time.Minute
	}
}

// QueryInt queries the int value from the query string
func (h *Http) QueryInt(c *fiber.Ctx, key string) int {
	value := c.Query(key)
	if value == "" {
		return 0
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return intValue
}
