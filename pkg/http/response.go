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
	"time"

	"github.com/gofiber/fiber/v2"
)

// Code pairs an HTTP status with its default message.
type Code struct {
	Code int
	Msg  string
}

var (
	Success                       = Code{fiber.StatusOK, "Success"}
	Created                       = Code{fiber.StatusCreated, "Created"}
	Accepted                      = Code{fiber.StatusAccepted, "Accepted"}
	BadRequest                    = Code{fiber.StatusBadRequest, "Bad request"}
	RequestParameterParsingFailed = Code{fiber.StatusBadRequest, "Request parameter parsing failed"}
	Unauthorized                  = Code{fiber.StatusUnauthorized, "Unauthorized"}
	TokenInvalid                  = Code{fiber.StatusUnauthorized, "Invalid or expired token"}
	Forbidden                     = Code{fiber.StatusForbidden, "Forbidden"}
	NotFound                      = Code{fiber.StatusNotFound, "Not found"}
	Conflict                      = Code{fiber.StatusConflict, "Conflict"}
	ServiceUnavailable            = Code{fiber.StatusServiceUnavailable, "Service unavailable"}
	Failed                        = Code{fiber.StatusInternalServerError, "Internal server error"}
)

// Response is the JSON envelope returned by every API endpoint.
type Response struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       any    `json:"data,omitempty"`
	Errors     any    `json:"errors,omitempty"`
	Path       string `json:"path,omitempty"`
	Timestamp  string `json:"timestamp"`
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// WithRepJSON writes a success envelope with the given status.
func WithRepJSON(c *fiber.Ctx, status int, msg string, data any) error {
	if msg == "" {
		msg = Success.Msg
	}
	return c.Status(status).JSON(Response{
		Success:    true,
		StatusCode: status,
		Message:    msg,
		Data:       data,
		Timestamp:  now(),
	})
}

// WithRepErrMsg writes an error envelope with the given status.
func WithRepErrMsg(c *fiber.Ctx, status int, msg string, path string) error {
	return c.Status(status).JSON(Response{
		Success:    false,
		StatusCode: status,
		Message:    msg,
		Path:       path,
		Timestamp:  now(),
	})
}

// WithRepErrDetail writes an error envelope carrying field-level errors.
func WithRepErrDetail(c *fiber.Ctx, status int, msg string, errs any) error {
	return c.Status(status).JSON(Response{
		Success:    false,
		StatusCode: status,
		Message:    msg,
		Errors:     errs,
		Path:       c.Path(),
		Timestamp:  now(),
	})
}

// ErrorHandler renders errors that escaped the handlers.
func ErrorHandler(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	msg := Failed.Msg
	if e, ok := err.(*fiber.Error); ok {
		status = e.Code
		msg = e.Message
	}
	return WithRepErrMsg(c, status, msg, c.Path())
}
