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
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cyborghq/cyborg/pkg/event"
	"github.com/cyborghq/cyborg/pkg/request"
)

const (
	HeaderTimestamp = "X-Cyborg-Timestamp"
	HeaderSignature = "X-Cyborg-Signature"
	HeaderEventType = "X-Cyborg-Event"
)

// WebhookSink posts events as JSON. When a secret is configured each request
// carries an HMAC-SHA256 of "timestamp.body".
type WebhookSink struct {
	url     string
	secret  string
	timeout time.Duration
	now     func() time.Time
}

func NewWebhookSink(conf WebhookConf) *WebhookSink {
	return &WebhookSink{
		url:     conf.URL,
		secret:  conf.Secret,
		timeout: time.Duration(conf.Timeout) * time.Second,
		now:     time.Now,
	}
}

func (w *WebhookSink) Handle(ctx context.Context, e event.Event) error {
	body, err := sonic.Marshal(e)
	if err != nil {
		return err
	}

	req := request.NewRequest(w.url, "POST", map[string]string{
		"Content-Type":  "application/json",
		HeaderEventType: e.Type,
	}).WithBodyBytes(body).WithTimeout(w.timeout)

	if w.secret != "" {
		ts := strconv.FormatInt(w.now().Unix(), 10)
		req.WithHeader(HeaderTimestamp, ts).WithHeader(HeaderSignature, Sign(w.secret, ts, body))
	}

	resp, err := req.Do(ctx)
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("webhook responded with status %d", resp.StatusCode)
	}
	return nil
}

// Sign returns the hex HMAC-SHA256 of timestamp + "." + body.
func Sign(secret, timestamp string, body []byte) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(timestamp))
	h.Write([]byte("."))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}
