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

package log

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestConfSetDefaults(t *testing.T) {
	c := Conf{}
	c.SetDefaults()
	if c.Output != OutputStdout || c.Level != "info" || c.RotateSize != 100 {
		t.Fatalf("unexpected defaults: %+v", c)
	}
}

func TestNewLogFileOutput(t *testing.T) {
	dir := t.TempDir()
	l, err := NewLog(&Conf{Output: OutputFile, Path: dir, Filename: "test.log", Level: "debug"})
	if err != nil {
		t.Fatalf("NewLog error: %v", err)
	}
	l.Infow("hello", "k", "v")
	_ = l.Sync()

	data, err := os.ReadFile(filepath.Join(dir, "test.log"))
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected log output in file")
	}
}

func TestWithContextWithoutSpan(t *testing.T) {
	if WithContext(context.Background()) == nil {
		t.Fatalf("expected logger")
	}
}
