// Copyright (c) 2019 Uber Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
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

	"github.com/stretchr/testify/assert"

	"github.com/slicekit/substrate/pkg/common/clock"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	assert.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestParseMergesFilesInOrder(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "base.yaml", "epoch_millis: 0\ncycle_millis: 1000\n")
	override := writeFile(t, dir, "override.yaml", "cycle_millis: 5000\n")

	var cfg clock.Config
	assert.NoError(t, Parse(&cfg, base, override))
	assert.Equal(t, int64(0), cfg.EpochMillis)
	assert.Equal(t, int64(5000), cfg.CycleMillis)
}

func TestParseValidatesMergedConfig(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.yaml", "epoch_millis: 0\ncycle_millis: 0\n")

	var cfg clock.Config
	err := Parse(&cfg, bad)
	assert.Error(t, err)
	assert.IsType(t, ValidationError{}, err)
}

func TestParseNoFiles(t *testing.T) {
	var cfg clock.Config
	assert.Error(t, Parse(&cfg))
}

func TestParseMissingFile(t *testing.T) {
	var cfg clock.Config
	assert.Error(t, Parse(&cfg, "/nonexistent/config.yaml"))
}
