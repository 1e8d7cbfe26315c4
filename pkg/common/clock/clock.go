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

package clock

import (
	"time"

	"go.uber.org/yarpc/yarpcerrors"
)

// Config holds the actor clock settings, loaded from the actor config file.
type Config struct {
	// EpochMillis is the wall-clock time, in milliseconds since the Unix
	// epoch, at which cycle 0 begins.
	EpochMillis int64 `yaml:"epoch_millis" validate:"min=0"`

	// CycleMillis is the length of one cycle in milliseconds.
	CycleMillis int64 `yaml:"cycle_millis" validate:"min=1"`
}

// Clock converts between wall-clock time and the actor's discrete cycle
// counter. All conversions are pure; a Clock is safe for concurrent use.
type Clock struct {
	epoch    int64
	cycleLen int64
}

// New creates a Clock with the given epoch (millis since the Unix epoch)
// and cycle length (millis per cycle).
func New(epochMillis, cycleMillis int64) (*Clock, error) {
	if cycleMillis < 1 {
		return nil, yarpcerrors.InvalidArgumentErrorf(
			"cycle length must be at least 1 millisecond, got %d", cycleMillis)
	}
	if epochMillis < 0 {
		return nil, yarpcerrors.InvalidArgumentErrorf(
			"epoch must not be negative, got %d", epochMillis)
	}
	return &Clock{epoch: epochMillis, cycleLen: cycleMillis}, nil
}

// NewFromConfig creates a Clock from a parsed Config.
func NewFromConfig(cfg *Config) (*Clock, error) {
	if cfg == nil {
		return nil, yarpcerrors.InvalidArgumentErrorf("clock config is nil")
	}
	return New(cfg.EpochMillis, cfg.CycleMillis)
}

// Millis converts a wall-clock time to milliseconds since the Unix epoch.
func Millis(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis converts milliseconds since the Unix epoch to wall-clock time
// in UTC.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// Cycle returns the cycle containing the given time. Times before the
// epoch map to cycle 0.
func (c *Clock) Cycle(t time.Time) int64 {
	return c.CycleAt(Millis(t))
}

// CycleAt returns the cycle containing the given millisecond timestamp.
// Timestamps before the epoch map to cycle 0.
func (c *Clock) CycleAt(ms int64) int64 {
	if ms < c.epoch {
		return 0
	}
	return (ms - c.epoch) / c.cycleLen
}

// CycleStartMillis returns the millisecond timestamp at which the given
// cycle begins.
func (c *Clock) CycleStartMillis(cycle int64) (int64, error) {
	if cycle < 0 {
		return 0, yarpcerrors.InvalidArgumentErrorf(
			"cycle must not be negative, got %d", cycle)
	}
	return c.epoch + cycle*c.cycleLen, nil
}

// CycleEndMillis returns the last millisecond belonging to the given cycle.
func (c *Clock) CycleEndMillis(cycle int64) (int64, error) {
	start, err := c.CycleStartMillis(cycle)
	if err != nil {
		return 0, err
	}
	return start + c.cycleLen - 1, nil
}

// CycleStartDate returns the wall-clock time at which the given cycle
// begins.
func (c *Clock) CycleStartDate(cycle int64) (time.Time, error) {
	ms, err := c.CycleStartMillis(cycle)
	if err != nil {
		return time.Time{}, err
	}
	return FromMillis(ms), nil
}

// CycleEndDate returns the wall-clock time of the last millisecond of the
// given cycle.
func (c *Clock) CycleEndDate(cycle int64) (time.Time, error) {
	ms, err := c.CycleEndMillis(cycle)
	if err != nil {
		return time.Time{}, err
	}
	return FromMillis(ms), nil
}

// CycleLen returns the cycle length in milliseconds.
func (c *Clock) CycleLen() int64 {
	return c.cycleLen
}

// Epoch returns the epoch in milliseconds since the Unix epoch.
func (c *Clock) Epoch() int64 {
	return c.epoch
}
