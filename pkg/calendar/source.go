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

package calendar

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally"

	"github.com/slicekit/substrate/pkg/common/clock"
	"github.com/slicekit/substrate/pkg/reservation"
	"github.com/slicekit/substrate/pkg/sliver"
)

// SourceCalendar tracks the delegation-side lists of an authority or
// broker: reservations drawing resources from a delegation (outlays, by
// real time) and extension requests pending a decision (by cycle).
type SourceCalendar struct {
	mu      sync.Mutex
	clock   *clock.Clock
	log     *log.Entry
	metrics *Metrics

	outlays   *Holdings
	extending *CycleList
}

// NewSourceCalendar creates a source calendar on the given clock.
func NewSourceCalendar(clk *clock.Clock, logger *log.Entry, scope tally.Scope) *SourceCalendar {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &SourceCalendar{
		clock:     clk,
		log:       logger.WithField("calendar", "source"),
		metrics:   NewMetrics(scope.SubScope("source_calendar")),
		outlays:   NewHoldings(),
		extending: NewCycleList(),
	}
}

// AddOutlay records a reservation drawing from this delegation over the
// given lease interval.
func (c *SourceCalendar) AddOutlay(r reservation.Ref, start, end time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.outlays.Add(r, clock.Millis(start), clock.Millis(end)); err != nil {
		return err
	}
	c.metrics.OutlaysLen.Update(float64(c.outlays.Size()))
	return nil
}

// Outlays returns a copy of the reservations drawing from this delegation
// at the given time, optionally filtered by sliver kind.
func (c *SourceCalendar) Outlays(t time.Time, kinds ...sliver.Kind) map[string]reservation.Ref {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outlays.Query(clock.Millis(t), kinds...)
}

// AllOutlays returns a copy of every outstanding outlay.
func (c *SourceCalendar) AllOutlays() map[string]reservation.Ref {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.outlays.All()
}

// AddExtending schedules an extension request for decision at the given
// cycle.
func (c *SourceCalendar) AddExtending(r reservation.Ref, cycle int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.extending.Add(r, cycle); err != nil {
		return err
	}
	c.metrics.ExtendingLen.Update(float64(c.extending.Size()))
	return nil
}

// Extending returns a copy of the extension requests due at or before the
// given cycle.
func (c *SourceCalendar) Extending(cycle int64) map[string]reservation.Ref {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.extending.GetThrough(cycle)
}

// Remove drops a reservation from every list it may be in.
func (c *SourceCalendar) Remove(r reservation.Ref) {
	if r == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outlays.Remove(r)
	c.extending.Remove(r)
	c.metrics.OutlaysLen.Update(float64(c.outlays.Size()))
	c.metrics.ExtendingLen.Update(float64(c.extending.Size()))
}

// Tick advances both lists to the given cycle.
func (c *SourceCalendar) Tick(cycle int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	end, err := c.clock.CycleEndMillis(cycle)
	if err != nil {
		return err
	}
	swept := c.extending.Tick(cycle)
	swept += c.outlays.Tick(end)
	c.metrics.TicksTotal.Inc(1)
	c.metrics.ReservationsSwept.Inc(int64(swept))
	c.metrics.OutlaysLen.Update(float64(c.outlays.Size()))
	c.metrics.ExtendingLen.Update(float64(c.extending.Size()))
	if swept > 0 {
		c.log.WithFields(log.Fields{
			"cycle": cycle,
			"swept": swept,
		}).Debug("calendar tick reclaimed reservations")
	}
	return nil
}
