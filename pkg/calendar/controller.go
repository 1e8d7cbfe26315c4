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
	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally"

	"github.com/slicekit/substrate/pkg/common/clock"
	"github.com/slicekit/substrate/pkg/reservation"
)

// ControllerCalendar extends the client view with the lists a controller
// actor needs: reservations due for close and tickets due for redeem, both
// by cycle. All lists share the client calendar's lock.
type ControllerCalendar struct {
	ClientCalendar

	closing   *CycleList
	redeeming *CycleList
}

// NewControllerCalendar creates a controller calendar on the given clock.
func NewControllerCalendar(clk *clock.Clock, logger *log.Entry, scope tally.Scope) *ControllerCalendar {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	c := &ControllerCalendar{
		closing:   NewCycleList(),
		redeeming: NewCycleList(),
	}
	c.clock = clk
	c.log = logger.WithField("calendar", "controller")
	c.metrics = NewMetrics(scope.SubScope("controller_calendar"))
	c.demand = make(map[string]reservation.Ref)
	c.pending = make(map[string]reservation.Ref)
	c.renewing = NewCycleList()
	c.holdings = NewHoldings()
	return c
}

// AddClosing schedules a reservation for close at the given cycle.
func (c *ControllerCalendar) AddClosing(r reservation.Ref, cycle int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.closing.Add(r, cycle); err != nil {
		return err
	}
	c.metrics.ClosingLen.Update(float64(c.closing.Size()))
	return nil
}

// Closing returns a copy of the reservations due for close at or before
// the given cycle.
func (c *ControllerCalendar) Closing(cycle int64) map[string]reservation.Ref {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closing.GetThrough(cycle)
}

// AddRedeeming schedules a ticket for redeem at the given cycle.
func (c *ControllerCalendar) AddRedeeming(r reservation.Ref, cycle int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.redeeming.Add(r, cycle); err != nil {
		return err
	}
	c.metrics.RedeemingLen.Update(float64(c.redeeming.Size()))
	return nil
}

// Redeeming returns a copy of the tickets due for redeem at or before the
// given cycle.
func (c *ControllerCalendar) Redeeming(cycle int64) map[string]reservation.Ref {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.redeeming.GetThrough(cycle)
}

// Remove drops a reservation from every list it may be in.
func (c *ControllerCalendar) Remove(r reservation.Ref) {
	if r == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(r)
	c.closing.Remove(r)
	c.redeeming.Remove(r)
	c.metrics.ClosingLen.Update(float64(c.closing.Size()))
	c.metrics.RedeemingLen.Update(float64(c.redeeming.Size()))
}

// Tick advances every list to the given cycle.
func (c *ControllerCalendar) Tick(cycle int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.tickLocked(cycle); err != nil {
		return err
	}
	swept := c.closing.Tick(cycle)
	swept += c.redeeming.Tick(cycle)
	c.metrics.ReservationsSwept.Inc(int64(swept))
	c.metrics.ClosingLen.Update(float64(c.closing.Size()))
	c.metrics.RedeemingLen.Update(float64(c.redeeming.Size()))
	return nil
}
