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

// ClientCalendar tracks the reservation lists a client-side actor needs:
// unsatisfied demand, requests in flight, reservations due for renewal by
// cycle, and current holdings by real time. One mutex guards all lists;
// every read returns a copy, so callers may iterate without the lock.
type ClientCalendar struct {
	mu      sync.Mutex
	clock   *clock.Clock
	log     *log.Entry
	metrics *Metrics

	demand   map[string]reservation.Ref
	pending  map[string]reservation.Ref
	renewing *CycleList
	holdings *Holdings
}

// NewClientCalendar creates a client calendar on the given clock. A nil
// logger falls back to the standard logger.
func NewClientCalendar(clk *clock.Clock, logger *log.Entry, scope tally.Scope) *ClientCalendar {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &ClientCalendar{
		clock:    clk,
		log:      logger.WithField("calendar", "client"),
		metrics:  NewMetrics(scope.SubScope("client_calendar")),
		demand:   make(map[string]reservation.Ref),
		pending:  make(map[string]reservation.Ref),
		renewing: NewCycleList(),
		holdings: NewHoldings(),
	}
}

// Clock returns the calendar's clock.
func (c *ClientCalendar) Clock() *clock.Clock {
	return c.clock
}

// AddDemand records a reservation awaiting a policy decision.
func (c *ClientCalendar) AddDemand(r reservation.Ref) {
	if r == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.demand[r.ID()] = r
	c.metrics.DemandLen.Update(float64(len(c.demand)))
}

// RemoveDemand drops a reservation from the demand list; absent is a no-op.
func (c *ClientCalendar) RemoveDemand(r reservation.Ref) {
	if r == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.demand, r.ID())
	c.metrics.DemandLen.Update(float64(len(c.demand)))
}

// Demand returns a copy of the demand list.
func (c *ClientCalendar) Demand() map[string]reservation.Ref {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copySet(c.demand)
}

// AddPending records a reservation with a request in flight.
func (c *ClientCalendar) AddPending(r reservation.Ref) {
	if r == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[r.ID()] = r
	c.metrics.PendingLen.Update(float64(len(c.pending)))
}

// RemovePending drops a reservation from the pending list; absent is a
// no-op.
func (c *ClientCalendar) RemovePending(r reservation.Ref) {
	if r == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, r.ID())
	c.metrics.PendingLen.Update(float64(len(c.pending)))
}

// Pending returns a copy of the pending list.
func (c *ClientCalendar) Pending() map[string]reservation.Ref {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copySet(c.pending)
}

// AddRenewing schedules a reservation for renewal at the given cycle.
func (c *ClientCalendar) AddRenewing(r reservation.Ref, cycle int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.renewing.Add(r, cycle); err != nil {
		return err
	}
	c.metrics.RenewingLen.Update(float64(c.renewing.Size()))
	return nil
}

// Renewing returns a copy of the reservations due for renewal at or before
// the given cycle.
func (c *ClientCalendar) Renewing(cycle int64) map[string]reservation.Ref {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renewing.GetThrough(cycle)
}

// AddHoldings records a reservation's lease interval in real time.
func (c *ClientCalendar) AddHoldings(r reservation.Ref, start, end time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.holdings.Add(r, clock.Millis(start), clock.Millis(end)); err != nil {
		return err
	}
	c.metrics.HoldingsLen.Update(float64(c.holdings.Size()))
	return nil
}

// Holdings returns a copy of the reservations whose lease contains the
// given time, optionally filtered by sliver kind.
func (c *ClientCalendar) Holdings(t time.Time, kinds ...sliver.Kind) map[string]reservation.Ref {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.holdings.Query(clock.Millis(t), kinds...)
}

// AllHoldings returns a copy of every held reservation.
func (c *ClientCalendar) AllHoldings() map[string]reservation.Ref {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.holdings.All()
}

// Remove drops a reservation from every list it may be in. Absence in any
// list is fine; Remove is idempotent.
func (c *ClientCalendar) Remove(r reservation.Ref) {
	if r == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(r)
}

func (c *ClientCalendar) removeLocked(r reservation.Ref) {
	delete(c.demand, r.ID())
	delete(c.pending, r.ID())
	c.renewing.Remove(r)
	c.holdings.Remove(r)
	c.updateGaugesLocked()
}

// Tick advances all time-based lists to the given cycle: the renewing list
// reclaims buckets through the cycle and the holdings reclaim every lease
// ending inside it.
func (c *ClientCalendar) Tick(cycle int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tickLocked(cycle)
}

func (c *ClientCalendar) tickLocked(cycle int64) error {
	end, err := c.clock.CycleEndMillis(cycle)
	if err != nil {
		return err
	}
	swept := c.renewing.Tick(cycle)
	swept += c.holdings.Tick(end)
	c.metrics.TicksTotal.Inc(1)
	c.metrics.ReservationsSwept.Inc(int64(swept))
	c.updateGaugesLocked()
	if swept > 0 {
		c.log.WithFields(log.Fields{
			"cycle": cycle,
			"swept": swept,
		}).Debug("calendar tick reclaimed reservations")
	}
	return nil
}

func (c *ClientCalendar) updateGaugesLocked() {
	c.metrics.DemandLen.Update(float64(len(c.demand)))
	c.metrics.PendingLen.Update(float64(len(c.pending)))
	c.metrics.RenewingLen.Update(float64(c.renewing.Size()))
	c.metrics.HoldingsLen.Update(float64(c.holdings.Size()))
}

func copySet(in map[string]reservation.Ref) map[string]reservation.Ref {
	out := make(map[string]reservation.Ref, len(in))
	for id, r := range in {
		out[id] = r
	}
	return out
}
