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
	"sort"

	"go.uber.org/atomic"
	"go.uber.org/yarpc/yarpcerrors"

	"github.com/slicekit/substrate/pkg/reservation"
)

// bucket holds the reservations due for action at one cycle.
type bucket struct {
	cycle   int64
	members map[string]reservation.Ref
}

// CycleList groups reservations by the cycle they are due for action at. A
// reservation is associated with at most one cycle at a time; membership
// lookups are O(1) via a reservation-to-cycle map, bucket creation is
// O(log buckets) to keep the bucket list sorted by cycle.
//
// CycleList is not safe for concurrent use; the owning calendar serializes
// access. The size counter is atomic so callers may poll it without the
// calendar lock.
type CycleList struct {
	buckets  []*bucket
	byCycle  map[int64]*bucket
	resCycle map[string]int64
	size     atomic.Int64
}

// NewCycleList creates an empty cycle list.
func NewCycleList() *CycleList {
	return &CycleList{
		byCycle:  make(map[int64]*bucket),
		resCycle: make(map[string]int64),
	}
}

// Add associates the reservation with the given cycle. Re-adding at the
// same cycle is a no-op; adding at a different cycle without an intervening
// Remove is a programming error.
func (c *CycleList) Add(r reservation.Ref, cycle int64) error {
	if r == nil || r.ID() == "" {
		return yarpcerrors.InvalidArgumentErrorf("reservation with no id")
	}
	if cycle < 0 {
		return yarpcerrors.InvalidArgumentErrorf(
			"cycle must not be negative, got %d", cycle)
	}
	if prev, ok := c.resCycle[r.ID()]; ok {
		if prev == cycle {
			return nil
		}
		return yarpcerrors.InternalErrorf(
			"reservation %s already associated with cycle %d, cannot add at cycle %d",
			r.ID(), prev, cycle)
	}
	b, ok := c.byCycle[cycle]
	if !ok {
		b = &bucket{cycle: cycle, members: make(map[string]reservation.Ref)}
		i := sort.Search(len(c.buckets), func(i int) bool {
			return c.buckets[i].cycle >= cycle
		})
		c.buckets = append(c.buckets, nil)
		copy(c.buckets[i+1:], c.buckets[i:])
		c.buckets[i] = b
		c.byCycle[cycle] = b
	}
	b.members[r.ID()] = r
	c.resCycle[r.ID()] = cycle
	c.size.Inc()
	return nil
}

// Remove drops the reservation from whichever bucket holds it. Removing an
// absent reservation is a no-op.
func (c *CycleList) Remove(r reservation.Ref) {
	if r == nil {
		return
	}
	c.RemoveID(r.ID())
}

// RemoveID drops the reservation held under the given id.
func (c *CycleList) RemoveID(id string) {
	cycle, ok := c.resCycle[id]
	if !ok {
		return
	}
	b := c.byCycle[cycle]
	delete(b.members, id)
	delete(c.resCycle, id)
	c.size.Dec()
	if len(b.members) == 0 {
		c.dropBucket(b)
	}
}

func (c *CycleList) dropBucket(b *bucket) {
	i := sort.Search(len(c.buckets), func(i int) bool {
		return c.buckets[i].cycle >= b.cycle
	})
	if i < len(c.buckets) && c.buckets[i] == b {
		c.buckets = append(c.buckets[:i], c.buckets[i+1:]...)
	}
	delete(c.byCycle, b.cycle)
}

// Get returns a copy of the reservations due exactly at the given cycle.
func (c *CycleList) Get(cycle int64) map[string]reservation.Ref {
	out := make(map[string]reservation.Ref)
	if b, ok := c.byCycle[cycle]; ok {
		for id, r := range b.members {
			out[id] = r
		}
	}
	return out
}

// GetThrough returns a copy of the reservations due at or before the given
// cycle.
func (c *CycleList) GetThrough(cycle int64) map[string]reservation.Ref {
	out := make(map[string]reservation.Ref)
	for _, b := range c.buckets {
		if b.cycle > cycle {
			break
		}
		for id, r := range b.members {
			out[id] = r
		}
	}
	return out
}

// Tick reclaims every bucket due at or before the given cycle, in
// ascending cycle order, and returns the number of reservations removed.
func (c *CycleList) Tick(cycle int64) int {
	n := 0
	for len(c.buckets) > 0 && c.buckets[0].cycle <= cycle {
		b := c.buckets[0]
		for id := range b.members {
			delete(c.resCycle, id)
			n++
		}
		delete(c.byCycle, b.cycle)
		c.buckets = c.buckets[1:]
	}
	c.size.Sub(int64(n))
	return n
}

// Size returns the total reservation count across all buckets.
func (c *CycleList) Size() int64 {
	return c.size.Load()
}
