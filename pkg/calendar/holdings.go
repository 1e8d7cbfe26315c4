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

	"go.uber.org/yarpc/yarpcerrors"

	"github.com/slicekit/substrate/pkg/reservation"
	"github.com/slicekit/substrate/pkg/sliver"
)

// wrapper pairs a reservation with the closed interval it is valid over.
// Wrappers are ordered by end time, tie-broken by reservation id.
type wrapper struct {
	res   reservation.Ref
	start int64
	end   int64
}

// Holdings is a collection of reservation intervals sorted by end time,
// supporting point-in-time intersection queries and bulk reclaim of expired
// entries. At most one interval per reservation id is present at a time.
//
// Holdings is not safe for concurrent use; the owning calendar serializes
// access.
type Holdings struct {
	list []*wrapper
	byID map[string]*wrapper
}

// NewHoldings creates an empty holdings collection.
func NewHoldings() *Holdings {
	return &Holdings{byID: make(map[string]*wrapper)}
}

// search returns the insertion index for (end, id) in the sorted list.
func (h *Holdings) search(end int64, id string) int {
	return sort.Search(len(h.list), func(i int) bool {
		w := h.list[i]
		if w.end != end {
			return w.end >= end
		}
		return w.res.ID() >= id
	})
}

// Add records the closed interval [start, end] for the reservation. If the
// reservation already holds an interval, the new one replaces it and must
// begin no later than one time unit after the old interval ended (a lease
// extension is contiguous).
func (h *Holdings) Add(r reservation.Ref, start, end int64) error {
	if r == nil || r.ID() == "" {
		return yarpcerrors.InvalidArgumentErrorf("reservation with no id")
	}
	if start > end {
		return yarpcerrors.InvalidArgumentErrorf(
			"interval start %d after end %d for reservation %s",
			start, end, r.ID())
	}
	if prev, ok := h.byID[r.ID()]; ok {
		if start-prev.end > 1 {
			return yarpcerrors.InternalErrorf(
				"non-contiguous extension for reservation %s: new start %d, previous end %d",
				r.ID(), start, prev.end)
		}
		h.removeWrapper(prev)
	}
	w := &wrapper{res: r, start: start, end: end}
	i := h.search(end, r.ID())
	h.list = append(h.list, nil)
	copy(h.list[i+1:], h.list[i:])
	h.list[i] = w
	h.byID[r.ID()] = w
	return nil
}

// Remove drops the reservation's interval. Removing an absent reservation
// is a no-op.
func (h *Holdings) Remove(r reservation.Ref) {
	if r == nil {
		return
	}
	h.RemoveID(r.ID())
}

// RemoveID drops the interval held under the given reservation id.
func (h *Holdings) RemoveID(id string) {
	w, ok := h.byID[id]
	if !ok {
		return
	}
	h.removeWrapper(w)
}

func (h *Holdings) removeWrapper(w *wrapper) {
	i := h.search(w.end, w.res.ID())
	if i < len(h.list) && h.list[i] == w {
		h.list = append(h.list[:i], h.list[i+1:]...)
	}
	delete(h.byID, w.res.ID())
}

// Query returns the reservations whose interval contains t and whose
// allocated sliver kind matches one of the given kinds (no kinds matches
// everything). The sort key is end time, so the scan starts at the first
// wrapper with end >= t; everything before it has already expired at t.
func (h *Holdings) Query(t int64, kinds ...sliver.Kind) map[string]reservation.Ref {
	out := make(map[string]reservation.Ref)
	i := sort.Search(len(h.list), func(i int) bool {
		return h.list[i].end >= t
	})
	for ; i < len(h.list); i++ {
		w := h.list[i]
		if w.start > t {
			continue
		}
		if !kindMatches(w.res, kinds) {
			continue
		}
		out[w.res.ID()] = w.res
	}
	return out
}

// All returns every reservation currently holding an interval.
func (h *Holdings) All() map[string]reservation.Ref {
	out := make(map[string]reservation.Ref, len(h.list))
	for _, w := range h.list {
		out[w.res.ID()] = w.res
	}
	return out
}

// Tick reclaims every interval that has ended at or before t and returns
// the number of reservations removed.
func (h *Holdings) Tick(t int64) int {
	n := 0
	for len(h.list) > 0 && h.list[0].end <= t {
		delete(h.byID, h.list[0].res.ID())
		h.list = h.list[1:]
		n++
	}
	return n
}

// Size returns the number of reservations holding an interval.
func (h *Holdings) Size() int {
	return len(h.list)
}

func kindMatches(r reservation.Ref, kinds []sliver.Kind) bool {
	if len(kinds) == 0 {
		return true
	}
	s := reservation.AllocatedSliver(r)
	if s == nil {
		return false
	}
	for _, k := range kinds {
		if s.Kind() == k {
			return true
		}
	}
	return false
}
