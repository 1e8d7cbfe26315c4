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

// Package reservation defines the read-only view of a kernel reservation
// consumed by the allocation engine and the calendars. The kernel owns the
// lifecycle state machine; this package never mutates a reservation.
package reservation

import "github.com/slicekit/substrate/pkg/sliver"

// State is a reservation lifecycle state, owned by the kernel.
type State int

const (
	// StateUnknown is the zero value.
	StateUnknown State = iota
	// StateTicketing is a reservation whose ticket is being acquired.
	StateTicketing
	// StateTicketed holds a ticket but is not yet redeemed.
	StateTicketed
	// StateActive holds redeemed, live resources.
	StateActive
	// StateClosed has released its resources.
	StateClosed
	// StateFailed ended in error.
	StateFailed
)

// String returns a printable name for the state.
func (s State) String() string {
	switch s {
	case StateTicketing:
		return "Ticketing"
	case StateTicketed:
		return "Ticketed"
	case StateActive:
		return "Active"
	case StateClosed:
		return "Closed"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Resources is the resource descriptor attached to a reservation.
type Resources interface {
	// Sliver returns the descriptor's sliver, nil when none is attached.
	Sliver() sliver.Sliver
}

// Ref is an opaque handle to a kernel-owned reservation. IDs are unique
// and totally ordered; they serve as tie-breaks in the calendar indexes.
type Ref interface {
	// ID returns the reservation's unique id.
	ID() string

	// State returns the current lifecycle state.
	State() State

	// IsTicketing reports whether a ticket is being acquired.
	IsTicketing() bool

	// IsTicketed reports whether a ticket is held.
	IsTicketed() bool

	// IsActive reports whether resources are live.
	IsActive() bool

	// IsExtendingTicket reports whether a ticket extension is in flight.
	IsExtendingTicket() bool

	// Resources returns the currently allocated resources, nil if none.
	Resources() Resources

	// RequestedResources returns the pending request, nil if none.
	RequestedResources() Resources

	// ApprovedResources returns the approved-but-unallocated resources,
	// nil if none.
	ApprovedResources() Resources
}

// AllocatedSliver returns the reservation's currently allocated sliver, or
// nil when the reservation holds none.
func AllocatedSliver(r Ref) sliver.Sliver {
	if r == nil || r.Resources() == nil {
		return nil
	}
	return r.Resources().Sliver()
}

// RequestedSliver returns the reservation's pending requested sliver, or
// nil when there is no pending request.
func RequestedSliver(r Ref) sliver.Sliver {
	if r == nil || r.RequestedResources() == nil {
		return nil
	}
	return r.RequestedResources().Sliver()
}
