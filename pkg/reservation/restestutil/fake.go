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

// Package restestutil provides hand-rolled reservation fakes for tests.
package restestutil

import (
	"github.com/pborman/uuid"

	"github.com/slicekit/substrate/pkg/reservation"
	"github.com/slicekit/substrate/pkg/sliver"
)

// FakeResources wraps a sliver as a reservation resource descriptor.
type FakeResources struct {
	S sliver.Sliver
}

// Sliver implements reservation.Resources.
func (f *FakeResources) Sliver() sliver.Sliver { return f.S }

// FakeRef is a test double for reservation.Ref with settable fields.
type FakeRef struct {
	RID       string
	St        reservation.State
	Extending bool
	Allocated sliver.Sliver
	Requested sliver.Sliver
	Approved  sliver.Sliver
}

// NewFakeRef returns a fake reservation in the given state with a random
// id.
func NewFakeRef(state reservation.State) *FakeRef {
	return &FakeRef{RID: uuid.New(), St: state}
}

// WithID sets the reservation id and returns the fake.
func (f *FakeRef) WithID(id string) *FakeRef {
	f.RID = id
	return f
}

// WithAllocated sets the allocated sliver and returns the fake.
func (f *FakeRef) WithAllocated(s sliver.Sliver) *FakeRef {
	f.Allocated = s
	return f
}

// WithRequested sets the pending requested sliver and returns the fake.
func (f *FakeRef) WithRequested(s sliver.Sliver) *FakeRef {
	f.Requested = s
	return f
}

// WithExtending marks the fake as extending its ticket and returns it.
func (f *FakeRef) WithExtending() *FakeRef {
	f.Extending = true
	return f
}

// ID implements reservation.Ref.
func (f *FakeRef) ID() string { return f.RID }

// State implements reservation.Ref.
func (f *FakeRef) State() reservation.State { return f.St }

// IsTicketing implements reservation.Ref.
func (f *FakeRef) IsTicketing() bool { return f.St == reservation.StateTicketing }

// IsTicketed implements reservation.Ref.
func (f *FakeRef) IsTicketed() bool { return f.St == reservation.StateTicketed }

// IsActive implements reservation.Ref.
func (f *FakeRef) IsActive() bool { return f.St == reservation.StateActive }

// IsExtendingTicket implements reservation.Ref.
func (f *FakeRef) IsExtendingTicket() bool { return f.Extending }

// Resources implements reservation.Ref.
func (f *FakeRef) Resources() reservation.Resources {
	if f.Allocated == nil {
		return nil
	}
	return &FakeResources{S: f.Allocated}
}

// RequestedResources implements reservation.Ref.
func (f *FakeRef) RequestedResources() reservation.Resources {
	if f.Requested == nil {
		return nil
	}
	return &FakeResources{S: f.Requested}
}

// ApprovedResources implements reservation.Ref.
func (f *FakeRef) ApprovedResources() reservation.Resources {
	if f.Approved == nil {
		return nil
	}
	return &FakeResources{S: f.Approved}
}
