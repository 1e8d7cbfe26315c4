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

package sliver

import (
	"fmt"

	"github.com/slicekit/substrate/pkg/common"
)

// Capacities is a value-type vector of substrate resource quantities. It is
// used both for delegated pools and for single allocations; pool arithmetic
// always returns a new value, never mutates in place.
type Capacities struct {
	CPU       int64
	Core      int64
	RAM       int64
	Disk      int64
	Unit      int64
	Bandwidth int64
}

// Add returns the field-wise sum of the two vectors.
func (c Capacities) Add(other Capacities) Capacities {
	return Capacities{
		CPU:       c.CPU + other.CPU,
		Core:      c.Core + other.Core,
		RAM:       c.RAM + other.RAM,
		Disk:      c.Disk + other.Disk,
		Unit:      c.Unit + other.Unit,
		Bandwidth: c.Bandwidth + other.Bandwidth,
	}
}

// Subtract returns the field-wise difference. Fields may go negative; use
// NegativeFields to detect exhaustion.
func (c Capacities) Subtract(other Capacities) Capacities {
	return Capacities{
		CPU:       c.CPU - other.CPU,
		Core:      c.Core - other.Core,
		RAM:       c.RAM - other.RAM,
		Disk:      c.Disk - other.Disk,
		Unit:      c.Unit - other.Unit,
		Bandwidth: c.Bandwidth - other.Bandwidth,
	}
}

// Contains determines whether the current vector is large enough to hold
// the other one in every field.
func (c Capacities) Contains(other Capacities) bool {
	return other.CPU <= c.CPU &&
		other.Core <= c.Core &&
		other.RAM <= c.RAM &&
		other.Disk <= c.Disk &&
		other.Unit <= c.Unit &&
		other.Bandwidth <= c.Bandwidth
}

// TrySubtract attempts to subtract another vector from the current one, but
// returns false if the other one is larger in any field.
func (c Capacities) TrySubtract(other Capacities) (Capacities, bool) {
	if !c.Contains(other) {
		return Capacities{}, false
	}
	return c.Subtract(other), true
}

// NegativeFields returns the names of fields which have gone negative.
// A non-empty result after subtracting an allocation from a pool means the
// pool is exhausted in exactly those fields.
func (c Capacities) NegativeFields() []string {
	var fields []string
	if c.CPU < 0 {
		fields = append(fields, common.ResourceCPU)
	}
	if c.Core < 0 {
		fields = append(fields, common.ResourceCore)
	}
	if c.RAM < 0 {
		fields = append(fields, common.ResourceRAM)
	}
	if c.Disk < 0 {
		fields = append(fields, common.ResourceDisk)
	}
	if c.Unit < 0 {
		fields = append(fields, common.ResourceUnit)
	}
	if c.Bandwidth < 0 {
		fields = append(fields, common.ResourceBandwidth)
	}
	return fields
}

// NonEmptyFields returns the names of fields which are not zero.
func (c Capacities) NonEmptyFields() []string {
	var fields []string
	if c.CPU != 0 {
		fields = append(fields, common.ResourceCPU)
	}
	if c.Core != 0 {
		fields = append(fields, common.ResourceCore)
	}
	if c.RAM != 0 {
		fields = append(fields, common.ResourceRAM)
	}
	if c.Disk != 0 {
		fields = append(fields, common.ResourceDisk)
	}
	if c.Unit != 0 {
		fields = append(fields, common.ResourceUnit)
	}
	if c.Bandwidth != 0 {
		fields = append(fields, common.ResourceBandwidth)
	}
	return fields
}

// Empty returns whether all fields are zero.
func (c Capacities) Empty() bool {
	return len(c.NonEmptyFields()) == 0
}

// String returns a formatted string for the capacity vector.
func (c Capacities) String() string {
	return fmt.Sprintf("CPU:%d Core:%d RAM:%dG Disk:%dG Unit:%d BW:%dG",
		c.CPU, c.Core, c.RAM, c.Disk, c.Unit, c.Bandwidth)
}
