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

import "sort"

// CapacityDelegations maps a delegation id to the capacity pool advertised
// under it. A substrate element may advertise several delegations; exactly
// one is selected per allocation attempt.
type CapacityDelegations map[string]Capacities

// LabelDelegations maps a delegation id to the label pool advertised
// under it.
type LabelDelegations map[string]Labels

// IDs returns the delegation ids in sorted order. Allocation iterates
// delegations in this order so that selection is deterministic for stable
// inputs.
func (d CapacityDelegations) IDs() []string {
	ids := make([]string, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// First returns the first delegation in sorted-id order, or ok=false when
// no delegation exists.
func (d CapacityDelegations) First() (id string, pool Capacities, ok bool) {
	ids := d.IDs()
	if len(ids) == 0 {
		return "", Capacities{}, false
	}
	return ids[0], d[ids[0]], true
}

// IDs returns the delegation ids in sorted order.
func (d LabelDelegations) IDs() []string {
	ids := make([]string, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// First returns the first delegation in sorted-id order, or ok=false when
// no delegation exists.
func (d LabelDelegations) First() (id string, pool Labels, ok bool) {
	ids := d.IDs()
	if len(ids) == 0 {
		return "", Labels{}, false
	}
	return ids[0], d[ids[0]], true
}
