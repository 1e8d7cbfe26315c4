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
	"net/netip"
)

// VLANRange is an inclusive range of assignable VLAN tags.
type VLANRange struct {
	Lo int
	Hi int
}

// Contains reports whether the tag falls inside the range.
func (r VLANRange) Contains(vlan int) bool {
	return vlan >= r.Lo && vlan <= r.Hi
}

// String returns the range as "lo-hi".
func (r VLANRange) String() string {
	return fmt.Sprintf("%d-%d", r.Lo, r.Hi)
}

// RangesContain reports whether any range in the list contains the tag. An
// empty list contains nothing.
func RangesContain(ranges []VLANRange, vlan int) bool {
	for _, r := range ranges {
		if r.Contains(vlan) {
			return true
		}
	}
	return false
}

// Labels is a value-type vector of substrate identity attributes. Like
// Capacities it serves both as a delegated pool (e.g. the BDF list of a
// shared NIC) and as a single allocation (one BDF, one VLAN, one address).
type Labels struct {
	// BDF holds PCI bus:device:function addresses. A pool carries the
	// whole list; an allocation carries exactly one entry.
	BDF []string
	// MAC addresses, index-aligned with BDF when both are pools.
	MAC []string
	// VLAN tag; 0 means unset.
	VLAN int
	// VLANRanges is the delegated range set of a port or service.
	VLANRanges []VLANRange
	// IPv4 / IPv6 are single assigned addresses; the zero Addr means unset.
	IPv4 netip.Addr
	IPv6 netip.Addr
	// IPv4Subnet / IPv6Subnet are delegated or allocated subnets; the zero
	// Prefix means unset.
	IPv4Subnet netip.Prefix
	IPv6Subnet netip.Prefix
	// InstanceParent names the substrate node a VM instance was placed on.
	InstanceParent string
	// LocalName is the substrate-local device or port name.
	LocalName string
	// DeviceName is the model-specific device identifier.
	DeviceName string
	// NUMA node the device is attached to.
	NUMA string
}

// WithBDF returns a copy of the labels carrying exactly one BDF.
func (l Labels) WithBDF(bdf string) Labels {
	l.BDF = []string{bdf}
	return l
}

// FirstBDF returns the first BDF in the vector, or "" if none.
func (l Labels) FirstBDF() string {
	if len(l.BDF) == 0 {
		return ""
	}
	return l.BDF[0]
}

// FirstMAC returns the first MAC in the vector, or "" if none.
func (l Labels) FirstMAC() string {
	if len(l.MAC) == 0 {
		return ""
	}
	return l.MAC[0]
}

// Copy returns a deep copy of the labels.
func (l Labels) Copy() Labels {
	out := l
	if l.BDF != nil {
		out.BDF = append([]string(nil), l.BDF...)
	}
	if l.MAC != nil {
		out.MAC = append([]string(nil), l.MAC...)
	}
	if l.VLANRanges != nil {
		out.VLANRanges = append([]VLANRange(nil), l.VLANRanges...)
	}
	return out
}
