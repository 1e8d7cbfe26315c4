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

package common

const (
	// ResourceCPU is the capacity field name for CPU count.
	ResourceCPU = "cpu"
	// ResourceCore is the capacity field name for dedicated cores.
	ResourceCore = "core"
	// ResourceRAM is the capacity field name for memory in GB.
	ResourceRAM = "ram"
	// ResourceDisk is the capacity field name for disk in GB.
	ResourceDisk = "disk"
	// ResourceUnit is the capacity field name for generic units
	// (component counts, storage volumes).
	ResourceUnit = "unit"
	// ResourceBandwidth is the capacity field name for bandwidth in Gbps.
	ResourceBandwidth = "bw"
)

const (
	// MinVLAN is the smallest assignable VLAN tag.
	MinVLAN = 1
	// MaxVLAN is the largest assignable VLAN tag.
	MaxVLAN = 4095
)

const (
	// FABNetv4PrefixLen is the sub-block size carved out of an IPv4
	// service subnet, one block per reservation.
	FABNetv4PrefixLen = 24
	// FABNetv6PrefixLen is the sub-block size carved out of an IPv6
	// service subnet.
	FABNetv6PrefixLen = 64
)
