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

// ComponentType discriminates attachable component variants.
type ComponentType int

const (
	// ComponentTypeUnknown is the zero value.
	ComponentTypeUnknown ComponentType = iota
	// ComponentTypeSharedNIC is a multiplexed NIC; individual SR-IOV
	// functions (BDFs) are handed out while the card is shared.
	ComponentTypeSharedNIC
	// ComponentTypeSmartNIC is a dedicated NIC bound whole, with its
	// ports exposed as nested interfaces.
	ComponentTypeSmartNIC
	// ComponentTypeStorage is an attached storage volume.
	ComponentTypeStorage
	// ComponentTypeDedicated is any other passthrough device (GPU, FPGA)
	// bound whole.
	ComponentTypeDedicated
)

// String returns a printable name for the component type.
func (t ComponentType) String() string {
	switch t {
	case ComponentTypeSharedNIC:
		return "SharedNIC"
	case ComponentTypeSmartNIC:
		return "SmartNIC"
	case ComponentTypeStorage:
		return "Storage"
	case ComponentTypeDedicated:
		return "Dedicated"
	default:
		return "Unknown"
	}
}

// ComponentSliver describes one attachable device: requested (type and
// model), available (substrate pool with delegated BDF labels), or
// allocated (LabelAllocations and NodeMap stamped).
type ComponentSliver struct {
	// Name of the component, unique within its node.
	Name string
	// Type of the component.
	Type ComponentType
	// Model restricts matching to a specific device model; empty matches
	// any model of the type.
	Model string

	// Capacities carries the unit count: a shared NIC pool holds one unit
	// per free function, dedicated devices hold one unit total.
	Capacities Capacities
	// CapacityAllocations is the allocated unit vector.
	CapacityAllocations *Capacities

	// Labels carries the substrate pool (BDF/MAC lists, NUMA) or the
	// requested attributes.
	Labels Labels
	// LabelAllocations is the allocated label vector (one BDF, one MAC).
	LabelAllocations *Labels

	// NetworkService nests the port-level services of a NIC component;
	// its interfaces receive the propagated VLAN/MAC/IP labels.
	NetworkService *NetworkServiceSliver

	// NodeMap records which substrate component the request was bound to.
	NodeMap *NodeMap
}

// Copy returns a deep copy of the component.
func (c *ComponentSliver) Copy() *ComponentSliver {
	if c == nil {
		return nil
	}
	out := *c
	out.Labels = c.Labels.Copy()
	if c.CapacityAllocations != nil {
		ca := *c.CapacityAllocations
		out.CapacityAllocations = &ca
	}
	if c.LabelAllocations != nil {
		la := c.LabelAllocations.Copy()
		out.LabelAllocations = &la
	}
	out.NetworkService = c.NetworkService.Copy()
	out.NodeMap = c.NodeMap.Copy()
	return &out
}
