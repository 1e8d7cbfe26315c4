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

import "net/netip"

// NodeType discriminates compute node variants.
type NodeType int

const (
	// NodeTypeUnknown is the zero value.
	NodeTypeUnknown NodeType = iota
	// NodeTypeVM is a virtual machine.
	NodeTypeVM
	// NodeTypeSwitch is a programmable (P4) switch.
	NodeTypeSwitch
	// NodeTypeFacility is a facility port node.
	NodeTypeFacility
)

// String returns a printable name for the node type.
func (t NodeType) String() string {
	switch t {
	case NodeTypeVM:
		return "VM"
	case NodeTypeSwitch:
		return "Switch"
	case NodeTypeFacility:
		return "Facility"
	default:
		return "Unknown"
	}
}

// NodeSliver describes a compute node, either as a request (Capacities and
// Components set), as a substrate candidate (delegations, attached
// component pool, Services for switches), or as an allocation
// (CapacityAllocations, LabelAllocations and NodeMap stamped).
type NodeSliver struct {
	// NodeID is the substrate node id for candidates, the request id
	// otherwise.
	NodeID string
	// Name is the human-readable node name.
	Name string
	// Type of the node.
	Type NodeType
	// Site the node belongs to.
	Site string

	// Capacities is the requested (or substrate total) capacity vector.
	Capacities Capacities
	// CapacityAllocations is the allocated vector, set once bound.
	CapacityAllocations *Capacities
	// CapacityDelegations is the delegated pool set of a candidate.
	CapacityDelegations CapacityDelegations

	// Labels carries substrate attributes (LocalName for switches).
	Labels Labels
	// LabelAllocations is the allocated label vector, set once bound.
	LabelAllocations *Labels

	// ManagementIP of the substrate node, copied onto switch allocations.
	ManagementIP netip.Addr

	// Components attached to the node: the requested set on a request,
	// the available pool on a candidate.
	Components []*ComponentSliver

	// Services hosted by a substrate switch (FABNet services with their
	// delegated subnets and VLAN ranges).
	Services []*NetworkServiceSliver

	// NodeMap records the binding of an allocated sliver.
	NodeMap *NodeMap
}

// Kind implements Sliver.
func (n *NodeSliver) Kind() Kind { return KindNode }

// SliverID implements Sliver.
func (n *NodeSliver) SliverID() string { return n.NodeID }

// ComponentByName returns the attached component with the given name, or
// nil if absent.
func (n *NodeSliver) ComponentByName(name string) *ComponentSliver {
	for _, c := range n.Components {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// ServiceByType returns the first hosted service of the given type, or nil.
func (n *NodeSliver) ServiceByType(t ServiceType) *NetworkServiceSliver {
	for _, s := range n.Services {
		if s.Type == t {
			return s
		}
	}
	return nil
}

// Copy returns a deep copy of the sliver. Allocation never mutates the
// caller's request; it annotates a copy.
func (n *NodeSliver) Copy() *NodeSliver {
	if n == nil {
		return nil
	}
	out := *n
	out.Labels = n.Labels.Copy()
	if n.CapacityAllocations != nil {
		ca := *n.CapacityAllocations
		out.CapacityAllocations = &ca
	}
	if n.LabelAllocations != nil {
		la := n.LabelAllocations.Copy()
		out.LabelAllocations = &la
	}
	if n.CapacityDelegations != nil {
		out.CapacityDelegations = make(CapacityDelegations, len(n.CapacityDelegations))
		for id, pool := range n.CapacityDelegations {
			out.CapacityDelegations[id] = pool
		}
	}
	if n.Components != nil {
		out.Components = make([]*ComponentSliver, len(n.Components))
		for i, c := range n.Components {
			out.Components[i] = c.Copy()
		}
	}
	if n.Services != nil {
		out.Services = make([]*NetworkServiceSliver, len(n.Services))
		for i, s := range n.Services {
			out.Services[i] = s.Copy()
		}
	}
	out.NodeMap = n.NodeMap.Copy()
	return &out
}
