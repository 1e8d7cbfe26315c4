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
	"net/netip"
	"sort"
)

// ServiceType discriminates network service variants.
type ServiceType int

const (
	// ServiceTypeUnknown is the zero value.
	ServiceTypeUnknown ServiceType = iota
	// ServiceTypeFABNetv4 is the routed IPv4 service.
	ServiceTypeFABNetv4
	// ServiceTypeFABNetv6 is the routed IPv6 service.
	ServiceTypeFABNetv6
	// ServiceTypeL2Bridge is a site-local L2 bridge.
	ServiceTypeL2Bridge
	// ServiceTypeL2PTP is a point-to-point L2 circuit.
	ServiceTypeL2PTP
	// ServiceTypeL2STS is a site-to-site L2 circuit.
	ServiceTypeL2STS
	// ServiceTypeMPLS is the underlying transport service whose VLAN
	// delegation bounds L2 requests on a switch.
	ServiceTypeMPLS
)

// String returns a printable name for the service type.
func (t ServiceType) String() string {
	switch t {
	case ServiceTypeFABNetv4:
		return "FABNetv4"
	case ServiceTypeFABNetv6:
		return "FABNetv6"
	case ServiceTypeL2Bridge:
		return "L2Bridge"
	case ServiceTypeL2PTP:
		return "L2PTP"
	case ServiceTypeL2STS:
		return "L2STS"
	case ServiceTypeMPLS:
		return "MPLS"
	default:
		return "Unknown"
	}
}

// Layer is the network layer a service operates at.
type Layer int

const (
	// LayerUnknown is the zero value.
	LayerUnknown Layer = iota
	// LayerL2 is a tagged Ethernet service.
	LayerL2
	// LayerL3 is a routed service.
	LayerL3
)

// String returns a printable name for the layer.
func (l Layer) String() string {
	switch l {
	case LayerL2:
		return "L2"
	case LayerL3:
		return "L3"
	default:
		return "Unknown"
	}
}

// Gateway is the router address handed to an L3 service allocation.
type Gateway struct {
	Subnet netip.Prefix
	Addr   netip.Addr
}

// NetworkServiceSliver describes one network service: requested (type,
// layer, interfaces), substrate (delegated VLAN ranges and subnets), or
// allocated (Gateway and per-interface label allocations stamped).
type NetworkServiceSliver struct {
	// ServiceID is the substrate service id for candidates, the request
	// id otherwise.
	ServiceID string
	// Name is the human-readable service name.
	Name string
	// Type of the service.
	Type ServiceType
	// Layer the service operates at.
	Layer Layer
	// Site the service belongs to.
	Site string

	// Labels carries the delegated VLAN ranges and subnets of a substrate
	// service, or the allocated subnet of a bound one.
	Labels Labels
	// LabelAllocations is the allocated label vector.
	LabelAllocations *Labels
	// LabelDelegations is the delegated pool set of a candidate service.
	LabelDelegations LabelDelegations

	// Gateway assigned to an L3 allocation.
	Gateway *Gateway

	// Interfaces of the service, keyed by interface name.
	Interfaces map[string]*InterfaceSliver

	// NodeMap records the binding of an allocated service.
	NodeMap *NodeMap
}

// Kind implements Sliver.
func (s *NetworkServiceSliver) Kind() Kind { return KindNetworkService }

// SliverID implements Sliver.
func (s *NetworkServiceSliver) SliverID() string { return s.ServiceID }

// InterfaceNames returns the interface names in sorted order. Address
// assignment walks interfaces in this order so that allocation is
// deterministic for stable inputs.
func (s *NetworkServiceSliver) InterfaceNames() []string {
	names := make([]string, 0, len(s.Interfaces))
	for name := range s.Interfaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Copy returns a deep copy of the service.
func (s *NetworkServiceSliver) Copy() *NetworkServiceSliver {
	if s == nil {
		return nil
	}
	out := *s
	out.Labels = s.Labels.Copy()
	if s.LabelAllocations != nil {
		la := s.LabelAllocations.Copy()
		out.LabelAllocations = &la
	}
	if s.LabelDelegations != nil {
		out.LabelDelegations = make(LabelDelegations, len(s.LabelDelegations))
		for id, pool := range s.LabelDelegations {
			out.LabelDelegations[id] = pool.Copy()
		}
	}
	if s.Gateway != nil {
		gw := *s.Gateway
		out.Gateway = &gw
	}
	if s.Interfaces != nil {
		out.Interfaces = make(map[string]*InterfaceSliver, len(s.Interfaces))
		for name, ifs := range s.Interfaces {
			out.Interfaces[name] = ifs.Copy()
		}
	}
	out.NodeMap = s.NodeMap.Copy()
	return &out
}

// InterfaceSliver describes one attachment point of a network service.
type InterfaceSliver struct {
	// InterfaceID is the substrate interface id for candidates, the
	// request id otherwise.
	InterfaceID string
	// Name of the interface within its service.
	Name string

	// Labels carries the requested VLAN, or the delegated ranges of a
	// substrate port.
	Labels Labels
	// LabelAllocations is the allocated label vector (VLAN, BDF, MAC,
	// addresses).
	LabelAllocations *Labels
	// LabelDelegations is the delegated pool set of a candidate port.
	LabelDelegations LabelDelegations

	// NodeMap records which substrate port the interface was bound to.
	NodeMap *NodeMap
}

// Copy returns a deep copy of the interface.
func (i *InterfaceSliver) Copy() *InterfaceSliver {
	if i == nil {
		return nil
	}
	out := *i
	out.Labels = i.Labels.Copy()
	if i.LabelAllocations != nil {
		la := i.LabelAllocations.Copy()
		out.LabelAllocations = &la
	}
	if i.LabelDelegations != nil {
		out.LabelDelegations = make(LabelDelegations, len(i.LabelDelegations))
		for id, pool := range i.LabelDelegations {
			out.LabelDelegations[id] = pool.Copy()
		}
	}
	out.NodeMap = i.NodeMap.Copy()
	return &out
}
