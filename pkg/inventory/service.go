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

package inventory

import (
	"net/netip"

	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally"
	"go.uber.org/yarpc/yarpcerrors"

	"github.com/slicekit/substrate/pkg/common"
	"github.com/slicekit/substrate/pkg/reservation"
	"github.com/slicekit/substrate/pkg/sliver"
)

// ServiceInventory matches requested network services against substrate
// services: VLAN tags for L2 attachments, subnets plus gateway and
// per-interface addresses for the routed FABNet services. Allocation is
// pure; requested slivers are never mutated, annotated copies are
// returned.
type ServiceInventory struct {
	log     *log.Entry
	metrics *Metrics
}

// NewServiceInventory creates a service inventory. A nil logger falls
// back to the standard logger.
func NewServiceInventory(logger *log.Entry, scope tally.Scope) *ServiceInventory {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &ServiceInventory{
		log:     logger.WithField("inventory", "service"),
		metrics: NewMetrics(scope.SubScope("service_inventory")),
	}
}

// AllocateInterface validates or assigns the VLAN of one interface
// attachment.
//
// For an L2 service a requested VLAN must fall inside the range delegated
// on the owning MPLS service (skipped for facility ports; absent a
// delegation any tag in 1-4095 is accepted) and inside the range delegated
// on the candidate port, net of tags sibling reservations already hold on
// that port. An interface with no VLAN requested passes through unchanged.
//
// For any other layer the delegated range of the switch's same-typed
// service is scanned and the first tag not held by a sibling on the
// candidate port is assigned. Range exhaustion is a hard failure on both
// paths.
func (inv *ServiceInventory) AllocateInterface(
	requested *sliver.NetworkServiceSliver,
	reqIfs *sliver.InterfaceSliver,
	owningSwitch *sliver.NodeSliver,
	mplsService *sliver.NetworkServiceSliver,
	candidate *sliver.InterfaceSliver,
	existing []reservation.Ref,
) (*sliver.InterfaceSliver, error) {
	if requested == nil || reqIfs == nil || candidate == nil {
		inv.metrics.InterfaceAllocFail.Inc(1)
		return nil, yarpcerrors.InvalidArgumentErrorf(
			"requested service, interface and candidate port are all required")
	}

	ifs, err := inv.allocateInterface(requested, reqIfs, owningSwitch, mplsService, candidate, existing)
	if err != nil {
		inv.metrics.InterfaceAllocFail.Inc(1)
		return nil, err
	}
	inv.metrics.InterfaceAllocSuccess.Inc(1)
	return ifs, nil
}

func (inv *ServiceInventory) allocateInterface(
	requested *sliver.NetworkServiceSliver,
	reqIfs *sliver.InterfaceSliver,
	owningSwitch *sliver.NodeSliver,
	mplsService *sliver.NetworkServiceSliver,
	candidate *sliver.InterfaceSliver,
	existing []reservation.Ref,
) (*sliver.InterfaceSliver, error) {
	if requested.Layer == sliver.LayerL2 {
		return inv.allocateL2Interface(reqIfs, owningSwitch, mplsService, candidate, existing)
	}
	return inv.allocateL3Interface(requested, reqIfs, owningSwitch, candidate, existing)
}

func (inv *ServiceInventory) allocateL2Interface(
	reqIfs *sliver.InterfaceSliver,
	owningSwitch *sliver.NodeSliver,
	mplsService *sliver.NetworkServiceSliver,
	candidate *sliver.InterfaceSliver,
	existing []reservation.Ref,
) (*sliver.InterfaceSliver, error) {
	vlan := reqIfs.Labels.VLAN
	if vlan == 0 {
		return reqIfs.Copy(), nil
	}

	facilityPort := owningSwitch != nil && owningSwitch.Type == sliver.NodeTypeFacility
	if !facilityPort {
		ranges := delegatedVLANRanges(mplsServiceLabels(mplsService), mplsServiceDelegations(mplsService))
		if len(ranges) == 0 {
			if vlan < common.MinVLAN || vlan > common.MaxVLAN {
				return nil, yarpcerrors.FailedPreconditionErrorf(
					"requested VLAN %d outside %d-%d", vlan, common.MinVLAN, common.MaxVLAN)
			}
		} else if !sliver.RangesContain(ranges, vlan) {
			return nil, yarpcerrors.FailedPreconditionErrorf(
				"requested VLAN %d outside delegated range %v of the transport service",
				vlan, ranges)
		}
	}

	used := usedVLANsOnPort(candidate.InterfaceID, existing)
	if used[vlan] {
		return nil, yarpcerrors.FailedPreconditionErrorf(
			"VLAN %d already allocated on port %s", vlan, candidate.InterfaceID)
	}
	portRanges := delegatedVLANRanges(candidate.Labels, candidate.LabelDelegations)
	if len(portRanges) > 0 && !sliver.RangesContain(portRanges, vlan) {
		return nil, yarpcerrors.FailedPreconditionErrorf(
			"requested VLAN %d outside delegated range %v of port %s",
			vlan, portRanges, candidate.InterfaceID)
	}

	result := reqIfs.Copy()
	la := result.Labels.Copy()
	la.VLAN = vlan
	result.LabelAllocations = &la
	result.NodeMap = &sliver.NodeMap{ElementID: candidate.InterfaceID}
	return result, nil
}

func (inv *ServiceInventory) allocateL3Interface(
	requested *sliver.NetworkServiceSliver,
	reqIfs *sliver.InterfaceSliver,
	owningSwitch *sliver.NodeSliver,
	candidate *sliver.InterfaceSliver,
	existing []reservation.Ref,
) (*sliver.InterfaceSliver, error) {
	if owningSwitch == nil {
		return nil, yarpcerrors.InvalidArgumentErrorf("owning switch is required for L3 allocation")
	}
	svc := owningSwitch.ServiceByType(requested.Type)
	if svc == nil {
		return nil, yarpcerrors.FailedPreconditionErrorf(
			"no %s service on switch %s", requested.Type, owningSwitch.NodeID)
	}
	ranges := delegatedVLANRanges(svc.Labels, svc.LabelDelegations)
	if len(ranges) == 0 {
		return nil, yarpcerrors.InvalidArgumentErrorf(
			"service %s has no delegated VLAN range", svc.ServiceID)
	}

	used := usedVLANsOnPort(candidate.InterfaceID, existing)
	for _, r := range ranges {
		for vlan := r.Lo; vlan <= r.Hi; vlan++ {
			if used[vlan] {
				continue
			}
			result := reqIfs.Copy()
			result.Labels.VLAN = vlan
			la := result.Labels.Copy()
			result.LabelAllocations = &la
			result.NodeMap = &sliver.NodeMap{ElementID: candidate.InterfaceID}
			return result, nil
		}
	}
	return nil, yarpcerrors.ResourceExhaustedErrorf(
		"no VLAN available in range %v on port %s", ranges, candidate.InterfaceID)
}

// Allocate assigns a subnet, gateway and per-interface addresses to a
// routed FABNet service request. Other service types pass through
// unchanged. The delegated subnet of the switch's same-typed service is
// partitioned into fixed-size sub-blocks (/24 for v4, /64 for v6); the
// first sub-block is reserved for the control plane and every sub-block
// held by a sibling reservation is excluded.
func (inv *ServiceInventory) Allocate(
	rid string,
	requested *sliver.NetworkServiceSliver,
	owningSwitch *sliver.NodeSliver,
	existing []reservation.Ref,
) (*sliver.NetworkServiceSliver, error) {
	if requested == nil {
		inv.metrics.ServiceAllocFail.Inc(1)
		return nil, yarpcerrors.InvalidArgumentErrorf("requested service is nil")
	}
	if requested.Type != sliver.ServiceTypeFABNetv4 && requested.Type != sliver.ServiceTypeFABNetv6 {
		return requested.Copy(), nil
	}

	result, err := inv.allocateFABNet(rid, requested, owningSwitch, existing)
	if err != nil {
		inv.metrics.ServiceAllocFail.Inc(1)
		return nil, err
	}
	inv.metrics.ServiceAllocSuccess.Inc(1)
	return result, nil
}

func (inv *ServiceInventory) allocateFABNet(
	rid string,
	requested *sliver.NetworkServiceSliver,
	owningSwitch *sliver.NodeSliver,
	existing []reservation.Ref,
) (*sliver.NetworkServiceSliver, error) {
	if owningSwitch == nil {
		return nil, yarpcerrors.InvalidArgumentErrorf("owning switch is required")
	}
	svc := owningSwitch.ServiceByType(requested.Type)
	if svc == nil {
		return nil, yarpcerrors.FailedPreconditionErrorf(
			"no %s service on switch %s", requested.Type, owningSwitch.NodeID)
	}

	v4 := requested.Type == sliver.ServiceTypeFABNetv4
	parent := svc.Labels.IPv6Subnet
	targetLen := common.FABNetv6PrefixLen
	if v4 {
		parent = svc.Labels.IPv4Subnet
		targetLen = common.FABNetv4PrefixLen
	}
	if !parent.IsValid() {
		return nil, yarpcerrors.InvalidArgumentErrorf(
			"service %s has no delegated subnet", svc.ServiceID)
	}
	if parent.Bits() > targetLen {
		return nil, yarpcerrors.InvalidArgumentErrorf(
			"delegated subnet %s smaller than the /%d sub-block size",
			parent, targetLen)
	}

	used, err := usedSubnets(rid, requested.Type, parent, targetLen, existing)
	if err != nil {
		return nil, err
	}

	block, ok := firstFreeBlock(parent, targetLen, used)
	if !ok {
		return nil, yarpcerrors.ResourceExhaustedErrorf(
			"no /%d sub-block available in %s on service %s",
			targetLen, parent, svc.ServiceID)
	}

	gwAddr, ok := hostAt(block, 1)
	if !ok {
		return nil, yarpcerrors.InvalidArgumentErrorf(
			"sub-block %s too small for a gateway", block)
	}

	result := requested.Copy()
	result.Gateway = &sliver.Gateway{Subnet: block, Addr: gwAddr}
	la := result.Labels.Copy()
	if v4 {
		result.Labels.IPv4Subnet = block
		la.IPv4Subnet = block
	} else {
		result.Labels.IPv6Subnet = block
		la.IPv6Subnet = block
	}
	result.LabelAllocations = &la

	// Interfaces draw sequential host addresses after the gateway, in
	// sorted name order.
	offset := uint64(2)
	for _, name := range result.InterfaceNames() {
		addr, ok := hostAt(block, offset)
		if !ok {
			return nil, yarpcerrors.ResourceExhaustedErrorf(
				"sub-block %s exhausted assigning addresses to %d interfaces",
				block, len(result.Interfaces))
		}
		ifs := result.Interfaces[name]
		ifsLA := ifs.Labels.Copy()
		if v4 {
			ifs.Labels.IPv4 = addr
			ifsLA.IPv4 = addr
		} else {
			ifs.Labels.IPv6 = addr
			ifsLA.IPv6 = addr
		}
		ifs.LabelAllocations = &ifsLA
		offset++
	}

	inv.log.WithFields(log.Fields{
		"reservation": rid,
		"service":     svc.ServiceID,
		"subnet":      block.String(),
	}).Debug("service allocation succeeded")
	return result, nil
}

// usedSubnets collects the sub-blocks sibling reservations hold on the
// same-typed service. A sibling subnet that does not align with the
// current partition is a checked failure, never an uncaught fault.
func usedSubnets(
	rid string,
	t sliver.ServiceType,
	parent netip.Prefix,
	targetLen int,
	existing []reservation.Ref,
) (map[netip.Prefix]bool, error) {
	used := make(map[netip.Prefix]bool)
	for _, r := range existing {
		if r == nil || r.ID() == rid {
			continue
		}
		if !r.IsActive() && !r.IsTicketed() && !r.IsTicketing() {
			continue
		}
		ns, ok := reservation.AllocatedSliver(r).(*sliver.NetworkServiceSliver)
		if !ok || ns == nil || ns.Type != t {
			continue
		}
		subnet := allocatedSubnet(ns)
		if !subnet.IsValid() {
			continue
		}
		if subnet.Bits() != targetLen || !parent.Contains(subnet.Addr()) {
			return nil, yarpcerrors.FailedPreconditionErrorf(
				"subnet %s held by reservation %s does not align with the /%d partition of %s",
				subnet, r.ID(), targetLen, parent)
		}
		used[subnet.Masked()] = true
	}
	return used, nil
}

func allocatedSubnet(ns *sliver.NetworkServiceSliver) netip.Prefix {
	if ns.LabelAllocations != nil {
		if ns.LabelAllocations.IPv4Subnet.IsValid() {
			return ns.LabelAllocations.IPv4Subnet
		}
		if ns.LabelAllocations.IPv6Subnet.IsValid() {
			return ns.LabelAllocations.IPv6Subnet
		}
	}
	if ns.Labels.IPv4Subnet.IsValid() {
		return ns.Labels.IPv4Subnet
	}
	return ns.Labels.IPv6Subnet
}

// firstFreeBlock scans the partition from index 1 (index 0 is reserved for
// the control plane) and returns the first block no sibling holds.
func firstFreeBlock(parent netip.Prefix, targetLen int, used map[netip.Prefix]bool) (netip.Prefix, bool) {
	count := blockCount(parent, targetLen)
	for idx := uint64(1); idx < count; idx++ {
		block, ok := blockAt(parent, targetLen, idx)
		if !ok {
			return netip.Prefix{}, false
		}
		if !used[block.Masked()] {
			return block, true
		}
	}
	return netip.Prefix{}, false
}

// usedVLANsOnPort collects the VLAN tags sibling reservations hold on the
// given substrate port.
func usedVLANsOnPort(portID string, existing []reservation.Ref) map[int]bool {
	used := make(map[int]bool)
	for _, r := range existing {
		if r == nil {
			continue
		}
		if !r.IsActive() && !r.IsTicketed() && !r.IsTicketing() {
			continue
		}
		ns, ok := reservation.AllocatedSliver(r).(*sliver.NetworkServiceSliver)
		if !ok || ns == nil {
			continue
		}
		for _, ifs := range ns.Interfaces {
			if boundPortID(ifs) != portID {
				continue
			}
			if vlan := allocatedVLAN(ifs); vlan != 0 {
				used[vlan] = true
			}
		}
	}
	return used
}

func boundPortID(ifs *sliver.InterfaceSliver) string {
	if ifs.NodeMap != nil {
		return ifs.NodeMap.ElementID
	}
	return ifs.InterfaceID
}

func allocatedVLAN(ifs *sliver.InterfaceSliver) int {
	if ifs.LabelAllocations != nil && ifs.LabelAllocations.VLAN != 0 {
		return ifs.LabelAllocations.VLAN
	}
	return ifs.Labels.VLAN
}

func mplsServiceLabels(svc *sliver.NetworkServiceSliver) sliver.Labels {
	if svc == nil {
		return sliver.Labels{}
	}
	return svc.Labels
}

func mplsServiceDelegations(svc *sliver.NetworkServiceSliver) sliver.LabelDelegations {
	if svc == nil {
		return nil
	}
	return svc.LabelDelegations
}

// delegatedVLANRanges resolves the VLAN range set of a substrate element:
// the first label delegation wins, the element's own labels are the
// fallback.
func delegatedVLANRanges(labels sliver.Labels, delegations sliver.LabelDelegations) []sliver.VLANRange {
	if _, pool, ok := delegations.First(); ok && len(pool.VLANRanges) > 0 {
		return pool.VLANRanges
	}
	return labels.VLANRanges
}
