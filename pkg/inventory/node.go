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
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/uber-go/tally"
	"go.uber.org/multierr"
	"go.uber.org/yarpc/yarpcerrors"

	"github.com/slicekit/substrate/pkg/reservation"
	"github.com/slicekit/substrate/pkg/sliver"
)

// Operation selects the allocation mode.
type Operation int

const (
	// OpCreate binds a fresh request.
	OpCreate Operation = iota
	// OpModify re-runs allocation for a changed request, leaving
	// already-bound components untouched.
	OpModify
	// OpExtend re-validates an existing binding for renewal.
	OpExtend
)

// String returns a printable name for the operation.
func (o Operation) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpModify:
		return "modify"
	case OpExtend:
		return "extend"
	default:
		return "unknown"
	}
}

// ModelOpenStack marks shared NICs whose VLAN is assigned by the
// virtualization layer; allocation does not propagate a VLAN for them.
const ModelOpenStack = "OpenStack"

// NodeInventory matches a requested node sliver against a candidate
// substrate node: capacity against the delegated pool net of sibling
// reservations, then component-by-component device matching. Allocation is
// pure; the requested sliver is never mutated, an annotated copy is
// returned.
type NodeInventory struct {
	log     *log.Entry
	metrics *Metrics
}

// NewNodeInventory creates a node inventory. A nil logger falls back to
// the standard logger.
func NewNodeInventory(logger *log.Entry, scope tally.Scope) *NodeInventory {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &NodeInventory{
		log:     logger.WithField("inventory", "node"),
		metrics: NewMetrics(scope.SubScope("node_inventory")),
	}
}

// Allocate decides whether the candidate node can satisfy the requested
// sliver given the reservations already holding resources on it, and
// returns the selected delegation id plus an annotated copy of the
// request. componentsInUse maps a substrate component name to the PCI
// addresses already consumed by other network services on the node; an
// entry with no addresses marks the whole component as consumed.
func (inv *NodeInventory) Allocate(
	rid string,
	requested *sliver.NodeSliver,
	delegationGraphID string,
	candidate *sliver.NodeSliver,
	existing []reservation.Ref,
	componentsInUse map[string][]string,
	op Operation,
) (string, *sliver.NodeSliver, error) {
	if err := validateNodePair(requested, candidate); err != nil {
		inv.metrics.NodeAllocFail.Inc(1)
		return "", nil, err
	}

	delegationID, err := inv.checkCapacities(rid, requested, candidate, existing)
	if err != nil {
		inv.metrics.NodeAllocFail.Inc(1)
		return "", nil, err
	}

	result := requested.Copy()

	if requested.Type == sliver.NodeTypeSwitch {
		// Switches carry no attached components in this model; stamp the
		// allocation directly.
		result.NodeMap = &sliver.NodeMap{GraphID: delegationGraphID, ElementID: candidate.NodeID}
		ca := requested.Capacities
		result.CapacityAllocations = &ca
		la := sliver.Labels{LocalName: candidate.Labels.LocalName}
		result.LabelAllocations = &la
		result.ManagementIP = candidate.ManagementIP
		inv.metrics.NodeAllocSuccess.Inc(1)
		return delegationID, result, nil
	}

	if len(result.Components) > 0 {
		usage := buildComponentUsage(rid, existing, componentsInUse)
		if err := inv.allocateComponents(result, delegationGraphID, candidate, usage, op); err != nil {
			inv.metrics.NodeAllocFail.Inc(1)
			return "", nil, err
		}
	}

	result.NodeMap = &sliver.NodeMap{GraphID: delegationGraphID, ElementID: candidate.NodeID}
	ca := requested.Capacities
	result.CapacityAllocations = &ca
	if op == OpCreate {
		la := sliver.Labels{InstanceParent: candidate.Name}
		result.LabelAllocations = &la
	}

	inv.log.WithFields(log.Fields{
		"reservation": rid,
		"node":        candidate.NodeID,
		"delegation":  delegationID,
		"operation":   op.String(),
	}).Debug("node allocation succeeded")
	inv.metrics.NodeAllocSuccess.Inc(1)
	return delegationID, result, nil
}

func validateNodePair(requested, candidate *sliver.NodeSliver) error {
	var err error
	if requested == nil {
		err = multierr.Append(err, yarpcerrors.InvalidArgumentErrorf("requested sliver is nil"))
	} else if requested.Type != sliver.NodeTypeVM && requested.Type != sliver.NodeTypeSwitch {
		err = multierr.Append(err, yarpcerrors.InvalidArgumentErrorf(
			"unsupported requested node type %s", requested.Type))
	}
	if candidate == nil {
		err = multierr.Append(err, yarpcerrors.InvalidArgumentErrorf("candidate node is nil"))
	} else if candidate.Type != sliver.NodeTypeVM && candidate.Type != sliver.NodeTypeSwitch {
		err = multierr.Append(err, yarpcerrors.InvalidArgumentErrorf(
			"unsupported candidate node type %s", candidate.Type))
	}
	return err
}

// checkCapacities selects a delegated capacity pool that can hold the
// request after subtracting everything sibling reservations already hold
// on this node.
func (inv *NodeInventory) checkCapacities(
	rid string,
	requested *sliver.NodeSliver,
	candidate *sliver.NodeSliver,
	existing []reservation.Ref,
) (string, error) {
	if len(candidate.CapacityDelegations) == 0 {
		return "", yarpcerrors.InvalidArgumentErrorf(
			"no capacity delegation on node %s", candidate.NodeID)
	}

	held := heldCapacities(rid, existing)

	var shortfall []string
	for _, id := range candidate.CapacityDelegations.IDs() {
		pool := candidate.CapacityDelegations[id]
		avail := pool.Subtract(held).Subtract(requested.Capacities)
		neg := avail.NegativeFields()
		if len(neg) == 0 {
			return id, nil
		}
		shortfall = neg
	}
	return "", yarpcerrors.ResourceExhaustedErrorf(
		"insufficient capacity on node %s: short on %s",
		candidate.NodeID, strings.Join(shortfall, ", "))
}

// heldCapacities sums the capacity every sibling reservation currently
// holds. Active, ticketed and ticketing reservations count their
// allocation; a sibling with an extension in flight counts its pending
// request instead.
func heldCapacities(rid string, existing []reservation.Ref) sliver.Capacities {
	var held sliver.Capacities
	for _, r := range existing {
		if r == nil || r.ID() == rid {
			continue
		}
		ns := heldNodeSliver(r)
		if ns == nil {
			continue
		}
		if ns.CapacityAllocations != nil {
			held = held.Add(*ns.CapacityAllocations)
		} else {
			held = held.Add(ns.Capacities)
		}
	}
	return held
}

// heldNodeSliver returns the node sliver a sibling reservation currently
// counts against the pool, nil when it holds nothing.
func heldNodeSliver(r reservation.Ref) *sliver.NodeSliver {
	var s sliver.Sliver
	if r.IsActive() || r.IsTicketed() || r.IsTicketing() {
		s = reservation.AllocatedSliver(r)
	}
	if r.IsExtendingTicket() {
		if req := reservation.RequestedSliver(r); req != nil {
			s = req
		}
	}
	ns, ok := s.(*sliver.NodeSliver)
	if !ok {
		return nil
	}
	return ns
}

// componentUsage tracks which substrate components, and which individual
// PCI functions of shared components, are already consumed.
type componentUsage struct {
	whole map[string]bool
	bdf   map[string]map[string]bool
}

func newComponentUsage() *componentUsage {
	return &componentUsage{
		whole: make(map[string]bool),
		bdf:   make(map[string]map[string]bool),
	}
}

func (u *componentUsage) markBDF(component, bdf string) {
	set, ok := u.bdf[component]
	if !ok {
		set = make(map[string]bool)
		u.bdf[component] = set
	}
	set[bdf] = true
}

func (u *componentUsage) bdfUsed(component, bdf string) bool {
	return u.bdf[component][bdf]
}

// buildComponentUsage folds sibling reservations and the per-node service
// usage map into one usage view.
func buildComponentUsage(
	rid string,
	existing []reservation.Ref,
	componentsInUse map[string][]string,
) *componentUsage {
	usage := newComponentUsage()
	for _, r := range existing {
		if r == nil || r.ID() == rid {
			continue
		}
		ns := heldNodeSliver(r)
		if ns == nil {
			continue
		}
		for _, c := range ns.Components {
			if c.NodeMap == nil {
				continue
			}
			target := c.NodeMap.ElementID
			if c.Type == sliver.ComponentTypeSharedNIC {
				if c.LabelAllocations != nil {
					for _, bdf := range c.LabelAllocations.BDF {
						usage.markBDF(target, bdf)
					}
				}
				continue
			}
			usage.whole[target] = true
		}
	}
	for component, bdfs := range componentsInUse {
		if len(bdfs) == 0 {
			usage.whole[component] = true
			continue
		}
		for _, bdf := range bdfs {
			usage.markBDF(component, bdf)
		}
	}
	return usage
}

// allocateComponents binds every requested component of the result sliver
// in place, honoring the operation mode.
func (inv *NodeInventory) allocateComponents(
	result *sliver.NodeSliver,
	graphID string,
	candidate *sliver.NodeSliver,
	usage *componentUsage,
	op Operation,
) error {
	for _, rc := range result.Components {
		switch op {
		case OpModify:
			if rc.NodeMap != nil {
				continue
			}
			if err := inv.bindComponent(rc, graphID, candidate, usage); err != nil {
				return err
			}
		case OpExtend:
			if err := checkComponentStillAvailable(rc, usage); err != nil {
				return err
			}
		default:
			if err := inv.bindComponent(rc, graphID, candidate, usage); err != nil {
				return err
			}
		}
	}
	return nil
}

// checkComponentStillAvailable verifies a previously bound component is
// still exclusively available for a renewal.
func checkComponentStillAvailable(rc *sliver.ComponentSliver, usage *componentUsage) error {
	if rc.NodeMap == nil {
		return yarpcerrors.FailedPreconditionErrorf(
			"component %s has no binding to renew", rc.Name)
	}
	target := rc.NodeMap.ElementID
	if usage.whole[target] {
		return yarpcerrors.ResourceExhaustedErrorf(
			"component %s is no longer available for renewal", target)
	}
	if rc.Type == sliver.ComponentTypeSharedNIC {
		if rc.LabelAllocations != nil {
			for _, bdf := range rc.LabelAllocations.BDF {
				if usage.bdfUsed(target, bdf) {
					return yarpcerrors.ResourceExhaustedErrorf(
						"PCI address %s on component %s is no longer available for renewal",
						bdf, target)
				}
			}
		}
		return nil
	}
	if len(usage.bdf[target]) > 0 {
		return yarpcerrors.ResourceExhaustedErrorf(
			"component %s is no longer available for renewal", target)
	}
	return nil
}

// bindComponent finds an available candidate component for the request and
// stamps the allocation onto rc.
func (inv *NodeInventory) bindComponent(
	rc *sliver.ComponentSliver,
	graphID string,
	candidate *sliver.NodeSliver,
	usage *componentUsage,
) error {
	for _, cc := range candidate.Components {
		if cc.Type != rc.Type {
			continue
		}
		if rc.Model != "" && cc.Model != rc.Model {
			continue
		}
		switch rc.Type {
		case sliver.ComponentTypeSharedNIC:
			if inv.bindSharedNIC(rc, graphID, cc, usage) {
				return nil
			}
		case sliver.ComponentTypeStorage:
			if usage.whole[cc.Name] {
				continue
			}
			usage.whole[cc.Name] = true
			rc.NodeMap = &sliver.NodeMap{GraphID: graphID, ElementID: cc.Name}
			rc.CapacityAllocations = &sliver.Capacities{Unit: 1}
			return nil
		default:
			if inv.bindDedicated(rc, graphID, cc, usage) {
				return nil
			}
		}
	}
	return yarpcerrors.ResourceExhaustedErrorf(
		"no available component of type %s model %q on node %s",
		rc.Type, rc.Model, candidate.NodeID)
}

// bindDedicated takes a whole candidate component (SmartNIC, GPU, FPGA),
// removing it from the available pool.
func (inv *NodeInventory) bindDedicated(
	rc *sliver.ComponentSliver,
	graphID string,
	cc *sliver.ComponentSliver,
	usage *componentUsage,
) bool {
	if usage.whole[cc.Name] || len(usage.bdf[cc.Name]) > 0 {
		return false
	}
	usage.whole[cc.Name] = true
	rc.NodeMap = &sliver.NodeMap{GraphID: graphID, ElementID: cc.Name}
	units := cc.Capacities.Unit
	if units == 0 {
		units = 1
	}
	rc.CapacityAllocations = &sliver.Capacities{Unit: units}
	la := cc.Labels.Copy()
	rc.LabelAllocations = &la

	if rc.Type == sliver.ComponentTypeSmartNIC {
		inv.propagateSmartNICPorts(rc, cc)
	}
	return true
}

// propagateSmartNICPorts copies port identity onto the nested interface
// slivers of an L2 request: the substrate port's MAC, the requested VLAN
// and any user-supplied addresses.
func (inv *NodeInventory) propagateSmartNICPorts(rc, cc *sliver.ComponentSliver) {
	if rc.NetworkService == nil || rc.NetworkService.Layer != sliver.LayerL2 {
		return
	}
	if cc.NetworkService == nil {
		return
	}
	for name, ifs := range rc.NetworkService.Interfaces {
		port, ok := cc.NetworkService.Interfaces[name]
		if !ok {
			continue
		}
		la := ifs.Labels.Copy()
		la.MAC = append([]string(nil), port.Labels.MAC...)
		la.LocalName = port.Labels.LocalName
		ifs.LabelAllocations = &la
		ifs.NodeMap = &sliver.NodeMap{GraphID: rc.NodeMap.GraphID, ElementID: port.InterfaceID}
	}
}

// bindSharedNIC picks one free PCI function on the candidate shared NIC,
// preferring a function the NIC's port has previously associated with the
// requested VLAN, else the first free one.
func (inv *NodeInventory) bindSharedNIC(
	rc *sliver.ComponentSliver,
	graphID string,
	cc *sliver.ComponentSliver,
	usage *componentUsage,
) bool {
	if usage.whole[cc.Name] {
		return false
	}

	free := make([]int, 0, len(cc.Labels.BDF))
	for i, bdf := range cc.Labels.BDF {
		if !usage.bdfUsed(cc.Name, bdf) {
			free = append(free, i)
		}
	}
	if len(free) == 0 {
		return false
	}

	pick := free[0]
	if vlan := requestedNICVLAN(rc); vlan != 0 {
		if i, ok := vlanAffinityBDF(cc, vlan, usage); ok {
			pick = i
		}
	}

	bdf := cc.Labels.BDF[pick]
	usage.markBDF(cc.Name, bdf)

	rc.NodeMap = &sliver.NodeMap{GraphID: graphID, ElementID: cc.Name}
	rc.CapacityAllocations = &sliver.Capacities{Unit: 1}

	la := sliver.Labels{NUMA: cc.Labels.NUMA}
	la.BDF = []string{bdf}
	if pick < len(cc.Labels.MAC) {
		la.MAC = []string{cc.Labels.MAC[pick]}
	}
	rc.LabelAllocations = &la

	inv.propagateSharedNICInterface(rc, cc, bdf, la.FirstMAC())
	return true
}

// requestedNICVLAN returns the VLAN requested on the NIC's single nested
// interface, 0 when none.
func requestedNICVLAN(rc *sliver.ComponentSliver) int {
	if rc.NetworkService == nil {
		return 0
	}
	for _, ifs := range rc.NetworkService.Interfaces {
		if ifs.Labels.VLAN != 0 {
			return ifs.Labels.VLAN
		}
	}
	return 0
}

// vlanAffinityBDF looks for a free function the substrate NIC's port has
// recorded against the requested VLAN.
func vlanAffinityBDF(cc *sliver.ComponentSliver, vlan int, usage *componentUsage) (int, bool) {
	if cc.NetworkService == nil {
		return 0, false
	}
	for _, port := range cc.NetworkService.Interfaces {
		if port.Labels.VLAN != vlan {
			continue
		}
		bdf := port.Labels.FirstBDF()
		if bdf == "" || usage.bdfUsed(cc.Name, bdf) {
			continue
		}
		for i, candidate := range cc.Labels.BDF {
			if candidate == bdf {
				return i, true
			}
		}
	}
	return 0, false
}

// propagateSharedNICInterface copies the picked function's identity onto
// the request's nested interface sliver: BDF, MAC, VLAN (except for
// OpenStack-managed models) and, for L2 services, any user-supplied
// addresses.
func (inv *NodeInventory) propagateSharedNICInterface(
	rc *sliver.ComponentSliver,
	cc *sliver.ComponentSliver,
	bdf, mac string,
) {
	if rc.NetworkService == nil {
		return
	}
	for _, ifs := range rc.NetworkService.Interfaces {
		la := sliver.Labels{}
		la.BDF = []string{bdf}
		if mac != "" {
			la.MAC = []string{mac}
		}
		if cc.Model != ModelOpenStack {
			la.VLAN = ifs.Labels.VLAN
		}
		if rc.NetworkService.Layer == sliver.LayerL2 {
			la.IPv4 = ifs.Labels.IPv4
			la.IPv6 = ifs.Labels.IPv6
		}
		ifs.LabelAllocations = &la
		ifs.NodeMap = &sliver.NodeMap{GraphID: rc.NodeMap.GraphID, ElementID: cc.Name}
	}
}
