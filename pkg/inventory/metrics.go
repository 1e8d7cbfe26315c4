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

import "github.com/uber-go/tally"

// Metrics is a placeholder for all metrics in inventory.
type Metrics struct {
	NodeAllocSuccess tally.Counter
	NodeAllocFail    tally.Counter

	ServiceAllocSuccess tally.Counter
	ServiceAllocFail    tally.Counter

	InterfaceAllocSuccess tally.Counter
	InterfaceAllocFail    tally.Counter
}

// NewMetrics returns a new instance of inventory.Metrics.
func NewMetrics(scope tally.Scope) *Metrics {
	nodeScope := scope.SubScope("node")
	svcScope := scope.SubScope("service")
	ifsScope := scope.SubScope("interface")

	success := map[string]string{"result": "success"}
	fail := map[string]string{"result": "fail"}

	return &Metrics{
		NodeAllocSuccess: nodeScope.Tagged(success).Counter("allocations"),
		NodeAllocFail:    nodeScope.Tagged(fail).Counter("allocations"),

		ServiceAllocSuccess: svcScope.Tagged(success).Counter("allocations"),
		ServiceAllocFail:    svcScope.Tagged(fail).Counter("allocations"),

		InterfaceAllocSuccess: ifsScope.Tagged(success).Counter("allocations"),
		InterfaceAllocFail:    ifsScope.Tagged(fail).Counter("allocations"),
	}
}
