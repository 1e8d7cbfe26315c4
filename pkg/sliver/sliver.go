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

// Kind discriminates the closed set of sliver variants.
type Kind int

const (
	// KindUnknown is the zero value; no valid sliver carries it.
	KindUnknown Kind = iota
	// KindNode is a compute node sliver.
	KindNode
	// KindNetworkService is a network service sliver.
	KindNetworkService
)

// String returns a printable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindNode:
		return "node"
	case KindNetworkService:
		return "network-service"
	default:
		return "unknown"
	}
}

// Sliver is the closed union of resource descriptors. The only
// implementations are *NodeSliver and *NetworkServiceSliver; code switching
// on the concrete type handles exactly those two.
type Sliver interface {
	// Kind returns the variant tag.
	Kind() Kind
	// SliverID returns the substrate or request identifier.
	SliverID() string
}

// NodeMap records which physical element a sliver was bound to: the
// delegation graph it came from and the substrate element inside it.
type NodeMap struct {
	GraphID   string
	ElementID string
}

// Copy returns a copy of the node map, nil in nil out.
func (m *NodeMap) Copy() *NodeMap {
	if m == nil {
		return nil
	}
	out := *m
	return &out
}
