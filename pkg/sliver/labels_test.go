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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVLANRanges(t *testing.T) {
	r := VLANRange{Lo: 100, Hi: 200}
	assert.True(t, r.Contains(100))
	assert.True(t, r.Contains(200))
	assert.False(t, r.Contains(99))
	assert.Equal(t, "100-200", r.String())

	ranges := []VLANRange{{Lo: 100, Hi: 200}, {Lo: 300, Hi: 300}}
	assert.True(t, RangesContain(ranges, 300))
	assert.False(t, RangesContain(ranges, 250))
	assert.False(t, RangesContain(nil, 100))
}

func TestLabelsCopyIsDeep(t *testing.T) {
	l := Labels{
		BDF:        []string{"0000:41:00.2"},
		MAC:        []string{"0C:42:A1:00:00:02"},
		VLANRanges: []VLANRange{{Lo: 1, Hi: 4095}},
		IPv4:       netip.MustParseAddr("10.0.0.1"),
	}
	c := l.Copy()
	c.BDF[0] = "changed"
	c.VLANRanges[0].Hi = 1

	assert.Equal(t, "0000:41:00.2", l.FirstBDF())
	assert.Equal(t, "0C:42:A1:00:00:02", l.FirstMAC())
	assert.Equal(t, 4095, l.VLANRanges[0].Hi)
}

func TestLabelsWithBDF(t *testing.T) {
	l := Labels{BDF: []string{"a", "b"}, NUMA: "0"}
	single := l.WithBDF("b")
	assert.Equal(t, []string{"b"}, single.BDF)
	assert.Equal(t, "0", single.NUMA)
	assert.Len(t, l.BDF, 2)
}

func TestDelegationOrdering(t *testing.T) {
	d := CapacityDelegations{
		"D2": {CPU: 2},
		"D1": {CPU: 1},
		"D3": {CPU: 3},
	}
	assert.Equal(t, []string{"D1", "D2", "D3"}, d.IDs())

	id, pool, ok := d.First()
	assert.True(t, ok)
	assert.Equal(t, "D1", id)
	assert.Equal(t, int64(1), pool.CPU)

	_, _, ok = CapacityDelegations{}.First()
	assert.False(t, ok)

	ld := LabelDelegations{"L1": {VLAN: 10}}
	id, labels, ok := ld.First()
	assert.True(t, ok)
	assert.Equal(t, "L1", id)
	assert.Equal(t, 10, labels.VLAN)
}
