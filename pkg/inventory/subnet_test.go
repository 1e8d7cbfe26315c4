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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlockCount(t *testing.T) {
	assert.Equal(t, uint64(256), blockCount(netip.MustParsePrefix("10.128.0.0/16"), 24))
	assert.Equal(t, uint64(1), blockCount(netip.MustParsePrefix("10.128.0.0/24"), 24))
	assert.Equal(t, uint64(0), blockCount(netip.MustParsePrefix("10.128.0.0/25"), 24))
	assert.Equal(t, uint64(65536), blockCount(netip.MustParsePrefix("2602:fcfb:10::/48"), 64))
}

func TestBlockAt(t *testing.T) {
	b, ok := blockAt(netip.MustParsePrefix("10.128.0.0/16"), 24, 0)
	assert.True(t, ok)
	assert.Equal(t, netip.MustParsePrefix("10.128.0.0/24"), b)

	b, ok = blockAt(netip.MustParsePrefix("10.128.0.0/16"), 24, 255)
	assert.True(t, ok)
	assert.Equal(t, netip.MustParsePrefix("10.128.255.0/24"), b)

	_, ok = blockAt(netip.MustParsePrefix("10.128.0.0/16"), 24, 256)
	assert.False(t, ok)

	b, ok = blockAt(netip.MustParsePrefix("2602:fcfb:10::/48"), 64, 17)
	assert.True(t, ok)
	assert.Equal(t, netip.MustParsePrefix("2602:fcfb:10:11::/64"), b)
}

func TestHostAt(t *testing.T) {
	block := netip.MustParsePrefix("10.128.3.0/24")

	a, ok := hostAt(block, 0)
	assert.True(t, ok)
	assert.Equal(t, netip.MustParseAddr("10.128.3.0"), a)

	a, ok = hostAt(block, 255)
	assert.True(t, ok)
	assert.Equal(t, netip.MustParseAddr("10.128.3.255"), a)

	_, ok = hostAt(block, 256)
	assert.False(t, ok)

	a, ok = hostAt(netip.MustParsePrefix("2602:fcfb:10:1::/64"), 2)
	assert.True(t, ok)
	assert.Equal(t, netip.MustParseAddr("2602:fcfb:10:1::2"), a)
}
