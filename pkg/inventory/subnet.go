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
	"encoding/binary"
	"math"
	"net/netip"
)

// offsetAddr returns a plus the 128-bit offset (hi, lo). ok is false on
// address-family overflow.
func offsetAddr(a netip.Addr, hi, lo uint64) (netip.Addr, bool) {
	if a.Is4() {
		if hi != 0 || lo > math.MaxUint32 {
			return netip.Addr{}, false
		}
		b := a.As4()
		v := uint64(binary.BigEndian.Uint32(b[:])) + lo
		if v > math.MaxUint32 {
			return netip.Addr{}, false
		}
		binary.BigEndian.PutUint32(b[:], uint32(v))
		return netip.AddrFrom4(b), true
	}
	b := a.As16()
	aHi := binary.BigEndian.Uint64(b[:8])
	aLo := binary.BigEndian.Uint64(b[8:])
	sumLo := aLo + lo
	sumHi := aHi + hi
	if sumLo < aLo {
		sumHi++
	}
	if sumHi < aHi {
		return netip.Addr{}, false
	}
	binary.BigEndian.PutUint64(b[:8], sumHi)
	binary.BigEndian.PutUint64(b[8:], sumLo)
	return netip.AddrFrom16(b), true
}

// blockCount returns the number of sub-blocks of size targetLen inside
// parent, capped at MaxInt64.
func blockCount(parent netip.Prefix, targetLen int) uint64 {
	diff := targetLen - parent.Bits()
	if diff < 0 {
		return 0
	}
	if diff >= 63 {
		return math.MaxInt64
	}
	return 1 << uint(diff)
}

// blockAt returns the idx-th sub-block of size targetLen inside parent.
func blockAt(parent netip.Prefix, targetLen int, idx uint64) (netip.Prefix, bool) {
	if targetLen < parent.Bits() || idx >= blockCount(parent, targetLen) {
		return netip.Prefix{}, false
	}
	bits := parent.Addr().BitLen()
	shift := uint(bits - targetLen)
	var hi, lo uint64
	if shift >= 64 {
		hi = idx << (shift - 64)
	} else {
		lo = idx << shift
		if shift > 0 {
			hi = idx >> (64 - shift)
		}
	}
	base, ok := offsetAddr(parent.Masked().Addr(), hi, lo)
	if !ok {
		return netip.Prefix{}, false
	}
	return netip.PrefixFrom(base, targetLen), true
}

// hostAt returns the n-th address of the block (n=0 is the network
// address, n=1 the first usable host). ok is false when n falls outside
// the block.
func hostAt(block netip.Prefix, n uint64) (netip.Addr, bool) {
	addr, ok := offsetAddr(block.Masked().Addr(), 0, n)
	if !ok || !block.Contains(addr) {
		return netip.Addr{}, false
	}
	return addr, true
}
