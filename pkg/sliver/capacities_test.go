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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCapacitiesAddSubtract(t *testing.T) {
	pool := Capacities{CPU: 4, RAM: 64, Disk: 500}
	alloc := Capacities{CPU: 1, RAM: 16, Disk: 100}

	left := pool.Subtract(alloc)
	assert.Equal(t, Capacities{CPU: 3, RAM: 48, Disk: 400}, left)
	assert.Equal(t, pool, left.Add(alloc))
	// the original pool value is untouched
	assert.Equal(t, Capacities{CPU: 4, RAM: 64, Disk: 500}, pool)
}

func TestCapacitiesNegativeFields(t *testing.T) {
	pool := Capacities{CPU: 2, RAM: 8}
	left := pool.Subtract(Capacities{CPU: 3, RAM: 8, Disk: 10})
	assert.Equal(t, []string{"cpu", "disk"}, left.NegativeFields())

	assert.Empty(t, pool.Subtract(Capacities{CPU: 2, RAM: 8}).NegativeFields())
}

func TestCapacitiesTrySubtract(t *testing.T) {
	pool := Capacities{CPU: 2, Unit: 1}

	left, ok := pool.TrySubtract(Capacities{CPU: 1})
	assert.True(t, ok)
	assert.Equal(t, Capacities{CPU: 1, Unit: 1}, left)

	_, ok = pool.TrySubtract(Capacities{Unit: 2})
	assert.False(t, ok)
}

func TestCapacitiesContains(t *testing.T) {
	pool := Capacities{CPU: 4, RAM: 64}
	assert.True(t, pool.Contains(Capacities{CPU: 4}))
	assert.True(t, pool.Contains(Capacities{}))
	assert.False(t, pool.Contains(Capacities{CPU: 5}))
	assert.False(t, pool.Contains(Capacities{Bandwidth: 1}))
}

func TestCapacitiesEmpty(t *testing.T) {
	assert.True(t, Capacities{}.Empty())
	assert.False(t, Capacities{Unit: 1}.Empty())
	assert.Equal(t, []string{"unit"}, Capacities{Unit: 1}.NonEmptyFields())
}
