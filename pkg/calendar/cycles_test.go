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

package calendar

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"go.uber.org/yarpc/yarpcerrors"

	"github.com/slicekit/substrate/pkg/reservation"
	"github.com/slicekit/substrate/pkg/reservation/restestutil"
)

type CycleListTestSuite struct {
	suite.Suite

	list *CycleList
}

func TestCycleList(t *testing.T) {
	suite.Run(t, new(CycleListTestSuite))
}

func (suite *CycleListTestSuite) SetupTest() {
	suite.list = NewCycleList()
}

func (suite *CycleListTestSuite) TestGetAndGetThrough() {
	r1 := restestutil.NewFakeRef(reservation.StateTicketed).WithID("r1")
	r2 := restestutil.NewFakeRef(reservation.StateTicketed).WithID("r2")
	r3 := restestutil.NewFakeRef(reservation.StateTicketed).WithID("r3")

	suite.NoError(suite.list.Add(r1, 5))
	suite.NoError(suite.list.Add(r2, 5))
	suite.NoError(suite.list.Add(r3, 8))

	suite.Len(suite.list.Get(5), 2)
	suite.Len(suite.list.Get(8), 1)
	suite.Empty(suite.list.Get(6))

	suite.Empty(suite.list.GetThrough(4))
	suite.Len(suite.list.GetThrough(5), 2)
	suite.Len(suite.list.GetThrough(8), 3)
	suite.Equal(int64(3), suite.list.Size())
}

func (suite *CycleListTestSuite) TestDoubleAssociationFails() {
	r := restestutil.NewFakeRef(reservation.StateTicketed).WithID("r1")

	suite.NoError(suite.list.Add(r, 5))
	// same cycle is a no-op
	suite.NoError(suite.list.Add(r, 5))
	suite.Equal(int64(1), suite.list.Size())

	err := suite.list.Add(r, 6)
	suite.Error(err)
	suite.True(yarpcerrors.IsInternal(err))

	// removing first makes the new association legal
	suite.list.Remove(r)
	suite.NoError(suite.list.Add(r, 6))
	suite.Len(suite.list.Get(6), 1)
}

func (suite *CycleListTestSuite) TestAddRejectsBadInput() {
	r := restestutil.NewFakeRef(reservation.StateTicketed)

	err := suite.list.Add(nil, 5)
	suite.True(yarpcerrors.IsInvalidArgument(err))

	err = suite.list.Add(r, -1)
	suite.True(yarpcerrors.IsInvalidArgument(err))
}

func (suite *CycleListTestSuite) TestRemoveIsIdempotent() {
	r := restestutil.NewFakeRef(reservation.StateTicketed).WithID("r1")
	suite.NoError(suite.list.Add(r, 5))

	suite.list.Remove(r)
	suite.Equal(int64(0), suite.list.Size())
	suite.Empty(suite.list.Get(5))

	suite.list.Remove(r)
	suite.list.Remove(nil)
	suite.Equal(int64(0), suite.list.Size())
}

func (suite *CycleListTestSuite) TestTickReclaimsThroughCycle() {
	rs := make([]*restestutil.FakeRef, 6)
	for i := range rs {
		rs[i] = restestutil.NewFakeRef(reservation.StateTicketed)
		suite.NoError(suite.list.Add(rs[i], int64(i)))
	}

	suite.Equal(3, suite.list.Tick(2))
	suite.Equal(int64(3), suite.list.Size())
	suite.Empty(suite.list.Get(0))
	suite.Empty(suite.list.Get(2))
	suite.Len(suite.list.Get(3), 1)

	// reclaimed reservations may be re-added at a later cycle
	suite.NoError(suite.list.Add(rs[0], 9))
	suite.Len(suite.list.Get(9), 1)

	suite.Equal(4, suite.list.Tick(10))
	suite.Equal(int64(0), suite.list.Size())
}
