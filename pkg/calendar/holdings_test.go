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
	"github.com/slicekit/substrate/pkg/sliver"
)

type HoldingsTestSuite struct {
	suite.Suite

	holdings *Holdings
}

func TestHoldings(t *testing.T) {
	suite.Run(t, new(HoldingsTestSuite))
}

func (suite *HoldingsTestSuite) SetupTest() {
	suite.holdings = NewHoldings()
}

func (suite *HoldingsTestSuite) TestQueryReturnsContainingIntervals() {
	r1 := restestutil.NewFakeRef(reservation.StateActive).WithID("r1")
	r2 := restestutil.NewFakeRef(reservation.StateActive).WithID("r2")
	r3 := restestutil.NewFakeRef(reservation.StateActive).WithID("r3")

	suite.NoError(suite.holdings.Add(r1, 0, 100))
	suite.NoError(suite.holdings.Add(r2, 50, 150))
	suite.NoError(suite.holdings.Add(r3, 120, 200))

	suite.Len(suite.holdings.Query(75), 2)
	suite.Contains(suite.holdings.Query(75), "r1")
	suite.Contains(suite.holdings.Query(75), "r2")

	suite.Len(suite.holdings.Query(130), 2)
	suite.Contains(suite.holdings.Query(130), "r2")
	suite.Contains(suite.holdings.Query(130), "r3")

	// closed on both ends
	suite.Contains(suite.holdings.Query(100), "r1")
	suite.Contains(suite.holdings.Query(120), "r3")
	suite.NotContains(suite.holdings.Query(101), "r1")

	suite.Empty(suite.holdings.Query(201))
	suite.Equal(3, suite.holdings.Size())
	suite.Len(suite.holdings.All(), 3)
}

func (suite *HoldingsTestSuite) TestKindFilter() {
	node := &sliver.NodeSliver{NodeID: "n1", Type: sliver.NodeTypeVM}
	svc := &sliver.NetworkServiceSliver{ServiceID: "s1", Type: sliver.ServiceTypeL2Bridge}

	r1 := restestutil.NewFakeRef(reservation.StateActive).WithID("r1").WithAllocated(node)
	r2 := restestutil.NewFakeRef(reservation.StateActive).WithID("r2").WithAllocated(svc)

	suite.NoError(suite.holdings.Add(r1, 0, 100))
	suite.NoError(suite.holdings.Add(r2, 0, 100))

	nodes := suite.holdings.Query(50, sliver.KindNode)
	suite.Len(nodes, 1)
	suite.Contains(nodes, "r1")

	services := suite.holdings.Query(50, sliver.KindNetworkService)
	suite.Len(services, 1)
	suite.Contains(services, "r2")

	suite.Len(suite.holdings.Query(50), 2)
}

func (suite *HoldingsTestSuite) TestReAddIsContiguousExtension() {
	r := restestutil.NewFakeRef(reservation.StateActive).WithID("r1")

	suite.NoError(suite.holdings.Add(r, 0, 100))
	// new interval begins exactly one unit after the old one ended
	suite.NoError(suite.holdings.Add(r, 101, 200))
	suite.Equal(1, suite.holdings.Size())
	suite.Contains(suite.holdings.Query(150), "r1")
	suite.NotContains(suite.holdings.Query(50), "r1")

	// a gap larger than one unit is a programming error
	err := suite.holdings.Add(r, 300, 400)
	suite.Error(err)
	suite.True(yarpcerrors.IsInternal(err))
}

func (suite *HoldingsTestSuite) TestAddRejectsBadInput() {
	r := restestutil.NewFakeRef(reservation.StateActive).WithID("r1")

	err := suite.holdings.Add(nil, 0, 10)
	suite.True(yarpcerrors.IsInvalidArgument(err))

	err = suite.holdings.Add(r, 10, 5)
	suite.True(yarpcerrors.IsInvalidArgument(err))
}

func (suite *HoldingsTestSuite) TestRemoveIsIdempotent() {
	r := restestutil.NewFakeRef(reservation.StateActive).WithID("r1")
	suite.NoError(suite.holdings.Add(r, 0, 100))

	suite.holdings.Remove(r)
	suite.Equal(0, suite.holdings.Size())
	suite.holdings.Remove(r)
	suite.holdings.Remove(nil)
	suite.Equal(0, suite.holdings.Size())
}

func (suite *HoldingsTestSuite) TestTickReclaimsExpired() {
	r1 := restestutil.NewFakeRef(reservation.StateActive).WithID("r1")
	r2 := restestutil.NewFakeRef(reservation.StateActive).WithID("r2")
	r3 := restestutil.NewFakeRef(reservation.StateActive).WithID("r3")

	suite.NoError(suite.holdings.Add(r1, 0, 10))
	suite.NoError(suite.holdings.Add(r2, 0, 20))
	suite.NoError(suite.holdings.Add(r3, 0, 30))

	suite.Equal(2, suite.holdings.Tick(20))
	suite.Equal(1, suite.holdings.Size())
	suite.Contains(suite.holdings.All(), "r3")

	suite.Equal(0, suite.holdings.Tick(20))
	suite.Equal(1, suite.holdings.Tick(100))
	suite.Equal(0, suite.holdings.Size())
}

func (suite *HoldingsTestSuite) TestExtensionChainThenTick() {
	// extension chain: second interval starts at the first one's end
	r1 := restestutil.NewFakeRef(reservation.StateActive).WithID("r1")
	r2 := restestutil.NewFakeRef(reservation.StateActive).WithID("r2")

	suite.NoError(suite.holdings.Add(r1, 1000, 1005))
	suite.NoError(suite.holdings.Add(r2, 995, 1000))

	suite.Equal(1, suite.holdings.Tick(1000))
	suite.Equal(1, suite.holdings.Size())
	suite.Contains(suite.holdings.All(), "r1")
}

func (suite *HoldingsTestSuite) TestSizeMatchesQueryEverything() {
	for i := 0; i < 10; i++ {
		r := restestutil.NewFakeRef(reservation.StateActive)
		suite.NoError(suite.holdings.Add(r, int64(i), int64(i+100)))
	}
	suite.Equal(10, suite.holdings.Size())
	suite.Len(suite.holdings.All(), 10)
}
