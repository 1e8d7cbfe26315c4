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
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/uber-go/tally"

	"github.com/slicekit/substrate/pkg/common/clock"
	"github.com/slicekit/substrate/pkg/reservation"
	"github.com/slicekit/substrate/pkg/reservation/restestutil"
)

type CalendarTestSuite struct {
	suite.Suite

	clock *clock.Clock
}

func TestCalendars(t *testing.T) {
	suite.Run(t, new(CalendarTestSuite))
}

func (suite *CalendarTestSuite) SetupTest() {
	// cycle length of one second starting at the unix epoch
	clk, err := clock.New(0, 1000)
	suite.NoError(err)
	suite.clock = clk
}

func (suite *CalendarTestSuite) TestClientDemandAndPending() {
	cal := NewClientCalendar(suite.clock, nil, tally.NoopScope)
	r := restestutil.NewFakeRef(reservation.StateTicketing).WithID("r1")

	cal.AddDemand(r)
	cal.AddPending(r)
	suite.Len(cal.Demand(), 1)
	suite.Len(cal.Pending(), 1)

	// reads are copies; mutating one must not affect the calendar
	demand := cal.Demand()
	delete(demand, "r1")
	suite.Len(cal.Demand(), 1)

	cal.RemoveDemand(r)
	cal.RemovePending(r)
	suite.Empty(cal.Demand())
	suite.Empty(cal.Pending())
}

func (suite *CalendarTestSuite) TestClientTickAdvancesRenewingAndHoldings() {
	cal := NewClientCalendar(suite.clock, nil, tally.NoopScope)
	r1 := restestutil.NewFakeRef(reservation.StateActive).WithID("r1")
	r2 := restestutil.NewFakeRef(reservation.StateActive).WithID("r2")

	suite.NoError(cal.AddRenewing(r1, 5))
	suite.NoError(cal.AddRenewing(r2, 10))

	// r1 holds through cycle 5, r2 through cycle 20
	suite.NoError(cal.AddHoldings(r1, time.UnixMilli(0), time.UnixMilli(5999)))
	suite.NoError(cal.AddHoldings(r2, time.UnixMilli(0), time.UnixMilli(20999)))

	suite.Len(cal.Renewing(10), 2)
	suite.Len(cal.Holdings(time.UnixMilli(3000)), 2)

	suite.NoError(cal.Tick(5))
	suite.Empty(cal.Renewing(5))
	suite.Len(cal.Renewing(10), 1)
	suite.Len(cal.AllHoldings(), 1)

	suite.NoError(cal.Tick(20))
	suite.Empty(cal.Renewing(20))
	suite.Empty(cal.AllHoldings())
}

func (suite *CalendarTestSuite) TestClientRemoveClearsEveryList() {
	cal := NewClientCalendar(suite.clock, nil, tally.NoopScope)
	r := restestutil.NewFakeRef(reservation.StateActive).WithID("r1")

	cal.AddDemand(r)
	cal.AddPending(r)
	suite.NoError(cal.AddRenewing(r, 5))
	suite.NoError(cal.AddHoldings(r, time.UnixMilli(0), time.UnixMilli(9999)))

	cal.Remove(r)
	suite.Empty(cal.Demand())
	suite.Empty(cal.Pending())
	suite.Empty(cal.Renewing(5))
	suite.Empty(cal.AllHoldings())

	// idempotent
	cal.Remove(r)
}

func (suite *CalendarTestSuite) TestControllerTickCoversAllLists() {
	cal := NewControllerCalendar(suite.clock, nil, tally.NoopScope)
	r1 := restestutil.NewFakeRef(reservation.StateActive).WithID("r1")
	r2 := restestutil.NewFakeRef(reservation.StateTicketed).WithID("r2")
	r3 := restestutil.NewFakeRef(reservation.StateActive).WithID("r3")

	suite.NoError(cal.AddClosing(r1, 4))
	suite.NoError(cal.AddRedeeming(r2, 6))
	suite.NoError(cal.AddRenewing(r3, 4))

	suite.Len(cal.Closing(10), 1)
	suite.Len(cal.Redeeming(10), 1)

	suite.NoError(cal.Tick(4))
	suite.Empty(cal.Closing(4))
	suite.Empty(cal.Renewing(4))
	suite.Len(cal.Redeeming(10), 1)

	cal.Remove(r2)
	suite.Empty(cal.Redeeming(10))
}

func (suite *CalendarTestSuite) TestSourceCalendar() {
	cal := NewSourceCalendar(suite.clock, nil, tally.NoopScope)
	r1 := restestutil.NewFakeRef(reservation.StateActive).WithID("r1")
	r2 := restestutil.NewFakeRef(reservation.StateActive).WithID("r2")

	suite.NoError(cal.AddOutlay(r1, time.UnixMilli(0), time.UnixMilli(4999)))
	suite.NoError(cal.AddOutlay(r2, time.UnixMilli(0), time.UnixMilli(9999)))
	suite.NoError(cal.AddExtending(r2, 3))

	suite.Len(cal.Outlays(time.UnixMilli(2000)), 2)
	suite.Len(cal.Extending(3), 1)

	// cycle 4 ends at 4999ms, reclaiming r1's outlay and the extension
	suite.NoError(cal.Tick(4))
	suite.Len(cal.AllOutlays(), 1)
	suite.Empty(cal.Extending(3))

	cal.Remove(r2)
	suite.Empty(cal.AllOutlays())
}

func (suite *CalendarTestSuite) TestTickRejectsNegativeCycle() {
	cal := NewClientCalendar(suite.clock, nil, tally.NoopScope)
	suite.Error(cal.Tick(-1))

	src := NewSourceCalendar(suite.clock, nil, tally.NoopScope)
	suite.Error(src.Tick(-1))
}
