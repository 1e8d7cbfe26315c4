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

import "github.com/uber-go/tally"

// Metrics is a placeholder for all metrics in calendar.
type Metrics struct {
	DemandLen    tally.Gauge
	PendingLen   tally.Gauge
	RenewingLen  tally.Gauge
	HoldingsLen  tally.Gauge
	ClosingLen   tally.Gauge
	RedeemingLen tally.Gauge
	OutlaysLen   tally.Gauge
	ExtendingLen tally.Gauge

	TicksTotal         tally.Counter
	ReservationsSwept  tally.Counter
}

// NewMetrics returns a new instance of calendar.Metrics.
func NewMetrics(scope tally.Scope) *Metrics {
	listScope := scope.SubScope("lists")
	tickScope := scope.SubScope("tick")

	return &Metrics{
		DemandLen:    listScope.Gauge("demand_length"),
		PendingLen:   listScope.Gauge("pending_length"),
		RenewingLen:  listScope.Gauge("renewing_length"),
		HoldingsLen:  listScope.Gauge("holdings_length"),
		ClosingLen:   listScope.Gauge("closing_length"),
		RedeemingLen: listScope.Gauge("redeeming_length"),
		OutlaysLen:   listScope.Gauge("outlays_length"),
		ExtendingLen: listScope.Gauge("extending_length"),

		TicksTotal:        tickScope.Counter("ticks_total"),
		ReservationsSwept: tickScope.Counter("reservations_swept"),
	}
}
