// Copyright © 2025 Meroxa, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package prometheus

import (
	"time"

	"github.com/conduitio/conduit-flow/pkg/foundation/metrics"
)

type labeledTimer struct {
	h *labeledHistogram
}

func (lt *labeledTimer) WithValues(labels ...string) metrics.Timer {
	return &timer{h: lt.h.WithValues(labels...).(*histogram)}
}

// timer observes durations in seconds on the underlying histogram.
type timer struct {
	h *histogram
}

func (t *timer) Update(d time.Duration) {
	t.h.Observe(d.Seconds())
}

func (t *timer) UpdateSince(start time.Time) {
	t.Update(time.Since(start))
}

func sumFloat64(vs ...float64) float64 {
	var sum float64
	for _, v := range vs {
		sum += v
	}
	return sum
}
