// Copyright 2024-2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sqlitecache

import (
	"context"
	"math/rand/v2"
	"time"
)

// PurgeLoop calls Purge every period until ctx is done. Each wait is varied
// by up to jitter (a fraction of period, between 0 and 1) so that processes
// sharing a database file do not purge in lockstep. Purge failures are
// passed to onError, if non-nil, and do not stop the loop.
func (c *Cache) PurgeLoop(ctx context.Context, period time.Duration, jitter float64, onError func(error)) {
	timer := time.NewTimer(addJitter(period, jitter))
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		if _, err := c.Purge(ctx); err != nil && onError != nil && ctx.Err() == nil {
			onError(err)
		}
		timer.Reset(addJitter(period, jitter))
	}
}

func addJitter(period time.Duration, jitter float64) time.Duration {
	factor := (rand.Float64()*2 - 1) * jitter //nolint:gosec // produces a number between -jitter and jitter
	period = time.Duration(float64(period) * (factor + 1))
	if period <= 0 {
		period = 1 // timer.Reset with zero fires immediately and spins
	}
	return period
}
