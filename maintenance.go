// Copyright 2025 Blink Labs Software
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

package ferry

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
)

const maintenanceJobName = "database-maintenance"

// startMaintenance schedules periodic compaction of both stores. Runs never
// overlap: a run that is still going when the next is due pushes it back.
func (f *Ferry) startMaintenance() error {
	if f.config.maintenanceInterval <= 0 {
		return nil
	}
	s, err := gocron.NewScheduler(
		gocron.WithLogger(f.config.logger.With("component", "scheduler")),
	)
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(f.config.maintenanceInterval),
		gocron.NewTask(f.runMaintenance),
		gocron.WithName(maintenanceJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return fmt.Errorf("failed to schedule maintenance: %w", err)
	}
	s.Start()
	f.scheduler = s
	f.config.logger.Debug(
		"scheduled database maintenance",
		"component", "ferry",
		"interval", f.config.maintenanceInterval.String(),
	)
	return nil
}

func (f *Ferry) runMaintenance() {
	start := time.Now()
	if err := f.db.RunMaintenance(); err != nil {
		f.config.logger.Error(
			"database maintenance failed",
			"component", "ferry",
			"error", err,
		)
		return
	}
	f.config.logger.Debug(
		"database maintenance complete",
		"component", "ferry",
		"duration", time.Since(start).String(),
	)
}
