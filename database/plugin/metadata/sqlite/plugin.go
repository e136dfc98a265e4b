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

package sqlite

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/ferry/database/plugin"
)

var (
	cmdlineOptions struct {
		dataDir     string
		busyTimeout string
	}
	cmdlineOptionsMutex sync.RWMutex
)

// initCmdlineOptions sets default values for cmdlineOptions
func initCmdlineOptions() {
	cmdlineOptionsMutex.Lock()
	defer cmdlineOptionsMutex.Unlock()
	cmdlineOptions.dataDir = ""
	cmdlineOptions.busyTimeout = DefaultBusyTimeout.String()
}

// Register plugin
func init() {
	initCmdlineOptions()
	plugin.Register(
		plugin.PluginEntry{
			Type:               plugin.PluginTypeMetadata,
			Name:               "sqlite",
			Description:        "SQLite relational database",
			NewFromOptionsFunc: NewFromCmdlineOptions,
			Options: []plugin.PluginOption{
				{
					Name:         "data-dir",
					Type:         plugin.PluginOptionTypeString,
					Description:  "Data directory for sqlite storage (in-memory when empty)",
					DefaultValue: "",
					Dest:         &(cmdlineOptions.dataDir),
				},
				{
					Name:         "busy-timeout",
					Type:         plugin.PluginOptionTypeString,
					Description:  "Wait on a locked database file, as a duration",
					DefaultValue: DefaultBusyTimeout.String(),
					Dest:         &(cmdlineOptions.busyTimeout),
				},
			},
		},
	)
}

func NewFromCmdlineOptions() plugin.Plugin {
	cmdlineOptionsMutex.RLock()
	dataDir := cmdlineOptions.dataDir
	busyTimeout := cmdlineOptions.busyTimeout
	cmdlineOptionsMutex.RUnlock()

	timeout, err := time.ParseDuration(busyTimeout)
	if err != nil {
		return plugin.NewErrorPlugin(
			fmt.Errorf("invalid busy-timeout %q: %w", busyTimeout, err),
		)
	}
	p, err := NewWithOptions(
		WithDataDir(dataDir),
		WithBusyTimeout(timeout),
		WithLogger(slog.Default()),
	)
	if err != nil {
		// Return a plugin that defers the error to Start()
		return plugin.NewErrorPlugin(err)
	}
	return p
}
