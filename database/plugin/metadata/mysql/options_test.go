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

package mysql

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildConfigFromOptions(t *testing.T) {
	m, err := NewWithOptions(
		WithHost("db.local"),
		WithPort(3307),
		WithUser("ferry"),
		WithPassword("secret"),
		WithDatabase("bridge"),
		WithTLSMode("skip-verify"),
		WithTimeZone("UTC"),
	)
	require.NoError(t, err)
	cfg, err := m.buildConfig()
	require.NoError(t, err)
	assert.Equal(t, "db.local:3307", cfg.Addr)
	assert.Equal(t, "ferry", cfg.User)
	assert.Equal(t, "secret", cfg.Passwd)
	assert.Equal(t, "bridge", cfg.DBName)
	assert.Equal(t, "skip-verify", cfg.TLSConfig)
	assert.True(t, cfg.ParseTime)
	assert.Equal(t, time.UTC, cfg.Loc)
}

func TestBuildConfigFromDSN(t *testing.T) {
	m, err := NewWithOptions(
		WithHost("ignored"),
		WithDSN("u:p@tcp(db:3306)/ferry?parseTime=true"),
	)
	require.NoError(t, err)
	cfg, err := m.buildConfig()
	require.NoError(t, err)
	assert.Equal(t, "db:3306", cfg.Addr)
	assert.Equal(t, "ferry", cfg.DBName)
	assert.True(t, cfg.ParseTime)
}

func TestMaxOpenConns(t *testing.T) {
	m, err := NewWithOptions(WithMaxOpenConns(4))
	require.NoError(t, err)
	assert.Equal(t, 4, m.maxOpenConns)
	// Non-positive values fall back to the default
	m, err = NewWithOptions(WithMaxOpenConns(-1))
	require.NoError(t, err)
	assert.Equal(t, defaultMaxOpenConns, m.maxOpenConns)
}

func TestBuildConfigBadTimeZone(t *testing.T) {
	m, err := NewWithOptions(WithTimeZone("Not/AZone"))
	require.NoError(t, err)
	_, err = m.buildConfig()
	assert.Error(t, err)
}

func TestDefaultsBeforeStart(t *testing.T) {
	m, err := NewWithOptions()
	require.NoError(t, err)
	assert.Equal(t, "ferry", m.database)
	assert.Equal(t, uint(3306), m.port)
	assert.Equal(t, defaultMaxOpenConns, m.maxOpenConns)
	assert.Nil(t, m.DB())
	assert.NoError(t, m.RunMaintenance())
	assert.NoError(t, m.Stop())
}
