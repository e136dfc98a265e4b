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

package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/blinklabs-io/ferry/database/plugin"
)

type ctxKey string

const configContextKey ctxKey = "ferry.config"

const (
	DefaultShutdownTimeout     = "30s"
	DefaultMaintenanceInterval = "1h"
	DefaultBlobPlugin          = "badger"
	DefaultMetadataPlugin      = "sqlite"
)

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

// ErrPluginListRequested is returned when the user requests to list available plugins
// This is not an error condition but a successful operation that displays plugin information
var ErrPluginListRequested = errors.New("plugin list requested")

type tempConfig struct {
	Config   yaml.Node                 `yaml:"config,omitempty"`
	Database *databaseConfig           `yaml:"database,omitempty"`
	Blob     map[string]map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]map[string]any `yaml:"metadata,omitempty"`
}

type databaseConfig struct {
	Blob     map[string]any `yaml:"blob,omitempty"`
	Metadata map[string]any `yaml:"metadata,omitempty"`
}

type Config struct {
	DatabasePath        string `yaml:"databasePath"        split_words:"true"`
	BlobPlugin          string `yaml:"blobPlugin"          envconfig:"FERRY_DATABASE_BLOB_PLUGIN"`
	MetadataPlugin      string `yaml:"metadataPlugin"      envconfig:"FERRY_DATABASE_METADATA_PLUGIN"`
	BindAddr            string `yaml:"bindAddr"            split_words:"true"`
	GatewayToken        string `yaml:"gatewayToken"        split_words:"true"`
	ProgramId           string `yaml:"programId"           split_words:"true"`
	ShutdownTimeout     string `yaml:"shutdownTimeout"     split_words:"true"`
	MaintenanceInterval string `yaml:"maintenanceInterval" split_words:"true"`
	// Snapshot publishing target, s3://bucket/prefix or gs://bucket/prefix
	SnapshotTarget          string `yaml:"snapshotTarget"          split_words:"true"`
	SnapshotRegion          string `yaml:"snapshotRegion"          split_words:"true"`
	SnapshotEndpoint        string `yaml:"snapshotEndpoint"        split_words:"true"`
	SnapshotCredentialsFile string `yaml:"snapshotCredentialsFile" split_words:"true"`
	SnapshotPublicBaseUrl   string `yaml:"snapshotPublicBaseUrl"   split_words:"true"`
	ApiPort                 uint   `yaml:"apiPort"                 split_words:"true"`
	MetricsPort             uint   `yaml:"metricsPort"             split_words:"true"`
	// Concurrent API requests allowed per client address, 0 for no limit
	ApiMaxRequestsPerIp uint   `yaml:"apiMaxRequestsPerIp" split_words:"true"`
	ApiMaxConnections   uint   `yaml:"apiMaxConnections"   split_words:"true"`
	TlsCertFilePath     string `yaml:"tlsCertFilePath"     envconfig:"TLS_CERT_FILE_PATH"`
	TlsKeyFilePath      string `yaml:"tlsKeyFilePath"      envconfig:"TLS_KEY_FILE_PATH"`
	// Fractional digits of the destination token, used for display
	Decimals                int32  `yaml:"decimals"`
	Tracing                 bool   `yaml:"tracing"`
	TracingStdout           bool   `yaml:"tracingStdout"           split_words:"true"`
}

// ShutdownTimeoutDuration parses ShutdownTimeout, falling back to the default
func (c *Config) ShutdownTimeoutDuration() (time.Duration, error) {
	return parseDuration("shutdownTimeout", c.ShutdownTimeout, DefaultShutdownTimeout)
}

// MaintenanceIntervalDuration parses MaintenanceInterval. A zero duration
// disables scheduled maintenance.
func (c *Config) MaintenanceIntervalDuration() (time.Duration, error) {
	return parseDuration(
		"maintenanceInterval",
		c.MaintenanceInterval,
		DefaultMaintenanceInterval,
	)
}

func parseDuration(name, val, def string) (time.Duration, error) {
	if val == "" {
		val = def
	}
	ret, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", name, val, err)
	}
	if ret < 0 {
		return 0, fmt.Errorf("invalid %s %q: must not be negative", name, val)
	}
	return ret, nil
}

var globalConfig = defaultConfig()

func defaultConfig() *Config {
	return &Config{
		DatabasePath:        ".ferry",
		BlobPlugin:          DefaultBlobPlugin,
		MetadataPlugin:      DefaultMetadataPlugin,
		BindAddr:            "0.0.0.0",
		ApiPort:             8080,
		MetricsPort:         12799,
		Decimals:            6,
		ShutdownTimeout:     DefaultShutdownTimeout,
		MaintenanceInterval: DefaultMaintenanceInterval,
	}
}

// LoadConfig builds the global config from defaults, an optional YAML file,
// an optional .env file and then the environment, in that order of
// precedence from lowest to highest
func LoadConfig(configFile string) (*Config, error) {
	// Load config file as YAML if provided
	if configFile == "" {
		// Check for config file in this path: ~/.ferry/ferry.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(homeDir, ".ferry", "ferry.yaml")
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}

		// Try to check for /etc/ferry/ferry.yaml if still not found
		if configFile == "" {
			systemPath := "/etc/ferry/ferry.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}

	if configFile != "" {
		if err := loadConfigFile(configFile); err != nil {
			return nil, err
		}
	}

	// Values already present in the environment win over the .env file
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	// Process environment variables
	err := envconfig.Process("ferry", globalConfig)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %+w", err)
	}

	// Process plugin environment variables
	err = plugin.ProcessEnvVars()
	if err != nil {
		return nil, fmt.Errorf(
			"error processing plugin environment variables: %w",
			err,
		)
	}

	if _, err := globalConfig.ShutdownTimeoutDuration(); err != nil {
		return nil, err
	}
	if _, err := globalConfig.MaintenanceIntervalDuration(); err != nil {
		return nil, err
	}
	return globalConfig, nil
}

func loadConfigFile(configFile string) error {
	buf, err := os.ReadFile(configFile)
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}

	// First unmarshal into temp config to handle plugin sections
	var tempCfg tempConfig
	err = yaml.Unmarshal(buf, &tempCfg)
	if err != nil {
		return fmt.Errorf("error parsing config file: %w", err)
	}

	// If config section exists, use it for main config. Decoding the node
	// directly overlays only the keys present onto the existing defaults.
	if !tempCfg.Config.IsZero() {
		err = tempCfg.Config.Decode(globalConfig)
		if err != nil {
			return fmt.Errorf("error parsing config section: %w", err)
		}
	} else {
		// Otherwise unmarshal the whole file as main config
		err = yaml.Unmarshal(buf, globalConfig)
		if err != nil {
			return fmt.Errorf("error parsing config file: %w", err)
		}
	}

	// Process plugin configurations
	pluginConfig := make(map[string]map[string]map[string]any)
	if tempCfg.Blob != nil {
		pluginConfig["blob"] = tempCfg.Blob
	}
	if tempCfg.Metadata != nil {
		pluginConfig["metadata"] = tempCfg.Metadata
	}
	// Handle database section if present
	if tempCfg.Database != nil {
		if tempCfg.Database.Blob != nil {
			name, section := pluginSection("blob", tempCfg.Database.Blob)
			if name != "" {
				globalConfig.BlobPlugin = name
			}
			mergePluginSection(pluginConfig, "blob", section)
		}
		if tempCfg.Database.Metadata != nil {
			name, section := pluginSection("metadata", tempCfg.Database.Metadata)
			if name != "" {
				globalConfig.MetadataPlugin = name
			}
			mergePluginSection(pluginConfig, "metadata", section)
		}
	}
	if len(pluginConfig) > 0 {
		err = plugin.ProcessConfig(pluginConfig)
		if err != nil {
			return fmt.Errorf(
				"error processing plugin config: %w",
				err,
			)
		}
	}
	return nil
}

// pluginSection splits a database.<type> section into the selected plugin
// name and the per-plugin option maps
func pluginSection(
	kind string,
	section map[string]any,
) (string, map[string]map[string]any) {
	var name string
	if pluginVal, exists := section["plugin"]; exists {
		if pluginName, ok := pluginVal.(string); ok {
			name = pluginName
		}
	}
	ret := make(map[string]map[string]any)
	for k, v := range section {
		if k == "plugin" {
			continue
		}
		switch val := v.(type) {
		case map[string]any:
			ret[k] = val
		case map[any]any:
			// Convert map[any]any to map[string]any
			stringAnyMap := make(map[string]any)
			for vk, vv := range val {
				if keyStr, ok := vk.(string); ok {
					stringAnyMap[keyStr] = vv
				}
			}
			ret[k] = stringAnyMap
		default:
			fmt.Fprintf(
				os.Stderr,
				"warning: skipping %s config entry %q: expected map, got %T\n",
				kind,
				k,
				v,
			)
		}
	}
	return name, ret
}

func mergePluginSection(
	pluginConfig map[string]map[string]map[string]any,
	kind string,
	section map[string]map[string]any,
) {
	// Merge with existing config instead of overwriting
	if pluginConfig[kind] == nil {
		pluginConfig[kind] = section
		return
	}
	maps.Copy(pluginConfig[kind], section)
}

func GetConfig() *Config {
	return globalConfig
}
