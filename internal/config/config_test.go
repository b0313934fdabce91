// Copyright 2026 Blink Labs Software
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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/blinklabs-io/flightsurety/ledger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	tmpFile := filepath.Join(t.TempDir(), "flightsurety.yaml")
	require.NoError(t, os.WriteFile(tmpFile, []byte(content), 0o600))
	return tmpFile
}

func TestLoad_WithoutConfigFile_UsesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, defaultConfig(), cfg)
	assert.Same(t, cfg, GetConfig())
}

func TestLoad_CompareFullStruct(t *testing.T) {
	owner := ledger.NewAddress("custom-owner")
	airline := ledger.NewAddress("custom-airline")
	yamlContent := `
databasePath: "/var/lib/flightsurety"
bindAddr: "127.0.0.1"
owner: "` + strings.ToUpper(string(owner[2:])) + `"
firstAirline: "` + string(airline) + `"
firstAirlineName: "Custom Air"
firstAirlineFunding: 0
oracleEnabled: false
oracleStatus: "random"
oracleNodeSeed: "node"
oracleSeed: 42
oracleLateAirlineBias: 0.25
oracleNodes: 30
oracleWorkers: 4
apiPort: 9000
metricsPort: 9100
blockCacheSize: 1048576
tracing: true
tracingStdout: true
shutdownTimeout: "10s"
`
	// Owner without the 0x prefix is rejected
	_, err := LoadConfig(writeConfigFile(t, yamlContent))
	require.ErrorIs(t, err, ledger.ErrInvalidAddress)

	yamlContent = strings.Replace(
		yamlContent,
		`owner: "`,
		`owner: "0x`,
		1,
	)
	cfg, err := LoadConfig(writeConfigFile(t, yamlContent))
	require.NoError(t, err)
	expected := &Config{
		DatabasePath:          "/var/lib/flightsurety",
		BindAddr:              "127.0.0.1",
		Owner:                 string(owner),
		FirstAirline:          string(airline),
		FirstAirlineName:      "Custom Air",
		FirstAirlineFunding:   0,
		OracleEnabled:         false,
		OracleStatus:          OracleStatusRandom,
		OracleNodeSeed:        "node",
		OracleSeed:            42,
		OracleLateAirlineBias: 0.25,
		OracleNodes:           30,
		OracleWorkers:         4,
		ApiPort:               9000,
		MetricsPort:           9100,
		BlockCacheSize:        1048576,
		Tracing:               true,
		TracingStdout:         true,
		ShutdownTimeout:       "10s",
	}
	assert.Equal(t, expected, cfg)
	assert.Equal(t, owner, cfg.Genesis().Owner)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	tmpFile := writeConfigFile(t, "apiPort: 9000\noracleNodes: 5\n")
	t.Setenv("FLIGHTSURETY_API_PORT", "9500")
	t.Setenv("FLIGHTSURETY_ORACLE_STATUS", "on_time")
	cfg, err := LoadConfig(tmpFile)
	require.NoError(t, err)
	assert.Equal(t, uint(9500), cfg.ApiPort)
	assert.Equal(t, 5, cfg.OracleNodes)
	assert.Equal(t, "on_time", cfg.OracleStatus)
}

func TestLoad_Invalid(t *testing.T) {
	testDefs := []string{
		"oracleStatus: sometimes\n",
		"oracleLateAirlineBias: 2\n",
		"oracleNodes: -1\n",
		"shutdownTimeout: soon\n",
		"firstAirlineFunding: 5\n",
		"apiPort: [\n",
	}
	for _, content := range testDefs {
		_, err := LoadConfig(writeConfigFile(t, content))
		require.Error(t, err, content)
	}
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
	cfg := defaultConfig()
	ctx := WithContext(context.Background(), cfg)
	assert.Same(t, cfg, FromContext(ctx))
}
