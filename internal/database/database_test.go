package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emergent-company/lims-pipeline/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Ingest: config.IngestConfig{Workers: 4},
		Database: config.DatabaseConfig{
			Host: "localhost", Port: 5432, User: "lims", Database: "lims", SSLMode: "disable",
			MaxOpenConns: 10, MaxIdleConns: 2, MaxIdleTime: 5 * time.Minute,
			Schema: "lims", StatementTimeout: time.Minute,
		},
	}
}

func TestNewPoolConfig(t *testing.T) {
	tests := []struct {
		name             string
		mutate           func(*config.Config)
		wantMax          int32
		wantMin          int32
		wantSearchPath   string
		wantStmtTimeout  string
		noStmtTimeoutSet bool
	}{
		{
			name:            "defaults",
			mutate:          func(*config.Config) {},
			wantMax:         10,
			wantMin:         2,
			wantSearchPath:  "lims,public",
			wantStmtTimeout: "60000",
		},
		{
			name: "pool grows with the worker count",
			mutate: func(c *config.Config) {
				c.Ingest.Workers = 16
			},
			wantMax:         17,
			wantMin:         2,
			wantSearchPath:  "lims,public",
			wantStmtTimeout: "60000",
		},
		{
			name: "idle connections are capped by the pool size",
			mutate: func(c *config.Config) {
				c.Database.MaxOpenConns = 0
				c.Database.MaxIdleConns = 50
				c.Ingest.Workers = 1
			},
			wantMax:         2,
			wantMin:         2,
			wantSearchPath:  "lims,public",
			wantStmtTimeout: "60000",
		},
		{
			name: "custom schema and no statement timeout",
			mutate: func(c *config.Config) {
				c.Database.Schema = "legislation"
				c.Database.StatementTimeout = 0
			},
			wantMax:          10,
			wantMin:          2,
			wantSearchPath:   "legislation,public",
			noStmtTimeoutSet: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(cfg)

			pc, err := newPoolConfig(cfg)
			require.NoError(t, err)

			assert.Equal(t, tt.wantMax, pc.MaxConns)
			assert.Equal(t, tt.wantMin, pc.MinConns)
			assert.Equal(t, 5*time.Minute, pc.MaxConnIdleTime)

			params := pc.ConnConfig.RuntimeParams
			assert.Equal(t, applicationName, params["application_name"])
			assert.Equal(t, tt.wantSearchPath, params["search_path"])
			if tt.noStmtTimeoutSet {
				assert.NotContains(t, params, "statement_timeout")
			} else {
				assert.Equal(t, tt.wantStmtTimeout, params["statement_timeout"])
			}
		})
	}
}

func TestNewPoolConfig_PublicSchemaLeavesSearchPath(t *testing.T) {
	cfg := testConfig()
	cfg.Database.Schema = "public"

	pc, err := newPoolConfig(cfg)
	require.NoError(t, err)
	assert.NotContains(t, pc.ConnConfig.RuntimeParams, "search_path")
}

func TestNewPoolConfig_InvalidSSLMode(t *testing.T) {
	cfg := testConfig()
	cfg.Database.SSLMode = "sometimes"

	_, err := newPoolConfig(cfg)
	assert.Error(t, err)
}
