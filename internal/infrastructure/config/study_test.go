package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nodalpair/nodalpair/internal/domain/model"
	"github.com/nodalpair/nodalpair/internal/domain/valueobject"
	"github.com/nodalpair/nodalpair/internal/infrastructure/config"
)

func TestDefaultStudy(t *testing.T) {
	study, err := config.DefaultStudy()
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"depthCode", "dysplasia", "perineural", "lvi", "invasiveFrontType", "ene"},
		study.Schema.Names(),
	)
	assert.Equal(t, 1, study.MissingValueThreshold)

	ratios := []struct {
		variable string
		code     int
		want     string
	}{
		{"depthCode", 3, "2.6"},
		{"depthCode", 2, "2.1"},
		{"depthCode", 1, "0"},
		{"dysplasia", 0, "1.6"},
		{"perineural", 1, "1.5"},
		{"lvi", 1, "1.6"},
		{"invasiveFrontType", 2, "1.6"},
		{"ene", 1, "1.4"},
		{"ene", 0, "0"},
	}
	for _, r := range ratios {
		got := study.Ratios.Ratio(r.variable, valueobject.NewCode(r.code))
		assert.True(t, decimal.RequireFromString(r.want).Equal(got), "%s=%d: got %s", r.variable, r.code, got)
	}

	assert.Equal(t,
		[]string{"Gender Code", "Date of Surgery", "Depth Code", "Dysplasia Present", "Perineural", "LVI", "Invasive Front Type", "ENE", "SLNB", "ELND"},
		study.Layout.Header(),
	)
	assert.Contains(t, study.Layout.Variables[4].Headers, "Inv Front code")
}

func TestParseStudy(t *testing.T) {
	tests := []struct {
		name    string
		toml    string
		wantErr string
	}{
		{
			name: "minimal",
			toml: `
[[variables]]
name = "lvi"
codes = [0, 1]
ratios = { "1" = "1.6" }
`,
		},
		{
			name:    "no variables",
			toml:    `missing_value_threshold = 2`,
			wantErr: "no variables",
		},
		{
			name: "duplicate variable",
			toml: `
[[variables]]
name = "lvi"
[[variables]]
name = "lvi"
`,
			wantErr: "declared twice",
		},
		{
			name: "ratio key not a code",
			toml: `
[[variables]]
name = "lvi"
ratios = { "yes" = "1.6" }
`,
			wantErr: "not an integer code",
		},
		{
			name: "ratio outside domain",
			toml: `
[[variables]]
name = "lvi"
codes = [0, 1]
ratios = { "2" = "1.6" }
`,
			wantErr: "outside its domain",
		},
		{
			name: "ratio not a number",
			toml: `
[[variables]]
name = "lvi"
ratios = { "1" = "high" }
`,
			wantErr: "not a number",
		},
		{
			name: "negative threshold",
			toml: `
missing_value_threshold = -1
[[variables]]
name = "lvi"
`,
			wantErr: "must not be negative",
		},
		{
			name:    "malformed toml",
			toml:    `[[variables]`,
			wantErr: "study config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			study, err := config.ParseStudy([]byte(tt.toml))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, model.ErrConfiguration)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, []string{"lvi"}, study.Schema.Names())
			assert.Equal(t, []string{"lvi"}, study.Layout.Variables[0].Headers)
			assert.Equal(t, "Gender Code", study.Layout.Gender.Primary())
			assert.Equal(t, 1, study.MissingValueThreshold)
		})
	}
}

func TestLoadStudy(t *testing.T) {
	t.Run("empty path uses default", func(t *testing.T) {
		study, err := config.LoadStudy("")
		require.NoError(t, err)
		assert.Equal(t, 6, study.Schema.Len())
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "study.toml")
		content := `
missing_value_threshold = 3

[columns]
slnb = ["Sentinel Node"]

[[variables]]
name = "depthCode"
headers = ["Depth"]
codes = [1, 2, 3]
disabled = true
ratios = { "3" = "2.6" }
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		study, err := config.LoadStudy(path)
		require.NoError(t, err)
		assert.Equal(t, 3, study.MissingValueThreshold)
		assert.True(t, study.Schema.At(0).Disabled)
		assert.Equal(t, "Sentinel Node", study.Layout.SLNB.Primary())
		assert.Equal(t, "ELND", study.Layout.ELND.Primary())
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := config.LoadStudy(filepath.Join(t.TempDir(), "nope.toml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}
