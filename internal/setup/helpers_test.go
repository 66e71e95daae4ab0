package setup

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

const minimalManifest = `
cluster:
  cluster_name: Test Cluster
shards:
  - name: Master
    world:
      setup: worldgenoverride.lua
      worldgen_preset: SURVIVAL_TOGETHER
      settings_preset: SURVIVAL_TOGETHER
`

func normalize(t *testing.T, src string) (*Config, error) {
	t.Helper()
	doc, err := ParseManifest([]byte(src), ".yml")
	require.NoError(t, err)
	return Normalize(doc)
}

func mustNormalize(t *testing.T, src string) *Config {
	t.Helper()
	cfg, err := normalize(t, src)
	require.NoError(t, err)
	require.NotNil(t, cfg)
	return cfg
}

// requireFieldError asserts err is a validation failure that names field.
func requireFieldError(t *testing.T, err error, field string) {
	t.Helper()
	require.Error(t, err)

	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs), "expected ValidationErrors, got %T: %v", err, err)
	var fields []string
	for _, e := range verrs {
		if e.Field == field {
			return
		}
		fields = append(fields, e.Field)
	}
	t.Fatalf("no validation error for %q; got %v", field, fields)
}

func worldgenShard(name string) Shard {
	return Shard{
		Name: name,
		World: World{
			Setup:          WorldGenOverride,
			WorldgenPreset: "SURVIVAL_TOGETHER",
			SettingsPreset: "SURVIVAL_TOGETHER",
		},
		Settings: map[string]string{},
	}
}

func filePaths(files []GeneratedFile) []string {
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths
}

func findFile(t *testing.T, files []GeneratedFile, path string) GeneratedFile {
	t.Helper()
	for _, f := range files {
		if f.Path == path {
			return f
		}
	}
	t.Fatalf("file %s not generated; have %v", path, filePaths(files))
	return GeneratedFile{}
}
