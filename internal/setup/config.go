package setup

import (
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/edvin/dstgen/internal/lua"
)

// WorldSetup selects how a shard's world generation parameters are supplied.
type WorldSetup string

const (
	// WorldGenOverride renders a preset-based worldgenoverride.lua.
	WorldGenOverride WorldSetup = "worldgenoverride.lua"
	// LevelDataOverride copies or writes a literal leveldataoverride.lua.
	LevelDataOverride WorldSetup = "leveldataoverride.lua"
)

// Config is the normalized cluster description. It is built once by
// Normalize and never mutated afterwards.
type Config struct {
	Cluster Cluster
	Shards  []Shard
}

// Cluster holds the cluster-wide settings and the three account lists.
type Cluster struct {
	// Settings maps option names to their textual value. Options given as
	// null in the source document are left out.
	Settings map[string]string

	AdminList []string
	Whitelist []string
	Blocklist []string
}

// Setting returns the textual value of a cluster option.
func (c *Cluster) Setting(name string) (string, bool) {
	v, ok := c.Settings[name]
	return v, ok
}

// ModTable maps mod identifiers to their configuration options in
// declaration order.
type ModTable = orderedmap.OrderedMap[string, *lua.Map]

// Shard is one server process of the cluster.
type Shard struct {
	Name string
	// ID is the explicit shard id, nil when the ordinal-derived id applies.
	ID *int
	// Mods is nil when the shard declares no mods block at all. A non-nil
	// empty table still produces a modoverrides.lua.
	Mods     *ModTable
	World    World
	Settings map[string]string
}

// ShardID returns the explicit id or the 1-based position of the shard.
func (s *Shard) ShardID(ordinal int) int {
	if s.ID != nil {
		return *s.ID
	}
	return ordinal + 1
}

// World describes the world setup strategy of a shard.
type World struct {
	Setup WorldSetup

	// worldgenoverride.lua
	WorldgenPreset string
	SettingsPreset string
	Overrides      *lua.Map

	// leveldataoverride.lua: File wins over Content.
	File    string
	Content *string
}

// ScriptStyle is the flavor of the generated launch script.
type ScriptStyle string

const (
	ScriptSimple ScriptStyle = "simple" // Background jobs torn down together
	ScriptTmux   ScriptStyle = "tmux"   // One tmux window per shard
)

// Platform selects which server executable the launch script runs.
type Platform string

const (
	PlatformX86    Platform = "x86"
	PlatformX86_64 Platform = "x86_64"
)

// ModPolicy decides which mod identifiers go into the installer descriptor.
type ModPolicy string

const (
	// ModPolicyWorkshop keeps only "workshop-<id>" mods and emits the bare id.
	ModPolicyWorkshop ModPolicy = "workshop"
	// ModPolicyRaw emits every mod identifier unchanged.
	ModPolicyRaw ModPolicy = "raw"
)

// Options controls what Generate produces.
type Options struct {
	// ServerDir is the dedicated server install the script and installer
	// descriptor point at.
	ServerDir      string      `validate:"required"`
	WriteInstaller bool
	Script         bool
	ScriptStyle    ScriptStyle `validate:"omitempty,oneof=simple tmux"`
	Platform       Platform    `validate:"omitempty,oneof=x86 x86_64"`
	ModPolicy      ModPolicy   `validate:"omitempty,oneof=workshop raw"`
}

// DefaultOptions returns the options used when no flags are given.
func DefaultOptions() Options {
	return Options{
		WriteInstaller: true,
		Script:         true,
		ScriptStyle:    ScriptSimple,
		Platform:       PlatformX86_64,
		ModPolicy:      ModPolicyWorkshop,
	}
}
