package setup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/edvin/dstgen/internal/lua"
)

func modTable(ids ...string) *ModTable {
	table := orderedmap.New[string, *lua.Map]()
	for _, id := range ids {
		table.Set(id, lua.NewMap())
	}
	return table
}

func modShards() []Shard {
	master := worldgenShard("Master")
	master.Mods = modTable("workshop-378160973", "local-minimap", "workshop-666155465")
	caves := worldgenShard("Caves")
	caves.Mods = modTable("workshop-666155465", "workshop-", "workshop-1185229307")
	plain := worldgenShard("Plain")
	return []Shard{master, caves, plain}
}

func TestAggregateMods_Workshop(t *testing.T) {
	set := AggregateMods(modShards(), ModPolicyWorkshop)

	assert.Equal(t, []string{"378160973", "666155465", "1185229307"}, set.IDs())
	assert.Equal(t, 3, set.Len())
	assert.True(t, set.Contains("666155465"))
	assert.False(t, set.Contains("local-minimap"))
	assert.False(t, set.Contains(""))
}

func TestAggregateMods_Raw(t *testing.T) {
	set := AggregateMods(modShards(), ModPolicyRaw)

	assert.Equal(t, []string{
		"workshop-378160973",
		"local-minimap",
		"workshop-666155465",
		"workshop-",
		"workshop-1185229307",
	}, set.IDs())
}

func TestAggregateMods_NoMods(t *testing.T) {
	set := AggregateMods([]Shard{worldgenShard("Master")}, ModPolicyWorkshop)
	assert.Equal(t, 0, set.Len())
	assert.Empty(t, set.IDs())
	assert.Equal(t, "", RenderModSetup(set))
}

func TestRenderModSetup(t *testing.T) {
	set := AggregateMods(modShards(), ModPolicyWorkshop)
	assert.Equal(t,
		"ServerModSetup(\"378160973\")\n"+
			"ServerModSetup(\"666155465\")\n"+
			"ServerModSetup(\"1185229307\")\n",
		RenderModSetup(set))
}
