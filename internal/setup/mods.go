package setup

import (
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/edvin/dstgen/internal/lua"
)

// ModSetupFile is the installer descriptor read by the dedicated server on
// startup. It lives in the server install's mods directory.
const ModSetupFile = "mods/dedicated_server_mods_setup.lua"

const workshopPrefix = "workshop-"

// ModSet is the deduplicated set of mod identifiers used by a cluster, in
// first-seen order.
type ModSet struct {
	ids *orderedmap.OrderedMap[string, struct{}]
}

// AggregateMods collects the installable mod identifiers of all shards.
// Under ModPolicyWorkshop only "workshop-<id>" mods are kept, as bare ids;
// local mods cannot be installed through the descriptor. Under
// ModPolicyRaw every identifier is kept as written.
func AggregateMods(shards []Shard, policy ModPolicy) *ModSet {
	set := &ModSet{ids: orderedmap.New[string, struct{}]()}
	for i := range shards {
		mods := shards[i].Mods
		if mods == nil {
			continue
		}
		for pair := mods.Oldest(); pair != nil; pair = pair.Next() {
			if id, ok := policy.installID(pair.Key); ok {
				set.ids.Set(id, struct{}{})
			}
		}
	}
	return set
}

func (p ModPolicy) installID(name string) (string, bool) {
	if p == ModPolicyRaw {
		return name, true
	}
	id, ok := strings.CutPrefix(name, workshopPrefix)
	return id, ok && id != ""
}

// IDs returns the identifiers in first-seen order.
func (s *ModSet) IDs() []string {
	out := make([]string, 0, s.ids.Len())
	for pair := s.ids.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// Len returns the number of identifiers.
func (s *ModSet) Len() int { return s.ids.Len() }

// Contains reports whether id is in the set.
func (s *ModSet) Contains(id string) bool {
	_, ok := s.ids.Get(id)
	return ok
}

// RenderModSetup renders one ServerModSetup directive per identifier.
func RenderModSetup(set *ModSet) string {
	var b strings.Builder
	for _, id := range set.IDs() {
		b.WriteString("ServerModSetup(" + lua.Quote(id) + ")\n")
	}
	return b.String()
}
