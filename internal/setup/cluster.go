package setup

import (
	"strconv"
	"strings"
)

// Cluster-level artifact names.
const (
	ClusterINI    = "cluster.ini"
	WhitelistFile = "whitelist.txt"
	BlocklistFile = "blocklist.txt"
	AdminlistFile = "adminlist.txt"
)

var clusterSections = []iniSection{
	{Name: "GAMEPLAY", Fields: []iniField{
		{Name: "max_players"},
		{Name: "pvp"},
		{Name: "game_mode"}, // survival, endless, wilderness
		{Name: "pause_when_empty", Default: "true"},
		{Name: "vote_enabled"},
	}},
	{Name: "MISC", Fields: []iniField{
		{Name: "max_snapshots"},
		{Name: "console_enabled"},
	}},
	{Name: "NETWORK", Fields: []iniField{
		{Name: "cluster_name", Rule: required},
		{Name: "cluster_password"},
		{Name: "cluster_description"},
		{Name: "cluster_intention"},
		{Name: "lan_only_cluster"},
		{Name: "offline_cluster"},
		{Name: "tick_rate"},
		{Name: "whitelist_slots", Rule: derived},
		{Name: "autosaver_enabled"},
	}},
	{Name: "STEAM", Fields: []iniField{
		{Name: "steam_group_only"},
		{Name: "steam_group_id"},
		{Name: "steam_group_admins"},
	}},
}

// clusterShardSection bootstraps multi-shard clusters on one host. The
// values are placeholders operators override after generation.
var clusterShardSection = iniSection{Name: "SHARD", Fields: []iniField{
	{Name: "shard_enabled", Rule: fixed, Default: "true"},
	{Name: "bind_ip", Rule: fixed, Default: "127.0.0.1"},
	{Name: "master_ip", Rule: fixed, Default: "127.0.0.1"},
	{Name: "master_port", Rule: fixed, Default: "10887"},
	{Name: "cluster_key", Rule: fixed, Default: "defaultPass1"},
}}

// RenderCluster renders cluster.ini and one file per non-empty user list.
func RenderCluster(cfg *Config) ([]GeneratedFile, error) {
	sections := clusterSections
	if len(cfg.Shards) > 1 {
		sections = append(sections[:len(sections):len(sections)], clusterShardSection)
	}

	derivedValues := map[string]string{}
	if n := len(cfg.Cluster.Whitelist); n > 0 {
		derivedValues["whitelist_slots"] = strconv.Itoa(n)
	}

	ini, err := renderINI("cluster", sections, iniValues{
		settings: cfg.Cluster.Settings,
		derived:  derivedValues,
	})
	if err != nil {
		return nil, err
	}

	files := []GeneratedFile{{Root: RootCluster, Path: ClusterINI, Content: ini}}
	for _, list := range []struct {
		path  string
		users []string
	}{
		{WhitelistFile, cfg.Cluster.Whitelist},
		{BlocklistFile, cfg.Cluster.Blocklist},
		{AdminlistFile, cfg.Cluster.AdminList},
	} {
		if len(list.users) == 0 {
			continue
		}
		files = append(files, GeneratedFile{
			Root:    RootCluster,
			Path:    list.path,
			Content: strings.Join(list.users, "\n") + "\n",
		})
	}
	return files, nil
}
