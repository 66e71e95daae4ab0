package setup

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scriptConfig() *Config {
	return &Config{
		Cluster: Cluster{Settings: map[string]string{"cluster_name": "My Cluster"}},
		Shards:  []Shard{worldgenShard("Master"), worldgenShard("Caves")},
	}
}

const x64Command = `./dontstarve_dedicated_server_nullrenderer_x64 -persistent_storage_root "$DATA_DIR_PREFIX" -conf_dir "$DATA_DIR_LAST" -ugc_directory ../ugc_mods`

func TestRenderScript_Simple(t *testing.T) {
	script, err := RenderScript(scriptConfig(), ScriptOptions{
		Style:     ScriptSimple,
		Platform:  PlatformX86_64,
		ServerDir: "/opt/dst",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(script, "#!/usr/bin/env bash\n"))
	assert.Contains(t, script, "echo \"-- Multilib: x86_64\"\n")
	assert.Contains(t, script, "cd '/opt/dst/bin64' || exit 1\n")
	assert.Contains(t, script, x64Command+" -only_update_server_mods > /dev/null 2>&1 &\nwait\n")
	assert.Contains(t, script, "trap 'kill $(jobs -p) 2> /dev/null' EXIT\n")
	assert.Contains(t, script, "echo '-- Running shard Master'\n"+
		x64Command+` -cluster "$CLUSTER_DIR_NAME" -shard 'Master' -console -skip_update_server_mods > /dev/null 2>&1 &`+"\n"+
		"echo '-- Running shard Caves'\n"+
		x64Command+` -cluster "$CLUSTER_DIR_NAME" -shard 'Caves' -console -skip_update_server_mods > /dev/null 2>&1 &`+"\n"+
		"wait -n\n")
	assert.NotContains(t, script, "tmux")
}

func TestRenderScript_X86(t *testing.T) {
	script, err := RenderScript(scriptConfig(), ScriptOptions{
		Style:     ScriptSimple,
		Platform:  PlatformX86,
		ServerDir: "/opt/dst",
	})
	require.NoError(t, err)

	assert.Contains(t, script, "cd '/opt/dst/bin' || exit 1\n")
	assert.Contains(t, script, "./dontstarve_dedicated_server_nullrenderer -persistent_storage_root")
	assert.NotContains(t, script, "_x64")
}

func TestRenderScript_Tmux(t *testing.T) {
	script, err := RenderScript(scriptConfig(), ScriptOptions{
		Style:     ScriptTmux,
		Platform:  PlatformX86_64,
		ServerDir: "/opt/dst",
	})
	require.NoError(t, err)

	assert.Contains(t, script, "SESSION='DST My Cluster'\n"+
		"tmux new-session -d -s \"$SESSION\" -n 'Master' 'exec /bin/sh'\n"+
		"tmux send-keys -t \"$SESSION:Master\" \"cd '/opt/dst/bin64'\" Enter\n")
	assert.Contains(t, script, "tmux new-window -t \"$SESSION\" -n 'Caves' 'exec /bin/sh'\n")
	assert.Equal(t, 1, strings.Count(script, "new-session"))
	assert.Equal(t, 1, strings.Count(script, "new-window"))
	assert.NotContains(t, script, "trap ")
	assert.True(t, strings.HasSuffix(script, "echo \"-- Attach with: tmux attach -t '$SESSION'\"\n"))
}

func TestRenderScript_StylesShareShardCommand(t *testing.T) {
	cfg := scriptConfig()
	simple, err := RenderScript(cfg, ScriptOptions{Style: ScriptSimple, Platform: PlatformX86_64, ServerDir: "/opt/dst"})
	require.NoError(t, err)
	tmux, err := RenderScript(cfg, ScriptOptions{Style: ScriptTmux, Platform: PlatformX86_64, ServerDir: "/opt/dst"})
	require.NoError(t, err)

	for _, shard := range cfg.Shards {
		cmd := shardCommand(serverBinaries[PlatformX86_64].Executable, shard.Name)
		assert.Contains(t, simple, cmd+" > /dev/null 2>&1 &\n")
		assert.Contains(t, tmux, `tmux send-keys -t "$SESSION:`+shard.Name+`" `+doubleQuote(cmd)+" Enter\n")
	}
}

func TestRenderScript_TmuxRequiresClusterName(t *testing.T) {
	cfg := scriptConfig()
	cfg.Cluster.Settings = map[string]string{}

	_, err := RenderScript(cfg, ScriptOptions{Style: ScriptTmux, Platform: PlatformX86_64, ServerDir: "/opt/dst"})
	var missing *MissingRequiredFieldError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "cluster_name", missing.Field)

	// The simple style never names the session.
	_, err = RenderScript(cfg, ScriptOptions{Style: ScriptSimple, Platform: PlatformX86_64, ServerDir: "/opt/dst"})
	assert.NoError(t, err)
}

func TestRenderScript_InvalidOptions(t *testing.T) {
	cfg := scriptConfig()

	_, err := RenderScript(cfg, ScriptOptions{Style: "screen", Platform: PlatformX86_64, ServerDir: "/opt/dst"})
	assert.ErrorContains(t, err, "unknown script style")

	_, err = RenderScript(cfg, ScriptOptions{Style: ScriptSimple, Platform: "arm64", ServerDir: "/opt/dst"})
	assert.ErrorContains(t, err, "unknown platform")

	var envErr *EnvironmentError
	_, err = RenderScript(cfg, ScriptOptions{Style: ScriptSimple, Platform: PlatformX86_64})
	assert.ErrorAs(t, err, &envErr)

	for _, dir := range []string{"/opt/it's", "/opt/$HOME", "/opt/`id`", "/opt/\"dst\""} {
		_, err = RenderScript(cfg, ScriptOptions{Style: ScriptSimple, Platform: PlatformX86_64, ServerDir: dir})
		assert.ErrorAs(t, err, &envErr, dir)
	}
}

func TestRenderScript_ServerDirWithSpaces(t *testing.T) {
	script, err := RenderScript(scriptConfig(), ScriptOptions{
		Style:     ScriptTmux,
		Platform:  PlatformX86_64,
		ServerDir: "/home/steam/dst server",
	})
	require.NoError(t, err)
	assert.Contains(t, script, "cd '/home/steam/dst server/bin64' || exit 1\n")
	assert.Contains(t, script, `"cd '/home/steam/dst server/bin64'" Enter`)
}

func TestSessionName(t *testing.T) {
	assert.Equal(t, "DST My Cluster", sessionName("My Cluster"))
	assert.Equal(t, "DST a_b_c", sessionName("a:b.c"))
}

func TestShellQuote(t *testing.T) {
	assert.Equal(t, `'plain'`, shellQuote("plain"))
	assert.Equal(t, `'it'\''s'`, shellQuote("it's"))
	assert.Equal(t, "\"a \\\"b\\\" \\`c\\` $d\"", doubleQuote("a \"b\" `c` $d"))
}
