package setup

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"
)

// StartScriptFile is the launch script written to the cluster root.
const StartScriptFile = "start.sh"

// Arguments shared by every server invocation. The data dir variables are
// computed by the script header at run time.
const (
	serverBaseArgs  = `-persistent_storage_root "$DATA_DIR_PREFIX" -conf_dir "$DATA_DIR_LAST" -ugc_directory ../ugc_mods`
	serverExtraArgs = `-console -skip_update_server_mods`
)

// serverBinary locates the server executable inside the install directory.
type serverBinary struct {
	Dir        string
	Executable string
}

var serverBinaries = map[Platform]serverBinary{
	PlatformX86:    {Dir: "bin", Executable: "dontstarve_dedicated_server_nullrenderer"},
	PlatformX86_64: {Dir: "bin64", Executable: "dontstarve_dedicated_server_nullrenderer_x64"},
}

// scriptUnsafeChars cannot appear in the server path: it is embedded inside
// single quotes, and inside double quotes for tmux send-keys.
const scriptUnsafeChars = "'\"`$\\\n"

const scriptHeaderTemplate = `#!/usr/bin/env bash
# Starts every shard of this cluster. Generated by dstgen.

CLUSTER_DIR_PATH=$( cd -- "$( dirname -- "${BASH_SOURCE[0]}" )" &> /dev/null && pwd )
CLUSTER_DIR_NAME=$(basename "$CLUSTER_DIR_PATH")
DATA_DIR=$(readlink -f "$CLUSTER_DIR_PATH/..")
DATA_DIR_PREFIX=$(dirname "$DATA_DIR")
DATA_DIR_LAST=$(basename "$DATA_DIR")
echo "-- Running cluster at '$DATA_DIR_PREFIX/$DATA_DIR_LAST/$CLUSTER_DIR_NAME'"
echo "-- Multilib: {{ .Platform }}"
echo "-- Updating server mods..."
cd {{ sq .WorkDir }} || exit 1
./{{ .Executable }} {{ .BaseArgs }} -only_update_server_mods > /dev/null 2>&1 &
wait
cd - > /dev/null || exit 1
`

// Every shard runs as a background job of this script. The first shard to
// exit ends the script, and the EXIT trap takes the others down with it.
const simpleScriptTemplate = `{{ template "header" . }}
trap 'kill $(jobs -p) 2> /dev/null' EXIT
cd {{ sq .WorkDir }} || exit 1
{{- range .Shards }}
echo '-- Running shard {{ .Name }}'
{{ .Command }} > /dev/null 2>&1 &
{{- end }}
wait -n
`

// Each shard gets its own tmux window so its console can be attached to.
const tmuxScriptTemplate = `{{ template "header" . }}
SESSION={{ sq .Session }}
{{- range .Shards }}
{{- if .First }}
tmux new-session -d -s "$SESSION" -n '{{ .Name }}' 'exec /bin/sh'
{{- else }}
tmux new-window -t "$SESSION" -n '{{ .Name }}' 'exec /bin/sh'
{{- end }}
tmux send-keys -t "$SESSION:{{ .Name }}" {{ dq (printf "cd %s" (sq $.WorkDir)) }} Enter
tmux send-keys -t "$SESSION:{{ .Name }}" {{ dq .Command }} Enter
{{- end }}
echo "-- Attach with: tmux attach -t '$SESSION'"
`

var scriptFuncs = template.FuncMap{
	"sq": shellQuote,
	"dq": doubleQuote,
}

var scriptHeaderTmpl = template.Must(template.New("header").Funcs(scriptFuncs).Parse(scriptHeaderTemplate))

var scriptTemplates = map[ScriptStyle]*template.Template{
	ScriptSimple: mustScriptTemplate("simple", simpleScriptTemplate),
	ScriptTmux:   mustScriptTemplate("tmux", tmuxScriptTemplate),
}

func mustScriptTemplate(name, body string) *template.Template {
	return template.Must(template.Must(scriptHeaderTmpl.Clone()).New(name).Parse(body))
}

// ScriptOptions selects the launch script variant.
type ScriptOptions struct {
	Style     ScriptStyle
	Platform  Platform
	ServerDir string
}

type scriptData struct {
	Platform   Platform
	WorkDir    string
	Executable string
	BaseArgs   string
	Session    string
	Shards     []scriptShard
}

type scriptShard struct {
	Name    string
	First   bool
	Command string
}

// RenderScript renders the launch script for the cluster.
func RenderScript(cfg *Config, opts ScriptOptions) (string, error) {
	bin, ok := serverBinaries[opts.Platform]
	if !ok {
		return "", fmt.Errorf("unknown platform %q (want %s or %s)", opts.Platform, PlatformX86, PlatformX86_64)
	}
	tmpl, ok := scriptTemplates[opts.Style]
	if !ok {
		return "", fmt.Errorf("unknown script style %q (want %s or %s)", opts.Style, ScriptSimple, ScriptTmux)
	}
	if opts.ServerDir == "" {
		return "", &EnvironmentError{Message: "no server directory for the launch script"}
	}
	if strings.ContainsAny(opts.ServerDir, scriptUnsafeChars) {
		return "", &EnvironmentError{
			Path:    opts.ServerDir,
			Message: "server directory contains characters that cannot be embedded in the launch script",
		}
	}

	data := scriptData{
		Platform:   opts.Platform,
		WorkDir:    filepath.Join(opts.ServerDir, bin.Dir),
		Executable: bin.Executable,
		BaseArgs:   serverBaseArgs,
	}
	if opts.Style == ScriptTmux {
		name, ok := cfg.Cluster.Setting("cluster_name")
		if !ok {
			return "", &MissingRequiredFieldError{Scope: "cluster", Field: "cluster_name"}
		}
		data.Session = sessionName(name)
	}
	for i := range cfg.Shards {
		name := cfg.Shards[i].Name
		data.Shards = append(data.Shards, scriptShard{
			Name:    name,
			First:   i == 0,
			Command: shardCommand(bin.Executable, name),
		})
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s script template: %w", opts.Style, err)
	}
	return buf.String(), nil
}

// shardCommand is the invocation of one shard, relative to the binary
// directory. Both script styles run exactly this command.
func shardCommand(executable, shard string) string {
	return fmt.Sprintf(`./%s %s -cluster "$CLUSTER_DIR_NAME" -shard '%s' %s`,
		executable, serverBaseArgs, shard, serverExtraArgs)
}

// tmux rejects ':' and '.' in session names.
var sessionReplacer = strings.NewReplacer(":", "_", ".", "_")

func sessionName(clusterName string) string {
	return "DST " + sessionReplacer.Replace(clusterName)
}

// shellQuote wraps s in single quotes for POSIX shells.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// doubleQuote wraps s in double quotes, leaving $ references to expand when
// the script runs.
func doubleQuote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "`", "\\`")
	return `"` + r.Replace(s) + `"`
}
