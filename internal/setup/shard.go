package setup

import (
	"bytes"
	"fmt"
	"path"
	"strconv"
	"text/template"

	"github.com/edvin/dstgen/internal/lua"
)

// Per-shard artifact names.
const (
	ServerINI        = "server.ini"
	ModOverridesFile = "modoverrides.lua"
)

// Port bases. Shard ordinal i listens on base+i.
const (
	BaseServerPort         = 10998
	BaseMasterServerPort   = 28900
	BaseAuthenticationPort = 28700
)

// Ports are the network ports assigned to one shard.
type Ports struct {
	Server         int
	MasterServer   int
	Authentication int
}

// PortsFor returns the ports of the shard at the given 0-based position.
func PortsFor(ordinal int) Ports {
	return Ports{
		Server:         BaseServerPort + ordinal,
		MasterServer:   BaseMasterServerPort + ordinal,
		Authentication: BaseAuthenticationPort + ordinal,
	}
}

var shardSections = []iniSection{
	{Name: "SHARD", Fields: []iniField{
		{Name: "is_master", Rule: derived},
		{Name: "name", Rule: derived},
		{Name: "id", Rule: derived},
	}},
	{Name: "NETWORK", Fields: []iniField{
		{Name: "server_port", Rule: derived},
	}},
	{Name: "STEAM", Fields: []iniField{
		{Name: "master_server_port", Rule: derived},
		{Name: "authentification_port", Rule: derived},
	}},
	{Name: "ACCOUNT", Fields: []iniField{
		{Name: "encode_user_path", Default: "true"},
	}},
}

const worldgenOverrideTemplate = `return {
  override_enabled = true,
  worldgen_preset = {{ quote .WorldgenPreset }},
  settings_preset = {{ quote .SettingsPreset }},
  overrides = {
{{- range .Overrides }}
    {{ .Key }} = {{ lua .Value }},
{{- end }}
  },
}
`

const modOverridesTemplate = `return {
{{- range .Mods }}
  [{{ quote .Key }}] = {
    enabled = true,
{{- if .Options }}
    configuration_options = {{ .Options }},
{{- end }}
  },
{{- end }}
}
`

var templateFuncs = template.FuncMap{
	"quote": lua.Quote,
	"lua":   lua.Encode,
}

var (
	worldgenOverrideTmpl = template.Must(template.New("worldgenoverride").Funcs(templateFuncs).Parse(worldgenOverrideTemplate))
	modOverridesTmpl     = template.Must(template.New("modoverrides").Funcs(templateFuncs).Parse(modOverridesTemplate))
)

type keyValue struct {
	Key   string
	Value any
}

type worldgenOverrideData struct {
	WorldgenPreset string
	SettingsPreset string
	Overrides      []keyValue
}

type modEntry struct {
	Key string
	// Options is the rendered configuration_options table, empty when the
	// mod has no options.
	Options string
}

type modOverridesData struct {
	Mods []modEntry
}

// RenderShard renders the files of the shard at the given 0-based position:
// the world setup file, modoverrides.lua when the shard declares mods, and
// server.ini. Paths are relative to the cluster directory.
func RenderShard(shard *Shard, ordinal int) ([]GeneratedFile, error) {
	world, err := renderWorld(shard)
	if err != nil {
		return nil, err
	}
	files := []GeneratedFile{world}

	if shard.Mods != nil {
		mods, err := renderModOverrides(shard.Mods)
		if err != nil {
			return nil, fmt.Errorf("shard %s: %w", shard.Name, err)
		}
		files = append(files, GeneratedFile{
			Root:    RootCluster,
			Path:    path.Join(shard.Name, ModOverridesFile),
			Content: mods,
		})
	}

	ini, err := renderServerINI(shard, ordinal)
	if err != nil {
		return nil, err
	}
	files = append(files, GeneratedFile{
		Root:    RootCluster,
		Path:    path.Join(shard.Name, ServerINI),
		Content: ini,
	})

	return files, nil
}

func renderWorld(shard *Shard) (GeneratedFile, error) {
	w := shard.World
	file := GeneratedFile{Root: RootCluster, Path: path.Join(shard.Name, string(w.Setup))}

	switch w.Setup {
	case WorldGenOverride:
		data := worldgenOverrideData{
			WorldgenPreset: w.WorldgenPreset,
			SettingsPreset: w.SettingsPreset,
		}
		if w.Overrides != nil {
			for pair := w.Overrides.Oldest(); pair != nil; pair = pair.Next() {
				data.Overrides = append(data.Overrides, keyValue{Key: pair.Key, Value: pair.Value})
			}
		}
		var buf bytes.Buffer
		if err := worldgenOverrideTmpl.Execute(&buf, data); err != nil {
			return GeneratedFile{}, fmt.Errorf("shard %s: render worldgenoverride template: %w", shard.Name, err)
		}
		file.Content = buf.String()
	case LevelDataOverride:
		switch {
		case w.File != "":
			file.CopyFrom = w.File
		case w.Content != nil:
			file.Content = *w.Content
		default:
			return GeneratedFile{}, &ValidationError{
				Field:   fmt.Sprintf("shard %s: world", shard.Name),
				Message: fmt.Sprintf("setup %s requires either file or content", LevelDataOverride),
			}
		}
	default:
		return GeneratedFile{}, &ValidationError{
			Field:   fmt.Sprintf("shard %s: world.setup", shard.Name),
			Message: fmt.Sprintf("unknown world setup %q", w.Setup),
		}
	}
	return file, nil
}

func renderModOverrides(mods *ModTable) (string, error) {
	var data modOverridesData
	for pair := mods.Oldest(); pair != nil; pair = pair.Next() {
		entry := modEntry{Key: pair.Key}
		if pair.Value != nil && pair.Value.Len() > 0 {
			entry.Options = lua.Encode(pair.Value)
		}
		data.Mods = append(data.Mods, entry)
	}

	var buf bytes.Buffer
	if err := modOverridesTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render modoverrides template: %w", err)
	}
	return buf.String(), nil
}

func renderServerINI(shard *Shard, ordinal int) (string, error) {
	ports := PortsFor(ordinal)
	derivedValues := map[string]string{
		"name":                  shard.Name,
		"id":                    strconv.Itoa(shard.ShardID(ordinal)),
		"server_port":           strconv.Itoa(ports.Server),
		"master_server_port":    strconv.Itoa(ports.MasterServer),
		"authentification_port": strconv.Itoa(ports.Authentication),
	}
	if ordinal == 0 {
		derivedValues["is_master"] = "true"
	}

	return renderINI("shard "+shard.Name, shardSections, iniValues{
		settings: shard.Settings,
		derived:  derivedValues,
	})
}
