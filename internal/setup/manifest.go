package setup

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// manifestExts are the source document extensions stripped when deriving the
// default output directory.
var manifestExts = []string{".yml", ".yaml", ".json", ".jsonc"}

// LoadManifest reads a cluster description from disk. YAML is the native
// format; .json and .jsonc files may carry comments and trailing commas.
func LoadManifest(path string) (*yaml.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return ParseManifest(data, filepath.Ext(path))
}

// ParseManifest parses a cluster description. ext selects JSONC comment
// stripping and is otherwise ignored, since YAML accepts plain JSON.
func ParseManifest(data []byte, ext string) (*yaml.Node, error) {
	switch strings.ToLower(ext) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &doc, nil
}

// DefaultOutputDir returns ./<manifest file name without extension>.
func DefaultOutputDir(manifestPath string) string {
	base := filepath.Base(manifestPath)
	for _, ext := range manifestExts {
		if strings.EqualFold(filepath.Ext(base), ext) {
			base = base[:len(base)-len(ext)]
			break
		}
	}
	return "." + string(filepath.Separator) + base
}

// Build loads, normalizes and renders a manifest without touching the
// output directories. Relative world file paths are resolved against the
// manifest's directory.
func Build(manifestPath string, opts Options) (*GenerateResult, error) {
	doc, err := LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	cfg, err := Normalize(doc)
	if err != nil {
		return nil, err
	}

	baseDir := filepath.Dir(manifestPath)
	for i := range cfg.Shards {
		w := &cfg.Shards[i].World
		if w.File != "" && !filepath.IsAbs(w.File) {
			w.File = filepath.Join(baseDir, w.File)
		}
	}

	return Generate(cfg, opts)
}
