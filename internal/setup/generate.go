package setup

import (
	"fmt"
	"io/fs"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Root names the directory a generated file is relative to.
type Root string

const (
	RootCluster Root = "cluster" // The output cluster directory
	RootServer  Root = "server"  // The dedicated server install
)

// GenerateResult describes the files that make up a cluster.
type GenerateResult struct {
	ServerDir string          `json:"server_dir"`
	Files     []GeneratedFile `json:"files"`
	Mods      []string        `json:"mods"`
}

// GeneratedFile describes a single generated file.
type GeneratedFile struct {
	Root    Root   `json:"root"`
	Path    string `json:"path"`
	Content string `json:"content,omitempty"`
	// CopyFrom names a source file copied byte-for-byte instead of Content.
	CopyFrom string      `json:"copy_from,omitempty"`
	Mode     fs.FileMode `json:"mode,omitempty"`
}

// Generate renders the complete artifact set for a normalized cluster. It
// performs no I/O: every file is returned in memory, so a failure leaves
// nothing half-written. Output order is deterministic: cluster files, then
// each shard's files in shard order, then the installer descriptor and the
// launch script.
func Generate(cfg *Config, opts Options) (*GenerateResult, error) {
	if err := validate.Struct(opts); err != nil {
		return nil, fmt.Errorf("invalid generate options: %w", err)
	}
	if len(cfg.Shards) == 0 {
		return nil, &ValidationError{Field: "shards", Message: "at least one shard is required"}
	}

	result := &GenerateResult{ServerDir: opts.ServerDir}

	clusterFiles, err := RenderCluster(cfg)
	if err != nil {
		return nil, err
	}
	result.Files = append(result.Files, clusterFiles...)

	shardFiles, err := renderShards(cfg.Shards)
	if err != nil {
		return nil, err
	}
	for _, files := range shardFiles {
		result.Files = append(result.Files, files...)
	}

	mods := AggregateMods(cfg.Shards, opts.ModPolicy)
	result.Mods = mods.IDs()
	if opts.WriteInstaller {
		result.Files = append(result.Files, GeneratedFile{
			Root:    RootServer,
			Path:    ModSetupFile,
			Content: RenderModSetup(mods),
		})
	}

	if opts.Script {
		script, err := RenderScript(cfg, ScriptOptions{
			Style:     opts.ScriptStyle,
			Platform:  opts.Platform,
			ServerDir: opts.ServerDir,
		})
		if err != nil {
			return nil, err
		}
		result.Files = append(result.Files, GeneratedFile{
			Root:    RootCluster,
			Path:    StartScriptFile,
			Content: script,
			Mode:    0o755,
		})
	}

	return result, nil
}

// renderShards renders all shards concurrently. Each shard depends only on
// its own data and position. The error of the lowest failing shard is
// returned so failures are reported the same way on every run.
func renderShards(shards []Shard) ([][]GeneratedFile, error) {
	files := make([][]GeneratedFile, len(shards))
	errs := make([]error, len(shards))

	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range shards {
		i := i
		g.Go(func() error {
			files[i], errs[i] = RenderShard(&shards[i], i)
			return nil
		})
	}
	_ = g.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}
