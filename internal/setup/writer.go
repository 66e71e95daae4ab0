package setup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

const defaultFileMode = 0o644

// Writer writes a GenerateResult to disk.
type Writer struct {
	logger    zerolog.Logger
	outputDir string
	serverDir string
}

// NewWriter creates a Writer that places cluster files under outputDir and
// server files under serverDir.
func NewWriter(logger zerolog.Logger, outputDir, serverDir string) *Writer {
	return &Writer{
		logger:    logger.With().Str("component", "writer").Logger(),
		outputDir: outputDir,
		serverDir: serverDir,
	}
}

// Path returns the absolute-or-relative destination of a generated file.
func (w *Writer) Path(f GeneratedFile) (string, error) {
	switch f.Root {
	case RootCluster:
		return filepath.Join(w.outputDir, filepath.FromSlash(f.Path)), nil
	case RootServer:
		if w.serverDir == "" {
			return "", &EnvironmentError{Message: fmt.Sprintf("no server directory to write %s into", f.Path)}
		}
		return filepath.Join(w.serverDir, filepath.FromSlash(f.Path)), nil
	default:
		return "", fmt.Errorf("unknown root %q for %s", f.Root, f.Path)
	}
}

// Write writes every file of res. Copy sources and destinations are checked
// before the first file is touched.
func (w *Writer) Write(res *GenerateResult) error {
	dests := make([]string, len(res.Files))
	for i, f := range res.Files {
		dest, err := w.Path(f)
		if err != nil {
			return err
		}
		dests[i] = dest
		if f.CopyFrom != "" {
			info, err := os.Stat(f.CopyFrom)
			if err != nil {
				return fmt.Errorf("world file for %s: %w", f.Path, err)
			}
			if info.IsDir() {
				return fmt.Errorf("world file for %s: %s is a directory", f.Path, f.CopyFrom)
			}
		}
	}

	for i, f := range res.Files {
		if err := w.writeFile(dests[i], f); err != nil {
			return err
		}
		w.logger.Debug().Str("root", string(f.Root)).Str("path", f.Path).Msg("wrote file")
	}

	w.logger.Info().
		Str("output_dir", w.outputDir).
		Int("files", len(res.Files)).
		Int("mods", len(res.Mods)).
		Msg("cluster generated")
	return nil
}

func (w *Writer) writeFile(dest string, f GeneratedFile) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(dest), err)
	}
	mode := f.Mode
	if mode == 0 {
		mode = defaultFileMode
	}

	if f.CopyFrom != "" {
		return copyFile(f.CopyFrom, dest, mode)
	}
	if err := os.WriteFile(dest, []byte(f.Content), mode); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	// WriteFile keeps the mode of an existing file.
	if err := os.Chmod(dest, mode); err != nil {
		return fmt.Errorf("chmod %s: %w", dest, err)
	}
	return nil
}

func copyFile(src, dest string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("copy %s to %s: %w", src, dest, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", dest, err)
	}
	return nil
}
