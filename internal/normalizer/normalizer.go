package normalizer

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kluth/extension-auditter/internal/manifest"
)

const (
	maxTotalSize = 100 * 1024 * 1024 // 100MB
	maxFileSize  = 10 * 1024 * 1024  // 10MB per file
	maxFiles     = 10000
)

// Format is the declared packaging of an extension input.
type Format int

const (
	// FormatAuto sniffs the input: directories are copied, byte streams are
	// probed for a ZIP header or an embedded ZIP payload.
	FormatAuto Format = iota
	// FormatDirectory is an already-unpacked extension tree.
	FormatDirectory
	// FormatZip is a plain ZIP container (also covers Firefox XPI).
	FormatZip
	// FormatCRX is a vendor container with a proprietary header followed by
	// an embedded ZIP payload.
	FormatCRX
)

// ParseFormat maps a user-facing format hint to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "auto":
		return FormatAuto, nil
	case "dir", "directory":
		return FormatDirectory, nil
	case "zip", "xpi":
		return FormatZip, nil
	case "crx":
		return FormatCRX, nil
	default:
		return FormatAuto, fmt.Errorf("invalid container format %q: must be auto, dir, zip, or crx", s)
	}
}

// ErrNoEmbeddedArchive is returned when a CRX-style container holds no ZIP
// payload.
var ErrNoEmbeddedArchive = errors.New("invalid container: no embedded archive found")

// ErrManifestNotFound is returned when no manifest.json exists anywhere in
// the extracted tree.
var ErrManifestNotFound = errors.New("manifest not found")

// zipMagic is the ZIP local-file-header signature.
var zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}

// Artifact is the normalized, extracted package: a private workspace tree,
// the parsed manifest, and the total on-disk size of the tree. The artifact
// is owned by a single pipeline run; the caller must call Cleanup when done.
type Artifact struct {
	Dir       string
	Manifest  manifest.Manifest
	TotalSize int64
}

// Cleanup removes the workspace tree.
func (a *Artifact) Cleanup() {
	if a != nil && a.Dir != "" {
		os.RemoveAll(a.Dir)
	}
}

// Normalizer turns extension inputs into canonical extracted workspaces.
type Normalizer struct {
	workRoot string
}

// New creates a Normalizer that places run workspaces under workRoot. An
// empty workRoot falls back to the system temp directory.
func New(workRoot string) *Normalizer {
	if workRoot == "" {
		workRoot = os.TempDir()
	}
	return &Normalizer{workRoot: workRoot}
}

// Normalize extracts the input at path into an isolated workspace named by
// runID and locates its manifest. A pre-existing workspace for the same
// runID is destroyed first, so retries are safe.
func (n *Normalizer) Normalize(runID, path string, format Format) (*Artifact, error) {
	workspace := filepath.Join(n.workRoot, "extauditter-"+runID)
	if err := os.RemoveAll(workspace); err != nil {
		return nil, fmt.Errorf("clearing workspace: %w", err)
	}
	if err := os.MkdirAll(workspace, 0o755); err != nil {
		return nil, fmt.Errorf("creating workspace: %w", err)
	}

	a := &Artifact{Dir: workspace}
	if err := n.extract(a, path, format); err != nil {
		a.Cleanup()
		return nil, err
	}

	m, err := findManifest(workspace)
	if err != nil {
		a.Cleanup()
		return nil, err
	}
	a.Manifest = m

	size, err := treeSize(workspace)
	if err != nil {
		a.Cleanup()
		return nil, fmt.Errorf("computing package size: %w", err)
	}
	a.TotalSize = size

	return a, nil
}

func (n *Normalizer) extract(a *Artifact, path string, format Format) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	if format == FormatAuto && info.IsDir() {
		format = FormatDirectory
	}

	switch format {
	case FormatDirectory:
		if !info.IsDir() {
			return fmt.Errorf("input %q is not a directory", path)
		}
		return copyTree(path, a.Dir)
	case FormatZip, FormatCRX, FormatAuto:
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading container: %w", err)
		}
		return extractContainer(data, a.Dir, format)
	default:
		return fmt.Errorf("unsupported container format")
	}
}

// extractContainer unpacks a ZIP or CRX-style byte stream. CRX containers
// carry a vendor header before the ZIP payload; everything before the ZIP
// local-file-header magic is discarded.
func extractContainer(data []byte, dest string, format Format) error {
	if format == FormatCRX || (format == FormatAuto && !bytes.HasPrefix(data, zipMagic)) {
		start := bytes.Index(data, zipMagic)
		if start == -1 {
			return ErrNoEmbeddedArchive
		}
		data = data[start:]
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if format == FormatCRX || format == FormatAuto {
			return ErrNoEmbeddedArchive
		}
		return fmt.Errorf("opening archive: %w", err)
	}

	var totalSize int64
	fileCount := 0
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}

		fileCount++
		size := int64(f.UncompressedSize64)
		if err := validateLimits(fileCount, size, totalSize); err != nil {
			return err
		}
		totalSize += size

		cleanName := sanitizePath(f.Name)
		if cleanName == "" {
			continue
		}
		if err := extractFile(f, dest, cleanName); err != nil {
			return err
		}
	}

	return nil
}

func validateLimits(fileCount int, fileSize, totalSize int64) error {
	if fileCount > maxFiles {
		return fmt.Errorf("archive exceeds maximum file count (%d)", maxFiles)
	}
	if fileSize > maxFileSize {
		return fmt.Errorf("file exceeds maximum size (%d bytes)", maxFileSize)
	}
	if totalSize+fileSize > maxTotalSize {
		return fmt.Errorf("archive exceeds maximum total size (%d bytes)", maxTotalSize)
	}
	return nil
}

func extractFile(f *zip.File, dest, cleanName string) error {
	destPath := filepath.Join(dest, cleanName)

	if !strings.HasPrefix(filepath.Clean(destPath), filepath.Clean(dest)+string(os.PathSeparator)) {
		return fmt.Errorf("path traversal detected: %q", cleanName)
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return fmt.Errorf("creating directory for %q: %w", cleanName, err)
	}

	src, err := f.Open()
	if err != nil {
		return fmt.Errorf("opening archive entry %q: %w", cleanName, err)
	}
	defer src.Close()

	out, err := os.OpenFile(destPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating file %q: %w", cleanName, err)
	}

	_, err = io.Copy(out, io.LimitReader(src, maxFileSize))
	out.Close()
	if err != nil {
		return fmt.Errorf("writing file %q: %w", cleanName, err)
	}

	return nil
}

// sanitizePath cleans an archive entry path. Empty, absolute, or traversal
// paths are rejected.
func sanitizePath(name string) string {
	name = filepath.Clean(filepath.FromSlash(name))
	if name == "." || name == "" || filepath.IsAbs(name) || strings.Contains(name, "..") {
		return ""
	}
	return name
}

// copyTree deep-copies a directory into the workspace.
func copyTree(src, dest string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("copying %q: %w", rel, err)
		}
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return err
		}
		return os.WriteFile(target, data, 0o644)
	})
}

// findManifest loads manifest.json from the workspace root, falling back to
// the first match from a recursive search.
func findManifest(dir string) (manifest.Manifest, error) {
	rootPath := filepath.Join(dir, "manifest.json")
	if data, err := os.ReadFile(rootPath); err == nil {
		return manifest.Parse(data)
	}

	var found string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && d.Name() == "manifest.json" {
			found = path
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("searching for manifest: %w", err)
	}
	if found == "" {
		return nil, ErrManifestNotFound
	}

	data, err := os.ReadFile(found)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return manifest.Parse(data)
}

func treeSize(dir string) (int64, error) {
	var total int64
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}
