// Package artifacts handles run bookkeeping: numbered run directories and
// the files written into them. All data arriving here is already in
// original-image coordinates.
package artifacts

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"

	"github.com/graspmind/graspmind/pkg/mask"
	"github.com/graspmind/graspmind/pkg/pipeline"
)

var runDirPattern = regexp.MustCompile(`^run_(\d+)$`)

// Saver writes run artifacts under a base directory.
type Saver struct {
	baseDir string
}

// NewSaver creates a Saver rooted at baseDir, creating it if needed.
func NewSaver(baseDir string) (*Saver, error) {
	if err := ensureDir(baseDir); err != nil {
		return nil, err
	}
	return &Saver{baseDir: baseDir}, nil
}

// NextRunNumber scans the base directory for run_N entries and returns the
// next free number, starting at 1.
func (s *Saver) NextRunNumber() (int, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read output directory: %w", err)
	}
	max := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		m := runDirPattern.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		if n, err := strconv.Atoi(m[1]); err == nil && n > max {
			max = n
		}
	}
	return max + 1, nil
}

// CreateRunDir creates and returns the directory for one run.
func (s *Saver) CreateRunDir() (string, error) {
	n, err := s.NextRunNumber()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(s.baseDir, fmt.Sprintf("run_%03d", n))
	if err := ensureDir(dir); err != nil {
		return "", err
	}
	return dir, nil
}

// SaveResult writes the result record as indented JSON.
func (s *Saver) SaveResult(runDir string, result *pipeline.Result) (string, error) {
	path := filepath.Join(runDir, "result.json")
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write result: %w", err)
	}
	return path, nil
}

// SaveMask writes the segmentation mask as a grayscale PNG.
func (s *Saver) SaveMask(runDir string, m *mask.Mask) (string, error) {
	path := filepath.Join(runDir, "mask.png")
	if err := imaging.Save(m.ToImage(), path); err != nil {
		return "", fmt.Errorf("failed to save mask: %w", err)
	}
	return path, nil
}

// SaveOverlay writes a rendered overlay image as lossy WebP. Overlays are
// inspection aids; WebP keeps them small next to the lossless mask.
func (s *Saver) SaveOverlay(runDir string, img image.Image) (string, error) {
	path := filepath.Join(runDir, "overlay.webp")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create overlay file: %w", err)
	}
	defer f.Close()
	if err := webp.Encode(f, img, &webp.Options{Quality: 85}); err != nil {
		return "", fmt.Errorf("failed to encode overlay: %w", err)
	}
	return path, nil
}

// SaveSessionInfo records the request that produced this run.
func (s *Saver) SaveSessionInfo(runDir, imagePath, instruction string) (string, error) {
	path := filepath.Join(runDir, "session.json")
	info := map[string]string{
		"image":       imagePath,
		"instruction": instruction,
		"timestamp":   time.Now().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal session info: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write session info: %w", err)
	}
	return path, nil
}

func ensureDir(dir string) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	}
	return nil
}

// SanitizeFilename replaces characters that are invalid in filenames.
func SanitizeFilename(name string) string {
	invalid := []string{"/", "\\", ":", "*", "?", "\"", "<", ">", "|"}
	for _, ch := range invalid {
		name = strings.ReplaceAll(name, ch, "_")
	}
	return strings.Trim(name, " .")
}
