// ABOUTME: Read-only preview providers for the triage pane.
// ABOUTME: Renders text heads, directory listings, and stat cards; never mutates anything.
package preview

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	maxTextBytes  = 64 * 1024
	maxTextLines  = 30
	maxDirEntries = 20
)

var textExts = map[string]bool{
	".txt": true, ".md": true, ".log": true, ".csv": true, ".json": true,
	".yaml": true, ".yml": true, ".toml": true, ".xml": true, ".html": true,
	".go": true, ".py": true, ".js": true, ".ts": true, ".sh": true,
	".c": true, ".h": true, ".rs": true, ".rb": true, ".sql": true,
}

var imageExts = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".webp": true,
	".bmp": true, ".tiff": true, ".svg": true, ".heic": true,
}

// Render produces a preview string for the item at path. It never fails: any
// error becomes part of the rendered text.
func Render(path string) string {
	info, err := os.Lstat(path)
	if err != nil {
		return fmt.Sprintf("preview unavailable: %v", err)
	}
	if info.IsDir() {
		return renderDir(path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case textExts[ext]:
		return renderText(path, info)
	case imageExts[ext]:
		return renderStat(info, "Image")
	case ext == ".pdf":
		return renderStat(info, "PDF document")
	default:
		return renderStat(info, "File")
	}
}

func renderDir(path string) string {
	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Sprintf("preview unavailable: %v", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			name += "/"
		}
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "Folder with %d entries\n\n", len(names))
	shown := names
	if len(shown) > maxDirEntries {
		shown = shown[:maxDirEntries]
	}
	for _, name := range shown {
		b.WriteString("  " + name + "\n")
	}
	if len(names) > maxDirEntries {
		fmt.Fprintf(&b, "  … and %d more\n", len(names)-maxDirEntries)
	}
	return b.String()
}

func renderText(path string, info os.FileInfo) string {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Sprintf("preview unavailable: %v", err)
	}
	defer f.Close()

	buf := make([]byte, maxTextBytes)
	n, _ := f.Read(buf)
	buf = buf[:n]
	if bytes.IndexByte(buf, 0) >= 0 {
		return renderStat(info, "Binary file")
	}

	lines := strings.Split(string(buf), "\n")
	truncated := int64(n) < info.Size() || len(lines) > maxTextLines
	if len(lines) > maxTextLines {
		lines = lines[:maxTextLines]
	}
	text := strings.Join(lines, "\n")
	if truncated {
		text += "\n…"
	}
	return text
}

func renderStat(info os.FileInfo, kind string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name:     %s\n", info.Name())
	fmt.Fprintf(&b, "Type:     %s\n", kind)
	fmt.Fprintf(&b, "Size:     %s\n", HumanSize(info.Size()))
	fmt.Fprintf(&b, "Modified: %s\n", info.ModTime().Format("2006-01-02 15:04:05"))
	return b.String()
}

// HumanSize formats a byte count for display.
func HumanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
