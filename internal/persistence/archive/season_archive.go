package archive

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"farmgrid.io/internal/persistence/save"
)

type SeasonArchiveMeta struct {
	Season    string `json:"season"`
	Year      int    `json:"year"`
	EndDay    int    `json:"end_day"`
	SaveFile  string `json:"save_file"`
	Version   string `json:"version"`
	SavedAt   int64  `json:"saved_at"`
	CreatedAt string `json:"created_at"`
}

// ArchiveSeasonSave copies the last save written during a finished season
// into `farmDir/archives/year_NNN_<season>/`. The caller detects the
// boundary by comparing season and year across consecutive autosaves and
// passes the older document here.
func ArchiveSeasonSave(farmDir, savePath string, doc *save.SaveV1) (archivedPath string, err error) {
	if doc == nil {
		return "", fmt.Errorf("nil save document")
	}
	season := strings.ToLower(strings.TrimSpace(doc.Time.Season))
	if season == "" {
		return "", fmt.Errorf("save document has no season")
	}

	archiveDir := filepath.Join(farmDir, "archives", fmt.Sprintf("year_%03d_%s", doc.Time.Year, season))
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return "", err
	}

	dst := filepath.Join(archiveDir, filepath.Base(savePath))
	if err := copyFile(savePath, dst); err != nil {
		return "", err
	}

	meta := SeasonArchiveMeta{
		Season:    doc.Time.Season,
		Year:      doc.Time.Year,
		EndDay:    doc.Time.Day,
		SaveFile:  filepath.Base(dst),
		Version:   doc.Version,
		SavedAt:   doc.Timestamp,
		CreatedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if b, err := json.MarshalIndent(meta, "", "  "); err == nil {
		_ = os.WriteFile(filepath.Join(archiveDir, "meta.json"), b, 0o644)
	}

	return dst, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
