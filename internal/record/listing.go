package record

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/verte-zerg/seatplay/internal/model"
)

// SeatFolderSuffix is appended to the seat total to name a record folder.
const SeatFolderSuffix = "_seats_simulations"

var plotExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".svg", ".txt"}

// SeatFolderName returns the folder name holding records for seats.
func SeatFolderName(seats int) string {
	return strconv.Itoa(seats) + SeatFolderSuffix
}

// SeatCount strips the folder suffix and parses the seat total. Folders
// without the suffix or with a non-numeric prefix report 0.
func SeatCount(folder string) int {
	prefix, ok := strings.CutSuffix(folder, SeatFolderSuffix)
	if !ok {
		return 0
	}
	return digits(prefix)
}

// StudentCount parses the student count of a "<students>-<run>.json" file name.
func StudentCount(file string) int {
	prefix, _, ok := strings.Cut(file, "-")
	if !ok {
		return 0
	}
	return digits(prefix)
}

func digits(s string) int {
	if s == "" {
		return 0
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func isRecordFile(name string) bool {
	return strings.HasSuffix(name, ".json") || strings.HasSuffix(name, ".json.gz")
}

// ListSeatFolders lists the seat folders under root sorted by seat count. A
// missing root yields an empty list.
func ListSeatFolders(root string) ([]model.SeatFolder, error) {
	entries, err := readDir(root)
	if err != nil {
		return nil, err
	}
	folders := []model.SeatFolder{}
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasSuffix(entry.Name(), SeatFolderSuffix) {
			continue
		}
		prefix := strings.TrimSuffix(entry.Name(), SeatFolderSuffix)
		folders = append(folders, model.SeatFolder{
			Value:     entry.Name(),
			Label:     prefix + " seats",
			SeatCount: SeatCount(entry.Name()),
		})
	}
	sort.SliceStable(folders, func(i, j int) bool {
		return folders[i].SeatCount < folders[j].SeatCount
	})
	return folders, nil
}

// ListStudentFiles lists the record files of one seat folder sorted by
// student count.
func ListStudentFiles(root, folder string) ([]model.StudentFile, error) {
	if folder == "" || strings.ContainsAny(folder, `/\`) || folder == "." || folder == ".." {
		return nil, fmt.Errorf("invalid seat folder %q", folder)
	}
	entries, err := readDir(filepath.Join(root, folder))
	if err != nil {
		return nil, err
	}
	files := []model.StudentFile{}
	for _, entry := range entries {
		if entry.IsDir() || !isRecordFile(entry.Name()) {
			continue
		}
		files = append(files, model.StudentFile{
			Path:         path.Join(folder, entry.Name()),
			Name:         entry.Name(),
			StudentCount: StudentCount(entry.Name()),
		})
	}
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].StudentCount < files[j].StudentCount
	})
	return files, nil
}

// Records lists the records under the source root.
func (s DirSource) Records(ctx context.Context) ([]model.RecordEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ListRecords(s.Root)
}

// ListRecords lists every record file one level below root.
func ListRecords(root string) ([]model.RecordEntry, error) {
	entries, err := readDir(root)
	if err != nil {
		return nil, err
	}
	records := []model.RecordEntry{}
	for _, dir := range entries {
		if !dir.IsDir() {
			continue
		}
		files, err := readDir(filepath.Join(root, dir.Name()))
		if err != nil {
			return nil, err
		}
		seatCount := "unknown"
		if prefix, ok := strings.CutSuffix(dir.Name(), SeatFolderSuffix); ok {
			seatCount = prefix
		}
		for _, f := range files {
			if f.IsDir() || !isRecordFile(f.Name()) {
				continue
			}
			records = append(records, model.RecordEntry{
				Path:      path.Join(dir.Name(), f.Name()),
				Name:      f.Name(),
				SeatCount: seatCount,
			})
		}
	}
	return records, nil
}

// ListPlots walks root for generated figures.
func ListPlots(root string) ([]model.PlotEntry, error) {
	plots := []model.PlotEntry{}
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && p == root {
				return filepath.SkipAll
			}
			return err
		}
		if d.IsDir() || !hasPlotExtension(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		plots = append(plots, model.PlotEntry{Path: filepath.ToSlash(rel), Name: d.Name()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return plots, nil
}

func hasPlotExtension(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range plotExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// readDir returns entries sorted by name; a missing directory is empty.
func readDir(dir string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	return entries, nil
}
