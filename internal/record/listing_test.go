package record

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestSeatAndStudentCounts(t *testing.T) {
	if got := SeatCount("12_seats_simulations"); got != 12 {
		t.Fatalf("expected 12, got %d", got)
	}
	if got := SeatCount("abc_seats_simulations"); got != 0 {
		t.Fatalf("expected 0 for non-numeric, got %d", got)
	}
	if got := SeatCount("12_other"); got != 0 {
		t.Fatalf("expected 0 without suffix, got %d", got)
	}
	if got := StudentCount("15-3.json"); got != 15 {
		t.Fatalf("expected 15, got %d", got)
	}
	if got := StudentCount("summary.json"); got != 0 {
		t.Fatalf("expected 0 without dash, got %d", got)
	}
	if SeatFolderName(9) != "9_seats_simulations" {
		t.Fatalf("unexpected folder name %q", SeatFolderName(9))
	}
}

func TestListSeatFoldersSortsBySeatCount(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"16_seats_simulations", "9_seats_simulations", "x_seats_simulations", "figures"} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	writeFile(t, filepath.Join(root, "4_seats_simulations"), []byte("not a dir"))

	folders, err := ListSeatFolders(root)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(folders) != 3 {
		t.Fatalf("expected 3 folders, got %+v", folders)
	}
	if folders[0].SeatCount != 0 || folders[1].SeatCount != 9 || folders[2].SeatCount != 16 {
		t.Fatalf("unexpected order: %+v", folders)
	}
	if folders[1].Label != "9 seats" || folders[1].Value != "9_seats_simulations" {
		t.Fatalf("unexpected folder: %+v", folders[1])
	}
}

func TestListStudentFiles(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "9_seats_simulations")
	writeFile(t, filepath.Join(dir, "12-1.json"), []byte("[]"))
	writeFile(t, filepath.Join(dir, "3-2.json.gz"), []byte("x"))
	writeFile(t, filepath.Join(dir, "notes.txt"), []byte("x"))

	files, err := ListStudentFiles(root, "9_seats_simulations")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 record files, got %+v", files)
	}
	if files[0].StudentCount != 3 || files[1].Path != "9_seats_simulations/12-1.json" {
		t.Fatalf("unexpected files: %+v", files)
	}
	if _, err := ListStudentFiles(root, "../etc"); err == nil {
		t.Fatalf("expected error for escaping folder")
	}
}

func TestListMissingRootIsEmpty(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	folders, err := ListSeatFolders(missing)
	if err != nil || len(folders) != 0 {
		t.Fatalf("expected empty listing, got %v %v", folders, err)
	}
	plots, err := ListPlots(missing)
	if err != nil || len(plots) != 0 {
		t.Fatalf("expected empty plots, got %v %v", plots, err)
	}
}

func TestListRecordsAndPlots(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "simulations", "9_seats_simulations", "5-1.json"), []byte("[]"))
	writeFile(t, filepath.Join(root, "simulations", "misc", "a.json"), []byte("[]"))
	writeFile(t, filepath.Join(root, "figures", "9_seats", "5.png"), []byte("x"))
	writeFile(t, filepath.Join(root, "figures", "readme.md"), []byte("x"))

	records, err := ListRecords(filepath.Join(root, "simulations"))
	if err != nil {
		t.Fatalf("records: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %+v", records)
	}
	if records[0].SeatCount != "9" || records[1].SeatCount != "unknown" {
		t.Fatalf("unexpected seat counts: %+v", records)
	}
	viaSource, err := DirSource{Root: filepath.Join(root, "simulations")}.Records(context.Background())
	if err != nil || len(viaSource) != 2 {
		t.Fatalf("expected source listing to match, got %+v (%v)", viaSource, err)
	}

	plots, err := ListPlots(filepath.Join(root, "figures"))
	if err != nil {
		t.Fatalf("plots: %v", err)
	}
	if len(plots) != 1 || plots[0].Path != "9_seats/5.png" {
		t.Fatalf("unexpected plots: %+v", plots)
	}
}
