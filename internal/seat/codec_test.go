package seat

import "testing"

func TestDecodeSparseState(t *testing.T) {
	grid := Decode(map[string]string{"0,0": "T", "1,1": "R"}, DefaultFallback)
	if grid.Rows != 2 || grid.Cols != 2 {
		t.Fatalf("expected 2x2 grid, got %dx%d", grid.Rows, grid.Cols)
	}
	want := map[Coord]Status{
		{0, 0}: Taken,
		{0, 1}: Vacant,
		{1, 0}: Vacant,
		{1, 1}: Reserved,
	}
	for coord, status := range want {
		if got := grid.At(coord.Row, coord.Col).Status; got != status {
			t.Fatalf("cell %v: expected %s, got %s", coord, status.Label(), got.Label())
		}
	}
	if len(grid.Cells) != 4 {
		t.Fatalf("expected 4 cells, got %d", len(grid.Cells))
	}
}

func TestDecodeRowMajorOrder(t *testing.T) {
	grid := Decode(map[string]string{"1,2": "S"}, DefaultFallback)
	if grid.Rows != 2 || grid.Cols != 3 {
		t.Fatalf("expected 2x3 grid, got %dx%d", grid.Rows, grid.Cols)
	}
	last := grid.Cells[len(grid.Cells)-1]
	if last.Coord != (Coord{Row: 1, Col: 2}) || last.Status != Signed {
		t.Fatalf("unexpected last cell: %+v", last)
	}
	if grid.Cells[1].Coord != (Coord{Row: 0, Col: 1}) {
		t.Fatalf("expected row-major order, got %+v", grid.Cells[1].Coord)
	}
}

func TestDecodeEmptyUsesFallback(t *testing.T) {
	grid := Decode(nil, DefaultFallback)
	if grid.Rows != 3 || grid.Cols != 3 {
		t.Fatalf("expected 3x3 fallback, got %dx%d", grid.Rows, grid.Cols)
	}
	if grid.Count(Vacant) != 9 {
		t.Fatalf("expected all vacant, got %d", grid.Count(Vacant))
	}
	grid = Decode(map[string]string{}, Extent{Rows: 2, Cols: 4})
	if grid.Rows != 2 || grid.Cols != 4 {
		t.Fatalf("expected caller fallback 2x4, got %dx%d", grid.Rows, grid.Cols)
	}
}

func TestDecodeIgnoresMalformedKeys(t *testing.T) {
	grid := Decode(map[string]string{
		"0,1":   "T",
		"x,y":   "T",
		"5":     "T",
		"-1,0":  "T",
		"2,3,4": "T",
		"":      "T",
	}, DefaultFallback)
	if grid.Rows != 1 || grid.Cols != 2 {
		t.Fatalf("expected 1x2 grid, got %dx%d", grid.Rows, grid.Cols)
	}
	if grid.Count(Taken) != 1 {
		t.Fatalf("expected one taken seat, got %d", grid.Count(Taken))
	}
}

func TestDecodeOnlyMalformedKeysYieldsEmptyGrid(t *testing.T) {
	grid := Decode(map[string]string{"seat": "T"}, DefaultFallback)
	if grid.Rows != 0 || grid.Cols != 0 || len(grid.Cells) != 0 {
		t.Fatalf("expected empty grid, got %+v", grid)
	}
}

func TestDecodeUnknownCodesAreVacant(t *testing.T) {
	grid := Decode(map[string]string{"0,0": "X", "0,1": "", "0,2": "TT", "0,3": "t"}, DefaultFallback)
	for _, cell := range grid.Cells {
		if cell.Status != Vacant {
			t.Fatalf("expected vacant for %v, got %s", cell.Coord, cell.Status.Label())
		}
		if cell.Label != "Vacant" {
			t.Fatalf("expected Vacant label, got %q", cell.Label)
		}
	}
}

func TestStatusIndicator(t *testing.T) {
	for _, s := range Statuses {
		if s.Indicator() != s.Code() {
			t.Fatalf("expected indicator %q to match code for %s", s.Indicator(), s.Label())
		}
	}
}

func TestCoordKeyRoundTrip(t *testing.T) {
	c := Coord{Row: 12, Col: 7}
	got, ok := ParseCoord(c.Key())
	if !ok || got != c {
		t.Fatalf("expected %v, got %v (%v)", c, got, ok)
	}
}

func TestDecodeIgnoresOversizedKeys(t *testing.T) {
	grid := Decode(map[string]string{
		"9223372036854775807,0": "T",
		"100000,100000":         "T",
		"0,4096":                "T",
		"1,2":                   "R",
	}, DefaultFallback)
	if grid.Rows != 2 || grid.Cols != 3 || len(grid.Cells) != 6 {
		t.Fatalf("expected 2x3 grid, got %dx%d with %d cells", grid.Rows, grid.Cols, len(grid.Cells))
	}
	if grid.Count(Taken) != 0 || grid.Count(Reserved) != 1 {
		t.Fatalf("unexpected statuses: taken=%d reserved=%d", grid.Count(Taken), grid.Count(Reserved))
	}
	if _, ok := ParseCoord("4095,4095"); !ok {
		t.Fatalf("expected largest index to parse")
	}
}
