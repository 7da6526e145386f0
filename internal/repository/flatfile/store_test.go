package flatfile

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/inventario/internal/domain/models"
)

const sampleInventory = "P001|Cámara digital|5|249.99\nP002|Cable HDMI|20|5.50\n"

func writeInventory(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "inventario.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func openStore(t *testing.T, content string) *Store {
	t.Helper()

	s, _, err := Open(writeInventory(t, content), nil)
	require.NoError(t, err)
	return s
}

func ids(s *Store) []string {
	var out []string
	for p := range s.List() {
		out = append(out, p.ID)
	}
	return out
}

func ptr[T any](v T) *T { return &v }

func TestLoadParsesWellFormedLines(t *testing.T) {
	t.Parallel()

	s := openStore(t, sampleInventory)

	require.Equal(t, 2, s.Len())
	p, ok := s.Find("P001")
	require.True(t, ok)
	require.Equal(t, models.Product{ID: "P001", Name: "Cámara digital", Quantity: 5, Price: 249.99}, p)
	require.Equal(t, []string{"P001", "P002"}, ids(s))
}

func TestLoadSkipsMalformedLines(t *testing.T) {
	t.Parallel()

	path := writeInventory(t, "P001|Cámara digital|5|249.99\nP002|Cable HDMI|20\n")
	s, report, err := Open(path, nil)
	require.NoError(t, err)
	require.Equal(t, 1, s.Len())
	require.Equal(t, LoadReport{Loaded: 1, Skipped: 1}, report)
}

func TestLoadSkipsNonNumericAndNegativeFields(t *testing.T) {
	t.Parallel()

	content := "A|ok|1|1.5\nB|bad qty|x|1\nC|bad price|1|abc\nD|negative|-1|2\n\n   \nE|too|many|1|2\n|no id|1|1\n"
	s, report, err := Open(writeInventory(t, content), nil)
	require.NoError(t, err)
	require.Equal(t, []string{"A"}, ids(s))
	require.Equal(t, 5, report.Skipped)
}

func TestLoadMissingFileCreatesEmptyFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "inventario.txt")
	s, report, err := Open(path, nil)
	require.NoError(t, err)
	require.True(t, report.Created)
	require.Zero(t, s.Len())

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Zero(t, info.Size())
}

func TestLoadDuplicateIDsLastWriteWins(t *testing.T) {
	t.Parallel()

	s, report, err := Open(writeInventory(t, "A|first|1|1\nB|other|2|2\nA|second|3|3\n"), nil)
	require.NoError(t, err)
	require.Equal(t, 1, report.Duplicates)
	require.Equal(t, []string{"A", "B"}, ids(s))

	p, ok := s.Find("A")
	require.True(t, ok)
	require.Equal(t, "second", p.Name)
	require.Equal(t, 3, p.Quantity)
}

func TestLoadPermissionDenied(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced for root")
	}
	t.Parallel()

	path := writeInventory(t, sampleInventory)
	require.NoError(t, os.Chmod(path, 0o000))
	t.Cleanup(func() { _ = os.Chmod(path, 0o644) })

	_, _, err := Open(path, nil)
	require.ErrorIs(t, err, ErrPermission)
}

func TestLoadDirectoryIsIOError(t *testing.T) {
	t.Parallel()

	_, _, err := Open(t.TempDir(), nil)
	require.ErrorIs(t, err, ErrIO)
}

func TestAddThenFind(t *testing.T) {
	t.Parallel()

	s := openStore(t, sampleInventory)
	mouse := models.Product{ID: "P003", Name: "Mouse", Quantity: 10, Price: 15}

	require.NoError(t, s.Add(mouse))
	got, ok := s.Find("P003")
	require.True(t, ok)
	require.Equal(t, mouse, got)
	require.Equal(t, []string{"P001", "P002", "P003"}, ids(s))
}

func TestAddDuplicateFails(t *testing.T) {
	t.Parallel()

	s := openStore(t, sampleInventory)
	err := s.Add(models.Product{ID: "P001", Name: "Other", Quantity: 1, Price: 1})
	require.ErrorIs(t, err, ErrDuplicateKey)

	p, _ := s.Find("P001")
	require.Equal(t, "Cámara digital", p.Name)
}

func TestAddRejectsInvalidProducts(t *testing.T) {
	t.Parallel()

	s := openStore(t, "")
	cases := []models.Product{
		{ID: "", Name: "x", Quantity: 1, Price: 1},
		{ID: "A|B", Name: "x", Quantity: 1, Price: 1},
		{ID: "A", Name: "pipe|name", Quantity: 1, Price: 1},
		{ID: "A", Name: "line\nbreak", Quantity: 1, Price: 1},
		{ID: "A", Name: "x", Quantity: -1, Price: 1},
		{ID: "A", Name: "x", Quantity: 1, Price: -0.5},
	}
	for _, p := range cases {
		require.ErrorIs(t, s.Add(p), ErrInvalidProduct, "product %+v", p)
	}
	require.Zero(t, s.Len())
}

func TestDeleteThenFind(t *testing.T) {
	t.Parallel()

	s := openStore(t, sampleInventory)
	removed, err := s.Delete("P001")
	require.NoError(t, err)
	require.Equal(t, "P001", removed.ID)

	_, ok := s.Find("P001")
	require.False(t, ok)
	require.Equal(t, []string{"P002"}, ids(s))

	_, err = s.Delete("P001")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateAppliesChanges(t *testing.T) {
	t.Parallel()

	s := openStore(t, sampleInventory)
	updated, err := s.Update("P002", models.ProductUpdate{Quantity: ptr(18), Price: ptr(6.25)})
	require.NoError(t, err)
	require.Equal(t, models.Product{ID: "P002", Name: "Cable HDMI", Quantity: 18, Price: 6.25}, updated)

	reloaded, _, err := Open(s.Path(), nil)
	require.NoError(t, err)
	got, _ := reloaded.Find("P002")
	require.Equal(t, updated, got)
}

func TestUpdateMissingLeavesStateUnchanged(t *testing.T) {
	t.Parallel()

	s := openStore(t, sampleInventory)
	before := slices.Collect(s.List())

	_, err := s.Update("P999", models.ProductUpdate{Name: ptr("ghost")})
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, before, slices.Collect(s.List()))
}

func TestUpdateRejectsInvalidChanges(t *testing.T) {
	t.Parallel()

	s := openStore(t, sampleInventory)
	_, err := s.Update("P001", models.ProductUpdate{Quantity: ptr(-3)})
	require.ErrorIs(t, err, ErrInvalidProduct)

	p, _ := s.Find("P001")
	require.Equal(t, 5, p.Quantity)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()

	s := openStore(t, sampleInventory+"broken line\n")
	require.NoError(t, s.Add(models.Product{ID: "X", Name: "Precise", Quantity: 0, Price: 0.1}))
	require.NoError(t, s.Save())

	reloaded, report, err := Open(s.Path(), nil)
	require.NoError(t, err)
	require.Zero(t, report.Skipped)
	require.Equal(t, slices.Collect(s.List()), slices.Collect(reloaded.List()))
}

func TestSaveFailureKeepsStateAndMarksDirty(t *testing.T) {
	t.Parallel()

	s := openStore(t, sampleInventory)
	require.NoError(t, os.Remove(s.Path()))
	require.NoError(t, os.Mkdir(s.Path(), 0o755))

	err := s.Add(models.Product{ID: "P003", Name: "Mouse", Quantity: 10, Price: 15})
	require.ErrorIs(t, err, ErrIO)
	require.True(t, s.Dirty())
	_, ok := s.Find("P003")
	require.True(t, ok)

	require.NoError(t, os.Remove(s.Path()))
	require.NoError(t, s.Close())
	require.False(t, s.Dirty())

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	require.Equal(t, "P001|Cámara digital|5|249.99\nP002|Cable HDMI|20|5.5\nP003|Mouse|10|15\n", string(data))
}

func TestSaveKeepsOSCause(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced for root")
	}
	t.Parallel()

	s := openStore(t, sampleInventory)
	require.NoError(t, os.Chmod(s.Path(), 0o444))
	t.Cleanup(func() { _ = os.Chmod(s.Path(), 0o644) })

	err := s.Save()
	require.ErrorIs(t, err, ErrIO)
	require.ErrorIs(t, err, fs.ErrPermission)
}

func TestWritesBeforeLoadFail(t *testing.T) {
	t.Parallel()

	s := NewStore(filepath.Join(t.TempDir(), "inventario.txt"), nil)
	require.ErrorIs(t, s.Add(models.Product{ID: "A", Name: "a", Quantity: 1, Price: 1}), ErrNotLoaded)
	require.ErrorIs(t, s.Save(), ErrNotLoaded)
	require.Zero(t, s.Len())
}

func TestListIsRestartable(t *testing.T) {
	t.Parallel()

	s := openStore(t, sampleInventory)
	seq := s.List()
	require.Len(t, slices.Collect(seq), 2)
	require.Len(t, slices.Collect(seq), 2)

	for p := range seq {
		require.Equal(t, "P001", p.ID)
		break
	}
}

func TestSearchReturnsEmptyWithoutMatch(t *testing.T) {
	t.Parallel()

	s := openStore(t, sampleInventory)
	require.Empty(t, s.Search(func(p models.Product) bool { return p.Quantity > 100 }))

	cheap := s.Search(func(p models.Product) bool { return p.Price < 10 })
	require.Len(t, cheap, 1)
	require.Equal(t, "P002", cheap[0].ID)
}

func TestReloadPicksUpExternalEdits(t *testing.T) {
	t.Parallel()

	s := openStore(t, sampleInventory)
	require.NoError(t, os.WriteFile(s.Path(), []byte("Z|Zapato|1|30\n"), 0o644))

	report, err := s.Reload()
	require.NoError(t, err)
	require.Equal(t, 1, report.Loaded)
	require.Equal(t, []string{"Z"}, ids(s))
}

func TestAddSaveReloadScenario(t *testing.T) {
	t.Parallel()

	s := openStore(t, sampleInventory)
	require.NoError(t, s.Add(models.Product{ID: "P003", Name: "Mouse", Quantity: 10, Price: 15.00}))
	require.NoError(t, s.Save())

	_, err := s.Reload()
	require.NoError(t, err)
	require.Equal(t, 3, s.Len())

	p, ok := s.Find("P003")
	require.True(t, ok)
	require.Equal(t, 10, p.Quantity)
	require.Equal(t, 15.00, p.Price)
}
