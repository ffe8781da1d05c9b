package dataset

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

const sampleCSV = `age,sex,bmi,children,smoker,region,charges
19,female,27.9,0,yes,southwest,16884.924
18,male,33.77,1,no,southeast,1725.5523
28,male,33,3,no,southeast,4449.462
62,female,26.29,0,yes,southeast,27808.7251
25,male,26.22,0,no,northeast,2721.3208
`

func TestParseCSV(t *testing.T) {
	rows, skipped, err := ParseCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if skipped != 0 {
		t.Fatalf("expected no skipped rows, got %d", skipped)
	}
	if len(rows) != 5 {
		t.Fatalf("expected 5 rows, got %d", len(rows))
	}
	first := rows[0]
	if first.Age != 19 || first.Sex != "female" || first.BMI != 27.9 || first.Smoker != "yes" || first.Region != "southwest" {
		t.Fatalf("unexpected first row: %+v", first)
	}
}

func TestParseCSVColumnOrderAndBadRows(t *testing.T) {
	data := `Charges,Region,Smoker,Children,BMI,Sex,Age
1000.5,NorthEast,No,0,22.1,Male,30
oops,northeast,no,0,22.1,male,30
2000,moon,no,0,22.1,male,30
3000,southwest,yes,2,31,female,45
`
	rows, skipped, err := ParseCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 || skipped != 2 {
		t.Fatalf("expected 2 rows and 2 skipped, got %d and %d", len(rows), skipped)
	}
	if rows[0].Region != "northeast" || rows[0].Sex != "male" || rows[0].Charges != 1000.5 {
		t.Fatalf("unexpected normalized row: %+v", rows[0])
	}
}

func TestParseCSVSkipsNonFiniteNumbers(t *testing.T) {
	data := `age,sex,bmi,children,smoker,region,charges
40,female,inf,1,yes,southwest,2000
41,male,30.5,1,no,northwest,NaN
42,male,-Infinity,0,no,northwest,3000
43,female,28.1,2,no,southeast,9000.25
`
	rows, skipped, err := ParseCSV(strings.NewReader(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || skipped != 3 {
		t.Fatalf("expected 1 row and 3 skipped, got %d and %d", len(rows), skipped)
	}
	if rows[0].Age != 43 {
		t.Fatalf("unexpected row kept: %+v", rows[0])
	}
}

func TestParseCSVMissingColumn(t *testing.T) {
	_, _, err := ParseCSV(strings.NewReader("age,sex,bmi\n19,female,27.9\n"))
	if err == nil {
		t.Fatal("expected error for missing columns")
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, _, err := LoadFile(filepath.Join(t.TempDir(), "nope.csv"))
	if !errors.Is(err, ErrDatasetUnavailable) {
		t.Fatalf("expected ErrDatasetUnavailable, got %v", err)
	}
	if !IsUnavailable(err) {
		t.Fatal("IsUnavailable should report true")
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := OpenStore(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	rows, _, err := ParseCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := store.Replace(context.Background(), rows); err != nil {
		t.Fatalf("replace: %v", err)
	}
	return store
}

func TestStoreQueries(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	count, err := store.Count(ctx)
	if err != nil || count != 5 {
		t.Fatalf("Count: got %d, %v", count, err)
	}

	rows, err := store.Rows(ctx, 2)
	if err != nil {
		t.Fatalf("Rows: %v", err)
	}
	if len(rows) != 2 || rows[0].Age != 19 || rows[1].Age != 18 {
		t.Fatalf("unexpected rows: %+v", rows)
	}

	means, err := store.MeanCharges(ctx, "smoker")
	if err != nil {
		t.Fatalf("MeanCharges: %v", err)
	}
	if len(means) != 2 || means[0].Key != "no" || means[1].Key != "yes" {
		t.Fatalf("unexpected means: %+v", means)
	}
	wantNo := (1725.5523 + 4449.462 + 2721.3208) / 3
	if math.Abs(means[0].Mean-wantNo) > 1e-6 || means[0].Count != 3 {
		t.Fatalf("unexpected non-smoker mean: %+v", means[0])
	}

	ages, err := store.Column(ctx, "age")
	if err != nil {
		t.Fatalf("Column: %v", err)
	}
	if len(ages) != 5 || ages[3] != 62 {
		t.Fatalf("unexpected ages: %v", ages)
	}

	groups, err := store.ValuesBy(ctx, "smoker", "charges")
	if err != nil {
		t.Fatalf("ValuesBy: %v", err)
	}
	if len(groups) != 2 || groups[0].Key != "no" || len(groups[0].Values) != 3 || len(groups[1].Values) != 2 {
		t.Fatalf("unexpected groups: %+v", groups)
	}

	if _, err := store.MeanCharges(ctx, "charges; DROP TABLE insurance"); err == nil {
		t.Fatal("expected error for unknown dimension")
	}
	if _, err := store.Column(ctx, "region"); err == nil {
		t.Fatal("expected error for non-numeric column")
	}
}

func TestStoreReplace(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	if err := store.Replace(ctx, []Row{{Age: 40, Sex: "male", BMI: 30, Smoker: "no", Region: "northwest", Charges: 5000}}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	count, err := store.Count(ctx)
	if err != nil || count != 1 {
		t.Fatalf("expected 1 row after replace, got %d, %v", count, err)
	}
}

func TestStoreLoadFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "insurance.csv")
	if err := os.WriteFile(path, []byte(sampleCSV+"bad,row\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	store, err := OpenStore("")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	loaded, skipped, err := store.LoadFile(ctx, path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if loaded != 5 || skipped != 1 {
		t.Fatalf("expected 5 loaded and 1 skipped, got %d and %d", loaded, skipped)
	}
}

func TestWatcherFiresOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "insurance.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o600); err != nil {
		t.Fatal(err)
	}

	var calls atomic.Int32
	fired := make(chan struct{}, 1)
	w, err := NewWatcher(path, 20*time.Millisecond, func() {
		calls.Add(1)
		select {
		case fired <- struct{}{}:
		default:
		}
	}, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	if err := os.WriteFile(filepath.Join(dir, "other.csv"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(sampleCSV), 0o600); err != nil {
		t.Fatal(err)
	}

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not fire")
	}
	if calls.Load() < 1 {
		t.Fatal("expected at least one change callback")
	}
}

func TestWatcherFiresOnRemove(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "insurance.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o600); err != nil {
		t.Fatal(err)
	}

	fired := make(chan struct{}, 1)
	w, err := NewWatcher(path, 20*time.Millisecond, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	}, zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}

	select {
	case <-fired:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not fire after the file was removed")
	}
}
