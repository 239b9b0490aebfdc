package alerts

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func intPtr(n int) *int { return &n }

func TestLoad_MissingFile(t *testing.T) {
	store, err := Load(filepath.Join(t.TempDir(), "alerts.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(store) != 0 {
		t.Errorf("store = %v, want empty", store)
	}
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.json")
	os.WriteFile(path, []byte("{not json"), 0644)

	_, err := Load(path)
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want PersistenceError", err)
	}
	if perr.Op != "load" {
		t.Errorf("Op = %q, want load", perr.Op)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.json")
	store := Store{}
	a, err := Create(store, CreateParams{ItemID: 5114, ItemName: "Dark Matter", MinPrice: "100", MaxPrice: "1000", World: "Jenova"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.UUID == "" {
		t.Fatal("Create did not assign an identifier")
	}

	if err := Save(path, store); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(loaded, store) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, store)
	}
}

func TestSaveLoad_LegacyEntryWithoutUUID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.json")
	raw := `{"5114": [{"item_name": "Dark Matter", "min_price": 100, "created_at": "2023-01-02 03:04:05", "active": true}]}`
	os.WriteFile(path, []byte(raw), 0644)

	store, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := ListForItem(store, 5114)
	if len(got) != 1 {
		t.Fatalf("alerts = %d, want 1", len(got))
	}
	if got[0].UUID != "" {
		t.Errorf("UUID = %q, want empty (legacy record)", got[0].UUID)
	}
	if got[0].MinPrice == nil || *got[0].MinPrice != 100 {
		t.Errorf("MinPrice = %v, want 100", got[0].MinPrice)
	}
	if got[0].MaxPrice != nil {
		t.Errorf("MaxPrice = %v, want absent", got[0].MaxPrice)
	}

	// A second round trip must preserve the legacy shape.
	if err := Save(path, store); err != nil {
		t.Fatalf("Save: %v", err)
	}
	again, err := Load(path)
	if err != nil {
		t.Fatalf("Load again: %v", err)
	}
	if !reflect.DeepEqual(again, store) {
		t.Errorf("legacy round trip mismatch:\n got %+v\nwant %+v", again, store)
	}
}

func TestCreate_RequiresThreshold(t *testing.T) {
	_, err := Create(Store{}, CreateParams{ItemID: 1, ItemName: "X"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestCreate_RejectsNonNumericPrice(t *testing.T) {
	_, err := Create(Store{}, CreateParams{ItemID: 1, ItemName: "X", MinPrice: "cheap"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if verr.Field != "min_price" {
		t.Errorf("Field = %q, want min_price", verr.Field)
	}
}

func TestCreate_RejectsNegativePrice(t *testing.T) {
	_, err := Create(Store{}, CreateParams{ItemID: 1, ItemName: "X", MaxPrice: "-5"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestCreate_RejectsMinAboveMax(t *testing.T) {
	_, err := Create(Store{}, CreateParams{ItemID: 1, ItemName: "X", MinPrice: "1000", MaxPrice: "100"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func TestCreate_WorldTakesPrecedenceOverDataCenter(t *testing.T) {
	store := Store{}
	a, err := Create(store, CreateParams{ItemID: 1, ItemName: "X", MinPrice: "10", World: "Jenova", DataCenter: "Aether"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.World != "Jenova" || a.DataCenter != "" {
		t.Errorf("scope = world %q / dc %q, want Jenova / empty", a.World, a.DataCenter)
	}
}

func TestCreate_WorldAllFallsBackToDataCenter(t *testing.T) {
	store := Store{}
	a, err := Create(store, CreateParams{ItemID: 1, ItemName: "X", MinPrice: "10", World: "All", DataCenter: "Aether"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if a.World != "" || a.DataCenter != "Aether" {
		t.Errorf("scope = world %q / dc %q, want empty / Aether", a.World, a.DataCenter)
	}
}

func TestCreate_UniqueIdentifiers(t *testing.T) {
	store := Store{}
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		a, err := Create(store, CreateParams{ItemID: i % 3, ItemName: "X", MinPrice: "10"})
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if seen[a.UUID] {
			t.Fatalf("duplicate identifier %s", a.UUID)
		}
		seen[a.UUID] = true
	}
}

func TestListAll_Flattens(t *testing.T) {
	store := Store{}
	Create(store, CreateParams{ItemID: 2, ItemName: "B", MinPrice: "1"})
	Create(store, CreateParams{ItemID: 10, ItemName: "C", MinPrice: "1"})
	Create(store, CreateParams{ItemID: 2, ItemName: "B2", MaxPrice: "9"})

	all := ListAll(store)
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	// Bucket order is stable (numeric), insertion order inside buckets.
	if all[0].Alert.ItemName != "B" || all[1].Alert.ItemName != "B2" || all[2].Alert.ItemName != "C" {
		t.Errorf("order = %s, %s, %s", all[0].Alert.ItemName, all[1].Alert.ItemName, all[2].Alert.ItemName)
	}
}

func TestDeleteByID(t *testing.T) {
	store := Store{}
	a, _ := Create(store, CreateParams{ItemID: 7, ItemName: "X", MinPrice: "10"})
	b, _ := Create(store, CreateParams{ItemID: 7, ItemName: "Y", MinPrice: "20"})

	if !DeleteByID(store, a.UUID) {
		t.Fatal("DeleteByID returned false for existing alert")
	}
	left := ListForItem(store, 7)
	if len(left) != 1 || left[0].UUID != b.UUID {
		t.Errorf("remaining = %+v, want only %s", left, b.UUID)
	}
	if DeleteByID(store, a.UUID) {
		t.Error("DeleteByID returned true for removed alert")
	}
	if DeleteByID(store, "") {
		t.Error("DeleteByID matched an empty identifier")
	}

	if !DeleteByID(store, b.UUID) {
		t.Fatal("DeleteByID returned false for last alert")
	}
	if _, ok := store["7"]; ok {
		t.Error("empty bucket was not removed")
	}
}

func TestDeleteByItemAndIndex(t *testing.T) {
	store := Store{}
	Create(store, CreateParams{ItemID: 7, ItemName: "X", MinPrice: "10"})
	Create(store, CreateParams{ItemID: 7, ItemName: "Y", MinPrice: "20"})

	if DeleteByItemAndIndex(store, 7, 5) {
		t.Error("out-of-range index reported success")
	}
	if DeleteByItemAndIndex(store, 7, -1) {
		t.Error("negative index reported success")
	}
	if !DeleteByItemAndIndex(store, 7, 0) {
		t.Fatal("positional delete failed")
	}
	left := ListForItem(store, 7)
	if len(left) != 1 || left[0].ItemName != "Y" {
		t.Errorf("remaining = %+v, want Y", left)
	}
	if !DeleteByItemAndIndex(store, 7, 0) {
		t.Fatal("positional delete of last alert failed")
	}
	if _, ok := store["7"]; ok {
		t.Error("empty bucket was not removed")
	}
}

func TestAlertLocation(t *testing.T) {
	a := Alert{World: "Jenova", DataCenter: "Aether"}
	if got := a.Location("All"); got != "Jenova" {
		t.Errorf("Location = %q, want Jenova", got)
	}
	a.World = ""
	if got := a.Location("All"); got != "Aether" {
		t.Errorf("Location = %q, want Aether", got)
	}
	a.DataCenter = ""
	if got := a.Location("All"); got != "All" {
		t.Errorf("Location = %q, want All", got)
	}
}
