package store

import (
	"errors"
	"testing"
	"time"

	"github.com/sadopc/timepie/internal/shared"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewMemory()
	if err != nil {
		t.Fatalf("new memory store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func newTestOwner(t *testing.T, s *Store, name string) *Owner {
	t.Helper()
	o, err := s.CreateOwner(name)
	if err != nil {
		t.Fatalf("create owner: %v", err)
	}
	return o
}

// ============================================================
// Store initialization
// ============================================================

func TestNewMemory(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	var version int
	s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if version != 1 {
		t.Fatalf("expected user_version 1, got %d", version)
	}
}

func TestNewWithPath(t *testing.T) {
	path := t.TempDir() + "/sub/timepie.db"
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	o := newTestOwner(t, s, "alice")
	s.Close()

	// Reopen: data survives and migrations are not re-run.
	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s2.Close()
	if _, err := s2.GetOwner(o.ID); err != nil {
		t.Fatalf("owner should survive reopen: %v", err)
	}
}

func TestDefaultDBPath(t *testing.T) {
	path, err := DefaultDBPath()
	if err != nil {
		t.Fatal(err)
	}
	if path == "" {
		t.Fatal("empty path")
	}
}

func TestPragmasConfigured(t *testing.T) {
	s := newTestStore(t)

	var fk int
	s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk)
	if fk != 1 {
		t.Fatalf("expected foreign_keys=1, got %d", fk)
	}
}

func TestMigrationIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.migrate(); err != nil {
		t.Fatalf("second migration failed: %v", err)
	}
}

// ============================================================
// Owners
// ============================================================

func TestCreateAndGetOwner(t *testing.T) {
	s := newTestStore(t)
	o := newTestOwner(t, s, "  alice ")
	if o.Name != "alice" {
		t.Fatalf("name should be trimmed, got %q", o.Name)
	}
	if !shared.ValidID(o.ID) || !shared.ValidID(o.Token) {
		t.Fatalf("id and token should be uuids: %+v", o)
	}
	if o.ID == o.Token {
		t.Fatal("id and token must differ")
	}
	if o.CreatedAt.IsZero() {
		t.Fatal("CreatedAt should be set")
	}

	got, err := s.GetOwnerByName("alice")
	if err != nil || got.ID != o.ID {
		t.Fatalf("lookup by name: %+v %v", got, err)
	}
	got, err = s.GetOwnerByToken(o.Token)
	if err != nil || got.ID != o.ID {
		t.Fatalf("lookup by token: %+v %v", got, err)
	}
}

func TestCreateOwnerValidation(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.CreateOwner("   "); !errors.Is(err, shared.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	newTestOwner(t, s, "dup")
	if _, err := s.CreateOwner("dup"); err == nil {
		t.Fatal("expected error for duplicate owner name")
	}
}

func TestGetOwnerNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetOwner("missing"); !errors.Is(err, shared.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetOwnerByTokenUnknown(t *testing.T) {
	s := newTestStore(t)
	for _, tok := range []string{"", "nope"} {
		if _, err := s.GetOwnerByToken(tok); !errors.Is(err, shared.ErrUnauthorized) {
			t.Errorf("token %q: expected ErrUnauthorized, got %v", tok, err)
		}
	}
}

func TestEnsureOwner(t *testing.T) {
	s := newTestStore(t)
	a, err := s.EnsureOwner("me")
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.EnsureOwner("me")
	if err != nil {
		t.Fatal(err)
	}
	if a.ID != b.ID {
		t.Fatal("EnsureOwner should return the existing owner")
	}
}

func TestListOwners(t *testing.T) {
	s := newTestStore(t)
	newTestOwner(t, s, "bob")
	newTestOwner(t, s, "alice")

	owners, err := s.ListOwners()
	if err != nil {
		t.Fatal(err)
	}
	if len(owners) != 2 || owners[0].Name != "alice" || owners[1].Name != "bob" {
		t.Fatalf("expected owners sorted by name, got %+v", owners)
	}
}

// ============================================================
// Entries
// ============================================================

func TestInsertAndGetEntry(t *testing.T) {
	s := newTestStore(t)
	o := newTestOwner(t, s, "alice")

	e, err := s.InsertEntry(o.ID, " Code ", 3600, "#123456")
	if err != nil {
		t.Fatal(err)
	}
	if e.ID == 0 || e.OwnerID != o.ID || e.Category != "Code" || e.Seconds != 3600 || e.Color != "#123456" {
		t.Fatalf("unexpected entry: %+v", e)
	}
	if e.CreatedAt.IsZero() {
		t.Fatal("CreatedAt should be set")
	}

	got, err := s.GetEntry(e.ID, o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if *got != *e {
		t.Fatalf("got %+v, want %+v", got, e)
	}
}

func TestInsertEntryValidation(t *testing.T) {
	s := newTestStore(t)
	o := newTestOwner(t, s, "alice")

	if _, err := s.InsertEntry(o.ID, "  ", 10, ""); !errors.Is(err, shared.ErrValidation) {
		t.Fatalf("empty category: expected ErrValidation, got %v", err)
	}
	if _, err := s.InsertEntry(o.ID, "x", -1, ""); !errors.Is(err, shared.ErrValidation) {
		t.Fatalf("negative seconds: expected ErrValidation, got %v", err)
	}
}

func TestInsertEntryUnknownOwner(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.InsertEntry("ghost", "x", 1, ""); err == nil {
		t.Fatal("expected foreign key error for unknown owner")
	}
}

func TestInsertEntryZeroSeconds(t *testing.T) {
	s := newTestStore(t)
	o := newTestOwner(t, s, "alice")
	e, err := s.InsertEntry(o.ID, "blink", 0, "")
	if err != nil {
		t.Fatal(err)
	}
	if e.Seconds != 0 {
		t.Fatalf("expected 0 seconds, got %d", e.Seconds)
	}
}

func TestListEntriesNewestFirst(t *testing.T) {
	s := newTestStore(t)
	o := newTestOwner(t, s, "alice")
	now := time.Now()

	s.InsertEntryAt(o.ID, "old", 1, "", now.Add(-2*time.Hour))
	s.InsertEntryAt(o.ID, "new", 1, "", now)
	s.InsertEntryAt(o.ID, "mid", 1, "", now.Add(-time.Hour))

	entries, err := s.ListEntries(o.ID, EntryFilter{})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"new", "mid", "old"}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, c := range want {
		if entries[i].Category != c {
			t.Errorf("entries[%d] = %q, want %q", i, entries[i].Category, c)
		}
	}
}

func TestListEntriesSameSecondByID(t *testing.T) {
	s := newTestStore(t)
	o := newTestOwner(t, s, "alice")
	at := time.Now()
	first, _ := s.InsertEntryAt(o.ID, "a", 1, "", at)
	second, _ := s.InsertEntryAt(o.ID, "b", 1, "", at)

	entries, _ := s.ListEntries(o.ID, EntryFilter{})
	if entries[0].ID != second.ID || entries[1].ID != first.ID {
		t.Fatal("entries created in the same second should list newest id first")
	}
}

func TestListEntriesOwnerIsolation(t *testing.T) {
	s := newTestStore(t)
	alice := newTestOwner(t, s, "alice")
	bob := newTestOwner(t, s, "bob")
	s.InsertEntry(alice.ID, "a", 1, "")
	s.InsertEntry(bob.ID, "b", 1, "")
	s.InsertEntry(bob.ID, "b", 2, "")

	entries, _ := s.ListEntries(alice.ID, EntryFilter{})
	if len(entries) != 1 || entries[0].OwnerID != alice.ID {
		t.Fatalf("alice should only see her entries, got %+v", entries)
	}
	entries, _ = s.ListEntries(bob.ID, EntryFilter{})
	if len(entries) != 2 {
		t.Fatalf("bob should see 2 entries, got %d", len(entries))
	}
}

func TestListEntriesFilters(t *testing.T) {
	s := newTestStore(t)
	o := newTestOwner(t, s, "alice")
	now := time.Now()
	for i := 0; i < 5; i++ {
		s.InsertEntryAt(o.ID, "x", int64(i), "", now.Add(-time.Duration(i)*24*time.Hour))
	}

	entries, _ := s.ListEntries(o.ID, EntryFilter{Limit: 2})
	if len(entries) != 2 {
		t.Fatalf("limit: expected 2, got %d", len(entries))
	}

	from := now.Add(-36 * time.Hour)
	entries, _ = s.ListEntries(o.ID, EntryFilter{From: &from})
	if len(entries) != 2 {
		t.Fatalf("from: expected 2, got %d", len(entries))
	}

	to := now.Add(-36 * time.Hour)
	entries, _ = s.ListEntries(o.ID, EntryFilter{To: &to})
	if len(entries) != 3 {
		t.Fatalf("to: expected 3, got %d", len(entries))
	}
}

func TestListEntriesEmpty(t *testing.T) {
	s := newTestStore(t)
	o := newTestOwner(t, s, "alice")
	entries, err := s.ListEntries(o.ID, EntryFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if entries != nil {
		t.Fatalf("expected nil slice, got %d items", len(entries))
	}
}

func TestDeleteEntry(t *testing.T) {
	s := newTestStore(t)
	o := newTestOwner(t, s, "alice")
	e, _ := s.InsertEntry(o.ID, "x", 5, "")

	if err := s.DeleteEntry(e.ID, o.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetEntry(e.ID, o.ID); !errors.Is(err, shared.ErrNotFound) {
		t.Fatalf("deleted entry should be gone, got %v", err)
	}
	if err := s.DeleteEntry(e.ID, o.ID); !errors.Is(err, shared.ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestDeleteEntryOtherOwner(t *testing.T) {
	s := newTestStore(t)
	alice := newTestOwner(t, s, "alice")
	bob := newTestOwner(t, s, "bob")
	e, _ := s.InsertEntry(alice.ID, "x", 5, "")

	if err := s.DeleteEntry(e.ID, bob.ID); !errors.Is(err, shared.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.GetEntry(e.ID, alice.ID); err != nil {
		t.Fatal("entry should survive another owner's delete")
	}
	if _, err := s.GetEntry(e.ID, bob.ID); !errors.Is(err, shared.ErrNotFound) {
		t.Fatal("bob should not read alice's entry")
	}
}

func TestDailyTotals(t *testing.T) {
	s := newTestStore(t)
	o := newTestOwner(t, s, "alice")
	day := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s.InsertEntryAt(o.ID, "Work", 100, "", day)
	s.InsertEntryAt(o.ID, "work", 50, "", day.Add(time.Hour))
	s.InsertEntryAt(o.ID, "gym", 30, "", day.Add(2*time.Hour))
	s.InsertEntryAt(o.ID, "work", 70, "", day.Add(24*time.Hour))
	s.InsertEntryAt(o.ID, "work", 999, "", day.Add(-48*time.Hour))

	totals, err := s.DailyTotals(o.ID, day.Add(-9*time.Hour), day.Add(48*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	want := []DailyTotal{
		{Date: "2026-03-10", Category: "gym", TotalSeconds: 30, EntryCount: 1},
		{Date: "2026-03-10", Category: "work", TotalSeconds: 150, EntryCount: 2},
		{Date: "2026-03-11", Category: "work", TotalSeconds: 70, EntryCount: 1},
	}
	if len(totals) != len(want) {
		t.Fatalf("expected %d totals, got %+v", len(want), totals)
	}
	for i := range want {
		if totals[i] != want[i] {
			t.Errorf("totals[%d] = %+v, want %+v", i, totals[i], want[i])
		}
	}
}

func TestTodayTotal(t *testing.T) {
	s := newTestStore(t)
	o := newTestOwner(t, s, "alice")
	s.InsertEntry(o.ID, "a", 60, "")
	s.InsertEntry(o.ID, "b", 30, "")
	s.InsertEntryAt(o.ID, "c", 1000, "", time.Now().Add(-72*time.Hour))

	total, err := s.TodayTotal(o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if total != 90 {
		t.Fatalf("expected 90, got %d", total)
	}
}

// ============================================================
// Settings
// ============================================================

func TestSettingsDefaults(t *testing.T) {
	s := newTestStore(t)
	o := newTestOwner(t, s, "alice")

	v, err := s.GetSetting(o.ID, SettingWeekStart)
	if err != nil || v != "monday" {
		t.Fatalf("expected default monday, got %q %v", v, err)
	}
	public, err := s.IsPublic(o.ID)
	if err != nil || public {
		t.Fatalf("sharing should default to off, got %v %v", public, err)
	}
}

func TestSetSettingOverwrite(t *testing.T) {
	s := newTestStore(t)
	o := newTestOwner(t, s, "alice")

	s.SetSetting(o.ID, SettingPublic, "true")
	public, _ := s.IsPublic(o.ID)
	if !public {
		t.Fatal("sharing should be on")
	}
	s.SetSetting(o.ID, SettingPublic, "false")
	public, _ = s.IsPublic(o.ID)
	if public {
		t.Fatal("sharing should be off after overwrite")
	}
}

func TestSettingsPerOwner(t *testing.T) {
	s := newTestStore(t)
	alice := newTestOwner(t, s, "alice")
	bob := newTestOwner(t, s, "bob")
	s.SetSetting(alice.ID, SettingPublic, "true")

	if public, _ := s.IsPublic(bob.ID); public {
		t.Fatal("alice's setting must not leak to bob")
	}
}

func TestGetSettingUnknownKey(t *testing.T) {
	s := newTestStore(t)
	o := newTestOwner(t, s, "alice")
	if _, err := s.GetSetting(o.ID, "nonexistent"); !errors.Is(err, shared.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetAllSettings(t *testing.T) {
	s := newTestStore(t)
	o := newTestOwner(t, s, "alice")
	s.SetSetting(o.ID, "accent", "blue")

	settings, err := s.GetAllSettings(o.ID)
	if err != nil {
		t.Fatal(err)
	}
	want := []Setting{{"accent", "blue"}, {"public", "false"}, {"week_start", "monday"}}
	if len(settings) != len(want) {
		t.Fatalf("expected %d settings, got %+v", len(want), settings)
	}
	for i := range want {
		if settings[i] != want[i] {
			t.Errorf("settings[%d] = %+v, want %+v", i, settings[i], want[i])
		}
	}
}

func TestCloseStore(t *testing.T) {
	s, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ListOwners(); err == nil {
		t.Fatal("expected error after close")
	}
}
