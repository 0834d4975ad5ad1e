package store

import (
	"context"
	"errors"
	"testing"

	"github.com/ayusman/tracematch/internal/location"
)

func TestFingerprintRepository_CreateGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	fp := location.NewFingerprint("Kitchen", []location.Reading{
		{BSSID: "aa:bb:cc:00:00:01", Level: -48},
		{BSSID: "aa:bb:cc:00:00:02", Level: -71},
	})

	id, err := s.Fingerprints().Create(ctx, fp)
	if err != nil {
		t.Fatalf("failed to create fingerprint: %v", err)
	}

	got, err := s.Fingerprints().Get(ctx, id)
	if err != nil {
		t.Fatalf("failed to get fingerprint: %v", err)
	}
	if got.Location != "Kitchen" {
		t.Errorf("expected location Kitchen, got %q", got.Location)
	}
	if len(got.Levels) != 2 || got.Levels["aa:bb:cc:00:00:02"] != -71 {
		t.Errorf("unexpected levels: %v", got.Levels)
	}
}

func TestFingerprintRepository_Get_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Fingerprints().Get(context.Background(), 404)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFingerprintRepository_List(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	repo := s.Fingerprints()

	fps := []location.Fingerprint{
		location.NewFingerprint("Office", []location.Reading{{BSSID: "b", Level: -60}, {BSSID: "a", Level: -80}}),
		location.NewFingerprint("Kitchen", []location.Reading{{BSSID: "a", Level: -40}}),
		location.NewFingerprint("Office", []location.Reading{{BSSID: "a", Level: -82}}),
		location.NewFingerprint("Hall", nil),
	}
	for _, fp := range fps {
		if _, err := repo.Create(ctx, fp); err != nil {
			t.Fatalf("failed to create fingerprint: %v", err)
		}
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("failed to list fingerprints: %v", err)
	}

	wantLocations := []string{"Hall", "Kitchen", "Office", "Office"}
	if len(list) != len(wantLocations) {
		t.Fatalf("expected %d fingerprints, got %d", len(wantLocations), len(list))
	}
	for i, loc := range wantLocations {
		if list[i].Location != loc {
			t.Errorf("fingerprint %d: expected %s, got %s", i, loc, list[i].Location)
		}
	}
	if len(list[0].Levels) != 0 {
		t.Errorf("expected empty fingerprint for Hall, got %v", list[0].Levels)
	}
	if list[2].Levels["b"] != -60 || list[2].Levels["a"] != -80 {
		t.Errorf("unexpected levels for first Office fingerprint: %v", list[2].Levels)
	}
	if list[3].Levels["a"] != -82 {
		t.Errorf("unexpected levels for second Office fingerprint: %v", list[3].Levels)
	}
}

func TestFingerprintRepository_List_Empty(t *testing.T) {
	s := newTestStore(t)

	list, err := s.Fingerprints().List(context.Background())
	if err != nil {
		t.Fatalf("failed to list fingerprints: %v", err)
	}
	if len(list) != 0 {
		t.Errorf("expected no fingerprints, got %d", len(list))
	}
}

func TestFingerprintRepository_DeleteLocation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	repo := s.Fingerprints()

	repo.Create(ctx, location.NewFingerprint("Office", []location.Reading{{BSSID: "a", Level: -60}}))
	repo.Create(ctx, location.NewFingerprint("Office", []location.Reading{{BSSID: "a", Level: -61}}))
	repo.Create(ctx, location.NewFingerprint("Kitchen", []location.Reading{{BSSID: "a", Level: -40}}))

	n, err := repo.DeleteLocation(ctx, "Office")
	if err != nil {
		t.Fatalf("failed to delete location: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 fingerprints removed, got %d", n)
	}

	// Measurements must go with their fingerprints.
	var measurements int
	if err := s.DB().QueryRow(`SELECT COUNT(*) FROM measurement`).Scan(&measurements); err != nil {
		t.Fatalf("failed to count measurements: %v", err)
	}
	if measurements != 1 {
		t.Errorf("expected 1 remaining measurement, got %d", measurements)
	}

	if _, err := repo.DeleteLocation(ctx, "Office"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestFingerprintRepository_Counts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	repo := s.Fingerprints()

	for _, loc := range []string{"Office", "Kitchen", "Office", "Office"} {
		repo.Create(ctx, location.NewFingerprint(loc, []location.Reading{{BSSID: "a", Level: -50}}))
	}

	counts, err := repo.Counts(ctx)
	if err != nil {
		t.Fatalf("failed to count fingerprints: %v", err)
	}
	if counts["Office"] != 3 || counts["Kitchen"] != 1 || len(counts) != 2 {
		t.Errorf("unexpected counts: %v", counts)
	}
}

func TestFingerprintRepository_IsFingerprintSource(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	s.Fingerprints().Create(ctx, location.NewFingerprint("Kitchen", []location.Reading{{BSSID: "a", Level: -40}}))
	s.Fingerprints().Create(ctx, location.NewFingerprint("Office", []location.Reading{{BSSID: "a", Level: -80}}))

	l := location.NewLocator(location.LocatorConfig{Source: s.Fingerprints()})
	if err := l.Reload(ctx); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}

	result := l.Locate([]location.Reading{{BSSID: "a", Level: -78}})
	if !result.OK || result.Location != "Office" {
		t.Errorf("expected Office, got %+v", result)
	}
}
