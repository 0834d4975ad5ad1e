package location

import (
	"testing"
)

func TestTally_Example(t *testing.T) {
	distances := []LocationDistance{
		{Location: "L1", Distance: 0},
		{Location: "L1", Distance: 1},
		{Location: "L2", Distance: 2},
		{Location: "L3", Distance: 3},
	}

	votes := Tally(distances, 3)

	want := []Vote{{Location: "L1", Votes: 2}, {Location: "L2", Votes: 1}}
	if len(votes) != len(want) {
		t.Fatalf("expected %d tallies, got %v", len(want), votes)
	}
	for i := range want {
		if votes[i] != want[i] {
			t.Errorf("tally %d: got %+v, want %+v", i, votes[i], want[i])
		}
	}
}

func TestTally_FewerThanK(t *testing.T) {
	votes := Tally([]LocationDistance{{Location: "L1", Distance: 5}}, 3)

	if len(votes) != 1 || votes[0].Votes != 1 {
		t.Errorf("expected a single vote for L1, got %v", votes)
	}

	if votes := Tally(nil, 3); len(votes) != 0 {
		t.Errorf("expected no votes, got %v", votes)
	}
	if votes := Tally([]LocationDistance{{Location: "L1"}}, -1); len(votes) != 0 {
		t.Errorf("expected no votes for negative k, got %v", votes)
	}
}

func TestDistances_SortedStable(t *testing.T) {
	live := NewFingerprint(UnknownLocation, []Reading{{BSSID: "a", Level: -50}})
	fps := []Fingerprint{
		NewFingerprint("far", []Reading{{BSSID: "a", Level: -90}}),
		NewFingerprint("tie-1", []Reading{{BSSID: "a", Level: -55}}),
		NewFingerprint("near", []Reading{{BSSID: "a", Level: -50}}),
		NewFingerprint("tie-2", []Reading{{BSSID: "a", Level: -45}}),
	}

	distances := Distances(live, fps)

	want := []string{"near", "tie-1", "tie-2", "far"}
	for i, loc := range want {
		if distances[i].Location != loc {
			t.Errorf("position %d: got %s, want %s", i, distances[i].Location, loc)
		}
	}
	if distances[1].Distance != 25 || distances[3].Distance != 1600 {
		t.Errorf("unexpected distances: %v", distances)
	}
}

func TestBestMatch(t *testing.T) {
	live := NewFingerprint(UnknownLocation, []Reading{{BSSID: "a", Level: -40}, {BSSID: "b", Level: -70}})
	fps := []Fingerprint{
		NewFingerprint("Kitchen", []Reading{{BSSID: "a", Level: -42}, {BSSID: "b", Level: -71}}),
		NewFingerprint("Office", []Reading{{BSSID: "a", Level: -80}, {BSSID: "b", Level: -40}}),
		NewFingerprint("Kitchen", []Reading{{BSSID: "a", Level: -38}, {BSSID: "b", Level: -69}}),
		NewFingerprint("Office", []Reading{{BSSID: "a", Level: -75}, {BSSID: "b", Level: -45}}),
		NewFingerprint("Office", []Reading{{BSSID: "a", Level: -78}, {BSSID: "b", Level: -42}}),
	}

	loc, distances, ok := BestMatch(live, fps)

	if !ok {
		t.Fatal("expected a match")
	}
	if loc != "Kitchen" {
		t.Errorf("expected Kitchen, got %s", loc)
	}
	if len(distances) != len(fps) {
		t.Errorf("expected %d distances, got %d", len(fps), len(distances))
	}
}

func TestBestMatch_NoFingerprints(t *testing.T) {
	live := NewFingerprint(UnknownLocation, []Reading{{BSSID: "a", Level: -40}})

	loc, distances, ok := BestMatch(live, nil)

	if ok || loc != "" {
		t.Errorf("expected no match, got %q, %v", loc, ok)
	}
	if len(distances) != 0 {
		t.Errorf("expected no distances, got %v", distances)
	}
}

func TestBestMatch_TieGoesToClosest(t *testing.T) {
	live := NewFingerprint(UnknownLocation, []Reading{{BSSID: "a", Level: -50}})
	fps := []Fingerprint{
		NewFingerprint("L1", []Reading{{BSSID: "a", Level: -60}}),
		NewFingerprint("L2", []Reading{{BSSID: "a", Level: -52}}),
	}

	loc, _, ok := Matcher{K: 2}.BestMatch(live, fps)

	if !ok || loc != "L2" {
		t.Errorf("expected the closer location L2 to win the tie, got %q", loc)
	}
}

func TestMatcher_K(t *testing.T) {
	live := NewFingerprint(UnknownLocation, []Reading{{BSSID: "a", Level: -50}})
	fps := []Fingerprint{
		NewFingerprint("L1", []Reading{{BSSID: "a", Level: -50}}),
		NewFingerprint("L2", []Reading{{BSSID: "a", Level: -55}}),
		NewFingerprint("L2", []Reading{{BSSID: "a", Level: -56}}),
	}

	if loc, _, _ := (Matcher{K: 1}).BestMatch(live, fps); loc != "L1" {
		t.Errorf("k=1: expected L1, got %s", loc)
	}
	if loc, _, _ := (Matcher{K: 3}).BestMatch(live, fps); loc != "L2" {
		t.Errorf("k=3: expected L2, got %s", loc)
	}
	if loc, _, _ := (Matcher{}).BestMatch(live, fps); loc != "L2" {
		t.Errorf("default k: expected L2, got %s", loc)
	}
}
