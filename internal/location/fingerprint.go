// Package location matches live WiFi scans against stored fingerprints using k-nearest-neighbor voting.
package location

import (
	"fmt"
	"sort"
	"strings"
)

const (
	// UnknownLocation labels a fingerprint built from a live scan.
	UnknownLocation = "unknown"
	// MissingLevel is the signal level assumed for an access point a fingerprint has not seen.
	MissingLevel = -100
)

// Reading is one access point observed in a scan.
type Reading struct {
	BSSID string `json:"bssid"`
	Level int    `json:"level"` // dBm
}

// Fingerprint maps access point identifiers to signal levels at a location.
type Fingerprint struct {
	Location string         `json:"location"`
	Levels   map[string]int `json:"levels"`
}

// NewFingerprint builds a fingerprint from scan readings.
// A later reading for the same BSSID replaces an earlier one.
func NewFingerprint(location string, readings []Reading) Fingerprint {
	levels := make(map[string]int, len(readings))
	for _, r := range readings {
		levels[r.BSSID] = r.Level
	}
	return Fingerprint{Location: location, Levels: levels}
}

// Readings returns the fingerprint's levels ordered by BSSID.
func (f Fingerprint) Readings() []Reading {
	readings := make([]Reading, 0, len(f.Levels))
	for bssid, level := range f.Levels {
		readings = append(readings, Reading{BSSID: bssid, Level: level})
	}
	sort.Slice(readings, func(i, j int) bool {
		return readings[i].BSSID < readings[j].BSSID
	})
	return readings
}

// Distance returns the squared signal distance from live to candidate.
// Only access points in live are compared; those missing from candidate count as MissingLevel.
func Distance(live, candidate Fingerprint) float64 {
	var sum float64
	for bssid, level := range live.Levels {
		other, ok := candidate.Levels[bssid]
		if !ok {
			other = MissingLevel
		}
		d := float64(level - other)
		sum += d * d
	}
	return sum
}

func (f Fingerprint) String() string {
	var sb strings.Builder
	sb.WriteString(f.Location)
	for _, r := range f.Readings() {
		fmt.Fprintf(&sb, ", %s : %d", r.BSSID, r.Level)
	}
	return sb.String()
}
