// Package fixtures provides recorded strokes for tests.
package fixtures

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ayusman/tracematch/internal/gesture"
)

//go:embed strokes/*.json
var strokesFS embed.FS

// LoadSamples returns the raw JSON samples recorded for a gesture.
func LoadSamples(name string) ([]json.RawMessage, error) {
	data, err := strokesFS.ReadFile("strokes/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("load strokes %s: %w", name, err)
	}

	var samples []json.RawMessage
	if err := json.Unmarshal(data, &samples); err != nil {
		return nil, fmt.Errorf("decode strokes %s: %w", name, err)
	}
	return samples, nil
}

// LoadStrokes returns the recorded strokes for a gesture.
func LoadStrokes(name string) ([][]gesture.Point, error) {
	samples, err := LoadSamples(name)
	if err != nil {
		return nil, err
	}

	strokes := make([][]gesture.Point, 0, len(samples))
	for i, raw := range samples {
		var s gesture.StrokeSample
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("decode stroke %s/%d: %w", name, i, err)
		}
		strokes = append(strokes, s.Points)
	}
	return strokes, nil
}

// Gestures lists the gestures with recorded strokes.
func Gestures() []string {
	entries, err := strokesFS.ReadDir("strokes")
	if err != nil {
		return nil
	}

	var names []string
	for _, entry := range entries {
		if name, ok := strings.CutSuffix(entry.Name(), ".json"); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
