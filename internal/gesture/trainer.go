package gesture

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrTrainingComplete is returned when every example of the gesture set has been recorded.
	ErrTrainingComplete = errors.New("training complete")
	// ErrEmptyStroke is returned when a stroke has no points.
	ErrEmptyStroke = errors.New("stroke has no points")
	// ErrInvalidStroke is returned when a stroke's coordinates are too large to normalize.
	ErrInvalidStroke = errors.New("stroke coordinates out of range")
)

// StrokeSample is a recorded stroke as sent by a drawing client.
type StrokeSample struct {
	Points    []Point `json:"points"`
	Timestamp int64   `json:"timestamp,omitempty"`
}

// Prompt describes the next example the trainer expects.
type Prompt struct {
	GestureID int    `json:"gesture_id"`
	Gesture   string `json:"gesture"`
	Example   int    `json:"example"` // 1-based
	Examples  int    `json:"examples"`
	Collected int    `json:"collected"`
	Total     int    `json:"total"`
	Done      bool   `json:"done"`
}

// Trainer walks through a gesture set, turning drawn strokes into templates.
// Examples are collected gesture by gesture; the template ID is the index of the gesture
// in the set.
type Trainer struct {
	gestures           []string
	examplesPerGesture int
	collected          int
	mu                 sync.Mutex
}

// NewTrainer creates a Trainer for the given gesture names.
// examplesPerGesture below 1 is treated as 1.
func NewTrainer(gestures []string, examplesPerGesture int) *Trainer {
	if examplesPerGesture < 1 {
		examplesPerGesture = 1
	}
	names := make([]string, len(gestures))
	copy(names, gestures)
	return &Trainer{
		gestures:           names,
		examplesPerGesture: examplesPerGesture,
	}
}

// Gestures returns the gesture names of the set.
func (t *Trainer) Gestures() []string {
	names := make([]string, len(t.gestures))
	copy(names, t.gestures)
	return names
}

// Total returns the number of examples needed to complete training.
func (t *Trainer) Total() int {
	return len(t.gestures) * t.examplesPerGesture
}

// Resume continues a session where collected examples already exist, e.g. loaded from disk.
func (t *Trainer) Resume(collected int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.collected = max(0, min(collected, t.Total()))
}

// Reset starts a new session.
func (t *Trainer) Reset() {
	t.Resume(0)
}

// Done reports whether every example has been collected.
func (t *Trainer) Done() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.collected >= t.Total()
}

// Prompt returns the gesture and example number to draw next.
func (t *Trainer) Prompt() Prompt {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.promptLocked()
}

func (t *Trainer) promptLocked() Prompt {
	p := Prompt{
		Examples:  t.examplesPerGesture,
		Collected: t.collected,
		Total:     t.Total(),
	}
	if t.collected >= p.Total {
		p.Done = true
		return p
	}
	p.GestureID = t.collected / t.examplesPerGesture
	p.Gesture = t.gestures[p.GestureID]
	p.Example = t.collected%t.examplesPerGesture + 1
	return p
}

// Add canonicalizes the stroke and returns it as the template for the current prompt,
// moving the session on to the next example.
func (t *Trainer) Add(stroke []Point) (*Template, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tmpl, err := t.templateLocked(stroke)
	if err != nil {
		return nil, err
	}
	t.collected++
	return tmpl, nil
}

// Template builds the template for the current prompt without advancing the session.
// Callers that persist the template first call Advance once it is stored.
func (t *Trainer) Template(stroke []Point) (*Template, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.templateLocked(stroke)
}

// Advance moves the session on to the next example.
func (t *Trainer) Advance() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.collected = min(t.collected+1, t.Total())
}

func (t *Trainer) templateLocked(stroke []Point) (*Template, error) {
	p := t.promptLocked()
	if p.Done {
		return nil, ErrTrainingComplete
	}

	canonical, err := CanonicalizeStroke(stroke)
	if err != nil {
		return nil, err
	}
	return &Template{
		ID:     p.GestureID,
		Name:   p.Gesture,
		Vector: canonical,
	}, nil
}

// TrainFromSamples turns recorded JSON stroke samples into templates for one gesture.
func TrainFromSamples(id int, name string, samples []json.RawMessage) ([]*Template, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("no samples provided")
	}

	templates := make([]*Template, 0, len(samples))
	for i, raw := range samples {
		var sample StrokeSample
		if err := json.Unmarshal(raw, &sample); err != nil {
			return nil, fmt.Errorf("failed to parse sample %d: %w", i, err)
		}

		canonical, err := CanonicalizeStroke(sample.Points)
		if err != nil {
			return nil, fmt.Errorf("sample %d: %w", i, err)
		}

		templates = append(templates, &Template{
			ID:     id,
			Name:   name,
			Vector: canonical,
		})
	}

	return templates, nil
}
