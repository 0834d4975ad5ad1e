// Package gesture provides single-stroke gesture recognition using the Protractor algorithm.
package gesture

import (
	"fmt"
	"math"
	"strings"
	"sync"
)

// Template is a named example gesture stored in canonical form.
type Template struct {
	ID     int     // Gesture class index
	Name   string  // Gesture name
	Vector []Point // Canonical points (resampled, centered, unit magnitude)
}

// String formats the template as "[id = 0, name = circle, vector = (x, y), ...]".
func (t *Template) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[id = %d, name = %s, vector = ", t.ID, t.Name)
	if len(t.Vector) == 0 {
		sb.WriteString("(null)")
	}
	for i, p := range t.Vector {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "(%g, %g)", p.X, p.Y)
	}
	sb.WriteString("]")
	return sb.String()
}

// Match is the result of scoring a stroke against a template.
type Match struct {
	Template *Template // The matched template
	Score    float64   // Similarity at the optimal angle (at most 1, higher is better)
	Theta    float64   // Rotation of the template that best aligns it, in radians
}

// OptimalAngle computes in closed form the rotation of t that best aligns it with g and the
// resulting similarity. Both sequences are expected to be canonical; if their lengths
// differ only the common prefix is compared.
func OptimalAngle(g, t []Point) Match {
	n := min(len(g), len(t))

	var a, b float64
	for i := 0; i < n; i++ {
		a += g[i].X*t[i].X + g[i].Y*t[i].Y
		b += g[i].Y*t[i].X - g[i].X*t[i].Y
	}

	theta := math.Atan2(b, a)
	return Match{
		Score: a*math.Cos(theta) + b*math.Sin(theta),
		Theta: theta,
	}
}

// Recognize canonicalizes the stroke and returns the best-scoring template.
// Returns nil if the stroke is empty or there are no templates. On equal scores the
// template seen first wins.
func Recognize(stroke []Point, templates []*Template) *Match {
	if len(templates) == 0 {
		return nil
	}

	canonical := Canonicalize(stroke)
	if len(canonical) == 0 {
		return nil
	}

	var best *Match
	for _, t := range templates {
		if t == nil {
			continue
		}
		m := OptimalAngle(canonical, t.Vector)
		if best == nil || m.Score > best.Score {
			m.Template = t
			best = &m
		}
	}
	return best
}

// TemplateSet is an in-memory, concurrency-safe collection of templates.
type TemplateSet struct {
	templates []*Template
	mu        sync.RWMutex
}

// NewTemplateSet creates a TemplateSet holding the given templates.
func NewTemplateSet(templates ...*Template) *TemplateSet {
	s := &TemplateSet{
		templates: make([]*Template, 0, len(templates)),
	}
	for _, t := range templates {
		s.Add(t)
	}
	return s
}

// Add appends a template to the set.
func (s *TemplateSet) Add(t *Template) {
	if t == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates = append(s.templates, t)
}

// RemoveByID removes every template of the given gesture class and returns how many were removed.
func (s *TemplateSet) RemoveByID(id int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.templates[:0]
	removed := 0
	for _, t := range s.templates {
		if t.ID == id {
			removed++
			continue
		}
		kept = append(kept, t)
	}
	// Drop references held past the new length.
	for i := len(kept); i < len(s.templates); i++ {
		s.templates[i] = nil
	}
	s.templates = kept
	return removed
}

// Replace swaps the contents of the set.
func (s *TemplateSet) Replace(templates []*Template) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templates = make([]*Template, 0, len(templates))
	for _, t := range templates {
		if t != nil {
			s.templates = append(s.templates, t)
		}
	}
}

// Reset removes all templates.
func (s *TemplateSet) Reset() {
	s.Replace(nil)
}

// List returns a snapshot of the templates in insertion order.
func (s *TemplateSet) List() []*Template {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Template, len(s.templates))
	copy(out, s.templates)
	return out
}

// Len returns the number of templates.
func (s *TemplateSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.templates)
}

// Recognize matches the stroke against a snapshot of the set.
func (s *TemplateSet) Recognize(stroke []Point) *Match {
	return Recognize(stroke, s.List())
}
