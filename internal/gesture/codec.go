package gesture

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Record layout, big-endian:
//
//	id:int32 | n:int32 | n × (x:float32, y:float32) | nameLen:int32 | name bytes
const (
	maxTemplatePoints  = 1 << 16
	maxTemplateNameLen = 1 << 16
)

var (
	// ErrTruncatedTemplate is returned when the stream ends in the middle of a record.
	ErrTruncatedTemplate = errors.New("truncated template record")
	// ErrInvalidTemplate is returned when a record header holds an impossible length.
	ErrInvalidTemplate = errors.New("invalid template record")
)

// WriteTemplate writes one template record to w.
// Records ReadTemplate would reject are refused with ErrInvalidTemplate.
func WriteTemplate(w io.Writer, t *Template) error {
	name := []byte(t.Name)
	if len(t.Vector) > maxTemplatePoints {
		return fmt.Errorf("%w: point count %d", ErrInvalidTemplate, len(t.Vector))
	}
	if len(name) > maxTemplateNameLen {
		return fmt.Errorf("%w: name length %d", ErrInvalidTemplate, len(name))
	}

	var buf bytes.Buffer
	buf.Grow(12 + 8*len(t.Vector) + len(name))

	binary.Write(&buf, binary.BigEndian, int32(t.ID))
	binary.Write(&buf, binary.BigEndian, int32(len(t.Vector)))
	for _, p := range t.Vector {
		binary.Write(&buf, binary.BigEndian, float32(p.X))
		binary.Write(&buf, binary.BigEndian, float32(p.Y))
	}
	binary.Write(&buf, binary.BigEndian, int32(len(name)))
	buf.Write(name)

	_, err := w.Write(buf.Bytes())
	return err
}

// ReadTemplate reads one template record from r.
// It returns io.EOF if r is exhausted before the record starts, and an error wrapping
// ErrTruncatedTemplate if r ends inside the record.
func ReadTemplate(r io.Reader) (*Template, error) {
	var id int32
	if err := binary.Read(r, binary.BigEndian, &id); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, truncated(err)
	}

	var n int32
	if err := binary.Read(r, binary.BigEndian, &n); err != nil {
		return nil, truncated(err)
	}
	if n < 0 || n > maxTemplatePoints {
		return nil, fmt.Errorf("%w: point count %d", ErrInvalidTemplate, n)
	}

	coords := make([]float32, 2*int(n))
	if err := binary.Read(r, binary.BigEndian, coords); err != nil {
		return nil, truncated(err)
	}
	vector := make([]Point, n)
	for i := range vector {
		vector[i] = Point{X: float64(coords[2*i]), Y: float64(coords[2*i+1])}
	}

	var nameLen int32
	if err := binary.Read(r, binary.BigEndian, &nameLen); err != nil {
		return nil, truncated(err)
	}
	if nameLen < 0 || nameLen > maxTemplateNameLen {
		return nil, fmt.Errorf("%w: name length %d", ErrInvalidTemplate, nameLen)
	}
	name := make([]byte, nameLen)
	if _, err := io.ReadFull(r, name); err != nil {
		return nil, truncated(err)
	}

	return &Template{
		ID:     int(id),
		Name:   string(name),
		Vector: vector,
	}, nil
}

// truncated maps end-of-stream inside a record to ErrTruncatedTemplate.
func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", ErrTruncatedTemplate, io.ErrUnexpectedEOF)
	}
	return err
}

// WriteTemplates writes every template to w in order.
func WriteTemplates(w io.Writer, templates []*Template) error {
	for _, t := range templates {
		if err := WriteTemplate(w, t); err != nil {
			return fmt.Errorf("write template %d (%s): %w", t.ID, t.Name, err)
		}
	}
	return nil
}

// ReadTemplates reads records until end of stream.
// On a malformed record it returns the templates read so far together with the error.
func ReadTemplates(r io.Reader) ([]*Template, error) {
	var templates []*Template
	for {
		t, err := ReadTemplate(r)
		if err == io.EOF {
			return templates, nil
		}
		if err != nil {
			return templates, fmt.Errorf("read template %d: %w", len(templates), err)
		}
		templates = append(templates, t)
	}
}

// TemplateFile persists templates to a binary file on disk.
type TemplateFile struct {
	path string
	mu   sync.Mutex
}

// NewTemplateFile creates a TemplateFile for the given path.
func NewTemplateFile(path string) *TemplateFile {
	return &TemplateFile{path: path}
}

// Path returns the file path.
func (f *TemplateFile) Path() string {
	return f.path
}

// Load reads all templates from the file. A missing file yields no templates.
// A truncated trailing record returns the complete prefix along with the error.
func (f *TemplateFile) Load() ([]*Template, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	file, err := os.Open(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open template file: %w", err)
	}
	defer file.Close()

	return ReadTemplates(bufio.NewReader(file))
}

// Save replaces the file contents with the given templates.
func (f *TemplateFile) Save(templates []*Template) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("failed to create template directory: %w", err)
	}

	tmp := f.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create template file: %w", err)
	}

	w := bufio.NewWriter(file)
	if err := WriteTemplates(w, templates); err != nil {
		file.Close()
		os.Remove(tmp)
		return err
	}
	if err := w.Flush(); err != nil {
		file.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to flush template file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close template file: %w", err)
	}

	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to replace template file: %w", err)
	}
	return nil
}

// Append adds one template record to the end of the file, creating it if needed.
func (f *TemplateFile) Append(t *Template) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("failed to create template directory: %w", err)
	}

	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open template file: %w", err)
	}
	if err := WriteTemplate(file, t); err != nil {
		file.Close()
		return fmt.Errorf("failed to append template: %w", err)
	}
	return file.Close()
}
