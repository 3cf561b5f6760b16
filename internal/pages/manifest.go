package pages

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/goccy/go-yaml"

	pagepdf "github.com/porticus-lab/go-page-pdf"
)

//go:embed manifest.yaml
var defaultManifest []byte

// maxManifestSize bounds manifest files read from disk.
const maxManifestSize = 1 << 20

// PageSpec declares one page of the document.
type PageSpec struct {
	ID       string         `yaml:"id"`
	Template string         `yaml:"template"`
	Title    string         `yaml:"title"`
	Bindings map[string]any `yaml:"bindings"`
}

// Manifest is the ordered list of pages making up the combined document.
type Manifest struct {
	Pages []PageSpec `yaml:"pages"`
}

// DefaultManifest returns the built-in manifest.
func DefaultManifest() *Manifest {
	m, err := ParseManifest(defaultManifest)
	if err != nil {
		panic(fmt.Sprintf("pages: built-in manifest: %v", err))
	}
	return m
}

// LoadManifest reads a manifest file. An empty path selects the built-in
// manifest.
func LoadManifest(path string) (*Manifest, error) {
	if path == "" {
		return DefaultManifest(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	if len(data) > maxManifestSize {
		return nil, fmt.Errorf("manifest %s exceeds %d bytes", path, maxManifestSize)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return m, nil
}

// ParseManifest decodes and validates a YAML manifest. Unknown fields are
// rejected.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.UnmarshalWithOptions(data, &m, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks that every page has a unique id and a known template.
func (m *Manifest) Validate() error {
	if len(m.Pages) == 0 {
		return errors.New("manifest declares no pages")
	}
	var errs []error
	seen := make(map[string]bool, len(m.Pages))
	for i, p := range m.Pages {
		id := strings.TrimSpace(p.ID)
		switch {
		case id == "":
			errs = append(errs, fmt.Errorf("page %d: id is required", i+1))
			continue
		case seen[id]:
			errs = append(errs, fmt.Errorf("page %d: duplicate id %q", i+1, id))
		}
		seen[id] = true
		if _, ok := LookupTemplate(p.Template); !ok {
			errs = append(errs, fmt.Errorf("page %q: unknown template %q (have %s)",
				id, p.Template, strings.Join(TemplateNames(), ", ")))
		}
	}
	return errors.Join(errs...)
}

// Page returns the page declared with id.
func (m *Manifest) Page(id string) (PageSpec, bool) {
	for _, p := range m.Pages {
		if p.ID == id {
			return p, true
		}
	}
	return PageSpec{}, false
}

// IDs returns the page ids in document order.
func (m *Manifest) IDs() []string {
	ids := make([]string, len(m.Pages))
	for i, p := range m.Pages {
		ids[i] = p.ID
	}
	return ids
}

// Requests builds the ordered page requests for ids, or for every page of
// the manifest when ids is empty. Ids are not checked against the manifest;
// an unknown id renders as a fallback page.
func (m *Manifest) Requests(ids ...string) []pagepdf.PageRequest {
	if len(ids) == 0 {
		ids = m.IDs()
	}
	reqs := make([]pagepdf.PageRequest, 0, len(ids))
	for _, id := range ids {
		reqs = append(reqs, pagepdf.PageRequest{ID: id})
	}
	return reqs
}
