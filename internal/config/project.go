package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// PlaceholderYear marks a templated site whose year has not been filled in.
const PlaceholderYear = -9999

// TriState is a nullable boolean. YAML null leaves it unset; any value
// other than a bool or null is a configuration error, caught at decode
// time so it never reaches folder naming.
type TriState struct {
	Set   bool
	Value bool
}

// True and False report the resolved state; both are false when unset.
func (t TriState) True() bool  { return t.Set && t.Value }
func (t TriState) False() bool { return t.Set && !t.Value }

func (t *TriState) UnmarshalYAML(node *yaml.Node) error {
	switch node.Tag {
	case "!!null":
		*t = TriState{}
		return nil
	case "!!bool":
		var b bool
		if err := node.Decode(&b); err != nil {
			return err
		}
		*t = TriState{Set: true, Value: b}
		return nil
	}
	return &ConfigError{Detail: fmt.Sprintf("value %q must be true, false or null", node.Value)}
}

func (t TriState) MarshalYAML() (any, error) {
	if !t.Set {
		return nil, nil
	}
	return t.Value, nil
}

// Researcher identifies the person responsible for a project.
type Researcher struct {
	FirstName   string `yaml:"FirstName"`
	LastName    string `yaml:"LastName"`
	Title       string `yaml:"Title"`
	Email       string `yaml:"email"`
	Institution string `yaml:"institution"`
	Role        string `yaml:"role"`
	ORCID       string `yaml:"orcid"`
}

// Site is a physical or controlled location within a project. A site with
// an empty name or the placeholder year is a template entry and is skipped
// during materialization.
type Site struct {
	Name                  string   `yaml:"name"`
	Year                  int      `yaml:"year"`
	Season                string   `yaml:"season"`
	SubLocation           string   `yaml:"SubLocation"`
	Latitude              float64  `yaml:"latitude"`
	Longitude             float64  `yaml:"longitude"`
	Description           string   `yaml:"description"`
	ControlledEnvironment TriState `yaml:"ControlledEnvironment"`
	Sensors               []string `yaml:"sensors"`
}

// Placeholder reports whether the site is an untouched template entry.
func (s *Site) Placeholder() bool {
	return s.Name == "" || s.Year == PlaceholderYear
}

// FolderName derives the canonical site folder name: {year}{name}, with
// _C appended for controlled environments and _F for field sites. Pure
// and idempotent over the site's attributes.
func (s *Site) FolderName() string {
	name := fmt.Sprintf("%d%s", s.Year, s.Name)
	switch {
	case s.ControlledEnvironment.True():
		return name + "_C"
	case s.ControlledEnvironment.False():
		return name + "_F"
	}
	return name
}

// Project holds the metadata record for one research effort.
type Project struct {
	ShortName     string     `yaml:"ShortName"`
	FullName      string     `yaml:"FullName"`
	Description   string     `yaml:"description"`
	StartDate     string     `yaml:"start_date"`
	EndDate       string     `yaml:"end_date"`
	FundingSource string     `yaml:"funding_source"`
	Status        string     `yaml:"status"`
	ProjectCode   string     `yaml:"ProjectCode"`
	Internal      TriState   `yaml:"Internal"`
	Researcher    Researcher `yaml:"researcher"`
	Sites         []Site     `yaml:"sites"`
}

// FindSite locates a configured site by name and year. When a same-named
// site exists under a different year, yearMismatch carries that year so
// the caller can distinguish the two failure modes.
func (p *Project) FindSite(name string, year int) (site *Site, yearMismatch *Site) {
	for i := range p.Sites {
		s := &p.Sites[i]
		if s.Name != name {
			continue
		}
		if s.Year == year {
			return s, nil
		}
		yearMismatch = s
	}
	return nil, yearMismatch
}

// ProjectFile is the on-disk shape of ProjectSummary.yaml.
type ProjectFile struct {
	Project Project `yaml:"project"`
}

// NewProjectTemplate builds the record written when a project is first
// encountered. Every field except the short name is a placeholder to be
// hand-edited afterwards.
func NewProjectTemplate(name string) *ProjectFile {
	return &ProjectFile{Project: Project{
		ShortName: name,
		Researcher: Researcher{
			Role: "Principal Investigator",
		},
		Sites: []Site{{
			Year:      PlaceholderYear,
			Latitude:  math.NaN(),
			Longitude: math.NaN(),
			Sensors:   []string{},
		}},
	}}
}

// EnsureProject loads a project record, writing a template first if the
// file does not exist. Existing records are never overwritten.
func EnsureProject(path, name string) (*Project, bool, error) {
	created := false
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		data, err := yaml.Marshal(NewProjectTemplate(name))
		if err != nil {
			return nil, false, fmt.Errorf("encode project template: %w", err)
		}
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return nil, false, fmt.Errorf("write project template: %w", err)
		}
		slog.Info("new project record created, edit it to add project and site information", "path", path)
		created = true
	}

	p, err := LoadProject(path)
	if err != nil {
		return nil, created, err
	}
	return p, created, nil
}

// LoadProject reads and shape-checks a ProjectSummary.yaml.
func LoadProject(path string) (*Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project record: %w", err)
	}

	var pf ProjectFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		var ce *ConfigError
		if errors.As(err, &ce) {
			return nil, &ConfigError{File: path, Detail: ce.Detail}
		}
		return nil, &ConfigError{File: path, Detail: err.Error()}
	}

	return &pf.Project, nil
}
