// Package manifest defines the typed model of a Bedrock add-on manifest:
// the header, the module variants, cross-pack dependencies, and the
// version shapes they carry.
package manifest

import "encoding/json"

// DefaultFormatVersion is assumed when a manifest omits format_version.
const DefaultFormatVersion = 2

// PackKind tells the two correlated pack roles apart.
type PackKind string

const (
	KindResource PackKind = "resource"
	KindBehavior PackKind = "behavior"
)

// Recognizes reports whether a module type belongs in a pack of this
// kind. Entries of the other family are dropped at load time.
func (k PackKind) Recognizes(t ModuleType) bool {
	switch k {
	case KindResource:
		return t == ModuleResources || t == ModuleClientData
	case KindBehavior:
		return t == ModuleData || t == ModuleScript
	default:
		return false
	}
}

// Header is the identity block every manifest carries.
type Header struct {
	Name             string   `json:"name"`
	Description      string   `json:"description,omitempty"`
	UUID             string   `json:"uuid"`
	Version          Version  `json:"version"`
	MinEngineVersion *Version `json:"min_engine_version,omitempty"`
}

// Dependency is a reference to another required pack, either pinned to a
// version triple or named by a free-form tag. A dependency without a uuid
// can never be correlated to a pack header.
type Dependency struct {
	Version    VersionSpec `json:"version"`
	UUID       string      `json:"uuid,omitempty"`
	ModuleName string      `json:"module_name,omitempty"`
}

// Pack is one loaded manifest. Kind and Path are bookkeeping from
// discovery and never serialize.
type Pack struct {
	FormatVersion int             `json:"format_version"`
	Header        Header          `json:"header"`
	Modules       []Module        `json:"modules"`
	Dependencies  []Dependency    `json:"dependencies,omitempty"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`

	Kind PackKind `json:"-"`
	Path string   `json:"-"`
}

// Clone deep-copies the pack so a caller can mutate the copy without
// touching the original.
func (p *Pack) Clone() *Pack {
	if p == nil {
		return nil
	}
	q := *p
	q.Header.MinEngineVersion = cloneVersion(p.Header.MinEngineVersion)
	q.Modules = make([]Module, len(p.Modules))
	for i, m := range p.Modules {
		q.Modules[i] = cloneModule(m)
	}
	if p.Dependencies != nil {
		q.Dependencies = append([]Dependency(nil), p.Dependencies...)
	}
	if p.Metadata != nil {
		q.Metadata = append(json.RawMessage(nil), p.Metadata...)
	}
	return &q
}

func cloneModule(m Module) Module {
	switch t := m.(type) {
	case *ResourcesModule:
		c := *t
		c.Version = cloneVersion(t.Version)
		return &c
	case *ClientDataModule:
		c := *t
		c.Version = cloneVersion(t.Version)
		return &c
	case *DataModule:
		c := *t
		c.Version = cloneVersion(t.Version)
		return &c
	case *ScriptModule:
		c := *t
		c.Version = cloneVersion(t.Version)
		if t.Entry != nil {
			e := *t.Entry
			c.Entry = &e
		}
		return &c
	default:
		return m
	}
}

func cloneVersion(v *Version) *Version {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
