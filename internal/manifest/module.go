package manifest

import (
	"encoding/json"
	"fmt"
)

// ModuleType is the discriminator tag of a manifest module entry.
type ModuleType string

const (
	ModuleResources  ModuleType = "resources"
	ModuleClientData ModuleType = "client_data"
	ModuleData       ModuleType = "data"
	ModuleScript     ModuleType = "script"
)

// DefaultScriptLanguage is assumed when a script module names no language.
const DefaultScriptLanguage = "javascript"

// UnknownModuleTypeError reports a module entry whose type tag is not one
// of the four known variants, or is not valid for the pack kind at hand.
type UnknownModuleTypeError struct {
	Tag string
}

func (e *UnknownModuleTypeError) Error() string {
	return fmt.Sprintf("unknown module type %q", e.Tag)
}

// ParseModuleType maps a raw type tag to its ModuleType.
func ParseModuleType(tag string) (ModuleType, error) {
	switch t := ModuleType(tag); t {
	case ModuleResources, ModuleClientData, ModuleData, ModuleScript:
		return t, nil
	default:
		return "", &UnknownModuleTypeError{Tag: tag}
	}
}

// Classifies reports which pack kind a module of this type marks its
// manifest as. Script modules never classify a manifest on their own.
func (t ModuleType) Classifies() (PackKind, bool) {
	switch t {
	case ModuleData:
		return KindBehavior, true
	case ModuleResources, ModuleClientData:
		return KindResource, true
	default:
		return "", false
	}
}

// Module is the closed set of manifest module variants. Code that needs
// variant-specific fields switches on the concrete type; shared identity
// fields are reachable through Common.
type Module interface {
	Type() ModuleType
	Common() *ModuleCommon
}

// ModuleCommon holds the fields every module variant shares. Version is a
// pointer so a hand-built module without one stays distinguishable from
// version 0.0.0.
type ModuleCommon struct {
	UUID        string
	Version     *Version
	Description string
}

func (c *ModuleCommon) Common() *ModuleCommon { return c }

// ResourcesModule declares raw client resources.
type ResourcesModule struct {
	ModuleCommon
}

func (*ResourcesModule) Type() ModuleType { return ModuleResources }

// ClientDataModule declares client-side data.
type ClientDataModule struct {
	ModuleCommon
}

func (*ClientDataModule) Type() ModuleType { return ModuleClientData }

// DataModule declares server-side behavior data.
type DataModule struct {
	ModuleCommon
}

func (*DataModule) Type() ModuleType { return ModuleData }

// ScriptModule declares a script entry point.
type ScriptModule struct {
	ModuleCommon
	Language string
	Entry    *string
}

func (*ScriptModule) Type() ModuleType { return ModuleScript }

// moduleJSON fixes the serialized field order for every variant.
type moduleJSON struct {
	Type        ModuleType `json:"type"`
	UUID        string     `json:"uuid"`
	Version     *Version   `json:"version,omitempty"`
	Description string     `json:"description,omitempty"`
	Language    string     `json:"language,omitempty"`
	Entry       *string    `json:"entry,omitempty"`
}

func (m *ResourcesModule) MarshalJSON() ([]byte, error) {
	return json.Marshal(moduleJSON{Type: ModuleResources, UUID: m.UUID, Version: m.Version, Description: m.Description})
}

func (m *ClientDataModule) MarshalJSON() ([]byte, error) {
	return json.Marshal(moduleJSON{Type: ModuleClientData, UUID: m.UUID, Version: m.Version, Description: m.Description})
}

func (m *DataModule) MarshalJSON() ([]byte, error) {
	return json.Marshal(moduleJSON{Type: ModuleData, UUID: m.UUID, Version: m.Version, Description: m.Description})
}

func (m *ScriptModule) MarshalJSON() ([]byte, error) {
	lang := m.Language
	if lang == "" {
		lang = DefaultScriptLanguage
	}
	return json.Marshal(moduleJSON{Type: ModuleScript, UUID: m.UUID, Version: m.Version, Description: m.Description, Language: lang, Entry: m.Entry})
}
