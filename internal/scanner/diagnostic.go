package scanner

import "fmt"

// Severity of a scan diagnostic.
type Severity string

const (
	SeverityInfo Severity = "info"
	SeverityWarn Severity = "warn"
)

// Code identifies why a file or entry was not adopted.
type Code string

const (
	// CodeUnreadable marks a manifest file that could not be read.
	CodeUnreadable Code = "unreadable-file"
	// CodeInvalidManifest marks a file that is not decodable manifest
	// JSON or is missing a required field.
	CodeInvalidManifest Code = "invalid-manifest"
	// CodeUnknownModule marks a single skipped module entry.
	CodeUnknownModule Code = "unknown-module-type"
	// CodeNotAPack marks a well-formed manifest with no pack-defining
	// module.
	CodeNotAPack Code = "not-a-pack"
	// CodeDuplicatePack marks a manifest ignored because a pack of its
	// kind was already adopted.
	CodeDuplicatePack Code = "duplicate-pack"
)

// Diagnostic records one skipped file or entry. Scanning never fails over
// manifest contents; diagnostics keep the skips inspectable.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Code     Code     `json:"code"`
	Path     string   `json:"path"`
	Message  string   `json:"message"`
	Err      error    `json:"-"`
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s %s %s: %s", d.Severity, d.Code, d.Path, d.Message)
}
