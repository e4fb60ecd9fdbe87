package differ

import (
	"strings"

	"github.com/wI2L/jsondiff"
)

// Translate patches to english, deduped in patch order.
func Translate(patches jsondiff.Patch) []string {
	if len(patches) == 0 {
		return nil
	}

	var translations []string
	seen := make(map[string]bool)

	for _, op := range patches {
		translation := translateOperation(op)
		if translation != "" && !seen[translation] {
			seen[translation] = true
			translations = append(translations, translation)
		}
	}

	return translations
}

func translateOperation(op jsondiff.Operation) string {
	path := op.Path

	switch {
	case strings.HasPrefix(path, "/header/version/"):
		return "Header version advanced."
	case strings.HasPrefix(path, "/modules/") && strings.Contains(path, "/version/"):
		return "Module versions aligned with the header."
	case strings.HasPrefix(path, "/dependencies/") && strings.Contains(path, "/version/"):
		return "Pinned counterpart dependency re-targeted."
	}

	switch op.Type {
	case jsondiff.OperationAdd:
		return "Manifest field " + path + " added."
	case jsondiff.OperationRemove:
		return "Manifest field " + path + " removed."
	case jsondiff.OperationReplace:
		return "Manifest field " + path + " changed."
	default:
		return ""
	}
}
