package extractor

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// BuildStableSymbolID creates a deterministic symbol ID.
// The ID is derived from identity fields and a hash of the declared surface of the unit.
func BuildStableSymbolID(unit *CodeUnit) string {
	if unit == nil {
		return ""
	}

	lang := strings.TrimSpace(unit.Language)
	if lang == "" {
		lang = "unknown"
	}

	ns := strings.TrimSpace(unit.Namespace)
	if ns == "" {
		ns = "_"
	}

	kind := strings.TrimSpace(unit.UnitType)
	if kind == "" {
		kind = "symbol"
	}

	name := strings.TrimSpace(unit.Name)
	if name == "" {
		name = "_"
	}

	fingerprint := strings.Join([]string{
		lang,
		ns,
		kind,
		name,
		signature(unit),
	}, "|")

	sum := sha256.Sum256([]byte(fingerprint))
	short := hex.EncodeToString(sum[:8])
	return fmt.Sprintf("%s/%s:%s:%s:%s", lang, ns, kind, name, short)
}

// signature renders the inheritance and method names in a canonical order.
func signature(unit *CodeUnit) string {
	var d PHPClassDetails
	switch details := unit.Details.(type) {
	case PHPClassDetails:
		d = details
	case *PHPClassDetails:
		if details == nil {
			return ""
		}
		d = *details
	default:
		return ""
	}

	methods := make([]string, 0, len(d.Methods))
	for _, m := range d.Methods {
		methods = append(methods, m.Name)
	}
	sort.Strings(methods)

	implements := append([]string(nil), d.Implements...)
	sort.Strings(implements)

	return d.Extends + ";" + strings.Join(implements, ",") + ";" + strings.Join(methods, ",")
}
