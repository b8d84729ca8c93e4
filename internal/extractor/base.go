package extractor

import (
	sitter "github.com/smacker/go-tree-sitter"

	"docsync/internal/syntax"
)

// CodeUnit is the index entry for one class-like declaration.
type CodeUnit struct {
	ID          string      `json:"id"`
	Filepath    string      `json:"filepath"`
	Namespace   string      `json:"namespace"`
	Language    string      `json:"language"`
	StartLine   int         `json:"start_line"`
	EndLine     int         `json:"end_line"`
	UnitType    string      `json:"unit_type"` // "class", "interface", "trait" or "enum"
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Details     interface{} `json:"details"` // Language-specific details
}

// FQN returns the namespaced name of the unit.
func (u *CodeUnit) FQN() string {
	if u.Namespace == "" {
		return u.Name
	}
	return u.Namespace + `\` + u.Name
}

// LanguageExtractor defines the interface that each language parser must implement.
type LanguageExtractor interface {
	GetLanguage() *sitter.Language
	GetQuery() string
	ExtractUnit(captureName string, node *sitter.Node, sourceCode []byte, filepath string, namespace string) *CodeUnit
	// Convert maps a whole parse tree onto the syntax model.
	Convert(root *sitter.Node, sourceCode []byte) *syntax.File
}
