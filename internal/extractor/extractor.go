package extractor

import (
	"context"
	"fmt"
	"os"

	sitter "github.com/smacker/go-tree-sitter"

	"docsync/internal/document"
	"docsync/internal/syntax"
)

// Extractor orchestrates parsing using a language-specific extractor.
type Extractor struct {
	langExtractor LanguageExtractor
	langName      string
}

// NewExtractor creates a new extractor for a given language.
func NewExtractor(lang string) (*Extractor, error) {
	var langExt LanguageExtractor
	switch lang {
	case "php":
		langExt = &PHPExtractor{}
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
	return &Extractor{langExtractor: langExt, langName: lang}, nil
}

// Parse converts a document into the syntax model. Parsing is tolerant: unparseable fragments
// become placeholders and their ranges are reported in File.Errors.
func (e *Extractor) Parse(ctx context.Context, doc document.Document) (*syntax.File, error) {
	source := doc.Bytes()
	tree, err := e.parse(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", doc.URI(), err)
	}
	return e.langExtractor.Convert(tree.RootNode(), source), nil
}

// ExtractFromFile parses a single source file and extracts its class-like declarations.
func (e *Extractor) ExtractFromFile(filepath string) ([]*CodeUnit, error) {
	sourceCode, err := os.ReadFile(filepath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filepath, err)
	}
	return e.ExtractFromSource(context.Background(), filepath, sourceCode)
}

// ExtractFromSource extracts class-like declarations from already loaded source.
func (e *Extractor) ExtractFromSource(ctx context.Context, filepath string, sourceCode []byte) ([]*CodeUnit, error) {
	tree, err := e.parse(ctx, sourceCode)
	if err != nil {
		return nil, fmt.Errorf("failed to parse file %s: %w", filepath, err)
	}

	namespace := e.detectNamespace(tree.RootNode(), sourceCode)

	var codeUnits []*CodeUnit

	query, err := sitter.NewQuery([]byte(e.langExtractor.GetQuery()), e.langExtractor.GetLanguage())
	if err != nil {
		return nil, fmt.Errorf("failed to create query: %w", err)
	}

	qc := sitter.NewQueryCursor()
	qc.Exec(query, tree.RootNode())

	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		for _, c := range m.Captures {
			captureName := query.CaptureNameForId(c.Index)
			unit := e.langExtractor.ExtractUnit(captureName, c.Node, sourceCode, filepath, namespace)
			if unit != nil {
				unit.ID = BuildStableSymbolID(unit)
				codeUnits = append(codeUnits, unit)
			}
		}
	}

	return codeUnits, nil
}

func (e *Extractor) parse(ctx context.Context, source []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(e.langExtractor.GetLanguage())
	return parser.ParseCtx(ctx, nil, source)
}

func (e *Extractor) detectNamespace(root *sitter.Node, sourceCode []byte) string {
	if e.langName != "php" {
		return ""
	}
	nsQuery, err := sitter.NewQuery([]byte(`(namespace_definition name: (namespace_name) @ns)`), e.langExtractor.GetLanguage())
	if err != nil {
		return ""
	}
	nqc := sitter.NewQueryCursor()
	nqc.Exec(nsQuery, root)
	if m, ok := nqc.NextMatch(); ok && len(m.Captures) > 0 {
		return m.Captures[0].Node.Content(sourceCode)
	}
	return ""
}
