package extractor

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/php"

	"docsync/internal/syntax"
)

// PHPExtractor implements LanguageExtractor for PHP.
type PHPExtractor struct{}

func (p *PHPExtractor) GetLanguage() *sitter.Language {
	return php.GetLanguage()
}

func (p *PHPExtractor) GetQuery() string {
	return `
		(class_declaration) @class
		(interface_declaration) @interface
		(trait_declaration) @trait
		(enum_declaration) @enum
	`
}

func (p *PHPExtractor) Convert(root *sitter.Node, sourceCode []byte) *syntax.File {
	return newConverter(sourceCode).file(root)
}

func (p *PHPExtractor) ExtractUnit(captureName string, node *sitter.Node, sourceCode []byte, filepath string, namespace string) *CodeUnit {
	conv := newConverter(sourceCode)
	conv.namespace = namespace

	var kind syntax.ClassKind
	switch captureName {
	case "class":
		kind = syntax.KindClass
	case "interface":
		kind = syntax.KindInterface
	case "trait":
		kind = syntax.KindTrait
	case "enum":
		kind = syntax.KindEnum
	default:
		return nil
	}

	class := conv.class(node, kind)
	if class.Name == "" {
		return nil
	}

	details := PHPClassDetails{
		Extends:    class.Extends,
		Implements: class.Implements,
		Abstract:   class.Abstract,
	}
	for _, m := range class.Methods {
		md := PHPMethodDetails{
			Name:       m.Name,
			Visibility: m.Visibility,
			Static:     m.Static,
			Abstract:   m.Body == nil,
		}
		if m.ReturnType != nil {
			md.ReturnType = m.ReturnType.Text
		}
		if m.Doc != nil {
			md.Doc = m.Doc.Text
		}
		for _, param := range m.Params {
			pd := PHPParam{Name: param.Name, Variadic: param.Variadic}
			if param.Type != nil {
				pd.Type = param.Type.Text
			}
			md.Parameters = append(md.Parameters, pd)
		}
		details.Methods = append(details.Methods, md)
	}
	for _, prop := range class.Properties {
		pd := PHPProperty{Name: prop.Name, Static: prop.Static}
		if prop.Type != nil {
			pd.Type = prop.Type.Text
		}
		if prop.Doc != nil {
			pd.Doc = prop.Doc.Text
		}
		details.Properties = append(details.Properties, pd)
	}

	description := ""
	if class.Doc != nil {
		description = cleanDocComment(class.Doc.Text)
	}

	return &CodeUnit{
		Filepath:    filepath,
		Namespace:   namespace,
		Language:    "php",
		StartLine:   int(node.StartPoint().Row + 1),
		EndLine:     int(node.EndPoint().Row + 1),
		UnitType:    kind.String(),
		Name:        class.Name,
		Description: description,
		Details:     details,
	}
}

// PHP-specific Detail Schemas

type PHPClassDetails struct {
	Extends    string             `json:"extends,omitempty"`
	Implements []string           `json:"implements,omitempty"`
	Abstract   bool               `json:"abstract,omitempty"`
	Methods    []PHPMethodDetails `json:"methods"`
	Properties []PHPProperty      `json:"properties"`
}

type PHPMethodDetails struct {
	Name       string     `json:"name"`
	Visibility string     `json:"visibility,omitempty"`
	Static     bool       `json:"static,omitempty"`
	Abstract   bool       `json:"abstract,omitempty"`
	Parameters []PHPParam `json:"parameters"`
	ReturnType string     `json:"return_type,omitempty"`
	Doc        string     `json:"doc,omitempty"`
}

type PHPParam struct {
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	Variadic bool   `json:"variadic,omitempty"`
}

type PHPProperty struct {
	Name   string `json:"name"`
	Type   string `json:"type,omitempty"`
	Doc    string `json:"doc,omitempty"`
	Static bool   `json:"static,omitempty"`
}

func cleanDocComment(rawComment string) string {
	if rawComment == "" {
		return ""
	}
	lines := strings.Split(rawComment, "\n")
	var cleaned []string
	for _, l := range lines {
		l = strings.TrimSpace(l)
		l = strings.TrimPrefix(l, "/**")
		l = strings.TrimSuffix(l, "*/")
		l = strings.TrimPrefix(l, "*")
		if l = strings.TrimSpace(l); l != "" {
			cleaned = append(cleaned, l)
		}
	}
	return strings.Join(cleaned, "\n")
}
