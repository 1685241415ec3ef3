// Package symbols holds the per-document symbol tables and module links, and
// builds them from a parsed stylesheet.
package symbols

import (
	"encoding/json"
	"sort"
	"strings"

	lsp "github.com/tliron/glsp/protocol_3_16"

	"github.com/wkillerud/some-sass-sub003/internal/parser"
	"github.com/wkillerud/some-sass-sub003/internal/sassdoc"
)

type Kind int

const (
	Variable Kind = iota
	Mixin
	Function
	Placeholder
)

// Kinds lists every symbol kind.
var Kinds = []Kind{Variable, Mixin, Function, Placeholder}

func (k Kind) String() string {
	switch k {
	case Variable:
		return "variable"
	case Mixin:
		return "mixin"
	case Function:
		return "function"
	case Placeholder:
		return "placeholder"
	}
	return "unknown"
}

func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Parameter of a mixin or function. A nil Value marks a required parameter.
type Parameter struct {
	Name  string  `json:"name"`
	Value *string `json:"value"`
	Doc   string  `json:"doc,omitempty"`
}

// Detail carries the kind specific part of a Symbol. It is one of
// VariableDetail, MixinDetail, FunctionDetail or PlaceholderDetail.
type Detail interface {
	Kind() Kind
	isDetail()
}

type VariableDetail struct {
	// Value is the right-hand side as written, nil when absent.
	Value   *string `json:"value"`
	Default bool    `json:"default,omitempty"`
	Global  bool    `json:"global,omitempty"`
}

type MixinDetail struct {
	Parameters []Parameter `json:"parameters"`
}

type FunctionDetail struct {
	Parameters []Parameter `json:"parameters"`
}

type PlaceholderDetail struct{}

func (VariableDetail) Kind() Kind    { return Variable }
func (MixinDetail) Kind() Kind       { return Mixin }
func (FunctionDetail) Kind() Kind    { return Function }
func (PlaceholderDetail) Kind() Kind { return Placeholder }

func (VariableDetail) isDetail()    {}
func (MixinDetail) isDetail()       {}
func (FunctionDetail) isDetail()    {}
func (PlaceholderDetail) isDetail() {}

// Symbol is one declaration in a document.
type Symbol struct {
	// Name includes the sigil: $var, mixin-name, %placeholder.
	Name string `json:"name"`
	// Offset is the byte offset of the name in the declaring document.
	Offset   int              `json:"offset"`
	Position lsp.Position     `json:"position"`
	Range    lsp.Range        `json:"range"`
	Doc      *sassdoc.Comment `json:"doc,omitempty"`
	Detail   Detail           `json:"detail"`
}

func (s *Symbol) Kind() Kind {
	return s.Detail.Kind()
}

// Parameters returns the parameters of a mixin or function.
func (s *Symbol) Parameters() []Parameter {
	switch d := s.Detail.(type) {
	case MixinDetail:
		return d.Parameters
	case FunctionDetail:
		return d.Parameters
	}
	return nil
}

// Value returns the value of a variable, nil for anything else.
func (s *Symbol) Value() *string {
	if d, ok := s.Detail.(VariableDetail); ok {
		return d.Value
	}
	return nil
}

func (s *Symbol) MarshalJSON() ([]byte, error) {
	type plain Symbol
	return json.Marshal(struct {
		Kind Kind `json:"kind"`
		*plain
	}{s.Kind(), (*plain)(s)})
}

// StripSigil removes the $ or % in front of a name.
func StripSigil(name string) string {
	if strings.HasPrefix(name, "$") || strings.HasPrefix(name, "%") {
		return name[1:]
	}
	return name
}

// IsPrivate reports whether a member name is private to its module.
func IsPrivate(name string) bool {
	bare := StripSigil(name)
	return strings.HasPrefix(bare, "_") || strings.HasPrefix(bare, "-")
}

// WithPrefix inserts a forward prefix into a name after its sigil.
func WithPrefix(prefix, name string) string {
	if prefix == "" {
		return name
	}
	if strings.HasPrefix(name, "$") || strings.HasPrefix(name, "%") {
		return name[:1] + prefix + name[1:]
	}
	return prefix + name
}

// Normalize makes Sass names comparable: underscores and hyphens are the
// same character in Sass identifiers.
func Normalize(name string) string {
	return strings.ReplaceAll(name, "_", "-")
}

type LinkKind int

const (
	Use LinkKind = iota
	Forward
	Import
)

func (k LinkKind) String() string {
	switch k {
	case Use:
		return "use"
	case Forward:
		return "forward"
	case Import:
		return "import"
	}
	return "unknown"
}

func (k LinkKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// Link is one @use, @forward or @import edge.
type Link struct {
	Kind LinkKind `json:"kind"`
	// URL as written in the source.
	URL string `json:"url"`
	// Target is the resolved document URI, a sass:* identifier for built-in
	// modules, or empty when the target could not be resolved.
	Target string    `json:"target,omitempty"`
	Offset int       `json:"offset"`
	End    int       `json:"end"`
	Range  lsp.Range `json:"range"`

	Namespace string `json:"namespace,omitempty"`
	// Aliases holds namespaces of further @use rules for the same target.
	Aliases   []string `json:"aliases,omitempty"`
	IsAliased bool     `json:"isAliased,omitempty"`

	Prefix string   `json:"prefix,omitempty"`
	Hide   []string `json:"hide,omitempty"`
	Show   []string `json:"show,omitempty"`

	Dynamic bool `json:"dynamic,omitempty"`
	CSS     bool `json:"css,omitempty"`
}

// Builtin reports whether the link targets a sass:* module.
func (l *Link) Builtin() bool {
	return strings.HasPrefix(l.Target, "sass:")
}

// Traversable reports whether symbol search may follow the link.
func (l *Link) Traversable() bool {
	return l.Target != "" && !l.CSS && !l.Dynamic && !l.Builtin()
}

// HasNamespace reports whether ns selects this @use link.
func (l *Link) HasNamespace(ns string) bool {
	if l.Namespace == "*" {
		return false
	}
	if l.Namespace == ns || l.Namespace == "_"+ns {
		return true
	}
	for _, a := range l.Aliases {
		if a == ns || a == "_"+ns {
			return true
		}
	}
	return false
}

// Namespaces lists the primary namespace and all aliases.
func (l *Link) Namespaces() []string {
	return append([]string{l.Namespace}, l.Aliases...)
}

// Hidden reports whether a forward filter excludes name.
func (l *Link) Hidden(name string) bool {
	bare := Normalize(name)
	for _, h := range l.Hide {
		if Normalize(h) == bare {
			return true
		}
	}
	if len(l.Show) == 0 {
		return false
	}
	for _, s := range l.Show {
		if Normalize(s) == bare {
			return false
		}
	}
	return true
}

// Document is the record kept for one scanned file.
type Document struct {
	URI     string       `json:"uri"`
	Version int32        `json:"version"`
	Text    string       `json:"-"`
	Hash    uint64       `json:"hash"`
	Tree    *parser.Tree `json:"-"`

	Variables    map[string]*Symbol `json:"variables"`
	Mixins       map[string]*Symbol `json:"mixins"`
	Functions    map[string]*Symbol `json:"functions"`
	Placeholders map[string]*Symbol `json:"placeholders"`

	Uses     []*Link `json:"uses"`
	Forwards []*Link `json:"forwards"`
	Imports  []*Link `json:"imports"`
}

func newDocument(uri string, version int32, text string) *Document {
	return &Document{
		URI:          uri,
		Version:      version,
		Text:         text,
		Variables:    map[string]*Symbol{},
		Mixins:       map[string]*Symbol{},
		Functions:    map[string]*Symbol{},
		Placeholders: map[string]*Symbol{},
	}
}

// Table returns the symbol map for kind.
func (d *Document) Table(kind Kind) map[string]*Symbol {
	switch kind {
	case Variable:
		return d.Variables
	case Mixin:
		return d.Mixins
	case Function:
		return d.Functions
	case Placeholder:
		return d.Placeholders
	}
	return nil
}

// Lookup finds a declaration by kind and name. Tables are keyed by the
// normalized name since Sass treats - and _ in names as the same character.
func (d *Document) Lookup(kind Kind, name string) *Symbol {
	return d.Table(kind)[Normalize(name)]
}

// Symbols returns every symbol of the document ordered by offset.
func (d *Document) Symbols() []*Symbol {
	var out []*Symbol
	for _, k := range Kinds {
		for _, s := range d.Table(k) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Offset != out[j].Offset {
			return out[i].Offset < out[j].Offset
		}
		if out[i].Kind() != out[j].Kind() {
			return out[i].Kind() < out[j].Kind()
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Links returns @use and @import links, plus @forward links when forwards
// is set, in source order.
func (d *Document) Links(forwards bool) []*Link {
	out := make([]*Link, 0, len(d.Uses)+len(d.Forwards)+len(d.Imports))
	out = append(out, d.Uses...)
	if forwards {
		out = append(out, d.Forwards...)
	}
	out = append(out, d.Imports...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}

// LinkAt returns the link whose URL contains offset.
func (d *Document) LinkAt(offset int) *Link {
	for _, l := range d.Links(true) {
		if offset >= l.Offset && offset <= l.End {
			return l
		}
	}
	return nil
}
