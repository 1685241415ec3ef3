package symbols

import (
	"path"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/tliron/commonlog"

	"github.com/wkillerud/some-sass-sub003/internal/builtin"
	"github.com/wkillerud/some-sass-sub003/internal/parser"
	"github.com/wkillerud/some-sass-sub003/internal/sassdoc"
)

var log = commonlog.GetLogger("scssls.symbols")

// Extractor builds Documents from stylesheet text.
type Extractor struct {
	Targets *Targets
}

func NewExtractor(targets *Targets) *Extractor {
	return &Extractor{Targets: targets}
}

// Hash is the content hash stored on documents.
func Hash(text string) uint64 {
	return xxhash.Sum64String(text)
}

// Extract parses text and collects its declarations and module links.
func (e *Extractor) Extract(uri string, version int32, text string) *Document {
	doc := newDocument(uri, version, text)
	doc.Hash = Hash(text)
	doc.Tree = parser.Parse(text)
	e.extractLinks(doc)
	extractSymbols(doc)
	return doc
}

func (e *Extractor) extractLinks(doc *Document) {
	tree := doc.Tree
	for _, n := range tree.Nodes(parser.Use, parser.Forward, parser.Import) {
		st, ok := ClassifyModuleStatement(tree.TextOf(n))
		if !ok {
			continue
		}
		literals := n.ChildrenOf(parser.StringLiteral)
		for i, u := range st.URLs {
			if i >= len(literals) {
				break
			}
			lit := literals[i]
			link := &Link{
				Kind:      st.Kind,
				URL:       u.URL,
				Offset:    lit.Offset,
				End:       lit.End,
				Range:     tree.Range(lit),
				Namespace: st.Namespace,
				IsAliased: st.IsAliased,
				Prefix:    st.Prefix,
				Hide:      st.Hide,
				Show:      st.Show,
				Dynamic:   u.Dynamic,
				CSS:       u.CSS,
			}
			e.resolveTarget(doc.URI, link)
			addLink(doc, link)
		}
	}
}

func (e *Extractor) resolveTarget(from string, link *Link) {
	switch {
	case strings.HasPrefix(link.URL, "sass:"):
		if builtin.IsBuiltin(link.URL) {
			link.Target = link.URL
		}
	case link.Dynamic:
	case link.Kind == Import && link.CSS && !strings.HasSuffix(link.URL, ".css"):
		// url(), remote and media query imports never name a local module.
	default:
		link.Target = e.Targets.Resolve(from, link.URL)
		// A plain stylesheet declares nothing Sass can reference.
		if path.Ext(link.Target) == ".css" {
			link.CSS = true
		}
	}
	if link.Kind == Use && link.Namespace == "" {
		if link.Target != "" && !link.Builtin() {
			link.Namespace = DefaultNamespace(link.Target)
		} else {
			link.Namespace = DefaultNamespace(link.URL)
		}
	}
}

// addLink adds link to doc, collapsing rules that point at the same
// resolved target. The first rule keeps its metadata; further @use
// namespaces are kept as aliases.
func addLink(doc *Document, link *Link) {
	if link.Target == "" {
		appendLink(doc, link)
		return
	}
	switch link.Kind {
	case Use:
		for _, l := range doc.Uses {
			if l.Target != link.Target {
				continue
			}
			for _, ns := range l.Namespaces() {
				if ns == link.Namespace {
					return
				}
			}
			l.Aliases = append(l.Aliases, link.Namespace)
			return
		}
	case Forward:
		for _, l := range doc.Forwards {
			if l.Target == link.Target && l.Prefix == link.Prefix {
				log.Debugf("%s: duplicate @forward of %s", doc.URI, link.Target)
				return
			}
		}
	case Import:
		for _, l := range doc.Imports {
			if l.Target == link.Target {
				return
			}
		}
	}
	appendLink(doc, link)
}

func appendLink(doc *Document, link *Link) {
	switch link.Kind {
	case Use:
		doc.Uses = append(doc.Uses, link)
	case Forward:
		doc.Forwards = append(doc.Forwards, link)
	case Import:
		doc.Imports = append(doc.Imports, link)
	}
}

func extractSymbols(doc *Document) {
	tree := doc.Tree
	parser.Walk(tree.Root, func(n *parser.Node) bool {
		switch n.Type {
		case parser.VariableDeclaration:
			if n.Parent.Type == parser.Stylesheet || n.Global {
				addVariable(doc, n)
			}
		case parser.MixinDeclaration, parser.FunctionDeclaration:
			if n.Parent.Type == parser.Stylesheet {
				addCallable(doc, n)
			}
		case parser.Placeholder:
			if n.Parent.Type == parser.Selector {
				addPlaceholder(doc, n)
			}
		}
		return true
	})
}

func newSymbol(doc *Document, name *parser.Node, detail Detail) *Symbol {
	return &Symbol{
		Name:     doc.Tree.TextOf(name),
		Offset:   name.Offset,
		Position: doc.Tree.Position(name.Offset),
		Range:    doc.Tree.Range(name),
		Doc:      docComment(doc, name),
		Detail:   detail,
	}
}

func docComment(doc *Document, name *parser.Node) *sassdoc.Comment {
	block, ok := sassdoc.Block(doc.Text, name.Offset)
	if !ok {
		return nil
	}
	c, err := sassdoc.Parse(block)
	if err != nil {
		log.Warningf("%s: %s", doc.URI, err)
		return nil
	}
	return c
}

func addVariable(doc *Document, decl *parser.Node) {
	name := decl.Child(parser.VariableName)
	if name == nil {
		return
	}
	d := VariableDetail{Default: decl.Default, Global: decl.Global}
	if expr := decl.Child(parser.Expression); expr != nil {
		v := doc.Tree.TextOf(expr)
		d.Value = &v
	}
	s := newSymbol(doc, name, d)
	doc.Variables[Normalize(s.Name)] = s
}

func addCallable(doc *Document, decl *parser.Node) {
	name := decl.Child(parser.Identifier)
	if name == nil {
		return
	}
	var params []Parameter
	for _, p := range decl.ChildrenOf(parser.FunctionParameter) {
		pn := p.Child(parser.VariableName)
		if pn == nil {
			continue
		}
		param := Parameter{Name: doc.Tree.TextOf(pn)}
		if def := p.Child(parser.Expression); def != nil {
			v := doc.Tree.TextOf(def)
			param.Value = &v
		}
		params = append(params, param)
	}
	var s *Symbol
	if decl.Type == parser.MixinDeclaration {
		s = newSymbol(doc, name, MixinDetail{Parameters: params})
		doc.Mixins[Normalize(s.Name)] = s
	} else {
		s = newSymbol(doc, name, FunctionDetail{Parameters: params})
		doc.Functions[Normalize(s.Name)] = s
	}
	if s.Doc != nil {
		for i := range params {
			if p, ok := s.Doc.Parameter(params[i].Name); ok {
				params[i].Doc = p.Description
			}
		}
	}
}

func addPlaceholder(doc *Document, n *parser.Node) {
	// Placeholders with interpolated names cannot be referenced statically.
	if n.End < len(doc.Text) && strings.HasPrefix(doc.Text[n.End:], "#{") {
		return
	}
	s := newSymbol(doc, n, PlaceholderDetail{})
	doc.Placeholders[Normalize(s.Name)] = s
}
