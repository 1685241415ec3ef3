// Package parser turns SCSS text into a tree of typed nodes with byte offsets.
//
// The parser is tolerant: it never fails, and malformed input yields a tree
// that still covers every token so that lookups by offset keep working while
// the user is typing.
package parser

import (
	"strings"
)

type parser struct {
	src  string
	toks []token
	pos  int
}

// Parse parses SCSS source text.
func Parse(text string) *Tree {
	p := &parser{src: text, toks: tokenize(text)}
	root := &Node{Type: Stylesheet, Offset: 0, End: len(text)}
	p.parseStatements(root, true)
	return newTree(text, root)
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) peekAt(n int) token {
	if p.pos+n < len(p.toks) {
		return p.toks[p.pos+n]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.typ != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) prevEnd() int {
	if p.pos == 0 {
		return 0
	}
	return p.toks[p.pos-1].end
}

func stopStatement(t token) bool {
	return t.is(';') || t.is('{') || t.is('}')
}

func stopArgument(t token) bool {
	return t.is(',') || t.is(')') || stopStatement(t)
}

func extend(n *Node, start, end int) {
	if n.Offset < 0 || start < n.Offset {
		n.Offset = start
	}
	if end > n.End {
		n.End = end
	}
}

func (p *parser) parseStatements(parent *Node, top bool) {
	for {
		t := p.peek()
		switch {
		case t.typ == tokEOF:
			return
		case t.is('}'):
			if !top {
				return
			}
			p.next()
		case t.is(';'):
			p.next()
		case t.typ == tokAtKeyword:
			parent.add(p.parseAtRule())
		case t.typ == tokVariable && p.peekAt(1).is(':'):
			parent.add(p.parseVariableDeclaration())
		default:
			parent.add(p.parseRuleOrDeclaration())
		}
	}
}

func (p *parser) parseVariableDeclaration() *Node {
	v := p.next()
	decl := &Node{Type: VariableDeclaration, Offset: v.start, End: v.end}
	decl.add(&Node{Type: VariableName, Offset: v.start, End: v.end})
	colon := p.next()
	decl.End = colon.end
	if expr := p.parseExpression(stopStatement, decl); expr != nil {
		decl.add(expr)
	}
	return decl
}

// scanTerminator finds the first '{', ';' or '}' at nesting depth zero
// without consuming anything.
func (p *parser) scanTerminator() token {
	depth, interp := 0, 0
	for i := p.pos; i < len(p.toks); i++ {
		t := p.toks[i]
		switch {
		case t.typ == tokEOF:
			return t
		case t.typ == tokInterp:
			interp++
		case t.is('(') || t.is('['):
			depth++
		case t.is(')') || t.is(']'):
			if depth > 0 {
				depth--
			}
		case t.is('}') && interp > 0:
			interp--
		case depth == 0 && interp == 0 && (t.is('{') || t.is(';') || t.is('}')):
			return t
		}
	}
	return p.toks[len(p.toks)-1]
}

// looksLikeDeclaration reports whether the statement at the cursor is a
// property declaration rather than a selector.
func (p *parser) looksLikeDeclaration(term token) bool {
	i := p.pos
	first := p.toks[i]
	if first.typ != tokIdent && first.typ != tokInterp {
		return false
	}
	// Property names are identifier and interpolation fragments with no
	// whitespace between them.
	interp := 0
	for ; i < len(p.toks); i++ {
		t := p.toks[i]
		if i > p.pos && t.space && interp == 0 {
			break
		}
		if t.typ == tokInterp {
			interp++
			continue
		}
		if interp > 0 {
			if t.is('}') {
				interp--
			}
			continue
		}
		if t.typ != tokIdent && !t.is('-') {
			break
		}
	}
	if i >= len(p.toks) || !p.toks[i].is(':') {
		return false
	}
	if !term.is('{') {
		return true
	}
	after := p.toks[i+1]
	return after.space || after.is('{')
}

func (p *parser) parseRuleOrDeclaration() *Node {
	term := p.scanTerminator()
	if p.looksLikeDeclaration(term) {
		return p.parseDeclaration()
	}
	if term.is('{') {
		return p.parseRuleset()
	}
	if expr := p.parseExpression(stopStatement, nil); expr != nil {
		return expr
	}
	t := p.next()
	return &Node{Type: Expression, Offset: t.start, End: t.end}
}

func (p *parser) parseDeclaration() *Node {
	first := p.peek()
	decl := &Node{Type: Declaration, Offset: first.start, End: first.end}
	prop := &Node{Type: Property, Offset: first.start, End: first.end}
	for {
		t := p.peek()
		if t.typ == tokEOF || t.is(':') || stopStatement(t) {
			break
		}
		if t.typ == tokInterp {
			prop.add(p.parseInterpolation())
			continue
		}
		p.next()
		prop.End = t.end
	}
	decl.add(prop)
	if p.peek().is(':') {
		colon := p.next()
		decl.End = colon.end
	}
	if expr := p.parseExpression(stopStatement, nil); expr != nil {
		decl.add(expr)
	}
	if p.peek().is('{') {
		decl.add(p.parseBlock())
	}
	return decl
}

func (p *parser) parseRuleset() *Node {
	first := p.peek()
	rs := &Node{Type: Ruleset, Offset: first.start, End: first.end}
	sel := &Node{Type: Selector, Offset: first.start, End: first.end}
	for {
		t := p.peek()
		if t.typ == tokEOF || stopStatement(t) {
			break
		}
		switch t.typ {
		case tokInterp:
			sel.add(p.parseInterpolation())
		case tokPlaceholder:
			p.next()
			sel.add(&Node{Type: Placeholder, Offset: t.start, End: t.end})
		default:
			p.next()
			sel.End = t.end
		}
	}
	rs.add(sel)
	if p.peek().is('{') {
		rs.add(p.parseBlock())
	}
	return rs
}

func (p *parser) parseBlock() *Node {
	open := p.next()
	b := &Node{Type: Block, Offset: open.start, End: open.end}
	p.parseStatements(b, false)
	if p.peek().is('}') {
		c := p.next()
		b.End = c.end
	} else {
		// Unclosed blocks run to the end of the document.
		b.End = len(p.src)
	}
	return b
}

func (p *parser) parseAtRule() *Node {
	at := p.next()
	kw := strings.ToLower(at.text[1:])
	switch kw {
	case "use":
		return p.parseModuleRule(at, kw, Use)
	case "forward":
		return p.parseModuleRule(at, kw, Forward)
	case "import":
		return p.parseModuleRule(at, kw, Import)
	case "mixin":
		return p.parseCallableDeclaration(at, kw, MixinDeclaration)
	case "function":
		return p.parseCallableDeclaration(at, kw, FunctionDeclaration)
	case "include":
		return p.parseInclude(at)
	case "extend":
		return p.parseExtend(at)
	case "each", "for":
		return p.parseLoop(at, kw)
	default:
		n := &Node{Type: AtRule, Keyword: kw, Offset: at.start, End: at.end}
		if expr := p.parseExpression(stopStatement, nil); expr != nil {
			n.add(expr)
		}
		if p.peek().is('{') {
			n.add(p.parseBlock())
		}
		return n
	}
}

func (p *parser) parseModuleRule(at token, kw string, typ NodeType) *Node {
	n := &Node{Type: typ, Keyword: kw, Offset: at.start, End: at.end}
	for {
		t := p.peek()
		if t.typ == tokEOF || stopStatement(t) {
			break
		}
		switch {
		case t.typ == tokString || t.typ == tokURL:
			p.next()
			n.add(&Node{Type: StringLiteral, Offset: t.start, End: t.end})
		case t.typ == tokIdent && t.text == "with" && typ != Import:
			p.next()
			n.End = t.end
			if expr := p.parseExpression(stopStatement, nil); expr != nil {
				n.add(expr)
			}
		default:
			p.next()
			n.End = t.end
		}
	}
	return n
}

func (p *parser) parseCallableDeclaration(at token, kw string, typ NodeType) *Node {
	n := &Node{Type: typ, Keyword: kw, Offset: at.start, End: at.end}
	if t := p.peek(); t.typ == tokIdent {
		p.next()
		n.add(&Node{Type: Identifier, Offset: t.start, End: t.end})
	}
	if p.peek().is('(') {
		p.parseParameters(n)
	}
	p.skipToBlock(n)
	if p.peek().is('{') {
		n.add(p.parseBlock())
	}
	return n
}

func (p *parser) parseInclude(at token) *Node {
	n := &Node{Type: MixinReference, Keyword: "include", Offset: at.start, End: at.end}
	if t := p.peek(); t.typ == tokIdent {
		dot, name := p.peekAt(1), p.peekAt(2)
		if dot.is('.') && !dot.space && name.typ == tokIdent && !name.space {
			p.next()
			p.next()
			p.next()
			n.add(&Node{Type: Identifier, Offset: name.start, End: name.end, Namespace: t.text, NamespaceOffset: t.start})
		} else {
			p.next()
			n.add(&Node{Type: Identifier, Offset: t.start, End: t.end})
		}
	}
	if p.peek().is('(') {
		p.parseArguments(n)
	}
	if u := p.peek(); u.typ == tokIdent && u.text == "using" {
		p.next()
		n.End = u.end
		if p.peek().is('(') {
			p.parseParameters(n)
		}
	}
	p.skipToBlock(n)
	if p.peek().is('{') {
		n.add(p.parseBlock())
	}
	return n
}

func (p *parser) parseExtend(at token) *Node {
	n := &Node{Type: ExtendsReference, Keyword: "extend", Offset: at.start, End: at.end}
	for {
		t := p.peek()
		if t.typ == tokEOF || stopStatement(t) {
			break
		}
		switch t.typ {
		case tokPlaceholder:
			p.next()
			n.add(&Node{Type: Placeholder, Offset: t.start, End: t.end})
		case tokInterp:
			n.add(p.parseInterpolation())
		default:
			p.next()
			n.End = t.end
		}
	}
	return n
}

func (p *parser) parseLoop(at token, kw string) *Node {
	n := &Node{Type: AtRule, Keyword: kw, Offset: at.start, End: at.end}
	binding := &Node{Type: LoopBinding, Offset: -1}
	for {
		t := p.peek()
		if t.typ == tokVariable {
			p.next()
			extend(binding, t.start, t.end)
			binding.add(&Node{Type: VariableName, Offset: t.start, End: t.end})
			continue
		}
		if t.is(',') {
			p.next()
			continue
		}
		break
	}
	if binding.Offset >= 0 {
		n.add(binding)
	}
	if expr := p.parseExpression(stopStatement, nil); expr != nil {
		n.add(expr)
	}
	if p.peek().is('{') {
		n.add(p.parseBlock())
	}
	return n
}

func (p *parser) skipToBlock(n *Node) {
	for {
		t := p.peek()
		if t.typ == tokEOF || stopStatement(t) {
			return
		}
		p.next()
		n.End = t.end
	}
}

// parseParameters reads a parenthesized parameter list of a mixin or
// function declaration, or the using clause of an include.
func (p *parser) parseParameters(owner *Node) {
	open := p.next()
	owner.End = open.end
	for {
		t := p.peek()
		if t.typ == tokEOF || stopStatement(t) {
			return
		}
		if t.is(')') {
			c := p.next()
			owner.End = c.end
			return
		}
		if t.typ != tokVariable {
			p.next()
			continue
		}
		p.next()
		param := &Node{Type: FunctionParameter, Offset: t.start, End: t.end}
		param.add(&Node{Type: VariableName, Offset: t.start, End: t.end})
		if p.peek().is(':') {
			colon := p.next()
			param.End = colon.end
			if expr := p.parseExpression(stopArgument, nil); expr != nil {
				param.add(expr)
			}
		}
		for p.peek().is('.') {
			d := p.next()
			param.End = d.end
		}
		owner.add(param)
	}
}

// parseArguments reads a parenthesized argument list. Keyword argument
// names are not references and are left out of the tree.
func (p *parser) parseArguments(owner *Node) {
	open := p.next()
	owner.End = open.end
	for {
		t := p.peek()
		if t.typ == tokEOF || stopStatement(t) {
			return
		}
		if t.is(')') {
			c := p.next()
			owner.End = c.end
			return
		}
		if t.is(',') {
			p.next()
			continue
		}
		arg := &Node{Type: FunctionArgument, Offset: t.start, End: t.end}
		if t.typ == tokVariable && p.peekAt(1).is(':') {
			p.next()
			p.next()
		}
		if expr := p.parseExpression(stopArgument, nil); expr != nil {
			arg.add(expr)
		}
		owner.add(arg)
	}
}

// parseExpression collects terms until stop matches at the current nesting
// level. When decl is set, trailing !default and !global flags are recorded
// on it instead of becoming part of the expression.
func (p *parser) parseExpression(stop func(token) bool, decl *Node) *Node {
	expr := &Node{Type: Expression, Offset: -1}
	for {
		t := p.peek()
		if t.typ == tokEOF || stop(t) {
			break
		}
		if decl != nil && t.is('!') {
			flag := p.peekAt(1)
			if flag.typ == tokIdent && !flag.space && (flag.text == "default" || flag.text == "global") {
				p.next()
				p.next()
				if flag.text == "default" {
					decl.Default = true
				} else {
					decl.Global = true
				}
				decl.End = flag.end
				continue
			}
		}
		p.parseTerm(expr)
	}
	if expr.Offset < 0 {
		return nil
	}
	return expr
}

func (p *parser) isNamespaced() bool {
	dot, member := p.peekAt(1), p.peekAt(2)
	if !dot.is('.') || dot.space || member.space {
		return false
	}
	if member.typ == tokVariable {
		return true
	}
	paren := p.peekAt(3)
	return member.typ == tokIdent && paren.is('(') && !paren.space
}

func (p *parser) parseTerm(expr *Node) {
	t := p.peek()
	switch {
	case t.typ == tokVariable:
		p.next()
		extend(expr, t.start, t.end)
		expr.add(&Node{Type: VariableName, Offset: t.start, End: t.end})
	case t.typ == tokIdent && p.isNamespaced():
		p.next()
		p.next()
		if m := p.peek(); m.typ == tokVariable {
			p.next()
			extend(expr, t.start, m.end)
			expr.add(&Node{Type: VariableName, Offset: m.start, End: m.end, Namespace: t.text, NamespaceOffset: t.start})
			return
		}
		fn := p.parseCall(&t)
		extend(expr, t.start, fn.End)
		expr.add(fn)
	case t.typ == tokIdent && p.peekAt(1).is('(') && !p.peekAt(1).space:
		fn := p.parseCall(nil)
		extend(expr, fn.Offset, fn.End)
		expr.add(fn)
	case t.typ == tokInterp:
		n := p.parseInterpolation()
		extend(expr, n.Offset, n.End)
		expr.add(n)
	case t.is('(') || t.is('['):
		closer := byte(')')
		if t.is('[') {
			closer = ']'
		}
		p.next()
		extend(expr, t.start, t.end)
		for {
			u := p.peek()
			if u.typ == tokEOF || u.is(closer) || stopStatement(u) {
				break
			}
			p.parseTerm(expr)
		}
		if c := p.peek(); c.is(closer) {
			p.next()
			extend(expr, c.start, c.end)
		}
	case t.typ == tokString:
		p.next()
		extend(expr, t.start, t.end)
		p.stringInterpolations(expr, t)
	default:
		p.next()
		extend(expr, t.start, t.end)
	}
}

// parseCall parses name(args) with the cursor on name. ns is the already
// consumed module qualifier, if any.
func (p *parser) parseCall(ns *token) *Node {
	name := p.next()
	fn := &Node{Type: Function, Offset: name.start, End: name.end}
	id := &Node{Type: Identifier, Offset: name.start, End: name.end}
	if ns != nil {
		fn.Offset = ns.start
		id.Namespace = ns.text
		id.NamespaceOffset = ns.start
	}
	fn.add(id)
	if p.peek().is('(') {
		p.parseArguments(fn)
	}
	return fn
}

func (p *parser) parseInterpolation() *Node {
	open := p.next()
	n := &Node{Type: Interpolation, Offset: open.start, End: open.end}
	if expr := p.parseExpression(func(t token) bool { return t.is('}') || t.is(';') }, nil); expr != nil {
		n.add(expr)
	}
	if c := p.peek(); c.is('}') {
		p.next()
		n.End = c.end
	}
	return n
}

// stringInterpolations parses #{...} segments inside a quoted string.
func (p *parser) stringInterpolations(expr *Node, t token) {
	from := 0
	for {
		i := strings.Index(t.text[from:], "#{")
		if i < 0 {
			return
		}
		start := t.start + from + i
		end := matchingBrace(p.src, start+2, t.end)
		sub := &parser{src: p.src, toks: tokenizeAt(p.src, start+2, end)}
		n := &Node{Type: Interpolation, Offset: start, End: end}
		if inner := sub.parseExpression(func(token) bool { return false }, nil); inner != nil {
			n.add(inner)
		}
		if end < t.end {
			n.End = end + 1
		}
		expr.add(n)
		from = n.End - t.start
		if from >= len(t.text) {
			return
		}
	}
}

func matchingBrace(src string, from, limit int) int {
	depth := 1
	for i := from; i < limit; i++ {
		switch src[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return limit
}

// tokenizeAt tokenizes src[from:to] keeping offsets relative to src.
func tokenizeAt(src string, from, to int) []token {
	toks := tokenize(src[from:to])
	for i := range toks {
		toks[i].start += from
		toks[i].end += from
	}
	return toks
}
