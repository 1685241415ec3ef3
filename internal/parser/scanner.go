package parser

import "unicode/utf8"

type tokenType int

const (
	tokEOF tokenType = iota
	tokIdent
	tokVariable    // $name
	tokAtKeyword   // @name
	tokString      // "..." or '...'
	tokNumber      // 12, 1.5em, 50%
	tokHash        // #fff
	tokPlaceholder // %name
	tokURL         // url(unquoted)
	tokInterp      // #{
	tokDelim
)

type token struct {
	typ   tokenType
	start int
	end   int
	text  string
	// space reports whitespace or a comment between this token and the previous one.
	space bool
}

func (t token) is(delim byte) bool {
	return t.typ == tokDelim && len(t.text) == 1 && t.text[0] == delim
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= utf8.RuneSelf
}

func isNameChar(c byte) bool {
	return isNameStart(c) || c == '-' || (c >= '0' && c <= '9')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// tokenize splits SCSS source into tokens, dropping whitespace and comments.
func tokenize(src string) []token {
	var toks []token
	space := false
	i := 0
	emit := func(typ tokenType, start, end int) {
		toks = append(toks, token{typ: typ, start: start, end: end, text: src[start:end], space: space})
		space = false
	}
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f':
			space = true
			i++
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
			space = true
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			end := indexFrom(src, "*/", i+2)
			if end < 0 {
				i = len(src)
			} else {
				i = end + 2
			}
			space = true
		case c == '"' || c == '\'':
			start := i
			i++
			for i < len(src) && src[i] != c && src[i] != '\n' {
				if src[i] == '\\' {
					i++
				}
				i++
			}
			if i < len(src) && src[i] == c {
				i++
			}
			if i > len(src) {
				i = len(src)
			}
			emit(tokString, start, i)
		case c == '$' && i+1 < len(src) && (isNameStart(src[i+1]) || src[i+1] == '-'):
			start := i
			i = scanName(src, i+1)
			emit(tokVariable, start, i)
		case c == '@' && i+1 < len(src) && (isNameStart(src[i+1]) || src[i+1] == '-'):
			start := i
			i = scanName(src, i+1)
			emit(tokAtKeyword, start, i)
		case c == '#' && i+1 < len(src) && src[i+1] == '{':
			emit(tokInterp, i, i+2)
			i += 2
		case c == '#' && i+1 < len(src) && isNameChar(src[i+1]):
			start := i
			i = scanName(src, i+1)
			emit(tokHash, start, i)
		case c == '%' && i+1 < len(src) && (isNameStart(src[i+1]) || src[i+1] == '-'):
			start := i
			i = scanName(src, i+1)
			emit(tokPlaceholder, start, i)
		case isDigit(c) || (c == '.' && i+1 < len(src) && isDigit(src[i+1])):
			start := i
			for i < len(src) && (isDigit(src[i]) || src[i] == '.') {
				i++
			}
			if i < len(src) && src[i] == '%' {
				i++
			} else if i < len(src) && isNameStart(src[i]) {
				i = scanName(src, i)
			}
			emit(tokNumber, start, i)
		case isNameStart(c) || (c == '-' && i+1 < len(src) && (isNameStart(src[i+1]) || src[i+1] == '-')) || c == '\\':
			start := i
			i = scanName(src, i)
			if i-start == 3 && equalFold(src[start:i], "url") && i < len(src) && src[i] == '(' {
				if end, ok := scanURL(src, i+1); ok {
					emit(tokURL, start, end)
					i = end
					break
				}
			}
			emit(tokIdent, start, i)
		default:
			size := 1
			if c >= utf8.RuneSelf {
				_, size = utf8.DecodeRuneInString(src[i:])
			}
			emit(tokDelim, i, i+size)
			i += size
		}
	}
	toks = append(toks, token{typ: tokEOF, start: len(src), end: len(src), space: space})
	return toks
}

func scanName(src string, i int) int {
	for i < len(src) {
		switch {
		case src[i] == '\\' && i+1 < len(src):
			i += 2
		case isNameChar(src[i]):
			i++
		default:
			return i
		}
	}
	return i
}

// scanURL consumes an unquoted url( ... ) body starting after the parenthesis.
// Quoted bodies are left to the regular tokenizer.
func scanURL(src string, i int) (int, bool) {
	j := i
	for j < len(src) && (src[j] == ' ' || src[j] == '\t') {
		j++
	}
	if j < len(src) && (src[j] == '"' || src[j] == '\'') {
		return 0, false
	}
	for j < len(src) && src[j] != ')' && src[j] != '\n' {
		if src[j] == '#' && j+1 < len(src) && src[j+1] == '{' {
			return 0, false
		}
		j++
	}
	if j < len(src) && src[j] == ')' {
		return j + 1, true
	}
	return 0, false
}

func indexFrom(s, substr string, from int) int {
	for i := from; i+len(substr) <= len(s); i++ {
		if s[i:i+len(substr)] == substr {
			return i
		}
	}
	return -1
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		x, y := a[i], b[i]
		if x >= 'A' && x <= 'Z' {
			x += 'a' - 'A'
		}
		if y >= 'A' && y <= 'Z' {
			y += 'a' - 'A'
		}
		if x != y {
			return false
		}
	}
	return true
}
