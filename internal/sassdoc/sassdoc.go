// Package sassdoc reads SassDoc comment blocks (lines starting with ///).
package sassdoc

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrMalformed = errors.New("malformed sassdoc annotation")

// Comment is a parsed SassDoc block.
type Comment struct {
	Description string       `json:"description,omitempty"`
	Deprecated  *string      `json:"deprecated,omitempty"`
	Types       []string     `json:"type,omitempty"`
	Parameters  []Parameter  `json:"parameters,omitempty"`
	Return      *Return      `json:"return,omitempty"`
	Examples    []string     `json:"examples,omitempty"`
	Groups      []string     `json:"group,omitempty"`
	Access      string       `json:"access,omitempty"`
	Since       []string     `json:"since,omitempty"`
	Authors     []string     `json:"author,omitempty"`
	Links       []string     `json:"link,omitempty"`
	See         []string     `json:"see,omitempty"`
	Output      string       `json:"output,omitempty"`
	Content     string       `json:"content,omitempty"`
	Throws      []string     `json:"throw,omitempty"`
	Requires    []string     `json:"require,omitempty"`
	Todos       []string     `json:"todo,omitempty"`
	Unknown     []Annotation `json:"-"`
}

type Parameter struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Default     string `json:"default,omitempty"`
	Description string `json:"description,omitempty"`
}

type Return struct {
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

type Annotation struct {
	Name  string
	Value string
}

// IsDeprecated reports whether the block carries @deprecated.
func (c *Comment) IsDeprecated() bool {
	return c != nil && c.Deprecated != nil
}

// Parameter returns the documented parameter with the given name, with or
// without the $ sigil.
func (c *Comment) Parameter(name string) (Parameter, bool) {
	if c == nil {
		return Parameter{}, false
	}
	name = strings.TrimPrefix(name, "$")
	for _, p := range c.Parameters {
		if strings.TrimPrefix(p.Name, "$") == name {
			return p, true
		}
	}
	return Parameter{}, false
}

// Block returns the text of the /// lines immediately preceding the line
// that contains offset, with the slashes stripped. ok is false when there is
// no such block.
func Block(text string, offset int) (string, bool) {
	if offset > len(text) {
		offset = len(text)
	}
	lineStart := strings.LastIndexByte(text[:offset], '\n') + 1
	var lines []string
	end := lineStart
	for end > 0 {
		prevEnd := end - 1 // the newline ending the previous line
		start := strings.LastIndexByte(text[:prevEnd], '\n') + 1
		line := strings.TrimSpace(strings.TrimSuffix(text[start:prevEnd], "\r"))
		if !strings.HasPrefix(line, "///") {
			break
		}
		lines = append(lines, strings.TrimPrefix(strings.TrimPrefix(line, "///"), " "))
		end = start
	}
	if len(lines) == 0 {
		return "", false
	}
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
	return strings.Join(lines, "\n"), true
}

var (
	annotationRe = regexp.MustCompile(`^@([a-zA-Z-]+)\s*(.*)$`)
	typedRe      = regexp.MustCompile(`^\{([^}]*)\}\s*(.*)$`)
	paramRe      = regexp.MustCompile(`^(\$?[\w-]+(?:\.\.\.)?)(?:\s*\[([^\]]*)\])?\s*(?:-\s*)?(.*)$`)
)

// Parse parses a comment block as returned by Block. A malformed annotation
// yields the partially filled comment and an error wrapping ErrMalformed.
func Parse(block string) (*Comment, error) {
	c := &Comment{}
	var desc []string
	var current *Annotation
	var errs []error

	flush := func() {
		if current == nil {
			return
		}
		if err := c.apply(*current); err != nil {
			errs = append(errs, err)
		}
		current = nil
	}

	for _, line := range strings.Split(block, "\n") {
		trimmed := strings.TrimSpace(line)
		if m := annotationRe.FindStringSubmatch(trimmed); m != nil {
			flush()
			current = &Annotation{Name: strings.ToLower(m[1]), Value: m[2]}
			continue
		}
		if current != nil {
			if current.Value == "" {
				current.Value = line
			} else {
				current.Value += "\n" + line
			}
			continue
		}
		desc = append(desc, line)
	}
	flush()
	c.Description = strings.TrimSpace(strings.Join(desc, "\n"))
	return c, errors.Join(errs...)
}

func (c *Comment) apply(a Annotation) error {
	value := strings.TrimSpace(a.Value)
	switch a.Name {
	case "deprecated":
		c.Deprecated = &value
	case "type":
		for _, t := range strings.Split(value, "|") {
			if t = strings.TrimSpace(t); t != "" {
				c.Types = append(c.Types, t)
			}
		}
	case "param", "parameter", "arg", "argument":
		p, err := parseParameter(value)
		if err != nil {
			return err
		}
		c.Parameters = append(c.Parameters, p)
	case "return", "returns":
		r := &Return{}
		if m := typedRe.FindStringSubmatch(value); m != nil {
			r.Type, r.Description = strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		} else {
			r.Description = value
		}
		c.Return = r
	case "example":
		c.Examples = append(c.Examples, strings.TrimRight(a.Value, "\n "))
	case "group":
		c.Groups = append(c.Groups, value)
	case "access":
		c.Access = value
	case "since":
		c.Since = append(c.Since, value)
	case "author":
		c.Authors = append(c.Authors, value)
	case "link", "source":
		c.Links = append(c.Links, value)
	case "see":
		c.See = append(c.See, value)
	case "output", "outputs":
		c.Output = value
	case "content":
		c.Content = value
	case "throw", "throws", "exception":
		c.Throws = append(c.Throws, value)
	case "require", "requires":
		c.Requires = append(c.Requires, value)
	case "todo":
		c.Todos = append(c.Todos, value)
	default:
		c.Unknown = append(c.Unknown, Annotation{Name: a.Name, Value: value})
	}
	return nil
}

func parseParameter(value string) (Parameter, error) {
	var p Parameter
	if m := typedRe.FindStringSubmatch(value); m != nil {
		p.Type = strings.TrimSpace(m[1])
		value = m[2]
	}
	m := paramRe.FindStringSubmatch(value)
	if m == nil {
		return p, fmt.Errorf("%w: @param %q has no name", ErrMalformed, value)
	}
	p.Name, p.Default, p.Description = m[1], strings.TrimSpace(m[2]), strings.TrimSpace(m[3])
	return p, nil
}

// Markdown renders the comment for hover documentation.
func (c *Comment) Markdown() string {
	if c == nil {
		return ""
	}
	var b strings.Builder
	if c.Deprecated != nil {
		b.WriteString("**Deprecated**")
		if *c.Deprecated != "" {
			b.WriteString(": " + *c.Deprecated)
		}
		b.WriteString("\n\n")
	}
	if c.Description != "" {
		b.WriteString(c.Description + "\n\n")
	}
	if len(c.Types) > 0 {
		fmt.Fprintf(&b, "@type `%s`\n\n", strings.Join(c.Types, " | "))
	}
	for _, p := range c.Parameters {
		b.WriteString("@param ")
		if p.Type != "" {
			fmt.Fprintf(&b, "`%s` ", p.Type)
		}
		b.WriteString("`" + p.Name + "`")
		if p.Default != "" {
			fmt.Fprintf(&b, " (default `%s`)", p.Default)
		}
		if p.Description != "" {
			b.WriteString(" - " + p.Description)
		}
		b.WriteString("\n\n")
	}
	if c.Return != nil {
		b.WriteString("@return")
		if c.Return.Type != "" {
			fmt.Fprintf(&b, " `%s`", c.Return.Type)
		}
		if c.Return.Description != "" {
			b.WriteString(" " + c.Return.Description)
		}
		b.WriteString("\n\n")
	}
	for _, e := range c.Examples {
		fmt.Fprintf(&b, "```scss\n%s\n```\n\n", strings.TrimSpace(e))
	}
	return strings.TrimSpace(b.String())
}
