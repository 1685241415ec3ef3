package embedded

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"
)

// Match is one capture of a query.
type Match struct {
	Capture   string
	StartByte uint32
	EndByte   uint32
	Content   string
}

func executeQuery(root *sitter.Node, q *sitter.Query, source []byte) []Match {
	qc := sitter.NewQueryCursor()
	defer qc.Close()
	qc.Exec(q, root)

	var matches []Match
	for {
		m, ok := qc.NextMatch()
		if !ok {
			break
		}
		m = qc.FilterPredicates(m, source)
		for _, c := range m.Captures {
			matches = append(matches, Match{
				Capture:   q.CaptureNameForId(c.Index),
				StartByte: c.Node.StartByte(),
				EndByte:   c.Node.EndByte(),
				Content:   c.Node.Content(source),
			})
		}
	}
	return matches
}

// ParserPool holds tree-sitter parsers for one host language. Parsers are
// not safe for concurrent use, so each parse borrows one from the pool.
type ParserPool struct {
	pool  chan *sitter.Parser
	lang  *sitter.Language
	query *sitter.Query
}

// NewParserPool creates a pool of n parsers for lang that run query.
func NewParserPool(n int, lang *sitter.Language, query []byte) (*ParserPool, error) {
	q, err := sitter.NewQuery(query, lang)
	if err != nil {
		return nil, fmt.Errorf("compile query: %w", err)
	}
	pp := &ParserPool{
		pool:  make(chan *sitter.Parser, n),
		lang:  lang,
		query: q,
	}
	for i := 0; i < n; i++ {
		p := sitter.NewParser()
		p.SetLanguage(lang)
		pp.pool <- p
	}
	return pp, nil
}

// Parse parses document with a parser from the pool and returns the
// captures of the pool's query.
func (pp *ParserPool) Parse(ctx context.Context, document []byte) ([]Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var p *sitter.Parser
	select {
	case p = <-pp.pool:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { pp.pool <- p }()

	tree, err := p.ParseCtx(ctx, nil, document)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	defer tree.Close()
	return executeQuery(tree.RootNode(), pp.query, document), nil
}

// Close releases all parsers in the pool. The pool must not be used
// afterwards.
func (pp *ParserPool) Close() error {
	close(pp.pool)
	for p := range pp.pool {
		p.Close()
	}
	pp.query.Close()
	return nil
}
