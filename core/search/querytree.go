package search

import (
	"errors"
	"strings"
	"unicode"
)

// Node is an element of a boolean query tree. String renders it in the
// engine's query_string syntax.
type Node interface {
	String() string
}

type Term struct {
	Field string
	Text  string
}

func (t Term) String() string {
	return t.Field + ":" + escapeTerm(t.Text)
}

type Phrase struct {
	Field string
	Text  string
}

func (p Phrase) String() string {
	return p.Field + ":" + quote(p.Text)
}

type And struct {
	Children []Node
}

func (a And) String() string {
	parts := make([]string, len(a.Children))
	for i, c := range a.Children {
		parts[i] = wrap(c, false)
	}
	return strings.Join(parts, " AND ")
}

type Or struct {
	Children []Node
}

func (o Or) String() string {
	parts := make([]string, len(o.Children))
	for i, c := range o.Children {
		parts[i] = wrap(c, true)
	}
	return strings.Join(parts, " OR ")
}

type Not struct {
	Child Node
}

func (n Not) String() string {
	return "NOT " + wrap(n.Child, false)
}

func wrap(n Node, wrapNot bool) string {
	switch n.(type) {
	case And, Or:
		return "(" + n.String() + ")"
	case Not:
		if wrapNot {
			return "(" + n.String() + ")"
		}
	}
	return n.String()
}

// Combine builds the tree for a set of required, prohibited and optional
// clauses. With a required clause the optional ones only affect ranking:
// they are OR'd with the required group, and that disjunction is conjoined
// with it. Without one, at least one optional clause has to match.
func Combine(required, prohibited, optional []Node) Node {
	excluded := make([]Node, 0, len(prohibited))
	for _, n := range prohibited {
		excluded = append(excluded, Not{Child: n})
	}
	must := append(append([]Node{}, required...), excluded...)

	switch {
	case len(must) == 0 && len(optional) == 0:
		return nil
	case len(must) == 0:
		return collapseOr(optional)
	case len(optional) == 0:
		return collapseAnd(must)
	case len(required) == 0:
		return And{Children: append([]Node{collapseOr(optional)}, excluded...)}
	}
	group := collapseAnd(must)
	should := Or{Children: append([]Node{group}, optional...)}
	return And{Children: []Node{group, should}}
}

// Conjoin renders top level groups, each parenthesized, joined by AND.
func Conjoin(groups ...Node) string {
	parts := make([]string, 0, len(groups))
	for _, g := range groups {
		if g == nil {
			continue
		}
		parts = append(parts, "("+g.String()+")")
	}
	return strings.Join(parts, " AND ")
}

func collapseAnd(nodes []Node) Node {
	if len(nodes) == 1 {
		return nodes[0]
	}
	return And{Children: nodes}
}

func collapseOr(nodes []Node) Node {
	if len(nodes) == 1 {
		return nodes[0]
	}
	return Or{Children: nodes}
}

var (
	errEmptyQuery      = errors.New("empty query")
	errUnbalancedParen = errors.New("unbalanced parenthesis")
	errUnterminated    = errors.New("unterminated phrase")
	errDanglingOp      = errors.New("operator without operand")
	errEmptyClause     = errors.New("prefix without clause")
	errMissingValue    = errors.New("field without value")
	errMissingField    = errors.New("value without field name")
	errTrailingEscape  = errors.New("trailing escape character")
)

// ParseQuery parses text with whitespace tokenization against a default
// field. It understands bare terms, field:term, quoted phrases, +/-
// prefixes, AND/OR/NOT keywords and parenthesized groups.
func ParseQuery(field, text string) (Node, error) {
	p := &parser{src: []rune(text), field: field, text: text}
	n, err := p.parseQuery(field, false)
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if !p.eof() {
		return nil, p.fail(errUnbalancedParen)
	}
	return n, nil
}

type parser struct {
	src   []rune
	pos   int
	field string
	text  string
}

type clause struct {
	occur Occur
	node  Node
}

func (p *parser) fail(err error) error {
	return &QueryBuildError{Field: p.field, Query: p.text, Pos: p.pos, Err: err}
}

func (p *parser) eof() bool { return p.pos >= len(p.src) }

func (p *parser) peek() rune { return p.src[p.pos] }

func (p *parser) skipSpace() {
	for !p.eof() && unicode.IsSpace(p.peek()) {
		p.pos++
	}
}

func (p *parser) parseQuery(field string, nested bool) (Node, error) {
	var (
		clauses []clause
		and     bool
		not     bool
		pending bool
	)
	for {
		p.skipSpace()
		if p.eof() {
			break
		}
		if p.peek() == ')' {
			if !nested {
				return nil, p.fail(errUnbalancedParen)
			}
			break
		}

		if kw, ok := p.keyword(); ok {
			switch kw {
			case "AND", "OR":
				if len(clauses) == 0 || pending {
					return nil, p.fail(errDanglingOp)
				}
				if kw == "AND" {
					and = true
					if last := &clauses[len(clauses)-1]; last.occur == ShouldOccur {
						last.occur = MustOccur
					}
				}
			case "NOT":
				not = true
			}
			pending = true
			continue
		}

		c, err := p.parseClause(field)
		if err != nil {
			return nil, err
		}
		if not {
			c.occur = MustNotOccur
		} else if and && c.occur == ShouldOccur {
			c.occur = MustOccur
		}
		clauses = append(clauses, c)
		and, not, pending = false, false, false
	}

	if pending {
		return nil, p.fail(errDanglingOp)
	}
	if len(clauses) == 0 {
		return nil, p.fail(errEmptyQuery)
	}

	var required, prohibited, optional []Node
	for _, c := range clauses {
		switch c.occur {
		case MustOccur:
			required = append(required, c.node)
		case MustNotOccur:
			prohibited = append(prohibited, c.node)
		default:
			optional = append(optional, c.node)
		}
	}
	return Combine(required, prohibited, optional), nil
}

// keyword consumes AND, OR or NOT when they stand alone.
func (p *parser) keyword() (string, bool) {
	for _, kw := range []string{"AND", "OR", "NOT"} {
		end := p.pos + len(kw)
		if end > len(p.src) || string(p.src[p.pos:end]) != kw {
			continue
		}
		if end < len(p.src) && !unicode.IsSpace(p.src[end]) && p.src[end] != '(' {
			continue
		}
		p.pos = end
		return kw, true
	}
	return "", false
}

func (p *parser) parseClause(field string) (clause, error) {
	c := clause{occur: ShouldOccur}
	switch p.peek() {
	case '+':
		c.occur = MustOccur
		p.pos++
	case '-':
		c.occur = MustNotOccur
		p.pos++
	}
	if p.eof() || unicode.IsSpace(p.peek()) || p.peek() == ')' {
		return c, p.fail(errEmptyClause)
	}

	if p.peek() == ':' {
		return c, p.fail(errMissingField)
	}
	if name, ok := p.fieldName(); ok {
		field = name
		if p.eof() || unicode.IsSpace(p.peek()) || p.peek() == ')' {
			return c, p.fail(errMissingValue)
		}
	}

	n, err := p.parsePrimary(field)
	if err != nil {
		return c, err
	}
	c.node = n
	return c, nil
}

// fieldName consumes "name:" when the upcoming word is a field reference.
func (p *parser) fieldName() (string, bool) {
	i := p.pos
	for i < len(p.src) && isFieldRune(p.src[i]) {
		i++
	}
	if i == p.pos || i >= len(p.src) || p.src[i] != ':' {
		return "", false
	}
	name := string(p.src[p.pos:i])
	p.pos = i + 1
	return name, true
}

func isFieldRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '.'
}

func (p *parser) parsePrimary(field string) (Node, error) {
	switch p.peek() {
	case '(':
		p.pos++
		n, err := p.parseQuery(field, true)
		if err != nil {
			return nil, err
		}
		if p.eof() || p.peek() != ')' {
			return nil, p.fail(errUnbalancedParen)
		}
		p.pos++
		return n, nil
	case '"':
		text, err := p.phrase()
		if err != nil {
			return nil, err
		}
		return Phrase{Field: field, Text: text}, nil
	}
	text, err := p.word()
	if err != nil {
		return nil, err
	}
	return Term{Field: field, Text: text}, nil
}

func (p *parser) phrase() (string, error) {
	start := p.pos
	p.pos++
	var sb strings.Builder
	for !p.eof() {
		r := p.peek()
		switch r {
		case '\\':
			p.pos++
			if p.eof() {
				return "", p.fail(errTrailingEscape)
			}
			sb.WriteRune(p.peek())
		case '"':
			p.pos++
			if strings.TrimSpace(sb.String()) == "" {
				p.pos = start
				return "", p.fail(errEmptyQuery)
			}
			return sb.String(), nil
		default:
			sb.WriteRune(r)
		}
		p.pos++
	}
	p.pos = start
	return "", p.fail(errUnterminated)
}

func (p *parser) word() (string, error) {
	var sb strings.Builder
	for !p.eof() {
		r := p.peek()
		if unicode.IsSpace(r) || r == '(' || r == ')' {
			break
		}
		if r == '"' {
			return "", p.fail(errUnterminated)
		}
		if r == '\\' {
			p.pos++
			if p.eof() {
				return "", p.fail(errTrailingEscape)
			}
			r = p.peek()
		}
		sb.WriteRune(r)
		p.pos++
	}
	if sb.Len() == 0 {
		return "", p.fail(errEmptyClause)
	}
	return sb.String(), nil
}

// escapeTerm escapes query_string operators. Wildcards are kept.
func escapeTerm(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if strings.ContainsRune(queryChars, r) {
			sb.WriteRune('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
