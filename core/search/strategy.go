package search

import (
	"fmt"
	"strings"

	"github.com/goto/vfsearch/core/document"
)

// Query is the text sent to the engine and the fields it should weight
// the text against.
type Query struct {
	Text           string
	WeightedFields []string
}

// QueryStrategy turns the textual part of a request into an engine query.
type QueryStrategy interface {
	Build(req Request) (Query, error)
}

// NewQueryStrategy returns the strategy configured for an index.
func NewQueryStrategy(cfg IndexConfig) (QueryStrategy, error) {
	switch cfg.QueryStrategy {
	case StrategyFieldWeighting, "":
		return FieldWeightingStrategy{EmitFieldWeights: cfg.EmitFieldWeights}, nil
	case StrategyBooleanTree:
		return BooleanTreeStrategy{DefaultField: document.FieldContent}, nil
	}
	return nil, fmt.Errorf("%w: unknown query strategy %q", ErrInvalidConfig, cfg.QueryStrategy)
}

// FieldWeightingStrategy forwards query text untouched and lets the engine
// weight it against the requested fields.
type FieldWeightingStrategy struct {
	EmitFieldWeights bool
}

func (s FieldWeightingStrategy) Build(req Request) (Query, error) {
	var q Query
	switch {
	case len(req.FieldQueries) > 0:
		parts := make([]string, 0, len(req.FieldQueries))
		fields := make([]string, 0, len(req.FieldQueries))
		for _, fq := range req.FieldQueries {
			text := strings.TrimSpace(fq.Query)
			if text == "" {
				continue
			}
			switch fq.Occur {
			case MustOccur:
				text = "+" + text
			case MustNotOccur:
				text = "-" + text
			}
			parts = append(parts, text)
			fields = append(fields, fq.Field)
		}
		q.Text = strings.TrimSpace(strings.Join(parts, " "))
		if s.EmitFieldWeights {
			q.WeightedFields = fields
		}
	case len(req.Fields) > 0:
		q.Text = strings.TrimSpace(req.Query)
		if s.EmitFieldWeights {
			q.WeightedFields = append([]string(nil), req.Fields...)
		}
	default:
		q.Text = strings.TrimSpace(req.Query)
	}
	return q, nil
}

// BooleanTreeStrategy parses every sub-query into a boolean tree and sends
// the serialized tree. It never emits field weights.
type BooleanTreeStrategy struct {
	DefaultField string
}

func (s BooleanTreeStrategy) Build(req Request) (Query, error) {
	switch {
	case len(req.FieldQueries) > 0:
		var required, prohibited, optional []Node
		for _, fq := range req.FieldQueries {
			if strings.TrimSpace(fq.Query) == "" {
				continue
			}
			n, err := ParseQuery(fq.Field, fq.Query)
			if err != nil {
				return Query{}, err
			}
			switch fq.Occur {
			case MustOccur:
				required = append(required, n)
			case MustNotOccur:
				prohibited = append(prohibited, n)
			default:
				optional = append(optional, n)
			}
		}
		return Query{Text: conjoinGroups(required, prohibited, optional)}, nil

	case len(req.Fields) > 0:
		if strings.TrimSpace(req.Query) == "" {
			return Query{}, nil
		}
		nodes := make([]Node, 0, len(req.Fields))
		for _, f := range req.Fields {
			n, err := ParseQuery(f, req.Query)
			if err != nil {
				return Query{}, err
			}
			nodes = append(nodes, n)
		}
		return Query{Text: Conjoin(collapseOr(nodes))}, nil
	}

	if strings.TrimSpace(req.Query) == "" {
		return Query{}, nil
	}
	n, err := ParseQuery(s.defaultField(), req.Query)
	if err != nil {
		return Query{}, err
	}
	return Query{Text: n.String()}, nil
}

func (s BooleanTreeStrategy) defaultField() string {
	if s.DefaultField == "" {
		return document.FieldContent
	}
	return s.DefaultField
}

// conjoinGroups renders the required group and the optional group as two
// conjoined top level groups. When there is a MUST clause the optional
// group includes the required one so that optional clauses only affect
// ranking. Prohibitions alone never satisfy the optional group.
func conjoinGroups(required, prohibited, optional []Node) string {
	var must, should Node
	group := append([]Node{}, required...)
	for _, n := range prohibited {
		group = append(group, Not{Child: n})
	}
	if len(group) > 0 {
		must = collapseAnd(group)
	}
	if len(optional) > 0 {
		if len(required) > 0 {
			should = Or{Children: append([]Node{must}, optional...)}
		} else {
			should = collapseOr(optional)
		}
	}
	return Conjoin(must, should)
}
