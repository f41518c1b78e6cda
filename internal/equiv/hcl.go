package equiv

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/cuetest/internal/ir"
)

// HCL is the grammar of HCL native syntax files.
//
// Attributes of a body are unordered in HCL and are always sorted by name.
// Parentheses are dropped, numbers compare by value, quoted and bare
// object keys are equal, and a template consisting of a single
// interpolation, "${x}", equals x.
type HCL struct{}

func (HCL) Name() string { return "hcl" }

func (HCL) Parse(src ir.Source) (*Node, error) {
	f, diags := hclsyntax.ParseConfig([]byte(src.Content), src.Filename(), hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, diags
	}
	body, ok := f.Body.(*hclsyntax.Body)
	if !ok {
		return nil, fmt.Errorf("%s: unexpected body type %T", src.Filename(), f.Body)
	}
	return hclBody(body), nil
}

func hclPos(r hcl.Range) Position {
	return Position{Line: r.Start.Line, Column: r.Start.Column}
}

func hclBody(b *hclsyntax.Body) *Node {
	n := &Node{Kind: "body", Order: MemberOrder, Pos: hclPos(b.SrcRange)}

	names := make([]string, 0, len(b.Attributes))
	for name := range b.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		attr := b.Attributes[name]
		value := hclExpr(attr.Expr)
		value.Role = "value"
		n.Children = append(n.Children, &Node{
			Kind:     "attribute",
			Value:    name,
			Name:     name,
			Pos:      hclPos(attr.SrcRange),
			Children: []*Node{value},
		})
	}

	for _, block := range b.Blocks {
		blk := &Node{
			Kind:  "block",
			Value: block.Type,
			Name:  strings.Join(append([]string{block.Type}, block.Labels...), " "),
			Pos:   hclPos(block.TypeRange),
		}
		for i, label := range block.Labels {
			blk.Children = append(blk.Children, &Node{
				Kind:  "label",
				Value: norm.NFC.String(label),
				Pos:   hclPos(block.LabelRanges[i]),
			})
		}
		body := hclBody(block.Body)
		body.Role = "body"
		blk.Children = append(blk.Children, body)
		n.Children = append(n.Children, blk)
	}
	return n
}

var hclOperators = map[*hclsyntax.Operation]string{
	hclsyntax.OpLogicalOr:          "||",
	hclsyntax.OpLogicalAnd:         "&&",
	hclsyntax.OpLogicalNot:         "!",
	hclsyntax.OpEqual:              "==",
	hclsyntax.OpNotEqual:           "!=",
	hclsyntax.OpGreaterThan:        ">",
	hclsyntax.OpGreaterThanOrEqual: ">=",
	hclsyntax.OpLessThan:           "<",
	hclsyntax.OpLessThanOrEqual:    "<=",
	hclsyntax.OpAdd:                "+",
	hclsyntax.OpSubtract:           "-",
	hclsyntax.OpMultiply:           "*",
	hclsyntax.OpDivide:             "/",
	hclsyntax.OpModulo:             "%",
	hclsyntax.OpNegate:             "-",
}

func hclOperator(op *hclsyntax.Operation) string {
	if s, ok := hclOperators[op]; ok {
		return s
	}
	return "?"
}

func hclExpr(e hclsyntax.Expression) *Node {
	if e == nil {
		return &Node{Kind: "none"}
	}
	pos := hclPos(e.Range())

	switch x := e.(type) {
	case *hclsyntax.ParenthesesExpr:
		return hclExpr(x.Expression)

	case *hclsyntax.LiteralValueExpr:
		n := ctyNode(x.Val)
		n.Pos = pos
		return n

	case *hclsyntax.TemplateExpr:
		if x.IsStringLiteral() {
			lit := x.Parts[0].(*hclsyntax.LiteralValueExpr)
			n := ctyNode(lit.Val)
			n.Pos = pos
			return n
		}
		n := &Node{Kind: "template", Pos: pos}
		for _, part := range x.Parts {
			n.Children = append(n.Children, hclExpr(part))
		}
		return n

	case *hclsyntax.TemplateWrapExpr:
		return hclExpr(x.Wrapped)

	case *hclsyntax.TemplateJoinExpr:
		return &Node{Kind: "template-join", Pos: pos, Children: []*Node{hclExpr(x.Tuple)}}

	case *hclsyntax.ScopeTraversalExpr:
		return &Node{Kind: "traversal", Pos: pos, Children: traversalNodes(x.Traversal)}

	case *hclsyntax.RelativeTraversalExpr:
		src := hclExpr(x.Source)
		src.Role = "source"
		return &Node{Kind: "relative-traversal", Pos: pos, Children: append([]*Node{src}, traversalNodes(x.Traversal)...)}

	case *hclsyntax.FunctionCallExpr:
		n := &Node{Kind: "call", Value: x.Name, Pos: pos}
		if x.ExpandFinal {
			n.Value += "..."
		}
		for _, arg := range x.Args {
			n.Children = append(n.Children, hclExpr(arg))
		}
		return n

	case *hclsyntax.ConditionalExpr:
		cond := hclExpr(x.Condition)
		cond.Role = "condition"
		t := hclExpr(x.TrueResult)
		t.Role = "true"
		f := hclExpr(x.FalseResult)
		f.Role = "false"
		return &Node{Kind: "conditional", Pos: pos, Children: []*Node{cond, t, f}}

	case *hclsyntax.IndexExpr:
		coll := hclExpr(x.Collection)
		coll.Role = "collection"
		key := hclExpr(x.Key)
		key.Role = "key"
		return &Node{Kind: "index", Pos: pos, Children: []*Node{coll, key}}

	case *hclsyntax.TupleConsExpr:
		n := &Node{Kind: "tuple", Pos: pos}
		for _, item := range x.Exprs {
			n.Children = append(n.Children, hclExpr(item))
		}
		return n

	case *hclsyntax.ObjectConsExpr:
		n := &Node{Kind: "object", Order: MemberOrder, Pos: pos}
		for _, item := range x.Items {
			key := hclExpr(item.KeyExpr)
			key.Role = "key"
			value := hclExpr(item.ValueExpr)
			value.Role = "value"
			n.Children = append(n.Children, &Node{
				Kind:     "item",
				Name:     key.Value,
				Pos:      key.Pos,
				Children: []*Node{key, value},
			})
		}
		return n

	case *hclsyntax.ObjectConsKeyExpr:
		if !x.ForceNonLiteral {
			if kw := hcl.ExprAsKeyword(x.Wrapped); kw != "" {
				return &Node{Kind: "string", Value: norm.NFC.String(kw), Pos: pos}
			}
			return hclExpr(x.Wrapped)
		}
		return &Node{Kind: "dynamic-key", Pos: pos, Children: []*Node{hclExpr(x.Wrapped)}}

	case *hclsyntax.ForExpr:
		vars := x.ValVar
		if x.KeyVar != "" {
			vars = x.KeyVar + ", " + vars
		}
		kind := "for-tuple"
		if x.KeyExpr != nil {
			kind = "for-object"
		}
		if x.Group {
			vars += " ..."
		}
		coll := hclExpr(x.CollExpr)
		coll.Role = "collection"
		n := &Node{Kind: kind, Value: vars, Pos: pos, Children: []*Node{coll}}
		if x.KeyExpr != nil {
			key := hclExpr(x.KeyExpr)
			key.Role = "key"
			n.Children = append(n.Children, key)
		}
		val := hclExpr(x.ValExpr)
		val.Role = "value"
		n.Children = append(n.Children, val)
		if x.CondExpr != nil {
			cond := hclExpr(x.CondExpr)
			cond.Role = "condition"
			n.Children = append(n.Children, cond)
		}
		return n

	case *hclsyntax.SplatExpr:
		src := hclExpr(x.Source)
		src.Role = "source"
		each := hclExpr(x.Each)
		each.Role = "each"
		return &Node{Kind: "splat", Pos: pos, Children: []*Node{src, each}}

	case *hclsyntax.AnonSymbolExpr:
		return &Node{Kind: "splat-item", Pos: pos}

	case *hclsyntax.BinaryOpExpr:
		l := hclExpr(x.LHS)
		l.Role = "x"
		r := hclExpr(x.RHS)
		r.Role = "y"
		return &Node{Kind: "binary", Value: hclOperator(x.Op), Pos: pos, Children: []*Node{l, r}}

	case *hclsyntax.UnaryOpExpr:
		return &Node{Kind: "unary", Value: hclOperator(x.Op), Pos: pos, Children: []*Node{hclExpr(x.Val)}}
	}

	return &Node{Kind: fmt.Sprintf("%T", e), Pos: pos}
}

func traversalNodes(t hcl.Traversal) []*Node {
	out := make([]*Node, 0, len(t))
	for _, step := range t {
		pos := hclPos(step.SourceRange())
		switch s := step.(type) {
		case hcl.TraverseRoot:
			out = append(out, &Node{Kind: "root", Value: s.Name, Name: s.Name, Pos: pos})
		case hcl.TraverseAttr:
			out = append(out, &Node{Kind: "attr", Value: s.Name, Name: s.Name, Pos: pos})
		case hcl.TraverseIndex:
			key := ctyNode(s.Key)
			key.Pos = pos
			out = append(out, &Node{Kind: "index", Pos: pos, Children: []*Node{key}})
		case hcl.TraverseSplat:
			out = append(out, &Node{Kind: "splat", Pos: pos})
		default:
			out = append(out, &Node{Kind: fmt.Sprintf("%T", step), Pos: pos})
		}
	}
	return out
}

// ctyNode converts a literal value. Numbers are compared by value, so
// 1e3 and 1000 are equal.
func ctyNode(v cty.Value) *Node {
	switch {
	case v.IsNull():
		return &Node{Kind: "null"}
	case !v.IsKnown():
		return &Node{Kind: "unknown"}
	}

	switch ty := v.Type(); {
	case ty.Equals(cty.Number):
		return &Node{Kind: "number", Value: v.AsBigFloat().Text('g', -1)}
	case ty.Equals(cty.String):
		return &Node{Kind: "string", Value: norm.NFC.String(v.AsString())}
	case ty.Equals(cty.Bool):
		if v.True() {
			return &Node{Kind: "bool", Value: "true"}
		}
		return &Node{Kind: "bool", Value: "false"}
	default:
		return &Node{Kind: "literal", Value: v.GoString()}
	}
}
