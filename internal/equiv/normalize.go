package equiv

import (
	"slices"
	"strings"
)

// Options selects the normalizations whose soundness depends on how the
// trees are used. Both default to off: order is significant unless the
// caller says otherwise.
type Options struct {
	// IgnoreFieldOrder sorts struct members, HCL blocks and object items.
	IgnoreFieldOrder bool
	// IgnoreAttributeArgOrder sorts the arguments inside @attr(...).
	IgnoreAttributeArgOrder bool
}

// Option configures a Comparator.
type Option func(*Options)

// IgnoreFieldOrder treats members of a struct as a set.
func IgnoreFieldOrder() Option {
	return func(o *Options) { o.IgnoreFieldOrder = true }
}

// IgnoreAttributeArgOrder treats attribute arguments as a set.
func IgnoreAttributeArgOrder() Option {
	return func(o *Options) { o.IgnoreAttributeArgOrder = true }
}

// WithOptions copies every field of opts.
func WithOptions(opts Options) Option {
	return func(o *Options) { *o = opts }
}

func (o Options) sorts(order Order) bool {
	switch order {
	case Unordered:
		return true
	case MemberOrder:
		return o.IgnoreFieldOrder
	case ArgumentOrder:
		return o.IgnoreAttributeArgOrder
	}
	return false
}

// normalize returns a copy of n with every reorderable child list sorted
// by canonical form. The input tree is not modified.
func normalize(n *Node, opts Options) *Node {
	out := *n
	out.Children = make([]*Node, len(n.Children))
	for i, c := range n.Children {
		out.Children[i] = normalize(c, opts)
	}
	if opts.sorts(n.Order) && len(out.Children) > 1 {
		keys := make(map[*Node]string, len(out.Children))
		for _, c := range out.Children {
			keys[c] = c.canonical()
		}
		slices.SortStableFunc(out.Children, func(a, b *Node) int {
			return strings.Compare(keys[a], keys[b])
		})
	}
	return &out
}
