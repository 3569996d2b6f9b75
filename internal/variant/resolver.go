// Package variant maps option selections to product variants and notifies
// listeners when the selected variant, its price or its image changes.
package variant

import "storefront/internal/domain"

// OptionValue is one chosen value for the option at Index.
type OptionValue struct {
	Index int
	Value string
}

// Selection is a possibly partial set of chosen option values.
type Selection []OptionValue

// InputKind distinguishes option controls.
type InputKind int

const (
	InputSelect InputKind = iota
	InputRadio
	InputCheckbox
)

// Input is the state of one option control in a product form.
type Input struct {
	Index   int
	Value   string
	Kind    InputKind
	Checked bool
}

// SelectionFromInputs builds a Selection from control state. Radio buttons
// and checkboxes only contribute when checked.
func SelectionFromInputs(inputs []Input) Selection {
	sel := make(Selection, 0, len(inputs))
	for _, in := range inputs {
		switch in.Kind {
		case InputRadio, InputCheckbox:
			if !in.Checked {
				continue
			}
		}
		sel = append(sel, OptionValue{Index: in.Index, Value: in.Value})
	}
	return sel
}

// Resolve returns the variant whose option values satisfy every entry in
// sel, or nil. When product data holds duplicate option tuples the last
// match in list order wins.
func Resolve(product domain.Product, sel Selection) *domain.Variant {
	var found *domain.Variant
	for i := range product.Variants {
		if matches(product.Variants[i], sel) {
			found = &product.Variants[i]
		}
	}
	return found
}

func matches(v domain.Variant, sel Selection) bool {
	for _, opt := range sel {
		val, ok := v.Option(opt.Index)
		if !ok || val != opt.Value {
			return false
		}
	}
	return true
}
