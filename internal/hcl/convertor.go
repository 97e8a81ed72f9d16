package hcl

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/evalgraph/internal/scene"
	"github.com/vk/evalgraph/internal/schema"
)

// decodeProperties evaluates a properties block into user-defined property
// values. Expressions are evaluated without variables or functions.
func decodeProperties(b *schema.Properties) (scene.Properties, error) {
	if b == nil || b.Body == nil {
		return nil, nil
	}
	attrs, diags := b.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to read properties: %w", diags)
	}
	props := make(scene.Properties, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("invalid value for property '%s': %w", name, diags)
		}
		if val.IsNull() {
			return nil, fmt.Errorf("%w: property '%s' is null", ErrInvalidValue, name)
		}
		props[name] = normalize(val)
	}
	return props, nil
}

// normalize turns homogeneous tuples into lists, so that [1, 2] and a list
// built elsewhere compare equal.
func normalize(val cty.Value) cty.Value {
	ty := val.Type()
	if !ty.IsTupleType() || val.LengthInt() == 0 {
		return val
	}
	elem, _ := convert.Unify(ty.TupleElementTypes())
	if elem == cty.NilType || elem == cty.DynamicPseudoType {
		return val
	}
	list, err := convert.Convert(val, cty.List(elem))
	if err != nil {
		return val
	}
	return list
}
