package translate

import (
	"fmt"
	"strings"

	"github.com/raymyers/ralph-objc/pkg/jast"
)

// binary translates an infix expression, including string concatenation
// chains and the unsigned shift the target has no operator for.
func (t *Translator) binary(x *jast.Binary) string {
	if x.Op == jast.OpAdd && x.Typ != nil && jast.IsString(x.Typ.Erasure()) {
		return t.concat(x)
	}
	ops := x.Operands()
	if x.Op == jast.OpLAnd {
		// each operand is guarded by the null tests of those before it
		var parts []string
		var restores []func()
		for _, op := range ops {
			parts = append(parts, t.operand(t.toPrimitive(op)))
			restores = append(restores, t.guard(nonNullTests(op)))
		}
		for i := len(restores) - 1; i >= 0; i-- {
			restores[i]()
		}
		return strings.Join(parts, " && ")
	}

	text := t.operandText(x.Op, ops[0])
	typ := unboxed(ops[0])
	for _, op := range ops[1:] {
		right := t.operandText(x.Op, op)
		typ = resultType(x.Op, typ, unboxed(op), x.Typ)
		text = t.binaryText(x.Op, text, right, typ)
	}
	return text
}

// operandText translates one binary operand. Equality between two
// references compares identities, so only mixed comparisons unbox.
func (t *Translator) operandText(op jast.Operator, e jast.Expr) string {
	if (op == jast.OpEq || op == jast.OpNe) && e.ExprType().IsReference() {
		return t.operand(t.expr(e))
	}
	return t.operand(t.toPrimitive(e))
}

func (t *Translator) operand(s string) string {
	if isAtom(s) {
		return s
	}
	return "(" + s + ")"
}

// resultType returns the type of one step of a binary chain.
func resultType(op jast.Operator, left, right, whole *jast.TypeBinding) *jast.TypeBinding {
	if op.IsComparison() {
		return jast.PrimitiveType(jast.Boolean)
	}
	if !left.IsPrimitive() || !right.IsPrimitive() {
		return whole
	}
	switch op {
	case jast.OpShl, jast.OpShr, jast.OpUshr:
		return jast.PrimitiveType(promoteUnary(left.Primitive))
	}
	return jast.PrimitiveType(promote(left.Primitive, right.Primitive))
}

// promote applies binary numeric promotion.
func promote(a, b jast.PrimitiveKind) jast.PrimitiveKind {
	switch {
	case a == jast.Boolean && b == jast.Boolean:
		return jast.Boolean
	case a == jast.Double || b == jast.Double:
		return jast.Double
	case a == jast.Float || b == jast.Float:
		return jast.Float
	case a == jast.Long || b == jast.Long:
		return jast.Long
	}
	return jast.Int
}

func promoteUnary(a jast.PrimitiveKind) jast.PrimitiveKind {
	if a == jast.Long {
		return jast.Long
	}
	return jast.Int
}

// binaryText combines two translated operands. typ is the type of the
// result, which decides the unsigned-shift width and floating remainder.
func (t *Translator) binaryText(op jast.Operator, left, right string, typ *jast.TypeBinding) string {
	switch op {
	case jast.OpUshr:
		if typ.IsPrimitiveKind(jast.Long) {
			return fmt.Sprintf("(long long) (((unsigned long long) %s) >> %s)", left, right)
		}
		return fmt.Sprintf("(int) (((unsigned int) %s) >> %s)", left, right)
	case jast.OpRem:
		if typ.IsPrimitiveKind(jast.Double) {
			return fmt.Sprintf("fmod(%s, %s)", left, right)
		}
		if typ.IsPrimitiveKind(jast.Float) {
			return fmt.Sprintf("fmodf(%s, %s)", left, right)
		}
	}
	return left + " " + string(op) + " " + right
}

// increment translates ++ and --. Plain variables keep the operator; array
// elements, accessor-backed fields and wrapper values are rewritten as a
// compound assignment.
func (t *Translator) increment(n jast.Node, operand jast.Expr, op jast.Operator, prefix bool) string {
	lv := t.lvalue(operand)
	typ := operand.ExprType()
	if lv.direct && typ.IsPrimitive() {
		if prefix {
			return string(op) + lv.get
		}
		return lv.get + string(op)
	}
	bin := jast.OpAdd
	if op == jast.OpDec {
		bin = jast.OpSub
	}
	one := &jast.NumberLit{Token: "1", Typ: jast.PrimitiveType(jast.Int)}
	if prefix || n == t.stmtExpr {
		return t.compound(n, lv, bin, one)
	}
	// postfix in value position: yield the old value
	prim := unboxed(operand)
	old := "old__"
	lv.prelude = append(lv.prelude, t.types.Declaration(prim, old)+" = "+t.convert(lv.get, typ, prim))
	oldVar := &jast.SimpleName{Var: jast.NewSyntheticVariable(old, prim)}
	value := t.binaryText(bin, old, "1", prim)
	if !prim.IsPrimitiveKind(jast.Int) && !prim.IsPrimitiveKind(jast.Long) && !prim.Primitive.IsFloating() {
		value = t.types.Cast(prim) + "(" + value + ")"
	}
	store := t.store(n, lv, t.convert(value, prim, typ), oldVar)
	return "({ " + strings.Join(lv.prelude, "; ") + "; " + store + "; " + old + "; })"
}
