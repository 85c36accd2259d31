package translate

import (
	"strconv"
	"strings"

	"github.com/raymyers/ralph-objc/pkg/jast"
)

// piece is one operand of a string concatenation.
type piece struct {
	text  string // translated operand
	typ   *jast.TypeBinding
	lit   string // printed form of a literal operand
	isLit bool
}

// piece translates e for concatenation, keeping literals in printed form.
func (t *Translator) piece(e jast.Expr) piece {
	if s, ok := literalText(e); ok {
		return piece{lit: s, isLit: true, typ: e.ExprType()}
	}
	if b, ok := unparen(e).(*jast.Binary); ok && b.Op == jast.OpAdd && !isConcat(b) {
		if v, ok := addLiterals(b.Operands()); ok {
			return piece{lit: v.text(), isLit: true, typ: e.ExprType()}
		}
	}
	return piece{text: t.expr(e), typ: e.ExprType()}
}

// pieces flattens nested concatenations into their operands.
func (t *Translator) pieces(e jast.Expr) []piece {
	b, ok := unparen(e).(*jast.Binary)
	if !ok || !isConcat(b) {
		return []piece{t.piece(e)}
	}
	ops := b.Operands()
	// operands before the first string are added numerically
	first := len(ops)
	for i, op := range ops {
		if op.ExprType().IsReference() {
			first = i
			break
		}
	}
	var out []piece
	start := 0
	if first >= 2 {
		typ := numericSumType(ops[:first])
		if v, ok := addLiterals(ops[:first]); ok {
			out = append(out, piece{lit: v.text(), isLit: true, typ: typ})
		} else {
			sum := &jast.Binary{Pos: b.Pos, Op: jast.OpAdd, Left: ops[0], Right: ops[1], Extended: ops[2:first], Typ: typ}
			out = append(out, piece{text: t.binary(sum), typ: typ})
		}
		start = first
	}
	for _, op := range ops[start:] {
		out = append(out, t.pieces(op)...)
	}
	return out
}

func isConcat(b *jast.Binary) bool {
	return b.Op == jast.OpAdd && b.Typ != nil && jast.IsString(b.Typ.Erasure())
}

func numericSumType(ops []jast.Expr) *jast.TypeBinding {
	k := jast.Int
	for _, op := range ops {
		if p := unboxed(op); p.IsPrimitive() {
			k = promote(k, p.Primitive)
		}
	}
	return jast.PrimitiveType(k)
}

// numericValue is a numeric or char literal widened for addition.
type numericValue struct {
	kind jast.PrimitiveKind
	i    int64
	f    float64
}

func numericLiteral(e jast.Expr) (numericValue, bool) {
	switch x := unparen(e).(type) {
	case *jast.CharLit:
		return numericValue{kind: jast.Char, i: int64(x.Value)}, true
	case *jast.NumberLit:
		kind := jast.Int
		if x.Typ != nil && x.Typ.IsPrimitive() {
			kind = x.Typ.Primitive
		}
		text, ok := numberText(x)
		if !ok {
			return numericValue{}, false
		}
		if kind == jast.Float || kind == jast.Double {
			f, err := strconv.ParseFloat(text, 64)
			return numericValue{kind: kind, f: f}, err == nil
		}
		i, err := strconv.ParseInt(text, 10, 64)
		return numericValue{kind: kind, i: i}, err == nil
	}
	return numericValue{}, false
}

// to converts v to a kind it promotes to.
func (v numericValue) to(kind jast.PrimitiveKind) numericValue {
	switch kind {
	case jast.Float, jast.Double:
		if v.kind != jast.Float && v.kind != jast.Double {
			v.f = float64(v.i)
		}
		if kind == jast.Float {
			v.f = float64(float32(v.f))
		}
	case jast.Int:
		v.i = int64(int32(v.i))
	}
	v.kind = kind
	return v
}

// literalNumber evaluates e when it is a numeric literal or a sum of them.
func literalNumber(e jast.Expr) (numericValue, bool) {
	if b, ok := unparen(e).(*jast.Binary); ok {
		if b.Op != jast.OpAdd || isConcat(b) {
			return numericValue{}, false
		}
		return addLiterals(b.Operands())
	}
	return numericLiteral(e)
}

// addLiterals adds literal operands left to right, promoting at each step.
func addLiterals(ops []jast.Expr) (numericValue, bool) {
	var acc numericValue
	for i, op := range ops {
		v, ok := literalNumber(op)
		if !ok {
			return numericValue{}, false
		}
		if i == 0 {
			acc = v.to(promote(jast.Int, v.kind))
			continue
		}
		kind := promote(acc.kind, v.kind)
		acc, v = acc.to(kind), v.to(kind)
		acc.i += v.i
		acc.f += v.f
		acc = acc.to(kind)
	}
	return acc, true
}

// text prints v as string conversion would.
func (v numericValue) text() string {
	switch v.kind {
	case jast.Float:
		return floatText(v.f, 32)
	case jast.Double:
		return floatText(v.f, 64)
	}
	return strconv.FormatInt(v.i, 10)
}

// concat translates a string concatenation chain. All-literal chains fold to
// one literal; anything else becomes a format message.
func (t *Translator) concat(x *jast.Binary) string {
	return t.concatPieces(x, t.pieces(x))
}

func (t *Translator) concatPieces(n jast.Node, ps []piece) string {
	folded := true
	for _, p := range ps {
		if !p.isLit {
			folded = false
			break
		}
	}
	if folded {
		var sb strings.Builder
		for _, p := range ps {
			sb.WriteString(p.lit)
		}
		return t.stringLiteral(n, sb.String())
	}

	var format strings.Builder
	var args []string
	for _, p := range ps {
		if p.isLit {
			format.WriteString(t.escape(n, p.lit, true))
			continue
		}
		spec, arg := formatSpec(p)
		format.WriteString(spec)
		args = append(args, arg)
	}
	return "[NSString stringWithFormat:@\"" + format.String() + "\", " + strings.Join(args, ", ") + "]"
}

// formatSpec returns the conversion and argument printing p.
func formatSpec(p piece) (string, string) {
	if !p.typ.IsPrimitive() {
		return "%@", p.text
	}
	switch p.typ.Primitive {
	case jast.Boolean:
		return "%@", "JreBoolToString(" + p.text + ")"
	case jast.Char:
		return "%C", p.text
	case jast.Long:
		return "%lld", p.text
	case jast.Float, jast.Double:
		return "%f", p.text
	}
	return "%d", p.text
}
