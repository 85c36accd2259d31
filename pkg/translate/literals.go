package translate

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/raymyers/ralph-objc/pkg/diag"
	"github.com/raymyers/ralph-objc/pkg/jast"
)

// stringLiteral renders s as an NSString literal, reporting characters the
// target literal syntax cannot hold.
func (t *Translator) stringLiteral(n jast.Node, s string) string {
	return "@\"" + t.escape(n, s, false) + "\""
}

// escape renders s for the inside of a C string literal. With format set,
// "%" is doubled for use in a format string.
func (t *Translator) escape(n jast.Node, s string, format bool) string {
	var sb strings.Builder
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			t.cfg.Reporter.Report(n.Position(), diag.InvalidChar, "invalid UTF-8 byte 0x%02x in string literal", s[i])
			fmt.Fprintf(&sb, "\\x%02x", s[i])
			i++
			continue
		}
		i += size
		switch {
		case r == '"':
			sb.WriteString("\\\"")
		case r == '\\':
			sb.WriteString("\\\\")
		case r == '\n':
			sb.WriteString("\\n")
		case r == '\t':
			sb.WriteString("\\t")
		case r == '\r':
			sb.WriteString("\\r")
		case r == '%' && format:
			sb.WriteString("%%")
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&sb, "\\%03o", r)
		case r >= 0x80 && r <= 0x9f, r >= 0xd800 && r <= 0xdfff:
			t.cfg.Reporter.Report(n.Position(), diag.InvalidChar, "character U+%04X cannot appear in a string literal", r)
			fmt.Fprintf(&sb, "\\u%04x", r)
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// charLiteral renders a character constant.
func charLiteral(r rune) string {
	switch r {
	case '\'':
		return `'\''`
	case '\\':
		return `'\\'`
	case '\n':
		return `'\n'`
	case '\t':
		return `'\t'`
	case '\r':
		return `'\r'`
	}
	if r >= 0x20 && r < 0x7f {
		return "'" + string(r) + "'"
	}
	return fmt.Sprintf("0x%04x", r)
}

// numberLiteral renders a numeric literal token for C: long suffixes become
// LL, double suffixes are dropped, float literals always carry a point.
func numberLiteral(token string, typ *jast.TypeBinding) string {
	tok := strings.ReplaceAll(token, "_", "")
	kind := jast.Int
	if typ != nil && typ.IsPrimitive() {
		kind = typ.Primitive
	}
	last := byte(0)
	if tok != "" {
		last = tok[len(tok)-1]
	}
	isHex := strings.HasPrefix(tok, "0x") || strings.HasPrefix(tok, "0X")
	switch kind {
	case jast.Long:
		return strings.TrimRight(tok, "lL") + "LL"
	case jast.Float:
		body := strings.TrimRight(tok, "fF")
		if !isHex && !strings.ContainsAny(body, ".eE") {
			body += ".0"
		}
		return body + "f"
	case jast.Double:
		body := tok
		if !isHex && (last == 'd' || last == 'D') {
			body = tok[:len(tok)-1]
		}
		if !isHex && !strings.ContainsAny(body, ".eE") {
			body += ".0"
		}
		return body
	}
	if strings.HasPrefix(tok, "0b") || strings.HasPrefix(tok, "0B") {
		if v, err := strconv.ParseUint(tok[2:], 2, 64); err == nil {
			return fmt.Sprintf("0x%x", v)
		}
	}
	return tok
}

// minValueLiteral handles the operand of "-2147483648" and
// "-9223372036854775808L", whose magnitude does not fit the type.
func minValueLiteral(lit *jast.NumberLit) (string, bool) {
	tok := strings.ReplaceAll(lit.Token, "_", "")
	switch strings.TrimRight(tok, "lL") {
	case "2147483648":
		return "(int) 0x80000000", true
	case "9223372036854775808":
		return "(long long) 0x8000000000000000LL", true
	}
	return "", false
}

// literalText returns the text a literal contributes to a string
// concatenation, as the source language would print it. ok is false for
// expressions that are not literals.
func literalText(e jast.Expr) (string, bool) {
	switch x := unparen(e).(type) {
	case *jast.StringLit:
		return x.Value, true
	case *jast.CharLit:
		return string(x.Value), true
	case *jast.BoolLit:
		return strconv.FormatBool(x.Value), true
	case *jast.NullLit:
		return "null", true
	case *jast.NumberLit:
		return numberText(x)
	}
	return "", false
}

// numberText formats a numeric literal the way string conversion would.
func numberText(lit *jast.NumberLit) (string, bool) {
	tok := strings.ReplaceAll(lit.Token, "_", "")
	kind := jast.Int
	if lit.Typ != nil && lit.Typ.IsPrimitive() {
		kind = lit.Typ.Primitive
	}
	switch kind {
	case jast.Float, jast.Double:
		body := strings.TrimRight(tok, "fFdD")
		bits := 64
		if kind == jast.Float {
			bits = 32
		}
		v, err := strconv.ParseFloat(body, bits)
		if err != nil {
			return "", false
		}
		return floatText(v, bits), true
	}
	body := strings.TrimRight(tok, "lL")
	bits := 32
	if kind == jast.Long {
		bits = 64
	}
	if len(body) > 1 && body[0] == '0' && !strings.ContainsAny(body[1:2], "xXbB") {
		body = "0o" + body[1:]
	}
	u, err := strconv.ParseUint(body, 0, bits)
	if err != nil {
		return "", false
	}
	if bits == 32 {
		return strconv.FormatInt(int64(int32(uint32(u))), 10), true
	}
	return strconv.FormatInt(int64(u), 10), true
}

// floatText mirrors the decimal/scientific switch of floating-point string
// conversion: plain notation in [1e-3, 1e7), "1.0E10" style outside it.
func floatText(v float64, bits int) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == 0:
		if math.Signbit(v) {
			return "-0.0"
		}
		return "0.0"
	}
	abs := math.Abs(v)
	if abs >= 1e-3 && abs < 1e7 {
		s := strconv.FormatFloat(v, 'f', -1, bits)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
		return s
	}
	s := strconv.FormatFloat(v, 'E', -1, bits)
	mant, exp, _ := strings.Cut(s, "E")
	if !strings.Contains(mant, ".") {
		mant += ".0"
	}
	exp = strings.TrimPrefix(exp, "+")
	if neg := strings.HasPrefix(exp, "-"); neg {
		exp = "-" + strings.TrimLeft(exp[1:], "0")
	} else {
		exp = strings.TrimLeft(exp, "0")
	}
	return mant + "E" + exp
}

// ConstantValue renders the compile-time value of primitive constant v as a
// C expression suitable for a #define.
func ConstantValue(v *jast.VariableBinding) string {
	kind := v.Type.Primitive
	switch c := v.Constant.(type) {
	case bool:
		if c {
			return "YES"
		}
		return "NO"
	case rune:
		if kind == jast.Char {
			return charLiteral(c)
		}
		return intConstant(int64(c), kind)
	case int64:
		if kind == jast.Char {
			return charLiteral(rune(c))
		}
		return intConstant(c, kind)
	case float64:
		return floatConstant(c, kind)
	}
	return fmt.Sprint(v.Constant)
}

func intConstant(c int64, kind jast.PrimitiveKind) string {
	switch kind {
	case jast.Float, jast.Double:
		return floatConstant(float64(c), kind)
	case jast.Long:
		if c == math.MinInt64 {
			return "((long long) 0x8000000000000000LL)"
		}
		if c < 0 {
			return "(" + strconv.FormatInt(c, 10) + "LL)"
		}
		return strconv.FormatInt(c, 10) + "LL"
	}
	if c == math.MinInt32 {
		return "((int) 0x80000000)"
	}
	if c < 0 {
		return "(" + strconv.FormatInt(c, 10) + ")"
	}
	return strconv.FormatInt(c, 10)
}

func floatConstant(c float64, kind jast.PrimitiveKind) string {
	switch {
	case math.IsNaN(c):
		return "NAN"
	case math.IsInf(c, 1):
		return "INFINITY"
	case math.IsInf(c, -1):
		return "(-INFINITY)"
	}
	bits := 64
	if kind == jast.Float {
		bits = 32
	}
	s := strconv.FormatFloat(c, 'g', -1, bits)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	if bits == 32 {
		s += "f"
	}
	if c < 0 {
		s = "(" + s + ")"
	}
	return s
}
