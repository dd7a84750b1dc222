package cubescript

import (
	"fmt"

	"github.com/cubelang/cubescript/internal/cs"
)

// fromValue converts an interpreter value to a Go-native one: nil, int64,
// float64 or string. Identifier references surface as the identifier's name;
// code references have no textual form and surface as the empty string.
func fromValue(v cs.Value) any {
	switch v.Kind() {
	case cs.KindNull:
		return nil
	case cs.KindInt:
		return v.GetInt()
	case cs.KindFloat:
		return v.GetFloat()
	case cs.KindString, cs.KindMacro:
		return v.GetStr()
	case cs.KindIdent:
		if id := v.Ident(); id != nil {
			return id.Name()
		}
		return nil
	case cs.KindCode:
		return v.GetStr()
	}
	return nil
}

// toValue converts a Go value to an interpreter value.
func toValue(s *cs.State, v any) (cs.Value, error) {
	switch x := v.(type) {
	case nil:
		return cs.NullVal(), nil
	case bool:
		if x {
			return cs.IntVal(1), nil
		}
		return cs.IntVal(0), nil
	case int:
		return cs.IntVal(int64(x)), nil
	case int32:
		return cs.IntVal(int64(x)), nil
	case int64:
		return cs.IntVal(x), nil
	case uint:
		return cs.IntVal(int64(x)), nil
	case uint32:
		return cs.IntVal(int64(x)), nil
	case uint64:
		return cs.IntVal(int64(x)), nil
	case float32:
		return cs.FloatVal(float64(x)), nil
	case float64:
		return cs.FloatVal(x), nil
	case string:
		return cs.StrVal(x), nil
	case fmt.Stringer:
		return cs.StrVal(x.String()), nil
	}
	return cs.NullVal(), fmt.Errorf("unsupported value type %T", v)
}
