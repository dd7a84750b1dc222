package cs

import "math"

const degToRad = math.Pi / 180

// intFoldCmd registers a variadic integer fold: val op arg for each extra
// argument, or unary applied to the single argument.
func intFoldCmd(s *State, name string, init int64, fold func(a, b int64) int64, unary func(a int64) int64) {
	s.mustCommand(name, "i1V", func(cs *State, args []Value) error {
		var val int64
		if len(args) >= 2 {
			val = args[0].GetInt()
			for i := 1; i < len(args); i++ {
				val = fold(val, args[i].GetInt())
			}
		} else {
			val = init
			if len(args) > 0 {
				val = args[0].GetInt()
			}
			if unary != nil {
				val = unary(val)
			}
		}
		cs.SetResultInt(val)
		return nil
	})
}

func floatFoldCmd(s *State, name string, init float64, fold func(a, b float64) float64, unary func(a float64) float64) {
	s.mustCommand(name, "f1V", func(cs *State, args []Value) error {
		var val float64
		if len(args) >= 2 {
			val = args[0].GetFloat()
			for i := 1; i < len(args); i++ {
				val = fold(val, args[i].GetFloat())
			}
		} else {
			val = init
			if len(args) > 0 {
				val = args[0].GetFloat()
			}
			if unary != nil {
				val = unary(val)
			}
		}
		cs.SetResultFloat(val)
		return nil
	})
}

// intCmpCmd registers a chained integer comparison: true when every adjacent
// pair satisfies cmp.
func intCmpCmd(s *State, name string, cmp func(a, b int64) bool) {
	s.mustCommand(name, "i1V", func(cs *State, args []Value) error {
		var val bool
		if len(args) >= 2 {
			val = cmp(args[0].GetInt(), args[1].GetInt())
			for i := 2; i < len(args) && val; i++ {
				val = cmp(args[i-1].GetInt(), args[i].GetInt())
			}
		} else {
			var a int64
			if len(args) > 0 {
				a = args[0].GetInt()
			}
			val = cmp(a, 0)
		}
		if val {
			cs.SetResultInt(1)
		} else {
			cs.SetResultInt(0)
		}
		return nil
	})
}

func floatCmpCmd(s *State, name string, cmp func(a, b float64) bool) {
	s.mustCommand(name, "f1V", func(cs *State, args []Value) error {
		var val bool
		if len(args) >= 2 {
			val = cmp(args[0].GetFloat(), args[1].GetFloat())
			for i := 2; i < len(args) && val; i++ {
				val = cmp(args[i-1].GetFloat(), args[i].GetFloat())
			}
		} else {
			var a float64
			if len(args) > 0 {
				a = args[0].GetFloat()
			}
			val = cmp(a, 0)
		}
		if val {
			cs.SetResultInt(1)
		} else {
			cs.SetResultInt(0)
		}
		return nil
	})
}

// floatFnCmd registers a unary float function.
func floatFnCmd(s *State, name string, fn func(float64) float64) {
	s.mustCommand(name, "f", func(cs *State, args []Value) error {
		cs.SetResultFloat(fn(args[0].GetFloat()))
		return nil
	})
}

func registerMathLib(s *State) {
	floatFnCmd(s, "sin", func(f float64) float64 { return math.Sin(f * degToRad) })
	floatFnCmd(s, "cos", func(f float64) float64 { return math.Cos(f * degToRad) })
	floatFnCmd(s, "tan", func(f float64) float64 { return math.Tan(f * degToRad) })
	floatFnCmd(s, "asin", func(f float64) float64 { return math.Asin(f) / degToRad })
	floatFnCmd(s, "acos", func(f float64) float64 { return math.Acos(f) / degToRad })
	floatFnCmd(s, "atan", func(f float64) float64 { return math.Atan(f) / degToRad })
	floatFnCmd(s, "sqrt", math.Sqrt)
	floatFnCmd(s, "loge", math.Log)
	floatFnCmd(s, "log2", math.Log2)
	floatFnCmd(s, "log10", math.Log10)
	floatFnCmd(s, "exp", math.Exp)

	s.mustCommand("atan2", "ff", func(cs *State, args []Value) error {
		cs.SetResultFloat(math.Atan2(args[0].GetFloat(), args[1].GetFloat()) / degToRad)
		return nil
	})

	intFoldCmd(s, "min", 0, func(a, b int64) int64 {
		if b < a {
			return b
		}
		return a
	}, nil)
	intFoldCmd(s, "max", 0, func(a, b int64) int64 {
		if b > a {
			return b
		}
		return a
	}, nil)
	floatFoldCmd(s, "minf", 0, math.Min, nil)
	floatFoldCmd(s, "maxf", 0, math.Max, nil)

	s.mustCommand("abs", "i", func(cs *State, args []Value) error {
		v := args[0].GetInt()
		if v < 0 {
			v = -v
		}
		cs.SetResultInt(v)
		return nil
	})
	floatFnCmd(s, "absf", math.Abs)
	floatFnCmd(s, "floor", math.Floor)
	floatFnCmd(s, "ceil", math.Ceil)

	s.mustCommand("round", "ff", func(cs *State, args []Value) error {
		r := args[0].GetFloat()
		step := args[1].GetFloat()
		if step > 0 {
			if r < 0 {
				r -= step * 0.5
			} else {
				r += step * 0.5
			}
			r -= math.Mod(r, step)
		} else {
			if r < 0 {
				r = math.Ceil(r - 0.5)
			} else {
				r = math.Floor(r + 0.5)
			}
		}
		cs.SetResultFloat(r)
		return nil
	})

	intFoldCmd(s, "+", 0, func(a, b int64) int64 { return a + b }, nil)
	intFoldCmd(s, "*", 1, func(a, b int64) int64 { return a * b }, nil)
	intFoldCmd(s, "-", 0, func(a, b int64) int64 { return a - b },
		func(a int64) int64 { return -a })

	intFoldCmd(s, "^", 0, func(a, b int64) int64 { return a ^ b },
		func(a int64) int64 { return ^a })
	intFoldCmd(s, "~", 0, func(a, b int64) int64 { return a ^ b },
		func(a int64) int64 { return ^a })
	intFoldCmd(s, "&", 0, func(a, b int64) int64 { return a & b }, nil)
	intFoldCmd(s, "|", 0, func(a, b int64) int64 { return a | b }, nil)
	intFoldCmd(s, "^~", 0, func(a, b int64) int64 { return a ^ ^b }, nil)
	intFoldCmd(s, "&~", 0, func(a, b int64) int64 { return a &^ b }, nil)
	intFoldCmd(s, "|~", 0, func(a, b int64) int64 { return a | ^b }, nil)

	intFoldCmd(s, "<<", 0, func(a, b int64) int64 {
		if b >= 64 {
			return 0
		}
		if b < 0 {
			b = 0
		}
		return a << uint(b)
	}, nil)
	intFoldCmd(s, ">>", 0, func(a, b int64) int64 {
		if b < 0 {
			b = 0
		} else if b > 63 {
			b = 63
		}
		return a >> uint(b)
	}, nil)

	floatFoldCmd(s, "+f", 0, func(a, b float64) float64 { return a + b }, nil)
	floatFoldCmd(s, "*f", 1, func(a, b float64) float64 { return a * b }, nil)
	floatFoldCmd(s, "-f", 0, func(a, b float64) float64 { return a - b },
		func(a float64) float64 { return -a })

	intFoldCmd(s, "div", 0, func(a, b int64) int64 {
		if b == 0 {
			return 0
		}
		return a / b
	}, nil)
	intFoldCmd(s, "mod", 0, func(a, b int64) int64 {
		if b == 0 {
			return 0
		}
		return a % b
	}, nil)
	floatFoldCmd(s, "divf", 0, func(a, b float64) float64 {
		if b == 0 {
			return 0
		}
		return a / b
	}, nil)
	floatFoldCmd(s, "modf", 0, func(a, b float64) float64 {
		if b == 0 {
			return 0
		}
		return math.Mod(a, b)
	}, nil)
	floatFoldCmd(s, "pow", 0, math.Pow, nil)

	intCmpCmd(s, "=", func(a, b int64) bool { return a == b })
	intCmpCmd(s, "!=", func(a, b int64) bool { return a != b })
	intCmpCmd(s, "<", func(a, b int64) bool { return a < b })
	intCmpCmd(s, ">", func(a, b int64) bool { return a > b })
	intCmpCmd(s, "<=", func(a, b int64) bool { return a <= b })
	intCmpCmd(s, ">=", func(a, b int64) bool { return a >= b })

	floatCmpCmd(s, "=f", func(a, b float64) bool { return a == b })
	floatCmpCmd(s, "!=f", func(a, b float64) bool { return a != b })
	floatCmpCmd(s, "<f", func(a, b float64) bool { return a < b })
	floatCmpCmd(s, ">f", func(a, b float64) bool { return a > b })
	floatCmpCmd(s, "<=f", func(a, b float64) bool { return a <= b })
	floatCmpCmd(s, ">=f", func(a, b float64) bool { return a >= b })
}
