package cs

import (
	"fmt"
	"strings"
)

// strCmpCmd registers a chained string comparison.
func strCmpCmd(s *State, name string, cmp func(a, b string) bool) {
	s.mustCommand(name, "s1V", func(cs *State, args []Value) error {
		var val bool
		if len(args) >= 2 {
			val = cmp(args[0].GetStr(), args[1].GetStr())
			for i := 2; i < len(args) && val; i++ {
				val = cmp(args[i-1].GetStr(), args[i].GetStr())
			}
		} else {
			var a string
			if len(args) > 0 {
				a = args[0].GetStr()
			}
			val = cmp(a, "")
		}
		if val {
			cs.SetResultInt(1)
		} else {
			cs.SetResultInt(0)
		}
		return nil
	})
}

func registerStringLib(s *State) {
	s.mustCommand("strstr", "ss", func(cs *State, args []Value) error {
		cs.SetResultInt(int64(strings.Index(args[0].GetStr(), args[1].GetStr())))
		return nil
	})

	s.mustCommand("strlen", "s", func(cs *State, args []Value) error {
		cs.SetResultInt(int64(len(args[0].GetStr())))
		return nil
	})

	s.mustCommand("strcode", "si", func(cs *State, args []Value) error {
		str := args[0].GetStr()
		i := args[1].GetInt()
		if i < 0 || i >= int64(len(str)) {
			cs.SetResultInt(0)
		} else {
			cs.SetResultInt(int64(str[i]))
		}
		return nil
	})

	s.mustCommand("codestr", "i", func(cs *State, args []Value) error {
		cs.SetResultStr(string([]byte{byte(args[0].GetInt())}))
		return nil
	})

	s.mustCommand("strlower", "s", func(cs *State, args []Value) error {
		cs.SetResultStr(strings.ToLower(args[0].GetStr()))
		return nil
	})

	s.mustCommand("strupper", "s", func(cs *State, args []Value) error {
		cs.SetResultStr(strings.ToUpper(args[0].GetStr()))
		return nil
	})

	s.mustCommand("escape", "s", func(cs *State, args []Value) error {
		cs.SetResultStr(EscapeString(args[0].GetStr()))
		return nil
	})

	s.mustCommand("unescape", "s", func(cs *State, args []Value) error {
		str := args[0].GetStr()
		if len(str) >= 2 && str[0] == '"' && str[len(str)-1] == '"' {
			str = str[1 : len(str)-1]
		}
		cs.SetResultStr(UnescapeString(str))
		return nil
	})

	s.mustCommand("concat", "V", func(cs *State, args []Value) error {
		cs.SetResultStr(conc(args, true))
		return nil
	})

	s.mustCommand("concatword", "V", func(cs *State, args []Value) error {
		cs.SetResultStr(conc(args, false))
		return nil
	})

	s.mustCommand("format", "V", func(cs *State, args []Value) error {
		if len(args) == 0 {
			return nil
		}
		f := args[0].GetStr()
		var b strings.Builder
		for i := 0; i < len(f); i++ {
			c := f[i]
			if c == '%' && i+1 < len(f) {
				i++
				ic := f[i]
				if ic >= '1' && ic <= '9' {
					idx := int(ic - '0')
					if idx < len(args) {
						b.WriteString(args[idx].GetStr())
					}
				} else {
					b.WriteByte(ic)
				}
			} else {
				b.WriteByte(c)
			}
		}
		cs.SetResultStr(b.String())
		return nil
	})

	s.mustCommand("tohex", "ii", func(cs *State, args []Value) error {
		width := int(args[1].GetInt())
		if width < 1 {
			width = 1
		}
		cs.SetResultStr(fmt.Sprintf("0x%.*X", width, args[0].GetInt()))
		return nil
	})

	s.mustCommand("substr", "siiN", func(cs *State, args []Value) error {
		str := args[0].GetStr()
		start := int(args[1].GetInt())
		count := int(args[2].GetInt())
		numargs := args[3].GetInt()
		offset := clampInt(start, 0, len(str))
		end := len(str)
		if numargs >= 3 {
			end = offset + clampInt(count, 0, len(str)-offset)
		}
		cs.SetResultStr(str[offset:end])
		return nil
	})

	strCmpCmd(s, "strcmp", func(a, b string) bool { return a == b })
	strCmpCmd(s, "=s", func(a, b string) bool { return a == b })
	strCmpCmd(s, "!=s", func(a, b string) bool { return a != b })
	strCmpCmd(s, "<s", func(a, b string) bool { return a < b })
	strCmpCmd(s, ">s", func(a, b string) bool { return a > b })
	strCmpCmd(s, "<=s", func(a, b string) bool { return a <= b })
	strCmpCmd(s, ">=s", func(a, b string) bool { return a >= b })

	s.mustCommand("strreplace", "ssss", func(cs *State, args []Value) error {
		str := args[0].GetStr()
		oldval := args[1].GetStr()
		newval := args[2].GetStr()
		newval2 := args[3].GetStr()
		if newval2 == "" {
			newval2 = newval
		}
		if oldval == "" {
			cs.SetResultStr(str)
			return nil
		}
		var b strings.Builder
		for i := 0; ; i++ {
			at := strings.Index(str, oldval)
			if at < 0 {
				b.WriteString(str)
				break
			}
			b.WriteString(str[:at])
			if i%2 == 0 {
				b.WriteString(newval)
			} else {
				b.WriteString(newval2)
			}
			str = str[at+len(oldval):]
		}
		cs.SetResultStr(b.String())
		return nil
	})

	s.mustCommand("strsplice", "ssii", func(cs *State, args []Value) error {
		str := args[0].GetStr()
		vals := args[1].GetStr()
		skip := int(args[2].GetInt())
		count := int(args[3].GetInt())
		offset := clampInt(skip, 0, len(str))
		length := clampInt(count, 0, len(str)-offset)
		cs.SetResultStr(str[:offset] + vals + str[offset+length:])
		return nil
	})
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
