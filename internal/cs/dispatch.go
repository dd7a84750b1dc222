package cs

import "strings"

// conc renders values to text and joins them, with single spaces when space
// is set. Null values contribute nothing but still separate.
func conc(vals []Value, space bool) string {
	var b strings.Builder
	for i := range vals {
		if space && i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(vals[i].GetStr())
	}
	return b.String()
}

// callCommand marshals given into the typed argument vector the command's
// format string declares, synthesizing missing trailing arguments and
// cycling repeat groups, then invokes the callback. It takes ownership of
// the given values; lookup marks a `$name` invocation, which reports -1 as
// the actual-argument count.
func (s *State) callCommand(id *Ident, given []Value, lookup bool) error {
	numargs := len(given)
	buf := make([]Value, 0, MaxArguments+1)
	buf = append(buf, given...)
	ensure := func(n int) {
		for len(buf) <= n {
			buf = append(buf, Value{})
		}
	}

	i := -1
	fakeargs := 0
	rep := false
	format := id.cargs
	for fi := 0; fi < len(format); fi++ {
		switch c := format[fi]; c {
		case 'i':
			i++
			if i >= numargs {
				if rep {
					break
				}
				ensure(i)
				buf[i].setInt(0)
				fakeargs++
			} else {
				buf[i].forceInt()
			}
		case 'b':
			i++
			if i >= numargs {
				if rep {
					break
				}
				ensure(i)
				buf[i].setInt(minIntSentinel)
				fakeargs++
			} else {
				buf[i].forceInt()
			}
		case 'f':
			i++
			if i >= numargs {
				if rep {
					break
				}
				ensure(i)
				buf[i].setFloat(0)
				fakeargs++
			} else {
				buf[i].forceFloat()
			}
		case 'F':
			i++
			if i >= numargs {
				if rep {
					break
				}
				ensure(i)
				buf[i].setFloat(buf[i-1].GetFloat())
				fakeargs++
			} else {
				buf[i].forceFloat()
			}
		case 'S':
			i++
			if i >= numargs {
				if rep {
					break
				}
				ensure(i)
				buf[i].setStr("")
				fakeargs++
			} else {
				buf[i].forceStr()
			}
		case 's':
			i++
			if i >= numargs {
				if rep {
					break
				}
				ensure(i)
				buf[i].setMacro("")
				fakeargs++
			} else {
				buf[i].forceStr()
			}
		case 'T', 't':
			i++
			if i >= numargs {
				if rep {
					break
				}
				ensure(i)
				buf[i].setNull()
				fakeargs++
			}
		case 'E':
			i++
			if i >= numargs {
				if rep {
					break
				}
				ensure(i)
				buf[i].setNull()
				fakeargs++
			} else {
				s.forceCond(&buf[i])
			}
		case 'e':
			i++
			if i >= numargs {
				if rep {
					break
				}
				ensure(i)
				buf[i].setCode(emptyCode(valNull))
				fakeargs++
			} else {
				s.forceCode(&buf[i])
			}
		case 'r':
			i++
			if i >= numargs {
				if rep {
					break
				}
				ensure(i)
				buf[i].setIdent(s.w.dummy)
				fakeargs++
			} else {
				s.ForceIdent(&buf[i])
			}
		case '$':
			i++
			ensure(i)
			if i < numargs {
				buf[i].cleanup()
			}
			buf[i].setIdent(id)
		case 'N':
			i++
			ensure(i)
			if i < numargs {
				buf[i].cleanup()
			}
			if lookup {
				buf[i].setInt(-1)
			} else {
				buf[i].setInt(int64(i - fakeargs))
			}
		case 'C':
			if i+1 < numargs {
				i = numargs
			} else {
				i++
			}
			ensure(i - 1)
			tv := []Value{StrVal(conc(buf[:i], true))}
			err := id.cb(s, tv)
			tv[0].cleanup()
			cleanupValues(buf)
			return err
		case 'V':
			if i+1 < numargs {
				i = numargs
			} else {
				i++
			}
			ensure(i - 1)
			err := id.cb(s, buf[:i])
			cleanupValues(buf)
			return err
		case '1', '2', '3', '4':
			if i+1 < numargs {
				fi -= int(c-'0') + 1
				rep = true
			}
		}
	}
	i++
	ensure(i - 1)
	err := id.cb(s, buf[:i])
	cleanupValues(buf)
	return err
}

func cleanupValues(vals []Value) {
	for i := range vals {
		vals[i].cleanup()
	}
}
