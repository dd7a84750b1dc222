package cs

import (
	"sort"
	"strings"
)

// loopListConc drives looplistconcat: body results for each element joined
// into one string.
func (s *State) loopListConc(id *Ident, list string, body codeRef, space bool) error {
	if id.typ != IdentAlias {
		return nil
	}
	var st identStack
	var buf strings.Builder
	var rerr error
	n := 0
	for p := NewListParser(list); p.Parse(); n++ {
		setIterStr(id, p.Element(), &st)
		if n > 0 && space {
			buf.WriteByte(' ')
		}
		var v Value
		cont, err := s.runLoopBodyRet(body, &v)
		if err != nil {
			rerr = err
			break
		}
		if !cont {
			v.cleanup()
			break
		}
		buf.WriteString(v.GetStr())
		v.cleanup()
	}
	if id.stack == &st {
		id.popArg()
	}
	if rerr != nil {
		return rerr
	}
	s.SetResultStr(buf.String())
	return nil
}

// listFindCmd registers the listfind= family: position of the first element
// equal to the probe under the given comparison, skipping `skip` elements
// after each miss.
func listFindCmd(s *State, name, format string, match func(item string, probe *Value) bool) {
	s.mustCommand(name, format, func(cs *State, args []Value) error {
		skip := args[2].GetInt()
		n := int64(0)
		for p := NewListParser(args[0].GetStr()); p.Parse(); n++ {
			if match(p.Item(), &args[1]) {
				cs.SetResultInt(n)
				return nil
			}
			for i := int64(0); i < skip; i++ {
				if !p.Parse() {
					cs.SetResultInt(-1)
					return nil
				}
				n++
			}
		}
		cs.SetResultInt(-1)
		return nil
	})
}

// listAssocCmd registers the listassoc= family: the element following the
// first match in a key/value list.
func listAssocCmd(s *State, name, format string, match func(item string, probe *Value) bool) {
	s.mustCommand(name, format, func(cs *State, args []Value) error {
		for p := NewListParser(args[0].GetStr()); p.Parse(); {
			if match(p.Item(), &args[1]) {
				if p.Parse() {
					cs.SetResultStr(p.Element())
				}
				return nil
			}
			if !p.Parse() {
				break
			}
		}
		return nil
	})
}

func registerListLib(s *State) {
	s.mustCommand("listlen", "s", func(cs *State, args []Value) error {
		cs.SetResultInt(int64(ListLength(args[0].GetStr())))
		return nil
	})

	s.mustCommand("at", "si1V", func(cs *State, args []Value) error {
		if len(args) == 0 {
			return nil
		}
		str := args[0].GetStr()
		for i := 1; i < len(args); i++ {
			pos := args[i].GetInt()
			elem, ok := ListIndex(str, int(pos))
			if !ok {
				elem = ""
			}
			str = elem
		}
		cs.SetResultStr(str)
		return nil
	})

	s.mustCommand("sublist", "siiN", func(cs *State, args []Value) error {
		str := args[0].GetStr()
		skip := int(args[1].GetInt())
		count := int(args[2].GetInt())
		numargs := args[3].GetInt()
		offset := skip
		if offset < 0 {
			offset = 0
		}
		p := NewListParser(str)
		for i := 0; i < offset; i++ {
			if !p.Parse() {
				break
			}
		}
		if numargs < 3 {
			if offset > 0 {
				p.Skip()
			}
			cs.SetResultStr(p.Rest())
			return nil
		}
		length := count
		if length < 0 {
			length = 0
		}
		listStart := p.pos
		end := listStart
		if length > 0 && p.Parse() {
			for length--; length > 0 && p.Parse(); length-- {
			}
			end = p.quoteEnd
		}
		cs.SetResultStr(str[listStart:end])
		return nil
	})

	s.mustCommand("listfind", "rse", func(cs *State, args []Value) error {
		id := args[0].Ident()
		if id.typ != IdentAlias {
			cs.SetResultInt(-1)
			return nil
		}
		var st identStack
		body := args[2].Code()
		n := int64(-1)
		found := int64(-1)
		var rerr error
		for p := NewListParser(args[1].GetStr()); p.Parse(); {
			n++
			setIterStr(id, p.Item(), &st)
			b, err := cs.runCodeBool(body)
			if err != nil {
				rerr = err
				break
			}
			if b {
				found = n
				break
			}
		}
		if id.stack == &st {
			id.popArg()
		}
		if rerr != nil {
			return rerr
		}
		cs.SetResultInt(found)
		return nil
	})

	s.mustCommand("listassoc", "rse", func(cs *State, args []Value) error {
		id := args[0].Ident()
		if id.typ != IdentAlias {
			return nil
		}
		var st identStack
		body := args[2].Code()
		var rerr error
		for p := NewListParser(args[1].GetStr()); p.Parse(); {
			setIterStr(id, p.Item(), &st)
			b, err := cs.runCodeBool(body)
			if err != nil {
				rerr = err
				break
			}
			if b {
				if p.Parse() {
					cs.SetResultStr(p.Element())
				}
				break
			}
			if !p.Parse() {
				break
			}
		}
		if id.stack == &st {
			id.popArg()
		}
		return rerr
	})

	listFindCmd(s, "listfind=", "sii", func(item string, probe *Value) bool {
		return parseInt(item) == probe.GetInt()
	})
	listFindCmd(s, "listfind=f", "sfi", func(item string, probe *Value) bool {
		return parseFloat(item) == probe.GetFloat()
	})
	listFindCmd(s, "listfind=s", "ssi", func(item string, probe *Value) bool {
		return item == probe.GetStr()
	})

	listAssocCmd(s, "listassoc=", "si", func(item string, probe *Value) bool {
		return parseInt(item) == probe.GetInt()
	})
	listAssocCmd(s, "listassoc=f", "sf", func(item string, probe *Value) bool {
		return parseFloat(item) == probe.GetFloat()
	})
	listAssocCmd(s, "listassoc=s", "ss", func(item string, probe *Value) bool {
		return item == probe.GetStr()
	})

	s.mustCommand("looplist", "rse", func(cs *State, args []Value) error {
		id := args[0].Ident()
		if id.typ != IdentAlias {
			return nil
		}
		var st identStack
		body := args[2].Code()
		var rerr error
		for p := NewListParser(args[1].GetStr()); p.Parse(); {
			setIterStr(id, p.Element(), &st)
			cont, err := cs.runLoopBody(body)
			if err != nil {
				rerr = err
				break
			}
			if !cont {
				break
			}
		}
		if id.stack == &st {
			id.popArg()
		}
		return rerr
	})

	s.mustCommand("looplist2", "rrse", func(cs *State, args []Value) error {
		id, id2 := args[0].Ident(), args[1].Ident()
		if id.typ != IdentAlias || id2.typ != IdentAlias {
			return nil
		}
		var st, st2 identStack
		body := args[3].Code()
		var rerr error
		for p := NewListParser(args[2].GetStr()); p.Parse(); {
			setIterStr(id, p.Element(), &st)
			if p.Parse() {
				setIterStr(id2, p.Element(), &st2)
			} else {
				setIterStr(id2, "", &st2)
			}
			cont, err := cs.runLoopBody(body)
			if err != nil {
				rerr = err
				break
			}
			if !cont {
				break
			}
		}
		if id.stack == &st {
			id.popArg()
		}
		if id2.stack == &st2 {
			id2.popArg()
		}
		return rerr
	})

	s.mustCommand("looplist3", "rrrse", func(cs *State, args []Value) error {
		id, id2, id3 := args[0].Ident(), args[1].Ident(), args[2].Ident()
		if id.typ != IdentAlias || id2.typ != IdentAlias || id3.typ != IdentAlias {
			return nil
		}
		var st, st2, st3 identStack
		body := args[4].Code()
		var rerr error
		for p := NewListParser(args[3].GetStr()); p.Parse(); {
			setIterStr(id, p.Element(), &st)
			if p.Parse() {
				setIterStr(id2, p.Element(), &st2)
			} else {
				setIterStr(id2, "", &st2)
			}
			if p.Parse() {
				setIterStr(id3, p.Element(), &st3)
			} else {
				setIterStr(id3, "", &st3)
			}
			cont, err := cs.runLoopBody(body)
			if err != nil {
				rerr = err
				break
			}
			if !cont {
				break
			}
		}
		if id.stack == &st {
			id.popArg()
		}
		if id2.stack == &st2 {
			id2.popArg()
		}
		if id3.stack == &st3 {
			id3.popArg()
		}
		return rerr
	})

	s.mustCommand("looplistconcat", "rse", func(cs *State, args []Value) error {
		return cs.loopListConc(args[0].Ident(), args[1].GetStr(), args[2].Code(), true)
	})

	s.mustCommand("looplistconcatword", "rse", func(cs *State, args []Value) error {
		return cs.loopListConc(args[0].Ident(), args[1].GetStr(), args[2].Code(), false)
	})

	s.mustCommand("listfilter", "rse", func(cs *State, args []Value) error {
		id := args[0].Ident()
		if id.typ != IdentAlias {
			return nil
		}
		var st identStack
		body := args[2].Code()
		var buf strings.Builder
		var rerr error
		for p := NewListParser(args[1].GetStr()); p.Parse(); {
			setIterStr(id, p.Item(), &st)
			b, err := cs.runCodeBool(body)
			if err != nil {
				rerr = err
				break
			}
			if b {
				if buf.Len() > 0 {
					buf.WriteByte(' ')
				}
				buf.WriteString(p.Quote())
			}
		}
		if id.stack == &st {
			id.popArg()
		}
		if rerr != nil {
			return rerr
		}
		cs.SetResultStr(buf.String())
		return nil
	})

	s.mustCommand("listcount", "rse", func(cs *State, args []Value) error {
		id := args[0].Ident()
		if id.typ != IdentAlias {
			return nil
		}
		var st identStack
		body := args[2].Code()
		count := int64(0)
		var rerr error
		for p := NewListParser(args[1].GetStr()); p.Parse(); {
			setIterStr(id, p.Item(), &st)
			b, err := cs.runCodeBool(body)
			if err != nil {
				rerr = err
				break
			}
			if b {
				count++
			}
		}
		if id.stack == &st {
			id.popArg()
		}
		if rerr != nil {
			return rerr
		}
		cs.SetResultInt(count)
		return nil
	})

	s.mustCommand("prettylist", "ss", func(cs *State, args []Value) error {
		cs.SetResultStr(prettyList(args[0].GetStr(), args[1].GetStr()))
		return nil
	})

	s.mustCommand("indexof", "ss", func(cs *State, args []Value) error {
		cs.SetResultInt(int64(listIncludes(args[0].GetStr(), args[1].GetStr())))
		return nil
	})

	s.mustCommand("listdel", "ss", func(cs *State, args []Value) error {
		cs.SetResultStr(listMerge(args[0].GetStr(), args[1].GetStr(), false, ""))
		return nil
	})
	s.mustCommand("listintersect", "ss", func(cs *State, args []Value) error {
		cs.SetResultStr(listMerge(args[0].GetStr(), args[1].GetStr(), true, ""))
		return nil
	})
	s.mustCommand("listunion", "ss", func(cs *State, args []Value) error {
		cs.SetResultStr(listMerge(args[1].GetStr(), args[0].GetStr(), false, args[0].GetStr()))
		return nil
	})

	s.mustCommand("listsplice", "ssii", func(cs *State, args []Value) error {
		str := args[0].GetStr()
		vals := args[1].GetStr()
		skip := int(args[2].GetInt())
		count := int(args[3].GetInt())
		offset := skip
		if offset < 0 {
			offset = 0
		}
		length := count
		if length < 0 {
			length = 0
		}
		p := NewListParser(str)
		for i := 0; i < offset; i++ {
			if !p.Parse() {
				break
			}
		}
		var buf strings.Builder
		if p.quoteEnd > 0 {
			buf.WriteString(str[:p.quoteEnd])
		}
		if vals != "" {
			if buf.Len() > 0 {
				buf.WriteByte(' ')
			}
			buf.WriteString(vals)
		}
		for i := 0; i < length; i++ {
			if !p.Parse() {
				break
			}
		}
		p.Skip()
		rest := p.Rest()
		if rest != "" && rest[0] != ')' && rest[0] != ']' {
			if buf.Len() > 0 {
				buf.WriteByte(' ')
			}
			buf.WriteString(rest)
		}
		cs.SetResultStr(buf.String())
		return nil
	})

	s.mustCommand("sortlist", "srree", func(cs *State, args []Value) error {
		return cs.listSort(args[0].GetStr(), args[1].Ident(), args[2].Ident(),
			args[3].Code(), args[4].Code())
	})
	s.mustCommand("uniquelist", "srre", func(cs *State, args []Value) error {
		return cs.listSort(args[0].GetStr(), args[1].Ident(), args[2].Ident(),
			codeRef{}, args[3].Code())
	})
}

// listMerge filters iterate's elements by membership in filter: keep
// members when keep is set, non-members otherwise. prefix seeds the result
// (for the union form).
func listMerge(iterate, filter string, keep bool, prefix string) string {
	var buf strings.Builder
	buf.WriteString(prefix)
	for p := NewListParser(iterate); p.Parse(); {
		if (listIncludes(filter, p.Item()) >= 0) == keep {
			if buf.Len() > 0 {
				buf.WriteByte(' ')
			}
			buf.WriteString(p.Quote())
		}
	}
	return buf.String()
}

type listSortItem struct {
	str   string
	quote string
}

// listSort implements sortlist/uniquelist: elements sorted by a script
// comparator binding the x/y aliases, then deduplicated by the unique
// comparator. A null sort body means dedup-only against every prior kept
// element.
func (s *State) listSort(list string, x, y *Ident, body, unique codeRef) error {
	if x == y || x.typ != IdentAlias || y.typ != IdentAlias {
		return nil
	}
	var items []listSortItem
	for p := NewListParser(list); p.Parse(); {
		items = append(items, listSortItem{str: p.Item(), quote: p.Quote()})
	}
	if len(items) == 0 {
		s.SetResultStr(list)
		return nil
	}

	var xst, yst identStack
	x.pushArg(Value{}, &xst, true)
	y.pushArg(Value{}, &yst, true)

	cmp := func(body codeRef, a, b listSortItem) bool {
		x.val.cleanup()
		x.cleanCode()
		x.val = macroVal(a.str)
		y.val.cleanup()
		y.cleanCode()
		y.val = macroVal(b.str)
		res, err := s.runCodeBool(body)
		return err == nil && res
	}

	if !body.isNull() {
		sort.SliceStable(items, func(i, j int) bool {
			return cmp(body, items[i], items[j])
		})
		if unique.buf != nil && unique.buf[unique.pc]&opMask != OP_EXIT {
			for i := 1; i < len(items); i++ {
				if cmp(unique, items[i-1], items[i]) {
					items[i].quote = ""
				}
			}
		}
	} else {
		for i := 1; i < len(items); i++ {
			for j := 0; j < i; j++ {
				if items[j].quote != "" && cmp(unique, items[i], items[j]) {
					items[i].quote = ""
					break
				}
			}
		}
	}

	x.popArg()
	y.popArg()

	var buf strings.Builder
	for i := range items {
		if items[i].quote == "" {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(items[i].quote)
	}
	s.SetResultStr(buf.String())
	return nil
}
