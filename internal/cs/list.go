package cs

import "strings"

// ListParser walks a textual list: whitespace-separated elements that may be
// quoted strings, bracketed or parenthesized blocks, or barewords. There is
// no list type at the value level; lists are parsed on demand.
type ListParser struct {
	input string
	pos   int

	// element boundaries from the last successful Parse
	itemStart, itemEnd   int
	quoteStart, quoteEnd int
	hasQuote             bool
}

// NewListParser starts parsing src.
func NewListParser(src string) *ListParser {
	return &ListParser{input: src}
}

func (p *ListParser) at(i int) byte {
	if i >= 0 && i < len(p.input) {
		return p.input[i]
	}
	return 0
}

// Skip consumes whitespace and // comments between elements.
func (p *ListParser) Skip() {
	for {
		for p.pos < len(p.input) {
			switch p.input[p.pos] {
			case ' ', '\t', '\r', '\n':
				p.pos++
				continue
			}
			break
		}
		if p.at(p.pos) != '/' || p.at(p.pos+1) != '/' {
			return
		}
		for p.pos < len(p.input) && p.input[p.pos] != '\n' {
			p.pos++
		}
	}
}

// skipString advances past a quoted-string body starting at pos.
func (p *ListParser) skipString(pos int) int {
	for pos < len(p.input) {
		switch p.input[pos] {
		case '\r', '\n', '"':
			return pos
		case '^':
			pos++
			if pos >= len(p.input) {
				return pos
			}
		}
		pos++
	}
	return pos
}

// Parse advances to the next element, reporting false at the end of the
// list or at an unbalanced closer.
func (p *ListParser) Parse() bool {
	p.Skip()
	if p.pos >= len(p.input) {
		return false
	}
	switch p.input[p.pos] {
	case '"':
		p.quoteStart = p.pos
		p.pos++
		p.itemStart = p.pos
		p.pos = p.skipString(p.pos)
		p.itemEnd = p.pos
		if p.at(p.pos) == '"' {
			p.pos++
		}
		p.quoteEnd = p.pos
		p.hasQuote = true
	case '(', '[':
		btype := p.input[p.pos]
		p.quoteStart = p.pos
		p.pos++
		p.itemStart = p.pos
		brak := 1
	scan:
		for {
			for p.pos < len(p.input) && !indexByte("\"/;()[]", p.input[p.pos]) {
				p.pos++
			}
			if p.pos >= len(p.input) {
				p.itemEnd = p.pos
				p.quoteEnd = p.pos
				p.hasQuote = true
				return true
			}
			c := p.input[p.pos]
			p.pos++
			switch c {
			case '"':
				p.pos = p.skipString(p.pos)
				if p.at(p.pos) == '"' {
					p.pos++
				}
			case '/':
				if p.at(p.pos) == '/' {
					for p.pos < len(p.input) && p.input[p.pos] != '\n' {
						p.pos++
					}
				}
			case '(', '[':
				if c == btype {
					brak++
				}
			case ')':
				if btype == '(' {
					brak--
					if brak <= 0 {
						break scan
					}
				}
			case ']':
				if btype == '[' {
					brak--
					if brak <= 0 {
						break scan
					}
				}
			}
		}
		p.itemEnd = p.pos - 1
		p.quoteEnd = p.pos
		p.hasQuote = true
	case ')', ']':
		return false
	default:
		start := p.pos
		p.pos = parseListWord(p.input, p.pos)
		p.itemStart, p.itemEnd = start, p.pos
		p.quoteStart, p.quoteEnd = start, p.pos
		p.hasQuote = false
	}
	p.Skip()
	if p.at(p.pos) == ';' {
		p.pos++
	}
	return true
}

// parseListWord is the bareword scanner shared with the compiler's word
// rules: balanced bracket pairs allowed, separators end the word.
func parseListWord(src string, pos int) int {
	var brakStack [maxBrackets]byte
	brakDepth := 0
	for {
		for pos < len(src) && !indexByte("\"/;()[] \t\r\n", src[pos]) {
			pos++
		}
		if pos >= len(src) {
			return pos
		}
		switch src[pos] {
		case '"', ';', ' ', '\t', '\r', '\n':
			return pos
		case '/':
			if pos+1 < len(src) && src[pos+1] == '/' {
				return pos
			}
		case '[', '(':
			if brakDepth >= maxBrackets {
				return pos
			}
			brakStack[brakDepth] = src[pos]
			brakDepth++
		case ']':
			if brakDepth <= 0 || brakStack[brakDepth-1] != '[' {
				return pos
			}
			brakDepth--
		case ')':
			if brakDepth <= 0 || brakStack[brakDepth-1] != '(' {
				return pos
			}
			brakDepth--
		}
		pos++
	}
}

// Item returns the raw text of the current element (quotes stripped, no
// unescaping).
func (p *ListParser) Item() string {
	return p.input[p.itemStart:p.itemEnd]
}

// Quote returns the current element with its quoting intact.
func (p *ListParser) Quote() string {
	return p.input[p.quoteStart:p.quoteEnd]
}

// Element returns the current element's value: quoted strings are
// unescaped, everything else is taken verbatim.
func (p *ListParser) Element() string {
	if p.hasQuote && p.at(p.quoteStart) == '"' {
		return UnescapeString(p.Item())
	}
	return p.Item()
}

// Rest returns the unconsumed remainder of the input.
func (p *ListParser) Rest() string {
	return p.input[p.pos:]
}

// ListLength counts the elements of s.
func ListLength(s string) int {
	p := NewListParser(s)
	n := 0
	for p.Parse() {
		n++
	}
	return n
}

// ListIndex returns element idx of s, with ok reporting presence.
func ListIndex(s string, idx int) (string, bool) {
	p := NewListParser(s)
	for i := 0; i < idx; i++ {
		if !p.Parse() {
			return "", false
		}
	}
	if !p.Parse() {
		return "", false
	}
	return p.Element(), true
}

// ListExplode splits s into at most limit elements (limit < 0 for all).
func ListExplode(s string, limit int) []string {
	var out []string
	p := NewListParser(s)
	for (limit < 0 || len(out) < limit) && p.Parse() {
		out = append(out, p.Element())
	}
	return out
}

// listIncludes returns the position of needle in list, or -1.
func listIncludes(list, needle string) int {
	offset := 0
	for p := NewListParser(list); p.Parse(); offset++ {
		if p.Item() == needle {
			return offset
		}
	}
	return -1
}

// prettyList joins elements with commas, inserting conj before the final
// element the way English lists read.
func prettyList(s, conj string) string {
	var buf strings.Builder
	n := ListLength(s)
	i := 0
	for p := NewListParser(s); p.Parse(); i++ {
		if p.hasQuote && p.at(p.quoteStart) == '"' {
			buf.WriteString(UnescapeString(p.Item()))
		} else {
			buf.WriteString(p.Item())
		}
		if i+1 < n {
			if n > 2 || conj == "" {
				buf.WriteByte(',')
			}
			if i+2 == n && conj != "" {
				buf.WriteByte(' ')
				buf.WriteString(conj)
			}
			buf.WriteByte(' ')
		}
	}
	return buf.String()
}
