package engine

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/GriffinCanCode/cipherjs/internal/js/wtf8"
)

// matchTimeout bounds a single regular expression search
const matchTimeout = 2 * time.Second

const regexpFlags = "dgimsuy"

func (it *Interpreter) newRegExp(source, flags string) (*RegExp, error) {
	for i := 0; i < len(flags); i++ {
		if !strings.ContainsRune(regexpFlags, rune(flags[i])) || strings.IndexByte(flags[i+1:], flags[i]) >= 0 {
			return nil, it.throwError("SyntaxError", "Invalid regular expression flags '"+flags+"'")
		}
	}
	re, err := it.compile(source, flags)
	if err != nil {
		return nil, err
	}
	return &RegExp{Source: source, Flags: flags, re: re}, nil
}

// compile translates a pattern to regexp2 in ECMAScript mode. Compiled
// patterns are shared by every RegExp with the same source and flags.
func (it *Interpreter) compile(source, flags string) (*regexp2.Regexp, error) {
	key := flags + "/" + source
	if re, ok := it.regexps[key]; ok {
		return re, nil
	}
	opts := regexp2.RegexOptions(regexp2.ECMAScript)
	if strings.IndexByte(flags, 'i') >= 0 {
		opts |= regexp2.IgnoreCase
	}
	if strings.IndexByte(flags, 'm') >= 0 {
		opts |= regexp2.Multiline
	}
	if strings.IndexByte(flags, 's') >= 0 {
		opts |= regexp2.Singleline
	}
	re, err := regexp2.Compile(source, opts)
	if err != nil {
		return nil, it.throwError("SyntaxError", "Invalid regular expression: /"+source+"/: "+err.Error())
	}
	re.MatchTimeout = matchTimeout
	it.regexps[key] = re
	return re, nil
}

// toRunes decodes a WTF-8 string to code points. Lone surrogates become
// surrogate code points instead of U+FFFD.
func toRunes(s string) []rune {
	if wtf8.IsASCII(s) {
		return []rune(s)
	}
	units := wtf8.Decode(s)
	runes := make([]rune, 0, len(units))
	for i := 0; i < len(units); i++ {
		u := units[i]
		if u >= 0xd800 && u < 0xdc00 && i+1 < len(units) && units[i+1] >= 0xdc00 && units[i+1] < 0xe000 {
			runes = append(runes, 0x10000+(rune(u)-0xd800)<<10+(rune(units[i+1])-0xdc00))
			i++
			continue
		}
		runes = append(runes, rune(u))
	}
	return runes
}

func runesToString(runes []rune) string {
	units := make([]uint16, 0, len(runes))
	for _, r := range runes {
		if r >= 0x10000 {
			r -= 0x10000
			units = append(units, uint16(0xd800+(r>>10)), uint16(0xdc00+(r&0x3ff)))
			continue
		}
		units = append(units, uint16(r))
	}
	return wtf8.Encode(units)
}

// subject is a string prepared for repeated matching. Match positions are
// code points in regexp2 and code units in JavaScript.
type subject struct {
	s     String
	ascii bool
	runes []rune
	units []int
	cu    []uint16
}

func newSubject(s String) *subject {
	sb := &subject{s: s, ascii: wtf8.IsASCII(string(s)), runes: toRunes(string(s))}
	if sb.ascii {
		return sb
	}
	sb.units = make([]int, len(sb.runes)+1)
	for i, r := range sb.runes {
		n := 1
		if r >= 0x10000 {
			n = 2
		}
		sb.units[i+1] = sb.units[i] + n
	}
	sb.cu = s.Units()
	return sb
}

// Len returns the length in code units
func (sb *subject) Len() int {
	if sb.ascii {
		return len(sb.s)
	}
	return len(sb.cu)
}

func (sb *subject) unitOf(r int) int {
	if sb.ascii {
		return r
	}
	return sb.units[r]
}

func (sb *subject) runeOf(unit int) int {
	if sb.ascii {
		return unit
	}
	return sort.SearchInts(sb.units, unit)
}

func (sb *subject) slice(from, to int) String {
	if sb.ascii {
		return sb.s[from:to]
	}
	return stringFromUnits(sb.cu[from:to])
}

// match is one regular expression match in code units.
type match struct {
	start, end int
	groups     []Value
	named      *Object
}

func (it *Interpreter) matchAt(r *RegExp, sb *subject, unit int) (*match, error) {
	if unit > sb.Len() {
		return nil, nil
	}
	m, err := r.re.FindRunesMatchStartingAt(sb.runes, sb.runeOf(unit))
	if err != nil {
		return nil, it.fail(ErrCanceled, "regular expression /%s/: %v", r.Source, err)
	}
	if m == nil {
		return nil, nil
	}
	res := &match{
		start: sb.unitOf(m.Index),
		end:   sb.unitOf(m.Index + m.Length),
	}
	for _, g := range m.Groups() {
		res.groups = append(res.groups, groupValue(sb, &g))
	}
	for _, name := range r.re.GetGroupNames() {
		if _, err := strconv.Atoi(name); err == nil {
			continue
		}
		if res.named == nil {
			res.named = NewObject(nil)
		}
		g := m.GroupByName(name)
		if g == nil {
			res.named.Set(name, undefined)
			continue
		}
		res.named.Set(name, groupValue(sb, g))
	}
	return res, nil
}

func groupValue(sb *subject, g *regexp2.Group) Value {
	if len(g.Captures) == 0 {
		return undefined
	}
	return String(runesToString(sb.runes[g.Index : g.Index+g.Length]))
}

// regexpExec implements RegExp.prototype.exec, honouring lastIndex for
// global and sticky patterns.
func (it *Interpreter) regexpExec(r *RegExp, s String) (*match, error) {
	sb := newSubject(s)
	useLast := r.Global() || r.hasFlag('y')
	start := 0
	if useLast {
		start = r.LastIndex
		if start < 0 || start > sb.Len() {
			r.LastIndex = 0
			return nil, nil
		}
	}
	m, err := it.matchAt(r, sb, start)
	if err != nil {
		return nil, err
	}
	if m != nil && r.hasFlag('y') && m.start != start {
		m = nil
	}
	if useLast {
		r.LastIndex = 0
		if m != nil {
			r.LastIndex = m.end
		}
	}
	return m, nil
}

func (it *Interpreter) matchResult(m *match, s String) Value {
	if m == nil {
		return null
	}
	arr := NewArray(append([]Value(nil), m.groups...)...)
	arr.props = NewObject(nil)
	arr.props.Set("index", Number(m.start))
	arr.props.Set("input", s)
	if m.named != nil {
		arr.props.Set("groups", m.named)
	} else {
		arr.props.Set("groups", undefined)
	}
	return arr
}

// allMatches returns every non-overlapping match, advancing past empty ones.
func (it *Interpreter) allMatches(r *RegExp, sb *subject) ([]*match, error) {
	var out []*match
	for pos := 0; pos <= sb.Len(); {
		m, err := it.matchAt(r, sb, pos)
		if err != nil {
			return nil, err
		}
		if m == nil {
			break
		}
		out = append(out, m)
		pos = m.end
		if m.end == m.start {
			r := sb.runeOf(m.end)
			if r >= len(sb.runes) {
				break
			}
			pos = sb.unitOf(r + 1)
		}
	}
	return out, nil
}

// splitRegExp implements String.prototype.split with a RegExp separator.
func (it *Interpreter) splitRegExp(s String, r *RegExp, limit uint32) (*Array, error) {
	out := NewArray()
	if limit == 0 {
		return out, nil
	}
	sb := newSubject(s)
	size := sb.Len()
	if size == 0 {
		m, err := it.matchAt(r, sb, 0)
		if err != nil {
			return nil, err
		}
		if m == nil {
			out.Elems = append(out.Elems, s)
		}
		return out, nil
	}

	p, q := 0, 0
	for q < size {
		m, err := it.matchAt(r, sb, q)
		if err != nil {
			return nil, err
		}
		if m == nil || m.start >= size {
			break
		}
		if m.end == p {
			q = sb.unitOf(sb.runeOf(m.start) + 1)
			continue
		}
		out.Elems = append(out.Elems, sb.slice(p, m.start))
		if uint32(len(out.Elems)) == limit {
			return out, nil
		}
		for _, g := range m.groups[1:] {
			out.Elems = append(out.Elems, g)
			if uint32(len(out.Elems)) == limit {
				return out, nil
			}
		}
		p = m.end
		q = p
		if m.end == m.start {
			q = sb.unitOf(sb.runeOf(p) + 1)
		}
	}
	out.Elems = append(out.Elems, sb.slice(p, size))
	return out, nil
}

// replace implements String.prototype.replace and replaceAll for both
// pattern kinds. replacement is a string or a function.
func (it *Interpreter) replace(s String, pattern, replacement Value, all bool) (Value, error) {
	sb := newSubject(s)

	var matches []*match
	if r, ok := pattern.(*RegExp); ok {
		if all && !r.Global() {
			return nil, it.throwError("TypeError", "replaceAll must be called with a global RegExp")
		}
		var err error
		if r.Global() {
			matches, err = it.allMatches(r, sb)
			r.LastIndex = 0
		} else {
			var m *match
			m, err = it.matchAt(r, sb, 0)
			if m != nil {
				matches = append(matches, m)
			}
		}
		if err != nil {
			return nil, err
		}
	} else {
		needle, err := it.toString(pattern)
		if err != nil {
			return nil, err
		}
		matches = stringMatches(sb, needle, all)
	}
	if len(matches) == 0 {
		return s, nil
	}

	fn, isFunc := replacement.(*Function)
	var template String
	if !isFunc {
		var err error
		if template, err = it.toString(replacement); err != nil {
			return nil, err
		}
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(string(sb.slice(last, m.start)))
		if isFunc {
			args := append([]Value(nil), m.groups...)
			args = append(args, Number(m.start), s)
			if m.named != nil {
				args = append(args, m.named)
			}
			v, err := it.callFunction(fn, undefined, args)
			if err != nil {
				return nil, err
			}
			str, err := it.toString(v)
			if err != nil {
				return nil, err
			}
			b.WriteString(string(str))
		} else {
			str, err := it.expand(string(template), m, sb)
			if err != nil {
				return nil, err
			}
			b.WriteString(str)
		}
		last = m.end
	}
	b.WriteString(string(sb.slice(last, sb.Len())))
	return String(b.String()), nil
}

// stringMatches finds occurrences of a literal needle.
func stringMatches(sb *subject, needle String, all bool) []*match {
	hay := sb.s
	var out []*match
	for from := 0; from <= len(hay); {
		i := strings.Index(string(hay[from:]), string(needle))
		if i < 0 {
			break
		}
		i += from
		start := String(hay[:i]).Len()
		end := start + needle.Len()
		out = append(out, &match{start: start, end: end, groups: []Value{needle}})
		if !all {
			break
		}
		from = i + len(needle)
		if len(needle) == 0 {
			if i >= len(hay) {
				break
			}
			from = i + seqLen(hay[i])
		}
	}
	return out
}

// expand substitutes $-patterns in a replacement template.
func (it *Interpreter) expand(tmpl string, m *match, sb *subject) (string, error) {
	if strings.IndexByte(tmpl, '$') < 0 {
		return tmpl, nil
	}
	var b strings.Builder
	n := len(m.groups) - 1
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		if c != '$' || i+1 == len(tmpl) {
			b.WriteByte(c)
			continue
		}
		next := tmpl[i+1]
		switch {
		case next == '$':
			b.WriteByte('$')
			i++
		case next == '&':
			b.WriteString(string(sb.slice(m.start, m.end)))
			i++
		case next == '`':
			b.WriteString(string(sb.slice(0, m.start)))
			i++
		case next == '\'':
			b.WriteString(string(sb.slice(m.end, sb.Len())))
			i++
		case isDigit(next):
			idx, width := int(next-'0'), 1
			if i+2 < len(tmpl) && isDigit(tmpl[i+2]) {
				if two := idx*10 + int(tmpl[i+2]-'0'); two >= 1 && two <= n {
					idx, width = two, 2
				}
			}
			if idx < 1 || idx > n {
				b.WriteByte(c)
				continue
			}
			if s, ok := m.groups[idx].(String); ok {
				b.WriteString(string(s))
			}
			i += width
		case next == '<' && m.named != nil:
			end := strings.IndexByte(tmpl[i+2:], '>')
			if end < 0 {
				b.WriteByte(c)
				continue
			}
			if v, ok := m.named.Own(tmpl[i+2 : i+2+end]); ok {
				if s, ok := v.(String); ok {
					b.WriteString(string(s))
				}
			}
			i += end + 2
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), nil
}

// seqLen returns the byte length of the WTF-8 sequence starting with c.
func seqLen(c byte) int {
	switch {
	case c < 0xc0:
		return 1
	case c < 0xe0:
		return 2
	case c < 0xf0:
		return 3
	default:
		return 4
	}
}
