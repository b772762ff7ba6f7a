package engine

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// maxTime is the largest absolute time value a Date can hold, in ms.
const maxTime = 8.64e15

func (it *Interpreter) setupDate() {
	p := it.dateProto
	call := func(it *Interpreter, _ Value, _ []Value) (Value, error) {
		return String(formatDate(it.now())), nil
	}
	ctor := it.constructor("Date", p, call, dateConstruct)

	statics := ctor.Props()
	method(statics, "now", func(it *Interpreter, _ Value, _ []Value) (Value, error) {
		return Number(it.now()), nil
	})
	method(statics, "parse", func(it *Interpreter, _ Value, args []Value) (Value, error) {
		s, err := it.toString(arg(args, 0))
		if err != nil {
			return nil, err
		}
		return Number(ParseDate(string(s))), nil
	})
	method(statics, "UTC", func(it *Interpreter, _ Value, args []Value) (Value, error) {
		ms, err := it.dateFromFields(args)
		return Number(ms), err
	})

	getters := map[string]func(t time.Time) int{
		"FullYear":     time.Time.Year,
		"Month":        func(t time.Time) int { return int(t.Month()) - 1 },
		"Date":         time.Time.Day,
		"Day":          func(t time.Time) int { return int(t.Weekday()) },
		"Hours":        time.Time.Hour,
		"Minutes":      time.Time.Minute,
		"Seconds":      time.Time.Second,
		"Milliseconds": func(t time.Time) int { return t.Nanosecond() / int(time.Millisecond) },
	}
	for name, get := range getters {
		fn := func(it *Interpreter, this Value, _ []Value) (Value, error) {
			ms, err := it.thisDate(this, "get"+name)
			if err != nil || math.IsNaN(ms) {
				return nan, err
			}
			return Number(get(msTime(ms))), nil
		}
		method(p, "get"+name, fn)
		method(p, "getUTC"+name, fn)
	}

	timeValue := func(it *Interpreter, this Value, _ []Value) (Value, error) {
		ms, err := it.thisDate(this, "getTime")
		return Number(ms), err
	}
	method(p, "getTime", timeValue)
	method(p, "valueOf", timeValue)
	method(p, "getTimezoneOffset", func(it *Interpreter, this Value, _ []Value) (Value, error) {
		ms, err := it.thisDate(this, "getTimezoneOffset")
		if err != nil || math.IsNaN(ms) {
			return nan, err
		}
		return Number(0), nil
	})
	method(p, "setTime", func(it *Interpreter, this Value, args []Value) (Value, error) {
		if _, err := it.thisDate(this, "setTime"); err != nil {
			return nil, err
		}
		n, err := it.toNumber(arg(args, 0))
		if err != nil {
			return nil, err
		}
		ms := timeClip(n)
		this.(*Object).Internal = ms
		return Number(ms), nil
	})
	method(p, "toISOString", func(it *Interpreter, this Value, _ []Value) (Value, error) {
		ms, err := it.thisDate(this, "toISOString")
		if err != nil {
			return nil, err
		}
		if math.IsNaN(ms) {
			return nil, it.throwError("RangeError", "Invalid time value")
		}
		return String(formatISO(msTime(ms))), nil
	})
	method(p, "toJSON", func(it *Interpreter, this Value, _ []Value) (Value, error) {
		ms, err := it.thisDate(this, "toJSON")
		if err != nil {
			return nil, err
		}
		if math.IsNaN(ms) {
			return null, nil
		}
		return String(formatISO(msTime(ms))), nil
	})
	method(p, "toString", func(it *Interpreter, this Value, _ []Value) (Value, error) {
		ms, err := it.thisDate(this, "toString")
		if err != nil {
			return nil, err
		}
		return String(formatDate(ms)), nil
	})
	method(p, "toUTCString", func(it *Interpreter, this Value, _ []Value) (Value, error) {
		ms, err := it.thisDate(this, "toUTCString")
		if err != nil {
			return nil, err
		}
		if math.IsNaN(ms) {
			return String("Invalid Date"), nil
		}
		return String(msTime(ms).Format(time.RFC1123)), nil
	})
}

func (it *Interpreter) now() float64 {
	return float64(it.opts.Clock().UnixMilli())
}

func (it *Interpreter) newDate(ms float64) *Object {
	o := NewObject(it.dateProto)
	o.Class = ClassDate
	o.Internal = timeClip(ms)
	return o
}

func dateConstruct(it *Interpreter, _ Value, args []Value) (Value, error) {
	switch len(args) {
	case 0:
		return it.newDate(it.now()), nil
	case 1:
		if d, ok := args[0].(*Object); ok && d.Class == ClassDate {
			return it.newDate(d.Internal.(float64)), nil
		}
		v, err := it.toPrimitive(args[0], hintDefault)
		if err != nil {
			return nil, err
		}
		if s, ok := v.(String); ok {
			return it.newDate(ParseDate(string(s))), nil
		}
		n, err := it.toNumber(v)
		if err != nil {
			return nil, err
		}
		return it.newDate(n), nil
	default:
		ms, err := it.dateFromFields(args)
		if err != nil {
			return nil, err
		}
		return it.newDate(ms), nil
	}
}

// dateFromFields implements MakeDate over (year, month[, day, hours,
// minutes, seconds, ms]).
func (it *Interpreter) dateFromFields(args []Value) (float64, error) {
	fields := [7]float64{0, 0, 1, 0, 0, 0, 0}
	for i := range fields {
		if i >= len(args) {
			break
		}
		n, err := it.toNumber(args[i])
		if err != nil {
			return 0, err
		}
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return math.NaN(), nil
		}
		fields[i] = math.Trunc(n)
	}
	if y := fields[0]; y >= 0 && y <= 99 {
		fields[0] = 1900 + y
	}
	if math.Abs(fields[0]) > 400000 {
		return math.NaN(), nil
	}
	t := time.Date(int(fields[0]), time.Month(1), 1, 0, 0, 0, 0, time.UTC).AddDate(0, int(fields[1]), int(fields[2])-1)
	ms := float64(t.UnixMilli()) + fields[3]*3.6e6 + fields[4]*6e4 + fields[5]*1e3 + fields[6]
	return timeClip(ms), nil
}

func (it *Interpreter) thisDate(this Value, name string) (float64, error) {
	o, ok := this.(*Object)
	if !ok || o.Class != ClassDate {
		return 0, it.throwError("TypeError", "Date.prototype."+name+" called on incompatible receiver")
	}
	return o.Internal.(float64), nil
}

func timeClip(ms float64) float64 {
	if math.IsNaN(ms) || math.Abs(ms) > maxTime {
		return math.NaN()
	}
	return math.Trunc(ms) + 0
}

func msTime(ms float64) time.Time {
	return time.UnixMilli(int64(ms)).UTC()
}

func formatISO(t time.Time) string {
	if y := t.Year(); y < 0 || y > 9999 {
		sign := "+"
		if y < 0 {
			sign, y = "-", -y
		}
		return sign + fmt.Sprintf("%06d", y) + t.Format("-01-02T15:04:05.000Z")
	}
	return t.Format("2006-01-02T15:04:05.000Z")
}

func formatDate(ms float64) string {
	if math.IsNaN(ms) {
		return "Invalid Date"
	}
	return msTime(ms).Format("Mon Jan 02 2006 15:04:05") + " GMT+0000 (Coordinated Universal Time)"
}

// zoneOffsets maps the zone abbreviations accepted in date strings to
// their offset from UTC in hours.
var zoneOffsets = map[string]int{
	"UTC": 0, "UT": 0, "GMT": 0, "Z": 0,
	"EST": -5, "EDT": -4,
	"CST": -6, "CDT": -5,
	"MST": -7, "MDT": -6,
	"PST": -8, "PDT": -7,
}

var isoLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01",
	"2006",
}

var textLayouts = []string{
	"January 2 2006 15:04:05",
	"January 2, 2006 15:04:05",
	"Jan 2 2006 15:04:05",
	"Jan 2, 2006 15:04:05",
	"2 January 2006 15:04:05",
	"2 Jan 2006 15:04:05",
	"January 2 2006 15:04",
	"Jan 2 2006 15:04",
	"2 Jan 2006 15:04",
	"January 2 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
	"2006/1/2 15:04:05",
	"2006/1/2 15:04",
	"2006/1/2",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
}

var weekdays = []string{"sun", "mon", "tue", "wed", "thu", "fri", "sat"}

// ParseDate implements Date.parse for ISO-8601 and the common textual
// forms. Strings without a zone are read as UTC. It returns NaN when s
// has no recognizable form.
func ParseDate(s string) float64 {
	s = strings.TrimSpace(s)
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return timeClip(float64(t.UnixMilli()))
		}
	}

	if i := strings.IndexByte(s, '('); i >= 0 {
		if j := strings.LastIndexByte(s, ')'); j > i {
			s = s[:i] + s[j+1:]
		}
	}
	fields := strings.Fields(s)
	if len(fields) > 0 && len(fields[0]) >= 3 {
		lead := strings.ToLower(strings.TrimSuffix(fields[0], ","))
		for _, wd := range weekdays {
			if strings.HasPrefix(lead, wd) {
				fields = fields[1:]
				break
			}
		}
	}
	offset := 0
	if n := len(fields); n > 1 {
		if off, ok := parseZone(fields[n-1]); ok {
			offset = off
			fields = fields[:n-1]
		}
	}
	text := strings.Join(fields, " ")
	for _, layout := range textLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return timeClip(float64(t.UnixMilli()) - float64(offset)*1000)
		}
	}
	return math.NaN()
}

// parseZone reads a zone abbreviation or numeric offset, returning seconds
// east of UTC.
func parseZone(z string) (int, bool) {
	upper := strings.ToUpper(z)
	if h, ok := zoneOffsets[upper]; ok {
		return h * 3600, true
	}
	for _, prefix := range []string{"GMT", "UTC", "UT"} {
		if rest, ok := strings.CutPrefix(upper, prefix); ok && rest != "" {
			upper = rest
			break
		}
	}
	if len(upper) < 3 || (upper[0] != '+' && upper[0] != '-') {
		return 0, false
	}
	digits := strings.ReplaceAll(upper[1:], ":", "")
	if len(digits) != 4 && len(digits) != 2 {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	h, m := n, 0
	if len(digits) == 4 {
		h, m = n/100, n%100
	}
	off := h*3600 + m*60
	if upper[0] == '-' {
		off = -off
	}
	return off, true
}
