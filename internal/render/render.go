// Package render turns a database.ResultSet into the single-line, Python
// literal style text that dbverify prints after "Data: ".
//
//	[(1, 'alice'), (2, 'bob')]
//
// Values are rendered the way a Python DB-API client would show them, so the
// output stays comparable with the legacy verification script.
package render

import (
	"database/sql/driver"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/koustreak/dbverify/internal/database"
)

// Rows renders every row of rs as a list of tuples.
func Rows(rs *database.ResultSet) string {
	if rs == nil {
		return "[]"
	}

	var sb strings.Builder
	sb.WriteByte('[')
	for i, row := range rs.Rows {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for j, v := range row {
			if j > 0 {
				sb.WriteString(", ")
			}
			typ := ""
			if j < len(rs.Columns) {
				typ = rs.Columns[j].DataType
			}
			sb.WriteString(Value(v, typ))
		}
		if len(row) == 1 {
			sb.WriteByte(',')
		}
		sb.WriteByte(')')
	}
	sb.WriteByte(']')
	return sb.String()
}

// Value renders a single column value. dbType is the column's database type
// name and only matters where the Go value alone is ambiguous (dates,
// decimals).
func Value(v any, dbType string) string {
	typ := strings.ToLower(dbType)

	switch x := v.(type) {
	case nil:
		return "None"
	case bool:
		if x {
			return "True"
		}
		return "False"
	case string:
		if isDecimalType(typ) {
			return "Decimal(" + quote(x) + ")"
		}
		return quote(x)
	case []byte:
		return "b" + quoteBytes(x)
	case float32:
		return Float(float64(x))
	case float64:
		if isJSONType(typ) {
			return jsonNumber(x)
		}
		return Float(x)
	case time.Time:
		if typ == "date" {
			return fmt.Sprintf("datetime.date(%d, %d, %d)", x.Year(), int(x.Month()), x.Day())
		}
		return datetime(x, typ)
	case time.Duration:
		return timedelta(x.Microseconds())
	case pgtype.Numeric:
		return numeric(x)
	case pgtype.Interval:
		return interval(x)
	case pgtype.Time:
		return clock(x)
	case [16]byte:
		return quote(uuid.UUID(x).String())
	case uuid.UUID:
		return quote(x.String())
	case map[string]any:
		return dict(x, typ)
	case []any:
		return list(x, typ)
	case fmt.Stringer:
		if dv, ok := v.(driver.Valuer); ok {
			return valuer(dv, typ)
		}
		return quote(x.String())
	case driver.Valuer:
		return valuer(x, typ)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return list(items, typ)
	case reflect.Pointer:
		if rv.IsNil() {
			return "None"
		}
		return Value(rv.Elem().Interface(), dbType)
	}
	return quote(fmt.Sprint(v))
}

// Float renders f like Python's repr(float).
func Float(f float64) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}

	// Shortest round-trip digits; Python switches to exponent notation
	// outside 1e-4 <= |f| < 1e16.
	e := strconv.FormatFloat(f, 'e', -1, 64)
	exp, _ := strconv.Atoi(e[strings.IndexByte(e, 'e')+1:])
	if exp < -4 || exp >= 16 {
		mant, expPart, _ := strings.Cut(e, "e")
		if len(expPart) == 2 { // "+5" → "+05"
			expPart = expPart[:1] + "0" + expPart[1:]
		}
		return mant + "e" + expPart
	}

	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}

// numeric renders an exact PostgreSQL numeric keeping its scale,
// e.g. Int=1050 Exp=-2 → Decimal('10.50').
func numeric(n pgtype.Numeric) string {
	switch {
	case !n.Valid:
		return "None"
	case n.NaN:
		return "Decimal('NaN')"
	case n.InfinityModifier == pgtype.Infinity:
		return "Decimal('Infinity')"
	case n.InfinityModifier == pgtype.NegativeInfinity:
		return "Decimal('-Infinity')"
	case n.Int == nil:
		return "Decimal('0')"
	}

	digits := n.Int.String()
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}

	if n.Exp >= 0 {
		return "Decimal('" + sign + digits + strings.Repeat("0", int(n.Exp)) + "')"
	}

	scale := int(-n.Exp)
	if len(digits) <= scale {
		digits = strings.Repeat("0", scale-len(digits)+1) + digits
	}
	point := len(digits) - scale
	return "Decimal('" + sign + digits[:point] + "." + digits[point:] + "')"
}

// interval renders a PostgreSQL interval the way psycopg2 converts it:
// a year counts as 365 days and a month as 30.
func interval(iv pgtype.Interval) string {
	if !iv.Valid {
		return "None"
	}
	days := int64(iv.Months/12)*365 + int64(iv.Months%12)*30 + int64(iv.Days)
	return timedelta(days*usPerDay + iv.Microseconds)
}

// clock renders a time-of-day value like repr(datetime.time).
func clock(t pgtype.Time) string {
	if !t.Valid {
		return "None"
	}
	us := t.Microseconds % usPerDay // 24:00:00 wraps to midnight
	h, m := us/3_600_000_000, us/60_000_000%60
	sec, micros := us/1_000_000%60, us%1_000_000

	var sb strings.Builder
	fmt.Fprintf(&sb, "datetime.time(%d, %d", h, m)
	if sec != 0 || micros != 0 {
		fmt.Fprintf(&sb, ", %d", sec)
		if micros != 0 {
			fmt.Fprintf(&sb, ", %d", micros)
		}
	}
	sb.WriteByte(')')
	return sb.String()
}

func isJSONType(typ string) bool {
	return typ == "json" || typ == "jsonb"
}

// jsonNumber renders a decoded JSON number. Decoding yields float64 for every
// number, so integral values print as Python ints the way json.loads gives them.
func jsonNumber(f float64) string {
	if math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return Float(f)
	}
	if f == 0 {
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func isDecimalType(typ string) bool {
	return typ == "numeric" || typ == "decimal" || strings.HasPrefix(typ, "unsigned decimal")
}

// valuer renders driver.Valuer implementations (pgtype.Text, pgtype.Date, …)
// through their driver value.
func valuer(v driver.Valuer, typ string) string {
	dv, err := v.Value()
	if err != nil {
		return quote(fmt.Sprint(v))
	}
	return Value(dv, typ)
}

func dict(m map[string]any, typ string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = quote(k) + ": " + Value(m[k], elemType(typ))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func list(items []any, typ string) string {
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = Value(item, elemType(typ))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// elemType strips PostgreSQL's array prefix ("_int4" → "int4"). JSON members
// stay JSON; anything else carries no column type.
func elemType(typ string) string {
	switch {
	case strings.HasPrefix(typ, "_"):
		return typ[1:]
	case isJSONType(typ):
		return typ
	}
	return ""
}

func datetime(t time.Time, typ string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "datetime.datetime(%d, %d, %d, %d, %d", t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute())
	if us := t.Nanosecond() / 1000; t.Second() != 0 || us != 0 {
		fmt.Fprintf(&sb, ", %d", t.Second())
		if us != 0 {
			fmt.Fprintf(&sb, ", %d", us)
		}
	}
	if hasZone(typ, t) {
		_, offset := t.Zone()
		if offset == 0 {
			sb.WriteString(", tzinfo=datetime.timezone.utc")
		} else {
			sb.WriteString(", tzinfo=datetime.timezone(" + timedelta(int64(offset)*1_000_000) + ")")
		}
	}
	sb.WriteByte(')')
	return sb.String()
}

// hasZone reports whether the value represents an aware datetime.
// Without a column type, any non-UTC location counts as aware.
func hasZone(typ string, t time.Time) bool {
	switch typ {
	case "timestamptz", "timestamp with time zone":
		return true
	case "timestamp", "datetime", "timestamp without time zone":
		return false
	}
	return t.Location() != time.UTC
}

const usPerDay = 86400 * 1_000_000

// timedelta renders us microseconds like Python's repr(datetime.timedelta):
// normalized to days, seconds and microseconds with only seconds and
// microseconds non-negative.
func timedelta(us int64) string {
	days := us / usPerDay
	rem := us % usPerDay
	if rem < 0 {
		days--
		rem += usPerDay
	}
	secs, micros := rem/1_000_000, rem%1_000_000

	var parts []string
	if days != 0 {
		parts = append(parts, "days="+strconv.FormatInt(days, 10))
	}
	if secs != 0 {
		parts = append(parts, "seconds="+strconv.FormatInt(secs, 10))
	}
	if micros != 0 {
		parts = append(parts, "microseconds="+strconv.FormatInt(micros, 10))
	}
	if len(parts) == 0 {
		return "datetime.timedelta(0)"
	}
	return "datetime.timedelta(" + strings.Join(parts, ", ") + ")"
}

// quote renders s like Python's repr(str).
func quote(s string) string {
	q := byte('\'')
	if strings.ContainsRune(s, '\'') && !strings.ContainsRune(s, '"') {
		q = '"'
	}

	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte(q)
	for i, w := 0, 0; i < len(s); i += w {
		r, size := utf8.DecodeRuneInString(s[i:])
		w = size
		switch {
		case r == utf8.RuneError && size == 1:
			fmt.Fprintf(&sb, `\x%02x`, s[i])
		case r == '\\':
			sb.WriteString(`\\`)
		case r == rune(q):
			sb.WriteByte('\\')
			sb.WriteByte(q)
		case r == '\n':
			sb.WriteString(`\n`)
		case r == '\r':
			sb.WriteString(`\r`)
		case r == '\t':
			sb.WriteString(`\t`)
		case r < 0x20 || r == 0x7f:
			fmt.Fprintf(&sb, `\x%02x`, r)
		case !strconv.IsPrint(r):
			if r <= 0xff {
				fmt.Fprintf(&sb, `\x%02x`, r)
			} else if r <= 0xffff {
				fmt.Fprintf(&sb, `\u%04x`, r)
			} else {
				fmt.Fprintf(&sb, `\U%08x`, r)
			}
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte(q)
	return sb.String()
}

// quoteBytes renders b like Python's repr(bytes) without the b prefix.
func quoteBytes(b []byte) string {
	q := byte('\'')
	if strings.IndexByte(string(b), '\'') >= 0 && strings.IndexByte(string(b), '"') < 0 {
		q = '"'
	}

	var sb strings.Builder
	sb.WriteByte(q)
	for _, c := range b {
		switch {
		case c == '\\':
			sb.WriteString(`\\`)
		case c == q:
			sb.WriteByte('\\')
			sb.WriteByte(q)
		case c == '\n':
			sb.WriteString(`\n`)
		case c == '\r':
			sb.WriteString(`\r`)
		case c == '\t':
			sb.WriteString(`\t`)
		case c < 0x20 || c >= 0x7f:
			fmt.Fprintf(&sb, `\x%02x`, c)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte(q)
	return sb.String()
}
