// Package lua renders nested data as the table literals read by the game's
// embedded scripting runtime.
//
// The encoder knows nothing about server configuration. Mappings become
// brace-delimited tables with quoted keys and '=' separators, sequences become
// bracket-delimited lists, and every element is comma-terminated:
//
//	{"a"=1,"b"=[true,"x",],"c"={},}
package lua

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Map is an insertion-ordered string-keyed table. Keys are emitted in the
// order they were set, which keeps rendered output stable across runs.
type Map = orderedmap.OrderedMap[string, any]

// NewMap returns an empty Map.
func NewMap() *Map {
	return orderedmap.New[string, any]()
}

// Encode renders v as a literal. Supported values are nil, booleans, all
// integer and float kinds, strings, *Map, map[string]any (keys sorted),
// []any and []string. Anything else falls back to its fmt representation.
func Encode(v any) string {
	var b strings.Builder
	encode(&b, v)
	return b.String()
}

func encode(b *strings.Builder, v any) {
	switch x := v.(type) {
	case nil:
		b.WriteString("nil")
	case *Map:
		if x == nil {
			b.WriteString("nil")
			return
		}
		b.WriteByte('{')
		for pair := x.Oldest(); pair != nil; pair = pair.Next() {
			writePair(b, pair.Key, pair.Value)
		}
		b.WriteByte('}')
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for _, k := range keys {
			writePair(b, k, x[k])
		}
		b.WriteByte('}')
	case []any:
		b.WriteByte('[')
		for _, elem := range x {
			encode(b, elem)
			b.WriteByte(',')
		}
		b.WriteByte(']')
	case []string:
		b.WriteByte('[')
		for _, elem := range x {
			b.WriteString(Quote(elem))
			b.WriteByte(',')
		}
		b.WriteByte(']')
	case string:
		b.WriteString(Quote(x))
	case bool:
		b.WriteString(strconv.FormatBool(x))
	case int:
		b.WriteString(strconv.Itoa(x))
	case int8:
		b.WriteString(strconv.FormatInt(int64(x), 10))
	case int16:
		b.WriteString(strconv.FormatInt(int64(x), 10))
	case int32:
		b.WriteString(strconv.FormatInt(int64(x), 10))
	case int64:
		b.WriteString(strconv.FormatInt(x, 10))
	case uint:
		b.WriteString(strconv.FormatUint(uint64(x), 10))
	case uint8:
		b.WriteString(strconv.FormatUint(uint64(x), 10))
	case uint16:
		b.WriteString(strconv.FormatUint(uint64(x), 10))
	case uint32:
		b.WriteString(strconv.FormatUint(uint64(x), 10))
	case uint64:
		b.WriteString(strconv.FormatUint(x, 10))
	case float32:
		b.WriteString(formatFloat(float64(x), 32))
	case float64:
		b.WriteString(formatFloat(x, 64))
	default:
		fmt.Fprint(b, x)
	}
}

func writePair(b *strings.Builder, key string, value any) {
	b.WriteString(Quote(key))
	b.WriteByte('=')
	encode(b, value)
	b.WriteByte(',')
}

// formatFloat keeps a fractional marker on integral values so 2.0 is not
// read back as the integer 2.
func formatFloat(f float64, bitSize int) string {
	switch {
	case math.IsInf(f, 1):
		return "math.huge"
	case math.IsInf(f, -1):
		return "-math.huge"
	case math.IsNaN(f):
		return "(0/0)"
	}
	s := strconv.FormatFloat(f, 'g', -1, bitSize)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// Quote returns s as a double-quoted string literal. Quotes, backslashes and
// control bytes are escaped; other bytes, including multi-byte UTF-8, pass
// through unchanged.
func Quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '\a':
			b.WriteString(`\a`)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\v':
			b.WriteString(`\v`)
		default:
			if c < 0x20 || c == 0x7f {
				// Always three digits so a following digit is not absorbed.
				fmt.Fprintf(&b, `\%03d`, c)
				continue
			}
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
