package interp

import (
	"strings"

	"github.com/yelongll/rust/pkg/compiler"
)

// Display renders v the way 打印 prints it: strings are written raw.
func Display(v Value) string {
	var sb strings.Builder
	render(&sb, v, false)
	return sb.String()
}

// Repr renders v with strings quoted, as they appear inside arrays.
func Repr(v Value) string {
	var sb strings.Builder
	render(&sb, v, true)
	return sb.String()
}

func render(sb *strings.Builder, v Value, quoted bool) {
	switch v := v.(type) {
	case Number:
		sb.WriteString(compiler.FormatNumber(float64(v)))
	case String:
		if quoted {
			quote(sb, string(v))
		} else {
			sb.WriteString(string(v))
		}
	case Bool:
		if v {
			sb.WriteString("true")
		} else {
			sb.WriteString("false")
		}
	case Array:
		sb.WriteByte('[')
		for i, el := range v {
			if i > 0 {
				sb.WriteString(", ")
			}
			render(sb, el, true)
		}
		sb.WriteByte(']')
	case *Function:
		sb.WriteString("[函数]")
	case *Builtin:
		sb.WriteString("[内置函数: " + v.Name + "]")
	default:
		sb.WriteString("空")
	}
}

func quote(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
}
