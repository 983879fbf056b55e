package codec

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// Sprint renders v in a compact, human readable form. A composite that
// is reached again while it is being printed is shown as "^kind".
func Sprint(v Value) string {
	var sb strings.Builder
	p := printer{sb: &sb, open: make(map[any]bool)}
	p.print(v)
	return sb.String()
}

type printer struct {
	sb   *strings.Builder
	open map[any]bool
}

func (p *printer) enter(ptr any) bool {
	if p.open[ptr] {
		p.sb.WriteString("^" + KindOf(ptr).String())
		return false
	}
	p.open[ptr] = true
	return true
}

func (p *printer) print(v Value) {
	switch v := v.(type) {
	case nil:
		p.sb.WriteString("nil")
	case bool:
		p.sb.WriteString(strconv.FormatBool(v))
	case int64:
		p.sb.WriteString(strconv.FormatInt(v, 10))
	case *big.Int:
		p.sb.WriteString(v.String())
	case float64:
		p.sb.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	case string:
		p.sb.WriteString(strconv.Quote(v))
	case Symbol:
		p.sb.WriteString(":" + string(v))
	case time.Time:
		p.sb.WriteString(v.Format(time.RFC3339Nano))
	case Date:
		p.sb.WriteString(v.String())
	case *Pattern:
		p.sb.WriteString(v.String())
	case *Range:
		p.print(v.Begin)
		if v.ExcludeEnd {
			p.sb.WriteString("...")
		} else {
			p.sb.WriteString("..")
		}
		p.print(v.End)
	case *List:
		if !p.enter(v) {
			return
		}
		p.sb.WriteByte('[')
		for i, item := range v.Items {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			p.print(item)
		}
		p.sb.WriteByte(']')
		delete(p.open, v)
	case *Map:
		if !p.enter(v) {
			return
		}
		p.sb.WriteByte('{')
		for i, e := range v.Entries {
			if i > 0 {
				p.sb.WriteString(", ")
			}
			p.print(e.Key)
			p.sb.WriteString(" => ")
			p.print(e.Value)
		}
		p.sb.WriteByte('}')
		delete(p.open, v)
	case *Record:
		if !p.enter(v) {
			return
		}
		name := "?"
		if v.Class != nil {
			name = v.Class.Name
		}
		p.sb.WriteString("#<" + name)
		for _, f := range v.Fields {
			p.sb.WriteString(" " + f.Name + "=")
			p.print(f.Value)
		}
		p.sb.WriteByte('>')
		delete(p.open, v)
	default:
		fmt.Fprintf(p.sb, "%v", v)
	}
}
