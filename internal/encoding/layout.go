// Package encoding maps raw protocol headers to fixed-width ternary bit vectors.
//
// Every position of a vector holds 1, 0 or -1; -1 marks a bit whose field is
// not present in the packet. The width of a vector depends only on the
// protocol, never on the bytes that were encoded.
package encoding

import (
	"strconv"

	"firestige.xyz/nprint/internal/core"
)

// Field is one header field: its name, starting bit and width in bits.
type Field struct {
	Name   string `yaml:"name"`
	Offset int    `yaml:"offset"`
	Width  int    `yaml:"width"`
}

// Layout is the ordered field list of one protocol.
type Layout struct {
	Protocol core.ProtocolType `yaml:"-"`
	Fields   []Field           `yaml:"fields"`
}

type fieldSpec struct {
	name  string
	width int
}

func newLayout(p core.ProtocolType, specs ...fieldSpec) Layout {
	l := Layout{Protocol: p, Fields: make([]Field, 0, len(specs))}
	offset := 0
	for _, s := range specs {
		l.Fields = append(l.Fields, Field{Name: s.name, Offset: offset, Width: s.width})
		offset += s.width
	}
	return l
}

// Width is the sum of all field widths.
func (l Layout) Width() int {
	if len(l.Fields) == 0 {
		return 0
	}
	last := l.Fields[len(l.Fields)-1]
	return last.Offset + last.Width
}

// Field looks a field up by name.
func (l Layout) Field(name string) (Field, bool) {
	for _, f := range l.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Columns names every bit position as "<field>_<bitindex>".
func (l Layout) Columns() []string {
	return l.appendColumns(make([]string, 0, l.Width()))
}

func (l Layout) appendColumns(dst []string) []string {
	for _, f := range l.Fields {
		for i := 0; i < f.Width; i++ {
			dst = append(dst, f.Name+"_"+strconv.Itoa(i))
		}
	}
	return dst
}

// appendFieldBits unpacks the given fields from hdr, most significant bit first.
// hdr must cover every bit the fields address.
func appendFieldBits(dst []float32, hdr []byte, fields []Field) []float32 {
	for _, f := range fields {
		for pos := f.Offset; pos < f.Offset+f.Width; pos++ {
			dst = append(dst, float32((hdr[pos/8]>>(7-uint(pos%8)))&1))
		}
	}
	return dst
}

// appendBytes unpacks whole bytes, most significant bit first.
func appendBytes(dst []float32, data []byte) []float32 {
	for _, b := range data {
		for i := 7; i >= 0; i-- {
			dst = append(dst, float32((b>>uint(i))&1))
		}
	}
	return dst
}

func appendAbsent(dst []float32, n int) []float32 {
	for ; n > 0; n-- {
		dst = append(dst, Absent)
	}
	return dst
}
