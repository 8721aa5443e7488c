package convert

import (
	"fmt"
	"strings"
)

var directives = map[byte]string{
	'Y': "2006",
	'y': "06",
	'm': "01",
	'd': "02",
	'e': "_2",
	'H': "15",
	'I': "03",
	'M': "04",
	'S': "05",
	'f': "000000",
	'p': "PM",
	'b': "Jan",
	'h': "Jan",
	'B': "January",
	'a': "Mon",
	'A': "Monday",
	'j': "002",
	'z': "-0700",
	'Z': "MST",
	'%': "%",
}

// Layout translates a strftime format such as "%m/%d/%Y" into a Go time layout.
func Layout(format string) (string, error) {
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(format) {
			return "", fmt.Errorf("format %q ends with a bare %%", format)
		}
		i++
		l, ok := directives[format[i]]
		if !ok {
			return "", fmt.Errorf("format %q: unsupported directive %%%c", format, format[i])
		}
		b.WriteString(l)
	}
	return b.String(), nil
}
