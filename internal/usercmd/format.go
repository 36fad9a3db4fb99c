// Package usercmd — команды, которые модераторы создают прямо из чата:
// ответ по шаблону с подстановкой аргументов, хранение в commands.json.
package usercmd

import (
	"regexp"
	"strconv"
	"strings"
)

// $n или {$n}; $0 — ник отправителя, $k — k-й токен команды (args[k])
var argPattern = regexp.MustCompile(`\{\$([0-9]+)\}|\$([0-9]+)`)

type part struct {
	text  string
	index int // -1 — обычный текст, -2 — неразбираемый индекс
}

// Formatter — разобранный шаблон ответа.
type Formatter struct {
	parts []part
}

func ParseFormat(format string) Formatter {
	var f Formatter
	last := 0
	for _, m := range argPattern.FindAllStringSubmatchIndex(format, -1) {
		if m[0] > last {
			f.parts = append(f.parts, part{text: format[last:m[0]], index: -1})
		}
		digits := ""
		if m[2] >= 0 {
			digits = format[m[2]:m[3]]
		} else {
			digits = format[m[4]:m[5]]
		}
		idx, err := strconv.Atoi(digits)
		if err != nil {
			idx = -2
		}
		f.parts = append(f.parts, part{index: idx})
		last = m[1]
	}
	if last < len(format) {
		f.parts = append(f.parts, part{text: format[last:], index: -1})
	}
	return f
}

// Format подставляет аргументы. false — индекс вне args (или не число):
// команда использована неправильно.
func (f Formatter) Format(sender string, args []string) (string, bool) {
	var b strings.Builder
	for _, p := range f.parts {
		switch {
		case p.index == -1:
			b.WriteString(p.text)
		case p.index == -2:
			return "", false
		case p.index == 0:
			b.WriteString(sender)
		case p.index >= len(args):
			return "", false
		default:
			b.WriteString(args[p.index])
		}
	}
	return b.String(), true
}
