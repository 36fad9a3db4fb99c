package chatclient

import (
	"errors"
	"strings"
)

// Message — разобранная строка IRC:
//
//	[@tags ][:prefix ]COMMAND [params...] [:trailing]
type Message struct {
	Tags    map[string]string
	Prefix  string
	Command string
	Params  []string
}

var errEmptyLine = errors.New("empty line")

func ParseMessage(line string) (Message, error) {
	var m Message
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return m, errEmptyLine
	}

	if strings.HasPrefix(line, "@") {
		raw, rest, _ := strings.Cut(line[1:], " ")
		m.Tags = parseTags(raw)
		line = strings.TrimLeft(rest, " ")
	}
	if strings.HasPrefix(line, ":") {
		m.Prefix, line, _ = strings.Cut(line[1:], " ")
		line = strings.TrimLeft(line, " ")
	}

	cmd, rest, _ := strings.Cut(line, " ")
	if cmd == "" {
		return m, errors.New("missing command")
	}
	m.Command = strings.ToUpper(cmd)

	for rest != "" {
		rest = strings.TrimLeft(rest, " ")
		if rest == "" {
			break
		}
		if rest[0] == ':' {
			m.Params = append(m.Params, rest[1:])
			break
		}
		var p string
		p, rest, _ = strings.Cut(rest, " ")
		m.Params = append(m.Params, p)
	}
	return m, nil
}

func parseTags(raw string) map[string]string {
	tags := make(map[string]string)
	for _, kv := range strings.Split(raw, ";") {
		if kv == "" {
			continue
		}
		k, v, _ := strings.Cut(kv, "=")
		tags[k] = v
	}
	return tags
}

// Nick — ник из префикса nick!ident@host.
func (m Message) Nick() string {
	if i := strings.IndexByte(m.Prefix, '!'); i >= 0 {
		return m.Prefix[:i]
	}
	return ""
}

// Trailing — последний параметр (обычно текст после " :").
func (m Message) Trailing() string {
	if len(m.Params) > 0 {
		return m.Params[len(m.Params)-1]
	}
	return ""
}

// Param возвращает i-й параметр или "".
func (m Message) Param(i int) string {
	if i >= 0 && i < len(m.Params) {
		return m.Params[i]
	}
	return ""
}

// ChatMessage распознаёт ":nick!ident@host PRIVMSG #chan :text".
func (m Message) ChatMessage() (sender, channel, text string, ok bool) {
	if m.Command != "PRIVMSG" || len(m.Params) < 2 {
		return "", "", "", false
	}
	channel = m.Params[0]
	if !strings.HasPrefix(channel, "#") {
		return "", "", "", false
	}
	sender = m.Nick()
	if !validNick(sender) {
		return "", "", "", false
	}
	text = m.Trailing()
	if text == "" {
		return "", "", "", false
	}
	return sender, strings.TrimPrefix(channel, "#"), text, true
}

func validNick(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}
	return true
}

// служебные строки, которые не несут сообщений
var noiseCommands = map[string]struct{}{
	"001": {}, "002": {}, "003": {}, "004": {},
	"353": {}, "366": {}, "372": {}, "375": {}, "376": {},
	"JOIN": {}, "PART": {},
	"ROOMSTATE": {}, "USERSTATE": {}, "GLOBALUSERSTATE": {},
}

func isNoise(cmd string) bool {
	_, ok := noiseCommands[cmd]
	return ok
}
