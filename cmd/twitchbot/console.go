package main

import (
	"bufio"
	"context"
	"io"
	"strings"
)

type messageSender interface {
	SendMessage(text string)
}

// runConsole отправляет строки из терминала в чат. "/quit" останавливает бота.
func runConsole(in io.Reader, chat messageSender, quit context.CancelFunc) {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case line == "":
		case line == "/quit":
			quit()
			return
		default:
			chat.SendMessage(line)
		}
	}
}
