//go:build windows

package main

import (
	"os"

	"golang.org/x/sys/windows"
)

// на Windows Go доставляет Ctrl+C и закрытие консоли как SIGINT/SIGTERM
var exitSignals = []os.Signal{windows.SIGINT, windows.SIGTERM}
