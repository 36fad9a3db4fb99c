//go:build !windows

package main

import (
	"os"

	"golang.org/x/sys/unix"
)

var exitSignals = []os.Signal{unix.SIGINT, unix.SIGTERM, unix.SIGHUP}
