//go:build !windows

package main

import (
	"os"
	"os/signal"
	"syscall"
)

func notifyShutdown(ch chan os.Signal) {
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
}
