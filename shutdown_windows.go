//go:build windows

package main

import (
	"os"
	"os/signal"
)

func notifyShutdown(ch chan os.Signal) {
	signal.Notify(ch, os.Interrupt)
}
