package main

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

type switchMode string

const (
	modeAuto switchMode = "auto"
	modeOn   switchMode = "on"
	modeOff  switchMode = "off"
)

// readSwitch parses an auto|on|off flag value.
func readSwitch(flag, value string) (switchMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return modeAuto, nil
	case "on":
		return modeOn, nil
	case "off":
		return modeOff, nil
	default:
		return "", fmt.Errorf("invalid --%s value %q (expected auto|on|off)", flag, value)
	}
}

// shouldUseTUI: bubbletea нужен полноценный терминал, cygwin pty не подходит.
func shouldUseTUI(mode switchMode, quiet bool) bool {
	switch mode {
	case modeOn:
		return true
	case modeOff:
		return false
	default:
		return !quiet && term.IsTerminal(int(os.Stdout.Fd()))
	}
}

func shouldUseColor(mode switchMode, f *os.File) bool {
	switch mode {
	case modeOn:
		return true
	case modeOff:
		return false
	default:
		return os.Getenv("NO_COLOR") == "" && isTerminal(f)
	}
}
