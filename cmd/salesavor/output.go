package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"salesavor/internal/services"
)

const (
	ansiReset = "\x1b[0m"
	ansiBold  = "\x1b[1m"
	ansiBlue  = "\x1b[34m"
	ansiDim   = "\x1b[2m"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func renderSectionHeader(title string, colorize bool) string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	if colorize {
		line = ansiBlue + ansiBold + line + ansiReset
	}
	return line
}

func dim(text string, colorize bool) string {
	if !colorize || text == "" {
		return text
	}
	return ansiDim + text + ansiReset
}

// explain returns the line to show for a failed journey operation. Transport
// failures were already announced by the notice writer, so they yield "".
func explain(err error) string {
	switch services.Classify(err) {
	case services.FailureNone, services.FailureTransport, services.FailureStale:
		return ""
	case services.FailureAlreadyInFlight:
		return "Already in progress, try again in a moment."
	default:
		return strings.TrimPrefix(err.Error(), services.ErrInput.Error()+": ")
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
