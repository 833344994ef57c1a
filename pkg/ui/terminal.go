package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Banner is printed once at startup
const Banner = `
    ╔════════════════════════════════════════════╗
    ║                                            ║
    ║  M E D I A F E T C H                       ║
    ║  resumable bulk video fetcher              ║
    ║                                            ║
    ╚════════════════════════════════════════════╝
`

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// Output receives everything the console helpers print.
var Output io.Writer = os.Stdout

func colorize(colorString string) func(string) string {
	return func(text string) string {
		return fmt.Sprintf(colorString, text)
	}
}

// PrintBanner prints the banner and the run header.
func PrintBanner(source, folder, skipSequence string, keyboard bool) {
	fmt.Fprint(Output, Cyan(Banner))
	PrintInfo("Source", source)
	PrintInfo("Download folder", folder)
	if keyboard && skipSequence != "" {
		fmt.Fprintf(Output, "%s\n", Dim(fmt.Sprintf("Type '%s' to skip the current download, Ctrl+C to stop", skipSequence)))
	}
	fmt.Fprintln(Output, Dim(strings.Repeat("-", 50)))
}

// PrintError prints an error message in red
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(Output, Red(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(Output, Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	fmt.Fprintln(Output, Green(msg))
}

// PrintInfo prints a label and value
func PrintInfo(label string, value string) {
	fmt.Fprintf(Output, "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if len(args) > 0 {
		fmt.Fprintln(Output, Yellow(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(Output, Yellow(msg))
	}
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	fmt.Fprintln(Output, Magenta(msg))
}
