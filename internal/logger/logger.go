package logger

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
	colorBold   = "\033[1m"
)

var useColor = isatty.IsTerminal(os.Stdout.Fd())

func paint(color, s string) string {
	if !useColor {
		return s
	}
	return color + s + colorReset
}

// Info prints an informational line with a tag.
func Info(tag, msg string) {
	fmt.Printf("%s %s\n", paint(colorCyan, "["+tag+"]"), msg)
}

// Success prints a success line with a tag.
func Success(tag, msg string) {
	fmt.Printf("%s %s\n", paint(colorGreen, "["+tag+"]"), msg)
}

// Warn prints a warning line with a tag.
func Warn(tag, msg string) {
	fmt.Printf("%s %s\n", paint(colorYellow, "["+tag+"]"), msg)
}

// Error prints an error line with a tag.
func Error(tag, msg string) {
	fmt.Printf("%s %s\n", paint(colorRed, "["+tag+"]"), msg)
}

// Banner prints the startup banner.
func Banner(version string) {
	if version == "" {
		version = "dev"
	}
	fmt.Println(paint(colorBold, "FFUniverse market watcher "+version))
}

// Section prints a section divider with a title.
func Section(title string) {
	fmt.Printf("%s %s\n", paint(colorGray, "──"), paint(colorBold, title))
}

// Stats prints a single labeled statistic under a section.
func Stats(label string, value int) {
	fmt.Printf("   %-18s %d\n", label, value)
}
