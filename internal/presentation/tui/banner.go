package tui

import (
	"fmt"

	"github.com/muesli/termenv"
)

// PrintBanner outputs the ASCII art banner for Cadence with the running
// version.
func PrintBanner(version string) {
	p := termenv.ColorProfile()
	// Subtle gradient from indigo toward rose.
	s1 := termenv.String("   _____          _                      ").Foreground(p.Color("#818cf8"))
	s2 := termenv.String("  / ____|        | |                     ").Foreground(p.Color("#a78bfa"))
	s3 := termenv.String(" | |     __ _  __| | ___ _ __   ___ ___  ").Foreground(p.Color("#c084fc"))
	s4 := termenv.String(" | |    / _` |/ _` |/ _ \\ '_ \\ / __/ _ \\ ").Foreground(p.Color("#e879f9"))
	s5 := termenv.String(" | |___| (_| | (_| |  __/ | | | (_|  __/ ").Foreground(p.Color("#f472b6"))
	s6 := termenv.String("  \\_____\\__,_|\\__,_|\\___|_| |_|\\___\\___| ").Foreground(p.Color("#fb7185"))

	fmt.Println()
	fmt.Println(s1)
	fmt.Println(s2)
	fmt.Println(s3)
	fmt.Println(s4)
	fmt.Println(s5)
	fmt.Println(s6)
	fmt.Println(termenv.String("  v" + version).Foreground(p.Color("#94a3b8")).Faint())
	fmt.Println()
}
