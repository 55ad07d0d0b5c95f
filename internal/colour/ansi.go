package colour

import (
	"fmt"
	"strings"
)

// ANSI escape codes for terminal colours.
const (
	ansiReset    = "\033[0m"
	ansiFgPrefix = "\033[38;2;"
	ansiBgPrefix = "\033[48;2;"
	ansiSuffix   = "m"
	defaultWidth = 8

	// upperHalfBlock paints the top half of a cell in the foreground colour.
	upperHalfBlock = "▀"
)

// ColourPreview returns an ANSI-coloured preview string for a colour.
// Width specifies how many characters wide the colour block should be.
// Uses background colour with spaces for a solid block.
func ColourPreview(c RGB, width int) string {
	if width <= 0 {
		width = defaultWidth
	}

	bgColour := fmt.Sprintf("%s%d;%d;%d%s", ansiBgPrefix, c.R, c.G, c.B, ansiSuffix)
	return bgColour + strings.Repeat(" ", width) + ansiReset
}

// FormatColourWithPreview formats a colour with its preview and hex code.
func FormatColourWithPreview(rgb RGB, width int) string {
	return fmt.Sprintf("%s %s", ColourPreview(rgb, width), rgb.Hex())
}

// HalfBlock renders two vertically stacked colours in one terminal cell.
// The escape sequence is not reset, so callers append ResetSequence at the
// end of a line.
func HalfBlock(top, bottom RGB) string {
	return fmt.Sprintf("%s%d;%d;%d%s%s%d;%d;%d%s%s",
		ansiFgPrefix, top.R, top.G, top.B, ansiSuffix,
		ansiBgPrefix, bottom.R, bottom.G, bottom.B, ansiSuffix,
		upperHalfBlock)
}

// ResetSequence returns the ANSI sequence restoring default attributes.
func ResetSequence() string {
	return ansiReset
}
