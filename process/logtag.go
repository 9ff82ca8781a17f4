package process

import (
	"github.com/Moonlight-Companies/gologger/coloransi"
)

// LogTag builds the tag a component logs under, coloured unless color is
// false.
func LogTag(name string, color bool) string {
	if !color {
		return name
	}
	return coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, name)
}
