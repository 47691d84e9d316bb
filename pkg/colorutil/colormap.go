// Package colorutil provides the deterministic track colormap. Every
// track id maps to the same color in every session, so tracks keep a
// recognizable color across re-solves as long as their id is stable.
package colorutil

import (
	"math"

	"github.com/AnniekStok/track-curator/pkg/model"
)

// goldenAngle spaces consecutive hues maximally apart, so neighboring
// track ids get clearly distinct colors.
const goldenAngle = 137.50776405003785

// TrackColor maps a track id to its RGBA display color.
func TrackColor(trackID int) model.RGBA {
	hue := math.Mod(float64(trackID)*goldenAngle, 360)

	// Cycle saturation and value in small steps so ids that land on
	// similar hues still differ.
	sat := 0.65 + 0.25*float64(trackID%3)/2
	val := 0.75 + 0.20*float64(trackID%2)

	r, g, b := hsvToRGB(hue, sat, val)
	return model.RGBA{R: r, G: g, B: b, A: 255}
}

// hsvToRGB converts HSV (H 0-360, S and V 0-1) to 8-bit RGB.
func hsvToRGB(h, s, v float64) (uint8, uint8, uint8) {
	c := v * s
	x := c * (1 - math.Abs(math.Mod(h/60, 2)-1))
	m := v - c

	var r, g, b float64
	switch {
	case h < 60:
		r, g, b = c, x, 0
	case h < 120:
		r, g, b = x, c, 0
	case h < 180:
		r, g, b = 0, c, x
	case h < 240:
		r, g, b = 0, x, c
	case h < 300:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}

	return uint8((r + m) * 255), uint8((g + m) * 255), uint8((b + m) * 255)
}
