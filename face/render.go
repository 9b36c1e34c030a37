// Package face turns the current time into the image shown on the front of
// the clock: the Viennese phrase for the time, centered over an optional
// monthly background, dimmed at night.
package face

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Background images follow the original build's naming scheme,
// "<month>_8bit.bmp", with German month names.
var monthFiles = [...]string{
	"januar", "februar", "maerz", "april", "mai", "juni",
	"juli", "august", "september", "oktober", "november", "dezember",
}

// Renderer draws phrase lines onto a canvas sized for the display.
type Renderer struct {
	Width, Height int

	// BackgroundDir holds one 8-bit BMP per month; empty disables
	// backgrounds.
	BackgroundDir string

	// Night runs from NightStart through midnight to NightEnd.  During the
	// night the whole face is dimmed to NightBrightness instead of
	// DayBrightness.
	NightStart, NightEnd           int
	DayBrightness, NightBrightness float64

	// LineHeight is the vertical pitch of the text lines, in pixels.
	LineHeight int

	backgrounds map[time.Month]image.Image
	bgErrs      map[time.Month]bool
}

// NewRenderer returns a Renderer for a w x h canvas with the brightness
// schedule the clock has always used: dim from 16:00 to 08:00.
func NewRenderer(w, h int) *Renderer {
	return &Renderer{
		Width:           w,
		Height:          h,
		NightStart:      16,
		NightEnd:        8,
		DayBrightness:   0.3,
		NightBrightness: 0.15,
		LineHeight:      textFace.Height - 2,
	}
}

// dimFor returns the brightness factor for the given hour.
func (r *Renderer) dimFor(hour int) float64 {
	if hour >= r.NightStart || hour < r.NightEnd {
		return r.NightBrightness
	}
	return r.DayBrightness
}

// background returns the (cached) background image for the month, scaled to
// the canvas, or nil if there is none.  A file that fails to load is only
// complained about once.
func (r *Renderer) background(m time.Month) image.Image {
	if r.BackgroundDir == "" {
		return nil
	}
	if img, ok := r.backgrounds[m]; ok {
		return img
	}
	if r.bgErrs[m] {
		return nil
	}
	img, err := r.loadBackground(m)
	if err != nil {
		if r.bgErrs == nil {
			r.bgErrs = make(map[time.Month]bool)
		}
		r.bgErrs[m] = true
		return nil
	}
	if r.backgrounds == nil {
		r.backgrounds = make(map[time.Month]image.Image)
	}
	r.backgrounds[m] = img
	return img
}

func (r *Renderer) loadBackground(m time.Month) (image.Image, error) {
	path := filepath.Join(r.BackgroundDir, fmt.Sprintf("%s_8bit.bmp", monthFiles[m-1]))
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open background: %w", err)
	}
	defer f.Close()
	src, err := bmp.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	scaled := image.NewNRGBA64(image.Rect(0, 0, r.Width, r.Height))
	xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return scaled, nil
}

// Render draws the phrase lines for time t.  Lines are centered horizontally
// and the block of lines is centered vertically; text and background are
// dimmed according to the day/night schedule.  Rendering is pure: identical
// inputs produce identical images.
func (r *Renderer) Render(t time.Time, lines []string) *image.NRGBA64 {
	img := image.NewNRGBA64(image.Rect(0, 0, r.Width, r.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.NRGBA64{A: 0xffff}), image.Point{}, draw.Src)

	dim := r.dimFor(t.Hour())
	if bg := r.background(t.Month()); bg != nil {
		mask := image.NewUniform(color.Alpha16{A: uint16(dim * 0xffff)})
		draw.DrawMask(img, img.Bounds(), bg, image.Point{}, mask, image.Point{}, draw.Over)
	}

	face := textFace
	v := uint16(dim * 0xffff)
	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.NRGBA64{R: v, G: v, B: v, A: 0xffff}),
		Face: face,
	}
	top := (r.Height - len(lines)*r.LineHeight) / 2
	if top < 0 {
		top = 0
	}
	for i, line := range lines {
		w := font.MeasureString(face, line).Ceil()
		x := (r.Width - w) / 2
		if x < 0 {
			x = 0
		}
		drawer.Dot = fixed.P(x, top+i*r.LineHeight+face.Ascent)
		drawer.DrawString(line)
	}
	return img
}
