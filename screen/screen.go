// Package screen draws images to the word clock's LED panel, and retains
// them for debugging the rest of the program without the panel attached.
package screen

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"math"
	"net/http"
	"sync"

	"periph.io/x/periph/conn/spi"
	"periph.io/x/periph/devices/apa102"
)

const (
	// The panel is a 6x3 grid of 16x16 APA102 tiles, giving a 96x48 canvas:
	// wide enough for "dreiviertel" and tall enough for four lines of text.
	Width  = 96
	Height = 48

	panelSize = 16
	panelsX   = Width / panelSize
	panelsY   = Height / panelSize

	previewScale        = 8 // Size of one pixel in the rendered preview.
	previewPixelBorder  = 2 // Border around right and bottom of pixel, to simulate pixel spacing.
	previewPanelSpacing = 8 // Border between panels.

	idlePower  = 0.00109 * 5 * Width * Height // W
	powerLimit = 40                           // W
)

// Screen represents the particular panel I built for this project: a chain
// of 16x16 APA102 tiles.  Tile 0 is top-left; tiles run left to right on
// even tile rows and right to left on odd rows, because the odd rows are
// mounted upside down to keep the wiring short.  Within a tile the strip is
// column-major from the tile's own top-left corner.
//
// The power supply cannot feed every LED at full white (that would be north
// of a kilowatt), so we "current limit" the display by scaling whole frames
// down to a fixed power budget.
type Screen struct {
	leds *apa102.Dev

	imageMu sync.Mutex
	image   *image.NRGBA64 // must hold imageMu to read or write.
}

// NewScreen returns an initialized Screen object.  A nil port gives a
// detached screen that only renders the web preview.
func NewScreen(p spi.Port) (*Screen, error) {
	s := &Screen{
		image: image.NewNRGBA64(image.Rect(0, 0,
			(panelsX-1)*previewPanelSpacing+Width*(previewScale+previewPixelBorder),
			(panelsY-1)*previewPanelSpacing+Height*(previewScale+previewPixelBorder))),
	}
	if p == nil {
		return s, nil
	}
	opts := &apa102.Opts{
		NumPixels:        Width * Height,
		Intensity:        255,
		Temperature:      apa102.NeutralTemp,
		DisableGlobalPWM: true,
	}
	leds, err := apa102.New(p, opts)
	if err != nil {
		return nil, fmt.Errorf("init apa102: %w", err)
	}
	s.leds = leds
	return s, nil
}

// Blank blanks the screen.
func (s *Screen) Blank() error {
	if err := s.Display(image.Black); err != nil {
		return fmt.Errorf("blank display: %w", err)
	}
	return nil
}

// ServeHTTP serves the current image as a PNG.
func (s *Screen) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	w.Header().Add("content-type", "image/png")
	w.WriteHeader(http.StatusOK)
	s.imageMu.Lock()
	defer s.imageMu.Unlock()
	if err := png.Encode(w, s.image); err != nil {
		log.Printf("encoding image: %v", err)
	}
}

// updateCurrentImage updates the image data that will be returned via the
// web interface.
func (s *Screen) updateCurrentImage(img image.Image) {
	s.imageMu.Lock()
	defer s.imageMu.Unlock()
	scale := previewPixelBorder + previewScale
	for x := 0; x < Width; x++ {
		for y := 0; y < Height; y++ {
			r, g, b, a := img.At(x, y).RGBA()
			c := color.RGBA64{R: uint16(r), G: uint16(g), B: uint16(b), A: uint16(a)}
			xOff := (x / panelSize) * previewPanelSpacing
			yOff := (y / panelSize) * previewPanelSpacing
			for destX := xOff + scale*x; destX < xOff+scale*(x+1)-previewPixelBorder; destX++ {
				for destY := yOff + scale*y; destY < yOff+scale*(y+1)-previewPixelBorder; destY++ {
					s.image.Set(destX, destY, c)
				}
			}
		}
	}
}

// indexOf maps an (x,y) coordinate to the strand index of my particular
// panel chain.
func indexOf(x, y int) int {
	tileX, tileY := x/panelSize, y/panelSize
	lx, ly := x%panelSize, y%panelSize
	var tile int
	if tileY%2 == 0 {
		tile = tileY*panelsX + tileX
	} else {
		// Odd tile rows run right to left and the tiles hang upside down.
		tile = tileY*panelsX + (panelsX - 1 - tileX)
		lx, ly = panelSize-1-lx, panelSize-1-ly
	}
	return tile*panelSize*panelSize + lx*panelSize + ly
}

// powerFor returns the number of watts that displaying color c on one pixel
// will use.
//
// The full-off current of 1.09mA per pixel is not included here; toMatrix
// accounts for it across the whole strand as idlePower.
func powerFor(c color.Color) float64 {
	// The datasheet says we'll use a maximum of 60mA per pixel, so we assume
	// that displaying the brightest red + blue + green is what causes that
	// to happen.
	r, g, b, _ := c.RGBA()
	return .02 * 5 * (float64(r)/0xffff + float64(g)/0xffff + float64(b)/0xffff)
}

func gamma(c uint32) uint8 {
	u := float64(c) / 0xffff
	return uint8(255 * math.Pow((u+0.055)/(1.055), 2.4))
}

// colorCorrect maps a color.Color to the device color.  The tiles all came
// from the same batch, so one gamma curve covers everything.
func colorCorrect(c color.Color) color.NRGBA {
	r, g, b, _ := c.RGBA()
	return color.NRGBA{
		R: gamma(r),
		G: gamma(g),
		B: gamma(b),
		A: 0xff,
	}
}

// toMatrix takes a Width x Height image and converts it to a slice of colors
// to send to the apa102 strand.
//
// We use this opportunity to globally reduce the brightness of the display
// to stay within a pre-set power budget.  We do the transformation as a
// linear operation on Rec709 colors, which is probably a bad algorithm.
// Input pixels are 64-bit Rec709 colors, output pixels are device-native
// 24-bit colors.
func toMatrix(img image.Image) []color.NRGBA {
	result := make([]color.NRGBA, Width*Height)

	// Calculate how much power displaying this image will use.
	var power float64
	for x := 0; x < Width; x++ {
		for y := 0; y < Height; y++ {
			power += powerFor(img.At(x, y))
		}
	}

	// The strand draws idlePower even when fully dark, so only the
	// remainder of the budget is available for lit pixels.  Scale every
	// pixel down by a constant factor to stay inside it.
	budget := powerLimit - idlePower
	scale := float64(1)
	if power > budget {
		scale = budget / power
	}
	for x := 0; x < Width; x++ {
		for y := 0; y < Height; y++ {
			r, g, b, _ := img.At(x, y).RGBA()
			result[indexOf(x, y)] = colorCorrect(color.NRGBA64{
				R: uint16(scale * float64(r)),
				G: uint16(scale * float64(g)),
				B: uint16(scale * float64(b)),
				A: 0xffff,
			})
		}
	}
	return result
}

// Display displays the provided image on the screen.  Redrawing an identical
// image is safe; the strand just latches the same data again.
func (s *Screen) Display(img image.Image) error {
	s.updateCurrentImage(img)
	if s.leds == nil {
		return nil
	}
	if _, err := s.leds.Write(apa102.ToRGB(toMatrix(img))); err != nil {
		return fmt.Errorf("write to apa102 strand: %w", err)
	}
	return nil
}
