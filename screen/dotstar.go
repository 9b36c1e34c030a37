package screen

import (
	"fmt"
	"image"

	"github.com/goiot/devices/dotstar"
	"golang.org/x/exp/io/spi"
)

// dotstarBrightness is the 5-bit global brightness sent with every pixel.
// The prototype panel is uncomfortably bright above this.
const dotstarBrightness = 5

// Dotstar drives the first prototype of the panel, which was built from
// dotstar strips and talks through the x/exp spi driver instead of periph.
// Same chain layout as Screen, no web preview.
type Dotstar struct {
	leds *dotstar.LEDs
}

// NewDotstar opens the prototype panel on the named spidev device.
func NewDotstar(dev string) (*Dotstar, error) {
	d, err := dotstar.Open(&spi.Devfs{Dev: dev, Mode: spi.Mode3}, Width*Height)
	if err != nil {
		return nil, fmt.Errorf("open dotstar: %w", err)
	}
	return &Dotstar{leds: d}, nil
}

// Display displays the provided image on the strip.
func (d *Dotstar) Display(img image.Image) error {
	for x := 0; x < Width; x++ {
		for y := 0; y < Height; y++ {
			c := colorCorrect(img.At(x, y))
			d.leds.SetRGBA(indexOf(x, y), dotstar.RGBA{R: c.R, G: c.G, B: c.B, A: dotstarBrightness})
		}
	}
	if err := d.leds.Draw(); err != nil {
		return fmt.Errorf("draw dotstar strip: %w", err)
	}
	return nil
}

// Blank blanks the strip.
func (d *Dotstar) Blank() error {
	for i := 0; i < Width*Height; i++ {
		d.leds.SetRGBA(i, dotstar.RGBA{})
	}
	if err := d.leds.Draw(); err != nil {
		return fmt.Errorf("blank dotstar strip: %w", err)
	}
	return nil
}
