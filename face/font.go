package face

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font/basicfont"
)

// textFace is basicfont.Face7x13 extended with the Latin-1 letters the
// phrase vocabulary uses.  Face7x13 alone covers only ASCII, which would
// leave "Zwölf" and "fünf" drawing the replacement glyph.
var textFace = extendFace7x13()

// extraGlyphs holds one 6x13 bitmap per added rune, drawn to match the
// fixed 7x13 shapes: x-height letters sit on rows 4-10, capitals on rows
// 2-10 with the diaeresis squeezed into rows 0-1.
var extraGlyphs = []struct {
	r    rune
	rows [13]string
}{
	{'Ä', [13]string{
		" X  X ",
		"      ",
		"  X   ",
		" X X  ",
		"X   X ",
		"X   X ",
		"XXXXX ",
		"X   X ",
		"X   X ",
		"X   X ",
		"X   X ",
		"      ",
		"      ",
	}},
	{'Ö', [13]string{
		" X  X ",
		"      ",
		" XXX  ",
		"X   X ",
		"X   X ",
		"X   X ",
		"X   X ",
		"X   X ",
		"X   X ",
		"X   X ",
		" XXX  ",
		"      ",
		"      ",
	}},
	{'Ü', [13]string{
		" X  X ",
		"      ",
		"X   X ",
		"X   X ",
		"X   X ",
		"X   X ",
		"X   X ",
		"X   X ",
		"X   X ",
		"X   X ",
		" XXX  ",
		"      ",
		"      ",
	}},
	{'ß', [13]string{
		"      ",
		" XXX  ",
		"X   X ",
		"X   X ",
		"X  X  ",
		"X XX  ",
		"X   X ",
		"X   X ",
		"X   X ",
		"X   X ",
		"X XX  ",
		"      ",
		"      ",
	}},
	{'ä', [13]string{
		"      ",
		"      ",
		" X  X ",
		"      ",
		" XXX  ",
		"    X ",
		" XXXX ",
		"X   X ",
		"X   X ",
		"X  XX ",
		" XX X ",
		"      ",
		"      ",
	}},
	{'ö', [13]string{
		"      ",
		"      ",
		" X  X ",
		"      ",
		" XXX  ",
		"X   X ",
		"X   X ",
		"X   X ",
		"X   X ",
		"X   X ",
		" XXX  ",
		"      ",
		"      ",
	}},
	{'ü', [13]string{
		"      ",
		"      ",
		" X  X ",
		"      ",
		"X   X ",
		"X   X ",
		"X   X ",
		"X   X ",
		"X   X ",
		"X  XX ",
		" XX X ",
		"      ",
		"      ",
	}},
}

// extendFace7x13 copies Face7x13 and appends the extra glyphs to its mask
// and rune ranges.
func extendFace7x13() *basicfont.Face {
	base := basicfont.Face7x13
	stride := base.Ascent + base.Descent
	baseGlyphs := base.Mask.Bounds().Dy() / stride

	mask := image.NewAlpha(image.Rect(0, 0, base.Width, (baseGlyphs+len(extraGlyphs))*stride))
	draw.Draw(mask, base.Mask.Bounds(), base.Mask, base.Mask.Bounds().Min, draw.Src)

	ranges := append([]basicfont.Range{}, base.Ranges...)
	for i, g := range extraGlyphs {
		off := baseGlyphs + i
		for y, row := range g.rows {
			for x, c := range row {
				if c != ' ' {
					mask.SetAlpha(x, off*stride+y, color.Alpha{A: 0xff})
				}
			}
		}
		ranges = append(ranges, basicfont.Range{Low: g.r, High: g.r + 1, Offset: off})
	}

	extended := *base
	extended.Mask = mask
	extended.Ranges = ranges
	return &extended
}
