package face

import (
	"fmt"
	"image"
	"reflect"
	"testing"
	"time"

	"golang.org/x/net/trace"
)

// litBounds returns the bounding box of the non-black pixels, and whether
// there are any.
func litBounds(img *image.NRGBA64) (image.Rectangle, bool) {
	var box image.Rectangle
	found := false
	b := img.Bounds()
	for x := b.Min.X; x < b.Max.X; x++ {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			if r == 0 && g == 0 && bl == 0 {
				continue
			}
			p := image.Rect(x, y, x+1, y+1)
			if !found {
				box, found = p, true
			} else {
				box = box.Union(p)
			}
		}
	}
	return box, found
}

func maxChannel(img *image.NRGBA64) uint32 {
	var max uint32
	b := img.Bounds()
	for x := b.Min.X; x < b.Max.X; x++ {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			r, _, _, _ := img.At(x, y).RGBA()
			if r > max {
				max = r
			}
		}
	}
	return max
}

func TestRenderCentersText(t *testing.T) {
	r := NewRenderer(96, 48)
	noon := time.Date(2025, 11, 16, 12, 0, 0, 0, time.Local)
	img := r.Render(noon, []string{"Es ist", "punkt", "Zwölf"})

	box, ok := litBounds(img)
	if !ok {
		t.Fatal("nothing was drawn")
	}
	if center := (box.Min.X + box.Max.X) / 2; center < 44 || center > 52 {
		t.Errorf("text not horizontally centered: bounds %v, center %d", box, center)
	}
	if center := (box.Min.Y + box.Max.Y) / 2; center < 20 || center > 28 {
		t.Errorf("text not vertically centered: bounds %v, center %d", box, center)
	}
}

func TestRenderIsPure(t *testing.T) {
	r := NewRenderer(96, 48)
	at := time.Date(2025, 11, 16, 14, 15, 0, 0, time.Local)
	lines := []string{"Es ist", "viertel", "Drei"}
	a := r.Render(at, lines)
	b := r.Render(at, lines)
	if !reflect.DeepEqual(a.Pix, b.Pix) {
		t.Error("two renders of the same input differ")
	}
}

func TestRenderDimsAtNight(t *testing.T) {
	r := NewRenderer(96, 48)
	lines := []string{"Es ist", "punkt", "Acht"}
	day := r.Render(time.Date(2025, 11, 16, 12, 0, 0, 0, time.Local), lines)
	night := r.Render(time.Date(2025, 11, 16, 20, 0, 0, 0, time.Local), lines)

	dayMax, nightMax := maxChannel(day), maxChannel(night)
	if dayMax == 0 || nightMax == 0 {
		t.Fatalf("nothing was drawn: day %d, night %d", dayMax, nightMax)
	}
	if nightMax >= dayMax {
		t.Errorf("night render (%d) is not dimmer than day render (%d)", nightMax, dayMax)
	}
}

func TestDimSchedule(t *testing.T) {
	r := NewRenderer(96, 48)
	testData := []struct {
		hour int
		want float64
	}{
		{0, r.NightBrightness},
		{7, r.NightBrightness},
		{8, r.DayBrightness},
		{12, r.DayBrightness},
		{15, r.DayBrightness},
		{16, r.NightBrightness},
		{23, r.NightBrightness},
	}
	for _, test := range testData {
		if got := r.dimFor(test.hour); got != test.want {
			t.Errorf("dimFor(%d): got %v, want %v", test.hour, got, test.want)
		}
	}
}

type fakeSource struct {
	t   time.Time
	err error
}

func (f *fakeSource) Now() (time.Time, error) { return f.t, f.err }
func (f *fakeSource) Name() string            { return "fake" }

type fakeDisplay struct {
	images []image.Image
	err    error
}

func (f *fakeDisplay) Display(img image.Image) error {
	if f.err != nil {
		return f.err
	}
	f.images = append(f.images, img)
	return nil
}

func TestStep(t *testing.T) {
	l := trace.NewEventLog("test", "face")
	defer l.Finish()

	src := &fakeSource{t: time.Date(2025, 11, 16, 14, 15, 0, 0, time.Local)}
	d := &fakeDisplay{}
	c := &Clock{Source: src, Display: d, Renderer: NewRenderer(96, 48)}

	c.step(l, src.t)
	if got, want := len(d.images), 1; got != want {
		t.Fatalf("images after first step: got %d, want %d", got, want)
	}
	if want := []string{"Es ist", "viertel", "Drei"}; !reflect.DeepEqual(c.last, want) {
		t.Errorf("displayed lines:\n  got: %v\n want: %v", c.last, want)
	}

	// Same minute again: nothing to redraw.
	c.step(l, src.t)
	if got, want := len(d.images), 1; got != want {
		t.Errorf("images after repeated step: got %d, want %d", got, want)
	}

	// Source failure: keep what we have.
	src.err = fmt.Errorf("no reading")
	c.step(l, src.t)
	if got, want := len(d.images), 1; got != want {
		t.Errorf("images after source failure: got %d, want %d", got, want)
	}
	if want := []string{"Es ist", "viertel", "Drei"}; !reflect.DeepEqual(c.last, want) {
		t.Errorf("lines changed during source failure: %v", c.last)
	}

	// Recovery with a new minute: redraw.
	src.err = nil
	src.t = time.Date(2025, 11, 16, 14, 30, 0, 0, time.Local)
	c.step(l, src.t)
	if got, want := len(d.images), 2; got != want {
		t.Errorf("images after recovery: got %d, want %d", got, want)
	}
	if want := []string{"Es ist", "halb", "Drei"}; !reflect.DeepEqual(c.last, want) {
		t.Errorf("displayed lines after recovery:\n  got: %v\n want: %v", c.last, want)
	}
}

func TestStepRetriesAfterDisplayError(t *testing.T) {
	l := trace.NewEventLog("test", "face")
	defer l.Finish()

	src := &fakeSource{t: time.Date(2025, 11, 16, 9, 0, 0, 0, time.Local)}
	d := &fakeDisplay{err: fmt.Errorf("strand unplugged")}
	c := &Clock{Source: src, Display: d, Renderer: NewRenderer(96, 48)}

	c.step(l, src.t)
	if c.last != nil {
		t.Errorf("lines recorded despite display error: %v", c.last)
	}

	d.err = nil
	c.step(l, src.t)
	if got, want := len(d.images), 1; got != want {
		t.Errorf("images after display recovered: got %d, want %d", got, want)
	}
	if want := []string{"Es ist", "punkt", "Neun"}; !reflect.DeepEqual(c.last, want) {
		t.Errorf("displayed lines:\n  got: %v\n want: %v", c.last, want)
	}
}
