// Package pattern renders synthetic test frames.
package pattern

import (
	"image"
	"image/color"
	"sync"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"

	"github.com/BeatGlow/yuvfb/draw"
	"github.com/BeatGlow/yuvfb/pixel"
)

// BarColors are the 75% amplitude color bars, left to right.
var BarColors = []color.RGBA{
	{0xbf, 0xbf, 0xbf, 0xff}, // white
	{0xbf, 0xbf, 0x00, 0xff}, // yellow
	{0x00, 0xbf, 0xbf, 0xff}, // cyan
	{0x00, 0xbf, 0x00, 0xff}, // green
	{0xbf, 0x00, 0xbf, 0xff}, // magenta
	{0xbf, 0x00, 0x00, 0xff}, // red
	{0x00, 0x00, 0xbf, 0xff}, // blue
}

var (
	goRegular     *truetype.Font
	goRegularErr  error
	goRegularOnce sync.Once
)

func regularFont() (*truetype.Font, error) {
	goRegularOnce.Do(func() {
		goRegular, goRegularErr = freetype.ParseFont(goregular.TTF)
	})
	return goRegular, goRegularErr
}

// Bars renders w by h color bars. The top two thirds hold the [BarColors], the
// bottom third a grey ramp from black to white. A non-empty caption is drawn
// in the center of the bars.
func Bars(w, h int, caption string) (*pixel.BGRAImage, error) {
	img := pixel.NewBGRAImage(w, h)
	img.Fill(color.Black)
	if img.Rect.Empty() {
		return img, nil
	}

	split := h * 2 / 3
	for i, c := range BarColors {
		x0 := i * w / len(BarColors)
		x1 := (i + 1) * w / len(BarColors)
		draw.Box(img, image.Rect(x0, 0, x1, split), c)
	}
	for x := 0; x < w; x++ {
		v := uint8(x * 0xff / max(w-1, 1))
		draw.Line(img, image.Pt(x, split), image.Pt(x, h-1), color.Gray{Y: v})
	}
	draw.Rectangle(img, img.Rect, color.White)

	if caption != "" {
		if err := drawCaption(img, image.Rect(0, 0, w, split), caption); err != nil {
			return nil, err
		}
	}
	return img, nil
}

func drawCaption(dst *pixel.BGRAImage, r image.Rectangle, caption string) error {
	f, err := regularFont()
	if err != nil {
		return err
	}

	size := float64(r.Dy()) / 8
	if size < 8 {
		size = 8
	}
	face := truetype.NewFace(f, &truetype.Options{Size: size})
	defer face.Close()

	var (
		metrics = face.Metrics()
		width   = font.MeasureString(face, caption).Ceil()
		height  = (metrics.Ascent + metrics.Descent).Ceil()
		pad     = height / 4
		center  = r.Min.Add(r.Size().Div(2))
		box     = image.Rect(0, 0, width+pad*2, height+pad*2)
	)
	box = box.Add(center.Sub(box.Size().Div(2))).Intersect(r)
	draw.Box(dst, box, color.Black)

	c := freetype.NewContext()
	c.SetDPI(72)
	c.SetFont(f)
	c.SetFontSize(size)
	c.SetClip(box)
	c.SetDst(dst)
	c.SetSrc(image.White)
	c.SetHinting(font.HintingFull)

	dot := fixed.Point26_6{
		X: fixed.I(box.Min.X + pad),
		Y: fixed.I(box.Min.Y+pad) + metrics.Ascent,
	}
	_, err = c.DrawString(caption, dot)
	return err
}
