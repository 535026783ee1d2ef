package tilerenderer

import (
	"image"
	"image/color"

	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"github.com/jamesrr39/goutil/errorsx"
	"github.com/llgcode/draw2d/draw2dimg"
)

// PlaceholderRenderer draws text tiles for the states where no imagery is
// available yet: descriptor unresolved, or a per-tile fetch failure.
type PlaceholderRenderer struct {
	font     *truetype.Font
	fontSize float64
}

func NewPlaceholderRenderer(font *truetype.Font) *PlaceholderRenderer {
	return &PlaceholderRenderer{font, 14.0}
}

func (pr *PlaceholderRenderer) RenderTextTile(size image.Rectangle, text string) (image.Image, errorsx.Error) {
	img := image.NewRGBA(size)

	gc := draw2dimg.NewGraphicContext(img)
	gc.SetFillColor(color.RGBA{R: 0xee, G: 0xee, B: 0xee, A: 0xff})
	gc.SetStrokeColor(color.RGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff})
	gc.SetLineWidth(1)
	gc.BeginPath()
	gc.MoveTo(0, 0)
	gc.LineTo(float64(size.Max.X), 0)
	gc.LineTo(float64(size.Max.X), float64(size.Max.Y))
	gc.LineTo(0, float64(size.Max.Y))
	gc.Close()
	gc.FillStroke()

	x := size.Max.X / 4
	y := size.Max.Y / 2

	ctx := freetype.NewContext()
	ctx.SetDPI(72)
	ctx.SetFont(pr.font)
	ctx.SetFontSize(pr.fontSize)
	ctx.SetClip(img.Bounds())
	ctx.SetDst(img)
	ctx.SetSrc(image.NewUniform(color.Gray{Y: 0x66}))

	_, err := ctx.DrawString(text, freetype.Pt(x, y))
	if err != nil {
		return nil, errorsx.Wrap(err)
	}

	return img, nil
}
