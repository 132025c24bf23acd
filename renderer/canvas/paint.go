package canvasrenderer

import (
	"image"
	"image/color"
	"math"

	"github.com/tdewolff/canvas"
	xdraw "golang.org/x/image/draw"

	"github.com/ByLCY/glasscard/dsl"
	"github.com/ByLCY/glasscard/surface"
)

// drawGradients 自下而上绘制渐变层（Gradients 按 CSS 顺序自上而下排列），
// 每层都填充区域的圆角路径，由光栅化器负责抗锯齿。
func drawGradients(ctx *canvas.Context, region surface.Region, opacity float64) {
	path := regionPath(region.Width, region.Height, region.Radius)
	for i := len(region.Fill.Gradients) - 1; i >= 0; i-- {
		drawGradientLayer(ctx, region.X, region.Y, region.Width, region.Height, path, region.Fill.Gradients[i], opacity)
	}
}

func drawGradientLayer(ctx *canvas.Context, x, y, w, h float64, path *canvas.Path, g dsl.Gradient, opacity float64) {
	if len(g.Stops) == 0 || w <= 0 || h <= 0 {
		return
	}
	grad := gradStops(g.Stops, opacity)

	ctx.Push()
	defer ctx.Pop()
	ctx.SetStrokeColor(canvas.Transparent)
	ctx.SetStrokeWidth(0)

	switch g.Kind {
	case dsl.GradientRadial:
		cx, cy := g.CenterX*w, g.CenterY*h
		rx, ry := radialExtent(g, cx, cy, w, h)
		if rx <= 0 || ry <= 0 {
			return
		}
		// 椭圆渐变：视图沿 y 轴按 ry/rx 缩放，路径预先反向缩放，圆形渐变就被拉成椭圆
		k := ry / rx
		ctx.ScaleAbout(1, k, x+cx, y+cy)
		local := path.Copy().Transform(canvas.Identity.ScaleAbout(1, 1/k, cx, cy))
		center := canvas.Point{X: cx, Y: cy}
		ctx.SetFillGradient(grad.ToRadial(center, 0, center, rx))
		ctx.DrawPath(x, y, local)
	default:
		start, end := linearEndpoints(g.Angle, w, h)
		ctx.SetFillGradient(grad.ToLinear(start, end))
		ctx.DrawPath(x, y, path)
	}
}

// linearEndpoints 按 CSS 规则求渐变线端点：0deg 向上、顺时针增加，
// 长度保证两端角点恰好取到首尾色。坐标以区域左上角为原点，y 向下。
func linearEndpoints(angle, w, h float64) (canvas.Point, canvas.Point) {
	rad := angle * math.Pi / 180
	dir := canvas.Point{X: math.Sin(rad), Y: -math.Cos(rad)}
	half := (math.Abs(w*dir.X) + math.Abs(h*dir.Y)) / 2
	c := canvas.Point{X: w / 2, Y: h / 2}
	return c.Sub(dir.Mul(half)), c.Add(dir.Mul(half))
}

// radialExtent 返回 CSS 缺省尺寸 farthest-corner 下的半径。
func radialExtent(g dsl.Gradient, cx, cy, w, h float64) (float64, float64) {
	dx := math.Max(cx, w-cx)
	dy := math.Max(cy, h-cy)
	if g.Shape == "circle" {
		r := math.Hypot(dx, dy)
		return r, r
	}
	return dx * math.Sqrt2, dy * math.Sqrt2
}

// gradStops 把停靠点转换为 canvas 的预乘颜色，区域不透明度折算进 alpha。
// 相同位置的硬停靠点需要保留，因此直接追加而不是用 Grad.Add。
func gradStops(stops []dsl.Stop, opacity float64) canvas.Grad {
	grad := make(canvas.Grad, 0, len(stops))
	for _, s := range stops {
		grad = append(grad, canvas.Stop{
			Offset: clamp01(s.Offset),
			Color:  premultiply(s.Color, opacity),
		})
	}
	return grad
}

func premultiply(c dsl.RGBA, opacity float64) color.RGBA {
	a := clamp01(c.A * opacity)
	return color.RGBA{
		R: uint8(float64(c.R)*a + 0.5),
		G: uint8(float64(c.G)*a + 0.5),
		B: uint8(float64(c.B)*a + 0.5),
		A: uint8(a*255 + 0.5),
	}
}

// bitmapPaint 把已缩放到设备像素的位图当作填充交给光栅化器，
// 这样图片与渐变一样按圆角路径裁切。At 的坐标为区域内的逻辑像素。
type bitmapPaint struct {
	img     *image.RGBA
	scale   float64
	opacity float64
	space   canvas.ColorSpace
}

var _ canvas.Gradient = (*bitmapPaint)(nil)

func (p *bitmapPaint) SetColorSpace(space canvas.ColorSpace) canvas.Gradient {
	if _, ok := space.(canvas.LinearColorSpace); ok {
		return p
	}
	cp := *p
	cp.space = space
	return &cp
}

func (p *bitmapPaint) At(x, y float64) color.RGBA {
	b := p.img.Bounds()
	ix := clampInt(int(math.Floor(x*p.scale)), b.Min.X, b.Max.X-1)
	iy := clampInt(int(math.Floor(y*p.scale)), b.Min.Y, b.Max.Y-1)
	c := p.img.RGBAAt(ix, iy)
	if p.opacity < 1 {
		c = color.RGBA{
			R: uint8(float64(c.R)*p.opacity + 0.5),
			G: uint8(float64(c.G)*p.opacity + 0.5),
			B: uint8(float64(c.B)*p.opacity + 0.5),
			A: uint8(float64(c.A)*p.opacity + 0.5),
		}
	}
	if p.space != nil {
		c = p.space.ToLinear(c)
	}
	return c
}

// drawImageFill 按 cover 方式缩放图片并填充区域的圆角路径。
func drawImageFill(ctx *canvas.Context, region surface.Region, src image.Image, scale, opacity float64) {
	w, h := devicePixels(region.Width, scale), devicePixels(region.Height, scale)
	ctx.Push()
	defer ctx.Pop()
	ctx.SetStrokeColor(canvas.Transparent)
	ctx.SetStrokeWidth(0)
	ctx.SetFillGradient(&bitmapPaint{img: coverFit(src, w, h), scale: scale, opacity: clamp01(opacity)})
	ctx.DrawPath(region.X, region.Y, regionPath(region.Width, region.Height, region.Radius))
}

// coverFit 按 background-size: cover 居中裁切并缩放到 w×h。
func coverFit(src image.Image, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	b := src.Bounds()
	sw, sh := float64(b.Dx()), float64(b.Dy())
	if sw == 0 || sh == 0 {
		return dst
	}
	scale := math.Max(float64(w)/sw, float64(h)/sh)
	cw, ch := float64(w)/scale, float64(h)/scale
	x0 := b.Min.X + int(math.Round((sw-cw)/2))
	y0 := b.Min.Y + int(math.Round((sh-ch)/2))
	crop := image.Rect(x0, y0, x0+int(math.Round(cw)), y0+int(math.Round(ch))).Intersect(b)
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, xdraw.Src, nil)
	return dst
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
