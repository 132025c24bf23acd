package canvasrenderer

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"

	"github.com/ByLCY/glasscard/fonts"
	"github.com/ByLCY/glasscard/icons"
	"github.com/ByLCY/glasscard/renderer"
	"github.com/ByLCY/glasscard/surface"
)

// 画布单位即逻辑像素：canvas 内部以 mm 为单位，这里把 1mm 当作 1px，
// 光栅化时的 DPMM 就是导出倍率。字号交给字体系统前需要换算为 pt。
const (
	PtToUnit = 0.352777
	UnitToPt = 1.0 / PtToUnit
)

// Renderer draws visual trees via github.com/tdewolff/canvas.
type Renderer struct {
	fontBlobs map[surface.Font][]byte

	fontMu   sync.Mutex
	families map[surface.Font]*canvas.FontFamily
}

var (
	_ renderer.Renderer   = (*Renderer)(nil)
	_ renderer.FontLoader = (*Renderer)(nil)
	_ surface.Typesetter  = (*Renderer)(nil)
)

// Options configures the canvas renderer.
type Options struct {
	// Fonts 覆盖内置字体，键为字重。
	Fonts map[surface.Font][]byte
}

// NewRenderer creates a canvas-based renderer using the built-in fonts.
func NewRenderer() *Renderer { return NewRendererWithOptions(Options{}) }

// NewRendererWithOptions creates a renderer with injected font data.
func NewRendererWithOptions(opts Options) *Renderer {
	r := &Renderer{
		fontBlobs: map[surface.Font][]byte{},
		families:  map[surface.Font]*canvas.FontFamily{},
	}
	for font, data := range opts.Fonts {
		if len(data) > 0 {
			r.fontBlobs[font] = data
		}
	}
	return r
}

// LoadFonts 预先加载全部字重，导出在采样前调用以保证字体就绪。
func (r *Renderer) LoadFonts() error {
	for _, f := range []surface.Font{surface.FontRegular, surface.FontMedium, surface.FontBold, surface.FontItalic} {
		if _, err := r.family(f); err != nil {
			return err
		}
	}
	return nil
}

// Rasterize 绘制可视树并按 scale 倍率光栅化。
func (r *Renderer) Rasterize(tree *surface.Tree, images map[string]image.Image, scale float64) (*image.RGBA, error) {
	if tree == nil {
		return nil, fmt.Errorf("可视树为空")
	}
	if tree.Width <= 0 || tree.Height <= 0 {
		return nil, fmt.Errorf("画布尺寸无效: %gx%g", tree.Width, tree.Height)
	}
	if scale <= 0 {
		scale = 1
	}

	c := canvas.New(tree.Width, tree.Height)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与可视树保持左上角为原点

	if err := r.drawRegion(ctx, tree.Root, images, scale, 1); err != nil {
		return nil, err
	}
	return rasterizer.Draw(c, canvas.DPMM(scale), canvas.DefaultColorSpace), nil
}

func (r *Renderer) drawRegion(ctx *canvas.Context, region surface.Region, images map[string]image.Image, scale, parentOpacity float64) error {
	opacity := parentOpacity * region.Opacity
	if opacity <= 0 {
		return nil
	}

	switch region.Fill.Kind {
	case surface.FillSolid:
		ctx.SetFillColor(colorFromSurface(region.Fill.Color, opacity))
		ctx.SetStrokeColor(color.RGBA{})
		ctx.SetStrokeWidth(0)
		ctx.DrawPath(region.X, region.Y, regionPath(region.Width, region.Height, region.Radius))
	case surface.FillGradient:
		drawGradients(ctx, region, opacity)
	case surface.FillImage:
		if region.Fill.Image == nil {
			return fmt.Errorf("区域 %s 缺少图片填充", region.Name)
		}
		src, ok := images[region.Fill.Image.Ref]
		if !ok || src == nil {
			return fmt.Errorf("图片资源 %s 未加载", region.Fill.Image.Ref)
		}
		drawImageFill(ctx, region, src, scale, opacity)
	}

	if b := region.Border; b != nil && b.Width > 0 {
		inset := b.Width / 2
		ctx.SetFillColor(color.RGBA{})
		ctx.SetStrokeColor(colorFromSurface(b.Color, opacity))
		ctx.SetStrokeWidth(b.Width)
		ctx.DrawPath(region.X+inset, region.Y+inset, regionPath(region.Width-b.Width, region.Height-b.Width, math.Max(region.Radius-inset, 0)))
	}

	for _, child := range region.Children {
		if err := r.drawRegion(ctx, child, images, scale, opacity); err != nil {
			return err
		}
	}
	for _, glyph := range region.Glyphs {
		if err := drawGlyph(ctx, glyph, opacity); err != nil {
			return err
		}
	}
	for _, tb := range region.Texts {
		if err := r.drawTextBox(ctx, tb, opacity); err != nil {
			return err
		}
	}
	return nil
}

func drawGlyph(ctx *canvas.Context, g surface.Glyph, opacity float64) error {
	icon, ok := icons.Lookup(g.Name)
	if !ok {
		return fmt.Errorf("图标 %s 不存在", g.Name)
	}
	p, err := canvas.ParseSVGPath(icon.Path)
	if err != nil {
		return fmt.Errorf("解析图标 %s 失败: %w", g.Name, err)
	}
	k := g.Size / icons.ViewBox
	p = p.Scale(k, k)
	ctx.SetFillColor(color.RGBA{})
	ctx.SetStrokeColor(colorFromSurface(g.Color, opacity))
	ctx.SetStrokeWidth(g.StrokeWidth)
	ctx.DrawPath(g.X, g.Y, p)
	return nil
}

func (r *Renderer) drawTextBox(ctx *canvas.Context, tb surface.TextBox, opacity float64) error {
	col := tb.Color
	col.A *= opacity
	face, err := r.fontFace(tb.Font, toPt(tb.FontSize), col)
	if err != nil {
		return err
	}

	var textAlign canvas.TextAlign
	var anchorX float64
	switch tb.Align {
	case "center":
		textAlign = canvas.Center
		anchorX = tb.X + tb.Width/2
	case "right":
		textAlign = canvas.Right
		anchorX = tb.X + tb.Width
	default:
		textAlign = canvas.Left
		anchorX = tb.X
	}

	metrics := face.Metrics()
	cursorY := tb.Y
	for _, line := range tb.Lines {
		cursorY += line.GapBefore
		lineHeight := line.Height
		if lineHeight <= 0 {
			lineHeight = tb.FontSize
		}
		// 基线位置：行顶部加上字体上升部
		ctx.DrawText(anchorX, cursorY+metrics.Ascent, canvas.NewTextLine(face, line.Content, textAlign))
		cursorY += lineHeight
	}
	return nil
}

func (r *Renderer) fontFace(font surface.Font, sizePt float64, col surface.Color) (*canvas.FontFace, error) {
	family, err := r.family(font)
	if err != nil {
		return nil, err
	}
	return family.Face(sizePt, colorFromSurface(col, 1), canvas.FontRegular, canvas.FontNormal), nil
}

// family 按字重懒加载字体族；每个字重单独成族，样式统一登记为 Regular。
func (r *Renderer) family(font surface.Font) (*canvas.FontFamily, error) {
	if font == "" {
		font = surface.FontRegular
	}
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if fam, ok := r.families[font]; ok {
		return fam, nil
	}
	data, ok := r.fontBlobs[font]
	if !ok {
		var err error
		data, err = fonts.Load(string(font))
		if err != nil {
			return nil, err
		}
	}
	fam := canvas.NewFontFamily("glasscard-" + string(font))
	if err := fam.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, fmt.Errorf("加载字体 %s 失败: %w", font, err)
	}
	r.families[font] = fam
	return fam, nil
}

func regionPath(w, h, radius float64) *canvas.Path {
	if radius > 0 {
		return canvas.RoundedRectangle(w, h, math.Min(radius, math.Min(w, h)/2))
	}
	return canvas.Rectangle(w, h)
}

func devicePixels(v, scale float64) int {
	n := int(math.Round(v * scale))
	if n < 1 {
		n = 1
	}
	return n
}

func colorFromSurface(c surface.Color, opacity float64) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, clamp01(c.A*opacity))
}

// toPt 将逻辑像素转换为点(pt)。
func toPt(px float64) float64 { return px * UnitToPt }
