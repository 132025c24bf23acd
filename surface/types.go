package surface

import (
	"sort"

	"github.com/ByLCY/glasscard/dsl"
)

// 该文件定义 VisualTree，供渲染、导出与调试输出共用。
// 所有坐标与尺寸均为逻辑像素（px），坐标原点为画布左上角。

// Tree 是文档渲染后的可视树。
type Tree struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
	Root   Region  `json:"root" yaml:"root"`
}

// Region 是带绘制属性的矩形区域，子区域按顺序绘制在其上方。
type Region struct {
	Name     string    `json:"name" yaml:"name"`
	X        float64   `json:"x" yaml:"x"`
	Y        float64   `json:"y" yaml:"y"`
	Width    float64   `json:"width" yaml:"width"`
	Height   float64   `json:"height" yaml:"height"`
	Radius   float64   `json:"radius,omitempty" yaml:"radius,omitempty"`
	Opacity  float64   `json:"opacity" yaml:"opacity"`
	Fill     Fill      `json:"fill" yaml:"fill"`
	Border   *Border   `json:"border,omitempty" yaml:"border,omitempty"`
	Texts    []TextBox `json:"texts,omitempty" yaml:"texts,omitempty"`
	Glyphs   []Glyph   `json:"glyphs,omitempty" yaml:"glyphs,omitempty"`
	Children []Region  `json:"children,omitempty" yaml:"children,omitempty"`
}

// Color 是非预乘 RGBA，A 取值 0-1。
type Color = dsl.RGBA

// FillKind 区分区域的填充方式。
type FillKind string

const (
	FillNone     FillKind = "none"
	FillSolid    FillKind = "solid"
	FillGradient FillKind = "gradient"
	FillImage    FillKind = "image"
)

// Fill 描述区域填充；Kind 决定哪个字段有效。
type Fill struct {
	Kind      FillKind       `json:"kind" yaml:"kind"`
	Color     Color          `json:"color,omitempty" yaml:"color,omitempty"`
	Gradients []dsl.Gradient `json:"gradients,omitempty" yaml:"gradients,omitempty"` // 自上而下
	Image     *ImageFill     `json:"image,omitempty" yaml:"image,omitempty"`
}

// ImageFill 引用资源存储中的图片。
type ImageFill struct {
	Ref string `json:"ref" yaml:"ref"`
	Fit string `json:"fit" yaml:"fit"` // 目前只有 cover（居中裁切）
}

// Border 是区域内侧描边。
type Border struct {
	Color Color   `json:"color" yaml:"color"`
	Width float64 `json:"width" yaml:"width"`
}

// Font 选择内置字体的字重/字形。
type Font string

const (
	FontRegular Font = "regular"
	FontMedium  Font = "medium"
	FontBold    Font = "bold"
	FontItalic  Font = "italic"
)

// TextBox 表示一个已经排好坐标的文本块。
type TextBox struct {
	Role       string     `json:"role" yaml:"role"`
	Content    string     `json:"content" yaml:"content"`
	X          float64    `json:"x" yaml:"x"`
	Y          float64    `json:"y" yaml:"y"`
	Width      float64    `json:"width" yaml:"width"`
	Height     float64    `json:"height" yaml:"height"`
	Font       Font       `json:"font" yaml:"font"`
	FontSize   float64    `json:"fontSize" yaml:"fontSize"`
	LineHeight float64    `json:"lineHeight" yaml:"lineHeight"`
	Color      Color      `json:"color" yaml:"color"`
	Align      string     `json:"align,omitempty" yaml:"align,omitempty"`
	Lines      []TextLine `json:"lines" yaml:"lines"`
}

// TextLine 表示排版后的一行文本内容及其宽高。
type TextLine struct {
	Content   string  `json:"content" yaml:"content"`
	Width     float64 `json:"width" yaml:"width"`
	Height    float64 `json:"height" yaml:"height"`
	GapBefore float64 `json:"gapBefore,omitempty" yaml:"gapBefore,omitempty"`
}

// Glyph 是一个以描边方式绘制的装饰图标。
type Glyph struct {
	Name        string  `json:"name" yaml:"name"`
	X           float64 `json:"x" yaml:"x"`
	Y           float64 `json:"y" yaml:"y"`
	Size        float64 `json:"size" yaml:"size"`
	Color       Color   `json:"color" yaml:"color"`
	StrokeWidth float64 `json:"strokeWidth" yaml:"strokeWidth"`
}

// Walk 以先序遍历访问全部区域，fn 返回 false 时停止深入该子树。
func (t *Tree) Walk(fn func(r *Region) bool) {
	if t == nil {
		return
	}
	walkRegion(&t.Root, fn)
}

func walkRegion(r *Region, fn func(r *Region) bool) {
	if !fn(r) {
		return
	}
	for i := range r.Children {
		walkRegion(&r.Children[i], fn)
	}
}

// Find 返回第一个同名区域。
func (t *Tree) Find(name string) *Region {
	var found *Region
	t.Walk(func(r *Region) bool {
		if found != nil {
			return false
		}
		if r.Name == name {
			found = r
			return false
		}
		return true
	})
	return found
}

// Glyphs 返回树中全部图标。
func (t *Tree) Glyphs() []Glyph {
	var out []Glyph
	t.Walk(func(r *Region) bool {
		out = append(out, r.Glyphs...)
		return true
	})
	return out
}

// Texts 返回树中全部文本块。
func (t *Tree) Texts() []TextBox {
	var out []TextBox
	t.Walk(func(r *Region) bool {
		out = append(out, r.Texts...)
		return true
	})
	return out
}

// ImageRefs 返回树引用的图片资源（去重、排序），导出前必须全部加载完成。
func (t *Tree) ImageRefs() []string {
	seen := map[string]bool{}
	t.Walk(func(r *Region) bool {
		if r.Fill.Kind == FillImage && r.Fill.Image != nil && r.Fill.Image.Ref != "" {
			seen[r.Fill.Image.Ref] = true
		}
		return true
	})
	out := make([]string, 0, len(seen))
	for ref := range seen {
		out = append(out, ref)
	}
	sort.Strings(out)
	return out
}

// Clone 深拷贝整棵树，导出快照使用。
func (t *Tree) Clone() *Tree {
	if t == nil {
		return nil
	}
	cp := *t
	cp.Root = cloneRegion(t.Root)
	return &cp
}

func cloneRegion(r Region) Region {
	cp := r
	if r.Border != nil {
		b := *r.Border
		cp.Border = &b
	}
	if r.Fill.Image != nil {
		img := *r.Fill.Image
		cp.Fill.Image = &img
	}
	cp.Fill.Gradients = cloneGradients(r.Fill.Gradients)
	if r.Texts != nil {
		cp.Texts = make([]TextBox, len(r.Texts))
		for i, tb := range r.Texts {
			tb.Lines = append([]TextLine(nil), tb.Lines...)
			cp.Texts[i] = tb
		}
	}
	cp.Glyphs = append([]Glyph(nil), r.Glyphs...)
	if r.Glyphs == nil {
		cp.Glyphs = nil
	}
	if r.Children != nil {
		cp.Children = make([]Region, len(r.Children))
		for i, c := range r.Children {
			cp.Children[i] = cloneRegion(c)
		}
	}
	return cp
}

// cloneGradients 深拷贝渐变层及其停靠点，nil 保持为 nil。
func cloneGradients(layers []dsl.Gradient) []dsl.Gradient {
	if layers == nil {
		return nil
	}
	out := make([]dsl.Gradient, len(layers))
	for i, g := range layers {
		g.Stops = append([]dsl.Stop(nil), g.Stops...)
		out[i] = g
	}
	return out
}
