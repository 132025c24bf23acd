package dsl

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// 该文件解析调色板中类 CSS 的背景描述，例如
// linear-gradient(135deg, #667eea 0%, #764ba2 100%)。

var (
	cssLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
		{Name: "Angle", Pattern: `-?\d+(?:\.\d+)?deg`},
		{Name: "Percent", Pattern: `-?(?:\d+\.\d+|\d+|\.\d+)%`},
		{Name: "Number", Pattern: `-?(?:\d+\.\d+|\d+|\.\d+)`},
		{Name: "Hex", Pattern: `#[0-9A-Fa-f]+`},
		{Name: "Ident", Pattern: `[A-Za-z][A-Za-z0-9-]*`},
		{Name: "Punct", Pattern: `[(),]`},
	})

	backgroundParser = participle.MustBuild[Background](
		participle.Lexer(cssLexer),
		participle.Elide("Whitespace"),
	)
)

// Background 是逗号分隔的渐变层列表，先声明的层在上方。
type Background struct {
	Layers []*Layer `parser:"@@ ( ',' @@ )*"`
}

// Layer 是单个渐变函数。
type Layer struct {
	Linear *LinearSyntax `parser:"  'linear-gradient' '(' @@ ')'"`
	Radial *RadialSyntax `parser:"| 'radial-gradient' '(' @@ ')'"`
}

// LinearSyntax 对应 linear-gradient 的参数。
type LinearSyntax struct {
	Direction *Direction    `parser:"( @@ ',' )?"`
	Stops     []*StopSyntax `parser:"@@ ( ',' @@ )*"`
}

// Direction 支持角度或 to <side> 两种写法。
type Direction struct {
	Angle string   `parser:"  @Angle"`
	Sides []string `parser:"| 'to' @Ident+"`
}

// RadialSyntax 对应 radial-gradient 的参数。
type RadialSyntax struct {
	Shape *ShapeSyntax  `parser:"( @@ ',' )?"`
	Stops []*StopSyntax `parser:"@@ ( ',' @@ )*"`
}

// ShapeSyntax 原样记录形状与 at 位置的词元，求值时再解释。
type ShapeSyntax struct {
	Parts []string `parser:"@( 'ellipse' | 'circle' | 'at' | Percent | 'center' )+"`
}

// StopSyntax 是颜色停靠点，位置可省略。
type StopSyntax struct {
	Color  *ColorSyntax `parser:"@@"`
	Offset string       `parser:"@Percent?"`
}

// ColorSyntax 支持 #hex、rgb()/rgba() 与少量颜色名。
type ColorSyntax struct {
	Hex  string           `parser:"  @Hex"`
	Func *ColorFuncSyntax `parser:"| @@"`
	Name string           `parser:"| @Ident"`
}

// ColorFuncSyntax 对应 rgb(r, g, b) 与 rgba(r, g, b, a)。
type ColorFuncSyntax struct {
	Name string   `parser:"@( 'rgba' | 'rgb' )"`
	Args []string `parser:"'(' @( Number | Percent ) ( ',' @( Number | Percent ) )* ')'"`
}

// RGBA 是非预乘颜色，A 取值 0-1。
type RGBA struct {
	R uint8   `json:"r" yaml:"r"`
	G uint8   `json:"g" yaml:"g"`
	B uint8   `json:"b" yaml:"b"`
	A float64 `json:"a" yaml:"a"`
}

// Stop 是求值后的停靠点，Offset 取值 0-1。
type Stop struct {
	Offset float64 `json:"offset" yaml:"offset"`
	Color  RGBA    `json:"color" yaml:"color"`
}

// GradientKind 区分线性与径向渐变。
type GradientKind string

const (
	GradientLinear GradientKind = "linear"
	GradientRadial GradientKind = "radial"
)

// Gradient 是求值后的渐变层。
// 线性渐变使用 CSS 角度约定：0deg 指向上方，90deg 指向右方，缺省 180deg。
// 径向渐变的圆心以元素宽高的比例表示（0-1）。
type Gradient struct {
	Kind    GradientKind `json:"kind" yaml:"kind"`
	Angle   float64      `json:"angle,omitempty" yaml:"angle,omitempty"`
	Shape   string       `json:"shape,omitempty" yaml:"shape,omitempty"`
	CenterX float64      `json:"centerX,omitempty" yaml:"centerX,omitempty"`
	CenterY float64      `json:"centerY,omitempty" yaml:"centerY,omitempty"`
	Stops   []Stop       `json:"stops" yaml:"stops"`
}

// ParseBackground 解析背景描述并求值为渐变层（自上而下）。
func ParseBackground(css string) ([]Gradient, error) {
	ast, err := backgroundParser.ParseString("", css)
	if err != nil {
		return nil, fmt.Errorf("解析背景描述失败: %w", err)
	}
	out := make([]Gradient, 0, len(ast.Layers))
	for i, layer := range ast.Layers {
		g, err := layer.eval()
		if err != nil {
			return nil, fmt.Errorf("第 %d 个渐变层: %w", i+1, err)
		}
		out = append(out, g)
	}
	return out, nil
}

// MustParseBackground 用于包级固定调色板，解析失败直接 panic。
func MustParseBackground(css string) []Gradient {
	g, err := ParseBackground(css)
	if err != nil {
		panic(err)
	}
	return g
}

func (l *Layer) eval() (Gradient, error) {
	switch {
	case l.Linear != nil:
		angle := 180.0
		if d := l.Linear.Direction; d != nil {
			a, err := d.degrees()
			if err != nil {
				return Gradient{}, err
			}
			angle = a
		}
		stops, err := evalStops(l.Linear.Stops)
		if err != nil {
			return Gradient{}, err
		}
		return Gradient{Kind: GradientLinear, Angle: angle, Stops: stops}, nil
	case l.Radial != nil:
		g := Gradient{Kind: GradientRadial, Shape: "ellipse", CenterX: 0.5, CenterY: 0.5}
		if s := l.Radial.Shape; s != nil {
			if err := s.apply(&g); err != nil {
				return Gradient{}, err
			}
		}
		stops, err := evalStops(l.Radial.Stops)
		if err != nil {
			return Gradient{}, err
		}
		g.Stops = stops
		return g, nil
	default:
		return Gradient{}, fmt.Errorf("未知渐变函数")
	}
}

func (d *Direction) degrees() (float64, error) {
	if d.Angle != "" {
		return strconv.ParseFloat(strings.TrimSuffix(d.Angle, "deg"), 64)
	}
	var dx, dy int
	for _, side := range d.Sides {
		switch strings.ToLower(side) {
		case "top":
			dy = -1
		case "bottom":
			dy = 1
		case "left":
			dx = -1
		case "right":
			dx = 1
		default:
			return 0, fmt.Errorf("未知方向 %q", side)
		}
	}
	switch {
	case dx == 0 && dy == -1:
		return 0, nil
	case dx == 1 && dy == -1:
		return 45, nil
	case dx == 1 && dy == 0:
		return 90, nil
	case dx == 1 && dy == 1:
		return 135, nil
	case dx == 0 && dy == 1:
		return 180, nil
	case dx == -1 && dy == 1:
		return 225, nil
	case dx == -1 && dy == 0:
		return 270, nil
	case dx == -1 && dy == -1:
		return 315, nil
	default:
		return 0, fmt.Errorf("方向缺失")
	}
}

func (s *ShapeSyntax) apply(g *Gradient) error {
	parts := s.Parts
	if len(parts) > 0 && (parts[0] == "ellipse" || parts[0] == "circle") {
		g.Shape = parts[0]
		parts = parts[1:]
	}
	if len(parts) == 0 {
		return nil
	}
	if parts[0] != "at" {
		return fmt.Errorf("径向渐变形状后应为 at，实际 %q", parts[0])
	}
	pos := parts[1:]
	if len(pos) == 1 && pos[0] == "center" {
		return nil
	}
	if len(pos) != 2 {
		return fmt.Errorf("径向渐变位置需要两个百分比")
	}
	x, err := parsePercent(pos[0])
	if err != nil {
		return err
	}
	y, err := parsePercent(pos[1])
	if err != nil {
		return err
	}
	g.CenterX, g.CenterY = x, y
	return nil
}

// evalStops 求值停靠点，并按 CSS 规则补全缺省位置：
// 首尾缺省为 0 与 1，中间缺省项在相邻已知位置之间均分。
func evalStops(syntax []*StopSyntax) ([]Stop, error) {
	if len(syntax) < 2 {
		return nil, fmt.Errorf("渐变至少需要两个颜色")
	}
	stops := make([]Stop, len(syntax))
	known := make([]bool, len(syntax))
	for i, s := range syntax {
		c, err := s.Color.eval()
		if err != nil {
			return nil, err
		}
		stops[i].Color = c
		if s.Offset != "" {
			off, err := parsePercent(s.Offset)
			if err != nil {
				return nil, err
			}
			stops[i].Offset = off
			known[i] = true
		}
	}
	if !known[0] {
		stops[0].Offset, known[0] = 0, true
	}
	last := len(stops) - 1
	if !known[last] {
		stops[last].Offset, known[last] = 1, true
	}
	for i := 1; i < last; {
		if known[i] {
			i++
			continue
		}
		j := i
		for !known[j] {
			j++
		}
		from, to := stops[i-1].Offset, stops[j].Offset
		span := float64(j - i + 1)
		for k := i; k < j; k++ {
			stops[k].Offset = from + (to-from)*float64(k-i+1)/span
			known[k] = true
		}
		i = j
	}
	// 位置不得回退，与浏览器行为一致
	for i := 1; i < len(stops); i++ {
		if stops[i].Offset < stops[i-1].Offset {
			stops[i].Offset = stops[i-1].Offset
		}
	}
	sort.SliceStable(stops, func(a, b int) bool { return stops[a].Offset < stops[b].Offset })
	return stops, nil
}

func (c *ColorSyntax) eval() (RGBA, error) {
	switch {
	case c.Hex != "":
		return ParseHexColor(c.Hex)
	case c.Func != nil:
		return c.Func.eval()
	default:
		switch strings.ToLower(c.Name) {
		case "transparent":
			return RGBA{}, nil
		case "white":
			return RGBA{R: 255, G: 255, B: 255, A: 1}, nil
		case "black":
			return RGBA{A: 1}, nil
		default:
			return RGBA{}, fmt.Errorf("不支持的颜色名 %q", c.Name)
		}
	}
}

func (f *ColorFuncSyntax) eval() (RGBA, error) {
	want := 3
	if f.Name == "rgba" {
		want = 4
	}
	if len(f.Args) != want {
		return RGBA{}, fmt.Errorf("%s() 需要 %d 个参数，实际 %d", f.Name, want, len(f.Args))
	}
	var ch [3]uint8
	for i := 0; i < 3; i++ {
		v, err := parseChannel(f.Args[i])
		if err != nil {
			return RGBA{}, err
		}
		ch[i] = v
	}
	alpha := 1.0
	if want == 4 {
		a := f.Args[3]
		var err error
		if strings.HasSuffix(a, "%") {
			alpha, err = parsePercent(a)
		} else {
			alpha, err = strconv.ParseFloat(a, 64)
		}
		if err != nil {
			return RGBA{}, fmt.Errorf("透明度 %q 无法解析: %w", a, err)
		}
		alpha = clamp(alpha, 0, 1)
	}
	return RGBA{R: ch[0], G: ch[1], B: ch[2], A: alpha}, nil
}

// ParseHexColor 解析 #rgb、#rgba、#rrggbb、#rrggbbaa。
func ParseHexColor(value string) (RGBA, error) {
	v := strings.TrimPrefix(value, "#")
	alpha := 1.0
	switch len(v) {
	case 4:
		a, err := strconv.ParseUint(v[3:]+v[3:], 16, 8)
		if err != nil {
			return RGBA{}, fmt.Errorf("颜色值 %s 无法解析: %w", value, err)
		}
		v, alpha = v[:3], float64(a)/255
	case 8:
		a, err := strconv.ParseUint(v[6:], 16, 8)
		if err != nil {
			return RGBA{}, fmt.Errorf("颜色值 %s 无法解析: %w", value, err)
		}
		v, alpha = v[:6], float64(a)/255
	case 3, 6:
	default:
		return RGBA{}, fmt.Errorf("颜色值 %s 无法解析", value)
	}
	c, err := colorful.Hex("#" + v)
	if err != nil {
		return RGBA{}, fmt.Errorf("颜色值 %s 无法解析: %w", value, err)
	}
	r, g, b := c.RGB255()
	return RGBA{R: r, G: g, B: b, A: alpha}, nil
}

func parseChannel(s string) (uint8, error) {
	if strings.HasSuffix(s, "%") {
		p, err := parsePercent(s)
		if err != nil {
			return 0, err
		}
		return uint8(clamp(p, 0, 1)*255 + 0.5), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("颜色分量 %q 无法解析: %w", s, err)
	}
	return uint8(clamp(f, 0, 255) + 0.5), nil
}

func parsePercent(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, fmt.Errorf("百分比 %q 无法解析: %w", s, err)
	}
	return f / 100, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
