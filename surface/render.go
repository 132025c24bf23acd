package surface

import (
	"fmt"
	"math"

	"github.com/ByLCY/glasscard/card"
	"github.com/ByLCY/glasscard/dsl"
	"github.com/ByLCY/glasscard/icons"
)

// 区域名称，Tree.Find 与测试使用。
const (
	RegionCanvas    = "canvas"
	RegionOverlay   = "overlay"
	RegionGlass     = "glass"
	RegionCardImage = "card-image"
)

const (
	canvasRadius   = 24.0
	canvasPadding  = 32.0
	glassMaxWidth  = 440.0
	glassRadius    = 24.0
	glassPadding   = 28.0
	glassBorder    = 1.0
	iconSize       = 28.0
	iconGap        = 18.0
	cardImageRatio = 9.0 / 16.0
	cardImageMaxH  = 220.0
	cardImageGap   = 18.0
)

var (
	paletteLayers = func() [][]dsl.Gradient {
		out := make([][]dsl.Gradient, len(card.Gradients))
		for i, g := range card.Gradients {
			out[i] = dsl.MustParseBackground(g.CSS)
		}
		return out
	}()
	overlayLayers = dsl.MustParseBackground(card.GradientOverlayCSS)
)

// glassTheme 是玻璃面板在某一模式下的配色。
type glassTheme struct {
	fill      Color
	border    Color
	primary   Color
	secondary Color
	accent    Color
}

var glassThemes = map[card.GlassMode]glassTheme{
	// 浅色玻璃上用深色文字
	card.GlassLight: {
		fill:      Color{R: 255, G: 255, B: 255, A: 0.55},
		border:    Color{R: 255, G: 255, B: 255, A: 0.7},
		primary:   Color{R: 28, G: 28, B: 40, A: 1},
		secondary: Color{R: 28, G: 28, B: 40, A: 0.68},
		accent:    Color{R: 109, G: 40, B: 217, A: 1},
	},
	// 深色玻璃上用浅色文字
	card.GlassDark: {
		fill:      Color{R: 13, G: 13, B: 26, A: 0.58},
		border:    Color{R: 255, G: 255, B: 255, A: 0.16},
		primary:   Color{R: 248, G: 248, B: 252, A: 1},
		secondary: Color{R: 255, G: 255, B: 255, A: 0.72},
		accent:    Color{R: 216, G: 180, B: 254, A: 1},
	},
}

// textStyle 描述一个文本角色的排版参数。
type textStyle struct {
	font       Font
	size       float64
	lineHeight float64 // 倍数
	gapAfter   float64
}

var (
	styleQuote       = textStyle{font: FontMedium, size: 22, lineHeight: 1.45, gapAfter: 16}
	styleAuthor      = textStyle{font: FontRegular, size: 14, lineHeight: 1.4}
	styleLabel       = textStyle{font: FontBold, size: 12, lineHeight: 1.3, gapAfter: 6}
	styleQuestion    = textStyle{font: FontBold, size: 20, lineHeight: 1.35, gapAfter: 18}
	styleAnswer      = textStyle{font: FontRegular, size: 15, lineHeight: 1.5}
	styleTitle       = textStyle{font: FontBold, size: 22, lineHeight: 1.3, gapAfter: 8}
	styleDescription = textStyle{font: FontRegular, size: 14, lineHeight: 1.5}
)

// Render 将文档映射为可视树。
// 纯函数：相同的文档与排版后端总是得到相同的树，不读取时间或随机数。
func Render(doc card.Document, opts Options) (*Tree, error) {
	if opts.Typesetter == nil {
		return nil, fmt.Errorf("surface: 缺少排版后端 Typesetter")
	}
	width, height := doc.AspectRatio.Size()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("surface: 未知画布比例 %q", doc.AspectRatio)
	}
	theme, ok := glassThemes[doc.GlassMode]
	if !ok {
		return nil, fmt.Errorf("surface: 未知玻璃模式 %q", doc.GlassMode)
	}

	root := Region{
		Name:    RegionCanvas,
		Width:   width,
		Height:  height,
		Radius:  canvasRadius,
		Opacity: 1,
	}
	if doc.HasBackgroundImage() {
		root.Fill = Fill{Kind: FillImage, Image: &ImageFill{Ref: doc.BackgroundImage, Fit: "cover"}}
	} else {
		if doc.GradientIndex < 0 || doc.GradientIndex >= len(paletteLayers) {
			return nil, fmt.Errorf("surface: 渐变索引 %d 越界", doc.GradientIndex)
		}
		root.Fill = Fill{Kind: FillGradient, Gradients: cloneGradients(paletteLayers[doc.GradientIndex])}
		root.Children = append(root.Children, Region{
			Name:    RegionOverlay,
			Width:   width,
			Height:  height,
			Radius:  canvasRadius,
			Opacity: card.GradientOverlayOpacity,
			Fill:    Fill{Kind: FillGradient, Gradients: cloneGradients(overlayLayers)},
		})
	}

	glass, err := buildGlass(doc, theme, width, height, opts.Typesetter)
	if err != nil {
		return nil, err
	}
	root.Children = append(root.Children, glass)

	return &Tree{Width: width, Height: height, Root: root}, nil
}

// buildGlass 先在 (0,0) 处排版面板内容，得到高度后再整体平移到居中位置。
func buildGlass(doc card.Document, theme glassTheme, canvasW, canvasH float64, ts Typesetter) (Region, error) {
	panelW := math.Min(canvasW-2*canvasPadding, glassMaxWidth)
	contentW := panelW - 2*glassPadding

	glass := Region{
		Name:    RegionGlass,
		Width:   panelW,
		Radius:  glassRadius,
		Opacity: 1,
		Fill:    Fill{Kind: FillSolid, Color: theme.fill},
		Border:  &Border{Color: theme.border, Width: glassBorder},
	}

	flow := &panelFlow{x: glassPadding, cursorY: glassPadding, width: contentW, ts: ts, region: &glass}

	if doc.SelectedIcon != "" && icons.Has(doc.SelectedIcon) {
		glass.Glyphs = append(glass.Glyphs, Glyph{
			Name:        doc.SelectedIcon,
			X:           flow.x,
			Y:           flow.cursorY,
			Size:        iconSize,
			Color:       theme.primary,
			StrokeWidth: 2 * iconSize / icons.ViewBox,
		})
		flow.cursorY += iconSize + iconGap
	}

	var err error
	switch doc.Template {
	case card.TemplateQuote:
		err = flow.texts(
			textSpec{role: string(card.FieldQuoteText), content: doc.QuoteText, style: styleQuote, color: theme.primary},
			textSpec{role: string(card.FieldQuoteAuthor), content: doc.QuoteAuthor, style: styleAuthor, color: theme.secondary},
		)
	case card.TemplateQA:
		err = flow.texts(
			textSpec{role: "questionLabel", content: "Q", style: styleLabel, color: theme.accent},
			textSpec{role: string(card.FieldQuestionText), content: doc.QuestionText, style: styleQuestion, color: theme.primary},
			textSpec{role: "answerLabel", content: "A", style: styleLabel, color: theme.accent},
			textSpec{role: string(card.FieldAnswerText), content: doc.AnswerText, style: styleAnswer, color: theme.secondary},
		)
	case card.TemplateImageText:
		if doc.CardImage != "" {
			h := math.Min(contentW*cardImageRatio, cardImageMaxH)
			glass.Children = append(glass.Children, Region{
				Name:    RegionCardImage,
				X:       flow.x,
				Y:       flow.cursorY,
				Width:   contentW,
				Height:  h,
				Radius:  16,
				Opacity: 1,
				Fill:    Fill{Kind: FillImage, Image: &ImageFill{Ref: doc.CardImage, Fit: "cover"}},
			})
			flow.cursorY += h + cardImageGap
		}
		err = flow.texts(
			textSpec{role: string(card.FieldImageTitle), content: doc.ImageTitle, style: styleTitle, color: theme.primary},
			textSpec{role: string(card.FieldImageDescription), content: doc.ImageDescription, style: styleDescription, color: theme.secondary},
		)
	default:
		return Region{}, fmt.Errorf("surface: 未知模板 %q", doc.Template)
	}
	if err != nil {
		return Region{}, err
	}

	glass.Height = flow.cursorY + glassPadding
	glass.X = (canvasW - panelW) / 2
	glass.Y = math.Max((canvasH-glass.Height)/2, canvasPadding)
	offsetRegion(&glass, glass.X, glass.Y, false)
	return glass, nil
}

type textSpec struct {
	role    string
	content string
	style   textStyle
	color   Color
}

// panelFlow 在面板内自上而下堆叠文本。
type panelFlow struct {
	x       float64
	cursorY float64
	width   float64
	ts      Typesetter
	region  *Region
}

func (f *panelFlow) texts(specs ...textSpec) error {
	for i, spec := range specs {
		tb, err := composeTextBox(spec, f.x, f.cursorY, f.width, f.ts)
		if err != nil {
			return err
		}
		f.region.Texts = append(f.region.Texts, tb)
		f.cursorY += tb.Height
		if i < len(specs)-1 {
			f.cursorY += spec.style.gapAfter
		}
	}
	return nil
}

func composeTextBox(spec textSpec, x, y, width float64, ts Typesetter) (TextBox, error) {
	fontSize := spec.style.size
	lineHeight := fontSize * spec.style.lineHeight
	lines, err := layoutLines(spec.content, width, spec.style.font, fontSize, lineHeight, ts)
	if err != nil {
		return TextBox{}, fmt.Errorf("surface: 排版 %s 失败: %w", spec.role, err)
	}

	totalHeight := 0.0
	defaultLeading := math.Max(lineHeight-fontSize, 0)
	for i := range lines {
		if lines[i].Height <= 0 {
			lines[i].Height = fontSize
		}
		if i == 0 {
			lines[i].GapBefore = 0
		} else if lines[i].GapBefore <= 0 {
			lines[i].GapBefore = defaultLeading
		}
		totalHeight += lines[i].GapBefore + lines[i].Height
	}

	return TextBox{
		Role:       spec.role,
		Content:    spec.content,
		X:          x,
		Y:          y,
		Width:      width,
		Height:     totalHeight,
		Font:       spec.style.font,
		FontSize:   fontSize,
		LineHeight: lineHeight,
		Color:      spec.color,
		Align:      "left",
		Lines:      lines,
	}, nil
}

func layoutLines(content string, width float64, font Font, fontSize, lineHeight float64, ts Typesetter) ([]TextLine, error) {
	lines, err := ts.LayoutLines(content, width, font, fontSize, lineHeight)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		lines = []TextLine{{Content: "", Width: 0, Height: fontSize}}
	}
	lines[0].GapBefore = 0
	return lines, nil
}

// offsetRegion 将区域内容平移到画布坐标；self 为 false 时区域自身坐标已就位。
func offsetRegion(r *Region, dx, dy float64, self bool) {
	if self {
		r.X += dx
		r.Y += dy
	}
	for i := range r.Texts {
		r.Texts[i].X += dx
		r.Texts[i].Y += dy
	}
	for i := range r.Glyphs {
		r.Glyphs[i].X += dx
		r.Glyphs[i].Y += dy
	}
	for i := range r.Children {
		offsetRegion(&r.Children[i], dx, dy, true)
	}
}
