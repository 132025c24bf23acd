package card

import "fmt"

// Template 决定玻璃面板上渲染哪一组文本字段。
type Template string

const (
	TemplateQuote     Template = "quote"
	TemplateQA        Template = "qa"
	TemplateImageText Template = "image-text"
)

// Templates 返回全部模板，顺序与侧边栏一致。
func Templates() []Template {
	return []Template{TemplateQuote, TemplateQA, TemplateImageText}
}

// Valid 判断模板是否属于固定枚举。
func (t Template) Valid() bool {
	switch t {
	case TemplateQuote, TemplateQA, TemplateImageText:
		return true
	default:
		return false
	}
}

// Fields 返回该模板实际渲染的文本字段。
func (t Template) Fields() []TextField {
	switch t {
	case TemplateQuote:
		return []TextField{FieldQuoteText, FieldQuoteAuthor}
	case TemplateQA:
		return []TextField{FieldQuestionText, FieldAnswerText}
	case TemplateImageText:
		return []TextField{FieldImageTitle, FieldImageDescription}
	default:
		return nil
	}
}

// ParseTemplate 将字符串解析为模板。
func ParseTemplate(s string) (Template, error) {
	t := Template(s)
	if !t.Valid() {
		return "", fmt.Errorf("未知模板 %q", s)
	}
	return t, nil
}

// AspectRatio 决定画布几何形状。
type AspectRatio string

const (
	Ratio1x1  AspectRatio = "1:1"
	Ratio16x9 AspectRatio = "16:9"
	Ratio9x16 AspectRatio = "9:16"
	Ratio4x5  AspectRatio = "4:5"
)

// AspectRatios 返回全部画布比例。
func AspectRatios() []AspectRatio {
	return []AspectRatio{Ratio1x1, Ratio16x9, Ratio9x16, Ratio4x5}
}

// Valid 判断比例是否属于固定枚举。
func (r AspectRatio) Valid() bool {
	_, ok := ratioGeometry[r]
	return ok
}

// Geometry 描述比例的宽高分量以及预览时的最大逻辑宽度（px）。
type Geometry struct {
	W, H     int
	MaxWidth float64
}

var ratioGeometry = map[AspectRatio]Geometry{
	Ratio1x1:  {W: 1, H: 1, MaxWidth: 560},
	Ratio16x9: {W: 16, H: 9, MaxWidth: 700},
	Ratio9x16: {W: 9, H: 16, MaxWidth: 360},
	Ratio4x5:  {W: 4, H: 5, MaxWidth: 480},
}

// Geometry 返回比例对应的几何参数；未知比例返回零值。
func (r AspectRatio) Geometry() Geometry {
	return ratioGeometry[r]
}

// Size 返回画布的逻辑宽高（px）。
func (r AspectRatio) Size() (float64, float64) {
	g := r.Geometry()
	if g.W == 0 {
		return 0, 0
	}
	return g.MaxWidth, g.MaxWidth * float64(g.H) / float64(g.W)
}

// ParseAspectRatio 将 "16:9" 这类字符串解析为比例。
func ParseAspectRatio(s string) (AspectRatio, error) {
	r := AspectRatio(s)
	if !r.Valid() {
		return "", fmt.Errorf("未知画布比例 %q", s)
	}
	return r, nil
}

// GlassMode 控制玻璃面板的色调与文字对比度。
type GlassMode string

const (
	GlassLight GlassMode = "light"
	GlassDark  GlassMode = "dark"
)

// GlassModes 返回全部玻璃模式。
func GlassModes() []GlassMode { return []GlassMode{GlassLight, GlassDark} }

func (m GlassMode) Valid() bool { return m == GlassLight || m == GlassDark }

// ParseGlassMode 将字符串解析为玻璃模式。
func ParseGlassMode(s string) (GlassMode, error) {
	m := GlassMode(s)
	if !m.Valid() {
		return "", fmt.Errorf("未知玻璃模式 %q", s)
	}
	return m, nil
}

// TextField 标识模板相关的文本字段。
type TextField string

const (
	FieldQuoteText        TextField = "quoteText"
	FieldQuoteAuthor      TextField = "quoteAuthor"
	FieldQuestionText     TextField = "questionText"
	FieldAnswerText       TextField = "answerText"
	FieldImageTitle       TextField = "imageTitle"
	FieldImageDescription TextField = "imageDescription"
)

// TextFields 返回全部文本字段。
func TextFields() []TextField {
	return []TextField{
		FieldQuoteText, FieldQuoteAuthor,
		FieldQuestionText, FieldAnswerText,
		FieldImageTitle, FieldImageDescription,
	}
}

func (f TextField) Valid() bool {
	for _, v := range TextFields() {
		if v == f {
			return true
		}
	}
	return false
}

// Document 是一张卡片设计的完整描述。
// 值语义：Apply 总是返回新的快照，调用方持有的旧值不会被修改。
// 图片字段保存资源引用，空字符串表示未设置。
type Document struct {
	Template      Template    `json:"template" yaml:"template"`
	AspectRatio   AspectRatio `json:"aspectRatio" yaml:"aspectRatio"`
	GlassMode     GlassMode   `json:"glassMode" yaml:"glassMode"`
	GradientIndex int         `json:"gradientIndex" yaml:"gradientIndex"`

	BackgroundImage string `json:"backgroundImage,omitempty" yaml:"backgroundImage,omitempty"`
	CardImage       string `json:"cardImage,omitempty" yaml:"cardImage,omitempty"`

	QuoteText        string `json:"quoteText" yaml:"quoteText"`
	QuoteAuthor      string `json:"quoteAuthor" yaml:"quoteAuthor"`
	QuestionText     string `json:"questionText" yaml:"questionText"`
	AnswerText       string `json:"answerText" yaml:"answerText"`
	ImageTitle       string `json:"imageTitle" yaml:"imageTitle"`
	ImageDescription string `json:"imageDescription" yaml:"imageDescription"`

	SelectedIcon string `json:"selectedIcon,omitempty" yaml:"selectedIcon,omitempty"`
}

// DefaultGradientIndex 指向调色板中的 Aurora。
const DefaultGradientIndex = 6

// Default 返回会话开始时的文档。
func Default() Document {
	return Document{
		Template:         TemplateQuote,
		AspectRatio:      Ratio1x1,
		GlassMode:        GlassLight,
		GradientIndex:    DefaultGradientIndex,
		QuoteText:        "Design is not just what it looks like. Design is how it works.",
		QuoteAuthor:      "— Steve Jobs",
		QuestionText:     "What makes a great user experience?",
		AnswerText:       "A great UX is invisible — it removes friction and makes complex things feel effortlessly simple.",
		ImageTitle:       "Creative Vision",
		ImageDescription: "Every pixel tells a story. Every detail shapes the experience.",
		SelectedIcon:     "Sparkles",
	}
}

// Text 读取指定文本字段。
func (d Document) Text(f TextField) string {
	switch f {
	case FieldQuoteText:
		return d.QuoteText
	case FieldQuoteAuthor:
		return d.QuoteAuthor
	case FieldQuestionText:
		return d.QuestionText
	case FieldAnswerText:
		return d.AnswerText
	case FieldImageTitle:
		return d.ImageTitle
	case FieldImageDescription:
		return d.ImageDescription
	default:
		return ""
	}
}

// HasBackgroundImage 报告背景图是否覆盖渐变。
func (d Document) HasBackgroundImage() bool { return d.BackgroundImage != "" }

// Gradient 返回当前渐变定义；索引越界时 ok 为 false。
func (d Document) Gradient() (Gradient, bool) {
	if d.GradientIndex < 0 || d.GradientIndex >= len(Gradients) {
		return Gradient{}, false
	}
	return Gradients[d.GradientIndex], true
}
