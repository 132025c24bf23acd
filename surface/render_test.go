package surface

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/ByLCY/glasscard/card"
	"gopkg.in/yaml.v3"
)

// stubTypesetter 是一个最小实现，仅用于测试，避免引入 renderer 造成循环依赖。
// 每个字符按 0.5em 估算宽度，按空格贪心折行。
type stubTypesetter struct{}

func (stubTypesetter) LayoutLines(content string, width float64, font Font, fontSize, lineHeight float64) ([]TextLine, error) {
	words := strings.Fields(content)
	if len(words) == 0 {
		return []TextLine{{Height: fontSize}}, nil
	}
	charW := fontSize * 0.5
	var lines []TextLine
	current := ""
	flush := func() {
		lines = append(lines, TextLine{Content: current, Width: float64(len([]rune(current))) * charW, Height: fontSize})
		current = ""
	}
	for _, w := range words {
		candidate := w
		if current != "" {
			candidate = current + " " + w
		}
		if current != "" && float64(len([]rune(candidate)))*charW > width {
			flush()
			candidate = w
		}
		current = candidate
	}
	flush()
	return lines, nil
}

func render(t *testing.T, doc card.Document) *Tree {
	t.Helper()
	tree, err := Render(doc, Options{Typesetter: stubTypesetter{}})
	if err != nil {
		t.Fatalf("渲染失败: %v", err)
	}
	return tree
}

func glassContent(t *testing.T, tree *Tree) map[string]string {
	t.Helper()
	glass := tree.Find(RegionGlass)
	if glass == nil {
		t.Fatalf("缺少玻璃面板")
	}
	out := map[string]string{}
	for _, tb := range glass.Texts {
		out[tb.Role] = tb.Content
	}
	return out
}

func sampleDocuments() []card.Document {
	var docs []card.Document
	for _, tmpl := range card.Templates() {
		for _, ratio := range card.AspectRatios() {
			for _, mode := range card.GlassModes() {
				d := card.Default().Apply(card.Patch{
					Template:    card.Ptr(tmpl),
					AspectRatio: card.Ptr(ratio),
					GlassMode:   card.Ptr(mode),
				})
				docs = append(docs, d)
			}
		}
	}
	withImages := card.Default().Apply(card.Patch{
		Template:        card.Ptr(card.TemplateImageText),
		BackgroundImage: card.Ptr("ref-bg"),
		CardImage:       card.Ptr("ref-card"),
		SelectedIcon:    card.Null(),
	})
	return append(docs, withImages)
}

func TestRenderDeterministic(t *testing.T) {
	for _, doc := range sampleDocuments() {
		a := render(t, doc)
		b := render(t, doc)
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("同一文档两次渲染结果不同: %+v", doc)
		}
	}
}

func TestDefaultDocumentShowsQuote(t *testing.T) {
	tree := render(t, card.Default())
	got := glassContent(t, tree)
	if got["quoteText"] != "Design is not just what it looks like. Design is how it works." {
		t.Fatalf("quoteText 不符: %q", got["quoteText"])
	}
	if got["quoteAuthor"] != "— Steve Jobs" {
		t.Fatalf("quoteAuthor 不符: %q", got["quoteAuthor"])
	}
	if len(got) != 2 {
		t.Fatalf("quote 模板只应渲染两个字段，实际 %v", got)
	}
	if tree.Root.Fill.Kind != FillGradient {
		t.Fatalf("默认背景应为渐变，实际 %s", tree.Root.Fill.Kind)
	}
}

func TestQATemplateShowsOnlyQAFields(t *testing.T) {
	doc := card.Default().Apply(card.Patch{Template: card.Ptr(card.TemplateQA)})
	got := glassContent(t, render(t, doc))
	if got["questionText"] != doc.QuestionText || got["answerText"] != doc.AnswerText {
		t.Fatalf("qa 字段缺失: %v", got)
	}
	if _, ok := got["quoteText"]; ok {
		t.Fatalf("qa 模板不应渲染 quoteText")
	}
	if _, ok := got["quoteAuthor"]; ok {
		t.Fatalf("qa 模板不应渲染 quoteAuthor")
	}
}

func TestBackgroundImageOverridesGradient(t *testing.T) {
	doc := card.Default().
		Apply(card.Patch{GradientIndex: card.Ptr(2)}).
		Apply(card.Patch{BackgroundImage: card.Ptr("ref-123")})
	tree := render(t, doc)
	fill := tree.Root.Fill
	if fill.Kind != FillImage || fill.Image == nil || fill.Image.Ref != "ref-123" {
		t.Fatalf("背景应为图片 ref-123，实际 %+v", fill)
	}
	if fill.Image.Fit != "cover" {
		t.Fatalf("背景图应为 cover，实际 %q", fill.Image.Fit)
	}
	if tree.Find(RegionOverlay) != nil {
		t.Fatalf("有背景图时不应绘制高光层")
	}
	if doc.GradientIndex != 2 {
		t.Fatalf("渐变索引应保留为 2")
	}
}

func TestIconResolution(t *testing.T) {
	cases := []struct {
		icon string
		want int
	}{
		{icon: "", want: 0},
		{icon: "Sparkles", want: 1},
		{icon: "NoSuchIcon", want: 0},
	}
	for _, tc := range cases {
		doc := card.Default().Apply(card.Patch{SelectedIcon: card.Ptr(tc.icon)})
		glyphs := render(t, doc).Glyphs()
		if len(glyphs) != tc.want {
			t.Fatalf("icon=%q 期望 %d 个图标，实际 %d", tc.icon, tc.want, len(glyphs))
		}
		if tc.want == 1 && glyphs[0].Name != tc.icon {
			t.Fatalf("图标名应为 %s，实际 %s", tc.icon, glyphs[0].Name)
		}
	}
}

func TestAspectRatioGeometry(t *testing.T) {
	for _, ratio := range card.AspectRatios() {
		doc := card.Default().Apply(card.Patch{AspectRatio: card.Ptr(ratio)})
		tree := render(t, doc)
		g := ratio.Geometry()
		want := float64(g.W) / float64(g.H)
		got := tree.Root.Width / tree.Root.Height
		if math.Abs(got-want) > 0.01 {
			t.Fatalf("%s: 宽高比 %g，期望 %g", ratio, got, want)
		}
		if tree.Root.Width > g.MaxWidth {
			t.Fatalf("%s: 宽度 %g 超过上限 %g", ratio, tree.Root.Width, g.MaxWidth)
		}
		glass := tree.Find(RegionGlass)
		if glass.X < 0 || glass.X+glass.Width > tree.Root.Width+1e-9 {
			t.Fatalf("%s: 玻璃面板超出画布", ratio)
		}
		if math.Abs((glass.X+glass.Width/2)-tree.Root.Width/2) > 1e-9 {
			t.Fatalf("%s: 玻璃面板未水平居中", ratio)
		}
	}
}

func TestAspectRatioChangesGeometryOnly(t *testing.T) {
	a := render(t, card.Default())
	b := render(t, card.Default().Apply(card.Patch{AspectRatio: card.Ptr(card.Ratio16x9)}))
	if !reflect.DeepEqual(a.Root.Fill, b.Root.Fill) {
		t.Fatalf("比例不应影响背景绘制")
	}
	ga, gb := a.Find(RegionGlass), b.Find(RegionGlass)
	if !reflect.DeepEqual(ga.Fill, gb.Fill) || !reflect.DeepEqual(ga.Border, gb.Border) {
		t.Fatalf("比例不应影响玻璃面板绘制")
	}
}

func luminance(c Color) float64 {
	return 0.2126*float64(c.R) + 0.7152*float64(c.G) + 0.0722*float64(c.B)
}

func TestGlassModeContrast(t *testing.T) {
	for _, mode := range card.GlassModes() {
		doc := card.Default().Apply(card.Patch{GlassMode: card.Ptr(mode)})
		glass := render(t, doc).Find(RegionGlass)
		fill := luminance(glass.Fill.Color)
		for _, tb := range glass.Texts {
			text := luminance(tb.Color)
			switch mode {
			case card.GlassLight:
				if text >= fill {
					t.Fatalf("浅色玻璃应使用深色文字: text=%g fill=%g", text, fill)
				}
			case card.GlassDark:
				if text <= fill {
					t.Fatalf("深色玻璃应使用浅色文字: text=%g fill=%g", text, fill)
				}
			}
		}
	}
}

// TestTextBoxTotalHeightInvariant 断言：TextBox.Height == Σ(line.Height + line.GapBefore)。
func TestTextBoxTotalHeightInvariant(t *testing.T) {
	doc := card.Default().Apply(card.Patch{Template: card.Ptr(card.TemplateQA)})
	for _, tb := range render(t, doc).Texts() {
		total := 0.0
		for _, ln := range tb.Lines {
			total += ln.GapBefore + ln.Height
		}
		if math.Abs(total-tb.Height) > 1e-6 {
			t.Fatalf("%s: Height=%g Σ=%g", tb.Role, tb.Height, total)
		}
		if tb.Lines[0].GapBefore != 0 {
			t.Fatalf("%s: 首行 GapBefore 必须为 0", tb.Role)
		}
	}
}

func TestImageTextCardImage(t *testing.T) {
	doc := card.Default().Apply(card.Patch{
		Template:        card.Ptr(card.TemplateImageText),
		CardImage:       card.Ptr("ref-card"),
		BackgroundImage: card.Ptr("ref-bg"),
	})
	tree := render(t, doc)
	img := tree.Find(RegionCardImage)
	if img == nil || img.Fill.Image.Ref != "ref-card" {
		t.Fatalf("缺少卡片图片区域")
	}
	if refs := tree.ImageRefs(); !reflect.DeepEqual(refs, []string{"ref-bg", "ref-card"}) {
		t.Fatalf("ImageRefs 不符: %v", refs)
	}

	// 其他模板不渲染卡片图片
	quote := doc.Apply(card.Patch{Template: card.Ptr(card.TemplateQuote)})
	if render(t, quote).Find(RegionCardImage) != nil {
		t.Fatalf("quote 模板不应渲染卡片图片")
	}
}

func TestRenderErrors(t *testing.T) {
	if _, err := Render(card.Default(), Options{}); err == nil {
		t.Fatalf("缺少 Typesetter 应报错")
	}
	bad := card.Default().Apply(card.Patch{GradientIndex: card.Ptr(len(card.Gradients))})
	if _, err := Render(bad, Options{Typesetter: stubTypesetter{}}); err == nil {
		t.Fatalf("渐变索引越界应报错")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	tree := render(t, card.Default())
	cp := tree.Clone()
	if !reflect.DeepEqual(tree, cp) {
		t.Fatalf("克隆结果应与原树相同")
	}
	cp.Find(RegionGlass).Texts[0].Content = "changed"
	if tree.Find(RegionGlass).Texts[0].Content == "changed" {
		t.Fatalf("修改克隆不应影响原树")
	}
}

func TestWriteDebug(t *testing.T) {
	tree := render(t, card.Default())
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "tree.json")
	if err := WriteDebug(tree, jsonPath); err != nil {
		t.Fatalf("写入 JSON 失败: %v", err)
	}
	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("读取 JSON 失败: %v", err)
	}
	var decoded Tree
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("JSON 无法解析: %v", err)
	}
	if decoded.Root.Name != RegionCanvas || decoded.Width != tree.Width {
		t.Fatalf("JSON 内容不符: %+v", decoded.Root.Name)
	}

	yamlPath := filepath.Join(dir, "tree.yaml")
	if err := WriteDebug(tree, yamlPath); err != nil {
		t.Fatalf("写入 YAML 失败: %v", err)
	}
	raw, err = os.ReadFile(yamlPath)
	if err != nil {
		t.Fatalf("读取 YAML 失败: %v", err)
	}
	var generic map[string]any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		t.Fatalf("YAML 无法解析: %v", err)
	}
	if _, ok := generic["root"]; !ok {
		t.Fatalf("YAML 缺少 root 字段")
	}
}

// 调用方修改返回的树不能影响之后的渲染结果。
func TestRenderReturnsIndependentGradients(t *testing.T) {
	doc := card.Default()
	first := render(t, doc)
	want := first.Root.Fill.Gradients[0].Stops[0].Color

	first.Root.Fill.Gradients[0].Stops[0].Color.R ^= 0xff
	overlay := first.Find(RegionOverlay)
	if overlay == nil {
		t.Fatalf("缺少叠加层")
	}
	overlay.Fill.Gradients[0].Stops[0].Color.A = 0.123

	second := render(t, doc)
	if got := second.Root.Fill.Gradients[0].Stops[0].Color; got != want {
		t.Fatalf("调色板被修改: got %+v want %+v", got, want)
	}
	if got := second.Find(RegionOverlay).Fill.Gradients[0].Stops[0].Color.A; got == 0.123 {
		t.Fatalf("叠加层渐变被修改")
	}
}
