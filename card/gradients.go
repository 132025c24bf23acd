package card

// Gradient 是调色板中的一项，CSS 为类 CSS 的背景描述，由 dsl.ParseBackground 解析。
type Gradient struct {
	Name string `json:"name" yaml:"name"`
	CSS  string `json:"css" yaml:"css"`
}

// Gradients 是固定且有序的渐变调色板，Document.GradientIndex 指向其中一项。
var Gradients = []Gradient{
	{Name: "Violet Dream", CSS: "linear-gradient(135deg, #667eea 0%, #764ba2 100%)"},
	{Name: "Sunset", CSS: "linear-gradient(135deg, #f093fb 0%, #f5576c 100%)"},
	{Name: "Ocean", CSS: "linear-gradient(135deg, #4facfe 0%, #00f2fe 100%)"},
	{Name: "Mint", CSS: "linear-gradient(135deg, #43e97b 0%, #38f9d7 100%)"},
	{Name: "Peach", CSS: "linear-gradient(135deg, #fa709a 0%, #fee140 100%)"},
	{Name: "Midnight", CSS: "linear-gradient(135deg, #0f0c29 0%, #302b63 50%, #24243e 100%)"},
	{Name: "Aurora", CSS: "linear-gradient(135deg, #8b5cf6 0%, #a855f7 35%, #ec4899 70%, #f97316 100%)"},
	{Name: "Cosmic", CSS: "linear-gradient(160deg, #1a1a2e 0%, #16213e 40%, #0f3460 100%)"},
	{Name: "Rose Gold", CSS: "linear-gradient(135deg, #f6d365 0%, #fda085 100%)"},
	{Name: "Northern", CSS: "linear-gradient(120deg, #00c9ff 0%, #92fe9d 100%)"},
	{Name: "Berry", CSS: "linear-gradient(135deg, #8e2de2 0%, #4a00e0 100%)"},
	{Name: "Ember", CSS: "linear-gradient(45deg, #ff512f 0%, #dd2476 100%)"},
}

// GradientOverlayCSS 是无背景图时叠加在渐变之上的径向高光。
const GradientOverlayCSS = "radial-gradient(ellipse at 30% 20%, rgba(255,255,255,0.15) 0%, transparent 60%), radial-gradient(ellipse at 80% 80%, rgba(255,255,255,0.08) 0%, transparent 50%)"

// GradientOverlayOpacity 是高光层整体不透明度。
const GradientOverlayOpacity = 0.4
