// Package icons 定义卡片可选的装饰图标。
// 每个图标是 24x24 视口内的 SVG 路径数据，以描边方式绘制。
package icons

// ViewBox 是图标路径的坐标边长。
const ViewBox = 24.0

// Icon 描述一个可绘制的图标。
type Icon struct {
	Name string `json:"name" yaml:"name"`
	Path string `json:"path" yaml:"path"`
}

var registry = []Icon{
	{Name: "Sparkles", Path: "M12 3 L13.8 10.2 L21 12 L13.8 13.8 L12 21 L10.2 13.8 L3 12 L10.2 10.2 Z M19 2 L19 6 M17 4 L21 4"},
	{Name: "Star", Path: "M12 2 L15.09 8.26 L22 9.27 L17 14.14 L18.18 21.02 L12 17.77 L5.82 21.02 L7 14.14 L2 9.27 L8.91 8.26 Z"},
	{Name: "Heart", Path: "M12 21 C12 21 3 14.5 3 8.5 C3 5.5 5.5 3 8.5 3 C10.2 3 11.3 4 12 5 C12.7 4 13.8 3 15.5 3 C18.5 3 21 5.5 21 8.5 C21 14.5 12 21 12 21 Z"},
	{Name: "Zap", Path: "M13 2 L3 14 L12 14 L11 22 L21 10 L12 10 Z"},
	{Name: "Sun", Path: "M16 12 A4 4 0 1 1 8 12 A4 4 0 1 1 16 12 Z M12 2 L12 4 M12 20 L12 22 M4.93 4.93 L6.34 6.34 M17.66 17.66 L19.07 19.07 M2 12 L4 12 M20 12 L22 12 M6.34 17.66 L4.93 19.07 M19.07 4.93 L17.66 6.34"},
	{Name: "Moon", Path: "M12 3 A6 6 0 0 0 21 12 A9 9 0 1 1 12 3 Z"},
	{Name: "Quote", Path: "M3 21 C6 21 10 20 10 13 L10 5 L3 5 L3 12 L7 12 C7 16 5 18 3 18 Z M14 21 C17 21 21 20 21 13 L21 5 L14 5 L14 12 L18 12 C18 16 16 18 14 18 Z"},
	{Name: "Lightbulb", Path: "M9 18 L15 18 M10 22 L14 22 M15.09 14 C15.27 13.02 15.74 12.26 16.5 11.5 C17.5 10.5 18 9.3 18 8 A6 6 0 0 0 6 8 C6 9 6.23 10.23 7.5 11.5 C8.26 12.26 8.73 13.02 8.91 14 Z"},
	{Name: "Rocket", Path: "M12 2 C16 5 17 10 15 16 L9 16 C7 10 8 5 12 2 Z M9 16 L6 20 L9 19 M15 16 L18 20 L15 19 M13.5 9 A1.5 1.5 0 1 1 10.5 9 A1.5 1.5 0 1 1 13.5 9 Z"},
	{Name: "Flame", Path: "M12 22 C8 22 5 19 5 15 C5 11 9 8 10 3 C12 6 14 7 15 10 C16 8 16.5 7 17 6 C18.5 8 19 11 19 15 C19 19 16 22 12 22 Z"},
	{Name: "Music", Path: "M9 18 L9 5 L21 3 L21 16 M9 18 A3 3 0 1 1 3 18 A3 3 0 1 1 9 18 Z M21 16 A3 3 0 1 1 15 16 A3 3 0 1 1 21 16 Z"},
	{Name: "Camera", Path: "M4 7 L7 7 L9 4 L15 4 L17 7 L20 7 C21.1 7 22 7.9 22 9 L22 18 C22 19.1 21.1 20 20 20 L4 20 C2.9 20 2 19.1 2 18 L2 9 C2 7.9 2.9 7 4 7 Z M15 13 A3 3 0 1 1 9 13 A3 3 0 1 1 15 13 Z"},
	{Name: "Coffee", Path: "M17 8 L18 8 A4 4 0 0 1 18 16 L17 16 M3 8 L17 8 L17 17 A4 4 0 0 1 13 21 L7 21 A4 4 0 0 1 3 17 Z M6 2 L6 4 M10 2 L10 4 M14 2 L14 4"},
	{Name: "Globe", Path: "M22 12 A10 10 0 1 1 2 12 A10 10 0 1 1 22 12 Z M2 12 L22 12 M12 2 C14.5 4.7 16 8.3 16 12 C16 15.7 14.5 19.3 12 22 C9.5 19.3 8 15.7 8 12 C8 8.3 9.5 4.7 12 2 Z"},
}

var byName = func() map[string]Icon {
	m := make(map[string]Icon, len(registry))
	for _, ic := range registry {
		m[ic.Name] = ic
	}
	return m
}()

// Lookup 按名称查找图标，名称区分大小写。
func Lookup(name string) (Icon, bool) {
	ic, ok := byName[name]
	return ic, ok
}

// Has 报告名称是否在注册表中。
func Has(name string) bool {
	_, ok := byName[name]
	return ok
}

// All 返回注册表副本，顺序即图标选择器的展示顺序。
func All() []Icon {
	out := make([]Icon, len(registry))
	copy(out, registry)
	return out
}
