package surface

// Options 配置渲染阶段所需的依赖，例如排版后端。
type Options struct {
	Typesetter Typesetter
}

// Typesetter 负责根据字体与宽度约束将文本拆成可绘制的行。
// fontSize/lineHeight/width 均为逻辑像素。
type Typesetter interface {
	LayoutLines(content string, width float64, font Font, fontSize float64, lineHeight float64) ([]TextLine, error)
}
