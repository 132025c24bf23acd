package renderer

import (
	"image"

	"github.com/ByLCY/glasscard/surface"
)

// Renderer 将可视树光栅化为位图。
// images 以资源引用为键，调用方需保证树中引用的图片均已加载完成；
// scale 为每逻辑像素对应的设备像素数（导出时为 2）。
type Renderer interface {
	Rasterize(tree *surface.Tree, images map[string]image.Image, scale float64) (*image.RGBA, error)
}

// FontLoader 由需要在光栅化前加载字体的渲染器实现。
type FontLoader interface {
	LoadFonts() error
}
