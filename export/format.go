package export

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"strings"
)

// Format 是导出文件的编码格式。
type Format string

const (
	FormatPNG Format = "png"
	FormatJPG Format = "jpg"
)

// ParseFormat 解析格式名，接受 jpeg 作为 jpg 的别名，空串视为 png。
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPG, nil
	default:
		return "", fmt.Errorf("不支持的导出格式 %q", s)
	}
}

// Valid 判断格式是否受支持。
func (f Format) Valid() bool { return f == FormatPNG || f == FormatJPG }

// Ext 返回不带点的扩展名。
func (f Format) Ext() string { return string(f) }

// ContentType 返回 MIME 类型。
func (f Format) ContentType() string {
	if f == FormatJPG {
		return "image/jpeg"
	}
	return "image/png"
}

// Encode 按格式编码位图；JPEG 没有透明通道，先铺白底再合成。
func Encode(img image.Image, f Format, quality int) ([]byte, error) {
	var buf bytes.Buffer
	switch f {
	case FormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("PNG 编码失败: %w", err)
		}
	case FormatJPG:
		if quality <= 0 || quality > 100 {
			quality = DefaultJPEGQuality
		}
		if err := jpeg.Encode(&buf, flatten(img, color.White), &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("JPEG 编码失败: %w", err)
		}
	default:
		return nil, fmt.Errorf("不支持的导出格式 %q", f)
	}
	return buf.Bytes(), nil
}

func flatten(img image.Image, bg color.Color) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(b)
	draw.Draw(out, b, image.NewUniform(bg), image.Point{}, draw.Src)
	draw.Draw(out, b, img, b.Min, draw.Over)
	return out
}
