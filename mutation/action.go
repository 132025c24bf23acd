package mutation

import (
	"fmt"

	"github.com/ByLCY/glasscard/card"
)

// Action 是编辑器允许的全部变更意图；集合是封闭的。
type Action interface {
	isAction()
	fmt.Stringer
}

// SelectTemplate 切换模板，文本字段全部保留。
type SelectTemplate struct{ Template card.Template }

// SelectAspectRatio 切换画布比例。
type SelectAspectRatio struct{ Ratio card.AspectRatio }

// SelectGlassMode 切换玻璃模式。
type SelectGlassMode struct{ Mode card.GlassMode }

// SelectGradient 选择调色板中的渐变，同时清除背景图。
type SelectGradient struct{ Index int }

// SetBackgroundImage 设置背景图引用。
type SetBackgroundImage struct{ Ref string }

// ClearBackgroundImage 清除背景图。
type ClearBackgroundImage struct{}

// SetCardImage 设置卡片内图片引用（仅 image-text 模板渲染）。
type SetCardImage struct{ Ref string }

// ClearCardImage 清除卡片内图片。
type ClearCardImage struct{}

// SelectIcon 选择装饰图标，Name 为空表示不显示。
type SelectIcon struct{ Name string }

// EditText 修改一个文本字段。
type EditText struct {
	Field card.TextField
	Value string
}

// PasteImage 把粘贴得到的图片路由到当前模板对应的槽位。
type PasteImage struct{ Ref string }

func (SelectTemplate) isAction()       {}
func (SelectAspectRatio) isAction()    {}
func (SelectGlassMode) isAction()      {}
func (SelectGradient) isAction()       {}
func (SetBackgroundImage) isAction()   {}
func (ClearBackgroundImage) isAction() {}
func (SetCardImage) isAction()         {}
func (ClearCardImage) isAction()       {}
func (SelectIcon) isAction()           {}
func (EditText) isAction()             {}
func (PasteImage) isAction()           {}

func (a SelectTemplate) String() string     { return "template " + string(a.Template) }
func (a SelectAspectRatio) String() string  { return "ratio " + string(a.Ratio) }
func (a SelectGlassMode) String() string    { return "glass " + string(a.Mode) }
func (a SelectGradient) String() string     { return fmt.Sprintf("gradient %d", a.Index) }
func (a SetBackgroundImage) String() string { return "background " + a.Ref }
func (ClearBackgroundImage) String() string { return "background clear" }
func (a SetCardImage) String() string       { return "card-image " + a.Ref }
func (ClearCardImage) String() string       { return "card-image clear" }
func (a EditText) String() string           { return "set " + string(a.Field) }
func (a PasteImage) String() string         { return "paste " + a.Ref }

func (a SelectIcon) String() string {
	if a.Name == "" {
		return "icon none"
	}
	return "icon " + a.Name
}
