package mutation

import (
	"errors"
	"fmt"

	"github.com/ByLCY/glasscard/card"
	"github.com/ByLCY/glasscard/icons"
)

// ErrInvalidSelection 表示取值不在对应枚举或注册表内；文档保持不变。
var ErrInvalidSelection = errors.New("无效的选择")

// Reduce 把一个动作翻译为针对 doc 的补丁。
// 纯函数：不修改 doc，也不访问资源存储。
func Reduce(doc card.Document, action Action) (card.Patch, error) {
	switch a := action.(type) {
	case SelectTemplate:
		if !a.Template.Valid() {
			return card.Patch{}, invalid("模板", a.Template)
		}
		return card.Patch{Template: card.Ptr(a.Template)}, nil

	case SelectAspectRatio:
		if !a.Ratio.Valid() {
			return card.Patch{}, invalid("画布比例", a.Ratio)
		}
		return card.Patch{AspectRatio: card.Ptr(a.Ratio)}, nil

	case SelectGlassMode:
		if !a.Mode.Valid() {
			return card.Patch{}, invalid("玻璃模式", a.Mode)
		}
		return card.Patch{GlassMode: card.Ptr(a.Mode)}, nil

	case SelectGradient:
		if a.Index < 0 || a.Index >= len(card.Gradients) {
			return card.Patch{}, invalid("渐变序号", a.Index)
		}
		// 选择渐变意味着放弃背景图，反向操作不清除渐变序号
		return card.Patch{GradientIndex: card.Ptr(a.Index), BackgroundImage: card.Null()}, nil

	case SetBackgroundImage:
		if a.Ref == "" {
			return card.Patch{}, invalid("背景图引用", a.Ref)
		}
		return card.Patch{BackgroundImage: card.Ptr(a.Ref)}, nil

	case ClearBackgroundImage:
		return card.Patch{BackgroundImage: card.Null()}, nil

	case SetCardImage:
		if a.Ref == "" {
			return card.Patch{}, invalid("卡片图片引用", a.Ref)
		}
		return card.Patch{CardImage: card.Ptr(a.Ref)}, nil

	case ClearCardImage:
		return card.Patch{CardImage: card.Null()}, nil

	case SelectIcon:
		if a.Name != "" && !icons.Has(a.Name) {
			return card.Patch{}, invalid("图标", a.Name)
		}
		return card.Patch{SelectedIcon: card.Ptr(a.Name)}, nil

	case EditText:
		if !a.Field.Valid() {
			return card.Patch{}, invalid("文本字段", a.Field)
		}
		return card.TextPatch(a.Field, a.Value), nil

	case PasteImage:
		if a.Ref == "" {
			return card.Patch{}, invalid("粘贴图片引用", a.Ref)
		}
		if doc.Template == card.TemplateImageText {
			return card.Patch{CardImage: card.Ptr(a.Ref)}, nil
		}
		return card.Patch{BackgroundImage: card.Ptr(a.Ref)}, nil

	case nil:
		return card.Patch{}, fmt.Errorf("动作为空: %w", ErrInvalidSelection)
	default:
		return card.Patch{}, fmt.Errorf("不支持的动作 %T: %w", action, ErrInvalidSelection)
	}
}

func invalid(what string, v any) error {
	return fmt.Errorf("%s %v: %w", what, v, ErrInvalidSelection)
}
