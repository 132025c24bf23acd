package card

// Patch 描述对 Document 的部分更新：nil 字段表示不修改。
// 图片与图标字段指向空字符串时表示清空。
type Patch struct {
	Template      *Template    `json:"template,omitempty"`
	AspectRatio   *AspectRatio `json:"aspectRatio,omitempty"`
	GlassMode     *GlassMode   `json:"glassMode,omitempty"`
	GradientIndex *int         `json:"gradientIndex,omitempty"`

	BackgroundImage *string `json:"backgroundImage,omitempty"`
	CardImage       *string `json:"cardImage,omitempty"`

	QuoteText        *string `json:"quoteText,omitempty"`
	QuoteAuthor      *string `json:"quoteAuthor,omitempty"`
	QuestionText     *string `json:"questionText,omitempty"`
	AnswerText       *string `json:"answerText,omitempty"`
	ImageTitle       *string `json:"imageTitle,omitempty"`
	ImageDescription *string `json:"imageDescription,omitempty"`

	SelectedIcon *string `json:"selectedIcon,omitempty"`
}

// Ptr 便于构造 Patch 字段。
func Ptr[T any](v T) *T { return &v }

// Null 返回表示“清空”的引用值。
func Null() *string { return Ptr("") }

// TextPatch 构造只修改一个文本字段的 Patch；未知字段返回空 Patch。
func TextPatch(f TextField, value string) Patch {
	var p Patch
	v := &value
	switch f {
	case FieldQuoteText:
		p.QuoteText = v
	case FieldQuoteAuthor:
		p.QuoteAuthor = v
	case FieldQuestionText:
		p.QuestionText = v
	case FieldAnswerText:
		p.AnswerText = v
	case FieldImageTitle:
		p.ImageTitle = v
	case FieldImageDescription:
		p.ImageDescription = v
	}
	return p
}

// IsEmpty 报告 Patch 是否不包含任何字段。
func (p Patch) IsEmpty() bool {
	return p == Patch{}
}

// Apply 将 patch 合并到 d 的副本上并返回新快照。
// 这里不做任何校验：取值合法性由 Mutation Channel 保证。
func (d Document) Apply(p Patch) Document {
	next := d
	if p.Template != nil {
		next.Template = *p.Template
	}
	if p.AspectRatio != nil {
		next.AspectRatio = *p.AspectRatio
	}
	if p.GlassMode != nil {
		next.GlassMode = *p.GlassMode
	}
	if p.GradientIndex != nil {
		next.GradientIndex = *p.GradientIndex
	}
	if p.BackgroundImage != nil {
		next.BackgroundImage = *p.BackgroundImage
	}
	if p.CardImage != nil {
		next.CardImage = *p.CardImage
	}
	if p.QuoteText != nil {
		next.QuoteText = *p.QuoteText
	}
	if p.QuoteAuthor != nil {
		next.QuoteAuthor = *p.QuoteAuthor
	}
	if p.QuestionText != nil {
		next.QuestionText = *p.QuestionText
	}
	if p.AnswerText != nil {
		next.AnswerText = *p.AnswerText
	}
	if p.ImageTitle != nil {
		next.ImageTitle = *p.ImageTitle
	}
	if p.ImageDescription != nil {
		next.ImageDescription = *p.ImageDescription
	}
	if p.SelectedIcon != nil {
		next.SelectedIcon = *p.SelectedIcon
	}
	return next
}

// Apply 是 Document.Apply 的函数形式。
func Apply(d Document, p Patch) Document { return d.Apply(p) }
