package dsl

import (
	"fmt"
	"io"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// 编辑器事件脚本：每行一个 UI 事件，由宿主程序回放到 Mutation Channel。
//
//	template qa
//	ratio 16:9
//	background "photo.jpg"
//	set quoteText "Stay hungry."
//	export jpg

var (
	scriptLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "Ratio", Pattern: `\d+:\d+`},
		{Name: "Number", Pattern: `\d+`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
	})

	scriptParser = participle.MustBuild[Script](
		participle.Lexer(scriptLexer),
		participle.Elide("Whitespace", "LineComment", "HashComment"),
	)
)

// Script 是事件脚本的根节点。
type Script struct {
	Commands []*Command `parser:"Newline* ( @@ Newline* )*"`
}

// Command 对应一个 UI 事件。
type Command struct {
	Pos lexer.Position `parser:"" json:"-"`

	Template   string          `parser:"  'template' @Ident"`
	Ratio      string          `parser:"| 'ratio' @Ratio"`
	Glass      string          `parser:"| 'glass' @Ident"`
	Gradient   *int            `parser:"| 'gradient' @Number"`
	Background *ImageSource    `parser:"| 'background' @@"`
	CardImage  *ImageSource    `parser:"| 'card-image' @@"`
	Icon       *IconChoice     `parser:"| 'icon' @@"`
	Set        *TextEdit       `parser:"| 'set' @@"`
	Paste      []StringLiteral `parser:"| 'paste' @String+"`
	Export     *ExportRequest  `parser:"| @@"`
}

// ImageSource 为图片上传（文件路径）或清除。
type ImageSource struct {
	Clear bool          `parser:"  @'clear'"`
	Path  StringLiteral `parser:"| @String"`
}

// IconChoice 为图标名或 none。
type IconChoice struct {
	None bool   `parser:"  @'none'"`
	Name string `parser:"| @Ident"`
}

// TextEdit 修改一个文本字段。
type TextEdit struct {
	Field string        `parser:"@Ident"`
	Value StringLiteral `parser:"@String"`
}

// ExportRequest 触发一次导出，格式缺省时由宿主决定。
type ExportRequest struct {
	Keyword bool   `parser:"@'export'"`
	Format  string `parser:"@( 'png' | 'jpg' | 'jpeg' )?"`
}

// Kind 返回命令类型，便于日志与错误信息。
func (c *Command) Kind() string {
	switch {
	case c == nil:
		return "unknown"
	case c.Template != "":
		return "template"
	case c.Ratio != "":
		return "ratio"
	case c.Glass != "":
		return "glass"
	case c.Gradient != nil:
		return "gradient"
	case c.Background != nil:
		return "background"
	case c.CardImage != nil:
		return "card-image"
	case c.Icon != nil:
		return "icon"
	case c.Set != nil:
		return "set"
	case len(c.Paste) > 0:
		return "paste"
	case c.Export != nil:
		return "export"
	default:
		return "unknown"
	}
}

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// ParseScript 从 io.Reader 解析事件脚本。
func ParseScript(r io.Reader) (*Script, error) {
	return scriptParser.Parse("", r)
}

// ParseScriptString 从字符串解析事件脚本。
func ParseScriptString(input string) (*Script, error) {
	return scriptParser.ParseString("", input)
}
