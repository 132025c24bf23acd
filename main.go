package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"mime"
	"os"
	"path/filepath"

	"github.com/ByLCY/glasscard/card"
	"github.com/ByLCY/glasscard/dsl"
	"github.com/ByLCY/glasscard/editor"
	"github.com/ByLCY/glasscard/export"
	"github.com/ByLCY/glasscard/mutation"
	canvasrenderer "github.com/ByLCY/glasscard/renderer/canvas"
	"github.com/ByLCY/glasscard/resource"
	"github.com/ByLCY/glasscard/surface"
)

// config 汇总命令行参数。
type config struct {
	scriptPath string
	outDir     string
	format     export.Format
	debugPath  string
	scale      float64
}

func main() {
	script := flag.String("script", "examples/demo.card", "编辑事件脚本路径")
	out := flag.String("out", "output", "导出目录")
	format := flag.String("format", "png", "export 未指定格式时使用的格式 (png|jpg)")
	debug := flag.String("debug", "", "可视树调试输出路径（.json 或 .yaml）")
	scale := flag.Float64("scale", export.DefaultScale, "导出倍率（每逻辑像素的设备像素数）")
	verbose := flag.Bool("v", false, "输出调试日志")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	f, err := export.ParseFormat(*format)
	if err != nil {
		log.Fatalf("参数错误: %v", err)
	}
	cfg := config{
		scriptPath: *script,
		outDir:     *out,
		format:     f,
		debugPath:  *debug,
		scale:      *scale,
	}
	results, err := run(context.Background(), cfg, logger)
	if err != nil {
		log.Fatalf("回放编辑脚本失败: %v", err)
	}
	for _, res := range results {
		fmt.Printf("已导出卡片：%s (%dx%d)\n", res.Location, res.Width, res.Height)
	}
}

// run 解析脚本并逐条回放到编辑会话；脚本没有 export 时在末尾导出一次。
func run(ctx context.Context, cfg config, logger *slog.Logger) ([]export.Result, error) {
	file, err := os.Open(cfg.scriptPath)
	if err != nil {
		return nil, fmt.Errorf("无法打开脚本 %s: %w", cfg.scriptPath, err)
	}
	defer file.Close()

	script, err := dsl.ParseScript(file)
	if err != nil {
		return nil, fmt.Errorf("解析脚本失败: %w", err)
	}

	r := canvasrenderer.NewRenderer()
	store := resource.NewStore(resource.Options{Logger: logger})
	exporter := export.NewExporter(export.Options{
		Renderer:  r,
		Resources: store,
		Sink:      export.DirSink{Dir: cfg.outDir},
		Scale:     cfg.scale,
		Logger:    logger,
	})
	session, err := editor.NewSession(editor.Options{
		Typesetter: r,
		Store:      store,
		Exporter:   exporter,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	defer session.Close()

	h := &host{
		session: session,
		baseDir: filepath.Dir(cfg.scriptPath),
		format:  cfg.format,
		logger:  logger,
	}
	for _, cmd := range script.Commands {
		if err := h.apply(ctx, cmd); err != nil {
			return nil, fmt.Errorf("第 %d 行 %s: %w", cmd.Pos.Line, cmd.Kind(), err)
		}
	}
	if len(h.results) == 0 {
		res, err := session.Export(ctx, cfg.format)
		if err != nil {
			return nil, err
		}
		h.results = append(h.results, res)
	}

	if cfg.debugPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.debugPath), 0o755); err != nil {
			return nil, fmt.Errorf("创建调试目录失败: %w", err)
		}
		if err := surface.WriteDebug(session.Tree(), cfg.debugPath); err != nil {
			return nil, fmt.Errorf("输出调试信息失败: %w", err)
		}
	}
	return h.results, nil
}

// host 扮演编辑器界面：把脚本命令翻译为会话调用。
type host struct {
	session *editor.Session
	baseDir string
	format  export.Format
	logger  *slog.Logger
	results []export.Result
}

func (h *host) apply(ctx context.Context, cmd *dsl.Command) error {
	s := h.session
	switch {
	case cmd.Template != "":
		return s.Dispatch(mutation.SelectTemplate{Template: card.Template(cmd.Template)})
	case cmd.Ratio != "":
		return s.Dispatch(mutation.SelectAspectRatio{Ratio: card.AspectRatio(cmd.Ratio)})
	case cmd.Glass != "":
		return s.Dispatch(mutation.SelectGlassMode{Mode: card.GlassMode(cmd.Glass)})
	case cmd.Gradient != nil:
		return s.Dispatch(mutation.SelectGradient{Index: *cmd.Gradient})
	case cmd.Background != nil:
		if cmd.Background.Clear {
			return s.Dispatch(mutation.ClearBackgroundImage{})
		}
		data, ct, err := h.readImage(string(cmd.Background.Path))
		if err != nil {
			return err
		}
		_, err = s.UploadBackground(data, ct)
		return err
	case cmd.CardImage != nil:
		if cmd.CardImage.Clear {
			return s.Dispatch(mutation.ClearCardImage{})
		}
		data, ct, err := h.readImage(string(cmd.CardImage.Path))
		if err != nil {
			return err
		}
		_, err = s.UploadCardImage(data, ct)
		return err
	case cmd.Icon != nil:
		if cmd.Icon.None {
			return s.Dispatch(mutation.SelectIcon{})
		}
		return s.Dispatch(mutation.SelectIcon{Name: cmd.Icon.Name})
	case cmd.Set != nil:
		return s.Dispatch(mutation.EditText{Field: card.TextField(cmd.Set.Field), Value: string(cmd.Set.Value)})
	case len(cmd.Paste) > 0:
		items := make([]editor.ClipboardItem, 0, len(cmd.Paste))
		for _, p := range cmd.Paste {
			data, ct, err := h.readImage(string(p))
			if err != nil {
				return err
			}
			items = append(items, editor.ClipboardItem{ContentType: ct, Data: data})
		}
		ok, err := s.Paste(items)
		if err != nil {
			return err
		}
		if !ok {
			h.logger.Info("paste ignored: no image content", "line", cmd.Pos.Line)
		}
		return nil
	case cmd.Export != nil:
		format := h.format
		if cmd.Export.Format != "" {
			f, err := export.ParseFormat(cmd.Export.Format)
			if err != nil {
				return err
			}
			format = f
		}
		res, err := s.Export(ctx, format)
		if err != nil {
			return err
		}
		h.results = append(h.results, res)
		return nil
	default:
		return fmt.Errorf("未知命令")
	}
}

// readImage 读取脚本引用的文件，内容类型按扩展名推断，真实性由资源存储嗅探。
func (h *host) readImage(path string) ([]byte, string, error) {
	if !filepath.IsAbs(path) {
		path = filepath.Join(h.baseDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("读取文件失败: %w", err)
	}
	return data, mime.TypeByExtension(filepath.Ext(path)), nil
}
