package export

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ByLCY/glasscard/renderer"
	canvasrenderer "github.com/ByLCY/glasscard/renderer/canvas"
	"github.com/ByLCY/glasscard/resource"
	"github.com/ByLCY/glasscard/surface"
)

var (
	// ErrExportInProgress 表示已有导出在进行，本次请求被忽略。
	ErrExportInProgress = errors.New("导出正在进行")
	// ErrExportFailed 包装导出过程中的任意失败；此时不会写出文件。
	ErrExportFailed = errors.New("导出失败")
)

const (
	DefaultScale       = 2.0
	DefaultJPEGQuality = 95
	DefaultBaseName    = "liquid-glass-card"
)

// State 是导出器的状态。
type State int

const (
	Idle State = iota
	Exporting
)

func (s State) String() string {
	if s == Exporting {
		return "exporting"
	}
	return "idle"
}

// Resources 提供导出所需的图片：Retain 锁定快照引用的资源，Load 等待其解码完成。
type Resources interface {
	Retain(ref string) (*resource.Handle, error)
	Load(ctx context.Context, ref string) (image.Image, error)
}

// Options 配置导出器。
type Options struct {
	Renderer    renderer.Renderer // 缺省使用 canvas 渲染器
	Resources   Resources
	Sink        Sink    // 缺省写入当前目录
	Scale       float64 // 每逻辑像素的设备像素数
	JPEGQuality int
	BaseName    string
	Logger      *slog.Logger
}

// Result 描述一次成功的导出。
type Result struct {
	Name     string
	Location string
	Format   Format
	Width    int
	Height   int
	Bytes    int
}

// Exporter 把可视树快照栅格化、编码并保存。同一时刻最多一个导出在进行。
type Exporter struct {
	opts Options
	busy atomic.Bool
}

// NewExporter 创建导出器并补全缺省配置。
func NewExporter(opts Options) *Exporter {
	if opts.Renderer == nil {
		opts.Renderer = canvasrenderer.NewRenderer()
	}
	if opts.Sink == nil {
		opts.Sink = DirSink{Dir: "."}
	}
	if opts.Scale <= 0 {
		opts.Scale = DefaultScale
	}
	if opts.JPEGQuality <= 0 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = DefaultJPEGQuality
	}
	if opts.BaseName == "" {
		opts.BaseName = DefaultBaseName
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Exporter{opts: opts}
}

// State 返回当前状态。
func (e *Exporter) State() State {
	if e.busy.Load() {
		return Exporting
	}
	return Idle
}

// FileName 返回某格式对应的导出文件名。
func (e *Exporter) FileName(f Format) string {
	return e.opts.BaseName + "." + f.Ext()
}

// Job 是已开始但尚未完成的导出，持有快照及其图片资源。
type Job struct {
	exp     *Exporter
	tree    *surface.Tree
	format  Format
	handles []*resource.Handle
	started time.Time
	once    sync.Once
}

// Begin 同步进入 Exporting 状态并锁定快照：之后对文档的修改不会影响本次导出。
func (e *Exporter) Begin(tree *surface.Tree, format Format) (*Job, error) {
	if !e.busy.CompareAndSwap(false, true) {
		e.opts.Logger.Info("export ignored", "reason", "in progress")
		return nil, ErrExportInProgress
	}
	if tree == nil {
		e.busy.Store(false)
		return nil, e.beginFailed(fmt.Errorf("%w: 可视树为空", ErrExportFailed), format)
	}
	if !format.Valid() {
		e.busy.Store(false)
		return nil, e.beginFailed(fmt.Errorf("%w: 不支持的导出格式 %q", ErrExportFailed, format), format)
	}

	job := &Job{exp: e, tree: tree.Clone(), format: format, started: time.Now()}
	for _, ref := range job.tree.ImageRefs() {
		if e.opts.Resources == nil {
			job.finish()
			return nil, e.beginFailed(fmt.Errorf("%w: 缺少资源存储，无法加载 %s", ErrExportFailed, ref), format)
		}
		h, err := e.opts.Resources.Retain(ref)
		if err != nil {
			job.finish()
			return nil, e.beginFailed(fmt.Errorf("%w: %w", ErrExportFailed, err), format)
		}
		job.handles = append(job.handles, h)
	}
	e.opts.Logger.Debug("export begin", "format", format, "images", len(job.handles))
	return job, nil
}

func (e *Exporter) beginFailed(err error, format Format) error {
	e.opts.Logger.Error("export failed", "stage", "begin", "format", format, "error", err)
	return err
}

// Tree 返回本次导出使用的快照。
func (j *Job) Tree() *surface.Tree { return j.tree }

// Run 等待资源与字体就绪后完成导出。无论成败，结束后导出器回到 Idle。
func (j *Job) Run(ctx context.Context) (Result, error) {
	defer j.finish()
	e := j.exp

	res, err := j.run(ctx)
	if err != nil {
		e.opts.Logger.Error("export failed", "format", j.format, "error", err)
		return Result{}, fmt.Errorf("%w: %w", ErrExportFailed, err)
	}
	e.opts.Logger.Info("export saved",
		"file", res.Location,
		"size", fmt.Sprintf("%dx%d", res.Width, res.Height),
		"bytes", res.Bytes,
		"elapsed", time.Since(j.started).Round(time.Millisecond),
	)
	return res, nil
}

func (j *Job) run(ctx context.Context) (Result, error) {
	e := j.exp

	images := make(map[string]image.Image, len(j.handles))
	for _, h := range j.handles {
		img, err := e.opts.Resources.Load(ctx, h.Ref())
		if err != nil {
			return Result{}, fmt.Errorf("加载图片 %s: %w", h.Ref(), err)
		}
		images[h.Ref()] = img
	}
	if fl, ok := e.opts.Renderer.(renderer.FontLoader); ok {
		if err := fl.LoadFonts(); err != nil {
			return Result{}, fmt.Errorf("加载字体: %w", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	bitmap, err := e.opts.Renderer.Rasterize(j.tree, images, e.opts.Scale)
	if err != nil {
		return Result{}, fmt.Errorf("栅格化: %w", err)
	}
	data, err := Encode(bitmap, j.format, e.opts.JPEGQuality)
	if err != nil {
		return Result{}, err
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	name := e.FileName(j.format)
	loc, err := e.opts.Sink.Save(name, data)
	if err != nil {
		return Result{}, err
	}
	b := bitmap.Bounds()
	return Result{
		Name:     name,
		Location: loc,
		Format:   j.format,
		Width:    b.Dx(),
		Height:   b.Dy(),
		Bytes:    len(data),
	}, nil
}

// Discard 放弃尚未运行的导出并释放资源。
func (j *Job) Discard() { j.finish() }

func (j *Job) finish() {
	j.once.Do(func() {
		for _, h := range j.handles {
			h.Release()
		}
		j.exp.busy.Store(false)
	})
}

// Export 等价于 Begin 后立即 Run。
func (e *Exporter) Export(ctx context.Context, tree *surface.Tree, format Format) (Result, error) {
	job, err := e.Begin(tree, format)
	if err != nil {
		return Result{}, err
	}
	return job.Run(ctx)
}
