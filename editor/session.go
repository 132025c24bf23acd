package editor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ByLCY/glasscard/card"
	"github.com/ByLCY/glasscard/export"
	"github.com/ByLCY/glasscard/mutation"
	"github.com/ByLCY/glasscard/resource"
	"github.com/ByLCY/glasscard/surface"
)

// ErrClosed 表示会话已关闭。
var ErrClosed = errors.New("编辑会话已关闭")

// Options 配置编辑会话。
type Options struct {
	// Typesetter 用于实时预览的文本排版，必填。
	Typesetter surface.Typesetter
	// Store 保存上传与粘贴的图片，缺省新建。
	Store *resource.Store
	// Exporter 缺省使用以 Store 为资源来源的导出器。
	Exporter *export.Exporter
	// Initial 为空时使用 card.Default()。
	Initial *card.Document
	Logger  *slog.Logger
}

// ClipboardItem 是一次粘贴中的一项内容。
type ClipboardItem struct {
	ContentType string
	Data        []byte
}

// Listener 在每次提交后收到新的文档与可视树。
type Listener func(card.Document, *surface.Tree)

// Session 持有当前文档，是修改文档的唯一入口。
// 文档引用的每张图片由会话持有一个资源句柄，不再被引用时立即释放。
type Session struct {
	typesetter surface.Typesetter
	store      *resource.Store
	exporter   *export.Exporter
	logger     *slog.Logger

	mu        sync.Mutex
	doc       card.Document
	tree      *surface.Tree
	handles   map[string]*resource.Handle
	listeners map[int]Listener
	nextID    int
	closed    bool
}

// NewSession 创建会话并渲染初始预览。
func NewSession(opts Options) (*Session, error) {
	if opts.Typesetter == nil {
		return nil, fmt.Errorf("editor: 缺少排版后端 Typesetter")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	store := opts.Store
	if store == nil {
		store = resource.NewStore(resource.Options{Logger: logger})
	}
	exporter := opts.Exporter
	if exporter == nil {
		exporter = export.NewExporter(export.Options{Resources: store, Logger: logger})
	}
	doc := card.Default()
	if opts.Initial != nil {
		doc = *opts.Initial
	}

	s := &Session{
		typesetter: opts.Typesetter,
		store:      store,
		exporter:   exporter,
		logger:     logger,
		doc:        doc,
		handles:    map[string]*resource.Handle{},
		listeners:  map[int]Listener{},
	}
	for _, ref := range imageRefs(doc) {
		h, err := store.Retain(ref)
		if err != nil {
			s.releaseAll()
			return nil, fmt.Errorf("editor: 初始文档引用的图片: %w", err)
		}
		s.handles[ref] = h
	}
	tree, err := surface.Render(doc, surface.Options{Typesetter: s.typesetter})
	if err != nil {
		s.releaseAll()
		return nil, fmt.Errorf("editor: 渲染初始文档: %w", err)
	}
	s.tree = tree
	return s, nil
}

// Dispatch 应用一个动作：归约、提交、释放被替换的图片并重新渲染预览。
// 失败时文档保持不变。
func (s *Session) Dispatch(action mutation.Action) error {
	return s.dispatch(action, nil)
}

// UploadBackground 把上传的图片设为背景。
func (s *Session) UploadBackground(data []byte, contentType string) (string, error) {
	return s.upload(data, contentType, func(ref string) mutation.Action {
		return mutation.SetBackgroundImage{Ref: ref}
	})
}

// UploadCardImage 把上传的图片设为卡片内图片。
func (s *Session) UploadCardImage(data []byte, contentType string) (string, error) {
	return s.upload(data, contentType, func(ref string) mutation.Action {
		return mutation.SetCardImage{Ref: ref}
	})
}

// Paste 取第一项图片内容并按模板路由；没有图片时忽略本次粘贴并返回 false。
func (s *Session) Paste(items []ClipboardItem) (bool, error) {
	for _, item := range items {
		if !resource.IsImage(item.Data, item.ContentType) {
			continue
		}
		if _, err := s.upload(item.Data, item.ContentType, func(ref string) mutation.Action {
			return mutation.PasteImage{Ref: ref}
		}); err != nil {
			return false, err
		}
		return true, nil
	}
	s.logger.Debug("paste ignored", "items", len(items))
	return false, nil
}

func (s *Session) upload(data []byte, contentType string, action func(ref string) mutation.Action) (string, error) {
	h, err := s.store.Allocate(data, contentType)
	if err != nil {
		return "", err
	}
	if err := s.dispatch(action(h.Ref()), h); err != nil {
		h.Release()
		return "", err
	}
	return h.Ref(), nil
}

// dispatch 在锁内完成一次提交；adopt 为调用方新分配、由会话接管的句柄。
func (s *Session) dispatch(action mutation.Action, adopt *resource.Handle) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}

	patch, err := mutation.Reduce(s.doc, action)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	next := s.doc.Apply(patch)

	// 先确认新文档引用的图片都可用，再渲染；任何失败都不提交
	acquired := map[string]*resource.Handle{}
	rollback := func() {
		for _, h := range acquired {
			h.Release()
		}
	}
	for _, ref := range imageRefs(next) {
		if _, owned := s.handles[ref]; owned {
			continue
		}
		if adopt != nil && adopt.Ref() == ref {
			continue
		}
		h, err := s.store.Retain(ref)
		if err != nil {
			rollback()
			s.mu.Unlock()
			return fmt.Errorf("%s: %w", action, err)
		}
		acquired[ref] = h
	}
	tree, err := surface.Render(next, surface.Options{Typesetter: s.typesetter})
	if err != nil {
		rollback()
		s.mu.Unlock()
		return fmt.Errorf("%s: %w", action, err)
	}

	if adopt != nil {
		acquired[adopt.Ref()] = adopt
	}
	for ref, h := range acquired {
		s.handles[ref] = h
	}
	s.doc = next
	s.tree = tree
	s.releaseUnused()

	doc, listeners := s.doc, s.snapshotListeners()
	s.mu.Unlock()

	s.logger.Debug("action applied", "action", action.String())
	for _, fn := range listeners {
		fn(doc, tree)
	}
	return nil
}

// releaseUnused 释放当前文档不再引用的句柄，调用方须持有锁。
func (s *Session) releaseUnused() {
	live := map[string]bool{}
	for _, ref := range imageRefs(s.doc) {
		live[ref] = true
	}
	for ref, h := range s.handles {
		if live[ref] {
			continue
		}
		h.Release()
		delete(s.handles, ref)
		s.logger.Debug("image released", "ref", ref)
	}
}

func (s *Session) releaseAll() {
	for ref, h := range s.handles {
		h.Release()
		delete(s.handles, ref)
	}
}

func (s *Session) snapshotListeners() []Listener {
	out := make([]Listener, 0, len(s.listeners))
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.listeners[id]; ok {
			out = append(out, fn)
		}
	}
	return out
}

// Document 返回当前文档快照。
func (s *Session) Document() card.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Tree 返回当前预览的可视树，调用方不得修改。
func (s *Session) Tree() *surface.Tree {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree
}

// Subscribe 注册预览监听器，返回取消函数。
func (s *Session) Subscribe(fn Listener) (cancel func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Exporter 返回会话使用的导出器。
func (s *Session) Exporter() *export.Exporter { return s.exporter }

// Export 以调用时刻的预览为快照导出；之后的编辑不会影响结果。
func (s *Session) Export(ctx context.Context, format export.Format) (export.Result, error) {
	job, err := s.BeginExport(format)
	if err != nil {
		return export.Result{}, err
	}
	return job.Run(ctx)
}

// BeginExport 只完成导出的同步阶段，供需要在导出期间继续编辑的调用方使用。
func (s *Session) BeginExport(format export.Format) (*export.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	return s.exporter.Begin(s.tree, format)
}

// Close 释放会话持有的全部图片。进行中的导出各自持有引用，不受影响。
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.releaseAll()
	s.listeners = map[int]Listener{}
}

func imageRefs(doc card.Document) []string {
	var refs []string
	if doc.BackgroundImage != "" {
		refs = append(refs, doc.BackgroundImage)
	}
	if doc.CardImage != "" && doc.CardImage != doc.BackgroundImage {
		refs = append(refs, doc.CardImage)
	}
	return refs
}
