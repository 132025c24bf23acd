package resource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	_ "golang.org/x/image/webp"
)

// 资源存储保存上传/粘贴得到的图片数据，文档中只记录 blob:<uuid> 引用。
// 引用计数归零时立即释放底层数据，之后该引用失效。

var (
	// ErrNotImage 表示数据不是可解码的图片。
	ErrNotImage = errors.New("内容不是受支持的图片")
	// ErrUnknownRef 表示引用不存在或已被释放。
	ErrUnknownRef = errors.New("未知的资源引用")
)

// RefPrefix 是资源引用的统一前缀。
const RefPrefix = "blob:"

// decodable 列出能被 Load 解码的嗅探类型。
var decodable = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// Options 配置资源存储。
type Options struct {
	Logger *slog.Logger
}

// Store 是带引用计数的图片资源表，可被多个 goroutine 共享。
type Store struct {
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	data        []byte
	contentType string
	refs        int

	once sync.Once
	img  image.Image
	err  error
}

// NewStore 创建空的资源存储。
func NewStore(opts Options) *Store {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{logger: logger, entries: map[string]*entry{}}
}

// IsImage 判断数据是否为可解码图片；声明类型非空时还要求以 image/ 开头。
func IsImage(data []byte, contentType string) bool {
	if len(data) == 0 {
		return false
	}
	if contentType != "" && !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return false
	}
	return decodable[http.DetectContentType(data)]
}

// Allocate 登记一份图片数据并返回持有一次引用的句柄。
func (s *Store) Allocate(data []byte, contentType string) (*Handle, error) {
	if !IsImage(data, contentType) {
		return nil, fmt.Errorf("分配资源失败 (%s): %w", contentType, ErrNotImage)
	}
	ref := RefPrefix + uuid.NewString()
	e := &entry{
		data:        bytes.Clone(data),
		contentType: http.DetectContentType(data),
		refs:        1,
	}

	s.mu.Lock()
	s.entries[ref] = e
	s.mu.Unlock()

	s.logger.Debug("resource allocated", "ref", ref, "type", e.contentType, "bytes", len(data))
	return &Handle{store: s, ref: ref}, nil
}

// Retain 为已有引用增加一次计数，返回新的句柄。
func (s *Store) Retain(ref string) (*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[ref]
	if !ok {
		return nil, fmt.Errorf("%s: %w", ref, ErrUnknownRef)
	}
	e.refs++
	return &Handle{store: s, ref: ref}, nil
}

func (s *Store) release(ref string) {
	s.mu.Lock()
	e, ok := s.entries[ref]
	if !ok {
		s.mu.Unlock()
		s.logger.Warn("release of unknown resource", "ref", ref)
		return
	}
	e.refs--
	freed := e.refs <= 0
	if freed {
		delete(s.entries, ref)
	}
	s.mu.Unlock()

	if freed {
		s.logger.Debug("resource freed", "ref", ref)
	}
}

// Load 解码引用对应的图片；结果按引用缓存，重复调用不会重新解码。
func (s *Store) Load(ctx context.Context, ref string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	e, ok := s.entries[ref]
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%s: %w", ref, ErrUnknownRef)
	}

	e.once.Do(func() {
		img, _, err := image.Decode(bytes.NewReader(e.data))
		if err != nil {
			e.err = fmt.Errorf("解码图片 %s 失败: %w", ref, err)
			return
		}
		e.img = img
	})
	return e.img, e.err
}

// ContentType 返回嗅探得到的图片类型。
func (s *Store) ContentType(ref string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[ref]
	if !ok {
		return "", false
	}
	return e.contentType, true
}

// Live 返回当前仍被引用的资源数量。
func (s *Store) Live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Handle 持有一次资源引用，Release 只生效一次。
type Handle struct {
	store *Store
	ref   string
	once  sync.Once
}

// Ref 返回 blob:<uuid> 形式的引用。
func (h *Handle) Ref() string {
	if h == nil {
		return ""
	}
	return h.ref
}

// Release 归还引用；重复调用无效果。
func (h *Handle) Release() {
	if h == nil {
		return
	}
	h.once.Do(func() { h.store.release(h.ref) })
}
