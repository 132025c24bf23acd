package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Sink 接收编码完成的文件，相当于浏览器中的下载。
type Sink interface {
	Save(name string, data []byte) (string, error)
}

// DirSink 将文件写入目录；写入先落到临时文件再改名，失败时不留下半个文件。
type DirSink struct {
	Dir string
}

func (s DirSink) Save(name string, data []byte) (string, error) {
	dir := s.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("创建输出目录失败: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".export-*")
	if err != nil {
		return "", fmt.Errorf("创建临时文件失败: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("写入导出文件失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("写入导出文件失败: %w", err)
	}
	path := filepath.Join(dir, name)
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("保存导出文件失败: %w", err)
	}
	return path, nil
}

// MemorySink 在内存中记录保存的文件。
type MemorySink struct {
	mu    sync.Mutex
	files map[string][]byte
	order []string
}

func (s *MemorySink) Save(name string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.files == nil {
		s.files = map[string][]byte{}
	}
	s.files[name] = append([]byte(nil), data...)
	s.order = append(s.order, name)
	return "memory://" + name, nil
}

// File 返回最近一次以 name 保存的内容。
func (s *MemorySink) File(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[name]
	return data, ok
}

// Saved 返回按保存顺序排列的文件名。
func (s *MemorySink) Saved() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}
