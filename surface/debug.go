package surface

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// WriteDebug 将可视树输出为 JSON 或 YAML（按扩展名选择），便于调试或可视化。
func WriteDebug(tree *Tree, path string) error {
	if tree == nil {
		return nil
	}
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(tree)
	default:
		data, err = json.MarshalIndent(tree, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("序列化可视树失败: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
