package store

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// keySanitizer 键名中允许的字符以外全部替换为下划线
var keySanitizer = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// FileKVStore 文件键值存储
// 每个键对应目录下的一个JSON文件,用于运行状态和成本汇总的检查点
type FileKVStore struct {
	dir string
}

// NewFileKVStore 创建文件键值存储,目录不存在时自动创建
func NewFileKVStore(dir string) (*FileKVStore, error) {
	if dir == "" {
		dir = "storage"
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("创建存储目录失败 [%s]: %w", dir, err)
	}
	return &FileKVStore{dir: dir}, nil
}

// path 键对应的文件路径
func (s *FileKVStore) path(key string) string {
	safe := keySanitizer.ReplaceAllString(strings.TrimSpace(key), "_")
	return filepath.Join(s.dir, safe+".json")
}

// Get 读取指定键
// 键不存在时返回(nil, nil),由调用方应用缺省值
func (s *FileKVStore) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("读取存储键失败 [%s]: %w", key, err)
	}
	return data, nil
}

// Set 写入指定键
// 先写临时文件再重命名,避免崩溃留下半截检查点
func (s *FileKVStore) Set(key string, value []byte) error {
	target := s.path(key)
	tmp := target + ".tmp"

	if err := os.WriteFile(tmp, value, 0644); err != nil {
		return fmt.Errorf("写入存储键失败 [%s]: %w", key, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("提交存储键失败 [%s]: %w", key, err)
	}
	return nil
}
