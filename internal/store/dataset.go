package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/RecoveryAshes/GmapLeads/internal/models"
)

// JSONLDataset 追加式数据集
// 每条商家记录一行JSON,追加写入,不做去重
// (核心不会重复输出同一任务,天然满足去重)
type JSONLDataset struct {
	file  *os.File
	count int
	mu    sync.Mutex
}

// NewJSONLDataset 打开(或创建)数据集文件,追加模式
func NewJSONLDataset(path string) (*JSONLDataset, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("创建数据集目录失败: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("打开数据集文件失败 [%s]: %w", path, err)
	}
	return &JSONLDataset{file: f}, nil
}

// Push 追加一条商家记录
func (d *JSONLDataset) Push(record *models.ListingRecord) error {
	data, err := record.ToJSON()
	if err != nil {
		return fmt.Errorf("记录序列化失败: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.file.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("写入数据集失败: %w", err)
	}
	d.count++
	return nil
}

// Count 本次运行已追加的记录数
func (d *JSONLDataset) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.count
}

// Close 关闭数据集文件
func (d *JSONLDataset) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.file.Close()
}

// FailureSink 失败任务记录槽
// 终态失败的任务追加到独立的JSON文件,便于事后排查
type FailureSink struct {
	path     string
	failures []models.FailedTaskInfo
	mu       sync.Mutex
}

// NewFailureSink 创建失败记录槽
func NewFailureSink(path string) *FailureSink {
	return &FailureSink{path: path}
}

// Append 追加一条终态失败
func (fs *FailureSink) Append(info models.FailedTaskInfo) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.failures = append(fs.failures, info)
}

// All 返回全部失败记录的副本
func (fs *FailureSink) All() []models.FailedTaskInfo {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	out := make([]models.FailedTaskInfo, len(fs.failures))
	copy(out, fs.failures)
	return out
}

// Flush 落盘为JSON文件
func (fs *FailureSink) Flush() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(fs.path), 0755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	data, err := json.MarshalIndent(fs.failures, "", "  ")
	if err != nil {
		return fmt.Errorf("失败记录序列化失败: %w", err)
	}
	return os.WriteFile(fs.path, data, 0644)
}
