package store

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileKVStore(t *testing.T) {
	dir := t.TempDir()
	kv, err := NewFileKVStore(filepath.Join(dir, "storage"))
	if err != nil {
		t.Fatalf("创建存储失败: %v", err)
	}

	t.Run("缺席键返回nil而非错误", func(t *testing.T) {
		data, err := kv.Get("STATE")
		if err != nil {
			t.Fatalf("Get失败: %v", err)
		}
		if data != nil {
			t.Errorf("值 = %q, 期望nil", data)
		}
	})

	t.Run("写入后读回", func(t *testing.T) {
		want := []byte(`{"scraped": 7}`)
		if err := kv.Set("STATE", want); err != nil {
			t.Fatalf("Set失败: %v", err)
		}
		got, err := kv.Get("STATE")
		if err != nil {
			t.Fatalf("Get失败: %v", err)
		}
		if string(got) != string(want) {
			t.Errorf("值 = %s, 期望 %s", got, want)
		}
	})

	t.Run("覆盖写入取最新值", func(t *testing.T) {
		if err := kv.Set("COST_SUMMARY", []byte(`{"v":1}`)); err != nil {
			t.Fatalf("Set失败: %v", err)
		}
		if err := kv.Set("COST_SUMMARY", []byte(`{"v":2}`)); err != nil {
			t.Fatalf("Set失败: %v", err)
		}
		got, _ := kv.Get("COST_SUMMARY")
		if string(got) != `{"v":2}` {
			t.Errorf("值 = %s, 期望覆盖后的新值", got)
		}
	})

	t.Run("键名特殊字符被净化", func(t *testing.T) {
		if err := kv.Set("a/b c", []byte("x")); err != nil {
			t.Fatalf("Set失败: %v", err)
		}
		if _, err := os.Stat(filepath.Join(dir, "storage", "a_b_c.json")); err != nil {
			t.Errorf("净化后的文件不存在: %v", err)
		}
		got, err := kv.Get("a/b c")
		if err != nil || string(got) != "x" {
			t.Errorf("值 = %s err = %v, 期望同键读回", got, err)
		}
	})
}
