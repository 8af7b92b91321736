package extract

import "testing"

func TestUpgradeImageURL(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{
			name: "宽高token升级为高分辨率",
			src:  "https://lh5.googleusercontent.com/p/AF1Qip=w408-h306-k-no",
			want: "https://lh5.googleusercontent.com/p/AF1Qip=w1024-h768-k-no",
		},
		{
			name: "无token的URL原样返回",
			src:  "https://lh5.googleusercontent.com/p/AF1Qip",
			want: "https://lh5.googleusercontent.com/p/AF1Qip",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UpgradeImageURL(tt.src); got != tt.want {
				t.Errorf("UpgradeImageURL = %q, 期望 %q", got, tt.want)
			}
		})
	}
}

func TestExtractImages(t *testing.T) {
	t.Run("去重且尊重上限", func(t *testing.T) {
		doc := mustDoc(t, `<html><body>
		  <img src="https://lh5.googleusercontent.com/p/A=w408-h306">
		  <img src="https://lh5.googleusercontent.com/p/A=w86-h86">
		  <img src="https://lh5.googleusercontent.com/p/B=w408-h306">
		  <img src="https://lh5.googleusercontent.com/p/C=w408-h306">
		</body></html>`)

		// 前两个升级后同为A的高分辨率变体
		images := ExtractImages(doc, 2)
		if len(images) != 2 {
			t.Fatalf("图片数 = %d, 期望 2", len(images))
		}
		if images[0] != "https://lh5.googleusercontent.com/p/A=w1024-h768" {
			t.Errorf("首图 = %s, 期望升级后的A", images[0])
		}
		if images[1] != "https://lh5.googleusercontent.com/p/B=w1024-h768" {
			t.Errorf("次图 = %s, 期望B (A的重复变体被吸收)", images[1])
		}
	})

	t.Run("data URI被过滤", func(t *testing.T) {
		doc := mustDoc(t, `<html><body>
		  <img src="data:image/gif;base64,R0lGOD">
		</body></html>`)
		if images := ExtractImages(doc, 5); images != nil {
			t.Errorf("图片 = %v, 期望过滤data URI", images)
		}
	})

	t.Run("上限为0时不抽取", func(t *testing.T) {
		doc := mustDoc(t, `<html><body><img src="https://lh5.googleusercontent.com/p/A"></body></html>`)
		if images := ExtractImages(doc, 0); images != nil {
			t.Errorf("图片 = %v, 期望nil", images)
		}
	})
}
