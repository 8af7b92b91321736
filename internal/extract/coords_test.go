package extract

import "testing"

func TestExtractCoordinates(t *testing.T) {
	tests := []struct {
		name    string
		pageURL string
		html    string
		wantLat float64
		wantLng float64
		wantNil bool
	}{
		{
			name:    "URL视口片段优先",
			pageURL: "https://www.google.com/maps/place/Acme/@52.5200066,13.4049540,17z",
			html:    `<html><body><img src="https://maps.example/staticmap?center=48.1,11.5"></body></html>`,
			wantLat: 52.5200066,
			wantLng: 13.4049540,
		},
		{
			name:    "URL缺席时取预览图center参数",
			pageURL: "https://www.google.com/maps/place/Acme",
			html:    `<html><body><img src="https://maps.example/staticmap?center=48.137154%2C11.576124&zoom=15"></body></html>`,
			wantLat: 48.137154,
			wantLng: 11.576124,
		},
		{
			name:    "预览图缺席时取路线链接",
			pageURL: "https://www.google.com/maps/place/Acme",
			html:    `<html><body><a href="/maps/dir//Acme/@40.7127753,-74.0059728,14z">Directions</a></body></html>`,
			wantLat: 40.7127753,
			wantLng: -74.0059728,
		},
		{
			name:    "最后退到内嵌JSON元数据",
			pageURL: "https://www.google.com/maps/place/Acme",
			html:    `<html><body><script>{"latitude": 51.5073509, "longitude": -0.1277583}</script></body></html>`,
			wantLat: 51.5073509,
			wantLng: -0.1277583,
		},
		{
			name:    "全部落空返回nil",
			pageURL: "https://www.google.com/maps/place/Acme",
			html:    `<html><body><p>no coordinates here</p></body></html>`,
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustDoc(t, tt.html)
			got := ExtractCoordinates(tt.pageURL, doc)

			if tt.wantNil {
				if got != nil {
					t.Errorf("坐标 = %v, 期望 nil", got)
				}
				return
			}
			if got == nil {
				t.Fatal("坐标 = nil, 期望有值")
			}
			if got.Lat != tt.wantLat || got.Lng != tt.wantLng {
				t.Errorf("坐标 = (%v, %v), 期望 (%v, %v)", got.Lat, got.Lng, tt.wantLat, tt.wantLng)
			}
		})
	}
}

func TestExtractCoordinatesURLOnly(t *testing.T) {
	// EXTRACT_AND_SEARCH锚点派生只有URL没有文档
	got := ExtractCoordinates("https://www.google.com/maps/place/Acme/@52.52,13.40,14z", nil)
	if got == nil {
		t.Fatal("仅凭URL应能解析坐标")
	}
	if got.Lat != 52.52 || got.Lng != 13.40 {
		t.Errorf("坐标 = (%v, %v), 期望 (52.52, 13.40)", got.Lat, got.Lng)
	}
}
