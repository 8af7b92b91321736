package extract

import "testing"

func TestMatchSocialURL(t *testing.T) {
	tests := []struct {
		name         string
		href         string
		wantPlatform string
		wantOK       bool
	}{
		{"Facebook主页链接", "https://www.facebook.com/acmeplumbing", "facebook", true},
		{"Instagram无www前缀", "https://instagram.com/acme_plumbing", "instagram", true},
		{"X域名归入twitter", "https://x.com/acmeplumbingberlin", "twitter", true},
		{"LinkedIn公司页", "https://www.linkedin.com/company/acme-plumbing", "linkedin", true},
		{"YouTube频道handle", "https://www.youtube.com/@acmeplumbing", "youtube", true},
		{"TikTok账号", "https://www.tiktok.com/@acmeplumbing", "tiktok", true},
		{"带跳转包装的链接", "/url?q=https://www.facebook.com/acmeplumbing&sa=U", "facebook", true},
		{"平台裸首页被过滤", "https://www.facebook.com/x", "", false},
		{"非社交平台链接", "https://acmeplumbing.example/about", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			platform, matched, ok := MatchSocialURL(tt.href)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, 期望 %v (matched=%q)", ok, tt.wantOK, matched)
			}
			if platform != tt.wantPlatform {
				t.Errorf("平台 = %q, 期望 %q", platform, tt.wantPlatform)
			}
		})
	}
}

func TestExtractSocialProfiles(t *testing.T) {
	doc := mustDoc(t, `<html><body>
	  <a href="https://www.facebook.com/acmeplumbing">FB</a>
	  <a href="https://www.facebook.com/acmeplumbing.backup">FB2</a>
	  <a href="https://www.instagram.com/acme_plumbing">IG</a>
	  <a href="https://acmeplumbing.example">官网</a>
	</body></html>`)

	profiles := ExtractSocialProfiles(doc)
	if len(profiles) != 2 {
		t.Fatalf("平台数 = %d, 期望 2: %v", len(profiles), profiles)
	}
	// 同平台只保留最先出现的一条
	if profiles["facebook"] != "https://www.facebook.com/acmeplumbing" {
		t.Errorf("facebook = %q, 期望首条", profiles["facebook"])
	}
	if profiles["instagram"] != "https://www.instagram.com/acme_plumbing" {
		t.Errorf("instagram = %q", profiles["instagram"])
	}
}

func TestFindSocialLinks(t *testing.T) {
	html := `<script>var links = ["https://www.tiktok.com/@acmeplumbing"];</script>
	         <p>follow us https://twitter.com/acmeplumb today</p>`

	profiles := FindSocialLinks(html)
	if profiles["tiktok"] != "https://www.tiktok.com/@acmeplumbing" {
		t.Errorf("tiktok = %q, 期望从非链接文本中扫出", profiles["tiktok"])
	}
	if profiles["twitter"] != "https://twitter.com/acmeplumb" {
		t.Errorf("twitter = %q", profiles["twitter"])
	}
}
