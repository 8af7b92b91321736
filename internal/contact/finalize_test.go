package contact

import (
	"reflect"
	"testing"
)

func TestFinalizeEmails(t *testing.T) {
	tests := []struct {
		name       string
		candidates []string
		want       []string
	}{
		{
			name:       "正常商家邮箱保留",
			candidates: []string{"contact@acmeplumbing.com"},
			want:       []string{"contact@acmeplumbing.com"},
		},
		{
			name:       "占位域名被过滤",
			candidates: []string{"info@domain.com", "test@example.com", "sales@acme.example"},
			want:       []string{"sales@acme.example"},
		},
		{
			name:       "黑名单域名的子域同样被过滤",
			candidates: []string{"photo123@cdn.wixpress.com"},
			want:       nil,
		},
		{
			name:       "功能性前缀被过滤",
			candidates: []string{"noreply@acme.example", "no-reply@acme.example", "admin@acme.example"},
			want:       nil,
		},
		{
			name:       "形似邮箱的资源名被过滤",
			candidates: []string{"icon@2x.png", "logo@3x.svg"},
			want:       nil,
		},
		{
			name:       "域名无点号被过滤",
			candidates: []string{"root@localhost"},
			want:       nil,
		},
		{
			name:       "小写归一化后去重保序",
			candidates: []string{"Sales@Acme.example", "sales@acme.example", "hello@acme.example"},
			want:       []string{"sales@acme.example", "hello@acme.example"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FinalizeEmails(tt.candidates)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FinalizeEmails = %v, 期望 %v", got, tt.want)
			}
		})
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"国际格式保留允许字符", "+49 (30) 123-4567", "+49 (30) 123-4567"},
		{"剔除字母等杂质", "Tel: 030 1234567", "030 1234567"},
		{"数字不足7位被丢弃", "12345", ""},
		{"纯文本被丢弃", "call us", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePhone(tt.raw); got != tt.want {
				t.Errorf("NormalizePhone(%q) = %q, 期望 %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestFinalizePhones(t *testing.T) {
	got := FinalizePhones([]string{
		"+49 30 1234567",
		"+49 30 1234567",
		"999",
		"(030) 765-4321",
	})
	want := []string{"+49 30 1234567", "(030) 765-4321"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FinalizePhones = %v, 期望 %v", got, want)
	}
}
