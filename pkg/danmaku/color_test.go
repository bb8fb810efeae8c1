package danmaku

import (
	"image/color"
	"testing"
)

// TestParseColor 测试颜色字符串解析
func TestParseColor(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    uint32
		wantErr bool
	}{
		{"六位十六进制", "#FF0000", 0xFFFF0000, false},
		{"八位十六进制", "#80FFFFFF", 0x80FFFFFF, false},
		{"0x 前缀", "0xFF00FF00", 0xFF00FF00, false},
		{"十进制", "4294967295", 0xFFFFFFFF, false},
		{"前后空白", "  #00ff00 ", 0xFF00FF00, false},
		{"长度错误", "#FFF", 0, true},
		{"非法字符", "#GGGGGG", 0, true},
		{"空字符串", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseColor(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseColor(%q) = %#x, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseColor(%q) error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseColor(%q) = %#x, want %#x", tt.input, got, tt.want)
			}
		})
	}
}

// TestARGBConversion 测试 ARGB 与 NRGBA 互相转换
func TestARGBConversion(t *testing.T) {
	c := ColorFromARGB(0x11223344)
	want := color.NRGBA{A: 0x11, R: 0x22, G: 0x33, B: 0x44}
	if c != want {
		t.Errorf("ColorFromARGB() = %+v, want %+v", c, want)
	}
	if got := ARGB(c); got != 0x11223344 {
		t.Errorf("ARGB() = %#x, want 0x11223344", got)
	}
}

// TestStrokeColorCap 测试描边 alpha 上限
func TestStrokeColorCap(t *testing.T) {
	// 255 * 0.45 = 114.75，未超过上限
	if a := strokeColor(255, 1.0).A; a != 114 {
		t.Errorf("strokeColor(255, 1.0).A = %d, want 114", a)
	}
	if a := strokeColor(200, 0.1).A; a != 0 {
		t.Errorf("strokeColor(200, 0.1).A = %d, want 0", a)
	}
}
