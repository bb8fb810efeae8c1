package game

import (
	"os"
	"path/filepath"
	"testing"
)

// TestFontManagerDefaultFont 测试内置字体的测量与缓存
func TestFontManagerDefaultFont(t *testing.T) {
	fm, err := NewFontManager("")
	if err != nil {
		t.Fatalf("NewFontManager(\"\") error: %v", err)
	}

	small := fm.MeasureText("hello danmaku", 17)
	large := fm.MeasureText("hello danmaku", 34)
	if small <= 0 {
		t.Fatalf("MeasureText() = %v, want > 0", small)
	}
	if large <= small {
		t.Errorf("MeasureText at 34px = %v, should exceed 17px width %v", large, small)
	}
	if fm.MeasureText("", 17) != 0 {
		t.Errorf("MeasureText(\"\") = %v, want 0", fm.MeasureText("", 17))
	}

	if fm.Face(17) != fm.Face(17) {
		t.Error("Face() should return the cached face for the same size")
	}
	if fm.Face(17) == fm.Face(18) {
		t.Error("Face() should return different faces for different sizes")
	}
}

// TestFontManagerBadFile 测试字体文件错误
func TestFontManagerBadFile(t *testing.T) {
	if _, err := NewFontManager(filepath.Join(t.TempDir(), "missing.ttf")); err == nil {
		t.Error("NewFontManager() with missing file: expected error")
	}

	path := filepath.Join(t.TempDir(), "bad.ttf")
	if err := os.WriteFile(path, []byte("not a font"), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	if _, err := NewFontManager(path); err == nil {
		t.Error("NewFontManager() with invalid font: expected error")
	}
}
