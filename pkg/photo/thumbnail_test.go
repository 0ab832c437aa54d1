package photo

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// writePNG writes a w x h transparent PNG with an opaque red block in the middle.
func writePNG(t *testing.T, dir string, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := h / 3; y < 2*h/3; y++ {
		for x := 2 * w / 5; x < 3*w/5; x++ {
			img.Set(x, y, color.NRGBA{R: 255, A: 255})
		}
	}

	p := filepath.Join(dir, "plaza.png")
	f, err := os.Create(p)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return p
}

func decodeJPEG(t *testing.T, p string) image.Image {
	t.Helper()
	f, err := os.Open(p)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	img, err := jpeg.Decode(f)
	if err != nil {
		t.Fatalf("thumbnail is not a JPEG: %v", err)
	}
	return img
}

func TestGenerateThumbnail_Fill(t *testing.T) {
	dir := t.TempDir()
	src := writePNG(t, dir, 200, 100)
	dest := ThumbPath(src, "")

	th, err := GenerateThumbnail(src, dest, ThumbOpts{Width: 50, Height: 50, Quality: 85, Mode: Fill})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if !th.Created || th.Width != 50 || th.Height != 50 {
		t.Errorf("unexpected thumbnail %+v", th)
	}

	img := decodeJPEG(t, dest)
	if b := img.Bounds(); b.Dx() != 50 || b.Dy() != 50 {
		t.Errorf("decoded size %v", b)
	}

	// transparent corners must come out white
	r, g, b, _ := img.At(0, 0).RGBA()
	if r>>8 < 240 || g>>8 < 240 || b>>8 < 240 {
		t.Errorf("corner not white: %d %d %d", r>>8, g>>8, b>>8)
	}
}

func TestGenerateThumbnail_Fit(t *testing.T) {
	dir := t.TempDir()
	src := writePNG(t, dir, 200, 100)
	dest := filepath.Join(dir, "out", "fit.jpg")

	th, err := GenerateThumbnail(src, dest, ThumbOpts{Width: 50, Height: 50, Mode: Fit})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if th.Width != 50 || th.Height != 25 {
		t.Errorf("fit thumbnail is %dx%d, want 50x25", th.Width, th.Height)
	}
}

func TestGenerateThumbnail_NoUpscale(t *testing.T) {
	dir := t.TempDir()
	src := writePNG(t, dir, 40, 20)

	th, err := GenerateThumbnail(src, filepath.Join(dir, "small.jpg"), ThumbOpts{Width: 300, Height: 300})
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if th.Width != 40 || th.Height != 20 {
		t.Errorf("thumbnail is %dx%d, want 40x20", th.Width, th.Height)
	}
}

func TestGenerateThumbnail_SkipExisting(t *testing.T) {
	dir := t.TempDir()
	src := writePNG(t, dir, 200, 100)
	dest := ThumbPath(src, "")
	o := ThumbOpts{Width: 60, Height: 60, Mode: Fill}

	if _, err := GenerateThumbnail(src, dest, o); err != nil {
		t.Fatalf("generate failed: %v", err)
	}

	th, err := GenerateThumbnail(src, dest, o)
	if err != nil {
		t.Fatalf("second generate failed: %v", err)
	}
	if th.Created {
		t.Error("existing thumbnail should be reused")
	}
	if th.Width != 60 || th.Height != 60 {
		t.Errorf("reused thumbnail reports %dx%d", th.Width, th.Height)
	}

	o.Force = true
	th, err = GenerateThumbnail(src, dest, o)
	if err != nil {
		t.Fatalf("forced generate failed: %v", err)
	}
	if !th.Created {
		t.Error("forced thumbnail should be regenerated")
	}
}

func TestGenerateThumbnail_Corrupt(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "broken.jpg")
	if err := os.WriteFile(src, []byte("definitely not an image"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := GenerateThumbnail(src, ThumbPath(src, ""), DefaultThumbOpts); err == nil {
		t.Error("expected error for corrupt image")
	}
}

func TestThumbPath(t *testing.T) {
	if got, want := ThumbPath("/photos/madrid/plaza.JPG", ""), filepath.Join("/photos/madrid/thumbnails", "plaza_thumb.JPG"); got != want {
		t.Errorf("ThumbPath = %q, want %q", got, want)
	}
	if got, want := ThumbPath("/photos/a.b.jpeg", "/media/thumbs"), filepath.Join("/media/thumbs", "a.b_thumb.jpeg"); got != want {
		t.Errorf("ThumbPath = %q, want %q", got, want)
	}
}

func TestParseSize(t *testing.T) {
	w, h, err := ParseSize("300x200")
	if err != nil || w != 300 || h != 200 {
		t.Errorf("ParseSize = %d, %d, %v", w, h, err)
	}
	for _, bad := range []string{"", "300", "ax200", "0x0", "-1x5"} {
		if _, _, err := ParseSize(bad); err == nil {
			t.Errorf("ParseSize(%q) should fail", bad)
		}
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("fill"); err != nil || m != Fill {
		t.Errorf("ParseMode(fill) = %v, %v", m, err)
	}
	if m, err := ParseMode("fit"); err != nil || m != Fit {
		t.Errorf("ParseMode(fit) = %v, %v", m, err)
	}
	if _, err := ParseMode("stretch"); err == nil {
		t.Error("ParseMode(stretch) should fail")
	}
}
