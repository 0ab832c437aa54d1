package travelog

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

type fakeGenerator struct {
	out      string
	err      error
	mimeType string
}

func (f *fakeGenerator) Generate(ctx context.Context, image []byte, mimeType string, prompt string) (string, error) {
	f.mimeType = mimeType
	return f.out, f.err
}

func TestSuggestKeywords(t *testing.T) {
	p := filepath.Join(t.TempDir(), "plaza.png")
	writePNG(t, p)

	g := &fakeGenerator{out: "Plaza, madrid ,spain, street food,Plaza, sunset, sky, extra\n"}
	kws, err := SuggestKeywords(context.Background(), g, p)
	if err != nil {
		t.Fatalf("suggest failed: %v", err)
	}
	want := []string{"plaza", "madrid", "spain", "streetfood", "sunset"}
	if !reflect.DeepEqual(kws, want) {
		t.Errorf("got %v, want %v", kws, want)
	}
	if g.mimeType != "image/png" {
		t.Errorf("mime type = %q", g.mimeType)
	}
}

func TestSuggestKeywords_Errors(t *testing.T) {
	p := filepath.Join(t.TempDir(), "plaza.png")
	writePNG(t, p)

	if _, err := SuggestKeywords(context.Background(), &fakeGenerator{err: errors.New("quota")}, p); err == nil {
		t.Error("expected generator error")
	}
	if _, err := SuggestKeywords(context.Background(), &fakeGenerator{}, filepath.Join(t.TempDir(), "none.png")); err == nil {
		t.Error("expected read error")
	}
}

func TestParseKeywords(t *testing.T) {
	if got := parseKeywords(""); len(got) != 0 {
		t.Errorf("expected no keywords, got %v", got)
	}
	if got := parseKeywords(`"beach", cliff.`); !reflect.DeepEqual(got, []string{"beach", "cliff"}) {
		t.Errorf("got %v", got)
	}
}
