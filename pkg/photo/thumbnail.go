package photo

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "golang.org/x/image/webp"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/anthonynsimon/bild/transform"
	"github.com/disintegration/imaging"
	"k8s.io/klog/v2"
)

const (
	// ThumbDirName is the directory thumbnails live in, next to their originals.
	ThumbDirName = "thumbnails"
	// ThumbSuffix is appended to the original file stem.
	ThumbSuffix = "_thumb"
)

// Mode selects how an image is fitted into the thumbnail box.
type Mode int

const (
	// Fit keeps the aspect ratio and stays within the box.
	Fit Mode = iota
	// Fill crops to the box aspect ratio and produces exactly the box size.
	Fill
)

func (m Mode) String() string {
	if m == Fill {
		return "fill"
	}
	return "fit"
}

// ParseMode parses "fit" or "fill".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fit", "contain", "":
		return Fit, nil
	case "fill", "crop":
		return Fill, nil
	}
	return Fit, fmt.Errorf("unknown thumbnail mode %q", s)
}

// ThumbOpts are thumbnail options.
type ThumbOpts struct {
	Width   int
	Height  int
	Quality int
	Mode    Mode
	// Force regenerates thumbnails that already exist.
	Force bool
}

// DefaultThumbOpts are used by the batch tools unless overridden.
var DefaultThumbOpts = ThumbOpts{Width: 300, Height: 300, Quality: 85, Mode: Fit}

// Thumbnail describes a thumbnail on disk.
type Thumbnail struct {
	Path    string
	Width   int
	Height  int
	Created bool
}

// ParseSize parses "WIDTHxHEIGHT".
func ParseSize(s string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("size %q: want WIDTHxHEIGHT", s)
	}
	w, err := strconv.Atoi(ws)
	if err != nil || w < 0 {
		return 0, 0, fmt.Errorf("size %q: bad width", s)
	}
	h, err := strconv.Atoi(hs)
	if err != nil || h < 0 {
		return 0, 0, fmt.Errorf("size %q: bad height", s)
	}
	if w == 0 && h == 0 {
		return 0, 0, fmt.Errorf("size %q: empty", s)
	}
	return w, h, nil
}

// ThumbPath returns <dir>/<stem>_thumb<ext>. An empty dir means the
// thumbnails directory next to src.
func ThumbPath(src string, dir string) string {
	if dir == "" {
		dir = filepath.Join(filepath.Dir(src), ThumbDirName)
	}
	base := filepath.Base(src)
	ext := filepath.Ext(base)
	return filepath.Join(dir, strings.TrimSuffix(base, ext)+ThumbSuffix+ext)
}

// GenerateThumbnail writes a JPEG thumbnail of src to dest. An existing
// thumbnail is reused unless o.Force is set.
func GenerateThumbnail(src string, dest string, o ThumbOpts) (*Thumbnail, error) {
	if o.Width <= 0 && o.Height <= 0 {
		return nil, fmt.Errorf("no thumbnail size given")
	}
	if o.Quality <= 0 {
		o.Quality = DefaultThumbOpts.Quality
	}

	if !o.Force {
		st, err := os.Stat(dest)
		if err == nil && st.Size() > int64(128) {
			klog.V(1).Infof("%s exists (%d bytes)", dest, st.Size())
			t, err := readThumb(dest)
			if err == nil {
				return t, nil
			}
			klog.Warningf("unable to read thumb: %v", err)
		}
	}

	img, err := imaging.Open(src, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}

	t, err := createThumb(flatten(img), dest, o)
	if err != nil {
		return nil, fmt.Errorf("create thumb: %w", err)
	}
	t.Created = true
	return t, nil
}

// flatten composites img onto opaque white, which also converts paletted,
// gray and CMYK images to RGB.
func flatten(img image.Image) image.Image {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

func createThumb(i image.Image, path string, o ThumbOpts) (*Thumbnail, error) {
	klog.Infof("creating %dx%d %s thumb: %s - %+v", o.Width, o.Height, o.Mode, path, i.Bounds())

	if i.Bounds().Dy() == 0 {
		return nil, fmt.Errorf("no Y for %+v", i.Bounds())
	}

	if i.Bounds().Dx() == 0 {
		return nil, fmt.Errorf("no X for %+v", i.Bounds())
	}

	var rimg image.Image
	switch o.Mode {
	case Fill:
		if o.Width <= 0 || o.Height <= 0 {
			return nil, fmt.Errorf("fill needs both dimensions, got %dx%d", o.Width, o.Height)
		}
		rimg = imaging.Fill(i, o.Width, o.Height, imaging.Center, imaging.Lanczos)
	default:
		x, y := fitSize(i.Bounds().Dx(), i.Bounds().Dy(), o.Width, o.Height)
		rimg = transform.Resize(i, x, y, transform.Lanczos)
	}

	if err := imgio.Save(path, rimg, imgio.JPEGEncoder(o.Quality)); err != nil {
		klog.Errorf("save failed: %s", err)
		return nil, fmt.Errorf("save: %w", err)
	}

	return &Thumbnail{Path: path, Width: rimg.Bounds().Dx(), Height: rimg.Bounds().Dy()}, nil
}

// fitSize scales sw x sh to fit within w x h without upscaling. A zero
// bound is unconstrained.
func fitSize(sw, sh, w, h int) (int, int) {
	scale := 1.0
	if w > 0 {
		scale = math.Min(scale, float64(w)/float64(sw))
	}
	if h > 0 {
		scale = math.Min(scale, float64(h)/float64(sh))
	}

	x := max(1, int(math.Round(float64(sw)*scale)))
	y := max(1, int(math.Round(float64(sh)*scale)))
	return x, y
}

func readThumb(path string) (*Thumbnail, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	ic, _, err := image.DecodeConfig(f)
	if err != nil {
		return nil, fmt.Errorf("unable to decode: %w", err)
	}

	return &Thumbnail{Path: path, Width: ic.Width, Height: ic.Height}, nil
}
