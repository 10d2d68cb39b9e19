package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"

	_ "image/gif"
	_ "image/jpeg"

	"golang.org/x/image/draw"

	"github.com/sdslens/backend/internal/domain"
)

// DefaultMaxWidth bounds the width of normalized images handed to the OCR
// engine. Larger labels carry no extra signal for text recognition.
const DefaultMaxWidth = 1200

// Prepare decodes a captured photo, applies the crop mapped from screen
// space when crop metadata is present, runs the fixed normalization chain
// and returns the result encoded as PNG.
//
// The chain is deterministic and order matters: crop first so later stages
// never touch discarded pixels, then greyscale, deskew, contrast stretch,
// median denoise, sharpen, and finally a downscale to maxWidth (never an
// upscale).
func Prepare(photo []byte, crop *domain.CropRectangle, paddingRatio float64, maxWidth int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(photo))
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %v", domain.ErrPreprocessing, err)
	}

	if crop != nil {
		// The photo dimensions come from the decoded image, not the client.
		c := *crop
		c.PhotoWidth = img.Bounds().Dx()
		c.PhotoHeight = img.Bounds().Dy()
		if c.Complete() {
			rect := MapToPhotoSpace(&c, paddingRatio)
			if rect.Width <= 0 || rect.Height <= 0 {
				return nil, fmt.Errorf("%w: crop rectangle is empty after clamping", domain.ErrPreprocessing)
			}
			img = cropImage(img, rect)
		}
	}

	gray := toGray(img)
	gray = deskew(gray)
	gray = stretchContrast(gray)
	gray = median3(gray)
	gray = sharpen(gray)
	gray = downscale(gray, maxWidth)

	var buf bytes.Buffer
	if err := png.Encode(&buf, gray); err != nil {
		return nil, fmt.Errorf("%w: encode: %v", domain.ErrPreprocessing, err)
	}
	return buf.Bytes(), nil
}

func cropImage(img image.Image, rect domain.PixelRectangle) image.Image {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, rect.Width, rect.Height))
	draw.Draw(out, out.Bounds(), img, image.Pt(b.Min.X+rect.Left, b.Min.Y+rect.Top), draw.Src)
	return out
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == image.Pt(0, 0) {
		return g
	}
	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// deskew estimates the dominant text angle from the dark-pixel distribution
// and rotates the image upright. Angles under half a degree are left alone,
// angles beyond 45 degrees are treated as intentional framing.
func deskew(img *image.Gray) *image.Gray {
	angle := skewAngle(img)
	deg := angle * 180 / math.Pi
	if math.Abs(deg) < 0.5 || math.Abs(deg) > 45 {
		return img
	}
	return rotate(img, -angle)
}

// skewAngle returns the principal-axis angle of the below-mean pixels, the
// population a min-area-rect fit would consume.
func skewAngle(img *image.Gray) float64 {
	b := img.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return 0
	}
	var sum uint64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			sum += uint64(img.GrayAt(x, y).Y)
		}
	}
	mean := uint8(sum / uint64(n))

	var count, sx, sy float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.GrayAt(x, y).Y < mean {
				count++
				sx += float64(x)
				sy += float64(y)
			}
		}
	}
	if count < 64 {
		// Not enough ink to estimate an orientation.
		return 0
	}
	mx, my := sx/count, sy/count

	var vxx, vyy, vxy float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.GrayAt(x, y).Y < mean {
				dx := float64(x) - mx
				dy := float64(y) - my
				vxx += dx * dx
				vyy += dy * dy
				vxy += dx * dy
			}
		}
	}
	return 0.5 * math.Atan2(2*vxy, vxx-vyy)
}

// rotate applies a rotation about the image center with bilinear sampling.
// Pixels that fall outside the source are filled white, matching paper
// background.
func rotate(img *image.Gray, angle float64) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, w, h))
	cx, cy := float64(w)/2, float64(h)/2
	sin, cos := math.Sincos(-angle)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			// Inverse mapping: destination pixel back into the source.
			dx := float64(x) - cx
			dy := float64(y) - cy
			sx := cos*dx - sin*dy + cx
			sy := sin*dx + cos*dy + cy
			out.SetGray(x, y, color.Gray{Y: bilinear(img, sx, sy)})
		}
	}
	return out
}

func bilinear(img *image.Gray, x, y float64) uint8 {
	b := img.Bounds()
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	if x0 < b.Min.X-1 || y0 < b.Min.Y-1 || x0 > b.Max.X-1 || y0 > b.Max.Y-1 {
		return 255
	}
	fx := x - float64(x0)
	fy := y - float64(y0)

	at := func(px, py int) float64 {
		if px < b.Min.X || py < b.Min.Y || px >= b.Max.X || py >= b.Max.Y {
			return 255
		}
		return float64(img.GrayAt(px, py).Y)
	}
	top := at(x0, y0)*(1-fx) + at(x0+1, y0)*fx
	bot := at(x0, y0+1)*(1-fx) + at(x0+1, y0+1)*fx
	v := top*(1-fy) + bot*fy
	return uint8(math.Round(v))
}

// stretchContrast linearly maps the 2nd..98th luminance percentiles onto
// the full 0..255 range, ignoring sensor outliers the way CLAHE-style
// enhancement does for scanned labels.
func stretchContrast(img *image.Gray) *image.Gray {
	b := img.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return img
	}

	var hist [256]int
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			hist[img.GrayAt(x, y).Y]++
		}
	}

	lo := percentile(hist[:], n, 0.02)
	hi := percentile(hist[:], n, 0.98)
	if hi <= lo {
		return img
	}

	scale := 255.0 / float64(hi-lo)
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			v := float64(int(img.GrayAt(x, y).Y)-lo) * scale
			out.SetGray(x-b.Min.X, y-b.Min.Y, color.Gray{Y: clamp8(v)})
		}
	}
	return out
}

func percentile(hist []int, total int, p float64) int {
	target := int(float64(total) * p)
	acc := 0
	for v, c := range hist {
		acc += c
		if acc >= target {
			return v
		}
	}
	return 255
}

// median3 applies a 3x3 median filter, the light denoise step. Border
// pixels are copied unchanged.
func median3(img *image.Gray) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 3 || h < 3 {
		return img
	}
	out := image.NewGray(image.Rect(0, 0, w, h))
	copy(out.Pix, img.Pix)

	var window [9]uint8
	for y := b.Min.Y + 1; y < b.Max.Y-1; y++ {
		for x := b.Min.X + 1; x < b.Max.X-1; x++ {
			i := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					window[i] = img.GrayAt(x+dx, y+dy).Y
					i++
				}
			}
			out.SetGray(x-b.Min.X, y-b.Min.Y, color.Gray{Y: median9(window)})
		}
	}
	return out
}

func median9(w [9]uint8) uint8 {
	// Insertion sort; nine elements, called per pixel.
	for i := 1; i < 9; i++ {
		v := w[i]
		j := i - 1
		for j >= 0 && w[j] > v {
			w[j+1] = w[j]
			j--
		}
		w[j+1] = v
	}
	return w[4]
}

// sharpen applies the standard 3x3 sharpening kernel
// [0 -1 0; -1 5 -1; 0 -1 0]. Border pixels are copied unchanged.
func sharpen(img *image.Gray) *image.Gray {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 3 || h < 3 {
		return img
	}
	out := image.NewGray(image.Rect(0, 0, w, h))
	copy(out.Pix, img.Pix)

	for y := b.Min.Y + 1; y < b.Max.Y-1; y++ {
		for x := b.Min.X + 1; x < b.Max.X-1; x++ {
			v := 5*int(img.GrayAt(x, y).Y) -
				int(img.GrayAt(x-1, y).Y) - int(img.GrayAt(x+1, y).Y) -
				int(img.GrayAt(x, y-1).Y) - int(img.GrayAt(x, y+1).Y)
			out.SetGray(x-b.Min.X, y-b.Min.Y, color.Gray{Y: clamp8(float64(v))})
		}
	}
	return out
}

// downscale resizes the image to maxWidth when wider, preserving aspect
// ratio. Images at or under the bound pass through untouched; nothing is
// ever upscaled.
func downscale(img *image.Gray, maxWidth int) *image.Gray {
	if maxWidth <= 0 {
		maxWidth = DefaultMaxWidth
	}
	b := img.Bounds()
	if b.Dx() <= maxWidth {
		return img
	}
	scale := float64(maxWidth) / float64(b.Dx())
	h := int(math.Round(float64(b.Dy()) * scale))
	if h < 1 {
		h = 1
	}
	out := image.NewGray(image.Rect(0, 0, maxWidth, h))
	draw.CatmullRom.Scale(out, out.Bounds(), img, b, draw.Over, nil)
	return out
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
