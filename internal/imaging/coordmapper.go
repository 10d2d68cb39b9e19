package imaging

import (
	"math"

	"github.com/sdslens/backend/internal/domain"
)

// MapToPhotoSpace converts a crop rectangle drawn over the on-screen photo
// preview into pixel bounds inside the captured photo.
//
// The preview displays the photo with a "contain" fit: the photo keeps its
// aspect ratio and is letterboxed inside the screen viewport. The crop box
// arrives in screen units, so it is first translated into fractions of the
// drawn image area, then scaled into photo pixels. Symmetric padding of
// round(height*paddingRatio) pixels is added on every side before clamping
// to the photo bounds; when padding would overflow, the rectangle shrinks
// rather than shifting its origin.
//
// An absent or incomplete crop maps to the full photo.
func MapToPhotoSpace(crop *domain.CropRectangle, paddingRatio float64) domain.PixelRectangle {
	if !crop.Complete() {
		var w, h int
		if crop != nil {
			w, h = crop.PhotoWidth, crop.PhotoHeight
		}
		return domain.PixelRectangle{Left: 0, Top: 0, Width: w, Height: h}
	}

	photoW := float64(crop.PhotoWidth)
	photoH := float64(crop.PhotoHeight)
	photoAspect := photoW / photoH
	screenAspect := crop.ScreenWidth / crop.ScreenHeight

	var drawLeft, drawTop, drawW, drawH float64
	if photoAspect > screenAspect {
		// Photo fills the viewport width, letterboxed top and bottom.
		drawW = crop.ScreenWidth
		drawH = drawW / photoAspect
		drawLeft = 0
		drawTop = (crop.ScreenHeight - drawH) / 2
	} else {
		drawH = crop.ScreenHeight
		drawW = drawH * photoAspect
		drawTop = 0
		drawLeft = (crop.ScreenWidth - drawW) / 2
	}

	// Crop box as fractions of the drawn image area.
	xRel := (crop.Left - drawLeft) / drawW
	yRel := (crop.Top - drawTop) / drawH
	wRel := crop.Width / drawW
	hRel := crop.Height / drawH

	left := int(math.Round(xRel * photoW))
	top := int(math.Round(yRel * photoH))
	width := int(math.Round(wRel * photoW))
	height := int(math.Round(hRel * photoH))

	pad := int(math.Round(float64(height) * paddingRatio))
	left -= pad
	top -= pad
	width += 2 * pad
	height += 2 * pad

	return clampToPhoto(left, top, width, height, crop.PhotoWidth, crop.PhotoHeight)
}

// clampToPhoto forces the rectangle inside [0,photoW]x[0,photoH], shrinking
// the extent instead of moving the origin further than necessary.
func clampToPhoto(left, top, width, height, photoW, photoH int) domain.PixelRectangle {
	if left < 0 {
		width += left
		left = 0
	}
	if top < 0 {
		height += top
		top = 0
	}
	if left > photoW {
		left = photoW
	}
	if top > photoH {
		top = photoH
	}
	if left+width > photoW {
		width = photoW - left
	}
	if top+height > photoH {
		height = photoH - top
	}
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return domain.PixelRectangle{Left: left, Top: top, Width: width, Height: height}
}
