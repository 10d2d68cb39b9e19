package domain

// CropRectangle is the crop box drawn in the UI, expressed in on-screen
// layout units, together with the viewport and captured-photo dimensions
// needed to map it into pixel space. It is an immutable snapshot created
// once per capture.
type CropRectangle struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	ScreenWidth  float64 `json:"screenWidth"`
	ScreenHeight float64 `json:"screenHeight"`
	PhotoWidth   int     `json:"photoWidth"`
	PhotoHeight  int     `json:"photoHeight"`
}

// Complete reports whether the snapshot carries enough information to map
// screen coordinates onto the photo. An incomplete crop means "use the
// full image".
func (c *CropRectangle) Complete() bool {
	if c == nil {
		return false
	}
	return c.Width > 0 && c.Height > 0 &&
		c.ScreenWidth > 0 && c.ScreenHeight > 0 &&
		c.PhotoWidth > 0 && c.PhotoHeight > 0
}

// PixelRectangle is a crop rectangle in photo pixel space, clamped to the
// photo bounds.
type PixelRectangle struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}
