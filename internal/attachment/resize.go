package attachment

import (
	"image"

	"golang.org/x/image/draw"
)

// Resize renders src into style's box. Cropping styles first cut the largest
// centred region with the box's aspect ratio; others fit inside the box.
func Resize(src image.Image, style Style) image.Image {
	bounds := src.Bounds()
	if style.Crop {
		bounds = centreCrop(bounds, style.Width, style.Height)
	}

	width, height := style.Width, style.Height
	if !style.Crop {
		width, height = fit(bounds.Dx(), bounds.Dy(), style.Width, style.Height)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	if bounds.Empty() {
		return dst
	}
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)
	return dst
}

func centreCrop(b image.Rectangle, w, h int) image.Rectangle {
	srcW, srcH := b.Dx(), b.Dy()
	// Compare aspect ratios as srcW/srcH against w/h without floating point.
	if srcW*h > srcH*w {
		cropW := max(1, srcH*w/h)
		x0 := b.Min.X + (srcW-cropW)/2
		return image.Rect(x0, b.Min.Y, x0+cropW, b.Max.Y)
	}
	cropH := max(1, srcW*h/w)
	y0 := b.Min.Y + (srcH-cropH)/2
	return image.Rect(b.Min.X, y0, b.Max.X, y0+cropH)
}

func fit(srcW, srcH, maxW, maxH int) (int, int) {
	if srcW <= maxW && srcH <= maxH {
		return srcW, srcH
	}
	if srcW*maxH > srcH*maxW {
		return maxW, max(1, srcH*maxW/srcW)
	}
	return max(1, srcW*maxH/srcH), maxH
}
