package crop

import "github.com/go-gl/mathgl/mgl64"

// Box is an axis aligned box in block units, relative to the block origin.
type Box struct {
	Min mgl64.Vec3
	Max mgl64.Vec3
}

func (b Box) Height() float64 {
	return b.Max.Y() - b.Min.Y()
}

// Shape is the plant's outline: a 8x8 pixel column centred in the block that
// gains 4 pixels of height per age stage.
func (c *Crop) Shape(state State) Box {
	const px = 1.0 / 16
	top := 4 * float64(c.Age(state)+1) * px
	return Box{
		Min: mgl64.Vec3{4 * px, 0, 4 * px},
		Max: mgl64.Vec3{12 * px, top, 12 * px},
	}
}
