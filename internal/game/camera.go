package game

import (
	"math"

	"github.com/jakecoffman/cp"

	"github.com/Garsondee/Ship-Sense/internal/nav"
)

const (
	zoomMin = 1.0
	zoomMax = 16.0
)

// camera maps world units onto the playfield viewport. At zoom 1 the whole
// world fits the viewport.
type camera struct {
	world      nav.Rect
	vpW, vpH   float64
	center     cp.Vector
	zoom       float64
	fitScale   float64
	followLock bool
}

func newCamera(world nav.Rect, vpW, vpH int) camera {
	c := camera{
		world:  world,
		vpW:    float64(vpW),
		vpH:    float64(vpH),
		center: world.Center(),
		zoom:   1,
	}
	c.fitScale = math.Min(c.vpW/world.Width(), c.vpH/world.Height())
	return c
}

// scale is pixels per world unit.
func (c *camera) scale() float64 { return c.fitScale * c.zoom }

// toScreen returns viewport-relative pixel coordinates for a world point.
func (c *camera) toScreen(p cp.Vector) (float32, float32) {
	s := c.scale()
	x := (p.X-c.center.X)*s + c.vpW/2
	y := (p.Y-c.center.Y)*s + c.vpH/2
	return float32(x), float32(y)
}

// toWorld inverts toScreen.
func (c *camera) toWorld(x, y float64) cp.Vector {
	s := c.scale()
	return cp.Vector{
		X: (x-c.vpW/2)/s + c.center.X,
		Y: (y-c.vpH/2)/s + c.center.Y,
	}
}

// pan moves the camera by a screen-space offset.
func (c *camera) pan(dx, dy float64) {
	s := c.scale()
	c.center = c.center.Add(cp.Vector{X: dx / s, Y: dy / s})
	c.clamp()
}

func (c *camera) zoomBy(f float64) {
	c.zoom = math.Max(zoomMin, math.Min(zoomMax, c.zoom*f))
	c.clamp()
}

func (c *camera) lookAt(p cp.Vector) {
	c.center = p
	c.clamp()
}

// clamp keeps the visible area inside the world where it fits.
func (c *camera) clamp() {
	s := c.scale()
	halfW := c.vpW / 2 / s
	halfH := c.vpH / 2 / s
	c.center.X = clampSpan(c.center.X, c.world.Min.X+halfW, c.world.Max.X-halfW, c.world.Center().X)
	c.center.Y = clampSpan(c.center.Y, c.world.Min.Y+halfH, c.world.Max.Y-halfH, c.world.Center().Y)
}

func clampSpan(v, lo, hi, mid float64) float64 {
	if lo > hi {
		return mid
	}
	return math.Max(lo, math.Min(hi, v))
}
