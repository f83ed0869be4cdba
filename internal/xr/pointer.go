package xr

import "github.com/go-gl/mathgl/mgl64"

// Pointer is a screen pointer such as a mouse.
type Pointer struct {
	pos  mgl64.Vec2
	held bool
	prev bool
}

func NewPointer(x, y float64) *Pointer {
	return &Pointer{pos: mgl64.Vec2{x, y}}
}

func (p *Pointer) PointerPosition() mgl64.Vec2 { return p.pos }
func (p *Pointer) SetPosition(x, y float64)    { p.pos = mgl64.Vec2{x, y} }
func (p *Pointer) SetButton(down bool)         { p.held = down }

func (p *Pointer) Held() bool { return p.held }
func (p *Pointer) Down() bool { return p.held && !p.prev }
func (p *Pointer) Up() bool   { return !p.held && p.prev }

func (p *Pointer) EndFrame() { p.prev = p.held }
