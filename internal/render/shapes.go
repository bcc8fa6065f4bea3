package render

import (
	"math"

	"github.com/fogleman/gg"
)

const gridSpacing = 50

func drawElement(dc *gg.Context, el Element) {
	cx, cy := Width*el.X, Height*el.Y
	dc.SetRGBA(1, 1, 1, el.Opacity)
	switch el.Kind {
	case KindCircle, KindBubble:
		dc.DrawCircle(cx, cy, el.Size)
		dc.Fill()
	case KindRect:
		dc.Push()
		dc.RotateAbout(gg.Radians(el.Rotation), cx, cy)
		dc.DrawRectangle(cx-el.Width/2, cy-el.Height/2, el.Width, el.Height)
		dc.Fill()
		dc.Pop()
	case KindStar:
		star(dc, cx, cy, el.Size, el.Points)
		dc.Fill()
	case KindWave:
		dc.SetLineWidth(30)
		dc.MoveTo(0, Height*0.8)
		dc.CubicTo(Width/4, Height*0.7, Width*3/4, Height*0.9, Width, Height*0.8)
		dc.Stroke()
	case KindHex:
		dc.DrawRegularPolygon(6, cx, cy, el.Size, 0)
		dc.Fill()
	case KindFlower:
		for i := range 6 {
			angle := float64(i) * math.Pi / 3
			dc.DrawCircle(cx+el.Size*math.Cos(angle), cy+el.Size*math.Sin(angle), el.Size/3)
			dc.Fill()
		}
		dc.DrawCircle(cx, cy, el.Size/4)
		dc.Fill()
	case KindGrid:
		dc.SetLineWidth(1)
		for x := float64(gridSpacing); x < Width; x += gridSpacing {
			dc.DrawLine(x, 0, x, Height)
		}
		for y := float64(gridSpacing); y < Height; y += gridSpacing {
			dc.DrawLine(0, y, Width, y)
		}
		dc.Stroke()
	case KindSun:
		dc.SetLineWidth(1)
		for i := range 12 {
			angle := float64(i) * math.Pi / 6
			dc.DrawLine(
				cx+el.Size*math.Cos(angle), cy+el.Size*math.Sin(angle),
				cx+el.Size*1.5*math.Cos(angle), cy+el.Size*1.5*math.Sin(angle),
			)
		}
		dc.Stroke()
		dc.DrawCircle(cx, cy, el.Size)
		dc.Fill()
	case KindAurora:
		dc.SetLineWidth(40)
		for i := range 3 {
			y := Height * (0.3 + float64(i)*0.2)
			dc.MoveTo(0, y)
			dc.CubicTo(Width/4, y-50, Width/2, y+50, Width, y-30)
			dc.Stroke()
		}
	}
}

// star traces a star with the given number of points; inner vertices sit at
// half the outer radius.
func star(dc *gg.Context, cx, cy, size float64, points int) {
	if points < 2 {
		points = 5
	}
	for i := 0; i < points*2; i++ {
		radius := size
		if i%2 == 1 {
			radius = size / 2
		}
		angle := float64(i) * math.Pi / float64(points)
		x := cx + radius*math.Sin(angle)
		y := cy + radius*math.Cos(angle)
		if i == 0 {
			dc.MoveTo(x, y)
		} else {
			dc.LineTo(x, y)
		}
	}
	dc.ClosePath()
}
