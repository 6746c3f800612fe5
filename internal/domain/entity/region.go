package entity

// Box прямоугольник в пиксельных координатах (x1,y1) — левый верхний угол, (x2,y2) — правый нижний.
type Box struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Width ширина прямоугольника.
func (b Box) Width() int {
	return b.X2 - b.X1
}

// Height высота прямоугольника.
func (b Box) Height() int {
	return b.Y2 - b.Y1
}

// Empty сообщает, что площадь прямоугольника нулевая.
func (b Box) Empty() bool {
	return b.X1 >= b.X2 || b.Y1 >= b.Y2
}

// Expand расширяет прямоугольник на margin пикселей с каждой стороны.
func (b Box) Expand(margin int) Box {
	return Box{X1: b.X1 - margin, Y1: b.Y1 - margin, X2: b.X2 + margin, Y2: b.Y2 + margin}
}

// Clamp обрезает прямоугольник по границам кадра width x height.
func (b Box) Clamp(width, height int) Box {
	return Box{
		X1: clampInt(b.X1, 0, width),
		Y1: clampInt(b.Y1, 0, height),
		X2: clampInt(b.X2, 0, width),
		Y2: clampInt(b.Y2, 0, height),
	}
}

// Area площадь прямоугольника в пикселях.
func (b Box) Area() int {
	if b.Empty() {
		return 0
	}
	return b.Width() * b.Height()
}

// DetectedRegion область кадра, которую детектор отнёс к классу ClassName.
type DetectedRegion struct {
	ClassName string  `json:"class"`
	Box       Box     `json:"box"`
	Score     float64 `json:"score,omitempty"`
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
