package engine

// Point is a position on the table in pixels
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Rect is an axis-aligned rectangle. Contains is inclusive on every edge.
type Rect struct {
	Min Point `json:"min"`
	Max Point `json:"max"`
}

// Contains reports whether p lies within r
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Overlaps reports whether r and o share any point
func (r Rect) Overlaps(o Rect) bool {
	return r.Min.X <= o.Max.X && o.Min.X <= r.Max.X && r.Min.Y <= o.Max.Y && o.Min.Y <= r.Max.Y
}

// Geometry describes where piles sit on the table. It is only used to map pointer positions
// to piles; the engine never draws anything.
type Geometry struct {
	CardWidth         int   `json:"card_width"`
	CardHeight        int   `json:"card_height"`
	OverlapY          int   `json:"overlap_y"`
	HorizontalSpacing int   `json:"horizontal_spacing"`
	TableauStart      Point `json:"tableau_start"`
	FoundationStart   Point `json:"foundation_start"`
}

// DefaultGeometry returns the classic board layout
func DefaultGeometry() Geometry {
	return Geometry{
		CardWidth:         73,
		CardHeight:        98,
		OverlapY:          20,
		HorizontalSpacing: 20,
		TableauStart:      Point{X: 50, Y: 150},
		FoundationStart:   Point{X: 50, Y: 30},
	}
}

func (g Geometry) column() int {
	return g.CardWidth + g.HorizontalSpacing
}

func (g Geometry) cardRect(origin Point, height int) Rect {
	return Rect{Min: origin, Max: Point{X: origin.X + g.CardWidth, Y: origin.Y + height}}
}

// StockOrigin is the top-left corner of the stock, above the last tableau column
func (g Geometry) StockOrigin() Point {
	return Point{X: g.TableauStart.X + (TableauCount-1)*g.column(), Y: g.FoundationStart.Y}
}

// WasteOrigin is the top-left corner of the waste, one column left of the stock
func (g Geometry) WasteOrigin() Point {
	s := g.StockOrigin()
	return Point{X: s.X - g.column(), Y: s.Y}
}

// FoundationOrigin is the top-left corner of foundation i
func (g Geometry) FoundationOrigin(i int) Point {
	return Point{X: g.FoundationStart.X + i*g.column(), Y: g.FoundationStart.Y}
}

// TableauCardOrigin is the top-left corner of card j in tableau i
func (g Geometry) TableauCardOrigin(i, j int) Point {
	return Point{X: g.TableauStart.X + i*g.column(), Y: g.TableauStart.Y + j*g.OverlapY}
}

// Origin returns the top-left corner of card index within the pile at ref
func (g Geometry) Origin(ref PileRef, index int) Point {
	switch ref.Kind {
	case StockPile:
		return g.StockOrigin()
	case WastePile:
		return g.WasteOrigin()
	case FoundationPile:
		return g.FoundationOrigin(ref.Index)
	}
	return g.TableauCardOrigin(ref.Index, index)
}

// StockRect is the clickable area of the stock
func (g Geometry) StockRect() Rect {
	return g.cardRect(g.StockOrigin(), g.CardHeight)
}

// WasteRect is the clickable area of the waste top card
func (g Geometry) WasteRect() Rect {
	return g.cardRect(g.WasteOrigin(), g.CardHeight)
}

// FoundationRect is the area of foundation i, used for both pickups and drops
func (g Geometry) FoundationRect(i int) Rect {
	return g.cardRect(g.FoundationOrigin(i), g.CardHeight)
}

// TableauDropRect is the landing area of tableau i holding size cards: the slot under the
// current top, one overlap taller than a card.
func (g Geometry) TableauDropRect(i, size int) Rect {
	origin := g.TableauCardOrigin(i, 0)
	if size > 0 {
		origin = g.TableauCardOrigin(i, size)
	}
	return g.cardRect(origin, g.CardHeight+g.OverlapY)
}

// Hit is the result of mapping a pointer position to a pile
type Hit struct {
	Ref    PileRef `json:"pile"`
	Index  int     `json:"index"`
	Offset Point   `json:"offset"`
}

// HitTest maps a pointer-down position to the pile and card under it. Piles are tested in
// the order stock, waste, tableau, foundation. Empty waste and foundations are not hits. A
// tableau card only owns the visible strip above the next card; the top card owns its full
// height.
func (g Geometry) HitTest(b *Board, p Point) (Hit, bool) {
	if g.StockRect().Contains(p) {
		return Hit{Ref: StockRef, Offset: offset(p, g.StockOrigin())}, true
	}
	if !b.Waste.IsEmpty() && g.WasteRect().Contains(p) {
		return Hit{Ref: WasteRef, Index: b.Waste.Len() - 1, Offset: offset(p, g.WasteOrigin())}, true
	}
	for i, t := range b.Tableaus {
		n := t.Len()
		for j := 0; j < n; j++ {
			height := g.OverlapY
			if j == n-1 {
				height = g.CardHeight
			}
			origin := g.TableauCardOrigin(i, j)
			if g.cardRect(origin, height).Contains(p) {
				return Hit{Ref: Tableau(i), Index: j, Offset: offset(p, origin)}, true
			}
		}
	}
	for i, f := range b.Foundations {
		if !f.IsEmpty() && g.FoundationRect(i).Contains(p) {
			return Hit{Ref: Foundation(i), Index: f.Len() - 1, Offset: offset(p, g.FoundationOrigin(i))}, true
		}
	}
	return Hit{}, false
}

// DropTargets lists the piles whose landing area contains p, foundations first, each kind in
// ascending index. The pile named by exclude is skipped.
func (g Geometry) DropTargets(b *Board, p Point, exclude PileRef) []PileRef {
	var targets []PileRef
	for i := range b.Foundations {
		ref := Foundation(i)
		if ref != exclude && g.FoundationRect(i).Contains(p) {
			targets = append(targets, ref)
		}
	}
	for i, t := range b.Tableaus {
		ref := Tableau(i)
		if ref != exclude && g.TableauDropRect(i, t.Len()).Contains(p) {
			targets = append(targets, ref)
		}
	}
	return targets
}

func offset(p, origin Point) Point {
	return Point{X: p.X - origin.X, Y: p.Y - origin.Y}
}
