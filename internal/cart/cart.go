package cart

import (
	"fmt"

	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/apperror"
	"github.com/clashroyalito29-netizen/MenuRestaurante/internal/menu"

	"github.com/shopspring/decimal"
)

type Line struct {
	ItemID    int64           `json:"itemId"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

// Subtotal is UnitPrice * Quantity, exact.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type Cart struct {
	Lines []Line `json:"items"`
}

func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// AddItem returns a new cart with item added. An item already in the cart
// has its quantity bumped; its snapshotted name and price are kept.
func AddItem(c Cart, item menu.Item) Cart {
	lines := make([]Line, len(c.Lines), len(c.Lines)+1)
	copy(lines, c.Lines)
	for i := range lines {
		if lines[i].ItemID == item.ID {
			lines[i].Quantity++
			return Cart{Lines: lines}
		}
	}
	lines = append(lines, Line{
		ItemID:    item.ID,
		Name:      item.Name,
		UnitPrice: item.Price,
		Quantity:  1,
	})
	return Cart{Lines: lines}
}

func Clear(Cart) Cart {
	return Cart{Lines: []Line{}}
}

// Total is the exact sum of all line subtotals. Round with RoundMinor only
// when displaying or submitting.
func Total(c Cart) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.Lines {
		sum = sum.Add(l.Subtotal())
	}
	return sum
}

func RoundMinor(d decimal.Decimal, minorUnits int32) decimal.Decimal {
	return d.Round(minorUnits)
}

func Format(d decimal.Decimal, minorUnits int32) string {
	return d.StringFixed(minorUnits)
}

// Snapshot returns a copy of the lines that shares no memory with c.
func Snapshot(c Cart) []Line {
	out := make([]Line, len(c.Lines))
	copy(out, c.Lines)
	return out
}

// FromLines rebuilds a cart from lines sent by a client. Lines repeating an
// item id are folded into the first one.
func FromLines(lines []Line) (Cart, error) {
	out := Cart{Lines: make([]Line, 0, len(lines))}
	index := make(map[int64]int, len(lines))
	for i, l := range lines {
		if l.ItemID <= 0 {
			return Cart{}, apperror.Validation(fmt.Sprintf("items[%d].itemId is required", i))
		}
		if l.Quantity <= 0 {
			return Cart{}, apperror.Validation(fmt.Sprintf("items[%d].quantity must be positive", i))
		}
		if l.UnitPrice.IsNegative() {
			return Cart{}, apperror.Validation(fmt.Sprintf("items[%d].unitPrice must not be negative", i))
		}
		if pos, ok := index[l.ItemID]; ok {
			out.Lines[pos].Quantity += l.Quantity
			continue
		}
		index[l.ItemID] = len(out.Lines)
		out.Lines = append(out.Lines, l)
	}
	return out, nil
}
