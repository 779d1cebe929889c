package quotes

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/puntourbano/eventdesk/internal/catalog"
)

// Category groups line items on a quote.
type Category string

const (
	CategoryFurnishings Category = "accesorios"
	CategoryLogistics   Category = "logistica"
	CategoryOther       Category = "otros"
)

// Categories is the fixed display order of the ledger.
var Categories = []Category{CategoryFurnishings, CategoryLogistics, CategoryOther}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	for _, candidate := range Categories {
		if c == candidate {
			return true
		}
	}
	return false
}

// ParseCategory validates a category key.
func ParseCategory(raw string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	if !c.Valid() {
		return "", validationf("unknown category %q", raw)
	}
	return c, nil
}

// LineItem is one priced row. Negative values are accepted as entered.
type LineItem struct {
	Name      string
	Quantity  int
	Days      int
	UnitPrice decimal.Decimal
}

// LineTotal is quantity × days × unit price.
func (li LineItem) LineTotal() decimal.Decimal {
	return decimal.NewFromInt(int64(li.Quantity)).
		Mul(decimal.NewFromInt(int64(li.Days))).
		Mul(li.UnitPrice)
}

// Field selects the line item attribute changed by Ledger.Update.
type Field string

const (
	FieldName      Field = "name"
	FieldQuantity  Field = "cant"
	FieldDays      Field = "days"
	FieldUnitPrice Field = "unit"
)

// Ledger holds the line items of a quote keyed by category.
// The zero value is an empty ledger ready to use.
type Ledger struct {
	rows map[Category][]LineItem
}

// NewLedger builds a ledger from existing rows. Unknown categories are rejected.
func NewLedger(rows map[Category][]LineItem) (Ledger, error) {
	var l Ledger
	for c, items := range rows {
		if !c.Valid() {
			return Ledger{}, validationf("unknown category %q", c)
		}
		if len(items) == 0 {
			continue
		}
		l.init()
		l.rows[c] = append([]LineItem(nil), items...)
	}
	return l, nil
}

func (l *Ledger) init() {
	if l.rows == nil {
		l.rows = make(map[Category][]LineItem, len(Categories))
	}
}

// Add appends a zero-valued row to c and returns its index.
func (l *Ledger) Add(c Category) (int, error) {
	return l.append(c, LineItem{})
}

// AddFromCatalog appends a row seeded from a catalog item: its name and price,
// with quantity and days left at zero.
func (l *Ledger) AddFromCatalog(c Category, item catalog.Item) (int, error) {
	return l.append(c, LineItem{Name: item.Name, UnitPrice: item.Price})
}

func (l *Ledger) append(c Category, item LineItem) (int, error) {
	if !c.Valid() {
		return 0, validationf("unknown category %q", c)
	}
	l.init()
	l.rows[c] = append(l.rows[c], item)
	return len(l.rows[c]) - 1, nil
}

// Update sets one field of the row at index, parsing value from its form
// representation. The row total follows from the new values.
func (l *Ledger) Update(c Category, index int, field Field, value string) error {
	item, err := l.row(c, index)
	if err != nil {
		return err
	}
	switch field {
	case FieldName:
		item.Name = value
	case FieldQuantity:
		n, err := parseCount(field, value)
		if err != nil {
			return err
		}
		item.Quantity = n
	case FieldDays:
		n, err := parseCount(field, value)
		if err != nil {
			return err
		}
		item.Days = n
	case FieldUnitPrice:
		price, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return validationf("invalid %s %q", field, value)
		}
		item.UnitPrice = price
	default:
		return validationf("unknown line item field %q", field)
	}
	return nil
}

// Remove deletes the row at index.
func (l *Ledger) Remove(c Category, index int) error {
	if _, err := l.row(c, index); err != nil {
		return err
	}
	items := l.rows[c]
	l.rows[c] = append(items[:index:index], items[index+1:]...)
	return nil
}

func (l *Ledger) row(c Category, index int) (*LineItem, error) {
	if !c.Valid() {
		return nil, validationf("unknown category %q", c)
	}
	items := l.rows[c]
	if index < 0 || index >= len(items) {
		return nil, validationf("line item %d out of range in %s", index, c)
	}
	return &items[index], nil
}

// Rows returns a copy of the rows in c.
func (l Ledger) Rows(c Category) []LineItem {
	return append([]LineItem(nil), l.rows[c]...)
}

// Len counts rows over every category.
func (l Ledger) Len() int {
	n := 0
	for _, items := range l.rows {
		n += len(items)
	}
	return n
}

// CategoryTotal sums the line totals of c. Empty categories contribute zero.
func (l Ledger) CategoryTotal(c Category) decimal.Decimal {
	total := decimal.Zero
	for _, item := range l.rows[c] {
		total = total.Add(item.LineTotal())
	}
	return total
}

// NetTotal sums every line total in display order.
func (l Ledger) NetTotal() decimal.Decimal {
	total := decimal.Zero
	for _, c := range Categories {
		total = total.Add(l.CategoryTotal(c))
	}
	return total
}

func parseCount(field Field, value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, validationf("invalid %s %q", field, value)
	}
	return n, nil
}
