package models

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FieldSeparator splits the four columns of a persisted product line.
const FieldSeparator = "|"

// ErrMalformedLine indicates a persisted line could not be parsed into a Product.
var ErrMalformedLine = errors.New("malformed product line")

// Product is one inventory entry.
type Product struct {
	ID       string  `json:"id" bson:"id"`
	Name     string  `json:"name" bson:"name"`
	Quantity int     `json:"quantity" bson:"quantity"`
	Price    float64 `json:"price" bson:"price"`
}

// ProductUpdate carries the fields to change on an existing product. Nil fields are kept.
type ProductUpdate struct {
	Name     *string
	Quantity *int
	Price    *float64
}

// Apply returns a copy of p with the non-nil fields of u applied.
func (u ProductUpdate) Apply(p Product) Product {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Quantity != nil {
		p.Quantity = *u.Quantity
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	return p
}

// Value is the stock value of the product (quantity times unit price).
func (p Product) Value() float64 {
	return float64(p.Quantity) * p.Price
}

// Validate reports whether the product can be persisted and read back unchanged.
func (p Product) Validate() error {
	switch {
	case strings.TrimSpace(p.ID) == "":
		return errors.New("id must not be empty")
	case strings.TrimSpace(p.Name) == "":
		return errors.New("name must not be empty")
	case p.ID != strings.TrimSpace(p.ID):
		return fmt.Errorf("id %q has surrounding whitespace", p.ID)
	case strings.ContainsAny(p.ID, FieldSeparator+"\r\n"):
		return fmt.Errorf("id %q contains a reserved character", p.ID)
	case strings.ContainsAny(p.Name, FieldSeparator+"\r\n"):
		return fmt.Errorf("name %q contains a reserved character", p.Name)
	case p.Quantity < 0:
		return fmt.Errorf("quantity %d is negative", p.Quantity)
	case math.IsNaN(p.Price) || math.IsInf(p.Price, 0):
		return fmt.Errorf("price %v is not a finite number", p.Price)
	case p.Price < 0:
		return fmt.Errorf("price %v is negative", p.Price)
	}
	return nil
}

// Line renders the product as a persisted line, without the trailing newline.
func (p Product) Line() string {
	return strings.Join([]string{
		p.ID,
		p.Name,
		strconv.Itoa(p.Quantity),
		strconv.FormatFloat(p.Price, 'f', -1, 64),
	}, FieldSeparator)
}

func (p Product) String() string {
	return fmt.Sprintf("%s: %s (qty %d, price %.2f)", p.ID, p.Name, p.Quantity, p.Price)
}

// ParseLine parses one persisted line. Surrounding whitespace and line endings are ignored.
func ParseLine(line string) (Product, error) {
	parts := strings.Split(strings.TrimSpace(line), FieldSeparator)
	if len(parts) != 4 {
		return Product{}, fmt.Errorf("%w: expected 4 fields, got %d", ErrMalformedLine, len(parts))
	}

	quantity, err := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err != nil {
		return Product{}, fmt.Errorf("%w: quantity %q", ErrMalformedLine, parts[2])
	}

	price, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
	if err != nil {
		return Product{}, fmt.Errorf("%w: price %q", ErrMalformedLine, parts[3])
	}

	p := Product{ID: strings.TrimSpace(parts[0]), Name: parts[1], Quantity: quantity, Price: price}
	if err := p.Validate(); err != nil {
		return Product{}, fmt.Errorf("%w: %v", ErrMalformedLine, err)
	}
	return p, nil
}
