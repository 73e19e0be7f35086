package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iyhunko/gas-app/internal/validation"
	"github.com/shopspring/decimal"
)

const (
	// UnitKg prices a product per kilogram.
	UnitKg = "kg"
	// UnitLiter prices a product per liter.
	UnitLiter = "liter"

	unitMessage = "%{value} is not a valid unit"
)

// Units lists the accepted pricing units.
var Units = []string{UnitKg, UnitLiter}

// Photo holds the metadata of a product's attached image.
type Photo struct {
	FileName    string
	ContentType string
	FileSize    int64
	UpdatedAt   *time.Time
}

// Product represents a product entity with its properties and metadata.
type Product struct {
	ID          uuid.UUID
	ProducerID  uuid.UUID
	Name        string
	Description string
	Price       decimal.NullDecimal
	Unit        string
	Photo       Photo
	UpdatedAt   time.Time
	CreatedAt   time.Time

	priceNotANumber bool
}

// InitMeta initializes the product metadata including ID and timestamps.
func (p *Product) InitMeta() {
	p.ID = uuid.New()
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
}

// MaxPrice is the exclusive upper bound of a price.
const MaxPrice = 1e10

// HasPhoto reports whether an image is attached.
func (p *Product) HasPhoto() bool {
	return p.Photo.FileName != ""
}

// Rules returns the ordered field rules a product must satisfy before it is persisted.
func (p *Product) Rules() []validation.Rule {
	return []validation.Rule{
		validation.Presence("name", p.Name),
		validation.Presence("description", p.Description),
		validation.MinLength("description", p.Description, 5),
		p.priceRule,
		validation.Presence("unit", p.Unit),
		validation.Inclusion("unit", p.Unit, Units, unitMessage),
		p.producerRule,
	}
}

func (p *Product) priceRule() validation.Errors {
	var errs validation.Errors
	if !p.Price.Valid && !p.priceNotANumber {
		errs.Add("price", validation.MsgBlank)
	}
	var value *float64
	if p.Price.Valid {
		f := p.Price.Decimal.InexactFloat64()
		value = &f
	}
	errs.Merge(validation.Numericality("price", value, 0)())
	if p.Price.Valid {
		// The column is numeric(12,2): the stored value is the price rounded to cents.
		stored := p.Price.Decimal.Round(2).InexactFloat64()
		errs.Merge(validation.LessThan("price", &stored, MaxPrice)())
	}
	return errs
}

func (p *Product) producerRule() validation.Errors {
	if p.ProducerID == uuid.Nil {
		return validation.Errors{{Field: "producer", Message: validation.MsgBlank}}
	}
	return nil
}

// SetPrice parses raw as a decimal. Blank input clears the price; anything
// that is not a number is kept as invalid so the rules report it.
func (p *Product) SetPrice(raw string) {
	p.priceNotANumber = false
	raw = strings.TrimSpace(raw)
	if raw == "" {
		p.Price = decimal.NullDecimal{}
		return
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		p.Price = decimal.NullDecimal{}
		p.priceNotANumber = true
		return
	}
	p.Price = decimal.NewNullDecimal(d)
}

// ProductChanges is the whitelisted set of attributes a client may assign.
// The photo travels separately as an upload. Nil fields are left untouched.
type ProductChanges struct {
	Name        *string
	Description *string
	Price       *string
	Unit        *string
}

// Apply assigns the changes to p.
func (c ProductChanges) Apply(p *Product) {
	if c.Name != nil {
		p.Name = *c.Name
	}
	if c.Description != nil {
		p.Description = *c.Description
	}
	if c.Price != nil {
		p.SetPrice(*c.Price)
	}
	if c.Unit != nil {
		p.Unit = *c.Unit
	}
}
