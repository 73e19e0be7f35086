package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/iyhunko/gas-app/internal/validation"
)

// Producer represents a seller account with credentials and a geocoded address.
type Producer struct {
	ID              uuid.UUID
	Name            string
	Address         string
	Email           string
	Phone           string
	CryptedPassword string
	Salt            string
	Latitude        *float64
	Longitude       *float64
	UpdatedAt       time.Time
	CreatedAt       time.Time

	// Password and PasswordConfirmation are never persisted.
	Password             string
	PasswordConfirmation string
}

// InitMeta initializes the producer metadata including ID and timestamps.
func (p *Producer) InitMeta() {
	p.ID = uuid.New()
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
}

// Rules returns the ordered field rules a producer must satisfy before it is persisted.
// Email uniqueness needs the store and is checked by the service.
func (p *Producer) Rules() []validation.Rule {
	return []validation.Rule{
		validation.Presence("name", p.Name),
		validation.Presence("address", p.Address),
		validation.Presence("email", p.Email),
		validation.Confirmation("password", p.Password, p.PasswordConfirmation),
	}
}

// Geocoded reports whether the producer has coordinates.
func (p *Producer) Geocoded() bool {
	return p.Latitude != nil && p.Longitude != nil
}

// SetCoordinates stores a geocoding result.
func (p *Producer) SetCoordinates(lat, lng float64) {
	p.Latitude = &lat
	p.Longitude = &lng
}

// Marker is a map pin for a geocoded producer.
type Marker struct {
	ProducerID uuid.UUID
	Name       string
	Lat        float64
	Lng        float64
}

// Marker returns the producer's map pin; ok is false when it has no coordinates.
func (p *Producer) Marker() (Marker, bool) {
	if !p.Geocoded() {
		return Marker{}, false
	}
	return Marker{ProducerID: p.ID, Name: p.Name, Lat: *p.Latitude, Lng: *p.Longitude}, true
}

// ProducerChanges is the whitelisted set of attributes a client may assign.
// Nil fields are left untouched.
type ProducerChanges struct {
	Name                 *string
	Address              *string
	Email                *string
	Phone                *string
	Password             *string
	PasswordConfirmation *string
}

// Apply assigns the changes to p and reports whether the address changed.
func (c ProducerChanges) Apply(p *Producer) (addressChanged bool) {
	if c.Name != nil {
		p.Name = *c.Name
	}
	if c.Address != nil && *c.Address != p.Address {
		p.Address = *c.Address
		addressChanged = true
	}
	if c.Email != nil {
		p.Email = *c.Email
	}
	if c.Phone != nil {
		p.Phone = *c.Phone
	}
	if c.Password != nil {
		p.Password = *c.Password
	}
	if c.PasswordConfirmation != nil {
		p.PasswordConfirmation = *c.PasswordConfirmation
	}
	return addressChanged
}
