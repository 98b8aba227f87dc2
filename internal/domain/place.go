package domain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MinDescriptionLength is the shortest description accepted for a place.
const MinDescriptionLength = 5

// DefaultPlaceImage is used when a place is created without an image reference.
const DefaultPlaceImage = "places/default.jpg"

// Place validation errors
var (
	ErrEmptyPlaceID        = errors.New("place ID cannot be empty")
	ErrEmptyTitle          = errors.New("title cannot be empty")
	ErrDescriptionTooShort = fmt.Errorf("description must be at least %d characters long", MinDescriptionLength)
	ErrEmptyAddress        = errors.New("address cannot be empty")
	ErrEmptyCreatorID      = errors.New("creator ID cannot be empty")
)

// Location is a geographic coordinate pair.
type Location struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lng"`
}

// Validate checks that the coordinates are within WGS84 bounds.
func (l Location) Validate() error {
	if math.IsNaN(l.Lat) || math.IsNaN(l.Lon) {
		return fmt.Errorf("%w: coordinates are not numbers", ErrInvalidLocation)
	}
	if l.Lat < -90 || l.Lat > 90 || l.Lon < -180 || l.Lon > 180 {
		return fmt.Errorf("%w: lat=%f lng=%f", ErrInvalidLocation, l.Lat, l.Lon)
	}
	return nil
}

// Place is a user-submitted location. Location is resolved from Address
// once, when the place is created, and never recomputed.
type Place struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Address     string    `json:"address"`
	Location    Location  `json:"location"`
	ImageRef    string    `json:"image"`
	CreatorID   uuid.UUID `json:"creator"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PlaceDraft carries the caller-supplied fields of a place before it is
// geocoded and assigned an ID.
type PlaceDraft struct {
	Title       string
	Description string
	Address     string
	ImageRef    string
	CreatorID   uuid.UUID
}

// Validate checks the draft fields without requiring an ID or location.
func (d PlaceDraft) Validate() error {
	if err := validatePlaceText(d.Title, d.Description); err != nil {
		return err
	}
	if strings.TrimSpace(d.Address) == "" {
		return ErrEmptyAddress
	}
	if d.CreatorID == uuid.Nil {
		return ErrEmptyCreatorID
	}
	return nil
}

// NewPlace builds a Place from a draft and its resolved location.
func NewPlace(draft PlaceDraft, loc Location) (*Place, error) {
	imageRef := draft.ImageRef
	if imageRef == "" {
		imageRef = DefaultPlaceImage
	}

	now := time.Now().UTC()
	place := &Place{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(draft.Title),
		Description: strings.TrimSpace(draft.Description),
		Address:     strings.TrimSpace(draft.Address),
		Location:    loc,
		ImageRef:    imageRef,
		CreatorID:   draft.CreatorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := place.Validate(); err != nil {
		return nil, err
	}

	return place, nil
}

// Validate checks if the Place has valid data.
func (p *Place) Validate() error {
	if p.ID == uuid.Nil {
		return ErrEmptyPlaceID
	}
	if err := validatePlaceText(p.Title, p.Description); err != nil {
		return err
	}
	if p.Address == "" {
		return ErrEmptyAddress
	}
	if p.CreatorID == uuid.Nil {
		return ErrEmptyCreatorID
	}
	return p.Location.Validate()
}

// UpdateDetails replaces the mutable text fields. Address, location and
// creator are fixed at creation.
func (p *Place) UpdateDetails(title, description string) error {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if err := validatePlaceText(title, description); err != nil {
		return err
	}
	p.Title = title
	p.Description = description
	p.UpdatedAt = time.Now().UTC()
	return nil
}

func validatePlaceText(title, description string) error {
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}
	if len(strings.TrimSpace(description)) < MinDescriptionLength {
		return ErrDescriptionTooShort
	}
	return nil
}
