package attachment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/iyhunko/gas-app/internal/model"
)

const defaultURLFormat = "/system/products/photos/default/%s/missing_photo.jpg"

// Attacher stores product photos and builds their URLs.
type Attacher struct {
	store   Store
	baseURL string
}

// NewAttacher creates an Attacher writing to store. baseURL is the public
// prefix under which stored keys are served.
func NewAttacher(store Store, baseURL string) *Attacher {
	return &Attacher{store: store, baseURL: strings.TrimRight(baseURL, "/")}
}

// Key returns the storage key of a product photo rendition.
func Key(productID uuid.UUID, style, fileName string) string {
	return fmt.Sprintf("products/photos/%s/%s/%s", productID, style, fileName)
}

func styleNames() []string {
	names := []string{Original}
	for _, s := range Styles {
		names = append(names, s.Name)
	}
	return names
}

// Attach writes every rendition of photo for productID.
func (a *Attacher) Attach(ctx context.Context, productID uuid.UUID, photo *Prepared) error {
	for _, r := range photo.Renditions {
		if err := a.store.Put(ctx, Key(productID, r.Style, photo.FileName), r.ContentType, r.Data); err != nil {
			return err
		}
	}
	return nil
}

// Detach deletes every rendition of photo. It tries all of them and reports the failures together.
func (a *Attacher) Detach(ctx context.Context, productID uuid.UUID, photo model.Photo) error {
	if photo.FileName == "" {
		return nil
	}
	var errs []error
	for _, style := range styleNames() {
		if err := a.store.Delete(ctx, Key(productID, style, photo.FileName)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// URL returns where the style rendition of the product's photo is served,
// or the placeholder image when it has none.
func (a *Attacher) URL(product *model.Product, style string) string {
	if !product.HasPhoto() {
		return DefaultURL(style)
	}
	url := a.baseURL + "/" + Key(product.ID, style, product.Photo.FileName)
	if product.Photo.UpdatedAt != nil {
		url += fmt.Sprintf("?%d", product.Photo.UpdatedAt.Unix())
	}
	return url
}

// DefaultURL is the placeholder shown for products without a photo.
func DefaultURL(style string) string {
	return fmt.Sprintf(defaultURLFormat, style)
}
