// Package attachment validates, renders and stores product photos.
package attachment

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"path"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/iyhunko/gas-app/internal/validation"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	// ContentTypeField is the attribute content type violations are attached to.
	ContentTypeField = "photo_content_type"
	// PhotoField carries violations of image files that cannot be rendered.
	PhotoField = "photo"

	// MsgUnreadable is reported for image types that have no decoder.
	MsgUnreadable = "could not be read as an image"
)

// ErrUnprocessable is returned when an image upload cannot be decoded.
var ErrUnprocessable = errors.New("image could not be processed")

// Upload is a file received from a client.
type Upload struct {
	Filename string
	Data     []byte
}

// Style is a derived rendition. Crop fills the box exactly, cutting the
// overflow around the centre.
type Style struct {
	Name   string
	Width  int
	Height int
	Crop   bool
}

// Original is the unmodified upload.
const Original = "original"

var (
	Medium = Style{Name: "medium", Width: 300, Height: 300, Crop: true}
	Thumb  = Style{Name: "thumb", Width: 100, Height: 100, Crop: true}

	// Styles lists the renditions written for every photo besides the original.
	Styles = []Style{Medium, Thumb}
)

// Rendition is one stored file of a photo.
type Rendition struct {
	Style       string
	ContentType string
	Data        []byte
}

// Prepared is an upload that passed validation, with its renditions rendered.
type Prepared struct {
	FileName    string
	ContentType string
	Size        int64
	Renditions  []Rendition
}

// DetectContentType sniffs the content type from the file bytes, ignoring the
// client supplied name and headers.
func DetectContentType(data []byte) string {
	ct := mimetype.Detect(data).String()
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = ct[:i]
	}
	return ct
}

// Validate reports content types other than image/*.
func Validate(contentType string) validation.Errors {
	return validation.Prefix(ContentTypeField, contentType, "image/")()
}

// Prepare validates upload and renders its styles. Violations come back as
// validation.Errors so they can be merged with the product's own.
func Prepare(upload Upload) (*Prepared, error) {
	contentType := DetectContentType(upload.Data)
	if errs := Validate(contentType); errs.Any() {
		return nil, errs
	}

	src, _, err := image.Decode(bytes.NewReader(upload.Data))
	if err != nil {
		return nil, validation.Errors{{Field: PhotoField, Message: MsgUnreadable}}
	}

	prepared := &Prepared{
		FileName:    SanitizeFilename(upload.Filename),
		ContentType: contentType,
		Size:        int64(len(upload.Data)),
		Renditions:  []Rendition{{Style: Original, ContentType: contentType, Data: upload.Data}},
	}
	for _, style := range Styles {
		rendition, err := render(src, style, contentType)
		if err != nil {
			return nil, err
		}
		prepared.Renditions = append(prepared.Renditions, rendition)
	}
	return prepared, nil
}

func render(src image.Image, style Style, contentType string) (Rendition, error) {
	dst := Resize(src, style)

	var buf bytes.Buffer
	var err error
	switch contentType {
	case "image/jpeg":
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 85})
	case "image/gif":
		err = gif.Encode(&buf, dst, nil)
	default:
		contentType = "image/png"
		err = png.Encode(&buf, dst)
	}
	if err != nil {
		return Rendition{}, fmt.Errorf("%w: %s: %v", ErrUnprocessable, style.Name, err)
	}
	return Rendition{Style: style.Name, ContentType: contentType, Data: buf.Bytes()}, nil
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// SanitizeFilename keeps the base name and replaces anything but letters,
// digits, dots, dashes and underscores.
func SanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, `\`, "/"))
	name = unsafeChars.ReplaceAllString(name, "_")
	if name == "" || name == "." || name == "/" {
		return "photo"
	}
	return name
}
