package domain

// PlaceholderImage is used when the upstream record carries no usable
// image reference.
const PlaceholderImage = "https://via.placeholder.com/300"

// Product is the catalog DTO as served by the product API. Thumbnail,
// Images and Image are all optional upstream; ImageURL is filled in by
// Normalize and is the only field the rest of the system reads.
type Product struct {
	ID                 int64    `json:"id"`
	Title              string   `json:"title"`
	Description        string   `json:"description"`
	Price              float64  `json:"price"`
	Category           string   `json:"category"`
	Thumbnail          string   `json:"thumbnail,omitempty"`
	Image              string   `json:"image,omitempty"`
	Images             []string `json:"images,omitempty"`
	DiscountPercentage float64  `json:"discountPercentage,omitempty"`
	Rating             float64  `json:"rating,omitempty"`
	Stock              int      `json:"stock,omitempty"`
	Brand              string   `json:"brand,omitempty"`

	ImageURL string `json:"-"`
}

// Normalize resolves the optional image fields into ImageURL once, at
// ingestion, so no fallback chains leak into callers.
func (p *Product) Normalize() {
	switch {
	case p.Thumbnail != "":
		p.ImageURL = p.Thumbnail
	case p.Image != "":
		p.ImageURL = p.Image
	case len(p.Images) > 0:
		p.ImageURL = p.Images[0]
	default:
		p.ImageURL = PlaceholderImage
	}
}

type Category struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}
