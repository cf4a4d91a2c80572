package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize_ImageFallbackChain(t *testing.T) {
	tests := []struct {
		name    string
		product Product
		want    string
	}{
		{
			name:    "thumbnail wins",
			product: Product{Thumbnail: "thumb.jpg", Image: "image.jpg", Images: []string{"first.jpg"}},
			want:    "thumb.jpg",
		},
		{
			name:    "image when no thumbnail",
			product: Product{Image: "image.jpg", Images: []string{"first.jpg"}},
			want:    "image.jpg",
		},
		{
			name:    "first of images",
			product: Product{Images: []string{"first.jpg", "second.jpg"}},
			want:    "first.jpg",
		},
		{
			name:    "placeholder when nothing set",
			product: Product{},
			want:    PlaceholderImage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.product.Normalize()
			require.Equal(t, tt.want, tt.product.ImageURL)
		})
	}
}
