package variant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSizedImageURL(t *testing.T) {
	src := "https://cdn.shop.com/files/tee.jpg?v=123"
	assert.Equal(t, "//cdn.shop.com/files/tee_600x.jpg?v=123", SizedImageURL(src, "600x"))
	assert.Equal(t, "//cdn.shop.com/files/tee.jpg?v=123", SizedImageURL(src, "master"))
	assert.Equal(t, src, SizedImageURL(src, ""))
	assert.Equal(t, "", SizedImageURL("https://cdn.shop.com/files/tee.webp", "600x"))
}

func TestImageSize(t *testing.T) {
	assert.Equal(t, "600x", ImageSize("//cdn.shop.com/files/tee_600x.jpg"))
	assert.Equal(t, "grande", ImageSize("//cdn.shop.com/files/tee_grande.png"))
	assert.Equal(t, "", ImageSize("//cdn.shop.com/files/tee.jpg"))
}

func TestVariantURL(t *testing.T) {
	assert.Equal(t, "https://shop.test/products/tee?variant=42", VariantURL("https", "shop.test", "/products/tee", 42))
}
