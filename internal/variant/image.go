package variant

import (
	"regexp"
	"strings"

	"storefront/internal/domain"
)

var (
	imageSizeRe  = regexp.MustCompile(`.+_((?:pico|icon|thumb|small|compact|medium|large|grande)|\d{1,4}x\d{0,4}|x\d{1,4})[_.@]`)
	imageExtRe   = regexp.MustCompile(`(?i)\.(jpg|jpeg|gif|png|bmp|bitmap|tiff|tif)(\?v=\d+)?$`)
	protocolRe   = regexp.MustCompile(`http(s)?:`)
	masterSizeID = "master"
)

// ImageSize extracts the size token from a CDN image URL ("" when absent).
func ImageSize(src string) string {
	m := imageSizeRe.FindStringSubmatch(src)
	if m == nil {
		return ""
	}
	return m[1]
}

// SizedImageURL inserts "_<size>" before the image extension and strips the
// protocol. An empty size returns src unchanged; "master" only strips the
// protocol. Unrecognised extensions yield "".
func SizedImageURL(src, size string) string {
	if size == "" {
		return src
	}
	if size == masterSizeID {
		return RemoveProtocol(src)
	}
	loc := imageExtRe.FindStringIndex(src)
	if loc == nil {
		return ""
	}
	return RemoveProtocol(src[:loc[0]] + "_" + size + src[loc[0]:])
}

// RemoveProtocol drops the first http: or https: prefix.
func RemoveProtocol(path string) string {
	loc := protocolRe.FindStringIndex(path)
	if loc == nil {
		return path
	}
	return path[:loc[0]] + path[loc[1]:]
}

// VariantURL returns the product URL with only the variant query parameter,
// used for history replacement.
func VariantURL(scheme, host, path string, variantID int64) string {
	var b strings.Builder
	if scheme != "" {
		b.WriteString(scheme)
		b.WriteString("://")
	}
	b.WriteString(host)
	b.WriteString(path)
	b.WriteString("?variant=")
	b.WriteString(domain.FormatID(variantID))
	return b.String()
}
