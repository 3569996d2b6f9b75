package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"storefront/internal/domain"
)

type ProductWriter interface {
	Save(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// CSVImporter reads storefront product CSV exports and upserts products.
// Consecutive rows sharing a handle are variants of one product; rows with
// only an image source add images to the current product.
type CSVImporter struct {
	reader *csv.Reader
	writer ProductWriter
	logger *zap.Logger
}

func NewCSVImporter(r io.Reader, writer ProductWriter, logger *zap.Logger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSVImporter{reader: csvr, writer: writer, logger: logger}
}

var optionHeaders = [3][2]string{
	{"Option1 Name", "Option1 Value"},
	{"Option2 Name", "Option2 Value"},
	{"Option3 Name", "Option3 Value"},
}

// Run parses CSV rows and upserts products grouped by handle.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["Handle"]; !ok {
		if _, ok := index["Title"]; !ok {
			return 0, errors.New("read headers: Handle or Title column required")
		}
	}

	var (
		current  *domain.Product
		imported int
		line     = 1
	)
	flush := func() error {
		if current == nil {
			return nil
		}
		saved, err := i.writer.Save(ctx, *current)
		if err != nil {
			return fmt.Errorf("save product %q: %w", current.Handle, err)
		}
		i.logger.Info("imported product", zap.String("handle", saved.Handle), zap.Int("variants", len(saved.Variants)))
		imported++
		current = nil
		return nil
	}

	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}
		line++

		handle := pick(record, index, "Handle")
		title := pick(record, index, "Title")
		if handle == "" && title != "" {
			handle = slug.Make(title)
		}
		image := pick(record, index, "Image Src")

		if handle != "" && (current == nil || current.Handle != handle) {
			if err := flush(); err != nil {
				return imported, err
			}
			current = &domain.Product{
				Handle:      handle,
				Title:       title,
				Description: pick(record, index, "Body (HTML)"),
			}
			for _, h := range optionHeaders {
				if name := pick(record, index, h[0]); name != "" {
					current.Options = append(current.Options, name)
				}
			}
		}
		if current == nil {
			continue
		}
		if image != "" {
			current.Images = append(current.Images, image)
		}
		if pick(record, index, "Variant Price") == "" {
			continue
		}
		v, err := parseVariant(record, index, len(current.Options))
		if err != nil {
			return imported, fmt.Errorf("row %d: %w", line, err)
		}
		current.Variants = append(current.Variants, v)
	}

	if err := flush(); err != nil {
		return imported, err
	}
	return imported, nil
}

func parseVariant(record []string, index map[string]int, optionCount int) (domain.Variant, error) {
	var v domain.Variant
	for n := 0; n < optionCount; n++ {
		v.Options = append(v.Options, pick(record, index, optionHeaders[n][1]))
	}
	v.SKU = pick(record, index, "Variant SKU")

	price, err := ParseCents(pick(record, index, "Variant Price"))
	if err != nil {
		return v, fmt.Errorf("variant price: %w", err)
	}
	v.Price = price
	if raw := pick(record, index, "Variant Compare At Price"); raw != "" {
		cmp, err := ParseCents(raw)
		if err != nil {
			return v, fmt.Errorf("variant compare at price: %w", err)
		}
		v.CompareAtPrice = &cmp
	}
	if raw := pick(record, index, "Variant Inventory Qty"); raw != "" {
		qty, err := strconv.Atoi(raw)
		if err != nil {
			return v, fmt.Errorf("variant inventory qty %q: %w", raw, err)
		}
		v.InventoryQuantity = qty
	}
	v.Available = v.InventoryQuantity > 0
	if pick(record, index, "Variant Inventory Policy") == "continue" || pick(record, index, "Variant Inventory Qty") == "" {
		v.Available = true
	}
	if src := pick(record, index, "Variant Image"); src != "" {
		v.FeaturedImage = &domain.Image{Src: src}
	}
	return v, nil
}

// ParseCents converts a decimal amount such as "19.99" or "1,299.5" to
// minor units. More than two decimals is an error.
func ParseCents(raw string) (int64, error) {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	whole, frac, _ := strings.Cut(s, ".")
	if len(frac) > 2 {
		return 0, fmt.Errorf("amount %q has more than two decimals", raw)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	if whole == "" {
		whole = "0"
	}
	cents, err := strconv.ParseInt(whole+frac, 10, 64)
	if err != nil || cents < 0 {
		return 0, fmt.Errorf("invalid amount %q", raw)
	}
	return cents, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
