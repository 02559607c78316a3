package transfer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/erazemk/gudang/internal/apperr"
	"github.com/erazemk/gudang/internal/model"
)

// Column names of the item CSV format, as written by WriteItemsCSV.
const (
	colSKU      = "sku"
	colName     = "name"
	colCategory = "category"
	colLocation = "location"
	colStock    = "stock"
	colPhoto    = "photo_url"
)

var columns = []string{colSKU, colName, colCategory, colLocation, colStock, colPhoto}

// headerAliases maps folded header spellings to columns. Spaces, dashes and
// underscores are interchangeable.
var headerAliases = map[string]string{
	"sku":         colSKU,
	"kode barang": colSKU,
	"name":        colName,
	"nama":        colName,
	"nama barang": colName,
	"category":    colCategory,
	"kategori":    colCategory,
	"location":    colLocation,
	"lokasi":      colLocation,
	"kode lokasi": colLocation,
	"stock":       colStock,
	"stok":        colStock,
	"qty":         colStock,
	"jumlah":      colStock,
	"photo":       colPhoto,
	"photo url":   colPhoto,
	"foto":        colPhoto,
	"foto barang": colPhoto,
	"poto barang": colPhoto,
}

func normalizeHeader(fold cases.Caser, h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.NewReplacer("_", " ", "-", " ").Replace(h)
	return fold.String(strings.Join(strings.Fields(h), " "))
}

// Row is one parsed CSV line. LocationCode is resolved to a location ID
// when the row is imported.
type Row struct {
	Line         int
	Item         model.Item
	LocationCode string
}

// ParseItemsCSV reads an item CSV. The header row is required and must name
// at least the item name column; unknown columns are ignored. Rows that
// cannot be parsed are reported in the returned RowErrors and skipped.
func ParseItemsCSV(r io.Reader) ([]Row, []RowError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, apperr.Validation(apperr.ErrRequiredField, "csv file is empty")
	}
	if err != nil {
		return nil, nil, apperr.Backend(apperr.ErrInvalidField, "csv header could not be read", err)
	}

	fold := cases.Fold()
	index := map[string]int{}
	for i, h := range header {
		if col, ok := headerAliases[normalizeHeader(fold, h)]; ok {
			if _, dup := index[col]; !dup {
				index[col] = i
			}
		}
	}
	if _, ok := index[colName]; !ok {
		return nil, nil, apperr.Validation(apperr.ErrRequiredField, "csv header has no name column")
	}

	var (
		rows    []Row
		skipped []RowError
	)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return nil, nil, fmt.Errorf("reading csv: %w", err)
			}
			skipped = append(skipped, RowError{Line: pe.Line, Error: pe.Err.Error()})
			continue
		}
		line, _ := cr.FieldPos(0)

		field := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		if strings.TrimSpace(strings.Join(rec, "")) == "" {
			continue
		}

		stock := 0
		if s := field(colStock); s != "" {
			stock, err = strconv.Atoi(s)
			if err != nil || stock < 0 {
				skipped = append(skipped, RowError{Line: line, Key: field(colSKU), Error: fmt.Sprintf("invalid stock %q", s)})
				continue
			}
		}

		rows = append(rows, Row{
			Line: line,
			Item: model.Item{
				SKU:      field(colSKU),
				Name:     field(colName),
				Category: field(colCategory),
				Stock:    stock,
				PhotoURL: field(colPhoto),
			},
			LocationCode: model.NormalizeCode(field(colLocation)),
		})
	}
	return rows, skipped, nil
}

// ImportItems adds the parsed rows through w. Location codes that match no
// location leave the item unassigned and are reported.
func ImportItems(ctx context.Context, w Writer, rows []Row) (Report, error) {
	var rep Report
	byCode := locationsByCode(w.Locations())

	for _, row := range rows {
		item := row.Item
		if row.LocationCode != "" {
			loc, ok := byCode[row.LocationCode]
			if ok {
				item.LocationID = loc.ID
			} else {
				rep.Skipped = append(rep.Skipped, RowError{Line: row.Line, Key: item.SKU, Error: "unknown location " + row.LocationCode + ", imported without location"})
			}
		}

		_, err := w.AddItem(ctx, item)
		if err = written(err); err != nil {
			if skip := rep.skip(ctx, item.SKU, err); skip != nil {
				return rep, skip
			}
			rep.Skipped[len(rep.Skipped)-1].Line = row.Line
			continue
		}
		rep.Items++
	}
	return rep, nil
}

// WriteItemsCSV writes items in the format ParseItemsCSV reads, with
// location codes in place of IDs.
func WriteItemsCSV(out io.Writer, items []model.Item, locations []model.Location) error {
	codes := make(map[string]string, len(locations))
	for _, l := range locations {
		codes[l.ID] = l.Code
	}

	cw := csv.NewWriter(out)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, it := range items {
		rec := []string{it.SKU, it.Name, it.Category, codes[it.LocationID], strconv.Itoa(it.Stock), it.PhotoURL}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
