package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// catalogRow una fila del catálogo: sku;barcode;nombre;precio;cantidad.
type catalogRow struct {
	SKU      string
	Barcode  string
	Name     string
	Price    decimal.Decimal
	Quantity int64
}

// demoCatalog catálogo usado cuando no se pasa archivo.
var demoCatalog = []catalogRow{
	{SKU: "CAM-BAS-S", Barcode: "7701000000011", Name: "Camiseta básica S", Price: decimal.NewFromInt(35000), Quantity: 40},
	{SKU: "CAM-BAS-M", Barcode: "7701000000028", Name: "Camiseta básica M", Price: decimal.NewFromInt(35000), Quantity: 55},
	{SKU: "CAM-BAS-L", Barcode: "7701000000035", Name: "Camiseta básica L", Price: decimal.NewFromInt(35000), Quantity: 30},
	{SKU: "JEAN-SLIM-32", Barcode: "7701000000042", Name: "Jean slim 32", Price: decimal.NewFromInt(119900), Quantity: 12},
	{SKU: "GORRA-NEG", Barcode: "7701000000059", Name: "Gorra negra", Price: decimal.NewFromInt(42000), Quantity: 0},
}

// parseCatalog lee el CSV separado por punto y coma que exportan las hojas de cálculo.
// latin1 decodifica archivos guardados en ISO-8859-1. La primera fila es encabezado.
func parseCatalog(r io.Reader, latin1 bool) ([]catalogRow, error) {
	if latin1 {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	cr := csv.NewReader(r)
	cr.Comma = ';'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("leer CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	rows := make([]catalogRow, 0, len(records)-1)
	for i, rec := range records[1:] {
		line := i + 2
		if len(rec) < 3 {
			return nil, fmt.Errorf("línea %d: se esperaban al menos sku;barcode;nombre", line)
		}
		row := catalogRow{
			SKU:     strings.TrimSpace(rec[0]),
			Barcode: strings.TrimSpace(rec[1]),
			Name:    strings.TrimSpace(rec[2]),
		}
		if row.SKU == "" || row.Name == "" {
			return nil, fmt.Errorf("línea %d: sku y nombre son requeridos", line)
		}
		if len(rec) > 3 && strings.TrimSpace(rec[3]) != "" {
			// separador decimal con coma, como lo exporta una hoja en español
			p, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(rec[3]), ",", "."))
			if err != nil {
				return nil, fmt.Errorf("línea %d: precio inválido: %w", line, err)
			}
			row.Price = p
		}
		if len(rec) > 4 && strings.TrimSpace(rec[4]) != "" {
			q, err := strconv.ParseInt(strings.TrimSpace(rec[4]), 10, 64)
			if err != nil || q < 0 {
				return nil, fmt.Errorf("línea %d: cantidad inválida %q", line, rec[4])
			}
			row.Quantity = q
		}
		rows = append(rows, row)
	}
	return rows, nil
}
