// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/pdf-extractor/pkg/types"
)

// Workbook sheet names.
const (
	SheetPages   = "Páginas"
	SheetSummary = "Resumo"
)

var pageColumns = []any{
	"Página", "Tipo", "Palavras", "Imagens", "Linhas de tabela",
	"Cabeçalhos", "Pontuação de gráfico", "Confiança", "Largura", "Altura", "Erro",
}

// Workbook writes an XLSX file with one row per page and a summary sheet.
func Workbook(w io.Writer, doc *types.Document) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetPages); err != nil {
		return fmt.Errorf("naming sheet: %w", err)
	}
	if err := f.SetSheetRow(SheetPages, "A1", &pageColumns); err != nil {
		return fmt.Errorf("writing header row: %w", err)
	}
	for i, p := range doc.Pages {
		row := []any{
			p.Number, string(p.Type), p.WordCount, p.ImageCount, len(p.Tables),
			strings.Join(p.Headings, "; "), p.ChartScore, string(p.ChartConfidence),
			p.Width, p.Height, p.Error,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetPages, cell, &row); err != nil {
			return fmt.Errorf("writing page %d: %w", p.Number, err)
		}
	}

	if _, err := f.NewSheet(SheetSummary); err != nil {
		return fmt.Errorf("creating summary sheet: %w", err)
	}
	s := doc.Summary
	summary := [][]any{
		{"Documento", doc.Name},
		{"Extraído em", doc.ExtractedAt.Format(TimestampLayout)},
		{"Total de páginas", doc.PageCount()},
		{"Palavras totais", s.TotalWords},
		{"Imagens totais", s.TotalImages},
		{"Páginas com gráficos", s.PagesWithCharts},
		{"Páginas com tabelas", s.PagesWithTables},
	}
	for i, row := range summary {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetSummary, cell, &row); err != nil {
			return fmt.Errorf("writing summary: %w", err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook for %s: %w", doc.Name, err)
	}
	return nil
}
