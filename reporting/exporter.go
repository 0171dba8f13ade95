package reporting

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/solvire/fartemis/internal/infrastructure/persistence"
)

// Exporter экспортер истории запусков
type Exporter struct{}

// NewExporter создает новый экспортер
func NewExporter() *Exporter {
	return &Exporter{}
}

// ExportLookups формирует XLSX-отчет по истории запусков
func (e *Exporter) ExportLookups(records []persistence.LookupRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Lookups"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")

	// Стиль заголовков
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	// Заголовки
	headers := []string{
		"Run ID", "First Name", "Last Name", "Company",
		"Status", "Confidence Tier", "Best URL", "Best Handle",
		"Best Score", "Evidence", "Created At",
	}

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	// Данные
	for rowIdx, record := range records {
		row := rowIdx + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), record.RunID)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), record.FirstName)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), record.LastName)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), record.Company)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), record.Status)
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), record.ConfidenceTier)
		f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), record.BestURL)
		f.SetCellValue(sheetName, fmt.Sprintf("H%d", row), record.BestHandle)
		f.SetCellValue(sheetName, fmt.Sprintf("I%d", row), record.BestScore)
		f.SetCellValue(sheetName, fmt.Sprintf("J%d", row), strings.Join(record.Evidence, "; "))
		f.SetCellValue(sheetName, fmt.Sprintf("K%d", row), record.CreatedAt.Format("2006-01-02 15:04:05"))
	}

	// Ширина колонок
	for i := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, col, col, 18)
	}

	f.SetActiveSheet(index)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
