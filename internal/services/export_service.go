package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"gorm.io/gorm"

	apperrors "budgeteer/internal/errors"
	"budgeteer/internal/models"
)

var exportHeader = []string{"type", "category", "description", "amount", "date"}

// exportRow is one line of an export: an expense or an income.
type exportRow struct {
	Type        string
	Category    string
	Description string
	Amount      string
	Date        string
}

func (r exportRow) fields() []string {
	return []string{r.Type, r.Category, r.Description, r.Amount, r.Date}
}

// exportService renders a user's records as CSV or PDF.
type exportService struct {
	db *gorm.DB
}

// NewExportService creates a new ExportServicer.
func NewExportService(db *gorm.DB) ExportServicer {
	return &exportService{db: db}
}

// Export renders the user's expenses then incomes dated within [from, to].
func (s *exportService) Export(userID string, from, to time.Time, format string) (*ExportFile, error) {
	if to.Before(from) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "to must not be before from")
	}

	rows, err := s.collect(userID, from, to)
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("financial_data_%s_to_%s.%s", from.Format("2006-01-02"), to.Format("2006-01-02"), format)
	switch format {
	case ExportCSV:
		data, err := renderCSV(rows)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return &ExportFile{Filename: filename, ContentType: "text/csv", Data: data}, nil
	case ExportPDF:
		data, err := renderPDF(rows, from, to)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return &ExportFile{Filename: filename, ContentType: "application/pdf", Data: data}, nil
	default:
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "format must be csv or pdf")
	}
}

func (s *exportService) collect(userID string, from, to time.Time) ([]exportRow, error) {
	// to is inclusive of the whole day.
	end := to.AddDate(0, 0, 1)

	var expenses []models.Expense
	if err := s.db.Where("user_id = ? AND date >= ? AND date < ?", userID, from, end).
		Order("date, id").
		Find(&expenses).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	var incomes []models.Income
	if err := s.db.Where("user_id = ? AND date >= ? AND date < ?", userID, from, end).
		Order("date, id").
		Find(&incomes).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	rows := make([]exportRow, 0, len(expenses)+len(incomes))
	for _, e := range expenses {
		rows = append(rows, exportRow{
			Type:        "Expense",
			Category:    e.Category,
			Description: e.Description,
			Amount:      e.Amount.StringFixed(2),
			Date:        e.Date.Format("2006-01-02"),
		})
	}
	for _, i := range incomes {
		rows = append(rows, exportRow{
			Type:        "Income",
			Category:    i.Source,
			Description: i.Description,
			Amount:      i.Amount.StringFixed(2),
			Date:        i.Date.Format("2006-01-02"),
		})
	}
	return rows, nil
}

func renderCSV(rows []exportRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return nil, err
	}
	for _, r := range rows {
		if err := w.Write(r.fields()); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var pdfColumnWidths = []float64{25, 40, 70, 25, 30}

func renderPDF(rows []exportRow, from, to time.Time) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Financial Data", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, fmt.Sprintf("Financial Data %s to %s", from.Format("2006-01-02"), to.Format("2006-01-02")), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for i, h := range exportHeader {
		pdf.CellFormat(pdfColumnWidths[i], 8, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, r := range rows {
		for i, f := range r.fields() {
			align := "L"
			if i == 3 {
				align = "R"
			}
			pdf.CellFormat(pdfColumnWidths[i], 7, tr(truncate(f, 45)), "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
