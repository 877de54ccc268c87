package mother

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Mothers"

type exportColumn struct {
	header string
	width  float64
	value  func(m *Mother) any
}

func str(p *string) any {
	if p == nil {
		return ""
	}
	return *p
}

var exportColumns = []exportColumn{
	{"ID", 38, func(m *Mother) any { return m.ID.String() }},
	{"Full Name", 28, func(m *Mother) any { return m.FullName }},
	{"Age", 8, func(m *Mother) any {
		if m.Age == nil {
			return ""
		}
		return *m.Age
	}},
	{"Phone", 16, func(m *Mother) any { return str(m.Phone) }},
	{"Address", 30, func(m *Mother) any { return str(m.Address) }},
	{"LGA / Community", 22, func(m *Mother) any { return str(m.LGACommunity) }},
	{"Parity", 8, func(m *Mother) any { return m.Parity }},
	{"Gravidity", 10, func(m *Mother) any { return m.Gravidity }},
	{"Risk Level", 12, func(m *Mother) any { return m.RiskLevel }},
	{"Next Appointment", 18, func(m *Mother) any { return str(m.NextAppointment) }},
	{"Last Triage", 20, func(m *Mother) any {
		if m.LastTriageDate == nil {
			return ""
		}
		return m.LastTriageDate.UTC().Format("2006-01-02 15:04")
	}},
	{"Device", 16, func(m *Mother) any { return str(m.DeviceID) }},
	{"Registered", 20, func(m *Mother) any { return m.CreatedAt.UTC().Format("2006-01-02 15:04") }},
}

// WriteRegister renders mothers as an XLSX workbook to w.
func WriteRegister(w io.Writer, mothers []*Mother) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for i, col := range exportColumns {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(exportSheet, name, name, col.width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
		cell := name + "1"
		if err := f.SetCellValue(exportSheet, cell, col.header); err != nil {
			return fmt.Errorf("set header %s: %w", cell, err)
		}
	}
	last, _ := excelize.ColumnNumberToName(len(exportColumns))
	if err := f.SetCellStyle(exportSheet, "A1", last+"1", headerStyle); err != nil {
		return fmt.Errorf("set header style: %w", err)
	}

	for r, m := range mothers {
		row := r + 2
		for i, col := range exportColumns {
			name, _ := excelize.ColumnNumberToName(i + 1)
			if err := f.SetCellValue(exportSheet, name+strconv.Itoa(row), col.value(m)); err != nil {
				return fmt.Errorf("set cell row %d: %w", row, err)
			}
		}
	}
	if err := f.SetPanes(exportSheet, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("freeze header: %w", err)
	}

	_, err = f.WriteTo(w)
	return err
}

// Export writes the full register as a workbook.
func (s *Service) Export(ctx context.Context, w io.Writer) error {
	mothers, err := s.repo.ChangedSince(ctx, time.Time{})
	if err != nil {
		return err
	}
	return WriteRegister(w, mothers)
}
