package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Weekly Update"

// renderXLSX writes one row per scalar field or list item. Section titles
// get their own bold row.
func renderXLSX(data TemplateData) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", xlsxSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("create style: %w", err)
	}

	row := 1
	put := func(values ...string) error {
		for i, v := range values {
			cell, err := excelize.CoordinatesToCellName(i+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(xlsxSheet, cell, v); err != nil {
				return err
			}
		}
		row++
		return nil
	}
	header := func(title string) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		if err := put(title); err != nil {
			return err
		}
		return f.SetCellStyle(xlsxSheet, cell, cell, bold)
	}

	if err := header(data.Title); err != nil {
		return nil, fmt.Errorf("write title: %w", err)
	}
	for _, meta := range [][2]string{
		{"Organization", data.OrgName},
		{"Team", data.TeamName},
		{"Week", data.WeekDate},
		{"Status", data.Status},
	} {
		if err := put(meta[0], meta[1]); err != nil {
			return nil, fmt.Errorf("write meta: %w", err)
		}
	}

	for _, section := range data.Sections {
		row++
		if err := header(section.Title); err != nil {
			return nil, fmt.Errorf("write section %q: %w", section.Title, err)
		}
		for _, entry := range section.Entries {
			if !entry.List {
				if err := put(entry.Label, entry.Value); err != nil {
					return nil, fmt.Errorf("write field %q: %w", entry.Label, err)
				}
				continue
			}
			for _, item := range entry.Items {
				if err := put(entry.Label, item); err != nil {
					return nil, fmt.Errorf("write item %q: %w", entry.Label, err)
				}
			}
		}
	}

	if err := f.SetColWidth(xlsxSheet, "A", "A", 28); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}
	if err := f.SetColWidth(xlsxSheet, "B", "B", 80); err != nil {
		return nil, fmt.Errorf("set column width: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
