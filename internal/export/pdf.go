package export

import (
	"fmt"

	"github.com/bagdasarian/time-tracker/internal/domain"
	"github.com/johnfercher/maroto/pkg/color"
	"github.com/johnfercher/maroto/pkg/consts"
	"github.com/johnfercher/maroto/pkg/pdf"
	"github.com/johnfercher/maroto/pkg/props"
)

// gridColumns - ширина строки в сетке maroto
const gridColumns = 12

func renderPDF(table Table) ([]byte, error) {
	grid, err := gridSizes(len(table.Headers))
	if err != nil {
		return nil, err
	}

	m := pdf.NewMaroto(consts.Portrait, consts.A4)
	m.SetPageMargins(20, 10, 20)

	m.RegisterHeader(func() {
		m.Row(10, func() {
			m.Col(gridColumns, func() {
				m.Text(table.Title, props.Text{
					Top:   3,
					Style: consts.Bold,
					Align: consts.Center,
					Size:  16,
				})
			})
		})
		if table.Subtitle != "" {
			m.Row(10, func() {
				m.Col(gridColumns, func() {
					m.Text(table.Subtitle, props.Text{
						Top:   3,
						Style: consts.Normal,
						Align: consts.Center,
						Size:  12,
					})
				})
			})
		}
	})

	m.TableList(table.Headers, table.Rows, props.TableList{
		HeaderProp: props.TableListContent{
			Size:      9,
			GridSizes: grid,
		},
		ContentProp: props.TableListContent{
			Size:      8,
			GridSizes: grid,
		},
		Align:                consts.Left,
		AlternatedBackground: &color.Color{Red: 240, Green: 240, Blue: 240},
		HeaderContentSpace:   1,
		Line:                 false,
	})

	buf, err := m.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// gridSizes делит 12 колонок сетки между столбцами таблицы, остаток отдается первым столбцам
func gridSizes(columns int) ([]uint, error) {
	if columns < 1 || columns > gridColumns {
		return nil, domain.NewInvalidInputError("pdf export supports 1 to %d columns, got %d", gridColumns, columns)
	}

	sizes := make([]uint, columns)
	base := gridColumns / columns
	rest := gridColumns % columns
	for i := range sizes {
		sizes[i] = uint(base)
		if i < rest {
			sizes[i]++
		}
	}
	return sizes, nil
}
