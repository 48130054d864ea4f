package cli

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"

	"github.com/dracory/flatbridge/console"
	"github.com/dracory/flatbridge/shared/flatfile"
)

// renderResult prints a query result as a table followed by its record count.
func renderResult(w io.Writer, res console.QueryResult) error {
	data := pterm.TableData{res.Columns}
	for _, row := range res.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = flatfile.FormatCell(v)
		}
		data = append(data, cells)
	}
	if len(res.Columns) > 0 {
		out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
		if err != nil {
			return err
		}
		fmt.Fprintln(w, out)
	}
	fmt.Fprintln(w, pterm.Info.Sprintf("%d records", res.Len()))
	return nil
}

func renderColumns(w io.Writer, desc console.TableDescriptor) error {
	data := pterm.TableData{{"column", "type"}}
	for _, c := range desc.Columns {
		data = append(data, []string{c.Name, c.Type})
	}
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, out)
	return nil
}

func renderList(w io.Writer, items []string) error {
	bullets := make([]pterm.BulletListItem, len(items))
	for i, it := range items {
		bullets[i] = pterm.BulletListItem{Level: 0, Text: it}
	}
	out, err := pterm.DefaultBulletList.WithItems(bullets).Srender()
	if err != nil {
		return err
	}
	fmt.Fprint(w, out)
	return nil
}

func renderBanner(w io.Writer, b console.Banner) {
	switch b.Kind {
	case console.BannerError:
		fmt.Fprint(w, pterm.Error.Sprintln(b.Text))
	case console.BannerInfo:
		fmt.Fprint(w, pterm.Success.Sprintln(b.Text))
	}
}
