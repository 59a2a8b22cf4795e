package ui

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/url"

	"github.com/a-h/templ"
)

// Area represents a single storage area for display.
type Area struct {
	Name        string
	Description string
}

// Layout renders a full HTML page with a title and body component.
func Layout(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<!DOCTYPE html><html lang=\"en\">")
		if err != nil {
			return err
		}

		_, err = fmt.Fprintf(w, "<head><meta charset=\"utf-8\"><meta name=\"viewport\" content=\"width=device-width, initial-scale=1\"><title>%s</title>", html.EscapeString(title))
		if err != nil {
			return err
		}
		// Minimal modern CSS framework (Pico.css) via CDN.
		_, err = io.WriteString(w, "<link rel=\"stylesheet\" href=\"https://unpkg.com/@picocss/pico@2/css/pico.min.css\"></head>")
		if err != nil {
			return err
		}

		_, err = io.WriteString(w, "<body><main class=\"container\">")
		if err != nil {
			return err
		}

		if err := body.Render(ctx, w); err != nil {
			return err
		}

		_, err = io.WriteString(w, "</main></body></html>")
		return err
	})
}

// AreasPage renders the list of storage areas.
func AreasPage(areas []Area) templ.Component {
	return Layout("File Depot", templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<section><header><h1>File Depot</h1><p>Pick a storage area to browse.</p></header>")
		if err != nil {
			return err
		}

		if len(areas) == 0 {
			_, err = io.WriteString(w, "<p>No storage areas configured.</p></section>")
			return err
		}

		_, err = io.WriteString(w, "<table><thead><tr><th>Area</th><th>Description</th></tr></thead><tbody>")
		if err != nil {
			return err
		}

		for _, a := range areas {
			_, err = fmt.Fprintf(w, "<tr><td><a href=\"/ui/%s\">%s</a></td><td>%s</td></tr>",
				url.PathEscape(a.Name), html.EscapeString(a.Name), html.EscapeString(a.Description))
			if err != nil {
				return err
			}
		}

		_, err = io.WriteString(w, "</tbody></table></section>")
		return err
	}))
}

// AreaPage renders the files of one area with upload, rename and delete
// forms. flash, when set, is shown above the listing.
func AreaPage(area Area, files []string, flash string) templ.Component {
	return Layout("File Depot - "+area.Name, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		base := "/ui/" + url.PathEscape(area.Name)

		_, err := fmt.Fprintf(w, "<section><header><h1>%s</h1><p>%s</p><p><a href=\"/ui\">&larr; All areas</a></p></header>",
			html.EscapeString(area.Name), html.EscapeString(area.Description))
		if err != nil {
			return err
		}

		if flash != "" {
			_, err = fmt.Fprintf(w, "<article role=\"status\">%s</article>", html.EscapeString(flash))
			if err != nil {
				return err
			}
		}

		_, err = fmt.Fprintf(w, "<form method=\"post\" action=\"%s\" enctype=\"multipart/form-data\"><fieldset role=\"group\"><input type=\"file\" name=\"file\" required><button type=\"submit\">Upload</button></fieldset></form>", base)
		if err != nil {
			return err
		}

		if len(files) == 0 {
			_, err = io.WriteString(w, "<p>No files in this area.</p></section>")
			return err
		}

		_, err = io.WriteString(w, "<table><thead><tr><th>File</th><th>Rename</th><th></th></tr></thead><tbody>")
		if err != nil {
			return err
		}

		for _, name := range files {
			escaped := html.EscapeString(name)
			fileURL := "/" + url.PathEscape(area.Name) + "/" + url.PathEscape(name)
			actionBase := base + "/" + url.PathEscape(name)

			_, err = fmt.Fprintf(w, "<tr><td><a href=\"%s\">%s</a></td>", fileURL, escaped)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(w, "<td><form method=\"post\" action=\"%s/rename\"><fieldset role=\"group\"><input type=\"text\" name=\"newFilename\" value=\"%s\" required><button type=\"submit\" class=\"secondary\">Rename</button></fieldset></form></td>", actionBase, escaped)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(w, "<td><form method=\"post\" action=\"%s/delete\"><button type=\"submit\" class=\"contrast\">Delete</button></form></td></tr>", actionBase)
			if err != nil {
				return err
			}
		}

		_, err = io.WriteString(w, "</tbody></table></section>")
		return err
	}))
}
