package pages

import (
	"slices"
	"strings"

	"github.com/a-h/templ"
)

// Template builds the component for one page from its bindings.
type Template func(b Bindings) templ.Component

var templates = map[string]Template{
	"cover":    Cover,
	"customer": Customer,
}

// LookupTemplate returns the template registered under name.
func LookupTemplate(name string) (Template, bool) {
	t, ok := templates[name]
	return t, ok
}

// TemplateNames returns the registered template names in sorted order.
func TemplateNames() []string {
	names := make([]string, 0, len(templates))
	for name := range templates {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

type field struct {
	key   string
	label string
}

var coverFields = []field{
	{"id", "العدد"},
	{"building", "العمارة"},
	{"floor", "الطابق"},
	{"apartment", "الشقة"},
}

// Cover renders the apartment cover sheet.
func Cover(b Bindings) templ.Component {
	rows := make([]templ.Component, 0, len(coverFields))
	for _, f := range coverFields {
		rows = append(rows, templ.Join(
			templ.Raw(`<div class="cover-row"><span class="value">`),
			text(b.String(f.key)),
			templ.Raw(`</span><span class="sep">|</span><span class="label">`),
			text(f.label),
			templ.Raw(`</span></div>`),
		))
	}
	return layout(b.String("title"), coverCSS, templ.Join(
		templ.Raw(`<main class="cover">`),
		templ.Join(rows...),
		templ.Raw(`</main>`),
	))
}

var customerFields = []field{
	{"date", "التاريخ"},
	{"id", "التسلسل"},
	{"customer_name", "اسم الزبون"},
	{"unified_card_number", "رقم البطاقة الموحدة"},
	{"id_number", "رقم الهوية"},
	{"registry_number", "رقم السجل"},
	{"newspaper_number", "رقم الصحيفة"},
	{"issue_date", "تاريخ الإصدار"},
	{"district", "المحلة"},
	{"street", "الزقاق"},
	{"house", "الدار"},
	{"alt_district", "المحلة البديلة"},
	{"alt_street", "الزقاق البديل"},
	{"alt_house", "الدار البديلة"},
	{"phone_number", "رقم الهاتف"},
	{"job_title", "المهنة"},
	{"alt_person_name", "اسم الشخص البديل"},
	{"relationship", "صلة القرابة"},
	{"alt_person_number", "رقم الشخص البديل"},
}

// Customer renders the customer record sheet.
func Customer(b Bindings) templ.Component {
	rows := make([]templ.Component, 0, len(customerFields))
	for _, f := range customerFields {
		rows = append(rows, templ.Join(
			templ.Raw(`<tr><th>`),
			text(f.label),
			templ.Raw(`</th><td>`),
			text(b.String(f.key)),
			templ.Raw(`</td></tr>`),
		))
	}
	return layout(b.String("title"), customerCSS, templ.Join(
		templ.Raw(`<main class="customer"><h1>`),
		text(orDefault(b.String("title"), "استمارة الزبون")),
		templ.Raw(`</h1><table>`),
		templ.Join(rows...),
		templ.Raw(`</table></main>`),
	))
}

const baseCSS = `*{box-sizing:border-box}
body{margin:0;font-family:"Noto Naskh Arabic","Amiri","DejaVu Sans",sans-serif;color:#111}`

const coverCSS = baseCSS + `
.cover{display:flex;flex-direction:column;justify-content:center;gap:14mm;height:100%;padding:30mm}
.cover-row{display:flex;gap:6mm;font-size:28pt;justify-content:center}
.cover-row .sep{color:#999}`

const customerCSS = baseCSS + `
.customer{padding:15mm}
.customer h1{font-size:20pt;text-align:center;margin:0 0 8mm}
.customer table{width:100%;border-collapse:collapse;font-size:12pt}
.customer th,.customer td{border:1px solid #444;padding:2.5mm 3mm;text-align:right}
.customer th{width:40%;background:#f2f2f2;font-weight:600}`

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// text renders s with HTML escaping.
func text(s string) templ.Component {
	return templ.Raw(templ.EscapeString(s))
}

// layout wraps body in the right-to-left document shell shared by every
// page.
func layout(title, css string, body templ.Component) templ.Component {
	return templ.Join(
		templ.Raw(`<!DOCTYPE html><html lang="ar" dir="rtl"><head><meta charset="utf-8"><title>`),
		text(title),
		templ.Raw(`</title><style>`+css+`</style></head><body>`),
		body,
		templ.Raw(`</body></html>`),
	)
}
