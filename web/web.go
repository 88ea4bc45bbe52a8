// Package web provides the embedded web UI for the string calculator.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"github.com/lemonberrylabs/string-calculator/pkg/expr"
	"github.com/lemonberrylabs/string-calculator/pkg/sheet"
	"github.com/lemonberrylabs/string-calculator/pkg/types"
)

//go:embed templates/*.html
var templateFS embed.FS

// SheetSource exposes the sheets loaded into the server.
type SheetSource interface {
	Sheets() []*sheet.Sheet
	Sheet(name string) *sheet.Sheet
}

// Handler serves the web UI pages.
type Handler struct {
	maxLength int
	sheets    SheetSource
	funcMap   template.FuncMap
}

// pageData wraps all page-specific data with common fields.
type pageData struct {
	NavActive string
	HasSheets bool
	Data      interface{}
}

// New creates a new web UI handler. sheets may be nil, in which case the
// sheet pages are not shown.
func New(maxLength int, sheets SheetSource) *Handler {
	return &Handler{
		maxLength: maxLength,
		sheets:    sheets,
		funcMap: template.FuncMap{
			"truncate":    truncate,
			"resultClass": resultClass,
		},
	}
}

func (h *Handler) render(c *fiber.Ctx, page string, navActive string, data interface{}) error {
	// Each page is parsed with the layout on its own so "content" blocks
	// from different pages never collide.
	tmpl := template.Must(
		template.New("").Funcs(h.funcMap).ParseFS(templateFS, "templates/layout.html", "templates/"+page),
	)

	pd := pageData{
		NavActive: navActive,
		HasSheets: h.sheets != nil,
		Data:      data,
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, page, pd); err != nil {
		logrus.WithError(err).WithField("page", page).Error("template render failed")
		return c.Status(500).SendString(fmt.Sprintf("template error: %v", err))
	}

	c.Set("Content-Type", "text/html; charset=utf-8")
	return c.Send(buf.Bytes())
}

// Register adds web UI routes to the Fiber app.
func (h *Handler) Register(app *fiber.App) {
	app.Get("/ui", h.calculator)
	app.Post("/ui", h.calculate)
	if h.sheets != nil {
		app.Get("/ui/sheets", h.sheetList)
		app.Get("/ui/sheets/:name", h.sheetDetail)
	}

	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect("/ui")
	})
}

// --- Page Data Types ---

type calculatorContent struct {
	Expression string
	Result     string
	Warning    string
}

type sheetListContent struct {
	Sheets []*sheet.Sheet
}

type sheetDetailContent struct {
	Sheet  *sheet.Sheet
	Report sheet.Report
}

type notFoundContent struct {
	Message string
}

// --- Page Handlers ---

func (h *Handler) calculator(c *fiber.Ctx) error {
	return h.render(c, "calculator.html", "calculator", calculatorContent{})
}

func (h *Handler) calculate(c *fiber.Ctx) error {
	input := c.FormValue("expression")
	content := calculatorContent{Expression: input}

	if h.maxLength > 0 && len(input) > h.maxLength {
		content.Warning = types.MessageInvalid
		return h.render(c, "calculator.html", "calculator", content)
	}

	v, err := expr.Evaluate(input)
	if err != nil {
		content.Warning = warningFor(err)
	} else {
		content.Result = v.String()
	}
	return h.render(c, "calculator.html", "calculator", content)
}

func (h *Handler) sheetList(c *fiber.Ctx) error {
	return h.render(c, "sheet_list.html", "sheets", sheetListContent{
		Sheets: h.sheets.Sheets(),
	})
}

func (h *Handler) sheetDetail(c *fiber.Ctx) error {
	name := c.Params("name")
	sh := h.sheets.Sheet(name)
	if sh == nil {
		return h.render(c, "not_found.html", "", notFoundContent{
			Message: fmt.Sprintf("Sheet '%s' not found", name),
		})
	}
	return h.render(c, "sheet_detail.html", "sheets", sheetDetailContent{
		Sheet:  sh,
		Report: sh.Evaluate(),
	})
}

func warningFor(err error) string {
	if ce := types.AsCalcError(err); ce != nil {
		return ce.UserMessage()
	}
	return types.MessageInvalid
}

// --- Template Helpers ---

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

func resultClass(r sheet.Result) string {
	if r.Error != nil {
		return "result-failed"
	}
	if strings.HasSuffix(r.Display, "Infinity") || r.Display == "NaN" {
		return "result-anomaly"
	}
	return "result-ok"
}
