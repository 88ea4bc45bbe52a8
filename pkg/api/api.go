// Package api implements the calculator's REST API.
package api

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/lemonberrylabs/string-calculator/pkg/expr"
	"github.com/lemonberrylabs/string-calculator/pkg/sheet"
	"github.com/lemonberrylabs/string-calculator/pkg/types"
)

// DefaultMaxLength is the default cap on accepted expression length.
const DefaultMaxLength = 1000

// MaxBatchSize is the maximum number of expressions in one batch request.
const MaxBatchSize = 1000

// Server is the HTTP API server for the calculator.
type Server struct {
	app       *fiber.App
	maxLength int

	mu     sync.RWMutex
	sheets map[string]*sheet.Sheet
}

// New creates a new API server. A maxLength of zero or less selects
// DefaultMaxLength.
func New(maxLength int) *Server {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}
	srv := &Server{
		maxLength: maxLength,
		sheets:    make(map[string]*sheet.Sheet),
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})
	app.Use(requestLogger)

	app.Get("/healthz", srv.health)
	app.Post("/v1/evaluate", srv.evaluate)
	app.Post("/v1/evaluate\\:batch", srv.evaluateBatch)
	app.Post("/v1/validate", srv.validate)
	app.Get("/v1/sheets", srv.listSheets)
	app.Get("/v1/sheets/:name", srv.getSheet)

	srv.app = app
	return srv
}

// Listen starts the HTTP server on the given address.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}

// AddSheets makes sheets available under /v1/sheets. A sheet with the same
// name as an existing one replaces it.
func (s *Server) AddSheets(sheets ...*sheet.Sheet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sh := range sheets {
		s.sheets[sh.Name] = sh
	}
}

// Sheets returns the registered sheets sorted by name.
func (s *Server) Sheets() []*sheet.Sheet {
	s.mu.RLock()
	out := make([]*sheet.Sheet, 0, len(s.sheets))
	for _, sh := range s.sheets {
		out = append(out, sh)
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Sheet returns the sheet registered under name, or nil.
func (s *Server) Sheet(name string) *sheet.Sheet {
	return s.lookupSheet(name)
}

// LoadDir loads all sheets from dir and registers them.
func (s *Server) LoadDir(dir string) error {
	sheets, err := sheet.LoadDir(dir)
	if err != nil {
		return err
	}
	s.AddSheets(sheets...)
	return nil
}

// --- Handlers ---

type expressionRequest struct {
	Expression *string `json:"expression"`
}

type batchRequest struct {
	Expressions []string `json:"expressions"`
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) evaluate(c *fiber.Ctx) error {
	input, problem := s.parseExpression(c)
	if problem != "" {
		return invalidArgument(c, problem)
	}

	v, err := expr.Evaluate(input)
	if err != nil {
		return calcErrorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"expression": input,
		"result":     v,
		"display":    v.String(),
	})
}

func (s *Server) validate(c *fiber.Ctx) error {
	input, problem := s.parseExpression(c)
	if problem != "" {
		return invalidArgument(c, problem)
	}

	resp := fiber.Map{
		"expression":     input,
		"balanced":       expr.IsBalanced(input),
		"lexicallyValid": expr.IsLexicallyValid(input),
		"valid":          true,
	}
	if err := expr.Check(input); err != nil {
		resp["valid"] = false
		resp["error"] = errorBody(err)
	}
	return c.JSON(resp)
}

func (s *Server) evaluateBatch(c *fiber.Ctx) error {
	var req batchRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidArgument(c, fmt.Sprintf("invalid request body: %v", err))
	}
	if len(req.Expressions) == 0 {
		return invalidArgument(c, "expressions is required")
	}
	if len(req.Expressions) > MaxBatchSize {
		return invalidArgument(c, fmt.Sprintf("batch has %d expressions, maximum is %d", len(req.Expressions), MaxBatchSize))
	}

	results := make([]fiber.Map, len(req.Expressions))
	for i, input := range req.Expressions {
		item := fiber.Map{"index": i, "expression": input}
		if len(input) > s.maxLength {
			item["error"] = fiber.Map{
				"message": fmt.Sprintf("expression exceeds maximum length of %d characters", s.maxLength),
				"reason":  types.TagInvalidCharacterOrSyntax,
			}
			results[i] = item
			continue
		}
		v, err := expr.Evaluate(input)
		if err != nil {
			item["error"] = errorBody(err)
		} else {
			item["result"] = v
			item["display"] = v.String()
		}
		results[i] = item
	}

	return c.JSON(fiber.Map{
		"id":      uuid.NewString(),
		"results": results,
	})
}

func (s *Server) listSheets(c *fiber.Ctx) error {
	sheets := s.Sheets()
	items := make([]fiber.Map, 0, len(sheets))
	for _, sh := range sheets {
		items = append(items, fiber.Map{
			"name":        sh.Name,
			"description": sh.Description,
			"expressions": len(sh.Entries),
		})
	}

	return c.JSON(fiber.Map{"sheets": items})
}

func (s *Server) getSheet(c *fiber.Ctx) error {
	name := c.Params("name")
	sh := s.lookupSheet(name)
	if sh == nil {
		return c.Status(404).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    404,
				"message": fmt.Sprintf("sheet '%s' not found", name),
				"status":  "NOT_FOUND",
			},
		})
	}
	return c.JSON(sh.Evaluate())
}

func (s *Server) lookupSheet(name string) *sheet.Sheet {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sheets[name]
}

// --- Helpers ---

// parseExpression reads the expression field from the request body. The
// second return value describes why the request is unusable, or is empty.
func (s *Server) parseExpression(c *fiber.Ctx) (string, string) {
	var req expressionRequest
	if err := c.BodyParser(&req); err != nil {
		return "", fmt.Sprintf("invalid request body: %v", err)
	}
	if req.Expression == nil {
		return "", "expression is required"
	}
	if len(*req.Expression) > s.maxLength {
		return "", fmt.Sprintf("expression exceeds maximum length of %d characters", s.maxLength)
	}
	return *req.Expression, ""
}

func invalidArgument(c *fiber.Ctx, msg string) error {
	return c.Status(400).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    400,
			"message": msg,
			"status":  "INVALID_ARGUMENT",
		},
	})
}

func calcErrorResponse(c *fiber.Ctx, err error) error {
	body := errorBody(err)
	body["code"] = 400
	body["status"] = "INVALID_ARGUMENT"
	return c.Status(400).JSON(fiber.Map{"error": body})
}

func errorBody(err error) fiber.Map {
	ce := types.AsCalcError(err)
	if ce == nil {
		return fiber.Map{"message": err.Error(), "userMessage": types.MessageInvalid}
	}
	return fiber.Map{
		"message":     ce.Message,
		"reason":      ce.Reason(),
		"userMessage": ce.UserMessage(),
	}
}

// requestLogger tags each request with an id and logs its outcome.
func requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	id := c.Get(fiber.HeaderXRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(fiber.HeaderXRequestID, id)

	err := c.Next()

	logrus.WithFields(logrus.Fields{
		"request_id": id,
		"method":     c.Method(),
		"path":       c.Path(),
		"status":     c.Response().StatusCode(),
		"latency":    time.Since(start),
	}).Debug("handled request")
	return err
}
