package api

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Lina3386/monk-finance/internal/models"
	"github.com/Lina3386/monk-finance/internal/recurrence"
)

const (
	dateLayout   = "2006-01-02"
	maxListLimit = 100
)

type parseRequest struct {
	Text string `json:"text"`
}

// transactionRequest either carries free text or explicit fields.
type transactionRequest struct {
	Text         string                   `json:"text"`
	Amount       decimal.Decimal          `json:"amount"`
	Description  string                   `json:"description"`
	Type         models.TransactionType   `json:"type"`
	Category     string                   `json:"category"`
	Tags         []string                 `json:"tags"`
	Date         string                   `json:"date"`
	Status       models.TransactionStatus `json:"status"`
	Installments int                      `json:"installments"`
}

type recurrenceRequest struct {
	Name      string                 `json:"name"`
	Amount    decimal.Decimal        `json:"amount"`
	Type      models.TransactionType `json:"type"`
	Category  string                 `json:"category"`
	Frequency models.Frequency       `json:"frequency"`
	DueDay    int                    `json:"due_day"`
	StartDate string                 `json:"start_date"`
	EndDate   string                 `json:"end_date"`
}

type reportResponse struct {
	Generated []models.Transaction `json:"generated"`
	Skipped   int                  `json:"skipped"`
	Errors    []string             `json:"errors"`
}

func newReportResponse(report recurrence.Report) reportResponse {
	resp := reportResponse{
		Generated: report.Generated,
		Skipped:   report.Skipped,
		Errors:    []string{},
	}
	if resp.Generated == nil {
		resp.Generated = []models.Transaction{}
	}
	for _, e := range report.Errors {
		resp.Errors = append(resp.Errors, e.Error())
	}
	return resp
}

func (s *Server) parse(c *fiber.Ctx) error {
	var req parseRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return c.JSON(s.financeService.ParseDraft(req.Text))
}

func (s *Server) createTransaction(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req transactionRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	date, err := parseDate(req.Date)
	if err != nil {
		return err
	}

	if strings.TrimSpace(req.Text) != "" {
		draft := s.financeService.ParseDraft(req.Text)
		if date.IsZero() {
			date = s.now()
		}
		tx, err := s.financeService.SaveDraft(c.UserContext(), userID, draft, date)
		if err != nil {
			return err
		}
		return c.Status(fiber.StatusCreated).JSON(tx)
	}

	tx := &models.Transaction{
		UserID:       userID,
		Amount:       req.Amount,
		Description:  req.Description,
		Type:         req.Type,
		Category:     req.Category,
		Tags:         req.Tags,
		Date:         date,
		Status:       req.Status,
		Installments: req.Installments,
	}
	if err := s.financeService.CreateTransaction(c.UserContext(), tx); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(tx)
}

func (s *Server) listTransactions(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	limit := c.QueryInt("limit", 0)
	if limit < 0 || limit > maxListLimit {
		return fiber.NewError(fiber.StatusBadRequest, "limit must be between 0 and 100 (0 means default)")
	}

	txs, err := s.financeService.ListTransactions(c.UserContext(), userID, limit)
	if err != nil {
		return err
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	return c.JSON(txs)
}

func (s *Server) getTransaction(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	tx, err := s.financeService.GetTransaction(c.UserContext(), userID, id)
	if err != nil {
		return err
	}
	return c.JSON(tx)
}

func (s *Server) deleteTransaction(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := s.financeService.DeleteTransaction(c.UserContext(), userID, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// summary defaults to the current month when from/to are omitted.
func (s *Server) summary(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	from, err := parseDate(c.Query("from"))
	if err != nil {
		return err
	}
	to, err := parseDate(c.Query("to"))
	if err != nil {
		return err
	}

	if from.IsZero() && to.IsZero() {
		summary, err := s.financeService.MonthSummary(c.UserContext(), userID)
		if err != nil {
			return err
		}
		return c.JSON(summary)
	}
	if from.IsZero() || to.IsZero() {
		return fiber.NewError(fiber.StatusBadRequest, "from and to must be given together")
	}
	if to.Before(from) {
		return fiber.NewError(fiber.StatusBadRequest, "to must not be before from")
	}

	summary, err := s.financeService.Summary(c.UserContext(), userID, from, to)
	if err != nil {
		return err
	}
	return c.JSON(summary)
}

func (s *Server) createRecurrence(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	var req recurrenceRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		return err
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return err
	}

	rule := &models.RecurrenceRule{
		UserID:    userID,
		Name:      req.Name,
		Amount:    req.Amount,
		Type:      req.Type,
		Category:  req.Category,
		Frequency: req.Frequency,
		DueDay:    req.DueDay,
		StartDate: start,
	}
	if !end.IsZero() {
		rule.EndDate = &end
	}

	report, err := s.financeService.CreateRecurrence(c.UserContext(), rule)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"recurrence": rule,
		"report":     newReportResponse(report),
	})
}

func (s *Server) listRecurrences(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	rules, err := s.financeService.ListRecurrences(c.UserContext(), userID)
	if err != nil {
		return err
	}
	if rules == nil {
		rules = []models.RecurrenceRule{}
	}
	return c.JSON(rules)
}

func (s *Server) getRecurrence(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	rule, err := s.financeService.GetRecurrence(c.UserContext(), userID, id)
	if err != nil {
		return err
	}
	return c.JSON(rule)
}

func (s *Server) deactivateRecurrence(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid id")
	}

	if err := s.financeService.DeactivateRecurrence(c.UserContext(), userID, id); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) checkRecurrences(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	report, err := s.financeService.CheckRecurrences(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return c.JSON(newReportResponse(report))
}

func (s *Server) subscriptions(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	subs, err := s.financeService.Subscriptions(c.UserContext(), userID)
	if err != nil {
		return err
	}
	if subs == nil {
		subs = []models.Subscription{}
	}
	return c.JSON(subs)
}

func (s *Server) categoryAverage(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}

	category := strings.TrimSpace(c.Query("category"))
	if category == "" {
		return fiber.NewError(fiber.StatusBadRequest, "category is required")
	}
	months := c.QueryInt("months", 0)
	if months < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "months must not be negative")
	}

	avg, err := s.financeService.CategoryAverage(c.UserContext(), userID, category, months)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"category": category, "average": avg})
}

// parseDate accepts YYYY-MM-DD; empty input yields the zero time.
func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return time.Time{}, fiber.NewError(fiber.StatusBadRequest, "dates must use YYYY-MM-DD")
	}
	return t, nil
}
