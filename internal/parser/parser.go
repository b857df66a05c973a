// Package parser turns one line of free text such as "50 uber #trabalho"
// into a transaction draft. Parsing never fails: whatever is not recognized
// stays in the description.
package parser

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Lina3386/monk-finance/internal/models"
)

const (
	minInstallments = 2
	maxInstallments = 48
)

var (
	amountRe      = regexp.MustCompile(`R?\$?\s?(\d+(?:[.,]\d{1,2})?)`)
	tagRe         = regexp.MustCompile(`#\w+`)
	installmentRe = regexp.MustCompile(`(?i)(\d+)x`)
)

type Parser struct {
	table Table
}

func New(table Table) *Parser {
	if len(table) == 0 {
		table = DefaultTable()
	}
	return &Parser{table: table}
}

var defaultParser = New(nil)

// Parse uses the built-in category table.
func Parse(input string) models.Draft {
	return defaultParser.Parse(input)
}

// DetectCategory returns the category inferred from text with the built-in table.
func DetectCategory(text string) string {
	return defaultParser.DetectCategory(text)
}

// Categories lists the categories the parser can detect, in table order.
func (p *Parser) Categories() []string {
	return p.table.Categories()
}

func (p *Parser) DetectCategory(text string) string {
	rule, ok := p.table.Detect(text)
	if !ok {
		return ""
	}
	return rule.Category
}

func (p *Parser) Parse(input string) models.Draft {
	text := strings.TrimSpace(input)
	draft := models.Draft{
		Type: models.TypeExpense,
		Tags: []string{},
	}

	// 1. amount: first numeric token only, "50,00" -> "50.00"
	if m := amountRe.FindStringSubmatch(text); m != nil {
		draft.Amount = strings.Replace(m[1], ",", ".", 1)
		text = strings.TrimSpace(strings.Replace(text, m[0], "", 1))
	}

	// 2. tags
	if tags := tagRe.FindAllString(text, -1); len(tags) > 0 {
		for _, tag := range tags {
			draft.Tags = append(draft.Tags, strings.TrimPrefix(tag, "#"))
		}
		text = strings.TrimSpace(tagRe.ReplaceAllString(text, ""))
	}

	// 3. installments: "12x"
	if m := installmentRe.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n >= minInstallments && n <= maxInstallments {
			draft.Installments = n
			text = strings.TrimSpace(strings.Replace(text, m[0], "", 1))
		}
	}

	// 4. category and type
	if rule, ok := p.table.Detect(text); ok {
		draft.Category = rule.Category
		draft.Type = rule.Type
	}

	// 5. what is left is the description
	draft.Description = capitalize(strings.Join(strings.Fields(text), " "))

	return draft
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
