package parser

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Lina3386/monk-finance/internal/models"
)

// Rule maps a category to the keywords that select it.
type Rule struct {
	Category string                 `yaml:"name"`
	Type     models.TransactionType `yaml:"type"`
	Keywords []string               `yaml:"keywords"`
}

// Table is a prioritized list of rules. Income rules are checked before
// expense rules; within each group the declared order decides ties.
type Table []Rule

// DefaultTable holds the built-in Portuguese keyword lists.
func DefaultTable() Table {
	return Table{
		{
			Category: "Salário",
			Type:     models.TypeIncome,
			Keywords: []string{"salario", "salário", "holerite", "freela", "pix recebido", "deposito", "depósito", "remuneração", "pagamento"},
		},
		{
			Category: "Alimentação",
			Type:     models.TypeExpense,
			Keywords: []string{"almoço", "jantar", "lanche", "ifood", "mercado", "restaurante", "café", "padaria", "pizza", "burger", "açaí", "fome"},
		},
		{
			Category: "Transporte",
			Type:     models.TypeExpense,
			Keywords: []string{"uber", "99", "taxi", "onibus", "ônibus", "metrô", "trem", "gasolina", "posto", "estacionamento", "pedagio", "pedágio", "carro", "moto"},
		},
		{
			Category: "Lazer",
			Type:     models.TypeExpense,
			Keywords: []string{"cinema", "filme", "jogo", "steam", "psn", "xbox", "spotify", "netflix", "amazon", "bar", "cerveja", "festa", "show", "livro"},
		},
		{
			Category: "Saúde",
			Type:     models.TypeExpense,
			Keywords: []string{"farmacia", "farmácia", "remedio", "remédio", "medico", "médico", "consulta", "exame", "dentista", "academia", "suplemento", "whey"},
		},
		{
			Category: "Moradia",
			Type:     models.TypeExpense,
			Keywords: []string{"aluguel", "luz", "agua", "água", "internet", "vivo", "claro", "tim", "condominio", "condomínio", "iptu", "gas", "gás", "limpeza"},
		},
		{
			Category: "Educação",
			Type:     models.TypeExpense,
			Keywords: []string{"curso", "faculdade", "escola", "livro", "material", "udemy", "alura"},
		},
	}
}

// Detect returns the first matching rule for text. Matching is a plain
// substring test on the lower-cased text, so "bar" also hits "barato".
func (t Table) Detect(text string) (Rule, bool) {
	lower := strings.ToLower(text)

	for _, typ := range []models.TransactionType{models.TypeIncome, models.TypeExpense} {
		for _, rule := range t {
			if rule.Type != typ {
				continue
			}
			for _, k := range rule.Keywords {
				if k != "" && strings.Contains(lower, k) {
					return rule, true
				}
			}
		}
	}
	return Rule{}, false
}

// Categories lists category names in table order.
func (t Table) Categories() []string {
	names := make([]string, 0, len(t))
	for _, rule := range t {
		names = append(names, rule.Category)
	}
	return names
}

type tableFile struct {
	Categories []Rule `yaml:"categories"`
}

// LoadTable reads a table from a YAML file of the form
//
//	categories:
//	  - name: Salário
//	    type: income
//	    keywords: [salario, holerite]
//
// A missing type means expense. Keywords are lower-cased on load.
func LoadTable(path string) (Table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read category table: %w", err)
	}
	return ParseTable(raw)
}

func ParseTable(raw []byte) (Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("failed to decode category table: %w", err)
	}
	if len(f.Categories) == 0 {
		return nil, fmt.Errorf("category table is empty")
	}

	table := make(Table, 0, len(f.Categories))
	for i, rule := range f.Categories {
		rule.Category = strings.TrimSpace(rule.Category)
		if rule.Category == "" {
			return nil, fmt.Errorf("category #%d has no name", i+1)
		}
		if rule.Type == "" {
			rule.Type = models.TypeExpense
		}
		if !rule.Type.Valid() {
			return nil, fmt.Errorf("category %q has invalid type %q", rule.Category, rule.Type)
		}
		keywords := make([]string, 0, len(rule.Keywords))
		for _, k := range rule.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				keywords = append(keywords, k)
			}
		}
		rule.Keywords = keywords
		table = append(table, rule)
	}
	return table, nil
}
