package bot_handler

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"github.com/Lina3386/monk-finance/internal/models"
)

const dateFormat = "02/01/2006"

var monthNames = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

var frequencyNames = map[models.Frequency]string{
	models.FrequencyDaily:   "diária",
	models.FrequencyWeekly:  "semanal",
	models.FrequencyMonthly: "mensal",
	models.FrequencyYearly:  "anual",
}

func typeIcon(t models.TransactionType) string {
	if t == models.TypeIncome {
		return "🟢"
	}
	return "🔴"
}

func formatDraft(d models.Draft) string {
	var b strings.Builder
	b.WriteString("📝 Confirma o lançamento?\n\n")

	amount, err := decimal.NewFromString(d.Amount)
	if err == nil {
		fmt.Fprintf(&b, "%s %s\n", typeIcon(d.Type), models.FormatBRL(amount))
	}
	if d.Description != "" {
		fmt.Fprintf(&b, "📄 %s\n", d.Description)
	}
	category := d.Category
	if category == "" {
		category = models.DefaultCategory
	}
	fmt.Fprintf(&b, "🏷 %s\n", category)
	if len(d.Tags) > 0 {
		fmt.Fprintf(&b, "#️⃣ %s\n", strings.Join(d.Tags, ", "))
	}
	if d.Installments > 1 {
		fmt.Fprintf(&b, "💳 %dx\n", d.Installments)
	}
	return b.String()
}

const (
	categoriesPerRow = 3
	// Telegram rejects callback data longer than this.
	maxCallbackData = 64
)

// draftKeyboard has confirm/cancel on top and one button per category below,
// the current one marked.
func draftKeyboard(categories []string, current string) tgbotapi.InlineKeyboardMarkup {
	if current == "" {
		current = models.DefaultCategory
	}

	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Confirmar", cbConfirmDraft),
			tgbotapi.NewInlineKeyboardButtonData("❌ Cancelar", cbCancelDraft),
		),
	}

	var row []tgbotapi.InlineKeyboardButton
	for _, name := range categories {
		if len(cbDraftCategoryPrefix+name) > maxCallbackData {
			continue
		}
		label := name
		if name == current {
			label = "• " + name
		}
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, cbDraftCategoryPrefix+name))
		if len(row) == categoriesPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func formatTransaction(tx models.Transaction) string {
	line := fmt.Sprintf("%s %s  %s · %s · %s",
		typeIcon(tx.Type),
		models.FormatBRL(tx.Amount),
		tx.Description,
		tx.Category,
		tx.Date.Format(dateFormat),
	)
	if tx.RecurrenceID != nil {
		line += " 🔁"
	}
	if tx.Status == models.StatusPending {
		line += " ⏳"
	}
	return line
}

func formatTransactions(txs []models.Transaction) string {
	if len(txs) == 0 {
		return "📋 Nenhum lançamento ainda.\n\nEscreva algo como: 50 uber"
	}

	var b strings.Builder
	b.WriteString("📋 Últimos lançamentos:\n\n")
	for _, tx := range txs {
		b.WriteString(formatTransaction(tx))
		b.WriteByte('\n')
	}
	return b.String()
}

func formatSummary(s models.Summary, now time.Time) string {
	return fmt.Sprintf(
		"📊 Resumo de %s\n\n"+
			"🟢 Receitas: %s\n"+
			"🔴 Despesas: %s\n"+
			"💰 Saldo: %s",
		monthNames[now.Month()-1],
		models.FormatBRL(s.Income),
		models.FormatBRL(s.Expense),
		models.FormatBRL(s.Balance),
	)
}

func formatRecurrence(r models.RecurrenceRule) string {
	schedule := frequencyNames[r.Frequency]
	if r.DueDay > 0 && (r.Frequency == models.FrequencyMonthly || r.Frequency == models.FrequencyYearly) {
		schedule = fmt.Sprintf("%s, dia %d", schedule, r.DueDay)
	}

	status := ""
	if !r.Active {
		status = " (inativa)"
	}
	return fmt.Sprintf("%s %s: %s (%s)%s", typeIcon(r.Type), r.Name, models.FormatBRL(r.Amount), schedule, status)
}

func formatRecurrences(rules []models.RecurrenceRule) string {
	var b strings.Builder
	b.WriteString("🔁 Suas recorrências:\n\n")
	for _, r := range rules {
		b.WriteString(formatRecurrence(r))
		b.WriteByte('\n')
	}
	return b.String()
}

// recurrencesKeyboard has one deactivate button per active rule.
func recurrencesKeyboard(rules []models.RecurrenceRule) (tgbotapi.InlineKeyboardMarkup, bool) {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, r := range rules {
		if !r.Active {
			continue
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏸ Desativar "+r.Name, cbDeactivatePrefix+r.ID.String()),
		))
	}
	if len(rows) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}

func typeKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔴 Despesa", cbRecTypePrefix+string(models.TypeExpense)),
			tgbotapi.NewInlineKeyboardButtonData("🟢 Receita", cbRecTypePrefix+string(models.TypeIncome)),
		),
	)
}

func frequencyKeyboard() tgbotapi.InlineKeyboardMarkup {
	button := func(f models.Frequency) tgbotapi.InlineKeyboardButton {
		return tgbotapi.NewInlineKeyboardButtonData(frequencyNames[f], cbRecFreqPrefix+string(f))
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(button(models.FrequencyMonthly), button(models.FrequencyWeekly)),
		tgbotapi.NewInlineKeyboardRow(button(models.FrequencyYearly), button(models.FrequencyDaily)),
	)
}

func formatSubscriptions(subs []models.Subscription) string {
	if len(subs) == 0 {
		return "📺 Nenhuma assinatura detectada nos últimos 6 meses"
	}

	total := decimal.Zero
	increased := 0

	var b strings.Builder
	b.WriteString("📺 Assinaturas\n\n")
	for _, s := range subs {
		total = total.Add(s.Amount)
		fmt.Fprintf(&b, "• %s: %s", s.Name, models.FormatBRL(s.Amount))
		if s.LastAmount != nil && s.Amount.GreaterThan(*s.LastAmount) {
			increased++
			fmt.Fprintf(&b, " 📈 +%s", models.FormatBRL(s.Amount.Sub(*s.LastAmount)))
		}
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "\nTotal/mês: %s", models.FormatBRL(total))
	if increased > 0 {
		fmt.Fprintf(&b, "\n⚠️ %d assinatura(s) com aumento de preço", increased)
	}
	return b.String()
}
