package bot_handler

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"github.com/Lina3386/monk-finance/internal/models"
	"github.com/Lina3386/monk-finance/internal/services"
	"github.com/Lina3386/monk-finance/internal/state"
)

const (
	keyRecName   = "rec_name"
	keyRecAmount = "rec_amount"
	keyRecType   = "rec_type"
	keyRecFreq   = "rec_freq"
)

func (h *BotHandler) startRecurrenceDialog(message *tgbotapi.Message) {
	h.stateManager.ClearState(message.From.ID)
	h.stateManager.SetState(message.From.ID, state.StateCreatingRecurrence)
	h.sendMessage(message.Chat.ID, "🔁 Nova recorrência\n\nQual o nome? (ex: Aluguel, Netflix)")
}

// handleRecurrenceInput advances the dialog name → amount → type → frequency → day.
func (h *BotHandler) handleRecurrenceInput(ctx context.Context, message *tgbotapi.Message) {
	telegramID := message.From.ID
	chatID := message.Chat.ID
	text := strings.TrimSpace(message.Text)

	switch h.stateManager.GetState(telegramID) {
	case state.StateCreatingRecurrence:
		if err := services.ValidateName(text); err != nil {
			h.sendMessage(chatID, errorText(err))
			return
		}
		h.stateManager.SetTempData(telegramID, keyRecName, text)
		h.stateManager.SetState(telegramID, state.StateCreatingRecurrenceAmt)
		h.sendMessage(chatID, "Qual o valor? (ex: 1500 ou 39,90)")

	case state.StateCreatingRecurrenceAmt:
		amount, err := services.ParseAmount(strings.TrimPrefix(strings.TrimPrefix(text, "R$"), "$"))
		if err != nil {
			h.sendMessage(chatID, errorText(err))
			return
		}
		h.stateManager.SetTempData(telegramID, keyRecAmount, amount.String())
		h.stateManager.SetState(telegramID, state.StateCreatingRecurrenceType)
		h.sendMessageWithKeyboard(chatID, "É uma despesa ou uma receita?", typeKeyboard())

	case state.StateCreatingRecurrenceType:
		typ, ok := parseTypeInput(text)
		if !ok {
			h.sendMessageWithKeyboard(chatID, "Escolha despesa ou receita:", typeKeyboard())
			return
		}
		h.selectRecurrenceType(telegramID, chatID, typ)

	case state.StateCreatingRecurrenceFreq:
		freq, ok := parseFrequencyInput(text)
		if !ok {
			h.sendMessageWithKeyboard(chatID, "Escolha a frequência:", frequencyKeyboard())
			return
		}
		h.selectRecurrenceFrequency(ctx, telegramID, chatID, message.From, freq)

	case state.StateCreatingRecurrenceDay:
		day, err := strconv.Atoi(text)
		if err != nil {
			h.sendMessage(chatID, errorText(services.ErrInvalidDueDay))
			return
		}
		if err := services.ValidateDayOfMonth(day); err != nil {
			h.sendMessage(chatID, errorText(err))
			return
		}
		h.finishRecurrence(ctx, chatID, message.From, day)
	}
}

func (h *BotHandler) selectRecurrenceType(telegramID, chatID int64, typ models.TransactionType) {
	h.stateManager.SetTempData(telegramID, keyRecType, string(typ))
	h.stateManager.SetState(telegramID, state.StateCreatingRecurrenceFreq)
	h.sendMessageWithKeyboard(chatID, "Com que frequência?", frequencyKeyboard())
}

func (h *BotHandler) selectRecurrenceFrequency(ctx context.Context, telegramID, chatID int64, from *tgbotapi.User, freq models.Frequency) {
	h.stateManager.SetTempData(telegramID, keyRecFreq, string(freq))

	switch freq {
	case models.FrequencyMonthly, models.FrequencyYearly:
		h.stateManager.SetState(telegramID, state.StateCreatingRecurrenceDay)
		h.sendMessage(chatID, fmt.Sprintf("Em que dia vence? (%d-%d)", services.MinDayOfMonth, services.MaxDayOfMonth))
	default:
		h.finishRecurrence(ctx, chatID, from, 0)
	}
}

func (h *BotHandler) finishRecurrence(ctx context.Context, chatID int64, from *tgbotapi.User, dueDay int) {
	telegramID := from.ID

	user, err := h.ensureUser(ctx, from)
	if err != nil {
		h.sendMessage(chatID, errorText(err))
		return
	}

	amount, err := decimal.NewFromString(h.stateManager.GetTempData(telegramID, keyRecAmount))
	if err != nil {
		h.stateManager.ClearState(telegramID)
		h.sendMessage(chatID, "❌ Sessão expirada. Comece de novo com /nova_recorrencia")
		return
	}

	name := h.stateManager.GetTempData(telegramID, keyRecName)
	typ := models.TransactionType(h.stateManager.GetTempData(telegramID, keyRecType))
	rule := &models.RecurrenceRule{
		UserID:    user.ID,
		Name:      name,
		Amount:    amount,
		Type:      typ,
		Category:  h.recurrenceCategory(name, typ),
		Frequency: models.Frequency(h.stateManager.GetTempData(telegramID, keyRecFreq)),
		DueDay:    dueDay,
		StartDate: h.now(),
	}

	report, err := h.financeService.CreateRecurrence(ctx, rule)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to create recurrence")
		h.sendMessage(chatID, errorText(err))
		if !services.IsValidationError(err) {
			h.stateManager.ClearState(telegramID)
		}
		return
	}
	h.stateManager.ClearState(telegramID)

	text := "✅ Recorrência criada:\n" + formatRecurrence(*rule)
	if len(report.Generated) > 0 {
		text += "\n\n" + services.FormatGenerated(report)
	}
	h.sendMessageWithKeyboard(chatID, text, h.mainMenu())
}

// recurrenceCategory infers the category from the rule name.
func (h *BotHandler) recurrenceCategory(name string, typ models.TransactionType) string {
	draft := h.financeService.ParseDraft(name)
	if draft.Category == "" || draft.Type != typ {
		return models.DefaultCategory
	}
	return draft.Category
}

func parseTypeInput(text string) (models.TransactionType, bool) {
	switch strings.ToLower(text) {
	case "despesa", "gasto", "saida", "saída", string(models.TypeExpense):
		return models.TypeExpense, true
	case "receita", "entrada", string(models.TypeIncome):
		return models.TypeIncome, true
	}
	return "", false
}

func parseFrequencyInput(text string) (models.Frequency, bool) {
	switch strings.ToLower(text) {
	case "diária", "diaria", string(models.FrequencyDaily):
		return models.FrequencyDaily, true
	case "semanal", string(models.FrequencyWeekly):
		return models.FrequencyWeekly, true
	case "mensal", string(models.FrequencyMonthly):
		return models.FrequencyMonthly, true
	case "anual", string(models.FrequencyYearly):
		return models.FrequencyYearly, true
	}
	return "", false
}
