package bot_handler

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"

	"github.com/Lina3386/monk-finance/internal/models"
	"github.com/Lina3386/monk-finance/internal/state"
)

const (
	cbConfirmDraft        = "confirm_draft"
	cbCancelDraft         = "cancel_draft"
	cbDraftCategoryPrefix = "draft_cat_"
	cbDeactivatePrefix    = "deactivate_rec_"
	cbRecTypePrefix       = "rec_type_"
	cbRecFreqPrefix       = "rec_freq_"
)

func (h *BotHandler) HandleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.Message == nil {
		h.answerCallback(query.ID, "")
		return
	}
	telegramID := query.From.ID
	chatID := query.Message.Chat.ID
	data := query.Data

	switch {
	case data == cbConfirmDraft:
		h.removeKeyboard(query.Message)
		h.confirmDraft(ctx, query)

	case data == cbCancelDraft:
		h.removeKeyboard(query.Message)
		h.stateManager.TakeDraft(telegramID)
		h.answerCallback(query.ID, "Descartado")
		h.sendMessage(chatID, "🗑 Lançamento descartado")

	case strings.HasPrefix(data, cbDraftCategoryPrefix):
		h.changeDraftCategory(query, strings.TrimPrefix(data, cbDraftCategoryPrefix))

	case strings.HasPrefix(data, cbDeactivatePrefix):
		h.deactivateRecurrence(ctx, query, strings.TrimPrefix(data, cbDeactivatePrefix))

	case strings.HasPrefix(data, cbRecTypePrefix):
		if h.stateManager.GetState(telegramID) != state.StateCreatingRecurrenceType {
			h.answerCallback(query.ID, "⌛ Opção expirada")
			return
		}
		typ, ok := parseTypeInput(strings.TrimPrefix(data, cbRecTypePrefix))
		if !ok {
			h.answerCallback(query.ID, "❌ Opção inválida")
			return
		}
		h.answerCallback(query.ID, "✅")
		h.selectRecurrenceType(telegramID, chatID, typ)

	case strings.HasPrefix(data, cbRecFreqPrefix):
		if h.stateManager.GetState(telegramID) != state.StateCreatingRecurrenceFreq {
			h.answerCallback(query.ID, "⌛ Opção expirada")
			return
		}
		freq, ok := parseFrequencyInput(strings.TrimPrefix(data, cbRecFreqPrefix))
		if !ok {
			h.answerCallback(query.ID, "❌ Opção inválida")
			return
		}
		h.answerCallback(query.ID, "✅")
		h.selectRecurrenceFrequency(ctx, telegramID, chatID, query.From, freq)

	default:
		h.log.Warn().Str("data", data).Msg("unknown callback")
		h.answerCallback(query.ID, "❌ Ação desconhecida")
	}
}

func (h *BotHandler) confirmDraft(ctx context.Context, query *tgbotapi.CallbackQuery) {
	chatID := query.Message.Chat.ID

	draft, ok := h.stateManager.TakeDraft(query.From.ID)
	if !ok {
		h.answerCallback(query.ID, "⌛ Lançamento expirado")
		return
	}

	user, err := h.ensureUser(ctx, query.From)
	if err != nil {
		h.answerCallback(query.ID, "❌ Erro")
		h.sendMessage(chatID, errorText(err))
		return
	}

	tx, err := h.financeService.SaveDraft(ctx, user.ID, draft, h.now())
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to save draft")
		h.answerCallback(query.ID, "❌ Erro")
		h.sendMessage(chatID, errorText(err))
		return
	}

	h.answerCallback(query.ID, "✅ Salvo")
	h.sendMessage(chatID, "✅ Salvo!\n\n"+formatTransaction(*tx))

	previous, err := h.financeService.PriceAlert(ctx, *tx)
	if err != nil {
		h.log.Warn().Err(err).Int64("user_id", user.ID).Msg("price alert check failed")
		return
	}
	if previous != nil {
		h.sendMessage(chatID, fmt.Sprintf(
			"⚠️ Gasto alto em %s: %s, o último foi %s",
			tx.Category, models.FormatBRL(tx.Amount), models.FormatBRL(previous.Amount),
		))
	}
}

// changeDraftCategory moves the pending draft to category and redraws the preview.
// The transaction type is kept.
func (h *BotHandler) changeDraftCategory(query *tgbotapi.CallbackQuery, category string) {
	if !h.financeService.IsCategory(category) {
		h.answerCallback(query.ID, "❌ Categoria inválida")
		return
	}

	draft, ok := h.stateManager.UpdateDraft(query.From.ID, func(d *models.Draft) {
		d.Category = category
	})
	if !ok {
		h.removeKeyboard(query.Message)
		h.answerCallback(query.ID, "⌛ Lançamento expirado")
		return
	}
	h.answerCallback(query.ID, "🏷 "+category)

	edit := tgbotapi.NewEditMessageTextAndMarkup(
		query.Message.Chat.ID,
		query.Message.MessageID,
		formatDraft(draft),
		draftKeyboard(h.financeService.Categories(), draft.Category),
	)
	if _, err := h.bot.Request(edit); err != nil {
		h.log.Warn().Err(err).Msg("failed to update draft preview")
	}
}

func (h *BotHandler) deactivateRecurrence(ctx context.Context, query *tgbotapi.CallbackQuery, rawID string) {
	chatID := query.Message.Chat.ID

	id, err := uuid.Parse(rawID)
	if err != nil {
		h.answerCallback(query.ID, "❌ Erro de formato")
		return
	}

	user, err := h.ensureUser(ctx, query.From)
	if err != nil {
		h.answerCallback(query.ID, "❌ Erro")
		return
	}

	if err := h.financeService.DeactivateRecurrence(ctx, user.ID, id); err != nil {
		h.log.Error().Err(err).Int64("user_id", user.ID).Str("rule_id", id.String()).Msg("failed to deactivate recurrence")
		h.answerCallback(query.ID, "❌ Erro")
		h.sendMessage(chatID, errorText(err))
		return
	}

	h.answerCallback(query.ID, "⏸ Desativada")
	h.removeKeyboard(query.Message)
	h.handleRecorrencias(ctx, &tgbotapi.Message{From: query.From, Chat: query.Message.Chat})
}

// removeKeyboard drops the inline buttons so they cannot be pressed twice.
func (h *BotHandler) removeKeyboard(message *tgbotapi.Message) {
	edit := tgbotapi.NewEditMessageReplyMarkup(
		message.Chat.ID,
		message.MessageID,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}},
	)
	if _, err := h.bot.Request(edit); err != nil {
		h.log.Warn().Err(err).Msg("failed to remove inline keyboard")
	}
}
