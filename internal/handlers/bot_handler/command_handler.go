package bot_handler

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Lina3386/monk-finance/internal/services"
)

func (h *BotHandler) handleExtrato(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	user, err := h.ensureUser(ctx, message.From)
	if err != nil {
		h.sendMessage(chatID, errorText(err))
		return
	}

	txs, err := h.financeService.ListTransactions(ctx, user.ID, services.DefaultListLimit)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to list transactions")
		h.sendMessage(chatID, "❌ Erro ao carregar o extrato")
		return
	}

	h.sendMessage(chatID, formatTransactions(txs))
}

func (h *BotHandler) handleResumo(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	user, err := h.ensureUser(ctx, message.From)
	if err != nil {
		h.sendMessage(chatID, errorText(err))
		return
	}

	summary, err := h.financeService.MonthSummary(ctx, user.ID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to build summary")
		h.sendMessage(chatID, "❌ Erro ao calcular o resumo")
		return
	}

	h.sendMessage(chatID, formatSummary(*summary, h.now()))
}

func (h *BotHandler) handleRecorrencias(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	user, err := h.ensureUser(ctx, message.From)
	if err != nil {
		h.sendMessage(chatID, errorText(err))
		return
	}

	rules, err := h.financeService.ListRecurrences(ctx, user.ID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to list recurrences")
		h.sendMessage(chatID, "❌ Erro ao carregar recorrências")
		return
	}

	if len(rules) == 0 {
		h.sendMessage(chatID, "🔁 Nenhuma recorrência cadastrada.\n\nCrie uma com /nova_recorrencia")
		return
	}

	if keyboard, ok := recurrencesKeyboard(rules); ok {
		h.sendMessageWithKeyboard(chatID, formatRecurrences(rules), keyboard)
		return
	}
	h.sendMessage(chatID, formatRecurrences(rules))
}

func (h *BotHandler) handleAssinaturas(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	user, err := h.ensureUser(ctx, message.From)
	if err != nil {
		h.sendMessage(chatID, errorText(err))
		return
	}

	subs, err := h.financeService.Subscriptions(ctx, user.ID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to detect subscriptions")
		h.sendMessage(chatID, "❌ Erro ao analisar assinaturas")
		return
	}

	h.sendMessage(chatID, formatSubscriptions(subs))
}
