package bot_handler

import (
	"context"
	"errors"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/Lina3386/monk-finance/internal/models"
	"github.com/Lina3386/monk-finance/internal/repository"
	"github.com/Lina3386/monk-finance/internal/services"
	"github.com/Lina3386/monk-finance/internal/state"
)

const helpText = `📖 Comandos:

/start - Começar
/help - Mostrar esta ajuda
/cancel - Cancelar a ação atual
/extrato - Últimos lançamentos
/resumo - Resumo do mês
/recorrencias - Suas recorrências
/nova_recorrencia - Criar recorrência
/assinaturas - Assinaturas detectadas
/token - Token de acesso à API

📌 Para lançar, escreva em texto livre:
• 50 uber #trabalho
• 3000 salario
• 120,90 mercado

💡 Toda ação pode ser cancelada com /cancel`

const (
	btnExtrato      = "📋 Extrato"
	btnResumo       = "📊 Resumo"
	btnRecorrencias = "🔁 Recorrências"
	btnAssinaturas  = "📺 Assinaturas"
)

// BotAPI is the part of tgbotapi.BotAPI the handler needs.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// TokenIssuer signs HTTP API tokens.
type TokenIssuer interface {
	IssueToken(userID int64) (token string, expiresAt time.Time, err error)
}

type BotHandler struct {
	bot            BotAPI
	financeService *services.FinanceService
	stateManager   *state.StateManager
	tokens         TokenIssuer
	log            zerolog.Logger
	now            func() time.Time
}

func NewBotHandler(
	bot BotAPI,
	financeService *services.FinanceService,
	stateManager *state.StateManager,
	tokens TokenIssuer,
	log zerolog.Logger,
) *BotHandler {
	return &BotHandler{
		bot:            bot,
		financeService: financeService,
		stateManager:   stateManager,
		tokens:         tokens,
		log:            log.With().Str("component", "bot").Logger(),
		now:            time.Now,
	}
}

// HandleUpdate routes one Telegram update.
func (h *BotHandler) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message != nil && update.Message.From != nil {
		message := update.Message
		h.log.Debug().Int64("telegram_id", message.From.ID).Str("text", message.Text).Msg("message received")

		if message.IsCommand() {
			switch message.Command() {
			case "start":
				h.HandleStart(ctx, message)
			case "help":
				h.HandleHelp(message)
			case "cancel":
				h.HandleCancel(message)
			case "extrato":
				h.handleExtrato(ctx, message)
			case "resumo":
				h.handleResumo(ctx, message)
			case "recorrencias":
				h.handleRecorrencias(ctx, message)
			case "nova_recorrencia":
				h.startRecurrenceDialog(message)
			case "assinaturas":
				h.handleAssinaturas(ctx, message)
			case "token":
				h.handleToken(ctx, message)
			default:
				h.HandleUnknownCommand(message)
			}
			return
		}
		h.HandleTextMessage(ctx, message)
		return
	}

	if update.CallbackQuery != nil && update.CallbackQuery.From != nil {
		h.log.Debug().
			Int64("telegram_id", update.CallbackQuery.From.ID).
			Str("data", update.CallbackQuery.Data).
			Msg("callback received")
		h.HandleCallback(ctx, update.CallbackQuery)
	}
}

func (h *BotHandler) HandleStart(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	user, err := h.ensureUser(ctx, message.From)
	if err != nil {
		h.sendMessage(chatID, "❌ Erro ao registrar. Tente novamente mais tarde.")
		return
	}

	h.stateManager.ClearSession(message.From.ID)
	h.log.Info().Int64("user_id", user.ID).Int64("telegram_id", user.TelegramID).Msg("user started the bot")

	msg := fmt.Sprintf("👋 Olá, %s!\n\nEu organizo suas finanças.\n\n%s", user.Username, helpText)
	h.sendMessageWithKeyboard(chatID, msg, h.mainMenu())
}

func (h *BotHandler) HandleHelp(message *tgbotapi.Message) {
	h.sendMessage(message.Chat.ID, helpText)
}

func (h *BotHandler) HandleCancel(message *tgbotapi.Message) {
	telegramID := message.From.ID

	if h.stateManager.GetState(telegramID) == state.StateIdle {
		h.sendMessage(message.Chat.ID, "ℹ️ Nenhuma ação em andamento")
		return
	}

	h.stateManager.ClearState(telegramID)
	h.sendMessageWithKeyboard(message.Chat.ID, "❌ Ação cancelada", h.mainMenu())
}

func (h *BotHandler) HandleUnknownCommand(message *tgbotapi.Message) {
	h.sendMessage(message.Chat.ID, "❓ Comando desconhecido.\n\nUse /help para ver os comandos")
}

func (h *BotHandler) HandleTextMessage(ctx context.Context, message *tgbotapi.Message) {
	switch message.Text {
	case btnExtrato:
		h.handleExtrato(ctx, message)
		return
	case btnResumo:
		h.handleResumo(ctx, message)
		return
	case btnRecorrencias:
		h.handleRecorrencias(ctx, message)
		return
	case btnAssinaturas:
		h.handleAssinaturas(ctx, message)
		return
	}

	switch h.stateManager.GetState(message.From.ID) {
	case state.StateCreatingRecurrence,
		state.StateCreatingRecurrenceAmt,
		state.StateCreatingRecurrenceType,
		state.StateCreatingRecurrenceFreq,
		state.StateCreatingRecurrenceDay:
		h.handleRecurrenceInput(ctx, message)
	default:
		h.handleFreeText(message)
	}
}

// handleFreeText parses a transaction and asks for confirmation.
func (h *BotHandler) handleFreeText(message *tgbotapi.Message) {
	chatID := message.Chat.ID
	draft := h.financeService.ParseDraft(message.Text)

	if draft.Amount == "" {
		h.sendMessage(chatID, "🤔 Não encontrei um valor.\n\nExemplo: 50 uber #trabalho")
		return
	}

	h.stateManager.SetDraft(message.From.ID, draft)

	msg := tgbotapi.NewMessage(chatID, formatDraft(draft))
	msg.ReplyMarkup = draftKeyboard(h.financeService.Categories(), draft.Category)
	if _, err := h.bot.Send(msg); err != nil {
		h.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send draft preview")
	}
}

// handleToken issues an HTTP API token, only in private chats.
func (h *BotHandler) handleToken(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	if h.tokens == nil {
		h.sendMessage(chatID, "ℹ️ A API não está disponível")
		return
	}
	if !message.Chat.IsPrivate() {
		h.sendMessage(chatID, "🔒 Peça o token em uma conversa privada comigo")
		return
	}

	user, err := h.ensureUser(ctx, message.From)
	if err != nil {
		h.sendMessage(chatID, errorText(err))
		return
	}

	token, expiresAt, err := h.tokens.IssueToken(user.ID)
	if err != nil {
		h.log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to issue api token")
		h.sendMessage(chatID, errorText(err))
		return
	}
	h.log.Info().Int64("user_id", user.ID).Time("expires_at", expiresAt).Msg("api token issued")

	h.sendMessage(chatID, fmt.Sprintf(
		"🔑 Token da API, válido até %s:\n\n%s\n\nEnvie no cabeçalho Authorization: Bearer <token>",
		expiresAt.Format("02/01/2006 15:04"), token,
	))
}

func (h *BotHandler) ensureUser(ctx context.Context, from *tgbotapi.User) (*models.User, error) {
	username := from.UserName
	if username == "" {
		username = from.FirstName
	}
	return h.financeService.EnsureUser(ctx, from.ID, username)
}

// errorText maps service errors to a user message.
func errorText(err error) string {
	switch {
	case errors.Is(err, services.ErrInvalidAmount):
		return "❌ Valor inválido. Use um número maior que zero, ex: 49,90"
	case errors.Is(err, services.ErrEmptyName):
		return "❌ O nome não pode ser vazio"
	case errors.Is(err, services.ErrNameTooLong):
		return fmt.Sprintf("❌ Nome muito longo (máx. %d caracteres)", services.MaxNameLength)
	case errors.Is(err, services.ErrInvalidDueDay):
		return fmt.Sprintf("❌ Informe um dia entre %d e %d", services.MinDayOfMonth, services.MaxDayOfMonth)
	case errors.Is(err, services.ErrInvalidFrequency):
		return "❌ Frequência inválida"
	case errors.Is(err, services.ErrInvalidType):
		return "❌ Tipo inválido"
	case errors.Is(err, repository.ErrNotFound):
		return "❌ Não encontrado"
	default:
		return "❌ Algo deu errado. Tente novamente."
	}
}

func (h *BotHandler) mainMenu() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnExtrato),
			tgbotapi.NewKeyboardButton(btnResumo),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnRecorrencias),
			tgbotapi.NewKeyboardButton(btnAssinaturas),
		),
	)
}

func (h *BotHandler) sendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	_, err := h.bot.Send(msg)
	if err != nil {
		h.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send message")
		return err
	}
	return nil
}

func (h *BotHandler) sendMessageWithKeyboard(chatID int64, text string, keyboard interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	_, err := h.bot.Send(msg)
	if err != nil {
		h.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to send message with keyboard")
		return err
	}
	return nil
}

func (h *BotHandler) answerCallback(callbackQueryID, text string) {
	callback := tgbotapi.NewCallback(callbackQueryID, text)
	if _, err := h.bot.Request(callback); err != nil {
		h.log.Warn().Err(err).Msg("failed to answer callback")
	}
}
