// Package bot routes inbound gateway events to wizards and queries and
// renders every reply the user sees.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"kopilka/internal/core"
	"kopilka/internal/dialog"
	"kopilka/internal/gateway"
	"kopilka/internal/log"
	"kopilka/internal/rates"
	"kopilka/internal/services"
)

const historyLimit = 10

// Sender delivers rendered replies back through the gateway.
type Sender interface {
	Send(ctx context.Context, msg gateway.OutboundMessage) error
}

type Bot struct {
	dialogs *dialog.Manager
	ledger  *services.Ledger
	budgets *services.Budgets
	goals   *services.Goals
	rates   RateSource
	sender  Sender
	logger  *log.Logger
}

// RateSource is the slice of the rate cache the bot needs: display and
// ad-hoc conversion.
type RateSource interface {
	Current() rates.Snapshot
	Convert(amount decimal.Decimal, from, to string) (decimal.Decimal, error)
}

func New(ledger *services.Ledger, budgets *services.Budgets, goals *services.Goals, rateSource RateSource, sender Sender, sessionIdle time.Duration, logger *log.Logger) (*Bot, error) {
	b := &Bot{
		dialogs: dialog.NewManager(sessionIdle, btnCancel, "/cancel"),
		ledger:  ledger,
		budgets: budgets,
		goals:   goals,
		rates:   rateSource,
		sender:  sender,
		logger:  logger.WithComponent(log.ComponentBot),
	}
	if err := b.registerWizards(); err != nil {
		return nil, err
	}
	return b, nil
}

// Dialogs exposes the session manager so the process can run its idle
// janitor alongside the consumer.
func (b *Bot) Dialogs() *dialog.Manager {
	return b.dialogs
}

// HandleEvent processes one inbound event end to end and sends the reply.
// It is the gateway consumer's handler; returning an error requeues the
// delivery.
func (b *Bot) HandleEvent(ctx context.Context, ev gateway.InboundEvent) error {
	msg := b.respond(ctx, ev)
	if err := b.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}

func (b *Bot) respond(ctx context.Context, ev gateway.InboundEvent) gateway.OutboundMessage {
	text := strings.TrimSpace(ev.Text)

	// Commands win over live sessions: a menu button is never fed into a
	// wizard as input. Read-only queries leave the session untouched;
	// wizard-starting commands replace it through Start.
	if handler, ok := b.route(text); ok {
		return handler(ctx, ev.OwnerID)
	}

	if b.dialogs.Active(ev.OwnerID) {
		return b.advance(ctx, ev.OwnerID, text)
	}

	return gateway.OutboundMessage{
		OwnerID:  ev.OwnerID,
		Text:     "🤔 Не понимаю. Выберите действие на клавиатуре или нажмите ℹ️ Помощь.",
		Keyboard: mainKeyboard(),
	}
}

type handlerFunc func(ctx context.Context, ownerID int64) gateway.OutboundMessage

// route resolves exact commands and button labels, then the id-carrying
// slash commands.
func (b *Bot) route(text string) (handlerFunc, bool) {
	switch text {
	case "/start":
		return b.handleStart, true
	case "/help", btnHelp:
		return b.handleHelp, true
	case "/add", btnAddExpense:
		return b.startWizard(wizardAddExpense, nil), true
	case "/income", btnAddIncome:
		return b.startWizard(wizardAddIncome, nil), true
	case "/today", btnToday:
		return b.summaryHandler(1, "сегодня"), true
	case "/week", btnWeek:
		return b.summaryHandler(7, "неделю"), true
	case "/month", btnMonth:
		return b.summaryHandler(30, "месяц"), true
	case "/balance", btnBalance:
		return b.handleBalance, true
	case "/budget", btnSetBudget:
		return b.startWizard(wizardSetBudget, nil), true
	case "/budgets", btnBudgets:
		return b.handleBudgets, true
	case "/goal", btnNewGoal:
		return b.startWizard(wizardCreateGoal, nil), true
	case "/goals", btnGoals:
		return b.handleGoals, true
	case "/history", btnHistory:
		return b.handleHistory, true
	case "/convert", btnConvert:
		return b.startWizard(wizardConvert, nil), true
	case "/rates", btnRates:
		return b.handleRates, true
	}

	for prefix, build := range map[string]func(id int64) handlerFunc{
		"/edit_expense":   func(id int64) handlerFunc { return b.startEdit(wizardEditExpense, id) },
		"/edit_income":    func(id int64) handlerFunc { return b.startEdit(wizardEditIncome, id) },
		"/delete_expense": func(id int64) handlerFunc { return b.deleteHandler(core.KindExpense, id) },
		"/delete_income":  func(id int64) handlerFunc { return b.deleteHandler(core.KindIncome, id) },
	} {
		arg, ok := strings.CutPrefix(text, prefix+" ")
		if !ok {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
		if err != nil {
			return b.staticReply("❌ Укажите номер записи, например <code>" + prefix + " 42</code>"), true
		}
		return build(id), true
	}

	return nil, false
}

func (b *Bot) advance(ctx context.Context, ownerID int64, text string) gateway.OutboundMessage {
	res, err := b.dialogs.Advance(ctx, ownerID, text)
	if err != nil {
		b.logger.ErrorContext(ctx, "Wizard finish failed",
			log.FieldOwnerID, ownerID,
			log.FieldError, err)
		return gateway.OutboundMessage{
			OwnerID:  ownerID,
			Text:     "😔 Что-то пошло не так, попробуйте ещё раз.",
			Keyboard: mainKeyboard(),
		}
	}

	switch {
	case res.Cancelled:
		return gateway.OutboundMessage{
			OwnerID:  ownerID,
			Text:     "❌ Действие отменено",
			Keyboard: mainKeyboard(),
		}
	case res.Done:
		return gateway.OutboundMessage{
			OwnerID:  ownerID,
			Text:     res.Reply,
			Keyboard: mainKeyboard(),
		}
	case res.Rejected != nil:
		return gateway.OutboundMessage{
			OwnerID:  ownerID,
			Text:     rejectionText(res.Rejected) + "\n\n" + res.Prompt.Text,
			Keyboard: choiceKeyboard(res.Prompt.Choices),
		}
	default:
		return gateway.OutboundMessage{
			OwnerID:  ownerID,
			Text:     res.Prompt.Text,
			Keyboard: choiceKeyboard(res.Prompt.Choices),
		}
	}
}

// rejectionText maps validation sentinels to the hints the user sees.
func rejectionText(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidAmount):
		return "❌ Неверный формат!\nВведите положительное число, например <code>1250.50</code>"
	case errors.Is(err, core.ErrUnknownCategory):
		return "❌ Неверная категория!\nВыберите вариант с клавиатуры."
	case errors.Is(err, core.ErrUnknownCurrency):
		return "❌ Неизвестная валюта!\nВыберите код с клавиатуры."
	case errors.Is(err, core.ErrEmptyName):
		return "❌ Название не может быть пустым."
	case errors.Is(err, core.ErrInvalidDeadline):
		return "❌ Неверная дата!\nФормат ДД.ММ.ГГГГ, дата должна быть в будущем."
	default:
		return "❌ Не получилось распознать ввод, попробуйте ещё раз."
	}
}

func (b *Bot) startWizard(kind dialog.Kind, seed map[string]string) handlerFunc {
	return func(ctx context.Context, ownerID int64) gateway.OutboundMessage {
		prompt, err := b.dialogs.Start(ownerID, kind, seed)
		if err != nil {
			b.logger.ErrorContext(ctx, "Failed to start wizard",
				log.FieldOwnerID, ownerID,
				log.FieldWizard, string(kind),
				log.FieldError, err)
			return gateway.OutboundMessage{
				OwnerID:  ownerID,
				Text:     "😔 Что-то пошло не так, попробуйте ещё раз.",
				Keyboard: mainKeyboard(),
			}
		}
		return gateway.OutboundMessage{
			OwnerID:  ownerID,
			Text:     prompt.Text,
			Keyboard: choiceKeyboard(prompt.Choices),
		}
	}
}

func (b *Bot) startEdit(kind dialog.Kind, id int64) handlerFunc {
	return b.startWizard(kind, map[string]string{
		fieldRecordID: strconv.FormatInt(id, 10),
	})
}

func (b *Bot) deleteHandler(kind core.RecordKind, id int64) handlerFunc {
	return func(ctx context.Context, ownerID int64) gateway.OutboundMessage {
		ok, err := b.ledger.Delete(ctx, kind, id, ownerID)
		if err != nil {
			b.logger.ErrorContext(ctx, "Failed to delete record",
				log.FieldOwnerID, ownerID,
				log.FieldRecordID, id,
				log.FieldKind, string(kind),
				log.FieldError, err)
			return b.failure(ownerID)
		}
		text := fmt.Sprintf("🗑 Запись #%d удалена.", id)
		if !ok {
			text = fmt.Sprintf("❌ Запись #%d не найдена.", id)
		}
		return gateway.OutboundMessage{OwnerID: ownerID, Text: text, Keyboard: mainKeyboard()}
	}
}

func (b *Bot) handleStart(ctx context.Context, ownerID int64) gateway.OutboundMessage {
	return gateway.OutboundMessage{
		OwnerID:  ownerID,
		Text:     greeting(b.rates.Current()),
		Keyboard: mainKeyboard(),
	}
}

func (b *Bot) handleHelp(ctx context.Context, ownerID int64) gateway.OutboundMessage {
	return gateway.OutboundMessage{
		OwnerID:  ownerID,
		Text:     helpText(),
		Keyboard: mainKeyboard(),
	}
}

func (b *Bot) summaryHandler(days int, period string) handlerFunc {
	return func(ctx context.Context, ownerID int64) gateway.OutboundMessage {
		summary, err := b.ledger.Summary(ctx, ownerID, days)
		if err != nil {
			b.logger.ErrorContext(ctx, "Failed to build summary",
				log.FieldOwnerID, ownerID,
				log.FieldError, err)
			return b.failure(ownerID)
		}
		return gateway.OutboundMessage{
			OwnerID:  ownerID,
			Text:     summaryText(summary, period),
			Keyboard: mainKeyboard(),
		}
	}
}

func (b *Bot) handleBalance(ctx context.Context, ownerID int64) gateway.OutboundMessage {
	balance, err := b.ledger.Balance(ctx, ownerID)
	if err != nil {
		b.logger.ErrorContext(ctx, "Failed to compute balance",
			log.FieldOwnerID, ownerID,
			log.FieldError, err)
		return b.failure(ownerID)
	}
	return gateway.OutboundMessage{
		OwnerID:  ownerID,
		Text:     balanceText(balance),
		Keyboard: mainKeyboard(),
	}
}

func (b *Bot) handleBudgets(ctx context.Context, ownerID int64) gateway.OutboundMessage {
	statuses, err := b.budgets.List(ctx, ownerID)
	if err != nil {
		b.logger.ErrorContext(ctx, "Failed to list budgets",
			log.FieldOwnerID, ownerID,
			log.FieldError, err)
		return b.failure(ownerID)
	}
	return gateway.OutboundMessage{
		OwnerID:  ownerID,
		Text:     budgetsText(statuses),
		Keyboard: mainKeyboard(),
	}
}

func (b *Bot) handleGoals(ctx context.Context, ownerID int64) gateway.OutboundMessage {
	progress, err := b.goals.List(ctx, ownerID)
	if err != nil {
		b.logger.ErrorContext(ctx, "Failed to list goals",
			log.FieldOwnerID, ownerID,
			log.FieldError, err)
		return b.failure(ownerID)
	}
	return gateway.OutboundMessage{
		OwnerID:  ownerID,
		Text:     goalsText(progress),
		Keyboard: mainKeyboard(),
	}
}

func (b *Bot) handleHistory(ctx context.Context, ownerID int64) gateway.OutboundMessage {
	expenses, err := b.ledger.Recent(ctx, core.KindExpense, ownerID, historyLimit)
	if err != nil {
		b.logger.ErrorContext(ctx, "Failed to load expense history",
			log.FieldOwnerID, ownerID,
			log.FieldError, err)
		return b.failure(ownerID)
	}
	income, err := b.ledger.Recent(ctx, core.KindIncome, ownerID, historyLimit)
	if err != nil {
		b.logger.ErrorContext(ctx, "Failed to load income history",
			log.FieldOwnerID, ownerID,
			log.FieldError, err)
		return b.failure(ownerID)
	}
	return gateway.OutboundMessage{
		OwnerID:  ownerID,
		Text:     historyText(expenses, income),
		Keyboard: mainKeyboard(),
	}
}

func (b *Bot) handleRates(ctx context.Context, ownerID int64) gateway.OutboundMessage {
	return gateway.OutboundMessage{
		OwnerID:  ownerID,
		Text:     ratesText(b.rates.Current()),
		Keyboard: mainKeyboard(),
	}
}

func (b *Bot) staticReply(text string) handlerFunc {
	return func(ctx context.Context, ownerID int64) gateway.OutboundMessage {
		return gateway.OutboundMessage{OwnerID: ownerID, Text: text, Keyboard: mainKeyboard()}
	}
}

func (b *Bot) failure(ownerID int64) gateway.OutboundMessage {
	return gateway.OutboundMessage{
		OwnerID:  ownerID,
		Text:     "😔 Что-то пошло не так, попробуйте ещё раз.",
		Keyboard: mainKeyboard(),
	}
}
