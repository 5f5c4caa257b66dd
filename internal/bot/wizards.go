package bot

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"kopilka/internal/core"
	"kopilka/internal/dialog"
	"kopilka/internal/log"
)

// Wizard kinds.
const (
	wizardAddExpense  dialog.Kind = "add_expense"
	wizardAddIncome   dialog.Kind = "add_income"
	wizardSetBudget   dialog.Kind = "set_budget"
	wizardCreateGoal  dialog.Kind = "create_goal"
	wizardEditExpense dialog.Kind = "edit_expense"
	wizardEditIncome  dialog.Kind = "edit_income"
	wizardConvert     dialog.Kind = "convert"
)

// Session field names shared between steps and finish actions.
const (
	fieldAmount   = "amount"
	fieldCategory = "category"
	fieldRecordID = "record_id"
	fieldName     = "name"
	fieldTarget   = "target"
	fieldDeadline = "deadline"
	fieldFrom     = "from"
	fieldTo       = "to"
)

func amountStep(field, promptText string) dialog.Step {
	return dialog.Step{
		Name: field,
		Prompt: func(*dialog.Session) dialog.Prompt {
			return dialog.Prompt{Text: promptText}
		},
		Parse: func(s *dialog.Session, input string) error {
			amount, err := core.ParseAmount(input)
			if err != nil {
				return err
			}
			s.Fields[field] = amount.String()
			return nil
		},
	}
}

func categoryStep(set core.CategorySet, promptText string) dialog.Step {
	return dialog.Step{
		Name: fieldCategory,
		Prompt: func(*dialog.Session) dialog.Prompt {
			return dialog.Prompt{Text: promptText, Choices: set.Labels()}
		},
		Parse: func(s *dialog.Session, input string) error {
			if !set.Contains(input) {
				return fmt.Errorf("%w: %q", core.ErrUnknownCategory, input)
			}
			s.Fields[fieldCategory] = input
			return nil
		},
	}
}

func (b *Bot) addRecordWizard(kind dialog.Kind, recordKind core.RecordKind) *dialog.Wizard {
	amountPrompt := "💰 Введите сумму расхода в рублях:"
	categoryPrompt := "📂 Выберите категорию:"
	if recordKind == core.KindIncome {
		amountPrompt = "💵 Введите сумму дохода в рублях:"
		categoryPrompt = "📂 Выберите источник дохода:"
	}

	return &dialog.Wizard{
		Kind: kind,
		Steps: []dialog.Step{
			amountStep(fieldAmount, amountPrompt),
			categoryStep(core.CategoriesFor(recordKind), categoryPrompt),
		},
		Finish: func(ctx context.Context, s *dialog.Session) (string, error) {
			amount, err := core.ParseAmount(s.Field(fieldAmount))
			if err != nil {
				return "", err
			}

			rec, err := b.ledger.Record(ctx, recordKind, s.OwnerID, amount, s.Field(fieldCategory))
			if err != nil {
				return "", err
			}

			reply := recordAdded(recordKind, rec)
			if recordKind == core.KindExpense {
				reply += b.thresholdSuffix(ctx, s.OwnerID, rec.Category)
			}
			return reply, nil
		},
	}
}

// thresholdSuffix appends the budget warning when the category crossed its
// alert ratio. A failed check never spoils the already-committed record
// confirmation.
func (b *Bot) thresholdSuffix(ctx context.Context, ownerID int64, category string) string {
	report, err := b.budgets.CheckThreshold(ctx, ownerID, category)
	if err != nil {
		b.logger.ErrorContext(ctx, "Budget threshold check failed",
			log.FieldOwnerID, ownerID,
			log.FieldCategory, category,
			log.FieldError, err)
		return ""
	}
	if !report.Alert {
		return ""
	}
	return budgetWarning(report)
}

func (b *Bot) editRecordWizard(kind dialog.Kind, recordKind core.RecordKind) *dialog.Wizard {
	return &dialog.Wizard{
		Kind: kind,
		Steps: []dialog.Step{
			amountStep(fieldAmount, "💰 Введите новую сумму в рублях:"),
			categoryStep(core.CategoriesFor(recordKind), "📂 Выберите новую категорию:"),
		},
		Finish: func(ctx context.Context, s *dialog.Session) (string, error) {
			id, err := strconv.ParseInt(s.Field(fieldRecordID), 10, 64)
			if err != nil {
				return "", fmt.Errorf("parse record id: %w", err)
			}
			amount, err := core.ParseAmount(s.Field(fieldAmount))
			if err != nil {
				return "", err
			}

			ok, err := b.ledger.Edit(ctx, recordKind, id, s.OwnerID, amount, s.Field(fieldCategory))
			if err != nil {
				return "", err
			}
			if !ok {
				return fmt.Sprintf("❌ Запись #%d не найдена.", id), nil
			}
			return fmt.Sprintf("✏️ Запись #%d обновлена:\n💰 %s₽ · %s",
				id, money(amount), s.Field(fieldCategory)), nil
		},
	}
}

func (b *Bot) setBudgetWizard() *dialog.Wizard {
	return &dialog.Wizard{
		Kind: wizardSetBudget,
		Steps: []dialog.Step{
			categoryStep(core.ExpenseCategories, "🎯 На какую категорию установить бюджет?"),
			amountStep(fieldAmount, "💰 Введите месячный лимит в рублях:"),
		},
		Finish: func(ctx context.Context, s *dialog.Session) (string, error) {
			limit, err := core.ParseAmount(s.Field(fieldAmount))
			if err != nil {
				return "", err
			}
			category := s.Field(fieldCategory)
			if err := b.budgets.Set(ctx, s.OwnerID, category, limit); err != nil {
				return "", err
			}
			return fmt.Sprintf("🎯 <b>Бюджет установлен!</b>\n\n%s: %s₽ в месяц",
				category, money(limit)), nil
		},
	}
}

func (b *Bot) createGoalWizard() *dialog.Wizard {
	return &dialog.Wizard{
		Kind: wizardCreateGoal,
		Steps: []dialog.Step{
			{
				Name: fieldName,
				Prompt: func(*dialog.Session) dialog.Prompt {
					return dialog.Prompt{Text: "⭐ Как назвать цель? (например, «Отпуск»)"}
				},
				Parse: func(s *dialog.Session, input string) error {
					if input == "" {
						return core.ErrEmptyName
					}
					s.Fields[fieldName] = input
					return nil
				},
			},
			amountStep(fieldTarget, "💰 Сколько нужно накопить, в рублях?"),
			{
				Name: fieldDeadline,
				Prompt: func(*dialog.Session) dialog.Prompt {
					return dialog.Prompt{
						Text:    deadlineHint(time.Now()),
						Choices: []string{btnNoDeadline},
					}
				},
				Parse: func(s *dialog.Session, input string) error {
					if input == btnNoDeadline {
						s.Fields[fieldDeadline] = ""
						return nil
					}
					deadline, err := time.Parse(displayDate, input)
					if err != nil {
						return fmt.Errorf("%w: %q", core.ErrInvalidDeadline, input)
					}
					if !deadline.After(time.Now()) {
						return fmt.Errorf("%w: дата в прошлом", core.ErrInvalidDeadline)
					}
					s.Fields[fieldDeadline] = deadline.Format(displayDate)
					return nil
				},
			},
		},
		Finish: func(ctx context.Context, s *dialog.Session) (string, error) {
			target, err := core.ParseAmount(s.Field(fieldTarget))
			if err != nil {
				return "", err
			}

			var deadline *time.Time
			if raw := s.Field(fieldDeadline); raw != "" {
				t, err := time.Parse(displayDate, raw)
				if err != nil {
					return "", fmt.Errorf("%w: %q", core.ErrInvalidDeadline, raw)
				}
				deadline = &t
			}

			goal, err := b.goals.Create(ctx, s.OwnerID, s.Field(fieldName), target, deadline)
			if err != nil {
				return "", err
			}

			reply := fmt.Sprintf("⭐ <b>Цель создана!</b>\n\n%s: %s₽", goal.Name, money(goal.Target))
			if goal.Deadline != nil {
				reply += fmt.Sprintf("\n📅 Срок: %s", goal.Deadline.Format(displayDate))
			}
			return reply, nil
		},
	}
}

// currencyStep offers the snapshot's codes plus the base currency; input is
// validated against that set at parse time, so a stale keyboard press after
// a refresh still resolves against current rates.
func (b *Bot) currencyStep(field, promptText string) dialog.Step {
	return dialog.Step{
		Name: field,
		Prompt: func(*dialog.Session) dialog.Prompt {
			snap := b.rates.Current()
			return dialog.Prompt{
				Text:    promptText,
				Choices: append([]string{snap.Base}, snap.Codes()...),
			}
		},
		Parse: func(s *dialog.Session, input string) error {
			snap := b.rates.Current()
			if input != snap.Base {
				if _, ok := snap.Rates[input]; !ok {
					return fmt.Errorf("%w: %s", core.ErrUnknownCurrency, input)
				}
			}
			s.Fields[field] = input
			return nil
		},
	}
}

func (b *Bot) convertWizard() *dialog.Wizard {
	return &dialog.Wizard{
		Kind: wizardConvert,
		Steps: []dialog.Step{
			amountStep(fieldAmount, "💱 Введите сумму для конвертации:"),
			b.currencyStep(fieldFrom, "💱 Из какой валюты?"),
			b.currencyStep(fieldTo, "💱 В какую валюту?"),
		},
		Finish: func(ctx context.Context, s *dialog.Session) (string, error) {
			amount, err := core.ParseAmount(s.Field(fieldAmount))
			if err != nil {
				return "", err
			}
			from, to := s.Field(fieldFrom), s.Field(fieldTo)

			result, err := b.rates.Convert(amount, from, to)
			if err != nil {
				return "", err
			}
			return convertedText(amount, from, result, to), nil
		},
	}
}

func (b *Bot) registerWizards() error {
	wizards := []*dialog.Wizard{
		b.addRecordWizard(wizardAddExpense, core.KindExpense),
		b.addRecordWizard(wizardAddIncome, core.KindIncome),
		b.editRecordWizard(wizardEditExpense, core.KindExpense),
		b.editRecordWizard(wizardEditIncome, core.KindIncome),
		b.setBudgetWizard(),
		b.createGoalWizard(),
		b.convertWizard(),
	}
	for _, w := range wizards {
		if err := b.dialogs.Register(w); err != nil {
			return fmt.Errorf("register wizard: %w", err)
		}
	}
	return nil
}
