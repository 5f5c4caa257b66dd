package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"kopilka/internal/core"
	"kopilka/internal/rates"
	"kopilka/internal/services"
)

const (
	displayDate = "02.01.2006"
	divider     = "━━━━━━━━━━━━━━━━"
)

// money renders an amount with thousands separators and two decimals, the
// way the bot has always shown roubles.
func money(d decimal.Decimal) string {
	f, _ := d.Float64()
	return humanize.FormatFloat("#,###.##", f)
}

// pairText renders both currency projections: "1,250.50₽ (16.13$)".
func pairText(p core.AmountPair) string {
	return money(p.Primary) + "₽ (" + money(p.Secondary) + "$)"
}

func greeting(snap rates.Snapshot) string {
	var b strings.Builder
	b.WriteString("👋 Привет!\n\n")
	b.WriteString("Я бот для учёта финансов 💰\n\n")
	b.WriteString("📌 <b>Основные команды:</b>\n")
	b.WriteString("➕ Добавить расход\n")
	b.WriteString("💵 Добавить доход\n")
	b.WriteString("📊 Статистика (сегодня/неделя/месяц)\n")
	b.WriteString("🎯 Бюджеты и ⭐ Цели\n")
	b.WriteString("💰 Баланс\n\n")
	if usd, ok := snap.Rates["USD"]; ok {
		fmt.Fprintf(&b, "💱 Курс: 1$ = %s₽", money(usd))
	}
	return b.String()
}

func helpText() string {
	return "📖 <b>Как пользоваться ботом:</b>\n\n" +
		"1️⃣ <b>Добавить расход:</b>\n" +
		"   • Нажми ➕ Расход\n" +
		"   • Введи сумму в рублях\n" +
		"   • Выбери категорию\n\n" +
		"2️⃣ <b>Добавить доход:</b>\n" +
		"   • Нажми 💵 Доход\n" +
		"   • Введи сумму\n" +
		"   • Выбери источник\n\n" +
		"3️⃣ <b>Статистика:</b> 📊 Сегодня, 📅 Неделя, 📆 Месяц\n" +
		"4️⃣ <b>Бюджеты:</b> 🎯 Бюджет — лимит на категорию в месяц\n" +
		"5️⃣ <b>Цели:</b> ⭐ Цель — копим на мечту\n" +
		"6️⃣ <b>История:</b> 🧾 История — последние записи,\n" +
		"   /edit_expense id и /delete_expense id — правки\n" +
		"7️⃣ <b>Валюта:</b> 💱 Конвертер и 💱 Курс"
}

func recordAdded(kind core.RecordKind, rec core.Record) string {
	title, amountLabel, categoryLabel := "Расход добавлен!", "💰 Сумма", "📂 Категория"
	if kind == core.KindIncome {
		title, amountLabel, categoryLabel = "Доход добавлен!", "💵 Сумма", "📂 Источник"
	}
	return fmt.Sprintf("✅ <b>%s</b>\n\n%s: %s₽ (%s$)\n%s: %s\n📅 Дата: %s",
		title,
		amountLabel, money(rec.Primary), money(rec.Secondary),
		categoryLabel, rec.Category,
		rec.OccurredOn.Format(displayDate))
}

// budgetWarning distinguishes the crossed-the-limit case from the
// approaching-it case; the tracker itself only reports the single alert
// flag.
func budgetWarning(report services.ThresholdReport) string {
	if report.Spent.GreaterThanOrEqual(report.Limit) {
		return fmt.Sprintf("\n\n🚨 <b>Бюджет превышен!</b>\nПотрачено: %s₽ из %s₽ (%d%%)",
			money(report.Spent), money(report.Limit), report.Percent())
	}
	return fmt.Sprintf("\n\n⚠️ <b>Внимание:</b> израсходовано %d%% бюджета\nПотрачено: %s₽ из %s₽",
		report.Percent(), money(report.Spent), money(report.Limit))
}

func summaryText(s core.PeriodSummary, period string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>Финансовый отчёт за %s</b>\n\n", period)

	fmt.Fprintf(&b, "💵 <b>ДОХОДЫ:</b> %s\n", pairText(s.Income))
	for _, ct := range s.IncomeByCategory {
		fmt.Fprintf(&b, "  • %s: %s₽\n", ct.Category, money(ct.Total.Primary))
	}
	b.WriteString("\n")

	fmt.Fprintf(&b, "💸 <b>РАСХОДЫ:</b> %s\n", pairText(s.Expense))
	for _, ct := range s.ExpenseByCategory {
		fmt.Fprintf(&b, "  • %s: %s₽\n", ct.Category, money(ct.Total.Primary))
	}

	net := s.Net()
	fmt.Fprintf(&b, "\n%s\n%s <b>ОСТАТОК:</b> %s", divider, netEmoji(net), pairText(net))
	return b.String()
}

func balanceText(bal core.Balance) string {
	net := bal.Net()
	return fmt.Sprintf("💰 <b>Ваш баланс (за всё время)</b>\n\n"+
		"💵 <b>Доходы:</b> %s\n"+
		"💸 <b>Расходы:</b> %s\n"+
		"%s\n"+
		"%s <b>ОСТАТОК:</b> %s",
		pairText(bal.Income), pairText(bal.Expense), divider, netEmoji(net), pairText(net))
}

func netEmoji(net core.AmountPair) string {
	if net.Primary.IsNegative() {
		return "⚠️"
	}
	return "✅"
}

func ratesText(snap rates.Snapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "💱 <b>Курс валют</b> (база: %s)\n\n", snap.Base)
	for _, code := range snap.Codes() {
		fmt.Fprintf(&b, "1 %s = %s₽\n", code, money(snap.Rates[code]))
	}
	if snap.FetchedAt.IsZero() {
		b.WriteString("\n🕒 Курс ещё не обновлялся — использую встроенные значения")
	} else {
		fmt.Fprintf(&b, "\n🕒 Обновлено: %s", snap.FetchedAt.Format("02.01.2006 15:04"))
	}
	return b.String()
}

func budgetsText(statuses []services.BudgetStatus) string {
	if len(statuses) == 0 {
		return "📋 На этот месяц бюджеты не заданы.\nНажмите 🎯 Бюджет, чтобы установить лимит."
	}

	var b strings.Builder
	b.WriteString("📋 <b>Бюджеты на текущий месяц</b>\n\n")
	for _, st := range statuses {
		percent := 0
		if st.Budget.Limit.IsPositive() {
			percent = int(st.Spent.Mul(decimal.NewFromInt(100)).Div(st.Budget.Limit).IntPart())
		}
		fmt.Fprintf(&b, "%s\nПотрачено: %s₽ из %s₽ (%d%%)\n\n",
			st.Budget.Category, money(st.Spent), money(st.Budget.Limit), percent)
	}
	return strings.TrimRight(b.String(), "\n")
}

func goalsText(progress []services.GoalProgress) string {
	if len(progress) == 0 {
		return "🏆 У вас пока нет целей.\nНажмите ⭐ Цель, чтобы создать первую."
	}

	var b strings.Builder
	b.WriteString("🏆 <b>Ваши цели</b>\n\n")
	for _, gp := range progress {
		fmt.Fprintf(&b, "⭐ <b>%s</b>\n%s %d%%\n💰 Накоплено: %s₽ из %s₽\n",
			gp.Goal.Name,
			progressBar(gp.Ratio),
			ratioPercent(gp.Ratio),
			money(gp.Saved), money(gp.Goal.Target))
		if gp.Goal.Deadline != nil {
			fmt.Fprintf(&b, "📅 Срок: %s\n", gp.Goal.Deadline.Format(displayDate))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// progressBar renders a fixed ten-segment bar; the underlying ratio is
// unbounded, the bar clamps at full and empty.
func progressBar(ratio decimal.Decimal) string {
	const segments = 10
	filled := int(ratio.Mul(decimal.NewFromInt(segments)).IntPart())
	if filled < 0 {
		filled = 0
	}
	if filled > segments {
		filled = segments
	}
	return strings.Repeat("▓", filled) + strings.Repeat("░", segments-filled)
}

func ratioPercent(ratio decimal.Decimal) int {
	p := ratio.Mul(decimal.NewFromInt(100)).IntPart()
	if p < 0 {
		return 0
	}
	return int(p)
}

func historyText(expenses, income []core.Record) string {
	if len(expenses) == 0 && len(income) == 0 {
		return "🧾 Записей пока нет."
	}

	var b strings.Builder
	b.WriteString("🧾 <b>Последние записи</b>\n\n")
	if len(expenses) > 0 {
		b.WriteString("💸 <b>Расходы:</b>\n")
		for _, rec := range expenses {
			fmt.Fprintf(&b, "#%d · %s · %s · %s₽\n",
				rec.ID, rec.OccurredOn.Format(displayDate), rec.Category, money(rec.Primary))
		}
		b.WriteString("\n")
	}
	if len(income) > 0 {
		b.WriteString("💵 <b>Доходы:</b>\n")
		for _, rec := range income {
			fmt.Fprintf(&b, "#%d · %s · %s · %s₽\n",
				rec.ID, rec.OccurredOn.Format(displayDate), rec.Category, money(rec.Primary))
		}
		b.WriteString("\n")
	}
	b.WriteString("✏️ /edit_expense id или /edit_income id — изменить\n")
	b.WriteString("🗑 /delete_expense id или /delete_income id — удалить")
	return b.String()
}

func convertedText(amount decimal.Decimal, from string, result decimal.Decimal, to string) string {
	return fmt.Sprintf("💱 %s %s = <b>%s %s</b>", money(amount), from, money(result), to)
}

// deadline formatting for the goal wizard prompt.
func deadlineHint(now time.Time) string {
	example := now.AddDate(0, 1, 0).Format(displayDate)
	return "📅 Укажите срок в формате ДД.ММ.ГГГГ (например, <code>" + example + "</code>)\n" +
		"или нажмите " + btnNoDeadline
}
