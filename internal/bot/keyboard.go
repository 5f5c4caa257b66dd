package bot

// Button labels double as inbound triggers: the gateway sends back the
// pressed label as plain text.
const (
	btnAddExpense = "➕ Расход"
	btnAddIncome  = "💵 Доход"
	btnToday      = "📊 Сегодня"
	btnWeek       = "📅 Неделя"
	btnMonth      = "📆 Месяц"
	btnBalance    = "💰 Баланс"
	btnSetBudget  = "🎯 Бюджет"
	btnBudgets    = "📋 Бюджеты"
	btnNewGoal    = "⭐ Цель"
	btnGoals      = "🏆 Цели"
	btnHistory    = "🧾 История"
	btnConvert    = "💱 Конвертер"
	btnRates      = "💱 Курс"
	btnHelp       = "ℹ️ Помощь"
	btnCancel     = "❌ Отмена"
	btnNoDeadline = "⏭ Без срока"
)

func mainKeyboard() [][]string {
	return [][]string{
		{btnAddExpense, btnAddIncome},
		{btnToday, btnWeek},
		{btnMonth, btnBalance},
		{btnSetBudget, btnBudgets},
		{btnNewGoal, btnGoals},
		{btnHistory, btnConvert},
		{btnRates, btnHelp},
	}
}

// choiceKeyboard lays out wizard choices two per row with a trailing
// cancel row.
func choiceKeyboard(choices []string) [][]string {
	var rows [][]string
	var row []string
	for _, choice := range choices {
		row = append(row, choice)
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, []string{btnCancel})
	return rows
}
