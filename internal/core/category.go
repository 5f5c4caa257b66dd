package core

// Category is one entry of a fixed enumeration, shown to the user as
// "{symbol} {label}".
type Category struct {
	Symbol string
	Label  string
}

func (c Category) String() string {
	return c.Symbol + " " + c.Label
}

// CategorySet is the fixed enumeration for one record kind. Category input
// is validated by exact string match against the rendered entries; free
// text is rejected, never fuzzy-matched.
type CategorySet struct {
	kind  RecordKind
	items []Category
}

func (s CategorySet) Kind() RecordKind { return s.kind }

// Labels returns the rendered "{symbol} {label}" strings in declaration
// order, ready to be used both as keyboard buttons and as the validation
// set.
func (s CategorySet) Labels() []string {
	labels := make([]string, len(s.items))
	for i, c := range s.items {
		labels[i] = c.String()
	}
	return labels
}

func (s CategorySet) Contains(label string) bool {
	for _, c := range s.items {
		if c.String() == label {
			return true
		}
	}
	return false
}

var ExpenseCategories = CategorySet{
	kind: KindExpense,
	items: []Category{
		{"🍽️", "Рестораны и кафе"},
		{"🛒", "Продукты"},
		{"🚕", "Такси"},
		{"🎉", "Развлечения"},
		{"📱", "Подписки"},
		{"🛍️", "Покупки"},
		{"🚗", "Автомобиль"},
		{"🏠", "Коммунальные"},
		{"💊", "Здоровье"},
		{"💰", "Другое"},
	},
}

var IncomeCategories = CategorySet{
	kind: KindIncome,
	items: []Category{
		{"💼", "Зарплата"},
		{"🎨", "Фриланс"},
		{"💸", "Крипта"},
		{"🏠", "Аренда/Гараж"},
		{"🎁", "Возврат долга"},
		{"📊", "Инвестиции"},
		{"💰", "Другое"},
	},
}

// CategoriesFor returns the enumeration matching the record kind.
func CategoriesFor(kind RecordKind) CategorySet {
	if kind == KindIncome {
		return IncomeCategories
	}
	return ExpenseCategories
}
