package flow

import (
	"strconv"

	"finbot/internal/model"
	"finbot/internal/validate"
)

// Session field keys.
const (
	FieldName          = "name"
	FieldType          = "type"
	FieldAmount        = "amount"
	FieldDate          = "date"
	FieldSortColumn    = "sort_column"
	FieldSortDirection = "sort_direction"
	FieldCurrency      = "currency"
	FieldAction        = "action"
	FieldRate          = "rate"
)

const maxNameLen = 100

func parseName(raw string) (string, error) {
	return validate.Name(raw, maxNameLen)
}

func parseAmount(raw string) (string, error) {
	v, err := validate.Amount(raw)
	if err != nil {
		return "", err
	}
	return strconv.FormatFloat(v, 'f', -1, 64), nil
}

func parseDate(raw string) (string, error) {
	d, err := validate.Date(raw)
	if err != nil {
		return "", err
	}
	return d.Format(model.DateLayout), nil
}

func parseCurrencyCode(raw string) (string, error) {
	return validate.CurrencyCode(raw)
}

var definitions = map[ID]Definition{
	Registration: {
		ID:          Registration,
		Command:     "/reg",
		Description: "Регистрация",
		Steps: []Step{
			{
				Field:  FieldName,
				Prompt: "📝 Введите ваш логин для регистрации:",
				Retry:  "❌ Логин не может быть пустым или длиннее 100 символов. Попробуйте еще раз:",
				Parse:  parseName,
			},
		},
	},
	AddOperation: {
		ID:           AddOperation,
		Command:      "/add_operation",
		Description:  "Добавить операцию",
		RequiresUser: true,
		Steps: []Step{
			{
				Field:  FieldType,
				Prompt: "📊 Выберите тип операции:",
				Retry:  "❌ Пожалуйста, выберите тип операции кнопкой:",
				Choices: []Choice{
					{Label: "ДОХОД", Value: "INCOME"},
					{Label: "РАСХОД", Value: "EXPENSE"},
				},
			},
			{
				Field:  FieldAmount,
				Prompt: "💵 Введите сумму операции в рублях:",
				Retry:  "❌ Неверный формат суммы. Введите число больше нуля:",
				Parse:  parseAmount,
			},
			{
				Field:  FieldDate,
				Prompt: "📅 Введите дату операции в формате ДД.ММ.ГГГГ (например, 01.01.2025):",
				Retry:  "❌ Неверный формат даты. Введите в формате ДД.ММ.ГГГГ:",
				Parse:  parseDate,
			},
		},
	},
	ListOperations: {
		ID:           ListOperations,
		Command:      "/operations",
		Description:  "Просмотр операций с сортировкой",
		RequiresUser: true,
		Steps: []Step{
			{
				Field:  FieldSortColumn,
				Prompt: "📊 Выберите колонку для сортировки:",
				Retry:  "❌ Пожалуйста, выберите колонку для сортировки кнопкой:",
				Choices: []Choice{
					{Label: "ДАТА", Value: "date"},
					{Label: "СУММА", Value: "amount"},
					{Label: "ТИП ОПЕРАЦИИ", Value: "type"},
				},
			},
			{
				Field:  FieldSortDirection,
				Prompt: "🔻 Выберите направление сортировки:",
				Retry:  "❌ Пожалуйста, выберите направление сортировки кнопкой:",
				Choices: []Choice{
					{Label: "ПО ВОЗРАСТАНИЮ", Value: "asc"},
					{Label: "ПО УБЫВАНИЮ", Value: "desc"},
				},
			},
			{
				Field:  FieldCurrency,
				Prompt: "💱 Выберите валюту для отображения:",
				Retry:  "❌ Пожалуйста, выберите валюту кнопкой:",
				Choices: []Choice{
					{Label: "RUB", Value: "RUB"},
					{Label: "EUR", Value: "EUR"},
					{Label: "USD", Value: "USD"},
				},
			},
		},
	},
	ManageCurrency: {
		ID:          ManageCurrency,
		Command:     "/manage_currency",
		Description: "Управление валютами",
		AdminOnly:   true,
		Steps: []Step{
			{
				Field:  FieldAction,
				Prompt: "Выберите действие:",
				Retry:  "❌ Пожалуйста, выберите действие кнопкой:",
				Choices: []Choice{
					{Label: "Добавить валюту", Value: "add"},
					{Label: "Удалить валюту", Value: "delete"},
					{Label: "Изменить курс валюты", Value: "update"},
				},
				Branches: map[string]ID{
					"add":    CurrencyAdd,
					"delete": CurrencyDelete,
					"update": CurrencyUpdate,
				},
			},
		},
	},
	CurrencyAdd: {
		ID:        CurrencyAdd,
		AdminOnly: true,
		Steps: []Step{
			{
				Field:  FieldCurrency,
				Prompt: "Введите название валюты:",
				Retry:  "❌ Название валюты — от 2 до 5 латинских букв. Введите снова:",
				Parse:  parseCurrencyCode,
				Gate:   GateCurrencyAbsent,
			},
			{
				Field:  FieldRate,
				Prompt: "Введите курс валюты к рублю:",
				Retry:  "❌ Неверный формат курса. Введите число больше нуля:",
				Parse:  parseAmount,
			},
		},
	},
	CurrencyDelete: {
		ID:        CurrencyDelete,
		AdminOnly: true,
		Steps: []Step{
			{
				Field:  FieldCurrency,
				Prompt: "Введите название валюты для удаления:",
				Retry:  "❌ Название валюты — от 2 до 5 латинских букв. Введите снова:",
				Parse:  parseCurrencyCode,
				Gate:   GateCurrencyExists,
			},
		},
	},
	CurrencyUpdate: {
		ID:        CurrencyUpdate,
		AdminOnly: true,
		Steps: []Step{
			{
				Field:  FieldCurrency,
				Prompt: "Введите название валюты:",
				Retry:  "❌ Название валюты — от 2 до 5 латинских букв. Введите снова:",
				Parse:  parseCurrencyCode,
				Gate:   GateCurrencyExists,
			},
			{
				Field:  FieldRate,
				Prompt: "Введите новый курс валюты к рублю:",
				Retry:  "❌ Неверный формат курса. Введите число больше нуля:",
				Parse:  parseAmount,
			},
		},
	},
	Convert: {
		ID:          Convert,
		Command:     "/convert",
		Description: "Конвертация валюты",
		Steps: []Step{
			{
				Field:  FieldCurrency,
				Prompt: "Введите название валюты:",
				Retry:  "❌ Название валюты — от 2 до 5 латинских букв. Введите снова:",
				Parse:  parseCurrencyCode,
				Gate:   GateCurrencyExists,
			},
			{
				Field:  FieldAmount,
				Prompt: "Введите сумму для конвертации:",
				Retry:  "❌ Неверный формат суммы. Введите число больше нуля:",
				Parse:  parseAmount,
			},
		},
	},
}

// Lookup returns the definition for an ID.
func Lookup(id ID) (Definition, bool) {
	d, ok := definitions[id]
	return d, ok
}

// ByCommand resolves a top-level command ("/reg") to its flow.
func ByCommand(command string) (Definition, bool) {
	for _, d := range definitions {
		if d.Command != "" && d.Command == command {
			return d, true
		}
	}
	return Definition{}, false
}

// Commands lists the flows that are started by a command, for menu
// registration. Order is fixed.
func Commands() []Definition {
	order := []ID{Registration, AddOperation, ListOperations, ManageCurrency, Convert}
	out := make([]Definition, 0, len(order))
	for _, id := range order {
		out = append(out, definitions[id])
	}
	return out
}
