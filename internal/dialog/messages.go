package dialog

// User-facing texts. Everything the bot says lives here so handlers and
// tests share one vocabulary.
const (
	msgUnknownCommand = "❓ Неизвестная команда. Отправьте /help, чтобы увидеть список команд."
	msgNoActiveFlow   = "💬 Сейчас нет активной команды. Отправьте /help, чтобы увидеть список команд."
	msgUnavailable    = "⚠️ Сервис временно недоступен. Попробуйте позже."
	msgAdminOnly      = "⛔ Эта команда доступна только администратору."
	msgNeedRegister   = "❌ Вы не зарегистрированы. Отправьте /reg, чтобы зарегистрироваться."

	msgRegistered        = "✅ Регистрация прошла успешно!"
	msgAlreadyRegistered = "❌ Вы уже зарегистрированы!"

	msgOperationAdded = "✅ Операция успешно добавлена!"
	msgNoOperations   = "📭 У вас пока нет операций."
	msgRateFallback   = "⚠️ Сервис курсов недоступен, суммы показаны в рублях.\n\n"

	msgCurrencyAdded    = "✅ Валюта успешно добавлена!"
	msgCurrencyDeleted  = "✅ Валюта успешно удалена!"
	msgCurrencyUpdated  = "✅ Курс валюты успешно обновлен!"
	msgCurrencyTaken    = "❌ Такая валюта уже существует. Введите другое название:"
	msgCurrencyUnknown  = "❌ Такая валюта не найдена. Введите другое название:"
	msgCurrencyGone     = "❌ Такая валюта не найдена."
	msgNoCurrencies     = "📭 Валюты пока не добавлены."
	msgCurrenciesHeader = "💱 Доступные валюты:\n"

	msgGreeting           = "👋 Привет! Я бот для учета личных финансов.\nНачните с регистрации: /reg\n"
	msgGreetingRegistered = "👋 С возвращением!\n"
	msgHelpHeader         = "📋 Доступные команды:\n"
)
