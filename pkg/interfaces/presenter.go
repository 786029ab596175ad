package interfaces

// Screen определяет экран, который должен показать слой представления
type Screen string

const (
	ScreenNone                Screen = ""
	ScreenPaymentInfo         Screen = "payment-info"
	ScreenAdditionalInfo      Screen = "additional-info"
	ScreenPaymentConfirmation Screen = "payment-confirmation"
	ScreenEmailConfirmation   Screen = "email-confirmation"
	ScreenPurchaseSuccess     Screen = "purchase-success"
)

// TerminalKind определяет вид терминального экрана. После него машина
// состояний больше не выдает переходов.
type TerminalKind string

const (
	TerminalNone                 TerminalKind = ""
	TerminalServiceDown          TerminalKind = "service-down"
	TerminalGeneralError         TerminalKind = "general-error"
	TerminalVerificationRejected TerminalKind = "verification-rejected"
	TerminalProcessingRejected   TerminalKind = "processing-rejected"
	TerminalLocationUnsupported  TerminalKind = "location-unsupported"

	// TerminalRefunded — информационный экран, не ошибка
	TerminalRefunded TerminalKind = "refunded"
)

// IScreenPresenter определяет узкий интерфейс между ядром и слоем
// представления. Ядро только сообщает какой экран показать, рендеринг
// целиком на стороне клиента SDK.
type IScreenPresenter interface {
	// ShowScreen показывает очередной экран сценария покупки
	ShowScreen(screen Screen)

	// ShowTerminalError показывает терминальный экран
	ShowTerminalError(kind TerminalKind)
}
