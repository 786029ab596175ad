package core

import "CEXDirect/pkg/interfaces"

// Action — побочное действие, которое требует статус
type Action int

const (
	ActionNone Action = iota

	// ActionSendCardToVerification — зашифровать и отправить номер карты
	// и срок действия в сервис верификации
	ActionSendCardToVerification

	// ActionSendCardToProcessing — зашифровать и отправить номер карты
	// и CVV в сервис процессинга
	ActionSendCardToProcessing
)

// Decision — результат чистой функции перехода: что показать и что сделать.
// Исполнение эффектов — отдельно, в контроллере.
type Decision struct {
	Screen   interfaces.Screen
	Terminal interfaces.TerminalKind
	Action   Action

	// UpdateStore — снапшот заказа из события нужно влить в хранилище
	UpdateStore bool

	// Done — поглощающее состояние: дальше переходов не будет,
	// подписку на статусы пора снимать
	Done bool
}

// Decide отображает статус заказа в требуемое локальное действие.
//
// Навигация — чистая функция только текущего статуса, без истории:
// после перезапуска приложения достаточно переподписаться и получить
// текущий статус, чтобы детерминированно восстановить нужный экран.
// Незнакомый статус — no-op: новые серверные статусы не должны ломать
// старые клиенты.
func Decide(status Status) Decision {
	switch status {
	case StatusNew, StatusUncompleted:
		return Decision{Screen: interfaces.ScreenPaymentInfo, UpdateStore: true}

	case StatusVerificationReady, StatusIVSReady:
		return Decision{Action: ActionSendCardToVerification}

	case StatusVerificationRejected, StatusIVSRejected:
		return Decision{Terminal: interfaces.TerminalVerificationRejected, Done: true}

	case StatusVerificationFailed, StatusIVSFailed:
		return Decision{Terminal: interfaces.TerminalServiceDown, Done: true}

	case StatusProcessingAcknowledge, StatusPSSWaitData:
		return Decision{Screen: interfaces.ScreenAdditionalInfo}

	case StatusProcessingReady, StatusPSSReady:
		return Decision{Action: ActionSendCardToProcessing}

	case StatusProcessingRejected, StatusPSSRejected:
		return Decision{Terminal: interfaces.TerminalProcessingRejected, Done: true}

	case StatusProcessingFailed, StatusPSSFailed:
		return Decision{Terminal: interfaces.TerminalServiceDown, Done: true}

	case StatusProcessing3DS, StatusPSS3DSRequired:
		return Decision{Screen: interfaces.ScreenPaymentConfirmation, UpdateStore: true}

	case StatusRefunded:
		return Decision{Terminal: interfaces.TerminalRefunded, Done: true}

	case StatusEmailConfirmation, StatusWaitForConfirmation:
		return Decision{Screen: interfaces.ScreenEmailConfirmation}

	case StatusCompleted:
		return Decision{Screen: interfaces.ScreenPurchaseSuccess, UpdateStore: true}

	case StatusCryptoSent, StatusSettled, StatusFinished:
		// сессия завершена, экран не меняется
		return Decision{UpdateStore: true, Done: true}

	case StatusCrashed:
		return Decision{Terminal: interfaces.TerminalServiceDown, Done: true}

	case StatusRejected:
		return Decision{Terminal: interfaces.TerminalGeneralError, Done: true}

	default:
		return Decision{}
	}
}
