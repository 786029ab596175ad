package core

import (
	"testing"

	"CEXDirect/pkg/interfaces"
)

func TestDecideScreens(t *testing.T) {
	cases := []struct {
		status Status
		screen interfaces.Screen
	}{
		{StatusNew, interfaces.ScreenPaymentInfo},
		{StatusUncompleted, interfaces.ScreenPaymentInfo},
		{StatusProcessingAcknowledge, interfaces.ScreenAdditionalInfo},
		{StatusPSSWaitData, interfaces.ScreenAdditionalInfo},
		{StatusProcessing3DS, interfaces.ScreenPaymentConfirmation},
		{StatusPSS3DSRequired, interfaces.ScreenPaymentConfirmation},
		{StatusEmailConfirmation, interfaces.ScreenEmailConfirmation},
		{StatusWaitForConfirmation, interfaces.ScreenEmailConfirmation},
		{StatusCompleted, interfaces.ScreenPurchaseSuccess},
	}
	for _, tc := range cases {
		d := Decide(tc.status)
		if d.Screen != tc.screen {
			t.Fatalf("статус %q: экран %v, ожидался %v", tc.status, d.Screen, tc.screen)
		}
		if d.Terminal != interfaces.TerminalNone || d.Action != ActionNone {
			t.Fatalf("статус %q: лишние эффекты %+v", tc.status, d)
		}
	}
}

func TestDecideActions(t *testing.T) {
	cases := []struct {
		status Status
		action Action
	}{
		{StatusVerificationReady, ActionSendCardToVerification},
		{StatusIVSReady, ActionSendCardToVerification},
		{StatusProcessingReady, ActionSendCardToProcessing},
		{StatusPSSReady, ActionSendCardToProcessing},
	}
	for _, tc := range cases {
		d := Decide(tc.status)
		if d.Action != tc.action {
			t.Fatalf("статус %q: действие %v, ожидалось %v", tc.status, d.Action, tc.action)
		}
		if d.Screen != interfaces.ScreenNone || d.Done {
			t.Fatalf("статус %q: лишние эффекты %+v", tc.status, d)
		}
	}
}

func TestDecideTerminals(t *testing.T) {
	cases := []struct {
		status   Status
		terminal interfaces.TerminalKind
	}{
		{StatusVerificationRejected, interfaces.TerminalVerificationRejected},
		{StatusIVSRejected, interfaces.TerminalVerificationRejected},
		{StatusVerificationFailed, interfaces.TerminalServiceDown},
		{StatusProcessingRejected, interfaces.TerminalProcessingRejected},
		{StatusPSSRejected, interfaces.TerminalProcessingRejected},
		{StatusProcessingFailed, interfaces.TerminalServiceDown},
		{StatusRefunded, interfaces.TerminalRefunded},
		{StatusCrashed, interfaces.TerminalServiceDown},
		{StatusRejected, interfaces.TerminalGeneralError},
	}
	for _, tc := range cases {
		d := Decide(tc.status)
		if d.Terminal != tc.terminal {
			t.Fatalf("статус %q: терминал %v, ожидался %v", tc.status, d.Terminal, tc.terminal)
		}
		if !d.Done {
			t.Fatalf("терминальный статус %q должен завершать сессию", tc.status)
		}
	}
}

func TestDecideSettledStatusesFinishSilently(t *testing.T) {
	for _, status := range []Status{StatusCryptoSent, StatusSettled, StatusFinished} {
		d := Decide(status)
		if !d.Done || !d.UpdateStore {
			t.Fatalf("статус %q: ожидалось тихое завершение, получено %+v", status, d)
		}
		if d.Screen != interfaces.ScreenNone || d.Terminal != interfaces.TerminalNone {
			t.Fatalf("статус %q не должен менять экран: %+v", status, d)
		}
	}
}

func TestDecideUnknownStatusIsNoop(t *testing.T) {
	d := Decide(Status("brand-new-server-status"))
	if d != (Decision{}) {
		t.Fatalf("незнакомый статус должен быть no-op, получено %+v", d)
	}
}

func TestDecideStatelessness(t *testing.T) {
	// навигация не зависит от истории: повторный вызов дает тот же результат
	first := Decide(StatusProcessing3DS)
	Decide(StatusRejected)
	second := Decide(StatusProcessing3DS)
	if first != second {
		t.Fatalf("переход недетерминирован: %+v != %+v", first, second)
	}
}
