package chat

import (
	"fmt"
	"time"
)

// Curated refusal reasons. These are the only strings surfaced to users;
// storage errors never leak into them.
const (
	ReasonExpired       = "Chat expirado"
	ReasonQuotaExceeded = "Limite de mensagens atingido. Faça um pagamento para continuar."
	ReasonAccessDenied  = "Acesso negado a este chat"
)

// Decision is the outcome of a send-eligibility check.
type Decision struct {
	Allowed bool
	Reason  string
	// PaymentRequired distinguishes a quota refusal from a status refusal,
	// so callers can surface the payment path.
	PaymentRequired bool
}

func allow() Decision { return Decision{Allowed: true} }

func refuse(reason string) Decision { return Decision{Reason: reason} }

// CanAccess reports whether userID is a participant of the chat. Callers
// decide whether a false result surfaces as not-found or forbidden.
func CanAccess(c *Chat, userID uint64) bool {
	return c.RoleOf(userID) != RoleNone
}

// CanSend decides whether userID may append a text message at instant now.
// Pure logic, no side effects. Check order matters:
//
//  1. non-active status refuses with the status label;
//  2. expiry refuses even when the stored status has not been flipped yet,
//     so the lazy-expiry path and this check always agree;
//  3. the model is never quota-limited;
//  4. an unpaid client is limited to freeLimit messages;
//  5. non-participants are refused (defensive; CanAccess runs first).
func CanSend(c *Chat, userID uint64, freeLimit int, now time.Time) Decision {
	if c.Status != StatusActive {
		if c.Status == StatusExpired {
			return refuse(ReasonExpired)
		}
		return refuse(fmt.Sprintf("Chat %s", c.Status))
	}

	if now.After(c.ExpiresAt) {
		return refuse(ReasonExpired)
	}

	switch c.RoleOf(userID) {
	case RoleModel:
		return allow()
	case RoleClient:
		if !c.IsPaid && c.ClientMessageCount >= int64(freeLimit) {
			return Decision{Reason: ReasonQuotaExceeded, PaymentRequired: true}
		}
		return allow()
	default:
		return refuse(ReasonAccessDenied)
	}
}
