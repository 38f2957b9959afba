package notify

import (
	"log"
	"time"
)

// Event types the core emits.
const (
	EventLoanSubmitted       = "loan_application_submitted"
	EventLoanApproved        = "loan_approved"
	EventLoanAutoApproved    = "loan_auto_approved"
	EventLoanSpecialApproved = "loan_specially_approved"
	EventLoanRejected        = "loan_rejected"
	EventLoanDisbursed       = "loan_disbursed"
)

type Event struct {
	Type    string
	UserID  string
	LoanID  string
	Amount  float64
	Message string
	Meta    map[string]any
}

// Notifier delivers an event to the external notification/messaging
// collaborator. Implementations may block; callers go through Dispatcher.
type Notifier interface {
	Notify(e Event) error
}

// AuditRecord is the detail handed to the external audit-log store.
type AuditRecord struct {
	ActorID    string
	Action     string
	Resource   string
	ResourceID string
	Details    map[string]any
	At         time.Time
}

type AuditSink interface {
	Record(r AuditRecord) error
}

// Dispatcher wraps a Notifier and an AuditSink with the fire-and-forget
// contract: delivery runs off the caller's goroutine and failures are
// logged, never returned. State transitions must not depend on it.
type Dispatcher struct {
	notifier Notifier
	audit    AuditSink
}

func NewDispatcher(n Notifier, a AuditSink) *Dispatcher {
	if n == nil {
		n = LogNotifier{}
	}
	if a == nil {
		a = LogAuditSink{}
	}
	return &Dispatcher{notifier: n, audit: a}
}

func (d *Dispatcher) Notify(e Event) {
	go func() {
		if err := d.notifier.Notify(e); err != nil {
			log.Printf("notify: dropped %s for loan %s: %v", e.Type, e.LoanID, err)
		}
	}()
}

func (d *Dispatcher) Audit(r AuditRecord) {
	if r.At.IsZero() {
		r.At = time.Now().UTC()
	}
	go func() {
		if err := d.audit.Record(r); err != nil {
			log.Printf("notify: audit record dropped (%s %s/%s): %v", r.Action, r.Resource, r.ResourceID, err)
		}
	}()
}

// LogNotifier and LogAuditSink are the default sinks when no external
// collaborator is wired.
type LogNotifier struct{}

func (LogNotifier) Notify(e Event) error {
	log.Printf("event %s user=%s loan=%s amount=%.2f %s", e.Type, e.UserID, e.LoanID, e.Amount, e.Message)
	return nil
}

type LogAuditSink struct{}

func (LogAuditSink) Record(r AuditRecord) error {
	log.Printf("audit %s by=%s %s/%s details=%v", r.Action, r.ActorID, r.Resource, r.ResourceID, r.Details)
	return nil
}
