package types

import "fmt"

// TxHandle is the hash the chain returns when a transaction is dispatched.
type TxHandle string

// Receipt identifies an emitted event by the runtime module and event name.
type Receipt struct {
	Module string
	Event  string
}

// EventRecord is one event emitted while processing a transaction.
type EventRecord struct {
	Receipt    Receipt
	Attributes map[string]string
}

// Attribute returns the named attribute and whether it was present.
func (e EventRecord) Attribute(key string) (string, bool) {
	v, ok := e.Attributes[key]
	return v, ok
}

// ConfirmationSpec is the (module, event) pair that marks a transaction kind as successful.
type ConfirmationSpec struct {
	Module string
	Event  string
}

// Success signals for the supported transaction kinds.
var (
	PlainTxSpec    = ConfirmationSpec{Module: "System", Event: "ExtrinsicSuccess"}
	BatchTxSpec    = ConfirmationSpec{Module: "Utility", Event: "BatchCompleted"}
	ClearingTxSpec = ConfirmationSpec{Module: "AddressPools", Event: "CTProcessingCompleted"}
)

// Matches reports whether the event carries this spec's receipt.
func (s ConfirmationSpec) Matches(ev EventRecord) bool {
	return ev.Receipt.Module == s.Module && ev.Receipt.Event == s.Event
}

func (s ConfirmationSpec) String() string {
	return fmt.Sprintf("%s.%s", s.Module, s.Event)
}

// FindEvent returns the first event in events matching spec.
func FindEvent(events []EventRecord, spec ConfirmationSpec) (EventRecord, bool) {
	for _, ev := range events {
		if spec.Matches(ev) {
			return ev, true
		}
	}
	return EventRecord{}, false
}
