package status

// Importance — уровень важности статуса для отображения и алертов.
type Importance int

const (
	Ignored Importance = iota
	Regular
	Important
	Urgent
)

// Kind — один из фиксированного набора видов статусов посылки.
// Каталог неизменяемый: всё изменяемое состояние (прогресс, данные
// перевозчика) живёт в Instance, отдельном на каждое событие истории.
type Kind int

const (
	Created Kind = iota
	Posted
	InTransit
	CustomsCleared
	DeliveryAttempt
	WaitingPickup
	Delivering
	Delivered
	Issue
)

type descriptor struct {
	wire       string
	progress   float64
	label      string
	importance Importance
}

var table = [...]descriptor{
	Created:         {"created", 0.10, "Tracking code created", Important},
	Posted:          {"posted", 0.20, "Item posted", Important},
	InTransit:       {"in-transit", 0.35, "In transit", Regular},
	CustomsCleared:  {"customs-cleared", 0.50, "Cleared customs", Important},
	DeliveryAttempt: {"delivery-attempt", 0.80, "Attempted delivery", Important},
	WaitingPickup:   {"pickup", 0.90, "Waiting for pickup", Important},
	Delivering:      {"delivering", 0.90, "Delivery in progress", Important},
	Delivered:       {"delivered", 1.00, "Delivered", Important},
	Issue:           {"issue", 0.50, "Problem occurred", Urgent},
}

var byWire = func() map[string]Kind {
	m := make(map[string]Kind, len(table))
	for k, d := range table {
		m[d.wire] = Kind(k)
	}
	return m
}()

// FromWire resolves a carrier status type string to a Kind. Carriers keep
// introducing undocumented type strings, so an unknown value falls back to
// InTransit instead of failing.
func FromWire(wire string) Kind {
	if k, ok := byWire[wire]; ok {
		return k
	}
	return InTransit
}

func (k Kind) valid() bool { return k >= 0 && int(k) < len(table) }

// WireType returns the stable string identifier used in carrier payloads.
func (k Kind) WireType() string {
	if !k.valid() {
		return table[InTransit].wire
	}
	return table[k].wire
}

// DefaultProgress returns the canonical progress value for the kind, in [0, 1].
func (k Kind) DefaultProgress() float64 {
	if !k.valid() {
		return table[InTransit].progress
	}
	return table[k].progress
}

func (k Kind) Label() string {
	if !k.valid() {
		return table[InTransit].label
	}
	return table[k].label
}

func (k Kind) Importance() Importance {
	if !k.valid() {
		return table[InTransit].importance
	}
	return table[k].importance
}

func (k Kind) String() string { return k.Label() }
