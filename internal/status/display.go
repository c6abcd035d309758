package status

// Display — дескриптор отображения статуса для клиентов API (иконка и
// оттенок карточки). Простая таблица, без логики на стороне каталога.
type Display struct {
	Icon string `json:"icon"`
	// Hue карточки в градусах, -1 означает нейтральную тему.
	Hue int `json:"hue"`
}

var displays = [...]Display{
	Created:         {Icon: "deployed_code_update", Hue: 50},
	Posted:          {Icon: "local_post_office", Hue: 50},
	InTransit:       {Icon: "local_shipping", Hue: -1},
	CustomsCleared:  {Icon: "local_police", Hue: 220},
	DeliveryAttempt: {Icon: "deployed_code_alert", Hue: 0},
	WaitingPickup:   {Icon: "pallet", Hue: 185},
	Delivering:      {Icon: "deployed_code_account", Hue: 65},
	Delivered:       {Icon: "package", Hue: 110},
	Issue:           {Icon: "warning", Hue: 335},
}

func (k Kind) Display() Display {
	if !k.valid() {
		return displays[InTransit]
	}
	return displays[k]
}
