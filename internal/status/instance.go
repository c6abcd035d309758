package status

import "encoding/json"

// Instance — статус конкретного события истории: вид плюс разрешённый для
// этого события прогресс и произвольные данные перевозчика. Каждое событие
// получает свой экземпляр, каталог при этом не мутируется.
type Instance struct {
	Kind     Kind
	Progress float64
	Data     map[string]any
}

// NewInstance returns an instance seeded with the kind's default progress.
func NewInstance(k Kind) Instance {
	return Instance{Kind: k, Progress: k.DefaultProgress()}
}

// WithProgress returns an instance of the kind with an overridden progress
// value.
func (k Kind) WithProgress(progress float64) Instance {
	return Instance{Kind: k, Progress: progress}
}

type instanceJSON struct {
	Type     string         `json:"type"`
	Progress *float64       `json:"progress,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

func (i Instance) MarshalJSON() ([]byte, error) {
	p := i.Progress
	return json.Marshal(instanceJSON{
		Type:     i.Kind.WireType(),
		Progress: &p,
		Data:     i.Data,
	})
}

func (i *Instance) UnmarshalJSON(b []byte) error {
	var raw instanceJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	i.Kind = FromWire(raw.Type)
	if raw.Progress != nil {
		i.Progress = *raw.Progress
	} else {
		i.Progress = i.Kind.DefaultProgress()
	}
	i.Data = raw.Data
	return nil
}
