package transform

import "fmt"

// Model is a background-removal model offered by the service.
type Model struct {
	ID   string
	Name string
}

// DefaultModel balances speed and quality.
const DefaultModel = "u2net"

// Models is the model catalogue in display order.
var Models = []Model{
	{ID: "u2net", Name: "General Purpose (Balanced)"},
	{ID: "u2net_human_seg", Name: "Human/Portrait (Fast)"},
	{ID: "isnet-general-use", Name: "General Purpose (Fast)"},
	{ID: "silueta", Name: "General Purpose (Fastest)"},
}

// LookupModel finds a model by id.
func LookupModel(id string) (Model, error) {
	for _, m := range Models {
		if m.ID == id {
			return m, nil
		}
	}
	return Model{}, fmt.Errorf("%w: %q", ErrUnknownModel, id)
}
