package formschema

import "github.com/google/uuid"

// budgetOptions are offered by the seeded budget_range select.
var budgetOptions = []string{"$500–$1,000", "$1,000–$2,000", "$2,000–$3,000", "$3,000+"}

// DefaultFields returns the seven fields every new profile starts with.
func DefaultFields(profileID uuid.UUID) []Field {
	seed := []Field{
		{Label: "Full name", Key: "full_name", Type: TypeText, Required: true},
		{Label: "Phone", Key: "phone", Type: TypePhone},
		{Label: "Email", Key: "email", Type: TypeEmail},
		{Label: "Event date", Key: "event_date", Type: TypeDate},
		{Label: "Event location", Key: "event_location", Type: TypeText},
		{Label: "Budget range", Key: "budget_range", Type: TypeSelect, Options: budgetOptions},
		{Label: "Message", Key: "message", Type: TypeTextarea},
	}

	for i := range seed {
		seed[i].ID = uuid.New()
		seed[i].ProfileID = profileID
		seed[i].OrderIndex = (i + 1) * 10
		seed[i].Options = normalizeOptions(seed[i].Type, seed[i].Options)
	}
	return seed
}

// FallbackDescriptors is shown when a profile has no custom fields. It is
// display-only and never persisted.
func FallbackDescriptors() []Descriptor {
	return []Descriptor{
		{Key: "full_name", Label: "Full name", Type: TypeText, InputType: TypeText.InputType(), Required: true, Options: []string{}},
		{Key: "phone", Label: "Phone", Type: TypePhone, InputType: TypePhone.InputType(), Options: []string{}},
		{Key: "email", Label: "Email", Type: TypeEmail, InputType: TypeEmail.InputType(), Options: []string{}},
		{Key: "event_date", Label: "Event date", Type: TypeDate, InputType: TypeDate.InputType(), Options: []string{}},
	}
}
