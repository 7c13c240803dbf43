package entities

// FormField describes one attribute a submission form collects.
type FormField struct {
	Name     string
	Label    string
	Required bool
	MaxLen   int
}

// formConfig lists type-specific attributes. Name, mythology and
// description are common to every type and validated separately.
var formConfig = map[string][]FormField{
	"deity": {
		{Name: "domain", Label: "Domains", Required: true, MaxLen: 500},
		{Name: "symbols", Label: "Symbols", MaxLen: 500},
		{Name: "parents", Label: "Parents", MaxLen: 300},
		{Name: "consort", Label: "Consort", MaxLen: 300},
	},
	"hero": {
		{Name: "deeds", Label: "Notable deeds", Required: true, MaxLen: 2000},
		{Name: "weapon", Label: "Weapon", MaxLen: 200},
		{Name: "patron", Label: "Patron deity", MaxLen: 200},
	},
	"creature": {
		{Name: "appearance", Label: "Appearance", Required: true, MaxLen: 2000},
		{Name: "habitat", Label: "Habitat", MaxLen: 300},
		{Name: "weakness", Label: "Weakness", MaxLen: 300},
	},
	"place": {
		{Name: "realm", Label: "Realm", Required: true, MaxLen: 200},
		{Name: "ruler", Label: "Ruler", MaxLen: 200},
	},
	"item": {
		{Name: "owner", Label: "Owner", Required: true, MaxLen: 200},
		{Name: "powers", Label: "Powers", MaxLen: 1000},
		{Name: "creator", Label: "Creator", MaxLen: 200},
	},
	"text": {
		{Name: "author", Label: "Author or tradition", MaxLen: 200},
		{Name: "date", Label: "Date of composition", Required: true, MaxLen: 100},
	},
}

// FormFor returns the form fields for an entity type.
func FormFor(entityType string) []FormField {
	return formConfig[entityType]
}
