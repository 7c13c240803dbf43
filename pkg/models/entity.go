package models

// Entity is an encyclopedia entry: a deity, hero, creature, place, item or text.
type Entity struct {
	ID          string            `json:"id" validate:"required,max=128"`
	Type        string            `json:"type" validate:"required"`
	Mythology   string            `json:"mythology" validate:"required"`
	Name        string            `json:"name" validate:"required,max=200"`
	Description string            `json:"description" validate:"max=20000"`
	Aliases     []string          `json:"aliases,omitempty" validate:"dive,max=200"`
	Tags        []string          `json:"tags,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	Source      string            `json:"source,omitempty"`
}

// Mythology describes one mythological tradition.
type Mythology struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Region string `json:"region"`
	Era    string `json:"era"`
}
