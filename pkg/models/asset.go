package models

// AssetStatus is the review state of a user submission.
type AssetStatus string

const (
	AssetPending  AssetStatus = "pending"
	AssetApproved AssetStatus = "approved"
	AssetRejected AssetStatus = "rejected"
)

// Asset is a user-submitted entity awaiting or past review.
type Asset struct {
	ID          string            `json:"id"`
	OwnerID     string            `json:"ownerId"`
	Type        string            `json:"type"`
	Mythology   string            `json:"mythology"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Fields      map[string]string `json:"fields,omitempty"`
	Tags        []string          `json:"tags,omitempty"`
	Status      AssetStatus       `json:"status"`
	ReviewedBy  string            `json:"reviewedBy,omitempty"`
	CreatedAt   int64             `json:"createdAt"`
	UpdatedAt   int64             `json:"updatedAt"`
}

// Entity converts an approved asset to a published entity.
func (a Asset) Entity() Entity {
	return Entity{
		ID:          a.ID,
		Type:        a.Type,
		Mythology:   a.Mythology,
		Name:        a.Name,
		Description: a.Description,
		Attributes:  a.Fields,
		Tags:        a.Tags,
		Source:      "user:" + a.OwnerID,
	}
}
