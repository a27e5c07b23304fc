package domain

// CrisisResourceType categorizes a crisis resource for display.
type CrisisResourceType string

const (
	CrisisResourceCrisis    CrisisResourceType = "crisis"
	CrisisResourceSupport   CrisisResourceType = "support"
	CrisisResourceEmergency CrisisResourceType = "emergency"
)

// CrisisResource is a hotline or service shown to users in distress.
type CrisisResource struct {
	Name        string             `json:"name"`
	Phone       string             `json:"phone,omitempty"`
	Text        string             `json:"text,omitempty"`
	Description string             `json:"description"`
	Type        CrisisResourceType `json:"type"`
}

// CrisisResources returns the static list served to clients.
func CrisisResources() []CrisisResource {
	return []CrisisResource{
		{
			Name:        "National Suicide Prevention Lifeline",
			Phone:       "988",
			Description: "24/7 free and confidential support",
			Type:        CrisisResourceCrisis,
		},
		{
			Name:        "Crisis Text Line",
			Text:        "741741",
			Description: "Text HOME to 741741",
			Type:        CrisisResourceCrisis,
		},
		{
			Name:        "SAMHSA National Helpline",
			Phone:       "1-800-662-4357",
			Description: "Substance abuse and mental health services",
			Type:        CrisisResourceSupport,
		},
		{
			Name:        "Emergency Services",
			Phone:       "911",
			Description: "For immediate life-threatening emergencies",
			Type:        CrisisResourceEmergency,
		},
	}
}
