package models

// These structs define the JSON payloads exchanged with the checklist HTTP functions.

// IdentityPayload carries the identity fields as pointers so that an absent field
// can be told apart from an empty one.
type IdentityPayload struct {
	AssetTag       *string `json:"assetTag"`
	OwnerName      *string `json:"ownerName"`
	Role           *string `json:"role"`
	TechnicianName *string `json:"technicianName"`
}

// GenerateChecklistRequest is the input for the checklist generator function.
type GenerateChecklistRequest struct {
	ChecklistType string          `json:"checklistType"`
	Answers       map[int]string  `json:"answers"`
	Identity      IdentityPayload `json:"identity"`
}

// GenerateChecklistResponse is the output of the checklist generator function.
type GenerateChecklistResponse struct {
	Status       string `json:"status"`
	SubmissionID string `json:"submissionId"`
	Filename     string `json:"filename"`
	LocalPath    string `json:"localPath"`
	Replicated   bool   `json:"replicated"`
	Message      string `json:"message"`
}

// ChecklistSummary is one entry of the catalog listing.
type ChecklistSummary struct {
	Type              string `json:"type"`
	Organization      string `json:"organization"`
	DisplayType       string `json:"displayType"`
	QuestionCount     int    `json:"questionCount"`
	TemplateAvailable bool   `json:"templateAvailable"`
}

// RetentionSweepRequest is the optional data payload of the retention sweeper event.
type RetentionSweepRequest struct {
	MaxAgeDays *int `json:"maxAgeDays"`
}
