package models

import "time"

// ChecklistDefinition describes one checklist type from the catalog.
// Values are immutable once the catalog is built.
type ChecklistDefinition struct {
	TypeID            string   `yaml:"type"`
	OrganizationName  string   `yaml:"organization"`
	DisplayType       string   `yaml:"displayType"`
	TemplateReference string   `yaml:"template"`
	Questions         []string `yaml:"questions"`
}

// AnswerSet maps a 1-based question index to the operator's answer.
type AnswerSet map[int]string

// IdentityFields are the four values captured by the initial form step.
type IdentityFields struct {
	AssetTag       string
	OwnerName      string
	Role           string
	TechnicianName string
}

// GeneratedArtifact is the write-once result of one generation.
type GeneratedArtifact struct {
	LocalPath  string
	Filename   string
	Replicated bool
}

// Submission is the provenance record stored in Firestore for every generated artifact.
type Submission struct {
	SubmissionID     string    `firestore:"submissionId,omitempty"`
	ChecklistType    string    `firestore:"checklistType,omitempty"`
	AssetTag         string    `firestore:"assetTag,omitempty"`
	TechnicianName   string    `firestore:"technicianName,omitempty"`
	Filename         string    `firestore:"filename,omitempty"`
	LocalPath        string    `firestore:"localPath,omitempty"`
	Replicated       bool      `firestore:"replicated"`
	ReplicationError string    `firestore:"replicationError,omitempty"`
	CreatedAt        time.Time `firestore:"createdAt,omitempty"`
}
