package services

import "errors"

// Failures of a checklist submission. Callers match them with errors.Is.
var (
	ErrUnknownChecklistType = errors.New("unknown checklist type")
	ErrTemplateNotFound     = errors.New("template not found")
	ErrFilesystemWrite      = errors.New("failed to write artifact")
	ErrReplication          = errors.New("replication failed")
	ErrIncompleteSession    = errors.New("incomplete session data")
)
