package gcp

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/equipmentchecklist/internal/models"
)

// DefaultSubmissionsCollection is where submission records are written when no
// collection is configured.
const DefaultSubmissionsCollection = "checklist_submissions"

// NewFirestoreClient creates and returns a new Firestore client for the given project ID.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return client, nil
}

// FirestoreRecorder stores one document per submission, keyed by submission ID.
type FirestoreRecorder struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreRecorder creates a recorder writing into collection.
func NewFirestoreRecorder(client *firestore.Client, collection string) *FirestoreRecorder {
	if collection == "" {
		collection = DefaultSubmissionsCollection
	}
	return &FirestoreRecorder{client: client, collection: collection}
}

// Record writes sub. A second write with the same ID replaces the first.
func (r *FirestoreRecorder) Record(ctx context.Context, sub models.Submission) error {
	if sub.SubmissionID == "" {
		return fmt.Errorf("submission ID must not be empty")
	}
	if _, err := r.client.Collection(r.collection).Doc(sub.SubmissionID).Set(ctx, sub); err != nil {
		return fmt.Errorf("failed to record submission %s: %w", sub.SubmissionID, err)
	}
	return nil
}

// Close releases the underlying client.
func (r *FirestoreRecorder) Close() error {
	return r.client.Close()
}
