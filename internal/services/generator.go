package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/equipmentchecklist/internal/catalog"
	"github.com/Lllllllleong/equipmentchecklist/internal/gcp"
	"github.com/Lllllllleong/equipmentchecklist/internal/models"
	"github.com/google/uuid"
)

// GeneratorConfig holds all configuration for the checklist generator service.
type GeneratorConfig struct {
	OutputDir          string
	TemplatesDir       string
	SharedNetworkPath  string
	DefaultValidator   string
	CatalogFile        string
	SharedBucket       string
	SharedBucketPrefix string
	ProjectID          string
	CollectionName     string
	ReplicationTimeout time.Duration
}

// SubmissionRecorder persists the provenance record of a generated checklist.
type SubmissionRecorder interface {
	Record(ctx context.Context, sub models.Submission) error
}

// GenerateResult is what one pipeline run produced.
type GenerateResult struct {
	SubmissionID string
	Artifact     models.GeneratedArtifact
	Replication  ReplicationResult
}

// GeneratorFunction holds the dependencies of the generation pipeline.
type GeneratorFunction struct {
	catalog    *catalog.Catalog
	filler     *DocumentFiller
	replicator *Replicator
	recorder   SubmissionRecorder
	newID      func() string
	now        func() time.Time
}

// loadGeneratorConfig loads and validates all necessary environment variables for this service.
func loadGeneratorConfig() (*GeneratorConfig, error) {
	required, err := gcp.RequireEnv("OUTPUT_DIR", "TEMPLATES_DIR", "SHARED_NETWORK_PATH", "DEFAULT_VALIDATOR", "CATALOG_FILE")
	if err != nil {
		return nil, err
	}
	timeout, err := gcp.GetEnvDuration("REPLICATION_TIMEOUT", DefaultReplicationTimeout)
	if err != nil {
		return nil, err
	}

	return &GeneratorConfig{
		OutputDir:          required["OUTPUT_DIR"],
		TemplatesDir:       required["TEMPLATES_DIR"],
		SharedNetworkPath:  required["SHARED_NETWORK_PATH"],
		DefaultValidator:   required["DEFAULT_VALIDATOR"],
		CatalogFile:        required["CATALOG_FILE"],
		SharedBucket:       gcp.GetEnv("SHARED_BUCKET", ""),
		SharedBucketPrefix: gcp.GetEnv("SHARED_BUCKET_PREFIX", ""),
		ProjectID:          gcp.GetEnv("PROJECT_ID", ""),
		CollectionName:     gcp.GetEnv("FIRESTORE_COLLECTION", gcp.DefaultSubmissionsCollection),
		ReplicationTimeout: timeout,
	}, nil
}

// NewGenerator creates a GeneratorFunction from the environment. The shared bucket
// and Firestore recording are enabled only when configured.
func NewGenerator(ctx context.Context) (*GeneratorFunction, error) {
	config, err := loadGeneratorConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	cat, err := catalog.Load(config.CatalogFile)
	if err != nil {
		return nil, err
	}

	filler, err := NewDocumentFiller(cat, FillerConfig{
		TemplatesDir:     config.TemplatesDir,
		OutputDir:        config.OutputDir,
		DefaultValidator: config.DefaultValidator,
	})
	if err != nil {
		return nil, err
	}

	targets := []Target{DirectoryTarget{Dir: config.SharedNetworkPath}}
	if config.SharedBucket != "" {
		storageClient, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		targets = append(targets, gcp.NewBucketTarget(storageClient, config.SharedBucket, config.SharedBucketPrefix))
	}

	var recorder SubmissionRecorder
	if config.ProjectID != "" {
		firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
		if err != nil {
			return nil, err
		}
		recorder = gcp.NewFirestoreRecorder(firestoreClient, config.CollectionName)
	}

	g := NewGeneratorWith(cat, filler, NewReplicator(config.ReplicationTimeout, targets...), recorder)
	slog.Info("Checklist generator initialized.",
		"checklists", cat.Len(),
		"outputDir", config.OutputDir,
		"replicationTargets", len(targets),
		"recording", recorder != nil,
	)
	return g, nil
}

// NewGeneratorWith assembles a GeneratorFunction from explicit parts. recorder may be nil.
func NewGeneratorWith(cat *catalog.Catalog, filler *DocumentFiller, replicator *Replicator, recorder SubmissionRecorder) *GeneratorFunction {
	return &GeneratorFunction{
		catalog:    cat,
		filler:     filler,
		replicator: replicator,
		recorder:   recorder,
		newID:      uuid.NewString,
		now:        time.Now,
	}
}

// Generate fills the checklist, saves it locally and replicates it. Unknown types,
// missing templates and local write failures abort before any replication.
// A replication failure only leaves Artifact.Replicated false.
func (g *GeneratorFunction) Generate(ctx context.Context, checklistType string, answers models.AnswerSet, id models.IdentityFields) (*GenerateResult, error) {
	submissionID := g.newID()
	logCtx := slog.With("checklistType", checklistType, "submissionId", submissionID)
	logCtx.Info("Starting checklist generation.", "assetTag", id.AssetTag)

	artifact, err := g.filler.Fill(ctx, checklistType, answers, id)
	if err != nil {
		logCtx.Error("Checklist generation failed", "error", err)
		return nil, err
	}
	logCtx = logCtx.With("filename", artifact.Filename)

	replication := g.replicator.Replicate(ctx, artifact.LocalPath, artifact.Filename)
	artifact.Replicated = replication.Replicated
	if !replication.Replicated {
		logCtx.Warn("Checklist saved locally but not synced to shared storage.", "error", replication.Err)
	}

	g.record(ctx, logCtx, submissionID, checklistType, id, *artifact, replication)

	logCtx.Info("Checklist generation complete.", "replicated", artifact.Replicated)
	return &GenerateResult{SubmissionID: submissionID, Artifact: *artifact, Replication: replication}, nil
}

func (g *GeneratorFunction) record(ctx context.Context, logCtx *slog.Logger, submissionID, checklistType string, id models.IdentityFields, artifact models.GeneratedArtifact, replication ReplicationResult) {
	if g.recorder == nil {
		return
	}
	sub := models.Submission{
		SubmissionID:   submissionID,
		ChecklistType:  checklistType,
		AssetTag:       id.AssetTag,
		TechnicianName: id.TechnicianName,
		Filename:       artifact.Filename,
		LocalPath:      artifact.LocalPath,
		Replicated:     artifact.Replicated,
		CreatedAt:      g.now(),
	}
	if replication.Err != nil {
		sub.ReplicationError = replication.Err.Error()
	}
	if err := g.recorder.Record(ctx, sub); err != nil {
		logCtx.Error("Failed to record submission", "error", err)
	}
}

// Process validates an HTTP request and runs the pipeline for it.
func (g *GeneratorFunction) Process(ctx context.Context, req *models.GenerateChecklistRequest) (*models.GenerateChecklistResponse, error) {
	id, err := ValidateIdentity(req.Identity)
	if err != nil {
		slog.Warn("Rejected submission with incomplete session data", "checklistType", req.ChecklistType, "error", err)
		return nil, err
	}
	def, ok := g.catalog.Get(req.ChecklistType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownChecklistType, req.ChecklistType)
	}

	res, err := g.Generate(ctx, req.ChecklistType, CollectAnswers(def, req.Answers), id)
	if err != nil {
		return nil, err
	}

	message := "Checklist saved and copied to shared storage."
	if !res.Artifact.Replicated {
		message = "Checklist saved locally but not synced to shared storage."
	}
	return &models.GenerateChecklistResponse{
		Status:       "success",
		SubmissionID: res.SubmissionID,
		Filename:     res.Artifact.Filename,
		LocalPath:    res.Artifact.LocalPath,
		Replicated:   res.Artifact.Replicated,
		Message:      message,
	}, nil
}

// ListChecklists returns the catalog with template availability.
func (g *GeneratorFunction) ListChecklists() []models.ChecklistSummary {
	defs := g.catalog.All()
	out := make([]models.ChecklistSummary, 0, len(defs))
	for _, def := range defs {
		out = append(out, models.ChecklistSummary{
			Type:              def.TypeID,
			Organization:      def.OrganizationName,
			DisplayType:       def.DisplayType,
			QuestionCount:     len(def.Questions),
			TemplateAvailable: g.filler.TemplateExists(def.TypeID),
		})
	}
	return out
}
