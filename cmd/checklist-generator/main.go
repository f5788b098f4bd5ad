package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/equipmentchecklist/internal/models"
	"github.com/Lllllllleong/equipmentchecklist/internal/services"
)

var (
	generatorInstance *services.GeneratorFunction
	once              sync.Once
	initErr           error
)

func init() {
	// --- Set up structured logging ---
	var level slog.Level
	if err := level.UnmarshalText([]byte(os.Getenv("LOG_LEVEL"))); err != nil {
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	functions.HTTP("HandleGenerateChecklist", handleGenerateChecklist)
	functions.HTTP("HandleListChecklists", handleListChecklists)
}

// main is required by the Go Functions Framework.
func main() {}

func instance() (*services.GeneratorFunction, error) {
	once.Do(func() {
		generatorInstance, initErr = services.NewGenerator(context.Background())
	})
	return generatorInstance, initErr
}

// handleGenerateChecklist fills, stores and replicates one submitted checklist.
func handleGenerateChecklist(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	generator, err := instance()
	if err != nil {
		slog.Error("Critical: Generator initialization failed", "error", err)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}

	var req models.GenerateChecklistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Could not decode request body", "error", err)
		http.Error(w, "Bad Request: could not parse JSON", http.StatusBadRequest)
		return
	}

	res, err := generator.Process(r.Context(), &req)
	if err != nil {
		// The error is already logged with context within the Process method.
		switch {
		case errors.Is(err, services.ErrIncompleteSession):
			http.Error(w, "Bad Request: complete the initial data form first", http.StatusBadRequest)
		case errors.Is(err, services.ErrUnknownChecklistType):
			http.Error(w, "Not Found: unknown checklist type", http.StatusNotFound)
		default:
			http.Error(w, "Internal Server Error: processing failed", http.StatusInternalServerError)
		}
		return
	}

	writeJSON(w, res, "checklistType", req.ChecklistType, "submissionId", res.SubmissionID)
}

// handleListChecklists returns the catalog.
func handleListChecklists(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}
	generator, err := instance()
	if err != nil {
		slog.Error("Critical: Generator initialization failed", "error", err)
		http.Error(w, "Internal Server Error: failed to initialize service", http.StatusInternalServerError)
		return
	}
	writeJSON(w, generator.ListChecklists())
}

func writeJSON(w http.ResponseWriter, v any, logAttrs ...any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to write response", append([]any{"error", err}, logAttrs...)...)
		http.Error(w, "Internal Server Error: failed to encode response", http.StatusInternalServerError)
	}
}
