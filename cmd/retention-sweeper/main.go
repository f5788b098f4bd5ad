package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/equipmentchecklist/internal/models"
	"github.com/Lllllllleong/equipmentchecklist/internal/services"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

var (
	sweeperInstance *services.RetentionSweeper
	once            sync.Once
	initErr         error
)

func init() {
	// --- Set up structured logging ---
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel(os.Getenv("LOG_LEVEL"))}))
	slog.SetDefault(logger)

	// Fired by a Cloud Scheduler job through Pub/Sub.
	functions.CloudEvent("SweepOldChecklists", sweepOldChecklists)
}

// logLevel parses LOG_LEVEL, falling back to info.
func logLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// main is required by the Go Functions Framework.
func main() {}

// pubSubMessage is the part of a Pub/Sub CloudEvent payload the sweeper reads.
type pubSubMessage struct {
	Message struct {
		Data []byte `json:"data"`
	} `json:"message"`
}

// sweepOldChecklists deletes expired artifacts. Sweep errors are logged, never returned.
func sweepOldChecklists(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		sweeperInstance, initErr = services.NewRetentionSweeperFromEnv()
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	req, err := decodeSweepRequest(e)
	if err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "eventId", e.ID(), "data", string(e.Data()))
		return err
	}

	report, err := sweeperInstance.Process(ctx, req)
	if err != nil {
		slog.Error("Rejected sweep request", "error", err, "eventId", e.ID())
		return err
	}
	slog.Info("Sweep finished.", "eventId", e.ID(), "deleted", report.Deleted, "failed", report.Failed)
	return nil
}

// decodeSweepRequest reads the optional {"maxAgeDays": n} body of the Pub/Sub message.
// A body published straight to the event, outside a Pub/Sub envelope, is accepted too.
func decodeSweepRequest(e cloudevents.Event) (models.RetentionSweepRequest, error) {
	var req models.RetentionSweepRequest
	if len(e.Data()) == 0 {
		return req, nil
	}
	var msg pubSubMessage
	if err := json.Unmarshal(e.Data(), &msg); err != nil {
		return req, fmt.Errorf("json.Unmarshal: %w", err)
	}
	if len(msg.Message.Data) == 0 {
		var direct map[string]json.RawMessage
		if err := json.Unmarshal(e.Data(), &direct); err != nil {
			return req, fmt.Errorf("json.Unmarshal: %w", err)
		}
		if _, ok := direct["maxAgeDays"]; !ok {
			return req, nil
		}
		slog.Warn("Event data is not a Pub/Sub envelope; reading it as the sweep request.", "eventId", e.ID())
		if err := json.Unmarshal(e.Data(), &req); err != nil {
			return req, fmt.Errorf("json.Unmarshal event data: %w", err)
		}
		return req, nil
	}
	if err := json.Unmarshal(msg.Message.Data, &req); err != nil {
		return req, fmt.Errorf("json.Unmarshal message data: %w", err)
	}
	return req, nil
}
