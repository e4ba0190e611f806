package main

import (
	"context"
	"log/slog"

	"github.com/letmevibethatforyou/searchbox"
	"github.com/letmevibethatforyou/searchbox/algolia"
	"github.com/letmevibethatforyou/searchbox/internal/ddb"
)

// Indexer writes documents to a hosted index. *algolia.Client implements it.
type Indexer interface {
	SaveDocuments(ctx context.Context, indexName string, objects []algolia.Object) error
	DeleteDocuments(ctx context.Context, indexName string, objectIDs []string) error
}

type Handler struct {
	indexer Indexer
}

func NewHandler(indexer Indexer) *Handler {
	return &Handler{indexer: indexer}
}

// change is one usable stream record.
type change struct {
	remove    bool
	indexName string
	objectID  string
	doc       searchbox.Document
}

// batch collects consecutive changes of the same kind for the same index so
// stream order is preserved across flushes.
type batch struct {
	remove    bool
	indexName string
	objects   []algolia.Object
	objectIDs []string
}

func (b *batch) len() int { return len(b.objects) + len(b.objectIDs) }

func (b *batch) accepts(c change) bool {
	return b.len() == 0 || (b.remove == c.remove && b.indexName == c.indexName)
}

func (b *batch) add(c change) {
	b.remove, b.indexName = c.remove, c.indexName
	if c.remove {
		b.objectIDs = append(b.objectIDs, c.objectID)
		return
	}
	b.objects = append(b.objects, algolia.Object{ObjectID: c.objectID, Document: c.doc})
}

func (h *Handler) HandleDynamoDBEvent(ctx context.Context, e ddb.Event) error {
	slog.InfoContext(ctx, "Processing DynamoDB stream records", "record_count", len(e.Records))

	var b batch
	for _, record := range e.Records {
		c, ok := parseRecord(ctx, record)
		if !ok {
			continue
		}
		if !b.accepts(c) {
			if err := h.flush(ctx, &b); err != nil {
				return err
			}
		}
		b.add(c)
	}
	return h.flush(ctx, &b)
}

func (h *Handler) flush(ctx context.Context, b *batch) error {
	if b.len() == 0 {
		return nil
	}
	defer func() { *b = batch{} }()

	if b.remove {
		slog.InfoContext(ctx, "Deleting objects from Algolia", "object_count", len(b.objectIDs), "index", b.indexName)
		if err := h.indexer.DeleteDocuments(ctx, b.indexName, b.objectIDs); err != nil {
			slog.ErrorContext(ctx, "Error deleting objects", "index", b.indexName, "error", err)
			return err
		}
		return nil
	}

	slog.InfoContext(ctx, "Saving objects to Algolia", "object_count", len(b.objects), "index", b.indexName)
	if err := h.indexer.SaveDocuments(ctx, b.indexName, b.objects); err != nil {
		slog.ErrorContext(ctx, "Error saving objects", "index", b.indexName, "error", err)
		return err
	}
	return nil
}

// parseRecord extracts the change carried by record. Malformed records are
// logged and skipped so one bad item does not block the stream.
func parseRecord(ctx context.Context, record ddb.EventRecord) (change, bool) {
	switch record.EventName {
	case ddb.OperationInsert, ddb.OperationModify:
		if record.Change.NewImage == nil {
			slog.WarnContext(ctx, "No new image for insert/modify operation, skipping record", "event_id", record.EventID)
			return change{}, false
		}

		parsed, err := ddb.UnmarshalRecord(record.Change.NewImage)
		if err != nil {
			slog.WarnContext(ctx, "Failed to unmarshal record, skipping", "event_id", record.EventID, "error", err)
			return change{}, false
		}
		if parsed.PK == "" || parsed.SK == "" {
			slog.WarnContext(ctx, "Missing pk or sk in record, skipping record", "event_id", record.EventID)
			return change{}, false
		}
		if parsed.Object == (searchbox.Document{}) {
			slog.WarnContext(ctx, "Missing object in record, skipping record", "id", parsed.PK, "index", parsed.SK)
			return change{}, false
		}
		return change{indexName: parsed.SK, objectID: parsed.PK, doc: parsed.Object}, true

	case ddb.OperationRemove:
		parsed, err := ddb.UnmarshalRecord(record.Change.Keys)
		if err != nil {
			slog.WarnContext(ctx, "Failed to unmarshal keys for delete operation, skipping", "event_id", record.EventID, "error", err)
			return change{}, false
		}
		if parsed.PK == "" || parsed.SK == "" {
			slog.WarnContext(ctx, "Missing pk or sk in delete record, skipping record", "event_id", record.EventID)
			return change{}, false
		}
		return change{remove: true, indexName: parsed.SK, objectID: parsed.PK}, true

	default:
		slog.InfoContext(ctx, "Ignoring event type", "event_type", record.EventName)
		return change{}, false
	}
}
