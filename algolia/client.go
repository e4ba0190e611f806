// Package algolia provides a searchbox.Searcher over a hosted Algolia index
// and a lazily initialized client for keeping that index in sync.
package algolia

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/algolia/algoliasearch-client-go/v3/algolia/search"
	"github.com/letmevibethatforyou/searchbox"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Secrets holds the Algolia application credentials.
type Secrets struct {
	// AppID is the Algolia application ID.
	AppID string `json:"app_id"`
	// WriteApiKey is the Algolia write API key.
	WriteApiKey string `json:"write_api_key"`
}

// FetchSecrets is a function type that retrieves Algolia credentials.
// It allows for different secret retrieval strategies (static, environment variables, etc.).
type FetchSecrets func() (Secrets, error)

// StaticSecrets returns a FetchSecrets function that provides static credentials.
func StaticSecrets(appID, writeApiKey string) FetchSecrets {
	return func() (Secrets, error) {
		return Secrets{
			AppID:       appID,
			WriteApiKey: writeApiKey,
		}, nil
	}
}

// EnvSecrets reads ALGOLIA_APP_ID and ALGOLIA_API_KEY.
func EnvSecrets() FetchSecrets {
	return func() (Secrets, error) {
		appID := os.Getenv("ALGOLIA_APP_ID")
		if appID == "" {
			return Secrets{}, fmt.Errorf("ALGOLIA_APP_ID environment variable is not set")
		}

		apiKey := os.Getenv("ALGOLIA_API_KEY")
		if apiKey == "" {
			return Secrets{}, fmt.Errorf("ALGOLIA_API_KEY environment variable is not set")
		}

		return Secrets{
			AppID:       appID,
			WriteApiKey: apiKey,
		}, nil
	}
}

// Object is a document as stored in an Algolia index.
type Object struct {
	ObjectID string `json:"objectID"`
	searchbox.Document
}

// Client talks to Algolia. Credentials are fetched on first use.
type Client struct {
	getClient func() (*search.Client, error)
	tracer    trace.Tracer
}

// NewClient creates a Client that resolves its credentials once, on first use.
func NewClient(fetchSecrets FetchSecrets) *Client {
	getClient := sync.OnceValues(func() (*search.Client, error) {
		secrets, err := fetchSecrets()
		if err != nil {
			return nil, fmt.Errorf("failed to fetch secrets: %w", err)
		}

		if secrets.AppID == "" {
			return nil, fmt.Errorf("AppID is empty")
		}

		if secrets.WriteApiKey == "" {
			return nil, fmt.Errorf("WriteApiKey is empty")
		}

		return search.NewClient(secrets.AppID, secrets.WriteApiKey), nil
	})

	return &Client{
		getClient: getClient,
		tracer:    otel.Tracer("searchbox-algolia"),
	}
}

// withIndex runs fn against indexName inside a span named op. Failures are
// recorded on the span and wrapped with msg.
func (c *Client) withIndex(ctx context.Context, op, indexName string, attrs []attribute.KeyValue, msg string, fn func(*search.Index) error) error {
	_, span := c.tracer.Start(ctx, op,
		trace.WithAttributes(append(attrs, attribute.String("algolia.index_name", indexName))...),
	)
	defer span.End()

	client, err := c.getClient()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to get Algolia client")
		return fmt.Errorf("failed to get Algolia client: %w", err)
	}

	if err := fn(client.InitIndex(indexName)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, msg)
		return fmt.Errorf("%s in Algolia index %s: %w", msg, indexName, err)
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

// SaveDocument upserts doc under objectID.
func (c *Client) SaveDocument(ctx context.Context, indexName, objectID string, doc searchbox.Document) error {
	attrs := []attribute.KeyValue{attribute.String("algolia.object_id", objectID)}
	return c.withIndex(ctx, "algolia.save_object", indexName, attrs, "failed to save object", func(index *search.Index) error {
		_, err := index.SaveObject(Object{ObjectID: objectID, Document: doc})
		return err
	})
}

// DeleteDocument removes objectID from the index.
func (c *Client) DeleteDocument(ctx context.Context, indexName, objectID string) error {
	attrs := []attribute.KeyValue{attribute.String("algolia.object_id", objectID)}
	return c.withIndex(ctx, "algolia.delete_object", indexName, attrs, "failed to delete object", func(index *search.Index) error {
		_, err := index.DeleteObject(objectID)
		return err
	})
}

// SaveDocuments upserts objects in one batch.
func (c *Client) SaveDocuments(ctx context.Context, indexName string, objects []Object) error {
	if len(objects) == 0 {
		return nil
	}

	attrs := []attribute.KeyValue{attribute.Int("algolia.object_count", len(objects))}
	return c.withIndex(ctx, "algolia.batch_save_objects", indexName, attrs, "failed to batch save objects", func(index *search.Index) error {
		_, err := index.SaveObjects(objects)
		return err
	})
}

// DeleteDocuments removes objectIDs in one batch.
func (c *Client) DeleteDocuments(ctx context.Context, indexName string, objectIDs []string) error {
	if len(objectIDs) == 0 {
		return nil
	}

	attrs := []attribute.KeyValue{attribute.Int("algolia.object_count", len(objectIDs))}
	return c.withIndex(ctx, "algolia.batch_delete_objects", indexName, attrs, "failed to batch delete objects", func(index *search.Index) error {
		_, err := index.DeleteObjects(objectIDs)
		return err
	})
}

func (c *Client) search(ctx context.Context, indexName, query string, params []interface{}) (search.QueryRes, error) {
	var res search.QueryRes
	attrs := []attribute.KeyValue{attribute.String("algolia.query", query)}
	err := c.withIndex(ctx, "algolia.search", indexName, attrs, "search failed", func(index *search.Index) error {
		var err error
		res, err = index.Search(query, params...)
		return err
	})
	return res, err
}
