// Package corpus loads the documents of a search index from a file, an HTTP
// endpoint, or a DynamoDB table.
//
// Locations:
//
//	https://example.com/index.json   JSON array fetched with a single GET
//	dynamodb://table?sk=docs          table scan, optionally limited to one sort key
//	file:///srv/index.json            local JSON array (the file:// prefix is optional)
package corpus

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/searchbox"
)

// Record is the DynamoDB item layout of an indexed document.
type Record struct {
	PK     string             `dynamodbav:"pk"`
	SK     string             `dynamodbav:"sk"`
	Object searchbox.Document `dynamodbav:"object"`
}

// Option configures a load.
type Option func(*loader)

type loader struct {
	httpClient *http.Client
	dynamo     dynamodb.ScanAPIClient
	logger     *slog.Logger
}

// WithHTTPClient sets the client used for http and https locations.
func WithHTTPClient(c *http.Client) Option {
	return func(l *loader) { l.httpClient = c }
}

// WithDynamoDB sets the client used for dynamodb locations. Without it the
// default AWS configuration is loaded.
func WithDynamoDB(c dynamodb.ScanAPIClient) Option {
	return func(l *loader) { l.dynamo = c }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *loader) { l.logger = logger }
}

// Load reads every document at location. Failures are returned as is; there
// are no retries.
func Load(ctx context.Context, location string, opts ...Option) ([]searchbox.Document, error) {
	l := &loader{
		httpClient: http.DefaultClient,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}

	var (
		docs []searchbox.Document
		err  error
	)
	switch {
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		docs, err = l.fetch(ctx, location)
	case strings.HasPrefix(location, "dynamodb://"):
		docs, err = l.scan(ctx, location)
	default:
		docs, err = l.read(strings.TrimPrefix(location, "file://"))
	}
	if err != nil {
		return nil, err
	}

	l.logger.DebugContext(ctx, "loaded search index", "location", location, "document_count", len(docs))
	return docs, nil
}

// LoadFunc binds Load to location for deferred, asynchronous loading.
func LoadFunc(location string, opts ...Option) func(context.Context) ([]searchbox.Document, error) {
	return func(ctx context.Context) ([]searchbox.Document, error) {
		return Load(ctx, location, opts...)
	}
}

func (l *loader) read(path string) ([]searchbox.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open index file %s", path)
	}
	defer f.Close()

	return decode(f, path)
}

func (l *loader) fetch(ctx context.Context, location string) ([]searchbox.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "build request for %s", location)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "fetch %s", location)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Newf("fetch %s: unexpected status %s", location, resp.Status)
	}
	return decode(resp.Body, location)
}

func decode(r io.Reader, source string) ([]searchbox.Document, error) {
	var docs []searchbox.Document
	if err := json.NewDecoder(r).Decode(&docs); err != nil {
		return nil, errors.Wrapf(err, "decode index from %s", source)
	}
	return docs, nil
}

func (l *loader) scan(ctx context.Context, location string) ([]searchbox.Document, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, errors.Wrapf(err, "parse location %s", location)
	}
	table := u.Host
	if table == "" {
		return nil, errors.Newf("location %s names no table", location)
	}

	client := l.dynamo
	if client == nil {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "load AWS config")
		}
		client = dynamodb.NewFromConfig(cfg)
	}

	input := &dynamodb.ScanInput{TableName: aws.String(table)}
	if sk := u.Query().Get("sk"); sk != "" {
		input.FilterExpression = aws.String("sk = :sk")
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":sk": &types.AttributeValueMemberS{Value: sk},
		}
	}

	var docs []searchbox.Document
	paginator := dynamodb.NewScanPaginator(client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "scan table %s", table)
		}

		var records []Record
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &records); err != nil {
			return nil, errors.Wrapf(err, "unmarshal items of table %s", table)
		}
		for _, r := range records {
			docs = append(docs, r.Object)
		}
	}
	return docs, nil
}
