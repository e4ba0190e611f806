package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"
	"github.com/letmevibethatforyou/searchbox"
	"github.com/letmevibethatforyou/searchbox/corpus"
	"github.com/segmentio/ksuid"
	"github.com/urfave/cli/v2"
)

// PutItemAPI is the subset of the DynamoDB client the seeder uses.
type PutItemAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

func insertDocument(ctx context.Context, client PutItemAPI, tableName, indexName string, doc searchbox.Document) (string, error) {
	id := ksuid.New().String()

	record := corpus.Record{
		PK:     id,
		SK:     indexName,
		Object: doc,
	}

	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return "", fmt.Errorf("failed to marshal document record: %w", err)
	}

	_, err = client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(tableName),
		Item:      item,
	})
	if err != nil {
		return "", fmt.Errorf("failed to put item in DynamoDB: %w", err)
	}

	slog.InfoContext(ctx, "Successfully inserted document",
		"id", id,
		"index", indexName,
		"uri", doc.URI,
		"title", doc.Title,
	)

	return id, nil
}

func seed(ctx context.Context, client PutItemAPI, tableName, indexName string, docs []searchbox.Document) error {
	for i, doc := range docs {
		if _, err := insertDocument(ctx, client, tableName, indexName, doc); err != nil {
			return fmt.Errorf("failed to insert document %d: %w", i+1, err)
		}
	}
	return nil
}

func runAction(c *cli.Context) error {
	ctx := c.Context
	env := c.String("env")
	tableName := c.String("table-name")
	indexName := c.String("index-name")
	source := c.String("source")

	slog.InfoContext(ctx, "Starting index seeder",
		"environment", env,
		"table", tableName,
		"index", indexName,
		"source", source,
	)

	docs, err := corpus.Load(ctx, source)
	if err != nil {
		return fmt.Errorf("failed to load documents: %w", err)
	}

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	if err := seed(ctx, dynamodb.NewFromConfig(cfg), tableName, indexName, docs); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Successfully inserted all documents", "count", len(docs))
	return nil
}

func main() {
	_ = godotenv.Load()

	// Configure JSON logging for AWS environments
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" || os.Getenv("AWS_REGION") != "" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	}

	app := &cli.App{
		Name:  "seed",
		Usage: "Load an index JSON file into the DynamoDB document table",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "env",
				Aliases:  []string{"e"},
				Usage:    "Environment name",
				EnvVars:  []string{"ENVIRONMENT"},
				Required: true,
			},
			&cli.StringFlag{
				Name:     "table-name",
				Aliases:  []string{"t"},
				Usage:    "DynamoDB table name",
				EnvVars:  []string{"TABLE_NAME"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "index-name",
				Aliases: []string{"n"},
				Usage:   "Index name stored as the sort key; the sync function uses it as the Algolia index",
				EnvVars: []string{"INDEX_NAME"},
				Value:   "docs",
			},
			&cli.StringFlag{
				Name:     "source",
				Aliases:  []string{"s"},
				Usage:    "Index JSON location (file path or http(s) URL)",
				EnvVars:  []string{"SEARCH_INDEX"},
				Required: true,
			},
		},
		Action: runAction,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}
