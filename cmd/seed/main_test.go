package main

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/letmevibethatforyou/searchbox"
	"github.com/letmevibethatforyou/searchbox/corpus"
	"github.com/segmentio/ksuid"
)

type mockPutClient struct {
	inputs []*dynamodb.PutItemInput
	failAt int
}

func (m *mockPutClient) PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.inputs = append(m.inputs, params)
	if m.failAt > 0 && len(m.inputs) == m.failAt {
		return nil, errors.New("ProvisionedThroughputExceededException")
	}
	return &dynamodb.PutItemOutput{}, nil
}

var docs = []searchbox.Document{
	{URI: "/storage/", Title: "Storage Engines", Content: "Records are kept in tables."},
	{URI: "/tuning/", Title: "Database Tuning", Content: "Tune the cache size."},
}

func TestSeed(t *testing.T) {
	client := &mockPutClient{}
	if err := seed(context.Background(), client, "documents", "docs", docs); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if len(client.inputs) != len(docs) {
		t.Fatalf("Expected %d puts, got %d", len(docs), len(client.inputs))
	}

	seen := map[string]bool{}
	for i, in := range client.inputs {
		if aws.ToString(in.TableName) != "documents" {
			t.Errorf("Expected table documents, got %s", aws.ToString(in.TableName))
		}

		var record corpus.Record
		if err := attributevalue.UnmarshalMap(in.Item, &record); err != nil {
			t.Fatalf("unmarshal item: %v", err)
		}
		if _, err := ksuid.Parse(record.PK); err != nil {
			t.Errorf("Expected a ksuid partition key, got %q: %v", record.PK, err)
		}
		if seen[record.PK] {
			t.Errorf("Duplicate partition key %s", record.PK)
		}
		seen[record.PK] = true

		if record.SK != "docs" {
			t.Errorf("Expected sort key docs, got %s", record.SK)
		}
		if record.Object != docs[i] {
			t.Errorf("Expected %+v, got %+v", docs[i], record.Object)
		}
	}
}

func TestSeedStopsOnError(t *testing.T) {
	client := &mockPutClient{failAt: 1}
	if err := seed(context.Background(), client, "documents", "docs", docs); err == nil {
		t.Fatal("Expected error, got nil")
	}
	if len(client.inputs) != 1 {
		t.Errorf("Expected seeding to stop after the failed put, got %d puts", len(client.inputs))
	}
}
