package ddb

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/letmevibethatforyou/searchbox"
)

const storageImage = `{
	"pk": {"S": "2Xb7QKcR1w9uZy3VvD0gN5hQmTs"},
	"sk": {"S": "docs"},
	"object": {
		"M": {
			"uri": {"S": "/storage/"},
			"title": {"S": "Storage Engines"},
			"subtitle": {"S": "How records are persisted"},
			"content": {"S": "Records are kept in tables inside every database engine."}
		}
	}
}`

func TestChange_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name               string
		jsonData           string
		expectedSeqNum     string
		expectedSizeBytes  int64
		expectedStreamType string
		hasKeys            bool
		hasNewImage        bool
		hasOldImage        bool
		wantErr            bool
	}{
		{
			name: "modify with both images",
			jsonData: `{
				"ApproximateCreationDateTime": 1700000000,
				"Keys": {
					"pk": {"S": "2Xb7QKcR1w9uZy3VvD0gN5hQmTs"},
					"sk": {"S": "docs"}
				},
				"NewImage": ` + storageImage + `,
				"OldImage": {
					"pk": {"S": "2Xb7QKcR1w9uZy3VvD0gN5hQmTs"},
					"sk": {"S": "docs"},
					"object": {
						"M": {
							"uri": {"S": "/storage/"},
							"title": {"S": "Storage"}
						}
					}
				},
				"SequenceNumber": "123456789",
				"SizeBytes": 1024,
				"StreamViewType": "NEW_AND_OLD_IMAGES"
			}`,
			expectedSeqNum:     "123456789",
			expectedSizeBytes:  1024,
			expectedStreamType: "NEW_AND_OLD_IMAGES",
			hasKeys:            true,
			hasNewImage:        true,
			hasOldImage:        true,
		},
		{
			name: "remove with only OldImage",
			jsonData: `{
				"Keys": {
					"pk": {"S": "deleted"}
				},
				"OldImage": {
					"pk": {"S": "deleted"},
					"object": {"M": {"title": {"S": "Gone"}}}
				},
				"SequenceNumber": "555666777",
				"SizeBytes": 256,
				"StreamViewType": "OLD_IMAGE"
			}`,
			expectedSeqNum:     "555666777",
			expectedSizeBytes:  256,
			expectedStreamType: "OLD_IMAGE",
			hasKeys:            true,
			hasOldImage:        true,
		},
		{
			name: "keys only",
			jsonData: `{
				"SequenceNumber": "000111222",
				"SizeBytes": 100,
				"StreamViewType": "KEYS_ONLY"
			}`,
			expectedSeqNum:     "000111222",
			expectedSizeBytes:  100,
			expectedStreamType: "KEYS_ONLY",
		},
		{
			name: "nested lists and maps",
			jsonData: `{
				"Keys": {"pk": {"S": "complex"}},
				"NewImage": {
					"pk": {"S": "complex"},
					"object": {
						"M": {
							"tags": {"L": [{"S": "storage"}, {"S": "engines"}]},
							"meta": {"M": {"draft": {"BOOL": false}, "rank": {"N": "2"}}}
						}
					}
				},
				"SequenceNumber": "111222333",
				"SizeBytes": 2048,
				"StreamViewType": "NEW_IMAGE"
			}`,
			expectedSeqNum:     "111222333",
			expectedSizeBytes:  2048,
			expectedStreamType: "NEW_IMAGE",
			hasKeys:            true,
			hasNewImage:        true,
		},
		{
			name:     "invalid JSON should fail",
			jsonData: `{"invalid": json}`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var change Change
			err := json.Unmarshal([]byte(tt.jsonData), &change)

			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			if change.SequenceNumber != tt.expectedSeqNum {
				t.Errorf("SequenceNumber mismatch: got %s, want %s", change.SequenceNumber, tt.expectedSeqNum)
			}
			if change.SizeBytes != tt.expectedSizeBytes {
				t.Errorf("SizeBytes mismatch: got %d, want %d", change.SizeBytes, tt.expectedSizeBytes)
			}
			if change.StreamViewType != tt.expectedStreamType {
				t.Errorf("StreamViewType mismatch: got %s, want %s", change.StreamViewType, tt.expectedStreamType)
			}

			if tt.hasKeys != (change.Keys != nil) {
				t.Errorf("Keys presence mismatch: got %v, want %v", change.Keys != nil, tt.hasKeys)
			}
			if tt.hasNewImage != (change.NewImage != nil) {
				t.Errorf("NewImage presence mismatch: got %v, want %v", change.NewImage != nil, tt.hasNewImage)
			}
			if tt.hasOldImage != (change.OldImage != nil) {
				t.Errorf("OldImage presence mismatch: got %v, want %v", change.OldImage != nil, tt.hasOldImage)
			}

			if tt.hasKeys {
				verifyAttributeValueMap(t, change.Keys, "Keys")
			}
			if tt.hasNewImage {
				verifyAttributeValueMap(t, change.NewImage, "NewImage")
			}
			if tt.hasOldImage {
				verifyAttributeValueMap(t, change.OldImage, "OldImage")
			}
		})
	}
}

func TestChange_CreationTime(t *testing.T) {
	var change Change
	if err := json.Unmarshal([]byte(`{"ApproximateCreationDateTime": 1.7E9, "SequenceNumber": "1"}`), &change); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if want := time.Unix(1700000000, 0).UTC(); !change.ApproximateCreationDateTime.Equal(want) {
		t.Errorf("Expected %v, got %v", want, change.ApproximateCreationDateTime)
	}
}

func TestEventRecord_UnmarshalJSON(t *testing.T) {
	jsonData := `{
		"awsRegion": "us-east-1",
		"eventID": "test-event-123",
		"eventName": "INSERT",
		"eventSource": "aws:dynamodb",
		"eventVersion": "1.1",
		"eventSourceARN": "arn:aws:dynamodb:us-east-1:123456789012:table/documents/stream/2024-01-01T00:00:00.000",
		"dynamodb": {
			"Keys": {"pk": {"S": "2Xb7QKcR1w9uZy3VvD0gN5hQmTs"}},
			"NewImage": ` + storageImage + `,
			"SequenceNumber": "123456789",
			"SizeBytes": 512,
			"StreamViewType": "NEW_AND_OLD_IMAGES"
		}
	}`

	var record EventRecord
	if err := json.Unmarshal([]byte(jsonData), &record); err != nil {
		t.Fatalf("Failed to unmarshal EventRecord: %v", err)
	}

	if record.AWSRegion != "us-east-1" {
		t.Errorf("AWSRegion mismatch: got %s, want us-east-1", record.AWSRegion)
	}
	if record.EventID != "test-event-123" {
		t.Errorf("EventID mismatch: got %s, want test-event-123", record.EventID)
	}
	if record.EventName != OperationInsert {
		t.Errorf("EventName mismatch: got %s, want INSERT", record.EventName)
	}
	if record.Change.SequenceNumber != "123456789" {
		t.Errorf("SequenceNumber mismatch: got %s, want 123456789", record.Change.SequenceNumber)
	}

	verifyAttributeValueMap(t, record.Change.Keys, "Keys")
	verifyAttributeValueMap(t, record.Change.NewImage, "NewImage")
}

func TestEvent_UnmarshalJSON(t *testing.T) {
	jsonData := `{
		"Records": [
			{
				"eventID": "event-1",
				"eventName": "INSERT",
				"dynamodb": {"SequenceNumber": "111", "SizeBytes": 100, "StreamViewType": "NEW_IMAGE"}
			},
			{
				"eventID": "event-2",
				"eventName": "REMOVE",
				"dynamodb": {"SequenceNumber": "222", "SizeBytes": 200, "StreamViewType": "NEW_AND_OLD_IMAGES"}
			}
		]
	}`

	var event Event
	if err := json.Unmarshal([]byte(jsonData), &event); err != nil {
		t.Fatalf("Failed to unmarshal Event: %v", err)
	}

	if len(event.Records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(event.Records))
	}
	if event.Records[0].EventName != OperationInsert || event.Records[1].EventName != OperationRemove {
		t.Errorf("EventName mismatch: got %s, %s", event.Records[0].EventName, event.Records[1].EventName)
	}
	if event.Records[1].Change.SequenceNumber != "222" {
		t.Errorf("Second record SequenceNumber mismatch: got %s, want 222", event.Records[1].Change.SequenceNumber)
	}
}

func TestUnmarshalRecord(t *testing.T) {
	image, err := UnmarshalAttributeValueMap([]byte(storageImage))
	if err != nil {
		t.Fatalf("Failed to decode image: %v", err)
	}

	record, err := UnmarshalRecord(image)
	if err != nil {
		t.Fatalf("UnmarshalRecord failed: %v", err)
	}

	if record.PK != "2Xb7QKcR1w9uZy3VvD0gN5hQmTs" {
		t.Errorf("PK mismatch: got %s", record.PK)
	}
	if record.SK != "docs" {
		t.Errorf("SK mismatch: got %s, want docs", record.SK)
	}
	want := searchbox.Document{
		URI:      "/storage/",
		Title:    "Storage Engines",
		Subtitle: "How records are persisted",
		Content:  "Records are kept in tables inside every database engine.",
	}
	if record.Object != want {
		t.Errorf("Object mismatch: got %+v, want %+v", record.Object, want)
	}
}

func TestUnmarshalRecord_KeysOnly(t *testing.T) {
	keys, err := UnmarshalAttributeValueMap([]byte(`{"pk": {"S": "abc"}, "sk": {"S": "docs"}}`))
	if err != nil {
		t.Fatalf("Failed to decode keys: %v", err)
	}

	record, err := UnmarshalRecord(keys)
	if err != nil {
		t.Fatalf("UnmarshalRecord failed: %v", err)
	}
	if record.PK != "abc" || record.SK != "docs" || record.Object != (searchbox.Document{}) {
		t.Errorf("Unexpected record: %+v", record)
	}
}

func TestUnmarshalRecord_WrongType(t *testing.T) {
	image := map[string]types.AttributeValue{
		"pk": &types.AttributeValueMemberL{Value: []types.AttributeValue{}},
	}
	if _, err := UnmarshalRecord(image); err == nil {
		t.Error("Expected error for a list partition key")
	}
}

func TestUnmarshalAttributeValueMap(t *testing.T) {
	data := []byte(`{
		"s": {"S": "text"},
		"n": {"N": "29.99"},
		"b": {"B": "aGVsbG8="},
		"bool": {"BOOL": true},
		"null": {"NULL": true},
		"ss": {"SS": ["a", "b"]},
		"ns": {"NS": ["1", "2"]},
		"bs": {"BS": ["aGk="]},
		"l": {"L": [{"S": "x"}, {"N": "1"}]},
		"m": {"M": {"inner": {"S": "y"}}}
	}`)

	got, err := UnmarshalAttributeValueMap(data)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	want := map[string]types.AttributeValue{
		"s":    &types.AttributeValueMemberS{Value: "text"},
		"n":    &types.AttributeValueMemberN{Value: "29.99"},
		"b":    &types.AttributeValueMemberB{Value: []byte("hello")},
		"bool": &types.AttributeValueMemberBOOL{Value: true},
		"null": &types.AttributeValueMemberNULL{Value: true},
		"ss":   &types.AttributeValueMemberSS{Value: []string{"a", "b"}},
		"ns":   &types.AttributeValueMemberNS{Value: []string{"1", "2"}},
		"bs":   &types.AttributeValueMemberBS{Value: [][]byte{[]byte("hi")}},
		"l": &types.AttributeValueMemberL{Value: []types.AttributeValue{
			&types.AttributeValueMemberS{Value: "x"},
			&types.AttributeValueMemberN{Value: "1"},
		}},
		"m": &types.AttributeValueMemberM{Value: map[string]types.AttributeValue{
			"inner": &types.AttributeValueMemberS{Value: "y"},
		}},
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %#v, got %#v", want, got)
	}

	if _, err := UnmarshalAttributeValueMap([]byte(`{"pk": {"X": "?"}}`)); err == nil {
		t.Error("Expected error for an unknown data type")
	}
}

// verifyAttributeValueMap checks that an AttributeValue map contains proper types
func verifyAttributeValueMap(t *testing.T, m map[string]types.AttributeValue, fieldName string) {
	t.Helper()
	if m == nil {
		t.Errorf("%s should not be nil", fieldName)
		return
	}

	for key, value := range m {
		switch v := value.(type) {
		case *types.AttributeValueMemberS:
			if v.Value == "" {
				t.Errorf("%s[%s] string value should not be empty", fieldName, key)
			}
		case *types.AttributeValueMemberN:
			if v.Value == "" {
				t.Errorf("%s[%s] number value should not be empty", fieldName, key)
			}
		case *types.AttributeValueMemberBOOL:
		case *types.AttributeValueMemberM:
			verifyAttributeValueMap(t, v.Value, fieldName+"."+key)
		case *types.AttributeValueMemberL:
			if len(v.Value) == 0 {
				t.Errorf("%s[%s] list should not be empty", fieldName, key)
			}
		default:
			t.Errorf("%s[%s] has unexpected AttributeValue type: %T", fieldName, key, value)
		}
	}
}
