// Package ddb decodes DynamoDB stream events carrying indexed documents.
package ddb

import (
	"encoding/json"
	"math"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/cockroachdb/errors"
	"github.com/letmevibethatforyou/searchbox/corpus"
)

// Event is a batch of DynamoDB stream records delivered to a Lambda.
type Event struct {
	Records []EventRecord `json:"Records"`
}

// EventRecord is a single stream record.
type EventRecord struct {
	AWSRegion      string        `json:"awsRegion"`
	Change         Change        `json:"dynamodb"`
	EventID        string        `json:"eventID"`
	EventName      OperationType `json:"eventName"`
	EventSource    string        `json:"eventSource"`
	EventVersion   string        `json:"eventVersion"`
	EventSourceArn string        `json:"eventSourceARN"`
}

// Change is the item data of a stream record, decoded into SDK attribute
// values.
type Change struct {
	ApproximateCreationDateTime time.Time
	Keys                        map[string]types.AttributeValue
	NewImage                    map[string]types.AttributeValue
	OldImage                    map[string]types.AttributeValue
	SequenceNumber              string
	SizeBytes                   int64
	StreamViewType              string
}

// UnmarshalJSON decodes the DynamoDB JSON images of a stream record.
func (c *Change) UnmarshalJSON(data []byte) error {
	var raw struct {
		ApproximateCreationDateTime float64                                  `json:"ApproximateCreationDateTime,omitempty"`
		Keys                        map[string]events.DynamoDBAttributeValue `json:"Keys,omitempty"`
		NewImage                    map[string]events.DynamoDBAttributeValue `json:"NewImage,omitempty"`
		OldImage                    map[string]events.DynamoDBAttributeValue `json:"OldImage,omitempty"`
		SequenceNumber              string                                   `json:"SequenceNumber"`
		SizeBytes                   int64                                    `json:"SizeBytes"`
		StreamViewType              string                                   `json:"StreamViewType"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.Wrap(err, "failed to decode stream record")
	}

	var err error
	if c.Keys, err = FromStreamMap(raw.Keys); err != nil {
		return errors.Wrap(err, "Keys")
	}
	if c.NewImage, err = FromStreamMap(raw.NewImage); err != nil {
		return errors.Wrap(err, "NewImage")
	}
	if c.OldImage, err = FromStreamMap(raw.OldImage); err != nil {
		return errors.Wrap(err, "OldImage")
	}

	c.ApproximateCreationDateTime = time.Time{}
	if raw.ApproximateCreationDateTime > 0 {
		sec, frac := math.Modf(raw.ApproximateCreationDateTime)
		c.ApproximateCreationDateTime = time.Unix(int64(sec), int64(frac*1e9)).UTC()
	}
	c.SequenceNumber = raw.SequenceNumber
	c.SizeBytes = raw.SizeBytes
	c.StreamViewType = raw.StreamViewType
	return nil
}

// OperationType is the kind of change a stream record describes.
type OperationType string

const (
	OperationInsert OperationType = "INSERT"
	OperationModify OperationType = "MODIFY"
	OperationRemove OperationType = "REMOVE"
)

// UnmarshalRecord decodes a stream image into the table's record layout.
func UnmarshalRecord(image map[string]types.AttributeValue) (corpus.Record, error) {
	var record corpus.Record
	if err := attributevalue.UnmarshalMap(image, &record); err != nil {
		return corpus.Record{}, errors.Wrap(err, "failed to unmarshal record")
	}
	return record, nil
}
