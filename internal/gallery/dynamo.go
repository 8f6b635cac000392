package gallery

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/klauspost/compress/zstd"
)

// DynamoDB caps items at 400 KB. Leave headroom for keys and attributes.
const maxDynamoPayload = 390 * 1024

const (
	dynamoPKPrefix = "GALLERY#"
	dynamoSK       = "SNAPSHOT"
	encodingZstd   = "zstd"
)

// DynamoAPI is the subset of the DynamoDB client the backend uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoBackend stores the payload zstd-compressed in a single item.
// Galleries whose compressed size exceeds the item limit cannot be saved;
// use the S3 backend for large collections.
type DynamoBackend struct {
	client    DynamoAPI
	tableName string
	name      string
}

type dynamoItem struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	Payload   []byte `dynamodbav:"payload"`
	Encoding  string `dynamodbav:"encoding"`
	RawBytes  int    `dynamodbav:"rawBytes"`
	UpdatedAt string `dynamodbav:"updatedAt"`
}

// NewDynamoBackend stores the named gallery record in tableName.
func NewDynamoBackend(client DynamoAPI, tableName, recordName string) *DynamoBackend {
	if recordName == "" {
		recordName = DefaultRecordName
	}
	return &DynamoBackend{client: client, tableName: tableName, name: recordName}
}

func (b *DynamoBackend) key() map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: dynamoPKPrefix + b.name},
		"SK": &types.AttributeValueMemberS{Value: dynamoSK},
	}
}

func (b *DynamoBackend) Read(ctx context.Context) ([]byte, bool, error) {
	result, err := b.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(b.tableName),
		Key:            b.key(),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, false, fmt.Errorf("GetItem %s: %w", b.name, err)
	}
	if result.Item == nil {
		return nil, false, nil
	}

	var item dynamoItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, false, fmt.Errorf("unmarshal %s: %w", b.name, err)
	}
	if item.Encoding != encodingZstd {
		return item.Payload, true, nil
	}

	dec, err := zstd.NewReader(bytes.NewReader(item.Payload))
	if err != nil {
		return nil, false, fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()
	data, err := io.ReadAll(dec)
	if err != nil {
		// Undecompressable bytes are handed on as-is; decoding them will
		// report the record as corrupt.
		return item.Payload, true, nil
	}
	return data, true, nil
}

func (b *DynamoBackend) Write(ctx context.Context, data []byte) error {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	if err != nil {
		return fmt.Errorf("zstd writer: %w", err)
	}
	compressed := enc.EncodeAll(data, nil)
	enc.Close()

	if len(compressed) > maxDynamoPayload {
		return fmt.Errorf("gallery is %d bytes compressed, DynamoDB item limit is %d", len(compressed), maxDynamoPayload)
	}

	item, err := attributevalue.MarshalMap(dynamoItem{
		PK:        dynamoPKPrefix + b.name,
		SK:        dynamoSK,
		Payload:   compressed,
		Encoding:  encodingZstd,
		RawBytes:  len(data),
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	_, err = b.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(b.tableName),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("PutItem %s: %w", b.name, err)
	}
	return nil
}

func (b *DynamoBackend) Name() string { return "dynamodb" }
