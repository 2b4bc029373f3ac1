package activities

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/leadwire/leadwire-platform/pkg/logging"
)

// indexTTL bounds how long delivery-receipt entries are kept. Receipts
// for messages older than this are dropped by the status pipeline anyway.
const indexTTL = 30 * 24 * time.Hour

type dynamoAPI interface {
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
}

// DynamoIndex persists message index entries in DynamoDB, keyed by
// tenantId and messageId. It backs serverless deployments where no
// relational database is provisioned.
type DynamoIndex struct {
	client    dynamoAPI
	tableName string
	logger    *logging.Logger
}

// NewDynamoIndex builds an index backed by the provided DynamoDB client.
func NewDynamoIndex(client dynamoAPI, tableName string, logger *logging.Logger) *DynamoIndex {
	if client == nil {
		panic("activities: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("activities: table name cannot be empty")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DynamoIndex{client: client, tableName: tableName, logger: logger}
}

// Put stores the entry, defaulting status to sent and stamping a TTL.
func (i *DynamoIndex) Put(ctx context.Context, entry IndexEntry) error {
	if entry.MessageID == "" || entry.TenantID == "" {
		return errors.New("activities: index entry requires tenant and message id")
	}
	if entry.Status == "" {
		entry.Status = MessageStatusSent
	}
	now := time.Now().UTC()
	if entry.SentAt.IsZero() {
		entry.SentAt = now
	}
	if entry.UpdatedAt.IsZero() {
		entry.UpdatedAt = now
	}
	if entry.ExpiresAt == 0 {
		entry.ExpiresAt = now.Add(indexTTL).Unix()
	}

	item, err := attributevalue.MarshalMap(entry)
	if err != nil {
		return fmt.Errorf("activities: marshal index entry: %w", err)
	}
	if _, err := i.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(i.tableName),
		Item:      item,
	}); err != nil {
		return fmt.Errorf("activities: index put failed: %w", err)
	}
	return nil
}

// Get returns the entry for the message ID scoped to the tenant.
func (i *DynamoIndex) Get(ctx context.Context, tenantID, messageID string) (*IndexEntry, error) {
	out, err := i.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(i.tableName),
		Key:       indexItemKey(tenantID, messageID),
	})
	if err != nil {
		return nil, fmt.Errorf("activities: index get failed: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, ErrEntryNotFound
	}

	var entry IndexEntry
	if err := attributevalue.UnmarshalMap(out.Item, &entry); err != nil {
		return nil, fmt.Errorf("activities: unmarshal index entry: %w", err)
	}
	return &entry, nil
}

// ApplyStatus advances the entry's delivery status with a read-then-put.
func (i *DynamoIndex) ApplyStatus(ctx context.Context, tenantID, messageID, status string, at time.Time) (*IndexEntry, bool, error) {
	entry, err := i.Get(ctx, tenantID, messageID)
	if err != nil {
		return nil, false, err
	}
	if !advance(entry, status, at) {
		return entry, false, nil
	}
	if err := i.Put(ctx, *entry); err != nil {
		return nil, false, err
	}
	return entry, true, nil
}

func indexItemKey(tenantID, messageID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"tenantId":  &types.AttributeValueMemberS{Value: tenantID},
		"messageId": &types.AttributeValueMemberS{Value: messageID},
	}
}

// Ensure interface compliance
var _ MessageIndex = (*DynamoIndex)(nil)
var _ MessageIndex = (*MemoryIndex)(nil)
var _ MessageIndex = (*PostgresIndex)(nil)
