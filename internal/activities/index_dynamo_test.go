package activities

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/leadwire/leadwire-platform/pkg/logging"
)

type mockDynamo struct {
	putInput *dynamodb.PutItemInput
	getInput *dynamodb.GetItemInput
	item     map[string]types.AttributeValue
}

func (m *mockDynamo) PutItem(ctx context.Context, input *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	m.putInput = input
	m.item = input.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *mockDynamo) GetItem(ctx context.Context, input *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	m.getInput = input
	return &dynamodb.GetItemOutput{Item: m.item}, nil
}

func TestDynamoIndexPutSetsDefaultsAndTTL(t *testing.T) {
	mock := &mockDynamo{}
	index := NewDynamoIndex(mock, "whatsapp_message_index", logging.Default())

	err := index.Put(context.Background(), IndexEntry{
		MessageID:  "wamid.200",
		TenantID:   "tenant-a",
		LeadID:     "lead-1",
		ActivityID: "act-1",
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if mock.putInput == nil {
		t.Fatalf("expected PutItem to be called")
	}

	var stored IndexEntry
	if err := attributevalue.UnmarshalMap(mock.putInput.Item, &stored); err != nil {
		t.Fatalf("unmarshal stored entry: %v", err)
	}
	if stored.Status != MessageStatusSent {
		t.Fatalf("status = %q, want sent", stored.Status)
	}
	if stored.ExpiresAt <= time.Now().Unix() {
		t.Fatalf("expected TTL in the future, got %d", stored.ExpiresAt)
	}
}

func TestDynamoIndexRoundTripAndApplyStatus(t *testing.T) {
	mock := &mockDynamo{}
	index := NewDynamoIndex(mock, "whatsapp_message_index", logging.Default())
	ctx := context.Background()

	if err := index.Put(ctx, IndexEntry{MessageID: "wamid.200", TenantID: "tenant-a", LeadID: "lead-1"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := index.Get(ctx, "tenant-a", "wamid.200")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.LeadID != "lead-1" {
		t.Fatalf("lead id = %q", got.LeadID)
	}
	if key := mock.getInput.Key["tenantId"].(*types.AttributeValueMemberS).Value; key != "tenant-a" {
		t.Fatalf("key tenantId = %q", key)
	}

	entry, changed, err := index.ApplyStatus(ctx, "tenant-a", "wamid.200", MessageStatusRead, time.Now().UTC())
	if err != nil || !changed {
		t.Fatalf("apply: changed=%v err=%v", changed, err)
	}
	if entry.Status != MessageStatusRead || entry.ReadAt == nil {
		t.Fatalf("unexpected entry: %+v", entry)
	}

	// The write-back must persist the advanced status.
	stored, err := index.Get(ctx, "tenant-a", "wamid.200")
	if err != nil {
		t.Fatalf("get after apply: %v", err)
	}
	if stored.Status != MessageStatusRead {
		t.Fatalf("persisted status = %q, want read", stored.Status)
	}
}

func TestDynamoIndexGetMissing(t *testing.T) {
	mock := &mockDynamo{}
	index := NewDynamoIndex(mock, "whatsapp_message_index", logging.Default())
	if _, err := index.Get(context.Background(), "tenant-a", "wamid.none"); err != ErrEntryNotFound {
		t.Fatalf("expected ErrEntryNotFound, got %v", err)
	}
}
