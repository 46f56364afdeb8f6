package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/intake-api/internal/domain"
)

// BindingRepo manages handle → chat-id bindings. PK: contact_identifier
// (the normalized handle). Writes are last-write-wins.
type BindingRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewBindingRepo(client *dynamodb.Client, tableName string) *BindingRepo {
	return &BindingRepo{client: client, tableName: tableName}
}

// Upsert overwrites any existing binding for the handle. No merge: the
// freshest inbound event wins wholesale.
func (r *BindingRepo) Upsert(ctx context.Context, b *domain.ChannelBinding) error {
	item, err := attributevalue.MarshalMap(b)
	if err != nil {
		return fmt.Errorf("marshal channel binding: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

func (r *BindingRepo) Get(ctx context.Context, contactIdentifier string) (*domain.ChannelBinding, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("contact_identifier", contactIdentifier),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("channel binding not found: %w", domain.ErrNotFound)
	}
	var b domain.ChannelBinding
	if err := attributevalue.UnmarshalMap(out.Item, &b); err != nil {
		return nil, err
	}
	return &b, nil
}
