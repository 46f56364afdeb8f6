package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/intake-api/internal/domain"
)

// RecordRepo stores encrypted questionnaire submissions.
// PK: record_id; GSI contact_identifier-submitted_at-index serves the
// per-contact listing in submission order.
type RecordRepo struct {
	client    *dynamodb.Client
	tableName string
}

func NewRecordRepo(client *dynamodb.Client, tableName string) *RecordRepo {
	return &RecordRepo{client: client, tableName: tableName}
}

func (r *RecordRepo) Put(ctx context.Context, rec *domain.QuestionnaireRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal questionnaire record: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	return err
}

// UpdateData replaces the ciphertext of an existing record in place. The
// conditional expression pins the row to the owning contact, so a session
// can never overwrite a foreign record; a missing or foreign record is
// ErrNotFound either way.
func (r *RecordRepo) UpdateData(ctx context.Context, recordID, contactIdentifier, encryptedData string) error {
	ue, err := buildUpdateExpr(map[string]interface{}{
		"encrypted_data": encryptedData,
		"submitted_at":   time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	ue.Names["#owner"] = "contact_identifier"
	ue.Values[":owner"] = &types.AttributeValueMemberS{Value: contactIdentifier}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey("record_id", recordID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("#owner = :owner"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("record not owned or missing: %w", domain.ErrNotFound)
	}
	return err
}

// ListByContact returns all records for one contact, newest first.
func (r *RecordRepo) ListByContact(ctx context.Context, contactIdentifier string) ([]domain.QuestionnaireRecord, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String("contact_identifier-submitted_at-index"),
		KeyConditionExpression: aws.String("contact_identifier = :cid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":cid": &types.AttributeValueMemberS{Value: contactIdentifier},
		},
		ScanIndexForward: aws.Bool(false), // submitted_at descending
	})
	if err != nil {
		return nil, err
	}
	records := make([]domain.QuestionnaireRecord, 0, len(out.Items))
	for _, item := range out.Items {
		var rec domain.QuestionnaireRecord
		if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
