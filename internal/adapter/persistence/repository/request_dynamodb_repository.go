package repository

import (
	"context"
	"sort"
	"strconv"

	"serviexpress/internal/domain/entities"
	"serviexpress/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

type requestItem struct {
	ID              string `dynamodbav:"id"`
	ServiceID       string `dynamodbav:"service_id"`
	ClientID        string `dynamodbav:"client_id"`
	Date            string `dynamodbav:"date"`
	Status          string `dynamodbav:"status"`
	Details         string `dynamodbav:"details,omitempty"`
	DeliveryAddress string `dynamodbav:"delivery_address,omitempty"`
	EstimatedDate   string `dynamodbav:"estimated_date,omitempty"`
	PaymentID       string `dynamodbav:"payment_id,omitempty"`
	Version         int64  `dynamodbav:"version"`
	UpdatedAt       string `dynamodbav:"updated_at"`
}

var requestOptionalAttrs = []string{"details", "delivery_address", "estimated_date", "payment_id"}

// RequestDynamoRepository persists Request entities in DynamoDB.
//
// Table requirements:
//   - PK: id (string)
//   - GSI: service_id-index (PK: service_id)
//
// Create and Delete also adjust request_count on the referenced service
// inside one transaction.
type RequestDynamoRepository struct {
	ddb           *dynamodb.Client
	tableName     string
	servicesTable string
}

var _ interfaces.IRequestRepository = (*RequestDynamoRepository)(nil)

func NewRequestDynamoRepository(ddb *dynamodb.Client, tableName, servicesTable string) *RequestDynamoRepository {
	return &RequestDynamoRepository{ddb: ddb, tableName: tableName, servicesTable: servicesTable}
}

// Create returns interfaces.ErrStaleWrite when the referenced service does
// not exist at write time.
func (r *RequestDynamoRepository) Create(ctx context.Context, req entities.Request) (entities.Request, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	req.Version = 1
	av, err := attributevalue.MarshalMap(toRequestItem(req))
	if err != nil {
		return entities.Request{}, err
	}

	_, err = r.ddb.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:                aws.String(r.tableName),
				Item:                     av,
				ConditionExpression:      aws.String("attribute_not_exists(#id)"),
				ExpressionAttributeNames: map[string]string{"#id": attrID},
			}},
			r.adjustCount(req.ServiceID, 1),
		},
	})
	if err != nil {
		return entities.Request{}, staleOr(err)
	}
	return req, nil
}

func (r *RequestDynamoRepository) GetByID(ctx context.Context, id string) (entities.Request, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            idKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.Request{}, err
	}
	if len(out.Item) == 0 {
		return entities.Request{}, nil
	}

	var it requestItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.Request{}, err
	}
	return fromRequestItem(it), nil
}

func (r *RequestDynamoRepository) List(ctx context.Context, filter entities.RequestFilter, page entities.PageRequest) (entities.Page[entities.Request], error) {
	var (
		expr   string
		names  map[string]string
		values map[string]types.AttributeValue
	)
	if filter.ClientID != "" {
		expr = "#client_id = :client_id"
		names = map[string]string{"#client_id": "client_id"}
		values = map[string]types.AttributeValue{":client_id": &types.AttributeValueMemberS{Value: filter.ClientID}}
	}
	raw, err := scanAll(ctx, r.ddb, r.tableName, expr, names, values)
	if err != nil {
		return entities.Page[entities.Request]{}, err
	}

	matched := make([]entities.Request, 0, len(raw))
	for _, av := range raw {
		var it requestItem
		if err := attributevalue.UnmarshalMap(av, &it); err != nil {
			return entities.Page[entities.Request]{}, err
		}
		if req := fromRequestItem(it); filter.Matches(req) {
			matched = append(matched, req)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Date.Equal(matched[j].Date) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].Date.Before(matched[j].Date)
	})
	return entities.Paginate(matched, page), nil
}

// Update never moves a request to another service: service_id is kept
// from the stored item.
func (r *RequestDynamoRepository) Update(ctx context.Context, req entities.Request) (entities.Request, error) {
	in, err := r.updateInput(req)
	if err != nil {
		return entities.Request{}, err
	}
	if _, err := r.ddb.UpdateItem(ctx, in); err != nil {
		return entities.Request{}, staleOr(err)
	}
	req.Version++
	return req, nil
}

func (r *RequestDynamoRepository) updateInput(req entities.Request) (*dynamodb.UpdateItemInput, error) {
	av, err := attributevalue.MarshalMap(toRequestItem(req))
	if err != nil {
		return nil, err
	}
	delete(av, "service_id")
	return versionedUpdate(r.tableName, av, req.Version, requestOptionalAttrs...), nil
}

// Delete removes the request only while its stored version still equals
// expectedVersion, so a transition committed after the caller's read wins.
func (r *RequestDynamoRepository) Delete(ctx context.Context, id string, expectedVersion int64) error {
	stored, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if stored.ID == "" {
		return nil
	}

	_, err = r.ddb.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: r.deleteItems(stored.ServiceID, id, expectedVersion),
	})
	return staleOr(err)
}

func (r *RequestDynamoRepository) deleteItems(serviceID, id string, expectedVersion int64) []types.TransactWriteItem {
	return []types.TransactWriteItem{
		{Delete: &types.Delete{
			TableName:           aws.String(r.tableName),
			Key:                 idKey(id),
			ConditionExpression: aws.String("attribute_exists(#id) AND #version = :expected_version"),
			ExpressionAttributeNames: map[string]string{
				"#id":      attrID,
				"#version": attrVersion,
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":expected_version": &types.AttributeValueMemberN{Value: strconv.FormatInt(expectedVersion, 10)},
			},
		}},
		r.adjustCount(serviceID, -1),
	}
}

// CountByServiceID counts through the service_id reverse index.
func (r *RequestDynamoRepository) CountByServiceID(ctx context.Context, serviceID string) (int, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(requestsServiceIDIndex),
		KeyConditionExpression: aws.String("service_id = :sid"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sid": &types.AttributeValueMemberS{Value: serviceID},
		},
		Select: types.SelectCount,
	}

	total := 0
	p := dynamodb.NewQueryPaginator(r.ddb, in)
	for p.HasMorePages() {
		out, err := p.NextPage(ctx)
		if err != nil {
			return 0, err
		}
		total += int(out.Count)
	}
	return total, nil
}

func (r *RequestDynamoRepository) adjustCount(serviceID string, delta int) types.TransactWriteItem {
	return types.TransactWriteItem{Update: &types.Update{
		TableName:           aws.String(r.servicesTable),
		Key:                 idKey(serviceID),
		ConditionExpression: aws.String("attribute_exists(#id)"),
		UpdateExpression:    aws.String("ADD #count :delta"),
		ExpressionAttributeNames: map[string]string{
			"#id":    attrID,
			"#count": attrRequestCount,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":delta": &types.AttributeValueMemberN{Value: strconv.Itoa(delta)},
		},
	}}
}

func toRequestItem(req entities.Request) requestItem {
	it := requestItem{
		ID:              req.ID,
		ServiceID:       req.ServiceID,
		ClientID:        req.ClientID,
		Date:            formatTime(req.Date),
		Status:          string(req.Status),
		Details:         req.Details,
		DeliveryAddress: req.DeliveryAddress,
		PaymentID:       req.PaymentID,
		Version:         req.Version,
		UpdatedAt:       formatTime(req.UpdatedAt),
	}
	if req.EstimatedDate != nil {
		it.EstimatedDate = formatTime(*req.EstimatedDate)
	}
	return it
}

func fromRequestItem(it requestItem) entities.Request {
	req := entities.Request{
		ID:              it.ID,
		ServiceID:       it.ServiceID,
		ClientID:        it.ClientID,
		Date:            parseTime(it.Date),
		Status:          entities.RequestStatus(it.Status),
		Details:         it.Details,
		DeliveryAddress: it.DeliveryAddress,
		PaymentID:       it.PaymentID,
		Version:         it.Version,
		UpdatedAt:       parseTime(it.UpdatedAt),
	}
	if it.EstimatedDate != "" {
		t := parseTime(it.EstimatedDate)
		req.EstimatedDate = &t
	}
	return req
}
