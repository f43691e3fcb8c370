package repository

import (
	"context"
	"log"
	"sort"
	"strings"

	"serviexpress/internal/domain/entities"
	"serviexpress/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const attrRequestCount = "request_count"

type serviceItem struct {
	ID          string `dynamodbav:"id"`
	Name        string `dynamodbav:"name"`
	NameLower   string `dynamodbav:"name_lower"`
	Description string `dynamodbav:"description"`
	Price       string `dynamodbav:"price"`
	Status      string `dynamodbav:"status"`
	ProviderID  string `dynamodbav:"provider_id,omitempty"`
	ClientID    string `dynamodbav:"client_id,omitempty"`
	ClaimedBy   string `dynamodbav:"claimed_by,omitempty"`
	Version     int64  `dynamodbav:"version"`
	CreatedAt   string `dynamodbav:"created_at"`
	UpdatedAt   string `dynamodbav:"updated_at"`
}

// serviceOptionalAttrs are removed from the stored item when the entity
// leaves them empty.
var serviceOptionalAttrs = []string{"provider_id", "client_id", "claimed_by"}

// ServiceDynamoRepository persists Service entities in DynamoDB.
//
// Table requirements:
//   - PK: id (string)
//
// request_count is maintained by RequestDynamoRepository in the same
// transaction that creates or deletes a request, so Delete can refuse a
// referenced service with a single conditional write.
type ServiceDynamoRepository struct {
	ddb       *dynamodb.Client
	tableName string
}

var _ interfaces.IServiceRepository = (*ServiceDynamoRepository)(nil)

func NewServiceDynamoRepository(ddb *dynamodb.Client, tableName string) *ServiceDynamoRepository {
	return &ServiceDynamoRepository{ddb: ddb, tableName: tableName}
}

func (r *ServiceDynamoRepository) Create(ctx context.Context, s entities.Service) (entities.Service, error) {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.Version = 1
	av, err := attributevalue.MarshalMap(toServiceItem(s))
	if err != nil {
		return entities.Service{}, err
	}

	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": attrID,
		},
	})
	if err != nil {
		return entities.Service{}, err
	}
	return s, nil
}

func (r *ServiceDynamoRepository) GetByID(ctx context.Context, id string) (entities.Service, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            idKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.Service{}, err
	}
	if len(out.Item) == 0 {
		return entities.Service{}, nil
	}

	var it serviceItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.Service{}, err
	}
	return fromServiceItem(it), nil
}

// List scans the table with the status and provider constraints pushed to
// the filter expression, then applies the full filter, orders by creation
// time and slices the page.
func (r *ServiceDynamoRepository) List(ctx context.Context, filter entities.ServiceFilter, page entities.PageRequest) (entities.Page[entities.Service], error) {
	filterExpr, names, values := serviceScanFilter(filter)
	raw, err := scanAll(ctx, r.ddb, r.tableName, filterExpr, names, values)
	if err != nil {
		return entities.Page[entities.Service]{}, err
	}

	matched := make([]entities.Service, 0, len(raw))
	for _, av := range raw {
		var it serviceItem
		if err := attributevalue.UnmarshalMap(av, &it); err != nil {
			return entities.Page[entities.Service]{}, err
		}
		if s := fromServiceItem(it); filter.Matches(s) {
			matched = append(matched, s)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].CreatedAt.Before(matched[j].CreatedAt)
	})
	return entities.Paginate(matched, page), nil
}

func (r *ServiceDynamoRepository) Update(ctx context.Context, s entities.Service) (entities.Service, error) {
	in, err := r.updateInput(s)
	if err != nil {
		return entities.Service{}, err
	}
	if _, err := r.ddb.UpdateItem(ctx, in); err != nil {
		return entities.Service{}, staleOr(err)
	}
	s.Version++
	return s, nil
}

func (r *ServiceDynamoRepository) updateInput(s entities.Service) (*dynamodb.UpdateItemInput, error) {
	av, err := attributevalue.MarshalMap(toServiceItem(s))
	if err != nil {
		return nil, err
	}
	return versionedUpdate(r.tableName, av, s.Version, serviceOptionalAttrs...), nil
}

// Delete removes the service unless a request still references it. A
// missing service is not an error.
func (r *ServiceDynamoRepository) Delete(ctx context.Context, id string) error {
	_, err := r.ddb.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 idKey(id),
		ConditionExpression: aws.String("attribute_not_exists(#id) OR attribute_not_exists(#count) OR #count <= :zero"),
		ExpressionAttributeNames: map[string]string{
			"#id":    attrID,
			"#count": attrRequestCount,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":zero": &types.AttributeValueMemberN{Value: "0"},
		},
	})
	if isConditionalCheckFailed(err) {
		log.Printf("[service][dynamodb] delete refused service_id=%s: referenced by requests", id)
		return interfaces.ErrInUse
	}
	return err
}

func serviceScanFilter(f entities.ServiceFilter) (string, map[string]string, map[string]types.AttributeValue) {
	names := map[string]string{}
	values := map[string]types.AttributeValue{}
	var status, provider, name string
	if f.Status != "" {
		names["#status"] = "status"
		values[":status"] = &types.AttributeValueMemberS{Value: string(f.Status)}
		status = "#status = :status"
	}
	if f.ProviderID != "" {
		names["#provider_id"] = "provider_id"
		values[":provider_id"] = &types.AttributeValueMemberS{Value: f.ProviderID}
		provider = "#provider_id = :provider_id"
	}
	if q := strings.ToLower(strings.TrimSpace(f.NameContains)); q != "" {
		names["#name_lower"] = "name_lower"
		values[":name_lower"] = &types.AttributeValueMemberS{Value: q}
		name = "contains(#name_lower, :name_lower)"
	}
	return andFilter(status, provider, name), names, values
}

func toServiceItem(s entities.Service) serviceItem {
	return serviceItem{
		ID:          s.ID,
		Name:        s.Name,
		NameLower:   strings.ToLower(s.Name),
		Description: s.Description,
		Price:       s.Price.String(),
		Status:      string(s.Status),
		ProviderID:  s.ProviderID,
		ClientID:    s.ClientID,
		ClaimedBy:   s.ClaimedBy,
		Version:     s.Version,
		CreatedAt:   formatTime(s.CreatedAt),
		UpdatedAt:   formatTime(s.UpdatedAt),
	}
}

func fromServiceItem(it serviceItem) entities.Service {
	price, err := decimal.NewFromString(it.Price)
	if err != nil {
		log.Printf("[service][dynamodb] unreadable price service_id=%s price=%q", it.ID, it.Price)
	}
	return entities.Service{
		ID:          it.ID,
		Name:        it.Name,
		Description: it.Description,
		Price:       price,
		Status:      entities.ServiceStatus(it.Status),
		ProviderID:  it.ProviderID,
		ClientID:    it.ClientID,
		ClaimedBy:   it.ClaimedBy,
		Version:     it.Version,
		CreatedAt:   parseTime(it.CreatedAt),
		UpdatedAt:   parseTime(it.UpdatedAt),
	}
}
