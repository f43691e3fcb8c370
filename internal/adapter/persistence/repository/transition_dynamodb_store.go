package repository

import (
	"context"
	"errors"
	"log"

	"serviexpress/internal/domain/entities"
	"serviexpress/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// TransitionDynamoStore commits a request transition and its coupled
// service transition in one TransactWriteItems call. Each item is
// conditioned on the version the engine read, so two claims on the same
// service cannot both commit.
type TransitionDynamoStore struct {
	ddb      *dynamodb.Client
	requests *RequestDynamoRepository
	services *ServiceDynamoRepository
}

var _ interfaces.ITransitionStore = (*TransitionDynamoStore)(nil)

func NewTransitionDynamoStore(ddb *dynamodb.Client, requests *RequestDynamoRepository, services *ServiceDynamoRepository) *TransitionDynamoStore {
	return &TransitionDynamoStore{ddb: ddb, requests: requests, services: services}
}

func (s *TransitionDynamoStore) CommitTransition(ctx context.Context, r entities.Request, svc *entities.Service) error {
	items, err := s.transactItems(r, svc)
	if err != nil {
		return err
	}

	if len(items) == 1 {
		u := items[0].Update
		_, err = s.ddb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
			TableName:                 u.TableName,
			Key:                       u.Key,
			ConditionExpression:       u.ConditionExpression,
			UpdateExpression:          u.UpdateExpression,
			ExpressionAttributeNames:  u.ExpressionAttributeNames,
			ExpressionAttributeValues: u.ExpressionAttributeValues,
		})
	} else {
		_, err = s.ddb.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	}
	if err != nil {
		err = staleOr(err)
		if !errors.Is(err, interfaces.ErrStaleWrite) {
			log.Printf("[lifecycle][dynamodb] commit failed request_id=%s err=%v", r.ID, err)
		}
		return err
	}
	return nil
}

func (s *TransitionDynamoStore) transactItems(r entities.Request, svc *entities.Service) ([]types.TransactWriteItem, error) {
	reqIn, err := s.requests.updateInput(r)
	if err != nil {
		return nil, err
	}
	items := []types.TransactWriteItem{asTransactUpdate(reqIn)}
	if svc != nil {
		svcIn, err := s.services.updateInput(*svc)
		if err != nil {
			return nil, err
		}
		items = append(items, asTransactUpdate(svcIn))
	}
	return items, nil
}
