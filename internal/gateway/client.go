package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
)

// Service looks up transaction details on the Safe client-gateway.
type Service interface {
	// GetTransactionDetails fetches the detail record for a safeTxHash or
	// gateway transaction id on the given chain.
	GetTransactionDetails(ctx context.Context, chainID uint64, id string) (*TransactionDetails, error)
}

type service struct {
	client  *resty.Client
	baseURL string
}

// NewService creates a gateway client against the given base URL.
//
//nolint:ireturn // Returning interface is intentional for dependency injection
func NewService(baseURL string, timeout time.Duration) Service {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")

	return &service{client: client, baseURL: baseURL}
}

// GetTransactionDetails fetches the detail record for one Safe transaction.
func (s *service) GetTransactionDetails(ctx context.Context, chainID uint64, id string) (*TransactionDetails, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		Get(fmt.Sprintf("/v1/chains/%d/transactions/%s", chainID, id))
	if err != nil {
		return nil, errors.Wrap(err, "failed to query gateway")
	}

	if resp.IsError() {
		return nil, errors.Errorf("gateway returned status %d for transaction %s", resp.StatusCode(), id)
	}

	var details TransactionDetails
	if err := json.Unmarshal(resp.Body(), &details); err != nil {
		return nil, errors.Wrap(err, "failed to decode transaction details")
	}

	return &details, nil
}
