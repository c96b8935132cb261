package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

const SettlementServiceName = "splitx.v1.SettlementService"

const (
	SettlementServiceListSettlementsProcedure          = "/" + SettlementServiceName + "/ListSettlements"
	SettlementServiceCreateSettlementProcedure         = "/" + SettlementServiceName + "/CreateSettlement"
	SettlementServiceUpdateSettlementProcedure         = "/" + SettlementServiceName + "/UpdateSettlement"
	SettlementServiceGetSettlementSuggestionsProcedure = "/" + SettlementServiceName + "/GetSettlementSuggestions"
)

type ListSettlementsRequest struct {
	GroupID string `json:"groupId"`
}

type ListSettlementsResponse struct {
	Settlements []Settlement `json:"settlements"`
}

type CreateSettlementRequest struct {
	FromUser   string   `json:"fromUser"`
	ToUser     string   `json:"toUser"`
	GroupID    string   `json:"groupId"`
	Amount     float64  `json:"amount"`
	ExpenseIDs []string `json:"expenseIds,omitempty"`
}

// UpdateSettlementRequest changes the status and payment reference when set.
type UpdateSettlementRequest struct {
	SettlementID string `json:"settlementId"`
	Status       string `json:"status,omitempty"`
	PaymentID    string `json:"paymentId,omitempty"`
}

type SettlementResponse struct {
	Settlement Settlement `json:"settlement"`
}

type GetSettlementSuggestionsRequest struct {
	GroupID string `json:"groupId"`
}

type SettlementSuggestionsResponse struct {
	Suggestions []Suggestion `json:"suggestions"`
}

type SettlementServiceHandler interface {
	ListSettlements(context.Context, *connect.Request[ListSettlementsRequest]) (*connect.Response[ListSettlementsResponse], error)
	CreateSettlement(context.Context, *connect.Request[CreateSettlementRequest]) (*connect.Response[SettlementResponse], error)
	UpdateSettlement(context.Context, *connect.Request[UpdateSettlementRequest]) (*connect.Response[SettlementResponse], error)
	GetSettlementSuggestions(context.Context, *connect.Request[GetSettlementSuggestionsRequest]) (*connect.Response[SettlementSuggestionsResponse], error)
}

func NewSettlementServiceHandler(svc SettlementServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	routes := map[string]http.Handler{
		SettlementServiceListSettlementsProcedure:          connect.NewUnaryHandler(SettlementServiceListSettlementsProcedure, svc.ListSettlements, opts...),
		SettlementServiceCreateSettlementProcedure:         connect.NewUnaryHandler(SettlementServiceCreateSettlementProcedure, svc.CreateSettlement, opts...),
		SettlementServiceUpdateSettlementProcedure:         connect.NewUnaryHandler(SettlementServiceUpdateSettlementProcedure, svc.UpdateSettlement, opts...),
		SettlementServiceGetSettlementSuggestionsProcedure: connect.NewUnaryHandler(SettlementServiceGetSettlementSuggestionsProcedure, svc.GetSettlementSuggestions, opts...),
	}
	return "/" + SettlementServiceName + "/", procedureMux(routes)
}

type SettlementServiceClient struct {
	listSettlements          *connect.Client[ListSettlementsRequest, ListSettlementsResponse]
	createSettlement         *connect.Client[CreateSettlementRequest, SettlementResponse]
	updateSettlement         *connect.Client[UpdateSettlementRequest, SettlementResponse]
	getSettlementSuggestions *connect.Client[GetSettlementSuggestionsRequest, SettlementSuggestionsResponse]
}

func NewSettlementServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *SettlementServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &SettlementServiceClient{
		listSettlements:          connect.NewClient[ListSettlementsRequest, ListSettlementsResponse](httpClient, baseURL+SettlementServiceListSettlementsProcedure, opts...),
		createSettlement:         connect.NewClient[CreateSettlementRequest, SettlementResponse](httpClient, baseURL+SettlementServiceCreateSettlementProcedure, opts...),
		updateSettlement:         connect.NewClient[UpdateSettlementRequest, SettlementResponse](httpClient, baseURL+SettlementServiceUpdateSettlementProcedure, opts...),
		getSettlementSuggestions: connect.NewClient[GetSettlementSuggestionsRequest, SettlementSuggestionsResponse](httpClient, baseURL+SettlementServiceGetSettlementSuggestionsProcedure, opts...),
	}
}

func (c *SettlementServiceClient) ListSettlements(ctx context.Context, req *connect.Request[ListSettlementsRequest]) (*connect.Response[ListSettlementsResponse], error) {
	return c.listSettlements.CallUnary(ctx, req)
}

func (c *SettlementServiceClient) CreateSettlement(ctx context.Context, req *connect.Request[CreateSettlementRequest]) (*connect.Response[SettlementResponse], error) {
	return c.createSettlement.CallUnary(ctx, req)
}

func (c *SettlementServiceClient) UpdateSettlement(ctx context.Context, req *connect.Request[UpdateSettlementRequest]) (*connect.Response[SettlementResponse], error) {
	return c.updateSettlement.CallUnary(ctx, req)
}

func (c *SettlementServiceClient) GetSettlementSuggestions(ctx context.Context, req *connect.Request[GetSettlementSuggestionsRequest]) (*connect.Response[SettlementSuggestionsResponse], error) {
	return c.getSettlementSuggestions.CallUnary(ctx, req)
}
