package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
)

const BalanceServiceName = "splitx.v1.BalanceService"

const (
	BalanceServiceGetGroupBalancesProcedure  = "/" + BalanceServiceName + "/GetGroupBalances"
	BalanceServiceGetBalanceSummaryProcedure = "/" + BalanceServiceName + "/GetBalanceSummary"
)

type GetGroupBalancesRequest struct {
	GroupID string `json:"groupId"`
}

type GroupBalancesResponse struct {
	Group       GroupRef     `json:"group"`
	Balances    []Balance    `json:"balances"`
	Settlements []Suggestion `json:"settlements"`
}

// GroupBalance is the caller's position in one group.
type GroupBalance struct {
	Group      GroupRef `json:"group"`
	TotalPaid  float64  `json:"totalPaid"`
	TotalOwed  float64  `json:"totalOwed"`
	NetBalance float64  `json:"netBalance"`
}

type BalanceSummaryResponse struct {
	TotalPaid     float64        `json:"totalPaid"`
	TotalOwed     float64        `json:"totalOwed"`
	NetBalance    float64        `json:"netBalance"`
	GroupBalances []GroupBalance `json:"groupBalances"`
}

type BalanceServiceHandler interface {
	GetGroupBalances(context.Context, *connect.Request[GetGroupBalancesRequest]) (*connect.Response[GroupBalancesResponse], error)
	GetBalanceSummary(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[BalanceSummaryResponse], error)
}

func NewBalanceServiceHandler(svc BalanceServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	routes := map[string]http.Handler{
		BalanceServiceGetGroupBalancesProcedure:  connect.NewUnaryHandler(BalanceServiceGetGroupBalancesProcedure, svc.GetGroupBalances, opts...),
		BalanceServiceGetBalanceSummaryProcedure: connect.NewUnaryHandler(BalanceServiceGetBalanceSummaryProcedure, svc.GetBalanceSummary, opts...),
	}
	return "/" + BalanceServiceName + "/", procedureMux(routes)
}

type BalanceServiceClient struct {
	getGroupBalances  *connect.Client[GetGroupBalancesRequest, GroupBalancesResponse]
	getBalanceSummary *connect.Client[emptypb.Empty, BalanceSummaryResponse]
}

func NewBalanceServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *BalanceServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &BalanceServiceClient{
		getGroupBalances:  connect.NewClient[GetGroupBalancesRequest, GroupBalancesResponse](httpClient, baseURL+BalanceServiceGetGroupBalancesProcedure, opts...),
		getBalanceSummary: connect.NewClient[emptypb.Empty, BalanceSummaryResponse](httpClient, baseURL+BalanceServiceGetBalanceSummaryProcedure, opts...),
	}
}

func (c *BalanceServiceClient) GetGroupBalances(ctx context.Context, req *connect.Request[GetGroupBalancesRequest]) (*connect.Response[GroupBalancesResponse], error) {
	return c.getGroupBalances.CallUnary(ctx, req)
}

func (c *BalanceServiceClient) GetBalanceSummary(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[BalanceSummaryResponse], error) {
	return c.getBalanceSummary.CallUnary(ctx, req)
}
