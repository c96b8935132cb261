package api

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"
)

const ExpenseServiceName = "splitx.v1.ExpenseService"

const (
	ExpenseServiceCreateExpenseProcedure       = "/" + ExpenseServiceName + "/CreateExpense"
	ExpenseServiceGetExpenseProcedure          = "/" + ExpenseServiceName + "/GetExpense"
	ExpenseServiceListExpensesByGroupProcedure = "/" + ExpenseServiceName + "/ListExpensesByGroup"
	ExpenseServiceListMyExpensesProcedure      = "/" + ExpenseServiceName + "/ListMyExpenses"
	ExpenseServiceUpdateExpenseProcedure       = "/" + ExpenseServiceName + "/UpdateExpense"
	ExpenseServiceDeleteExpenseProcedure       = "/" + ExpenseServiceName + "/DeleteExpense"
)

// CreateExpenseRequest describes a new expense. PaidBy defaults to the caller
// and Date to the creation time. Splits are read only for the custom split type.
type CreateExpenseRequest struct {
	Title       string       `json:"title"`
	Amount      float64      `json:"amount"`
	PaidBy      string       `json:"paidBy,omitempty"`
	GroupID     string       `json:"groupId"`
	SplitType   string       `json:"splitType"`
	Splits      []SplitInput `json:"splits,omitempty"`
	Description string       `json:"description,omitempty"`
	Category    string       `json:"category,omitempty"`
	Date        int64        `json:"date,omitempty"`
}

type GetExpenseRequest struct {
	ExpenseID string `json:"expenseId"`
}

type ListExpensesByGroupRequest struct {
	GroupID string `json:"groupId"`
}

// UpdateExpenseRequest changes only the fields that are set. Splits are
// recomputed when Amount or SplitType is present.
type UpdateExpenseRequest struct {
	ExpenseID   string       `json:"expenseId"`
	Title       string       `json:"title,omitempty"`
	Amount      *float64     `json:"amount,omitempty"`
	SplitType   string       `json:"splitType,omitempty"`
	Splits      []SplitInput `json:"splits,omitempty"`
	Description *string      `json:"description,omitempty"`
	Category    string       `json:"category,omitempty"`
	Date        int64        `json:"date,omitempty"`
}

type DeleteExpenseRequest struct {
	ExpenseID string `json:"expenseId"`
}

type ExpenseResponse struct {
	Expense Expense `json:"expense"`
}

type ListExpensesResponse struct {
	Expenses []Expense `json:"expenses"`
}

type ExpenseServiceHandler interface {
	CreateExpense(context.Context, *connect.Request[CreateExpenseRequest]) (*connect.Response[ExpenseResponse], error)
	GetExpense(context.Context, *connect.Request[GetExpenseRequest]) (*connect.Response[ExpenseResponse], error)
	ListExpensesByGroup(context.Context, *connect.Request[ListExpensesByGroupRequest]) (*connect.Response[ListExpensesResponse], error)
	ListMyExpenses(context.Context, *connect.Request[emptypb.Empty]) (*connect.Response[ListExpensesResponse], error)
	UpdateExpense(context.Context, *connect.Request[UpdateExpenseRequest]) (*connect.Response[ExpenseResponse], error)
	DeleteExpense(context.Context, *connect.Request[DeleteExpenseRequest]) (*connect.Response[emptypb.Empty], error)
}

func NewExpenseServiceHandler(svc ExpenseServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	routes := map[string]http.Handler{
		ExpenseServiceCreateExpenseProcedure:       connect.NewUnaryHandler(ExpenseServiceCreateExpenseProcedure, svc.CreateExpense, opts...),
		ExpenseServiceGetExpenseProcedure:          connect.NewUnaryHandler(ExpenseServiceGetExpenseProcedure, svc.GetExpense, opts...),
		ExpenseServiceListExpensesByGroupProcedure: connect.NewUnaryHandler(ExpenseServiceListExpensesByGroupProcedure, svc.ListExpensesByGroup, opts...),
		ExpenseServiceListMyExpensesProcedure:      connect.NewUnaryHandler(ExpenseServiceListMyExpensesProcedure, svc.ListMyExpenses, opts...),
		ExpenseServiceUpdateExpenseProcedure:       connect.NewUnaryHandler(ExpenseServiceUpdateExpenseProcedure, svc.UpdateExpense, opts...),
		ExpenseServiceDeleteExpenseProcedure:       connect.NewUnaryHandler(ExpenseServiceDeleteExpenseProcedure, svc.DeleteExpense, opts...),
	}
	return "/" + ExpenseServiceName + "/", procedureMux(routes)
}

type ExpenseServiceClient struct {
	createExpense       *connect.Client[CreateExpenseRequest, ExpenseResponse]
	getExpense          *connect.Client[GetExpenseRequest, ExpenseResponse]
	listExpensesByGroup *connect.Client[ListExpensesByGroupRequest, ListExpensesResponse]
	listMyExpenses      *connect.Client[emptypb.Empty, ListExpensesResponse]
	updateExpense       *connect.Client[UpdateExpenseRequest, ExpenseResponse]
	deleteExpense       *connect.Client[DeleteExpenseRequest, emptypb.Empty]
}

func NewExpenseServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *ExpenseServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &ExpenseServiceClient{
		createExpense:       connect.NewClient[CreateExpenseRequest, ExpenseResponse](httpClient, baseURL+ExpenseServiceCreateExpenseProcedure, opts...),
		getExpense:          connect.NewClient[GetExpenseRequest, ExpenseResponse](httpClient, baseURL+ExpenseServiceGetExpenseProcedure, opts...),
		listExpensesByGroup: connect.NewClient[ListExpensesByGroupRequest, ListExpensesResponse](httpClient, baseURL+ExpenseServiceListExpensesByGroupProcedure, opts...),
		listMyExpenses:      connect.NewClient[emptypb.Empty, ListExpensesResponse](httpClient, baseURL+ExpenseServiceListMyExpensesProcedure, opts...),
		updateExpense:       connect.NewClient[UpdateExpenseRequest, ExpenseResponse](httpClient, baseURL+ExpenseServiceUpdateExpenseProcedure, opts...),
		deleteExpense:       connect.NewClient[DeleteExpenseRequest, emptypb.Empty](httpClient, baseURL+ExpenseServiceDeleteExpenseProcedure, opts...),
	}
}

func (c *ExpenseServiceClient) CreateExpense(ctx context.Context, req *connect.Request[CreateExpenseRequest]) (*connect.Response[ExpenseResponse], error) {
	return c.createExpense.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) GetExpense(ctx context.Context, req *connect.Request[GetExpenseRequest]) (*connect.Response[ExpenseResponse], error) {
	return c.getExpense.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) ListExpensesByGroup(ctx context.Context, req *connect.Request[ListExpensesByGroupRequest]) (*connect.Response[ListExpensesResponse], error) {
	return c.listExpensesByGroup.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) ListMyExpenses(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[ListExpensesResponse], error) {
	return c.listMyExpenses.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) UpdateExpense(ctx context.Context, req *connect.Request[UpdateExpenseRequest]) (*connect.Response[ExpenseResponse], error) {
	return c.updateExpense.CallUnary(ctx, req)
}

func (c *ExpenseServiceClient) DeleteExpense(ctx context.Context, req *connect.Request[DeleteExpenseRequest]) (*connect.Response[emptypb.Empty], error) {
	return c.deleteExpense.CallUnary(ctx, req)
}
