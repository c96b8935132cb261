package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/splitx/internal/auth"
	"github.com/mmynk/splitx/internal/middleware"
	"github.com/mmynk/splitx/internal/models"
	"github.com/mmynk/splitx/internal/storage"
)

var (
	errGroupNotFound      = errors.New("group not found")
	errExpenseNotFound    = errors.New("expense not found")
	errSettlementNotFound = errors.New("settlement not found")
	errUserNotFound       = errors.New("user not found")
	errNotMember          = errors.New("not a member of this group")
	errNotAuthorized      = errors.New("not authorized")
	errGroupIDRequired    = errors.New("group_id required")
)

// callerID returns the authenticated user, or an Unauthenticated error when
// the auth interceptor did not run.
func callerID(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return userID, nil
}

// internalError logs err and hides it behind CodeInternal.
func internalError(ctx context.Context, logger *slog.Logger, msg string, err error, args ...any) error {
	logger.ErrorContext(ctx, msg, append(args, "error", err)...)
	return connect.NewError(connect.CodeInternal, errors.New("internal error"))
}

// storeError maps a storage failure to a Connect error. Missing rows become
// NotFound carrying notFound as the message.
func storeError(ctx context.Context, logger *slog.Logger, msg string, err error, notFound error, args ...any) error {
	if errors.Is(err, storage.ErrNotFound) {
		return connect.NewError(connect.CodeNotFound, notFound)
	}
	return internalError(ctx, logger, msg, err, args...)
}

func invalidArgument(msg string) error {
	return connect.NewError(connect.CodeInvalidArgument, errors.New(msg))
}

// loadGroup fetches a group, mapping a missing group to NotFound "group not found".
func loadGroup(ctx context.Context, store storage.GroupStore, logger *slog.Logger, groupID string) (*models.Group, error) {
	if groupID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errGroupIDRequired)
	}
	group, err := store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, storeError(ctx, logger, "failed to load group", err, errGroupNotFound, "group_id", groupID)
	}
	return group, nil
}

// loadGroupForMember is loadGroup followed by a membership check.
func loadGroupForMember(ctx context.Context, store storage.GroupStore, logger *slog.Logger, groupID, userID string) (*models.Group, error) {
	group, err := loadGroup(ctx, store, logger, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(userID) {
		return nil, connect.NewError(connect.CodePermissionDenied, errNotMember)
	}
	return group, nil
}
