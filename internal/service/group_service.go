package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"connectrpc.com/connect"
	"google.golang.org/protobuf/types/known/emptypb"

	"github.com/mmynk/splitx/internal/models"
	"github.com/mmynk/splitx/internal/storage"
	"github.com/mmynk/splitx/pkg/api"
)

// GroupService implements the Connect GroupService.
type GroupService struct {
	store  storage.Store
	logger *slog.Logger
}

var _ api.GroupServiceHandler = (*GroupService)(nil)

// NewGroupService creates a new GroupService with the given storage backend.
func NewGroupService(store storage.Store, logger *slog.Logger) *GroupService {
	return &GroupService{store: store, logger: logger}
}

// CreateGroup creates a group owned by the caller. The caller is always the
// first member; duplicate member IDs are dropped.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[api.CreateGroupRequest]) (*connect.Response[api.GroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("CreateGroup request received",
		"name", req.Msg.Name,
		"members_count", len(req.Msg.Members),
	)

	name := strings.TrimSpace(req.Msg.Name)
	if name == "" {
		return nil, invalidArgument("please provide a group name")
	}
	groupType := models.GroupTypeFriends
	if req.Msg.Type != "" {
		groupType = models.GroupType(req.Msg.Type)
		if !groupType.Valid() {
			return nil, invalidArgument(fmt.Sprintf("invalid group type %q", req.Msg.Type))
		}
	}

	members := unique(append([]string{userID}, req.Msg.Members...))
	if err := s.requireUsers(ctx, members); err != nil {
		return nil, err
	}

	group := &models.Group{
		Name:        name,
		Description: req.Msg.Description,
		Type:        groupType,
		CreatedBy:   userID,
		Members:     members,
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		return nil, internalError(ctx, s.logger, "CreateGroup failed", err)
	}

	s.logger.Info("Group created", "group_id", group.ID)
	return s.groupResponse(ctx, group)
}

// GetGroup retrieves a group the caller belongs to.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[api.GetGroupRequest]) (*connect.Response[api.GroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	group, err := loadGroupForMember(ctx, s.store, s.logger, req.Msg.GroupID, userID)
	if err != nil {
		return nil, err
	}
	return s.groupResponse(ctx, group)
}

// ListGroups returns the caller's groups, most recently updated first.
func (s *GroupService) ListGroups(ctx context.Context, req *connect.Request[emptypb.Empty]) (*connect.Response[api.ListGroupsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	groups, err := s.store.ListGroupsByMember(ctx, userID)
	if err != nil {
		return nil, internalError(ctx, s.logger, "ListGroups failed", err, "user_id", userID)
	}

	users, err := loadUsers(ctx, s.store, groupUserIDs(groups...))
	if err != nil {
		return nil, internalError(ctx, s.logger, "ListGroups failed", err, "user_id", userID)
	}

	out := make([]api.Group, len(groups))
	for i, g := range groups {
		out[i] = toAPIGroup(g, users)
	}

	s.logger.Info("ListGroups successful", "count", len(groups))
	return connect.NewResponse(&api.ListGroupsResponse{Groups: out}), nil
}

// UpdateGroup changes name, description and type. Creator only.
func (s *GroupService) UpdateGroup(ctx context.Context, req *connect.Request[api.UpdateGroupRequest]) (*connect.Response[api.GroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("UpdateGroup request received", "group_id", req.Msg.GroupID)

	group, err := s.loadOwnedGroup(ctx, req.Msg.GroupID, userID, "not authorized to update this group")
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(req.Msg.Name); name != "" {
		group.Name = name
	}
	if req.Msg.Description != nil {
		group.Description = *req.Msg.Description
	}
	if req.Msg.Type != "" {
		groupType := models.GroupType(req.Msg.Type)
		if !groupType.Valid() {
			return nil, invalidArgument(fmt.Sprintf("invalid group type %q", req.Msg.Type))
		}
		group.Type = groupType
	}

	if err := s.store.UpdateGroup(ctx, group); err != nil {
		return nil, storeError(ctx, s.logger, "UpdateGroup failed", err, errGroupNotFound, "group_id", group.ID)
	}

	s.logger.Info("Group updated", "group_id", group.ID)
	return s.reloadGroup(ctx, group.ID)
}

// DeleteGroup removes a group with its expenses and settlements. Creator only.
func (s *GroupService) DeleteGroup(ctx context.Context, req *connect.Request[api.DeleteGroupRequest]) (*connect.Response[emptypb.Empty], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("DeleteGroup request received", "group_id", req.Msg.GroupID)

	group, err := s.loadOwnedGroup(ctx, req.Msg.GroupID, userID, "not authorized to delete this group")
	if err != nil {
		return nil, err
	}

	if err := s.store.DeleteGroup(ctx, group.ID); err != nil {
		return nil, storeError(ctx, s.logger, "DeleteGroup failed", err, errGroupNotFound, "group_id", group.ID)
	}

	s.logger.Info("Group deleted", "group_id", group.ID)
	return connect.NewResponse(&emptypb.Empty{}), nil
}

// AddMembers appends registered users to the group. Any member may add.
func (s *GroupService) AddMembers(ctx context.Context, req *connect.Request[api.AddMembersRequest]) (*connect.Response[api.GroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("AddMembers request received", "group_id", req.Msg.GroupID, "count", len(req.Msg.MemberIDs))

	memberIDs := unique(req.Msg.MemberIDs)
	if len(memberIDs) == 0 {
		return nil, invalidArgument("please provide member ids")
	}

	group, err := loadGroup(ctx, s.store, s.logger, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}
	if group.CreatedBy != userID && !group.HasMember(userID) {
		return nil, connect.NewError(connect.CodePermissionDenied, errNotAuthorized)
	}
	if err := s.requireUsers(ctx, memberIDs); err != nil {
		return nil, err
	}

	if err := s.store.AddGroupMembers(ctx, group.ID, memberIDs); err != nil {
		return nil, storeError(ctx, s.logger, "AddMembers failed", err, errGroupNotFound, "group_id", group.ID)
	}
	return s.reloadGroup(ctx, group.ID)
}

// RemoveMember drops a member. Creator only; the creator cannot be removed.
func (s *GroupService) RemoveMember(ctx context.Context, req *connect.Request[api.RemoveMemberRequest]) (*connect.Response[api.GroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("RemoveMember request received", "group_id", req.Msg.GroupID, "member_id", req.Msg.MemberID)

	group, err := s.loadOwnedGroup(ctx, req.Msg.GroupID, userID, errNotAuthorized.Error())
	if err != nil {
		return nil, err
	}
	if req.Msg.MemberID == group.CreatedBy {
		return nil, invalidArgument("cannot remove group creator")
	}
	if !group.HasMember(req.Msg.MemberID) {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("user %q is not a member of this group", req.Msg.MemberID))
	}

	if err := s.store.RemoveGroupMember(ctx, group.ID, req.Msg.MemberID); err != nil {
		return nil, storeError(ctx, s.logger, "RemoveMember failed", err, errGroupNotFound, "group_id", group.ID)
	}
	return s.reloadGroup(ctx, group.ID)
}

func (s *GroupService) loadOwnedGroup(ctx context.Context, groupID, userID, denied string) (*models.Group, error) {
	group, err := loadGroup(ctx, s.store, s.logger, groupID)
	if err != nil {
		return nil, err
	}
	if group.CreatedBy != userID {
		return nil, connect.NewError(connect.CodePermissionDenied, errors.New(denied))
	}
	return group, nil
}

// requireUsers rejects IDs that do not belong to a registered user.
func (s *GroupService) requireUsers(ctx context.Context, ids []string) error {
	users, err := s.store.GetUsersByIDs(ctx, ids)
	if err != nil {
		return internalError(ctx, s.logger, "failed to resolve users", err)
	}
	for _, id := range ids {
		if _, ok := users[id]; !ok {
			return invalidArgument(fmt.Sprintf("unknown user %q", id))
		}
	}
	return nil
}

func (s *GroupService) reloadGroup(ctx context.Context, groupID string) (*connect.Response[api.GroupResponse], error) {
	group, err := loadGroup(ctx, s.store, s.logger, groupID)
	if err != nil {
		return nil, err
	}
	return s.groupResponse(ctx, group)
}

func (s *GroupService) groupResponse(ctx context.Context, group *models.Group) (*connect.Response[api.GroupResponse], error) {
	users, err := loadUsers(ctx, s.store, groupUserIDs(group))
	if err != nil {
		return nil, internalError(ctx, s.logger, "failed to resolve group members", err, "group_id", group.ID)
	}
	return connect.NewResponse(&api.GroupResponse{Group: toAPIGroup(group, users)}), nil
}
