package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/splitx/internal/models"
)

const groupColumns = `id, name, description, type, created_by, created_at, updated_at`

func scanGroup(row interface{ Scan(...any) error }) (*models.Group, error) {
	group := &models.Group{}
	var groupType string
	err := row.Scan(&group.ID, &group.Name, &group.Description, &groupType,
		&group.CreatedBy, &group.CreatedAt, &group.UpdatedAt)
	group.Type = models.GroupType(groupType)
	return group, err
}

// CreateGroup persists a new group and its members.
func (s *Store) CreateGroup(ctx context.Context, group *models.Group) error {
	// Generate ID if not set
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}
	if group.UpdatedAt == 0 {
		group.UpdatedAt = group.CreatedAt
	}
	if group.Type == "" {
		group.Type = models.GroupTypeFriends
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := s.exec(ctx, tx,
			`INSERT INTO expense_groups (`+groupColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			group.ID, group.Name, group.Description, string(group.Type),
			group.CreatedBy, group.CreatedAt, group.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert group: %w", err)
		}

		for i, member := range group.Members {
			_, err = s.exec(ctx, tx,
				"INSERT INTO group_members (group_id, user_id, position) VALUES (?, ?, ?)",
				group.ID, member, i,
			)
			if err != nil {
				return fmt.Errorf("failed to insert group member: %w", err)
			}
		}
		return nil
	})
}

// GetGroup retrieves a group by ID, including its members.
func (s *Store) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group, err := scanGroup(s.queryRow(ctx, s.db,
		`SELECT `+groupColumns+` FROM expense_groups WHERE id = ?`, groupID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("group", groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}

	members, err := s.loadMembers(ctx, []string{groupID})
	if err != nil {
		return nil, err
	}
	group.Members = members[groupID]

	return group, nil
}

// ListGroupsByMember retrieves the groups a user belongs to, most recently updated first.
func (s *Store) ListGroupsByMember(ctx context.Context, userID string) ([]*models.Group, error) {
	rows, err := s.query(ctx, s.db,
		`SELECT g.id, g.name, g.description, g.type, g.created_by, g.created_at, g.updated_at
		 FROM expense_groups g
		 JOIN group_members m ON m.group_id = g.id
		 WHERE m.user_id = ?
		 ORDER BY g.updated_at DESC, g.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	var ids []string
	for rows.Next() {
		group, err := scanGroup(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
		ids = append(ids, group.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}
	rows.Close()

	members, err := s.loadMembers(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, group := range groups {
		group.Members = members[group.ID]
	}

	return groups, nil
}

// loadMembers returns member IDs per group in join order.
func (s *Store) loadMembers(ctx context.Context, groupIDs []string) (map[string][]string, error) {
	members := make(map[string][]string, len(groupIDs))
	if len(groupIDs) == 0 {
		return members, nil
	}

	rows, err := s.query(ctx, s.db,
		`SELECT group_id, user_id FROM group_members
		 WHERE group_id IN (`+placeholders(len(groupIDs))+`)
		 ORDER BY group_id, position`,
		stringArgs(groupIDs)...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get group members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var groupID, userID string
		if err := rows.Scan(&groupID, &userID); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		members[groupID] = append(members[groupID], userID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate group members: %w", err)
	}

	return members, nil
}

// UpdateGroup updates the group's name, description and type.
func (s *Store) UpdateGroup(ctx context.Context, group *models.Group) error {
	group.UpdatedAt = time.Now().Unix()

	result, err := s.exec(ctx, s.db,
		"UPDATE expense_groups SET name = ?, description = ?, type = ?, updated_at = ? WHERE id = ?",
		group.Name, group.Description, string(group.Type), group.UpdatedAt, group.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update group: %w", err)
	}
	return requireAffected(result, "group", group.ID)
}

// DeleteGroup removes a group. Members, expenses, splits and settlements cascade.
func (s *Store) DeleteGroup(ctx context.Context, groupID string) error {
	result, err := s.exec(ctx, s.db, "DELETE FROM expense_groups WHERE id = ?", groupID)
	if err != nil {
		return fmt.Errorf("failed to delete group: %w", err)
	}
	return requireAffected(result, "group", groupID)
}

// AddGroupMembers appends members to a group, skipping existing ones.
func (s *Store) AddGroupMembers(ctx context.Context, groupID string, userIDs []string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		var next int
		err := s.queryRow(ctx, tx,
			"SELECT COALESCE(MAX(position), -1) + 1 FROM group_members WHERE group_id = ?",
			groupID,
		).Scan(&next)
		if err != nil {
			return fmt.Errorf("failed to read member positions: %w", err)
		}

		for _, userID := range userIDs {
			result, err := s.exec(ctx, tx,
				`INSERT INTO group_members (group_id, user_id, position) VALUES (?, ?, ?)
				 ON CONFLICT (group_id, user_id) DO NOTHING`,
				groupID, userID, next,
			)
			if err != nil {
				return fmt.Errorf("failed to add group member: %w", err)
			}
			if n, _ := result.RowsAffected(); n > 0 {
				next++
			}
		}

		return s.touchGroup(ctx, tx, groupID)
	})
}

// RemoveGroupMember removes one member from a group.
func (s *Store) RemoveGroupMember(ctx context.Context, groupID, userID string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		result, err := s.exec(ctx, tx,
			"DELETE FROM group_members WHERE group_id = ? AND user_id = ?",
			groupID, userID,
		)
		if err != nil {
			return fmt.Errorf("failed to remove group member: %w", err)
		}
		if err := requireAffected(result, "group member", userID); err != nil {
			return err
		}
		return s.touchGroup(ctx, tx, groupID)
	})
}

func (s *Store) touchGroup(ctx context.Context, q querier, groupID string) error {
	result, err := s.exec(ctx, q,
		"UPDATE expense_groups SET updated_at = ? WHERE id = ?",
		time.Now().Unix(), groupID,
	)
	if err != nil {
		return fmt.Errorf("failed to touch group: %w", err)
	}
	return requireAffected(result, "group", groupID)
}

// requireAffected turns a zero-row update or delete into a not found error.
func requireAffected(result sql.Result, kind, id string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return notFound(kind, id)
	}
	return nil
}
