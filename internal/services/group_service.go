package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "budgeteer/internal/errors"
	"budgeteer/internal/models"
	"budgeteer/internal/pagination"
)

// groupService handles groups and their membership.
type groupService struct {
	db *gorm.DB
}

// NewGroupService creates a new GroupServicer.
func NewGroupService(db *gorm.DB) GroupServicer {
	return &groupService{db: db}
}

// CreateGroup creates a group with userID as creator and first member.
func (s *groupService) CreateGroup(userID, name string) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "group name is required")
	}

	group := &models.Group{Name: name, CreatorUserID: userID}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		member := &models.GroupMember{GroupID: group.ID, UserID: userID}
		if err := tx.Create(member).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// GetUserGroups lists the groups userID belongs to or created, newest first.
func (s *groupService) GetUserGroups(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Group], error) {
	page.Defaults()

	memberOf := s.db.Model(&models.GroupMember{}).Select("group_id").Where("user_id = ?", userID)
	base := s.db.Model(&models.Group{}).Where("creator_user_id = ? OR id IN (?)", userID, memberOf)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var groups []models.Group
	if err := base.Scopes(pagination.Paginate(page), pagination.NewestFirst("created_at")).
		Find(&groups).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(groups, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetGroup returns a group with its current members. Only members and the
// creator may view it.
func (s *groupService) GetGroup(userID, groupID string) (*GroupDetail, error) {
	var detail *GroupDetail
	err := s.db.Transaction(func(tx *gorm.DB) error {
		group, err := loadAccessibleGroup(tx, groupID, userID)
		if err != nil {
			return err
		}

		var members []models.GroupMember
		if err := tx.Where("group_id = ?", groupID).Order("created_at, id").Find(&members).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		ids := make([]string, len(members))
		for i, m := range members {
			ids[i] = m.UserID
		}
		names, err := usernames(tx, ids)
		if err != nil {
			return err
		}

		detail = &GroupDetail{Group: *group, Members: make([]MemberInfo, len(members))}
		for i, m := range members {
			detail.Members[i] = MemberInfo{UserID: m.UserID, Username: names[m.UserID], JoinedAt: m.CreatedAt}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// AddMember adds the user called username to the group.
func (s *groupService) AddMember(userID, groupID, username string) (*models.GroupMember, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "username is required")
	}

	var member *models.GroupMember
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := loadAccessibleGroup(tx, groupID, userID); err != nil {
			return err
		}

		var user models.User
		if err := tx.Where("username = ? AND is_active = ?", username, true).First(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrUserNotFound
			}
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		ok, err := isGroupMember(tx, groupID, user.ID)
		if err != nil {
			return err
		}
		if ok {
			return apperrors.ErrDuplicateMember
		}

		member = &models.GroupMember{GroupID: groupID, UserID: user.ID}
		if err := tx.Create(member).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// RemoveMember removes memberUserID from the group. Members may remove
// themselves; the creator may remove anyone. Past shares are untouched.
func (s *groupService) RemoveMember(userID, groupID, memberUserID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		group, err := loadAccessibleGroup(tx, groupID, userID)
		if err != nil {
			return err
		}
		if userID != memberUserID && userID != group.CreatorUserID {
			return apperrors.WithMessage(apperrors.ErrForbidden, "only the group creator can remove other members")
		}

		result := tx.Where("group_id = ? AND user_id = ?", groupID, memberUserID).Delete(&models.GroupMember{})
		if result.Error != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.WithMessage(apperrors.ErrNotFound, "User is not a member of this group")
		}
		return nil
	})
}

// DeleteGroup deletes a group and everything recorded in it. Creator only.
func (s *groupService) DeleteGroup(userID, groupID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		group, err := loadAccessibleGroup(tx, groupID, userID)
		if err != nil {
			return err
		}
		if group.CreatorUserID != userID {
			return apperrors.WithMessage(apperrors.ErrForbidden, "only the group creator can delete the group")
		}

		expenseIDs := tx.Model(&models.SharedExpense{}).Select("id").Where("group_id = ?", groupID)
		steps := []struct {
			query string
			args  []interface{}
			model interface{}
		}{
			{"shared_expense_id IN (?)", []interface{}{expenseIDs}, &models.ExpenseShare{}},
			{"group_id = ?", []interface{}{groupID}, &models.SharedExpense{}},
			{"group_id = ?", []interface{}{groupID}, &models.Settlement{}},
			{"group_id = ?", []interface{}{groupID}, &models.GroupMember{}},
			{"id = ?", []interface{}{groupID}, &models.Group{}},
		}
		for _, step := range steps {
			if err := tx.Where(step.query, step.args...).Delete(step.model).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return nil
	})
}

// loadGroup fetches a group by id.
func loadGroup(tx *gorm.DB, groupID string) (*models.Group, error) {
	var group models.Group
	if err := tx.Where("id = ?", groupID).First(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrGroupNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &group, nil
}

// loadAccessibleGroup fetches a group that userID belongs to or created.
func loadAccessibleGroup(tx *gorm.DB, groupID, userID string) (*models.Group, error) {
	group, err := loadGroup(tx, groupID)
	if err != nil {
		return nil, err
	}
	if group.CreatorUserID == userID {
		return group, nil
	}
	ok, err := isGroupMember(tx, groupID, userID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperrors.ErrNotGroupMember
	}
	return group, nil
}

func isGroupMember(tx *gorm.DB, groupID, userID string) (bool, error) {
	var count int64
	if err := tx.Model(&models.GroupMember{}).Where("group_id = ? AND user_id = ?", groupID, userID).Count(&count).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count > 0, nil
}

// groupMemberIDs returns the current members in the order they joined.
func groupMemberIDs(tx *gorm.DB, groupID string) ([]string, error) {
	var ids []string
	if err := tx.Model(&models.GroupMember{}).
		Where("group_id = ?", groupID).
		Order("created_at, id").
		Pluck("user_id", &ids).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return ids, nil
}

// usernames maps user ids to usernames, including deactivated or deleted users.
func usernames(tx *gorm.DB, ids []string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	var users []models.User
	if err := tx.Unscoped().Select("id", "username").Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	for _, u := range users {
		names[u.ID] = u.Username
	}
	return names, nil
}
