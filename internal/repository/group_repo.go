package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/fypdesk/fyp-api/internal/models"
)

// GroupFilter filters group list queries.
type GroupFilter struct {
	Page         int
	PageSize     int
	DepartmentID uint
	Status       models.GroupStatus
	SupervisorID uint
}

// GroupRepository handles persistence for FYP groups and memberships.
type GroupRepository interface {
	Create(ctx context.Context, group *models.FYPGroup) error
	GetByID(ctx context.Context, id uint) (models.FYPGroup, error)
	List(ctx context.Context, filter GroupFilter) ([]models.FYPGroup, int64, error)
	UpdateVersioned(ctx context.Context, group *models.FYPGroup) error
	FindByStudent(ctx context.Context, studentID uint) (models.FYPGroup, error)
	AddMember(ctx context.Context, member *models.GroupMember) error
	GetMember(ctx context.Context, groupID, studentID uint) (models.GroupMember, error)
	UpdateMember(ctx context.Context, member *models.GroupMember) error
	CountActiveMembers(ctx context.Context, groupID uint) (int64, error)
	CountMembershipsForStudent(ctx context.Context, studentID uint) (int64, error)
	WithTx(tx *gorm.DB) GroupRepository
}

type groupRepository struct {
	db *gorm.DB
}

// NewGroupRepository constructs the repository implementation.
func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db: db}
}

func (r *groupRepository) WithTx(tx *gorm.DB) GroupRepository {
	return &groupRepository{db: tx}
}

func (r *groupRepository) Create(ctx context.Context, group *models.FYPGroup) error {
	return r.db.WithContext(ctx).Create(group).Error
}

func (r *groupRepository) GetByID(ctx context.Context, id uint) (models.FYPGroup, error) {
	var group models.FYPGroup
	err := r.db.WithContext(ctx).
		Preload("Members").
		Preload("Members.Student").
		First(&group, id).Error
	if err != nil {
		return models.FYPGroup{}, err
	}
	return group, nil
}

func (r *groupRepository) List(ctx context.Context, filter GroupFilter) ([]models.FYPGroup, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.FYPGroup{})
	if filter.DepartmentID != 0 {
		query = query.Where("department_id = ?", filter.DepartmentID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.SupervisorID != 0 {
		query = query.Where("supervisor_id = ?", filter.SupervisorID)
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.PageSize > 0 {
		page := filter.Page
		if page <= 0 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.PageSize).Limit(filter.PageSize)
	}

	var groups []models.FYPGroup
	err := query.
		Preload("Members").
		Preload("Members.Student").
		Order("created_at DESC").
		Find(&groups).Error
	if err != nil {
		return nil, 0, err
	}
	return groups, total, nil
}

// UpdateVersioned persists the group's workflow fields guarded by the
// optimistic version token. On success the in-memory version is bumped;
// a zero-row match reports ErrStaleVersion.
func (r *groupRepository) UpdateVersioned(ctx context.Context, group *models.FYPGroup) error {
	current := group.Version
	result := r.db.WithContext(ctx).Model(&models.FYPGroup{}).
		Where("id = ? AND version = ?", group.ID, current).
		Select("Status", "SupervisorID", "SupervisorAcceptedAt", "Version").
		Updates(map[string]interface{}{
			"status":                 group.Status,
			"supervisor_id":          group.SupervisorID,
			"supervisor_accepted_at": group.SupervisorAcceptedAt,
			"version":                current + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrStaleVersion
	}
	group.Version = current + 1
	return nil
}

func (r *groupRepository) FindByStudent(ctx context.Context, studentID uint) (models.FYPGroup, error) {
	var member models.GroupMember
	err := r.db.WithContext(ctx).
		Where("student_id = ? AND status IN ?", studentID, []models.MemberStatus{models.MemberPending, models.MemberAccepted}).
		Order("created_at DESC").
		First(&member).Error
	if err != nil {
		return models.FYPGroup{}, err
	}
	return r.GetByID(ctx, member.GroupID)
}

func (r *groupRepository) AddMember(ctx context.Context, member *models.GroupMember) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *groupRepository) GetMember(ctx context.Context, groupID, studentID uint) (models.GroupMember, error) {
	var member models.GroupMember
	err := r.db.WithContext(ctx).
		Where("group_id = ? AND student_id = ?", groupID, studentID).
		First(&member).Error
	if err != nil {
		return models.GroupMember{}, err
	}
	return member, nil
}

func (r *groupRepository) UpdateMember(ctx context.Context, member *models.GroupMember) error {
	return r.db.WithContext(ctx).Save(member).Error
}

// CountActiveMembers counts accepted plus pending memberships, the set the
// 3-member cap applies to.
func (r *groupRepository) CountActiveMembers(ctx context.Context, groupID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("group_id = ? AND status IN ?", groupID, []models.MemberStatus{models.MemberPending, models.MemberAccepted}).
		Count(&count).Error
	return count, err
}

func (r *groupRepository) CountMembershipsForStudent(ctx context.Context, studentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.GroupMember{}).
		Where("student_id = ? AND status IN ?", studentID, []models.MemberStatus{models.MemberPending, models.MemberAccepted}).
		Count(&count).Error
	return count, err
}
