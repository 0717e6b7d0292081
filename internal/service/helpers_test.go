package service

import (
	"context"
	"sort"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/fypdesk/fyp-api/internal/models"
	"github.com/fypdesk/fyp-api/internal/repository"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testValidator() *validator.Validate {
	validate := validator.New()
	if err := RegisterValidators(validate); err != nil {
		panic(err)
	}
	return validate
}

// fakeTx runs the callback directly; the fakes ignore the tx handle.
type fakeTx struct{}

func (fakeTx) WithinTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

// captureAudit records entries for assertions.
type captureAudit struct {
	entries []AuditEntry
}

func (a *captureAudit) Record(ctx context.Context, entry AuditEntry) {
	a.entries = append(a.entries, entry)
}

// fakeSettings serves a fixed settings snapshot.
type fakeSettings struct {
	values map[string]string
}

func (f *fakeSettings) Load(ctx context.Context) (Settings, error) {
	return Settings{values: f.values}, nil
}

// captureNotifier records dispatched events for assertions.
type captureNotifier struct {
	events []Event
}

func (n *captureNotifier) Dispatch(ctx context.Context, events []Event) {
	n.events = append(n.events, events...)
}

// fakeGroupRepo is an in-memory GroupRepository.
type fakeGroupRepo struct {
	groups  map[uint]*models.FYPGroup
	members []*models.GroupMember
	nextID  uint
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{groups: map[uint]*models.FYPGroup{}}
}

func (r *fakeGroupRepo) WithTx(tx *gorm.DB) repository.GroupRepository { return r }

func (r *fakeGroupRepo) Create(ctx context.Context, group *models.FYPGroup) error {
	r.nextID++
	group.ID = r.nextID
	stored := *group
	r.groups[group.ID] = &stored
	return nil
}

func (r *fakeGroupRepo) GetByID(ctx context.Context, id uint) (models.FYPGroup, error) {
	stored, ok := r.groups[id]
	if !ok {
		return models.FYPGroup{}, gorm.ErrRecordNotFound
	}
	group := *stored
	group.Members = nil
	for _, member := range r.members {
		if member.GroupID == id {
			group.Members = append(group.Members, *member)
		}
	}
	return group, nil
}

func (r *fakeGroupRepo) List(ctx context.Context, filter repository.GroupFilter) ([]models.FYPGroup, int64, error) {
	ids := make([]uint, 0, len(r.groups))
	for id, group := range r.groups {
		if filter.DepartmentID != 0 && group.DepartmentID != filter.DepartmentID {
			continue
		}
		if filter.Status != "" && group.Status != filter.Status {
			continue
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	groups := make([]models.FYPGroup, 0, len(ids))
	for _, id := range ids {
		group, _ := r.GetByID(ctx, id)
		groups = append(groups, group)
	}
	return groups, int64(len(groups)), nil
}

func (r *fakeGroupRepo) UpdateVersioned(ctx context.Context, group *models.FYPGroup) error {
	stored, ok := r.groups[group.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if stored.Version != group.Version {
		return repository.ErrStaleVersion
	}
	group.Version++
	updated := *group
	updated.Members = nil
	r.groups[group.ID] = &updated
	return nil
}

func (r *fakeGroupRepo) FindByStudent(ctx context.Context, studentID uint) (models.FYPGroup, error) {
	for _, member := range r.members {
		if member.StudentID == studentID &&
			(member.Status == models.MemberPending || member.Status == models.MemberAccepted) {
			return r.GetByID(ctx, member.GroupID)
		}
	}
	return models.FYPGroup{}, gorm.ErrRecordNotFound
}

func (r *fakeGroupRepo) AddMember(ctx context.Context, member *models.GroupMember) error {
	r.nextID++
	member.ID = r.nextID
	stored := *member
	r.members = append(r.members, &stored)
	return nil
}

func (r *fakeGroupRepo) GetMember(ctx context.Context, groupID, studentID uint) (models.GroupMember, error) {
	for _, member := range r.members {
		if member.GroupID == groupID && member.StudentID == studentID {
			return *member, nil
		}
	}
	return models.GroupMember{}, gorm.ErrRecordNotFound
}

func (r *fakeGroupRepo) UpdateMember(ctx context.Context, member *models.GroupMember) error {
	for i, stored := range r.members {
		if stored.ID == member.ID {
			updated := *member
			r.members[i] = &updated
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (r *fakeGroupRepo) CountActiveMembers(ctx context.Context, groupID uint) (int64, error) {
	var count int64
	for _, member := range r.members {
		if member.GroupID == groupID &&
			(member.Status == models.MemberPending || member.Status == models.MemberAccepted) {
			count++
		}
	}
	return count, nil
}

func (r *fakeGroupRepo) CountMembershipsForStudent(ctx context.Context, studentID uint) (int64, error) {
	var count int64
	for _, member := range r.members {
		if member.StudentID == studentID &&
			(member.Status == models.MemberPending || member.Status == models.MemberAccepted) {
			count++
		}
	}
	return count, nil
}

// fakeStudentRepo is an in-memory StudentRepository.
type fakeStudentRepo struct {
	students map[uint]models.Student
}

func newFakeStudentRepo(students ...models.Student) *fakeStudentRepo {
	repo := &fakeStudentRepo{students: map[uint]models.Student{}}
	for _, student := range students {
		repo.students[student.ID] = student
	}
	return repo
}

func (r *fakeStudentRepo) WithTx(tx *gorm.DB) repository.StudentRepository { return r }

func (r *fakeStudentRepo) Create(ctx context.Context, student *models.Student) error {
	student.ID = uint(len(r.students) + 1)
	r.students[student.ID] = *student
	return nil
}

func (r *fakeStudentRepo) GetByID(ctx context.Context, id uint) (models.Student, error) {
	student, ok := r.students[id]
	if !ok {
		return models.Student{}, gorm.ErrRecordNotFound
	}
	return student, nil
}

func (r *fakeStudentRepo) GetByUserID(ctx context.Context, userID uint) (models.Student, error) {
	for _, student := range r.students {
		if student.UserID == userID {
			return student, nil
		}
	}
	return models.Student{}, gorm.ErrRecordNotFound
}

func (r *fakeStudentRepo) GetByEnrollmentID(ctx context.Context, enrollmentID string) (models.Student, error) {
	for _, student := range r.students {
		if student.EnrollmentID == enrollmentID {
			return student, nil
		}
	}
	return models.Student{}, gorm.ErrRecordNotFound
}

func (r *fakeStudentRepo) GetByEmail(ctx context.Context, email string) (models.Student, error) {
	for _, student := range r.students {
		if student.Email == email {
			return student, nil
		}
	}
	return models.Student{}, gorm.ErrRecordNotFound
}

func (r *fakeStudentRepo) List(ctx context.Context, filter repository.StudentFilter) ([]models.Student, int64, error) {
	students := make([]models.Student, 0, len(r.students))
	for _, student := range r.students {
		students = append(students, student)
	}
	sort.Slice(students, func(i, j int) bool { return students[i].ID < students[j].ID })
	return students, int64(len(students)), nil
}

func (r *fakeStudentRepo) Update(ctx context.Context, student *models.Student) error {
	r.students[student.ID] = *student
	return nil
}

func (r *fakeStudentRepo) DeleteCascading(ctx context.Context, id uint) error {
	delete(r.students, id)
	return nil
}

// fakeStaffRepo is an in-memory StaffRepository.
type fakeStaffRepo struct {
	staff      map[uint]models.Staff
	supervised map[uint]int64
}

func newFakeStaffRepo(staff ...models.Staff) *fakeStaffRepo {
	repo := &fakeStaffRepo{staff: map[uint]models.Staff{}, supervised: map[uint]int64{}}
	for _, member := range staff {
		repo.staff[member.ID] = member
	}
	return repo
}

func (r *fakeStaffRepo) WithTx(tx *gorm.DB) repository.StaffRepository { return r }

func (r *fakeStaffRepo) Create(ctx context.Context, staff *models.Staff) error {
	staff.ID = uint(len(r.staff) + 1)
	r.staff[staff.ID] = *staff
	return nil
}

func (r *fakeStaffRepo) GetByID(ctx context.Context, id uint) (models.Staff, error) {
	staff, ok := r.staff[id]
	if !ok {
		return models.Staff{}, gorm.ErrRecordNotFound
	}
	return staff, nil
}

func (r *fakeStaffRepo) GetByUserID(ctx context.Context, userID uint) (models.Staff, error) {
	for _, staff := range r.staff {
		if staff.UserID == userID {
			return staff, nil
		}
	}
	return models.Staff{}, gorm.ErrRecordNotFound
}

func (r *fakeStaffRepo) GetByEmail(ctx context.Context, email string) (models.Staff, error) {
	for _, staff := range r.staff {
		if staff.Email == email {
			return staff, nil
		}
	}
	return models.Staff{}, gorm.ErrRecordNotFound
}

func (r *fakeStaffRepo) List(ctx context.Context, filter repository.StaffFilter) ([]models.Staff, int64, error) {
	staff := make([]models.Staff, 0, len(r.staff))
	for _, member := range r.staff {
		staff = append(staff, member)
	}
	sort.Slice(staff, func(i, j int) bool { return staff[i].ID < staff[j].ID })
	return staff, int64(len(staff)), nil
}

func (r *fakeStaffRepo) Update(ctx context.Context, staff *models.Staff) error {
	r.staff[staff.ID] = *staff
	return nil
}

func (r *fakeStaffRepo) Delete(ctx context.Context, id uint) error {
	delete(r.staff, id)
	return nil
}

func (r *fakeStaffRepo) CountSupervisedGroups(ctx context.Context, staffID uint) (int64, error) {
	return r.supervised[staffID], nil
}
