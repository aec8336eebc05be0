package app

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"planhub/api/internal/auth"
	"planhub/api/internal/store"
)

// fakeStore implements dataStore for tests. Each method delegates to its
// function field when set and falls back to an empty result otherwise.
type fakeStore struct {
	getUserFn              func(context.Context, uuid.UUID) (store.User, error)
	getUserByEmailFn       func(context.Context, string) (store.User, error)
	createUserWithDeviceFn func(context.Context, store.Device) (uuid.UUID, uuid.UUID, error)
	updateUserNameFn       func(context.Context, uuid.UUID, string) error
	claimEmailFn           func(context.Context, uuid.UUID, string) error
	mergeAccountsFn        func(context.Context, uuid.UUID, uuid.UUID, uuid.UUID, int) error
	deleteAccountFn        func(context.Context, uuid.UUID, *string) error

	getDeviceFn    func(context.Context, uuid.UUID) (store.Device, error)
	listDevicesFn  func(context.Context, uuid.UUID) ([]store.Device, error)
	deleteDeviceFn func(context.Context, uuid.UUID) (int64, error)

	getPlanFn         func(context.Context, uuid.UUID) (store.Plan, error)
	listPlansFn       func(context.Context, uuid.UUID, string) ([]store.Plan, error)
	listSharedPlansFn func(context.Context, uuid.UUID) ([]store.Plan, error)
	countPlansFn      func(context.Context, uuid.UUID, string) (int, error)
	insertPlanFn      func(context.Context, uuid.UUID, store.PlanInput) (uuid.UUID, error)
	updatePlanFn      func(context.Context, store.PlanInput) error
	deletePlanFn      func(context.Context, uuid.UUID, uuid.UUID) error
	changePlanTypeFn  func(context.Context, uuid.UUID, uuid.UUID, string) error
	movePlanFn        func(context.Context, uuid.UUID, string, int, int) error

	addPlanMemberFn    func(context.Context, uuid.UUID, uuid.UUID) error
	removePlanMemberFn func(context.Context, uuid.UUID, uuid.UUID) (int64, error)
	listPlanMembersFn  func(context.Context, uuid.UUID) ([]store.User, error)
	countPlanMembersFn func(context.Context, uuid.UUID) (int, error)
	countSharedPlansFn func(context.Context, uuid.UUID) (int, error)

	getTaskFn         func(context.Context, uuid.UUID) (store.Task, error)
	listTasksFn       func(context.Context, uuid.UUID) ([]store.Task, error)
	countTasksFn      func(context.Context, uuid.UUID) (int, error)
	insertTaskFn      func(context.Context, uuid.UUID, string) (uuid.UUID, error)
	deleteTaskFn      func(context.Context, uuid.UUID, uuid.UUID) error
	updateTaskTitleFn func(context.Context, uuid.UUID, string) error
	setTaskDoneFn     func(context.Context, uuid.UUID, uuid.UUID, bool, int, int) error
	moveTaskFn        func(context.Context, uuid.UUID, int, int) error

	insertSuggestedEmailFn func(context.Context, uuid.UUID, string) error
	getSuggestedEmailFn    func(context.Context, uuid.UUID) (store.SuggestedEmail, error)
	listSuggestedEmailsFn  func(context.Context, uuid.UUID) ([]store.SuggestedEmail, error)
	deleteSuggestedEmailFn func(context.Context, uuid.UUID) error
}

func (f *fakeStore) Ping(context.Context) error { return nil }
func (f *fakeStore) InsertAuditLog(context.Context, string, string, *uuid.UUID) error {
	return nil
}

func (f *fakeStore) GetUser(ctx context.Context, id uuid.UUID) (store.User, error) {
	if f.getUserFn != nil {
		return f.getUserFn(ctx, id)
	}
	return store.User{ID: id}, nil
}

func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	if f.getUserByEmailFn != nil {
		return f.getUserByEmailFn(ctx, email)
	}
	return store.User{}, sql.ErrNoRows
}

func (f *fakeStore) CreateUserWithDevice(ctx context.Context, device store.Device) (uuid.UUID, uuid.UUID, error) {
	if f.createUserWithDeviceFn != nil {
		return f.createUserWithDeviceFn(ctx, device)
	}
	return uuid.New(), uuid.New(), nil
}

func (f *fakeStore) UpdateUserName(ctx context.Context, id uuid.UUID, name string) error {
	if f.updateUserNameFn != nil {
		return f.updateUserNameFn(ctx, id, name)
	}
	return nil
}

func (f *fakeStore) ClaimEmail(ctx context.Context, id uuid.UUID, email string) error {
	if f.claimEmailFn != nil {
		return f.claimEmailFn(ctx, id, email)
	}
	return nil
}

func (f *fakeStore) MergeAccounts(ctx context.Context, fromUserID, toUserID, deviceID uuid.UUID, maxDevices int) error {
	if f.mergeAccountsFn != nil {
		return f.mergeAccountsFn(ctx, fromUserID, toUserID, deviceID, maxDevices)
	}
	return nil
}

func (f *fakeStore) DeleteAccount(ctx context.Context, id uuid.UUID, email *string) error {
	if f.deleteAccountFn != nil {
		return f.deleteAccountFn(ctx, id, email)
	}
	return nil
}

func (f *fakeStore) GetDevice(ctx context.Context, id uuid.UUID) (store.Device, error) {
	if f.getDeviceFn != nil {
		return f.getDeviceFn(ctx, id)
	}
	return store.Device{ID: id}, nil
}

func (f *fakeStore) ListDevices(ctx context.Context, userID uuid.UUID) ([]store.Device, error) {
	if f.listDevicesFn != nil {
		return f.listDevicesFn(ctx, userID)
	}
	return nil, nil
}

func (f *fakeStore) DeleteDevice(ctx context.Context, id uuid.UUID) (int64, error) {
	if f.deleteDeviceFn != nil {
		return f.deleteDeviceFn(ctx, id)
	}
	return 1, nil
}

func (f *fakeStore) GetPlan(ctx context.Context, id uuid.UUID) (store.Plan, error) {
	if f.getPlanFn != nil {
		return f.getPlanFn(ctx, id)
	}
	return store.Plan{}, sql.ErrNoRows
}

func (f *fakeStore) ListPlans(ctx context.Context, userID uuid.UUID, planType string) ([]store.Plan, error) {
	if f.listPlansFn != nil {
		return f.listPlansFn(ctx, userID, planType)
	}
	return nil, nil
}

func (f *fakeStore) ListSharedPlans(ctx context.Context, userID uuid.UUID) ([]store.Plan, error) {
	if f.listSharedPlansFn != nil {
		return f.listSharedPlansFn(ctx, userID)
	}
	return nil, nil
}

func (f *fakeStore) CountPlans(ctx context.Context, userID uuid.UUID, planType string) (int, error) {
	if f.countPlansFn != nil {
		return f.countPlansFn(ctx, userID, planType)
	}
	return 0, nil
}

func (f *fakeStore) InsertPlan(ctx context.Context, userID uuid.UUID, in store.PlanInput) (uuid.UUID, error) {
	if f.insertPlanFn != nil {
		return f.insertPlanFn(ctx, userID, in)
	}
	return uuid.New(), nil
}

func (f *fakeStore) UpdatePlan(ctx context.Context, in store.PlanInput) error {
	if f.updatePlanFn != nil {
		return f.updatePlanFn(ctx, in)
	}
	return nil
}

func (f *fakeStore) DeletePlan(ctx context.Context, userID, id uuid.UUID) error {
	if f.deletePlanFn != nil {
		return f.deletePlanFn(ctx, userID, id)
	}
	return nil
}

func (f *fakeStore) ChangePlanType(ctx context.Context, userID, id uuid.UUID, planType string) error {
	if f.changePlanTypeFn != nil {
		return f.changePlanTypeFn(ctx, userID, id, planType)
	}
	return nil
}

func (f *fakeStore) MovePlan(ctx context.Context, userID uuid.UUID, planType string, oldOrder, newOrder int) error {
	if f.movePlanFn != nil {
		return f.movePlanFn(ctx, userID, planType, oldOrder, newOrder)
	}
	return nil
}

func (f *fakeStore) AddPlanMember(ctx context.Context, planID, userID uuid.UUID) error {
	if f.addPlanMemberFn != nil {
		return f.addPlanMemberFn(ctx, planID, userID)
	}
	return nil
}

func (f *fakeStore) RemovePlanMember(ctx context.Context, planID, userID uuid.UUID) (int64, error) {
	if f.removePlanMemberFn != nil {
		return f.removePlanMemberFn(ctx, planID, userID)
	}
	return 1, nil
}

func (f *fakeStore) ListPlanMembers(ctx context.Context, planID uuid.UUID) ([]store.User, error) {
	if f.listPlanMembersFn != nil {
		return f.listPlanMembersFn(ctx, planID)
	}
	return nil, nil
}

func (f *fakeStore) CountPlanMembers(ctx context.Context, planID uuid.UUID) (int, error) {
	if f.countPlanMembersFn != nil {
		return f.countPlanMembersFn(ctx, planID)
	}
	return 0, nil
}

func (f *fakeStore) CountSharedPlans(ctx context.Context, ownerID uuid.UUID) (int, error) {
	if f.countSharedPlansFn != nil {
		return f.countSharedPlansFn(ctx, ownerID)
	}
	return 0, nil
}

func (f *fakeStore) GetTask(ctx context.Context, id uuid.UUID) (store.Task, error) {
	if f.getTaskFn != nil {
		return f.getTaskFn(ctx, id)
	}
	return store.Task{}, sql.ErrNoRows
}

func (f *fakeStore) ListTasks(ctx context.Context, planID uuid.UUID) ([]store.Task, error) {
	if f.listTasksFn != nil {
		return f.listTasksFn(ctx, planID)
	}
	return nil, nil
}

func (f *fakeStore) CountTasks(ctx context.Context, planID uuid.UUID) (int, error) {
	if f.countTasksFn != nil {
		return f.countTasksFn(ctx, planID)
	}
	return 0, nil
}

func (f *fakeStore) InsertTask(ctx context.Context, planID uuid.UUID, title string) (uuid.UUID, error) {
	if f.insertTaskFn != nil {
		return f.insertTaskFn(ctx, planID, title)
	}
	return uuid.New(), nil
}

func (f *fakeStore) DeleteTask(ctx context.Context, planID, id uuid.UUID) error {
	if f.deleteTaskFn != nil {
		return f.deleteTaskFn(ctx, planID, id)
	}
	return nil
}

func (f *fakeStore) UpdateTaskTitle(ctx context.Context, id uuid.UUID, title string) error {
	if f.updateTaskTitleFn != nil {
		return f.updateTaskTitleFn(ctx, id, title)
	}
	return nil
}

func (f *fakeStore) SetTaskDone(ctx context.Context, planID, id uuid.UUID, done bool, oldOrder, newOrder int) error {
	if f.setTaskDoneFn != nil {
		return f.setTaskDoneFn(ctx, planID, id, done, oldOrder, newOrder)
	}
	return nil
}

func (f *fakeStore) MoveTask(ctx context.Context, planID uuid.UUID, oldOrder, newOrder int) error {
	if f.moveTaskFn != nil {
		return f.moveTaskFn(ctx, planID, oldOrder, newOrder)
	}
	return nil
}

func (f *fakeStore) InsertSuggestedEmail(ctx context.Context, userID uuid.UUID, email string) error {
	if f.insertSuggestedEmailFn != nil {
		return f.insertSuggestedEmailFn(ctx, userID, email)
	}
	return nil
}

func (f *fakeStore) GetSuggestedEmail(ctx context.Context, id uuid.UUID) (store.SuggestedEmail, error) {
	if f.getSuggestedEmailFn != nil {
		return f.getSuggestedEmailFn(ctx, id)
	}
	return store.SuggestedEmail{}, sql.ErrNoRows
}

func (f *fakeStore) ListSuggestedEmails(ctx context.Context, userID uuid.UUID) ([]store.SuggestedEmail, error) {
	if f.listSuggestedEmailsFn != nil {
		return f.listSuggestedEmailsFn(ctx, userID)
	}
	return nil, nil
}

func (f *fakeStore) DeleteSuggestedEmail(ctx context.Context, id uuid.UUID) error {
	if f.deleteSuggestedEmailFn != nil {
		return f.deleteSuggestedEmailFn(ctx, id)
	}
	return nil
}

// fakeOtp approves one fixed (sid, code) pair.
type fakeOtp struct {
	sid  string
	code string
}

func (f *fakeOtp) SendOtp(email string) (string, error) { return f.sid, nil }
func (f *fakeOtp) VerifyOtp(email, sid, code string) (string, error) {
	if sid == f.sid && code == f.code {
		return "approved", nil
	}
	return "pending", nil
}

func testLimits() Limits {
	return Limits{
		PlansPerType:   100,
		TasksPerPlan:   100,
		SharedPlans:    20,
		MembersPerPlan: 20,
		DevicesPerUser: 5,
	}
}

func newTestService(fs *fakeStore) *Service {
	tokens := auth.NewTokens("test-secret", time.Hour)
	return NewService(fs, tokens, &fakeOtp{sid: "sid-1", code: "123456"}, testLimits())
}

func strptr(v string) *string { return &v }
