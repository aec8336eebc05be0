package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"planhub/api/internal/store"
)

func validPlanType(planType string) bool {
	return planType == store.PlanTypeMain || planType == store.PlanTypeArchived
}

// GetPlan returns a single plan with its member list when it is shared.
func (s *Service) GetPlan(ctx context.Context, session Session, planID uuid.UUID) (store.Plan, error) {
	plan, err := s.store.GetPlan(ctx, planID)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Plan{}, notFoundError("plan not found")
	}
	if err != nil {
		return store.Plan{}, err
	}
	if plan.IsShared {
		members, err := s.store.ListPlanMembers(ctx, planID)
		if err != nil {
			return store.Plan{}, err
		}
		plan.Members = members
	}
	return plan, nil
}

// GetPlans returns the caller's own plans of the given type followed by the
// plans others shared with the caller. The two lists are concatenated, not
// merged by order.
func (s *Service) GetPlans(ctx context.Context, session Session, planType string) ([]store.Plan, error) {
	if !validPlanType(planType) {
		return nil, inputError("invalid_input", "unknown plan type")
	}
	plans, err := s.store.ListPlans(ctx, session.UserID, planType)
	if err != nil {
		return nil, err
	}
	shared, err := s.store.ListSharedPlans(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	return append(plans, shared...), nil
}

func (s *Service) CreatePlan(ctx context.Context, session Session, in store.PlanInput) (uuid.UUID, error) {
	if in.Title == nil && in.Starts == nil && in.Ends == nil {
		return uuid.Nil, inputError("invalid_input", "at least one of title, starts or ends is required")
	}
	count, err := s.store.CountPlans(ctx, session.UserID, store.PlanTypeMain)
	if err != nil {
		return uuid.Nil, err
	}
	if count >= s.limits.PlansPerType {
		return uuid.Nil, logicError("max_is_100", fmt.Sprintf("maximum of %d plans reached", s.limits.PlansPerType))
	}
	return s.store.InsertPlan(ctx, session.UserID, in)
}

func (s *Service) UpdatePlan(ctx context.Context, session Session, in store.PlanInput) error {
	if err := s.validateUserOwnsThePlan(ctx, session, in.ID); err != nil {
		return err
	}
	return s.store.UpdatePlan(ctx, in)
}

func (s *Service) DeletePlan(ctx context.Context, session Session, planID uuid.UUID) error {
	if err := s.validateUserOwnsThePlan(ctx, session, planID); err != nil {
		return err
	}
	return s.store.DeletePlan(ctx, session.UserID, planID)
}

func (s *Service) UpdatePlanType(ctx context.Context, session Session, planID uuid.UUID, planType string) error {
	if !validPlanType(planType) {
		return inputError("invalid_input", "unknown plan type")
	}
	if err := s.validateUserOwnsThePlan(ctx, session, planID); err != nil {
		return err
	}
	count, err := s.store.CountPlans(ctx, session.UserID, planType)
	if err != nil {
		return err
	}
	if count >= s.limits.PlansPerType {
		return logicError("max_is_100", fmt.Sprintf("maximum of %d plans reached", s.limits.PlansPerType))
	}
	return s.store.ChangePlanType(ctx, session.UserID, planID, planType)
}

func (s *Service) ReOrderPlans(ctx context.Context, session Session, planType string, oldOrder, newOrder int) error {
	if !validPlanType(planType) {
		return inputError("invalid_input", "unknown plan type")
	}
	if oldOrder == newOrder {
		return nil
	}
	count, err := s.store.CountPlans(ctx, session.UserID, planType)
	if err != nil {
		return err
	}
	if oldOrder < 0 || newOrder < 0 || oldOrder > count || newOrder > count {
		return inputError("invalid_input", fmt.Sprintf("oldOrder and newOrder should be less than %d", count))
	}
	return s.store.MovePlan(ctx, session.UserID, planType, oldOrder, newOrder)
}

// SharePlan grants email's account membership of the plan. The suggested
// email inserts are best-effort autocomplete fodder and never fail a share.
func (s *Service) SharePlan(ctx context.Context, session Session, planID uuid.UUID, email string) error {
	if err := s.validateUserLoggedIn(session); err != nil {
		return err
	}
	if err := s.validateUserOwnsThePlan(ctx, session, planID); err != nil {
		return err
	}
	target, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return inputError("email_not_found", "email not found")
	}
	if err != nil {
		return err
	}
	if target.ID == session.UserID {
		return logicError("not_allowed_to_share_with_creator", "not allowed to share with creator")
	}

	plan, err := s.store.GetPlan(ctx, planID)
	if err != nil {
		return err
	}
	if plan.IsShared {
		count, err := s.store.CountPlanMembers(ctx, planID)
		if err != nil {
			return err
		}
		if count >= s.limits.MembersPerPlan {
			return logicError("max_is_20", fmt.Sprintf("maximum of %d shares reached", s.limits.MembersPerPlan))
		}
	} else {
		count, err := s.store.CountSharedPlans(ctx, session.UserID)
		if err != nil {
			return err
		}
		if count >= s.limits.SharedPlans {
			return logicError("max_is_20", fmt.Sprintf("maximum of %d shares reached", s.limits.SharedPlans))
		}
	}

	if err := s.store.AddPlanMember(ctx, planID, target.ID); err != nil {
		return err
	}

	// The share already happened; a failed suggestion insert is worth a log
	// line, not a failed request. Duplicate pairs are absorbed by the store.
	if err := s.store.InsertSuggestedEmail(ctx, session.UserID, email); err != nil {
		log.Printf("suggested email insert failed: %v", err)
	}
	if session.Email != nil {
		if err := s.store.InsertSuggestedEmail(ctx, target.ID, *session.Email); err != nil {
			log.Printf("suggested email insert failed: %v", err)
		}
	}
	return nil
}

func (s *Service) UnsharePlan(ctx context.Context, session Session, planID uuid.UUID, email string) error {
	if err := s.validateUserLoggedIn(session); err != nil {
		return err
	}
	if err := s.validateUserOwnsThePlan(ctx, session, planID); err != nil {
		return err
	}
	target, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, sql.ErrNoRows) {
		return notFoundError("email not found")
	}
	if err != nil {
		return err
	}
	_, err = s.store.RemovePlanMember(ctx, planID, target.ID)
	return err
}

// LeavePlan removes the caller's own membership.
func (s *Service) LeavePlan(ctx context.Context, session Session, planID uuid.UUID) error {
	if err := s.validateUserLoggedIn(session); err != nil {
		return err
	}
	rows, err := s.store.RemovePlanMember(ctx, planID, session.UserID)
	if err != nil {
		return err
	}
	if rows != 1 {
		return logicError("user_cannot_leave_plan",
			fmt.Sprintf("user cannot leave plan: userId=%s, planId=%s", session.UserID, planID))
	}
	return nil
}

func (s *Service) validateUserOwnsThePlan(ctx context.Context, session Session, planID uuid.UUID) error {
	plan, err := s.store.GetPlan(ctx, planID)
	if errors.Is(err, sql.ErrNoRows) {
		return notFoundError("plan not found")
	}
	if err != nil {
		return err
	}
	if plan.Owner.ID != session.UserID {
		return unauthorizedError("user does not own this plan")
	}
	return nil
}

func (s *Service) validateUserLoggedIn(session Session) error {
	if !session.LoggedIn() {
		return logicError("you_are_not_logged_in", "you are not logged in")
	}
	return nil
}
