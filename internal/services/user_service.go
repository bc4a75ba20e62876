package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Himu336/Web3-Exam-Platform/internal/models"
	"github.com/Himu336/Web3-Exam-Platform/internal/repositories"
	"github.com/Himu336/Web3-Exam-Platform/internal/validator"
)

type userService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
	policy    *Policy
	activity  ActivityService
}

func NewUserService(repo repositories.Repository, logger *slog.Logger, v *validator.Validator, policy *Policy, activity ActivityService) UserService {
	return &userService{
		repo:      repo,
		logger:    logger,
		validator: v,
		policy:    policy,
		activity:  activity,
	}
}

func (s *userService) GetByID(ctx context.Context, id uint, requester *models.User) (*models.PublicUser, error) {
	if !s.policy.CanPerform(requester, ActionRead, ResourceUser, ResourceContext{SubjectID: id}) {
		return nil, NewPermissionError(requester.ID, id, ResourceUser, ActionRead, "insufficient permissions")
	}

	user, err := s.repo.User().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	pub := user.Public()
	return &pub, nil
}

func (s *userService) List(ctx context.Context, filters repositories.UserFilters, requester *models.User) (*UserListResponse, error) {
	if requester.Role != models.RoleAdmin {
		return nil, NewPermissionError(requester.ID, 0, ResourceUser, ActionList, "user listing is admin only")
	}

	users, total, err := s.repo.User().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	out := make([]*models.PublicUser, len(users))
	for i, u := range users {
		pub := u.Public()
		out[i] = &pub
	}

	return &UserListResponse{
		Users: out,
		Total: total,
		Page:  pageFromOffset(filters.Offset, filters.Limit),
		Size:  len(out),
	}, nil
}

func (s *userService) Update(ctx context.Context, id uint, req *UpdateUserRequest, requester *models.User) (*models.PublicUser, error) {
	if errs := s.validator.Validate(req); errs.HasErrors() {
		return nil, toServiceValidationErrors(errs)
	}

	if !s.policy.CanPerform(requester, ActionUpdate, ResourceUser, ResourceContext{SubjectID: id}) {
		return nil, NewPermissionError(requester.ID, id, ResourceUser, ActionUpdate, "not self or insufficient permissions")
	}

	// Role and status changes stay with admins.
	if requester.Role != models.RoleAdmin && (req.Role != nil || req.Status != nil) {
		return nil, NewPermissionError(requester.ID, id, ResourceUser, ActionUpdate, "role and status changes are admin only")
	}

	user, err := s.repo.User().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	applyUserUpdates(user, req)

	if err := s.repo.User().Update(ctx, nil, user); err != nil {
		if repositories.IsDuplicateError(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.activity.Record(ctx, &requester.ID, "user_updated", "user", &id, nil)

	pub := user.Public()
	return &pub, nil
}

func (s *userService) Delete(ctx context.Context, id uint, requester *models.User) error {
	if requester.Role != models.RoleAdmin {
		return NewPermissionError(requester.ID, id, ResourceUser, ActionDelete, "user deletion is admin only")
	}
	if requester.ID == id {
		return NewValidationError("id", "admins cannot delete their own account", id)
	}

	if _, err := s.repo.User().GetByID(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.repo.User().Delete(ctx, nil, id); err != nil {
		if repositories.IsForeignKeyError(err) {
			return NewValidationError("id", "user still owns exams, questions or results", id)
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.activity.Record(ctx, &requester.ID, "user_deleted", "user", &id, nil)
	s.logger.Info("User deleted", "user_id", id, "admin_id", requester.ID)
	return nil
}

func applyUserUpdates(user *models.User, req *UpdateUserRequest) {
	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Status != nil {
		user.Status = *req.Status
	}
	if req.Department != nil {
		user.Department = req.Department
	}
	if req.RollNumber != nil {
		user.RollNumber = req.RollNumber
	}
	if req.Program != nil {
		user.Program = req.Program
	}
	if req.Semester != nil {
		user.Semester = req.Semester
	}
}
