package services

import (
	"github.com/Himu336/Web3-Exam-Platform/internal/models"
)

// Actions a requester can attempt on a resource.
const (
	ActionCreate   = "create"
	ActionRead     = "read"
	ActionUpdate   = "update"
	ActionDelete   = "delete"
	ActionList     = "list"
	ActionSubmit   = "submit"
	ActionValidate = "validate"
	ActionApprove  = "approve"
)

const (
	ResourceUser     = "user"
	ResourceQuestion = "question"
	ResourceExam     = "exam"
	ResourceResult   = "result"
)

// ResourceContext carries the ownership facts a rule needs. OwnerID is the
// user who owns the entity (exam creator, question author, result's
// student); SubjectID is the user an account operation targets.
type ResourceContext struct {
	OwnerID   uint
	SubjectID uint
}

// Policy is the single authorization point. Every service asks it before
// touching a resource, so the role rules live in one place.
type Policy struct{}

func NewPolicy() *Policy {
	return &Policy{}
}

func (p *Policy) CanPerform(requester *models.User, action, resource string, rc ResourceContext) bool {
	if requester == nil || requester.Status != models.UserActive {
		return false
	}
	if requester.Role == models.RoleAdmin {
		return true
	}

	switch resource {
	case ResourceUser:
		return p.canPerformOnUser(requester, action, rc)
	case ResourceQuestion:
		return p.canPerformOnQuestion(requester, action, rc)
	case ResourceExam:
		return p.canPerformOnExam(requester, action, rc)
	case ResourceResult:
		return p.canPerformOnResult(requester, action, rc)
	}
	return false
}

// Non-admins only read and update their own account.
func (p *Policy) canPerformOnUser(requester *models.User, action string, rc ResourceContext) bool {
	switch action {
	case ActionRead, ActionUpdate:
		return rc.SubjectID == requester.ID
	}
	return false
}

// Faculty own their question bank; students never touch raw questions
// because the rows carry the correct answers.
func (p *Policy) canPerformOnQuestion(requester *models.User, action string, rc ResourceContext) bool {
	if requester.Role != models.RoleFaculty {
		return false
	}
	switch action {
	case ActionCreate, ActionList:
		return true
	case ActionRead, ActionUpdate, ActionDelete:
		return rc.OwnerID == requester.ID
	}
	return false
}

// Exam assembly is an admin operation; faculty see every exam so they can
// contribute questions and validate results, students only read individual
// exams (with the answer key redacted elsewhere).
func (p *Policy) canPerformOnExam(requester *models.User, action string, rc ResourceContext) bool {
	switch action {
	case ActionRead:
		return true
	case ActionList:
		return requester.Role == models.RoleFaculty
	}
	return false
}

// Students submit and read their own results; faculty read, list and
// validate everyone's.
func (p *Policy) canPerformOnResult(requester *models.User, action string, rc ResourceContext) bool {
	switch action {
	case ActionSubmit:
		return requester.Role == models.RoleStudent
	case ActionRead:
		if requester.Role == models.RoleFaculty {
			return true
		}
		return requester.Role == models.RoleStudent && rc.OwnerID == requester.ID
	case ActionList, ActionValidate:
		return requester.Role == models.RoleFaculty
	}
	return false
}
