package services

import (
	"testing"

	"github.com/Himu336/Web3-Exam-Platform/internal/models"
)

func TestPolicy_CanPerform(t *testing.T) {
	policy := NewPolicy()

	admin := &models.User{ID: 1, Role: models.RoleAdmin, Status: models.UserActive}
	faculty := &models.User{ID: 2, Role: models.RoleFaculty, Status: models.UserActive}
	student := &models.User{ID: 3, Role: models.RoleStudent, Status: models.UserActive}
	inactive := &models.User{ID: 4, Role: models.RoleAdmin, Status: models.UserInactive}

	tests := []struct {
		name      string
		requester *models.User
		action    string
		resource  string
		rc        ResourceContext
		want      bool
	}{
		{"nil requester denied", nil, ActionRead, ResourceExam, ResourceContext{}, false},
		{"inactive admin denied", inactive, ActionRead, ResourceExam, ResourceContext{}, false},
		{"admin does everything", admin, ActionDelete, ResourceUser, ResourceContext{SubjectID: 99}, true},
		{"admin approves questions", admin, ActionApprove, ResourceQuestion, ResourceContext{}, true},

		{"user reads self", student, ActionRead, ResourceUser, ResourceContext{SubjectID: student.ID}, true},
		{"user reads other denied", student, ActionRead, ResourceUser, ResourceContext{SubjectID: faculty.ID}, false},
		{"user updates self", faculty, ActionUpdate, ResourceUser, ResourceContext{SubjectID: faculty.ID}, true},
		{"user lists denied", faculty, ActionList, ResourceUser, ResourceContext{}, false},

		{"faculty creates questions", faculty, ActionCreate, ResourceQuestion, ResourceContext{}, true},
		{"faculty updates own question", faculty, ActionUpdate, ResourceQuestion, ResourceContext{OwnerID: faculty.ID}, true},
		{"faculty updates foreign question denied", faculty, ActionUpdate, ResourceQuestion, ResourceContext{OwnerID: 77}, false},
		{"faculty cannot approve", faculty, ActionApprove, ResourceQuestion, ResourceContext{}, false},
		{"student never reads raw questions", student, ActionRead, ResourceQuestion, ResourceContext{}, false},

		{"admin creates exams", admin, ActionCreate, ResourceExam, ResourceContext{}, true},
		{"faculty creates exams denied", faculty, ActionCreate, ResourceExam, ResourceContext{}, false},
		{"student creates exams denied", student, ActionCreate, ResourceExam, ResourceContext{}, false},
		{"student reads exams", student, ActionRead, ResourceExam, ResourceContext{OwnerID: 1}, true},
		{"faculty lists exams", faculty, ActionList, ResourceExam, ResourceContext{}, true},
		{"student lists exams denied", student, ActionList, ResourceExam, ResourceContext{}, false},
		{"faculty updates exam denied", faculty, ActionUpdate, ResourceExam, ResourceContext{OwnerID: faculty.ID}, false},

		{"student submits results", student, ActionSubmit, ResourceResult, ResourceContext{}, true},
		{"faculty submits denied", faculty, ActionSubmit, ResourceResult, ResourceContext{}, false},
		{"student reads own result", student, ActionRead, ResourceResult, ResourceContext{OwnerID: student.ID}, true},
		{"student reads foreign result denied", student, ActionRead, ResourceResult, ResourceContext{OwnerID: 77}, false},
		{"faculty reads any result", faculty, ActionRead, ResourceResult, ResourceContext{OwnerID: 77}, true},
		{"faculty validates results", faculty, ActionValidate, ResourceResult, ResourceContext{}, true},
		{"student validates denied", student, ActionValidate, ResourceResult, ResourceContext{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := policy.CanPerform(tt.requester, tt.action, tt.resource, tt.rc); got != tt.want {
				t.Errorf("CanPerform(%s, %s) = %v, want %v", tt.action, tt.resource, got, tt.want)
			}
		})
	}
}
