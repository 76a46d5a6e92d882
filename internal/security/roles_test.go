package security

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleRequirementSatisfied(t *testing.T) {
	teacher := Principal{ID: 1, Username: "alice", Role: RoleTeacher, Enabled: true}
	student := Principal{ID: 2, Username: "bob", Role: RoleStudent, Enabled: true}

	tests := []struct {
		name      string
		req       RoleRequirement
		principal Principal
		want      bool
	}{
		{"any matches teacher", RoleRequirement{Roles: []string{"TEACHER"}, Combinator: Any}, teacher, true},
		{"any rejects student", RoleRequirement{Roles: []string{"TEACHER"}, Combinator: Any}, student, false},
		{"case-insensitive match", RoleRequirement{Roles: []string{"TEACHER"}, Combinator: Any}, Principal{Role: Role("teacher")}, true},
		{"any of several", RoleRequirement{Roles: []string{"TEACHER", "ADMIN"}, Combinator: Any}, teacher, true},
		{"all with single role degenerates to membership", RoleRequirement{Roles: []string{"TEACHER"}, Combinator: All}, teacher, true},
		{"all with several roles never passes", RoleRequirement{Roles: []string{"TEACHER", "ADMIN"}, Combinator: All}, teacher, false},
		{"empty requirement passes", RoleRequirement{}, student, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.req.Satisfied(tc.principal))
			// Evaluation is pure: repeating it changes nothing.
			assert.Equal(t, tc.want, tc.req.Satisfied(tc.principal))
		})
	}
}

func TestRequireRoleMiddleware(t *testing.T) {
	handlerRuns := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerRuns++
	})
	guarded := RequireRole("TEACHER", "ADMIN")(next)

	t.Run("no principal", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/courses", nil)
		rec := httptest.NewRecorder()
		guarded.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Zero(t, handlerRuns)
	})

	t.Run("wrong role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/courses", nil)
		ctx := ContextWithPrincipal(req.Context(), Principal{ID: 2, Role: RoleStudent, Enabled: true})
		rec := httptest.NewRecorder()
		guarded.ServeHTTP(rec, req.WithContext(ctx))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), "permission denied")
		assert.Zero(t, handlerRuns)
	})

	t.Run("eligible role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/courses", nil)
		ctx := ContextWithPrincipal(req.Context(), Principal{ID: 1, Role: RoleTeacher, Enabled: true})
		rec := httptest.NewRecorder()
		guarded.ServeHTTP(rec, req.WithContext(ctx))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, handlerRuns)
	})
}
