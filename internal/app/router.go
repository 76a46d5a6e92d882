package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/coursehub/coursehub/internal/assignments"
	"github.com/coursehub/coursehub/internal/auth"
	"github.com/coursehub/coursehub/internal/courses"
	"github.com/coursehub/coursehub/internal/dashboard"
	"github.com/coursehub/coursehub/internal/enrollment"
	"github.com/coursehub/coursehub/internal/files"
	"github.com/coursehub/coursehub/internal/observability"
	"github.com/coursehub/coursehub/internal/resources"
	"github.com/coursehub/coursehub/internal/security"
	"github.com/coursehub/coursehub/internal/submissions"
	"github.com/coursehub/coursehub/internal/users"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	Gate               security.Gate
	AuthHandler        *auth.Handler
	UsersHandler       *users.Handler
	CoursesHandler     *courses.Handler
	EnrollmentHandler  *enrollment.Handler
	ResourcesHandler   *resources.Handler
	AssignmentsHandler *assignments.Handler
	SubmissionsHandler *submissions.Handler
	DashboardHandler   *dashboard.Handler
	FilesHandler       *files.Handler
	Metrics            *observability.Metrics
}

// NewRouter constructs the chi.Router with CourseHub defaults. All access
// declarations live here: the gate runs globally, and each mounted module
// declares its role and ownership requirements on its own routes.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Gate:    params.Gate,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/users", params.UsersHandler.MountRoutes)
	r.Route("/courses", func(r chi.Router) {
		params.CoursesHandler.MountRoutes(r)
		params.EnrollmentHandler.MountRoutes(r)
	})
	r.Route("/students", params.EnrollmentHandler.MountStudentRoutes)
	r.Route("/resources", params.ResourcesHandler.MountRoutes)
	r.Route("/assignments", func(r chi.Router) {
		params.AssignmentsHandler.MountRoutes(r)
		params.SubmissionsHandler.MountRoutes(r)
	})
	r.Route("/submissions", params.SubmissionsHandler.MountGradeRoutes)
	r.Route("/dashboard", params.DashboardHandler.MountRoutes)
	r.Route("/files", params.FilesHandler.MountRoutes)

	return r
}
