package authz

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

var _ = ginkgo.Describe("Gate", func() {
	var (
		gate    *Gate
		handler http.Handler
		called  bool
	)

	ginkgo.BeforeEach(func() {
		gate = NewGate(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
		called = false
		handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			w.WriteHeader(http.StatusOK)
		})
	})

	request := func(mw func(http.Handler) http.Handler, subject *Subject) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if subject != nil {
			req = req.WithContext(ContextWithSubject(req.Context(), subject))
		}
		rec := httptest.NewRecorder()
		mw(handler).ServeHTTP(rec, req)
		return rec
	}

	ginkgo.It("returns 401 when no subject is in context", func() {
		rec := request(gate.RequireSectionView("quadro"), nil)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusUnauthorized))
		gomega.Expect(called).To(gomega.BeFalse())
	})

	ginkgo.It("returns 403 when the subject lacks the section grant", func() {
		rec := request(gate.RequireSectionView("quadro"), &Subject{ID: 1, Role: RoleUser})
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
		gomega.Expect(called).To(gomega.BeFalse())
	})

	ginkgo.It("passes through when the check allows", func() {
		subject := &Subject{
			ID:   1,
			Role: RoleUser,
			Permissions: PermissionSet{
				TabGrants: []TabGrant{{TabID: "quadro", CanView: true}},
			},
		}
		rec := request(gate.RequireSectionView("quadro"), subject)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
		gomega.Expect(called).To(gomega.BeTrue())
	})

	ginkgo.It("gates user management on the explicit capability", func() {
		rec := request(gate.RequireManageUsers(), &Subject{ID: 2, Role: RoleAdmin})
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))

		rec = request(gate.RequireManageUsers(), &Subject{
			ID: 2, Role: RoleAdmin,
			Permissions: PermissionSet{CanManageUsers: true},
		})
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))
	})

	ginkgo.It("rejects blocked subjects everywhere", func() {
		rec := request(gate.RequireSuperAdmin(), &Subject{ID: 3, Role: RoleSuperAdmin, Blocked: true})
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
	})
})
