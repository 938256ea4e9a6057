package authz

import (
	"testing"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
)

func TestAuthz(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Authz Module Suite")
}

var _ = ginkgo.Describe("Evaluator", func() {
	var (
		superadmin *Subject
		admin      *Subject
		viewer     *Subject
	)

	ginkgo.BeforeEach(func() {
		superadmin = &Subject{ID: 1, Name: "Root", Role: RoleSuperAdmin}
		admin = &Subject{ID: 2, Name: "Ana", Role: RoleAdmin}
		viewer = &Subject{
			ID:   3,
			Name: "Bruno",
			Role: RoleUser,
			Permissions: PermissionSet{
				TabGrants: []TabGrant{
					{TabID: "quadro", CanView: true, CanEdit: false},
				},
			},
		}
	})

	ginkgo.Describe("HasEditPermission", func() {
		ginkgo.It("allows admins and superadmins for every action", func() {
			for _, action := range []Action{ActionCreate, ActionEdit, ActionDelete} {
				gomega.Expect(HasEditPermission(admin, action)).To(gomega.BeTrue())
				gomega.Expect(HasEditPermission(superadmin, action)).To(gomega.BeTrue())
			}
		})

		ginkgo.It("denies plain users regardless of action", func() {
			for _, action := range []Action{ActionCreate, ActionEdit, ActionDelete} {
				gomega.Expect(HasEditPermission(viewer, action)).To(gomega.BeFalse())
			}
		})

		ginkgo.It("denies a nil subject", func() {
			gomega.Expect(HasEditPermission(nil, ActionCreate)).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("IsSuperAdmin", func() {
		ginkgo.It("is true only for the superadmin role", func() {
			gomega.Expect(IsSuperAdmin(superadmin)).To(gomega.BeTrue())
			gomega.Expect(IsSuperAdmin(admin)).To(gomega.BeFalse())
			gomega.Expect(IsSuperAdmin(viewer)).To(gomega.BeFalse())
			gomega.Expect(IsSuperAdmin(nil)).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("CanAccessTab", func() {
		ginkgo.It("bypasses grants for superadmins, including unknown sections", func() {
			gomega.Expect(CanAccessTab(superadmin, "quadro")).To(gomega.BeTrue())
			gomega.Expect(CanAccessTab(superadmin, "never-granted")).To(gomega.BeTrue())
		})

		ginkgo.It("follows the per-section grant for plain users", func() {
			gomega.Expect(CanAccessTab(viewer, "quadro")).To(gomega.BeTrue())
			gomega.Expect(CanAccessTab(viewer, "carteiras")).To(gomega.BeFalse())
		})

		ginkgo.It("fails closed on a missing grant list", func() {
			bare := &Subject{ID: 9, Role: RoleUser}
			gomega.Expect(CanAccessTab(bare, "quadro")).To(gomega.BeFalse())
		})

		ginkgo.It("uses the first matching grant when an id is duplicated", func() {
			dup := &Subject{
				ID:   4,
				Role: RoleUser,
				Permissions: PermissionSet{
					TabGrants: []TabGrant{
						{TabID: "quadro", CanView: false},
						{TabID: "quadro", CanView: true},
					},
				},
			}
			gomega.Expect(CanAccessTab(dup, "quadro")).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("CanEditSection", func() {
		ginkgo.It("lets admins edit every section regardless of grants", func() {
			gomega.Expect(CanEditSection(admin, "quadro")).To(gomega.BeTrue())
			gomega.Expect(CanEditSection(admin, "never-granted")).To(gomega.BeTrue())
		})

		ginkgo.It("respects the CanEdit flag for plain users", func() {
			gomega.Expect(CanEditSection(viewer, "quadro")).To(gomega.BeFalse())

			editor := &Subject{
				ID:   5,
				Role: RoleUser,
				Permissions: PermissionSet{
					TabGrants: []TabGrant{{TabID: "quadro", CanView: true, CanEdit: true}},
				},
			}
			gomega.Expect(CanEditSection(editor, "quadro")).To(gomega.BeTrue())
			gomega.Expect(CanEditSection(editor, "carteiras")).To(gomega.BeFalse())
		})
	})

	ginkgo.Describe("blocked subjects", func() {
		ginkgo.It("denies every capability regardless of role", func() {
			for _, role := range []Role{RoleSuperAdmin, RoleAdmin, RoleUser} {
				blocked := &Subject{
					ID:      10,
					Role:    role,
					Blocked: true,
					Permissions: PermissionSet{
						CanManageUsers:  true,
						CanCreateGroups: true,
						TabGrants:       []TabGrant{{TabID: "quadro", CanView: true, CanEdit: true}},
					},
				}
				gomega.Expect(HasEditPermission(blocked, ActionEdit)).To(gomega.BeFalse())
				gomega.Expect(IsSuperAdmin(blocked)).To(gomega.BeFalse())
				gomega.Expect(CanAccessTab(blocked, "quadro")).To(gomega.BeFalse())
				gomega.Expect(CanEditSection(blocked, "quadro")).To(gomega.BeFalse())
				gomega.Expect(CanManageUsers(blocked)).To(gomega.BeFalse())
				gomega.Expect(CanCreateGroups(blocked)).To(gomega.BeFalse())
			}
		})
	})

	ginkgo.Describe("CanManageUsers and CanCreateGroups", func() {
		ginkgo.It("superadmins always can", func() {
			gomega.Expect(CanManageUsers(superadmin)).To(gomega.BeTrue())
			gomega.Expect(CanCreateGroups(superadmin)).To(gomega.BeTrue())
		})

		ginkgo.It("admins need the explicit flags", func() {
			gomega.Expect(CanManageUsers(admin)).To(gomega.BeFalse())
			gomega.Expect(CanCreateGroups(admin)).To(gomega.BeFalse())

			admin.Permissions.CanManageUsers = true
			admin.Permissions.CanCreateGroups = true
			gomega.Expect(CanManageUsers(admin)).To(gomega.BeTrue())
			gomega.Expect(CanCreateGroups(admin)).To(gomega.BeTrue())
		})
	})
})
