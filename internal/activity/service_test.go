package activity_test

import (
	"errors"
	"log/slog"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/opsboard/backend/internal"
	"github.com/opsboard/backend/internal/activity"
)

func TestActivity(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Activity Module Suite")
}

// Mock repository keeping entries in canonical order
type mockActivityRepository struct {
	entries     []*activity.Entry
	appendError error
	listError   error
}

func newMockActivityRepository() *mockActivityRepository {
	return &mockActivityRepository{}
}

func (m *mockActivityRepository) Append(entry *activity.Entry) error {
	if m.appendError != nil {
		return m.appendError
	}
	copied := *entry
	m.entries = append(m.entries, &copied)
	return nil
}

func (m *mockActivityRepository) List(filter activity.Filter) ([]*activity.Entry, error) {
	if m.listError != nil {
		return nil, m.listError
	}
	var matched []*activity.Entry
	for _, e := range m.entries {
		if filter.Matches(e) {
			copied := *e
			matched = append(matched, &copied)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].Timestamp.Equal(matched[j].Timestamp) {
			return matched[i].Timestamp.After(matched[j].Timestamp)
		}
		return matched[i].Seq > matched[j].Seq
	})
	return matched, nil
}

func (m *mockActivityRepository) ReplaceAll(entries []*activity.Entry) error {
	m.entries = nil
	for _, e := range entries {
		copied := *e
		m.entries = append(m.entries, &copied)
	}
	return nil
}

func (m *mockActivityRepository) DeleteAll() error {
	m.entries = nil
	return nil
}

func (m *mockActivityRepository) MaxSeq() (int64, error) {
	var max int64
	for _, e := range m.entries {
		if e.Seq > max {
			max = e.Seq
		}
	}
	return max, nil
}

func (m *mockActivityRepository) Count() (int64, error) {
	return int64(len(m.entries)), nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

var _ = ginkgo.Describe("Ledger Service", func() {
	var (
		repo    *mockActivityRepository
		service *activity.Service
	)

	ginkgo.BeforeEach(func() {
		repo = newMockActivityRepository()
		service = activity.NewService(repo, nil, testLogger())
	})

	ginkgo.Describe("Record", func() {
		ginkgo.It("assigns id, timestamp and sequence, then appends", func() {
			entry, err := service.Record(activity.RecordInput{
				UserID:   1,
				UserName: "Ana",
				Category: activity.CategoryData,
				Action:   "Criar",
				Details:  "Carteira X criada",
			})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(entry.ID).NotTo(gomega.BeEmpty())
			gomega.Expect(entry.Timestamp).NotTo(gomega.BeZero())
			gomega.Expect(entry.Seq).To(gomega.Equal(int64(1)))

			entries, err := service.Query(activity.Filter{Category: activity.CategoryData})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(entries).To(gomega.HaveLen(1))
			gomega.Expect(entries[0].Action).To(gomega.Equal("Criar"))
			gomega.Expect(entries[0].Details).To(gomega.Equal("Carteira X criada"))
		})

		ginkgo.It("rejects an unknown category and leaves the log unchanged", func() {
			_, err := service.Record(activity.RecordInput{
				UserID:   1,
				UserName: "Ana",
				Category: activity.Category("bogus"),
				Action:   "Criar",
			})
			gomega.Expect(err).To(gomega.HaveOccurred())

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeInvalidCategory))

			count, _ := repo.Count()
			gomega.Expect(count).To(gomega.BeZero())
		})

		ginkgo.It("rejects an empty action label", func() {
			_, err := service.Record(activity.RecordInput{
				UserID:   1,
				UserName: "Ana",
				Category: activity.CategoryData,
			})
			gomega.Expect(err).To(gomega.HaveOccurred())

			count, _ := repo.Count()
			gomega.Expect(count).To(gomega.BeZero())
		})

		ginkgo.It("surfaces storage failures instead of dropping the write", func() {
			repo.appendError = errors.New("disk full")
			_, err := service.Record(activity.RecordInput{
				UserID:   1,
				UserName: "Ana",
				Category: activity.CategoryData,
				Action:   "Criar",
			})
			gomega.Expect(err).To(gomega.HaveOccurred())

			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Type).To(gomega.Equal(internal.ErrorTypeStorage))
		})

		ginkgo.It("keeps field-level changes on the entry", func() {
			entry, err := service.Record(activity.RecordInput{
				UserID:   2,
				UserName: "Bruno",
				Category: activity.CategoryUser,
				Action:   "Editar",
				Changes: []activity.FieldChange{
					{Field: "role", OldValue: "user", NewValue: "admin"},
				},
			})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(entry.Changes).To(gomega.HaveLen(1))
			gomega.Expect(entry.Changes[0].NewValue).To(gomega.Equal("admin"))
		})
	})

	ginkgo.Describe("Query", func() {
		ginkgo.BeforeEach(func() {
			for _, in := range []activity.RecordInput{
				{UserID: 1, UserName: "Ana", Category: activity.CategoryData, Action: "Criar"},
				{UserID: 2, UserName: "Bruno", Category: activity.CategoryUser, Action: "Bloquear"},
				{UserID: 1, UserName: "Ana", Category: activity.CategoryDismissal, Action: "Desligar"},
			} {
				_, err := service.Record(in)
				gomega.Expect(err).NotTo(gomega.HaveOccurred())
			}
		})

		ginkgo.It("returns the full log most-recent-first on an empty filter", func() {
			entries, err := service.Query(activity.Filter{})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(entries).To(gomega.HaveLen(3))
			gomega.Expect(entries[0].Action).To(gomega.Equal("Desligar"))
			gomega.Expect(entries[2].Action).To(gomega.Equal("Criar"))
		})

		ginkgo.It("is idempotent absent intervening writes", func() {
			first, err := service.Query(activity.Filter{UserName: "Ana"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			second, err := service.Query(activity.Filter{UserName: "Ana"})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(second).To(gomega.Equal(first))
		})

		ginkgo.It("combines filter fields with AND", func() {
			entries, err := service.Query(activity.Filter{
				UserName: "Ana",
				Category: activity.CategoryData,
			})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(entries).To(gomega.HaveLen(1))
			gomega.Expect(entries[0].Action).To(gomega.Equal("Criar"))
		})

		ginkgo.It("breaks same-timestamp ties by insertion sequence", func() {
			ts := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
			seeded := []*activity.Entry{
				{ID: "a", Timestamp: ts, Seq: 1, UserName: "Ana", Category: activity.CategoryData, Action: "Importar"},
				{ID: "b", Timestamp: ts, Seq: 2, UserName: "Ana", Category: activity.CategoryData, Action: "Importar"},
				{ID: "c", Timestamp: ts, Seq: 3, UserName: "Ana", Category: activity.CategoryData, Action: "Importar"},
			}
			raw, err := service.Export(seeded)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(service.Import(raw)).To(gomega.Succeed())

			entries, err := service.Query(activity.Filter{})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(entries).To(gomega.HaveLen(3))
			gomega.Expect(entries[0].ID).To(gomega.Equal("c"))
			gomega.Expect(entries[1].ID).To(gomega.Equal("b"))
			gomega.Expect(entries[2].ID).To(gomega.Equal("a"))
		})

		ginkgo.It("applies the inclusive date range", func() {
			from := time.Now().UTC().Add(-time.Hour)
			to := time.Now().UTC().Add(time.Hour)
			entries, err := service.Query(activity.Filter{From: &from, To: &to})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(entries).To(gomega.HaveLen(3))

			past := time.Now().UTC().Add(-2 * time.Hour)
			entries, err = service.Query(activity.Filter{To: &past})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(entries).To(gomega.BeEmpty())
		})
	})

	ginkgo.Describe("Vocabularies", func() {
		ginkgo.It("projects distinct names, actions and categories from the full log", func() {
			for _, in := range []activity.RecordInput{
				{UserID: 1, UserName: "Ana", Category: activity.CategoryData, Action: "Criar"},
				{UserID: 1, UserName: "Ana", Category: activity.CategoryData, Action: "Editar"},
				{UserID: 2, UserName: "Bruno", Category: activity.CategoryUser, Action: "Criar"},
			} {
				_, err := service.Record(in)
				gomega.Expect(err).NotTo(gomega.HaveOccurred())
			}

			vocab, err := service.Vocabularies()
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(vocab.UserNames).To(gomega.Equal([]string{"Ana", "Bruno"}))
			gomega.Expect(vocab.Actions).To(gomega.Equal([]string{"Criar", "Editar"}))
			gomega.Expect(vocab.Categories).To(gomega.Equal([]activity.Category{activity.CategoryData, activity.CategoryUser}))
		})
	})

	ginkgo.Describe("Export and Import", func() {
		ginkgo.It("round-trips the log by value, preserving ids and timestamps", func() {
			for _, in := range []activity.RecordInput{
				{UserID: 1, UserName: "Ana", Category: activity.CategoryData, Action: "Criar", Details: "Carteira X criada"},
				{UserID: 2, UserName: "Bruno", Category: activity.CategoryUser, Action: "Promover",
					Changes: []activity.FieldChange{{Field: "role", OldValue: "user", NewValue: "admin"}}},
			} {
				_, err := service.Record(in)
				gomega.Expect(err).NotTo(gomega.HaveOccurred())
			}

			original, err := service.Query(activity.Filter{})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			raw, err := service.Export(original)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			gomega.Expect(service.ClearAll()).To(gomega.Succeed())
			gomega.Expect(service.Import(raw)).To(gomega.Succeed())

			restored, err := service.Query(activity.Filter{})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(restored).To(gomega.Equal(original))
		})

		ginkgo.It("rejects a payload containing an invalid category", func() {
			raw := []byte(`{"exportedAt":"2026-01-01T00:00:00Z","entries":[{"id":"x","timestamp":"2026-01-01T00:00:00Z","seq":1,"userId":1,"userName":"Ana","category":"bogus","action":"Criar","details":""}]}`)
			err := service.Import(raw)
			gomega.Expect(err).To(gomega.HaveOccurred())
		})

		ginkgo.It("continues the sequence after a restore", func() {
			ts := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
			raw, err := service.Export([]*activity.Entry{
				{ID: "a", Timestamp: ts, Seq: 7, UserName: "Ana", Category: activity.CategoryData, Action: "Importar"},
			})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(service.Import(raw)).To(gomega.Succeed())

			entry, err := service.Record(activity.RecordInput{
				UserID: 1, UserName: "Ana", Category: activity.CategoryData, Action: "Criar",
			})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(entry.Seq).To(gomega.Equal(int64(8)))
		})
	})

	ginkgo.Describe("ClearAll", func() {
		ginkgo.It("empties a non-empty log", func() {
			_, err := service.Record(activity.RecordInput{
				UserID: 1, UserName: "Ana", Category: activity.CategoryData, Action: "Criar",
			})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())

			gomega.Expect(service.ClearAll()).To(gomega.Succeed())

			entries, err := service.Query(activity.Filter{})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(entries).To(gomega.BeEmpty())
		})
	})
})
