package backup_test

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/opsboard/backend/internal/backup"
)

// fakeClock hands the scheduler a channel the test fires by hand, so ticks
// happen exactly when the test says and never otherwise.
type fakeClock struct {
	ticks chan time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{ticks: make(chan time.Time)}
}

func (c *fakeClock) Now() time.Time                         { return time.Now() }
func (c *fakeClock) After(d time.Duration) <-chan time.Time { return c.ticks }

func (c *fakeClock) tick() {
	c.ticks <- time.Now()
}

var _ = ginkgo.Describe("Backup Scheduler", func() {
	ginkgo.It("rejects intervals outside the allowed set", func() {
		_, err := backup.NewScheduler(7, func() error { return nil }, newFakeClock(), testLogger())
		gomega.Expect(err).To(gomega.HaveOccurred())

		_, err = backup.NewScheduler(15, func() error { return nil }, newFakeClock(), testLogger())
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
	})

	ginkgo.It("runs the snapshot on every tick", func() {
		clock := newFakeClock()
		var runs atomic.Int32
		ran := make(chan struct{}, 4)

		scheduler, err := backup.NewScheduler(5, func() error {
			runs.Add(1)
			ran <- struct{}{}
			return nil
		}, clock, testLogger())
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		scheduler.Start()
		defer scheduler.Stop()

		clock.tick()
		gomega.Eventually(ran).Should(gomega.Receive())
		clock.tick()
		gomega.Eventually(ran).Should(gomega.Receive())

		gomega.Expect(runs.Load()).To(gomega.Equal(int32(2)))
	})

	ginkgo.It("skips a tick while the previous run is still going", func() {
		clock := newFakeClock()
		started := make(chan struct{})
		release := make(chan struct{})
		var runs atomic.Int32

		scheduler, err := backup.NewScheduler(5, func() error {
			runs.Add(1)
			started <- struct{}{}
			<-release
			return nil
		}, clock, testLogger())
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		scheduler.Start()
		defer scheduler.Stop()

		clock.tick()
		gomega.Eventually(started).Should(gomega.Receive())

		// second tick arrives while the first run is blocked
		clock.tick()
		gomega.Consistently(runs.Load).Should(gomega.Equal(int32(1)))

		close(release)
	})

	ginkgo.It("survives errors and panics from the run function", func() {
		clock := newFakeClock()
		var runs atomic.Int32
		ran := make(chan struct{}, 4)

		scheduler, err := backup.NewScheduler(5, func() error {
			n := runs.Add(1)
			ran <- struct{}{}
			if n == 1 {
				return errors.New("disk full")
			}
			panic("unexpected state")
		}, clock, testLogger())
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		scheduler.Start()
		defer scheduler.Stop()

		clock.tick()
		gomega.Eventually(ran).Should(gomega.Receive())
		clock.tick()
		gomega.Eventually(ran).Should(gomega.Receive())

		// a third tick still fires after an error and a panic
		clock.tick()
		gomega.Eventually(ran).Should(gomega.Receive())
	})

	ginkgo.It("stops cleanly and can be restarted", func() {
		clock := newFakeClock()
		ran := make(chan struct{}, 4)

		scheduler, err := backup.NewScheduler(5, func() error {
			ran <- struct{}{}
			return nil
		}, clock, testLogger())
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		scheduler.Start()
		clock.tick()
		gomega.Eventually(ran).Should(gomega.Receive())

		scheduler.Stop()
		scheduler.Start()
		clock.tick()
		gomega.Eventually(ran).Should(gomega.Receive())
		scheduler.Stop()
	})

	ginkgo.It("validates the interval on reconfigure", func() {
		scheduler, err := backup.NewScheduler(5, func() error { return nil }, newFakeClock(), testLogger())
		gomega.Expect(err).NotTo(gomega.HaveOccurred())

		gomega.Expect(scheduler.Reconfigure(3)).To(gomega.HaveOccurred())
		gomega.Expect(scheduler.Reconfigure(30)).To(gomega.Succeed())
	})
})
