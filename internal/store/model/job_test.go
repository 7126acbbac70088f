package model

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("job status lifecycle", func() {
	Context("transitions", func() {
		It("follows the happy path", func() {
			now := time.Now()
			job := &Job{Status: JobStatusPending}

			Expect(job.Transition(JobStatusQueued, now)).To(Succeed())
			Expect(job.Status).To(Equal(JobStatusQueued))
			Expect(job.StartedAt).To(BeNil())

			Expect(job.Transition(JobStatusRunning, now)).To(Succeed())
			Expect(job.StartedAt).NotTo(BeNil())
			Expect(job.CompletedAt).To(BeNil())

			Expect(job.Transition(JobStatusCompleted, now)).To(Succeed())
			Expect(job.CompletedAt).NotTo(BeNil())
		})

		It("allows cancellation from every non-terminal status", func() {
			for _, from := range []JobStatus{JobStatusPending, JobStatusQueued, JobStatusRunning} {
				job := &Job{Status: from}
				Expect(job.Transition(JobStatusCancelled, time.Now())).To(Succeed())
				Expect(job.CompletedAt).NotTo(BeNil())
			}
		})

		It("allows failure from every non-terminal status", func() {
			for _, from := range []JobStatus{JobStatusPending, JobStatusQueued, JobStatusRunning} {
				job := &Job{Status: from}
				Expect(job.Transition(JobStatusFailed, time.Now())).To(Succeed())
			}
		})

		It("rejects skipping the queue", func() {
			job := &Job{Status: JobStatusPending}
			err := job.Transition(JobStatusRunning, time.Now())
			Expect(err).To(HaveOccurred())
			Expect(job.Status).To(Equal(JobStatusPending))
		})

		It("rejects completing a job that never ran", func() {
			job := &Job{Status: JobStatusQueued}
			err := job.Transition(JobStatusCompleted, time.Now())
			Expect(err).To(HaveOccurred())
		})
	})

	Context("terminal statuses", func() {
		It("never transition again", func() {
			terminals := []JobStatus{JobStatusCompleted, JobStatusFailed, JobStatusCancelled}
			all := []JobStatus{
				JobStatusPending, JobStatusQueued, JobStatusRunning,
				JobStatusCompleted, JobStatusFailed, JobStatusCancelled,
			}

			for _, from := range terminals {
				Expect(from.IsTerminal()).To(BeTrue())
				for _, to := range all {
					job := &Job{Status: from}
					err := job.Transition(to, time.Now())
					Expect(err).To(HaveOccurred())

					var invalid *ErrInvalidTransition
					Expect(errors.As(err, &invalid)).To(BeTrue())
					Expect(job.Status).To(Equal(from))
				}
			}
		})

		It("non-terminal statuses are reported as such", func() {
			for _, s := range []JobStatus{JobStatusPending, JobStatusQueued, JobStatusRunning} {
				Expect(s.IsTerminal()).To(BeFalse())
			}
		})
	})
})
