package receipt

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/receipt-processor/internal/points"
)

// describeDB runs the same behaviour checks against every DB backend
func describeDB(name string, open func(dir string) (DB, error)) {
	Describe(name, func() {
		var (
			db  DB
			ctx context.Context
		)

		BeforeEach(func() {
			ctx = context.Background()
			var err error
			db, err = open(GinkgoT().TempDir())
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			if db != nil {
				db.Close()
			}
		})

		Describe("SaveReceipt", func() {
			var (
				record *Record
				err    error
			)

			BeforeEach(func() {
				record = &Record{
					ID:      "test-id",
					Receipt: targetReceipt(),
					Points:  105,
					Breakdown: []points.Contribution{
						{Rule: points.RuleRetailerName, Points: 6},
					},
					Source:    SourceJSON,
					CreatedAt: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
				}
			})

			JustBeforeEach(func() {
				err = db.SaveReceipt(ctx, record)
			})

			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should round-trip the record", func() {
				saved, getErr := db.GetReceipt(ctx, "test-id")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.ID).To(Equal("test-id"))
				Expect(saved.Points).To(Equal(105))
				Expect(saved.Receipt).To(Equal(targetReceipt()))
				Expect(saved.Breakdown).To(Equal(record.Breakdown))
				Expect(saved.CreatedAt.Equal(record.CreatedAt)).To(BeTrue())
			})
		})

		Describe("record isolation", func() {
			var record *Record

			BeforeEach(func() {
				record = &Record{
					ID:        "isolated",
					Receipt:   targetReceipt(),
					Points:    105,
					Breakdown: []points.Contribution{{Rule: points.RuleRetailerName, Points: 6}},
				}
				Expect(db.SaveReceipt(ctx, record)).To(Succeed())
			})

			It("should not see changes the caller makes after saving", func() {
				record.Breakdown[0].Points = 999
				record.Receipt.Items[0].Price = "0.00"

				saved, err := db.GetReceipt(ctx, "isolated")
				Expect(err).NotTo(HaveOccurred())
				Expect(saved.Breakdown[0].Points).To(Equal(6))
				Expect(saved.Receipt.Items[0].Price).To(Equal(targetReceipt().Items[0].Price))
			})

			It("should not see changes made to a returned record", func() {
				got, err := db.GetReceipt(ctx, "isolated")
				Expect(err).NotTo(HaveOccurred())
				got.Breakdown[0].Points = 999
				got.Receipt.Items[0].ShortDescription = "changed"

				again, err := db.GetReceipt(ctx, "isolated")
				Expect(err).NotTo(HaveOccurred())
				Expect(again.Breakdown[0].Points).To(Equal(6))
				Expect(again.Receipt.Items[0].ShortDescription).To(Equal(targetReceipt().Items[0].ShortDescription))
			})
		})

		Describe("GetReceipt", func() {
			When("receipt does not exist", func() {
				It("returns ErrNotFound", func() {
					_, err := db.GetReceipt(ctx, "nonexistent")
					Expect(err).To(MatchError(ErrNotFound))
					Expect(err).To(MatchError(ContainSubstring("nonexistent")))
				})
			})
		})

		Describe("ListReceipts", func() {
			var (
				records []*Record
				err     error
			)

			JustBeforeEach(func() {
				records, err = db.ListReceipts(ctx)
			})

			When("receipts exist", func() {
				BeforeEach(func() {
					base := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
					Expect(db.SaveReceipt(ctx, &Record{ID: "id1", Points: 1, CreatedAt: base})).To(Succeed())
					Expect(db.SaveReceipt(ctx, &Record{ID: "id2", Points: 2, CreatedAt: base.Add(time.Minute)})).To(Succeed())
				})

				It("should not return an error", func() {
					Expect(err).NotTo(HaveOccurred())
				})

				It("should return all receipts", func() {
					Expect(records).To(HaveLen(2))
					Expect(records[0].ID).To(Equal("id1"))
					Expect(records[1].ID).To(Equal("id2"))
				})
			})

			When("no receipts exist", func() {
				It("should return an empty list", func() {
					Expect(err).NotTo(HaveOccurred())
					Expect(records).NotTo(BeNil())
					Expect(records).To(BeEmpty())
				})
			})
		})

		Describe("concurrent access", func() {
			It("should keep every write", func() {
				var wg sync.WaitGroup
				for i := 0; i < 20; i++ {
					wg.Add(1)
					go func(i int) {
						defer wg.Done()
						defer GinkgoRecover()
						id := fmt.Sprintf("id-%02d", i)
						Expect(db.SaveReceipt(ctx, &Record{ID: id, Points: i})).To(Succeed())
						got, err := db.GetReceipt(ctx, id)
						Expect(err).NotTo(HaveOccurred())
						Expect(got.Points).To(Equal(i))
					}(i)
				}
				wg.Wait()

				records, err := db.ListReceipts(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(records).To(HaveLen(20))
			})
		})

		Describe("Close", func() {
			It("should not return an error", func() {
				Expect(db.Close()).To(Succeed())
				db = nil
			})
		})
	})
}

var _ = Describe("DB backends", func() {
	describeDB("BoltDB", func(dir string) (DB, error) {
		return NewBoltDB(filepath.Join(dir, "test.db"))
	})

	describeDB("SQLiteDB", func(dir string) (DB, error) {
		return NewSQLiteDB(filepath.Join(dir, "test.sqlite"))
	})

	describeDB("MemoryDB", func(dir string) (DB, error) {
		return NewMemoryDB(), nil
	})
})
