package points

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func mustParse(r Receipt) *Purchase {
	p, err := Parse(r)
	Expect(err).NotTo(HaveOccurred())
	return p
}

func withTotal(total string) *Purchase {
	r := baseline()
	r.Total = total
	return mustParse(r)
}

func withTime(clock string) *Purchase {
	r := baseline()
	r.PurchaseTime = clock
	return mustParse(r)
}

func withItems(items ...Item) *Purchase {
	r := baseline()
	r.Items = items
	return mustParse(r)
}

var _ = Describe("Rules", func() {
	DescribeTable("RetailerAlphanumerics",
		func(retailer string, expected int) {
			r := baseline()
			r.Retailer = retailer
			Expect(RetailerAlphanumerics(mustParse(r))).To(Equal(expected))
		},
		Entry("plain name", "Target", 6),
		Entry("punctuation and spaces", "M&M Corner Market", 14),
		Entry("digits count", "7-Eleven 24", 9),
		Entry("case does not matter", "aBcD", 4),
		Entry("non-ASCII letters are excluded", "Café", 3),
		Entry("only punctuation", "&-_ !", 0),
	)

	DescribeTable("total rules",
		func(total string, round, quarterPoints int) {
			p := withTotal(total)
			Expect(RoundDollarTotal(p)).To(Equal(round))
			Expect(QuarterMultipleTotal(p)).To(Equal(quarterPoints))
		},
		Entry("round dollar", "25.00", 50, 25),
		Entry("half dollar", "25.50", 0, 25),
		Entry("quarter", "0.75", 0, 25),
		Entry("neither", "25.10", 0, 0),
		Entry("zero", "0.00", 50, 25),
		Entry("large amount", "123456789.25", 0, 25),
	)

	DescribeTable("ItemPairs",
		func(count, expected int) {
			items := make([]Item, count)
			for i := range items {
				items[i] = Item{ShortDescription: "x", Price: "1.00"}
			}
			Expect(ItemPairs(withItems(items...))).To(Equal(expected))
		},
		Entry("no items", 0, 0),
		Entry("one item", 1, 0),
		Entry("two items", 2, 5),
		Entry("five items", 5, 10),
	)

	DescribeTable("ItemDescriptionLength",
		func(item Item, expected int) {
			Expect(ItemDescriptionLength(withItems(item))).To(Equal(expected))
		},
		Entry("length multiple of three", Item{ShortDescription: "Emils Cheese Pizza", Price: "12.25"}, 3),
		Entry("surrounding whitespace is trimmed", Item{ShortDescription: "   Klarbrunn 12-PK 12 FL OZ  ", Price: "12.00"}, 3),
		Entry("exact price on an integer boundary", Item{ShortDescription: "abc", Price: "10.00"}, 2),
		Entry("one cent over a boundary rounds up", Item{ShortDescription: "abc", Price: "10.01"}, 3),
		Entry("free item", Item{ShortDescription: "abc", Price: "0.00"}, 0),
		Entry("length not a multiple of three", Item{ShortDescription: "Gatorade", Price: "2.25"}, 0),
		Entry("whitespace-only description earns nothing", Item{ShortDescription: "   ", Price: "9.00"}, 0),
		Entry("empty description earns nothing", Item{ShortDescription: "", Price: "9.00"}, 0),
		Entry("length counts characters, not bytes", Item{ShortDescription: "ab😀", Price: "10.00"}, 2),
		Entry("accented characters count once", Item{ShortDescription: "Café Au Lait", Price: "10.00"}, 2),
		Entry("non-breaking spaces are trimmed", Item{ShortDescription: "\u00a0abc\u00a0", Price: "10.00"}, 2),
	)

	DescribeTable("OddPurchaseDay",
		func(date string, expected int) {
			r := baseline()
			r.PurchaseDate = date
			Expect(OddPurchaseDay(mustParse(r))).To(Equal(expected))
		},
		Entry("first of month", "2022-01-01", 6),
		Entry("31st", "2022-12-31", 6),
		Entry("even day", "2022-01-02", 0),
		Entry("leap day", "2024-02-29", 6),
	)

	DescribeTable("AfternoonPurchase",
		func(clock string, expected int) {
			Expect(AfternoonPurchase(withTime(clock))).To(Equal(expected))
		},
		Entry("window opens", "14:00", 10),
		Entry("mid window", "14:33", 10),
		Entry("window closes", "15:59", 10),
		Entry("just before", "13:59", 0),
		Entry("just after", "16:00", 0),
		Entry("midnight", "00:00", 0),
	)
})

var _ = Describe("ParseMoney", func() {
	DescribeTable("rejects malformed amounts",
		func(value string) {
			_, err := ParseMoney(value)
			Expect(err).To(MatchError(ErrMalformedNumeric))
		},
		Entry("one decimal place", "1.5"),
		Entry("three decimal places", "1.500"),
		Entry("no decimal point", "15"),
		Entry("negative", "-1.00"),
		Entry("empty", ""),
		Entry("currency symbol", "$1.00"),
	)

	It("should parse a valid amount exactly", func() {
		d, err := ParseMoney("12.25")
		Expect(err).NotTo(HaveOccurred())
		Expect(d.String()).To(Equal("12.25"))
	})
})
