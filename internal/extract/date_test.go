package extract

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Date", func() {
	DescribeTable("resolves dates",
		func(input, expected string) {
			d, ok := Date(input)
			Expect(ok).To(BeTrue())
			Expect(d).To(Equal(expected))
		},
		Entry("first component above 12 is the day", "13/05/2024", "2024-05-13"),
		Entry("second component above 12 is the day", "05/13/2024", "2024-05-13"),
		Entry("month name with comma", "Jan 5, 2024", "2024-01-05"),
		Entry("full month name", "Date: September 21 2023", "2023-09-21"),
		Entry("day before month name", "5 Mar 2024", "2024-03-05"),
		Entry("two digit year", "13-05-24", "2024-05-13"),
		Entry("dash separators", "12-25-2023", "2023-12-25"),
		Entry("iso order", "2024-05-13", "2024-05-13"),
		Entry("embedded in a line", "DATE 28/02/2023 14:32", "2023-02-28"),
	)

	// Neither component exceeds 12 so day/month order cannot be recovered from
	// the text. Month-first is an accepted heuristic, not a guarantee.
	It("reads ambiguous numeric dates month-first", func() {
		d, ok := Date("05/12/2024")
		Expect(ok).To(BeTrue())
		Expect(d).To(Equal("2024-05-12"))
	})

	It("skips invalid calendar dates and keeps looking", func() {
		d, ok := Date("ref 31/02/2024\nvisit Mar 3, 2024")
		Expect(ok).To(BeTrue())
		Expect(d).To(Equal("2024-03-03"))
	})

	DescribeTable("does not read item words as month names",
		func(input, expected string) {
			d, ok := Date(input)
			Expect(ok).To(BeTrue())
			Expect(d).To(Equal(expected))
		},
		Entry("decaf before the date", "Decaf 2 12.50\nJan 5, 2024", "2024-01-05"),
		Entry("margarita before the date", "Margarita 2 14.00\n12 May 2023", "2023-05-12"),
		Entry("octopus before the date", "Octopus 1 18.00\nMar 1, 2024", "2024-03-01"),
		Entry("abbreviated sept", "Sept. 3, 2024", "2024-09-03"),
	)

	It("does not take a price as the year", func() {
		_, ok := Date("Jan 5 12.50")
		Expect(ok).To(BeFalse())
	})

	It("ignores phone numbers", func() {
		_, ok := Date("Call 555-123-4567")
		Expect(ok).To(BeFalse())
	})

	It("rejects February 29th outside leap years", func() {
		_, ok := Date("02/29/2023")
		Expect(ok).To(BeFalse())
	})

	It("returns false when there is no date", func() {
		_, ok := Date("THANK YOU")
		Expect(ok).To(BeFalse())
	})
})
