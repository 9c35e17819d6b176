package extract

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

var _ = Describe("Merchant", func() {
	It("skips boilerplate lines", func() {
		m, ok := Merchant("RECEIPT\n(555) 123-4567\nwww.example.com\n** Joe's Diner **\n42 Elm Street")
		Expect(ok).To(BeTrue())
		Expect(m).To(Equal("Joe's Diner"))
	})

	It("skips address and numeric lines", func() {
		m, ok := Merchant("123 Main St\n2024\nCorner Market")
		Expect(ok).To(BeTrue())
		Expect(m).To(Equal("Corner Market"))
	})

	It("only looks at the first eight lines", func() {
		_, ok := Merchant("1\n2\n3\n4\n5\n6\n7\n8\nLate Name")
		Expect(ok).To(BeFalse())
	})

	It("collapses internal whitespace", func() {
		m, ok := Merchant("  Blue    Bottle   Coffee ")
		Expect(ok).To(BeTrue())
		Expect(m).To(Equal("Blue Bottle Coffee"))
	})

	It("rejects single characters", func() {
		_, ok := Merchant("A\n###")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Total", func() {
	It("uses the amount on the keyword line", func() {
		t, ok := Total("Coffee 3.00\nTOTAL DUE $45.67\nThank you")
		Expect(ok).To(BeTrue())
		Expect(t.Equal(decimal.RequireFromString("45.67"))).To(BeTrue())
	})

	It("looks at the following line when the keyword line has no amount", func() {
		t, ok := Total("Grand Total\n$ 18.20")
		Expect(ok).To(BeTrue())
		Expect(t.Equal(decimal.RequireFromString("18.20"))).To(BeTrue())
	})

	It("takes the right-most amount on a line", func() {
		t, ok := Total("TOTAL 2 items 3.50 12.75")
		Expect(ok).To(BeTrue())
		Expect(t.Equal(decimal.RequireFromString("12.75"))).To(BeTrue())
	})

	It("gives earlier keywords priority", func() {
		t, ok := Total("Total 10.00\nAmount 12.00")
		Expect(ok).To(BeTrue())
		Expect(t.Equal(decimal.RequireFromString("12.00"))).To(BeTrue())
	})

	It("does not treat subtotal as a total keyword", func() {
		t, ok := Total("Subtotal 8.00\nTax 0.64\nTotal 8.64")
		Expect(ok).To(BeTrue())
		Expect(t.Equal(decimal.RequireFromString("8.64"))).To(BeTrue())
	})

	It("handles comma decimal receipts", func() {
		t, ok := Total("SUMME\nTotal EUR 1.234,56")
		Expect(ok).To(BeTrue())
		Expect(t.Equal(decimal.RequireFromString("1234.56"))).To(BeTrue())
	})

	It("falls back to the largest plausible amount", func() {
		t, ok := Total("Latte 4.50\nMuffin 3.25\nRef 12345.67")
		Expect(ok).To(BeTrue())
		Expect(t.Equal(decimal.RequireFromString("4.50"))).To(BeTrue())
	})

	DescribeTable("reads whole amounts",
		func(input, expected string) {
			t, ok := Total(input)
			Expect(ok).To(BeTrue())
			Expect(t.Equal(decimal.RequireFromString(expected))).To(BeTrue(), "got %s", t)
		},
		Entry("yen without cents", "TOTAL ¥1,234", "1234"),
		Entry("comma grouped integer", "TOTAL 1,234", "1234"),
		Entry("space grouped thousands", "TOTAL 1 234,56", "1234.56"),
		Entry("no-break space grouped thousands", "TOTAL 12\u00a0345,00", "12345.00"),
	)

	It("does not truncate an over-long decimal part", func() {
		t, ok := Total("Grand Total 45.678")
		Expect(ok).To(BeTrue())
		Expect(t.Equal(decimal.RequireFromString("45.67"))).To(BeFalse())
	})

	It("skips a truncated match and keeps looking", func() {
		t, ok := Total("TOTAL 1,2345 9.99")
		Expect(ok).To(BeTrue())
		Expect(t.Equal(decimal.RequireFromString("9.99"))).To(BeTrue())
	})

	It("returns false without any amount", func() {
		_, ok := Total("no numbers here")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Text", func() {
	It("keeps the receipt date when an item line looks like a month", func() {
		inv := Text("Blue Bottle\nDecaf 2 12.50\nTOTAL 12.50\nJan 5, 2024")
		Expect(inv.Date).To(Equal("2024-01-05"))
		Expect(inv.Total.Decimal.Equal(decimal.RequireFromString("12.50"))).To(BeTrue())
	})

	It("extracts every field from a simple receipt", func() {
		inv := Text("STARBUCKS\n123 Main St\nTOTAL $4.75\n05/12/2024")
		Expect(inv.Merchant).To(Equal("STARBUCKS"))
		Expect(inv.Total.Valid).To(BeTrue())
		Expect(inv.Total.Decimal.Equal(decimal.RequireFromString("4.75"))).To(BeTrue())
		Expect(inv.Date).To(Equal("2024-05-12"))
		Expect(inv.Category).To(Equal("Coffee"))
		Expect(inv.RawText).To(Equal("STARBUCKS\n123 Main St\nTOTAL $4.75\n05/12/2024"))
	})

	It("returns an empty invoice for garbled text", func() {
		raw := "~~ ||| ::\n%% ^^ &&"
		inv := Text(raw)
		data, err := json.Marshal(inv)
		Expect(err).NotTo(HaveOccurred())
		Expect(data).To(MatchJSON(`{"merchant":null,"total":null,"date":null,"category":null,"rawText":"~~ ||| ::\n%% ^^ &&"}`))
	})

	It("returns an empty invoice for empty text", func() {
		inv := Text("")
		Expect(inv.HasFields()).To(BeFalse())
		Expect(inv.RawText).To(BeEmpty())
	})

	It("is deterministic", func() {
		raw := "Hotel Lumen\nInvoice Total 1.234,50\n3 Jun 2024"
		first, err := json.Marshal(Text(raw))
		Expect(err).NotTo(HaveOccurred())
		second, err := json.Marshal(Text(raw))
		Expect(err).NotTo(HaveOccurred())
		Expect(first).To(Equal(second))
	})

	It("extracts fields independently", func() {
		inv := Text("TOTAL 9.99")
		Expect(inv.Merchant).To(BeEmpty())
		Expect(inv.Total.Valid).To(BeTrue())
		Expect(inv.Date).To(BeEmpty())
	})
})
