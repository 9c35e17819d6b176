package extract

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

var _ = Describe("Amount", func() {
	DescribeTable("normalizes separator conventions",
		func(input, expected string) {
			d, ok := Amount(input)
			Expect(ok).To(BeTrue())
			Expect(d.Equal(decimal.RequireFromString(expected))).To(BeTrue(), "got %s", d)
		},
		Entry("comma thousands, dot decimal", "1,234.56", "1234.56"),
		Entry("dot thousands, comma decimal", "1.234,56", "1234.56"),
		Entry("comma decimal", "12,34", "12.34"),
		Entry("comma thousands", "1,234", "1234"),
		Entry("plain decimal", "45.67", "45.67"),
		Entry("integer", "42", "42"),
		Entry("currency symbol", "$ 4.75", "4.75"),
		Entry("euro symbol", "€12,50", "12.50"),
		Entry("currency code", "USD 99.00", "99"),
		Entry("several thousands groups", "1.234.567,89", "1234567.89"),
	)

	DescribeTable("rejects non-numeric text",
		func(input string) {
			_, ok := Amount(input)
			Expect(ok).To(BeFalse())
		},
		Entry("empty", ""),
		Entry("letters", "abc"),
		Entry("two dots", "1.234.56"),
		Entry("symbol only", "$"),
	)

	It("distinguishes zero from unparseable", func() {
		d, ok := Amount("0.00")
		Expect(ok).To(BeTrue())
		Expect(d.IsZero()).To(BeTrue())
	})
})
