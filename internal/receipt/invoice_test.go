package receipt

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"
)

var _ = Describe("ParsedInvoice", func() {
	Describe("MarshalJSON", func() {
		It("writes absent fields as null", func() {
			data, err := json.Marshal(ParsedInvoice{})
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(MatchJSON(`{"merchant":null,"total":null,"date":null,"category":null,"rawText":null}`))
		})

		It("writes the total as a JSON number", func() {
			inv := ParsedInvoice{
				Merchant: "STARBUCKS",
				Total:    decimal.NewNullDecimal(decimal.RequireFromString("4.75")),
				Date:     "2024-05-12",
				Category: "Coffee",
			}
			data, err := json.Marshal(inv)
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(MatchJSON(`{"merchant":"STARBUCKS","total":4.75,"date":"2024-05-12","category":"Coffee","rawText":null}`))
		})
	})

	Describe("UnmarshalJSON", func() {
		var (
			input string
			inv   ParsedInvoice
			err   error
		)

		JustBeforeEach(func() {
			inv = ParsedInvoice{}
			err = json.Unmarshal([]byte(input), &inv)
		})

		When("the total is a number", func() {
			BeforeEach(func() {
				input = `{"merchant":"Cafe","total":9.5}`
			})

			It("decodes the fields", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(inv.Merchant).To(Equal("Cafe"))
				Expect(inv.Total.Valid).To(BeTrue())
				Expect(inv.Total.Decimal.String()).To(Equal("9.5"))
			})
		})

		When("the total is a numeric string", func() {
			BeforeEach(func() {
				input = `{"total":"12.30"}`
			})

			It("decodes the total", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(inv.Total.Decimal.Equal(decimal.RequireFromString("12.3"))).To(BeTrue())
			})
		})

		When("the total is prose", func() {
			BeforeEach(func() {
				input = `{"total":"unknown","merchant":null}`
			})

			It("leaves the total absent", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(inv.Total.Valid).To(BeFalse())
				Expect(inv.Merchant).To(BeEmpty())
			})
		})

		When("the total has the wrong type", func() {
			BeforeEach(func() {
				input = `{"total":{"value":1}}`
			})

			It("returns an error", func() {
				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("HasFields", func() {
		It("is false for an empty invoice", func() {
			Expect(ParsedInvoice{RawText: "noise"}.HasFields()).To(BeFalse())
		})

		It("counts category for HasFields but not HasCoreFields", func() {
			inv := ParsedInvoice{Category: "Food"}
			Expect(inv.HasFields()).To(BeTrue())
			Expect(inv.HasCoreFields()).To(BeFalse())
		})
	})
})

var _ = Describe("Normalize", func() {
	It("keeps valid fields", func() {
		in := ParsedInvoice{
			Merchant: "  Blue   Bottle ",
			Total:    decimal.NewNullDecimal(decimal.RequireFromString("3.50")),
			Date:     "2024-02-29",
			Category: "coffee",
			RawText:  "raw",
		}
		out := Normalize(in)
		Expect(out.Merchant).To(Equal("Blue Bottle"))
		Expect(out.Total.Valid).To(BeTrue())
		Expect(out.Date).To(Equal("2024-02-29"))
		Expect(out.Category).To(Equal("Coffee"))
		Expect(out.RawText).To(Equal("raw"))
	})

	It("drops fields that break their invariants", func() {
		in := ParsedInvoice{
			Merchant: "1234",
			Total:    decimal.NewNullDecimal(decimal.Zero),
			Date:     "2023-02-29",
			Category: "Groceries",
		}
		out := Normalize(in)
		Expect(out.Merchant).To(BeEmpty())
		Expect(out.Total.Valid).To(BeFalse())
		Expect(out.Date).To(BeEmpty())
		Expect(out.Category).To(BeEmpty())
	})

	It("drops merchants that are too long", func() {
		in := ParsedInvoice{Merchant: "A very long merchant name that keeps going well past sixty characters"}
		Expect(Normalize(in).Merchant).To(BeEmpty())
	})

	It("does not modify its argument", func() {
		in := ParsedInvoice{Merchant: "x"}
		Normalize(in)
		Expect(in.Merchant).To(Equal("x"))
	})
})
