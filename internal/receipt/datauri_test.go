package receipt

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParseDataURI", func() {
	var (
		uri string
		img Image
		err error
	)

	JustBeforeEach(func() {
		img, err = ParseDataURI(uri)
	})

	When("the uri is well formed", func() {
		BeforeEach(func() {
			uri = "data:image/PNG;base64,aGVsbG8="
		})

		It("decodes the payload and media type", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(img.Data).To(Equal([]byte("hello")))
			Expect(img.MediaType).To(Equal(MediaTypePNG))
		})
	})

	When("the padding was stripped", func() {
		BeforeEach(func() {
			uri = "data:image/jpeg;base64,aGVsbG8"
		})

		It("still decodes", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(img.Data).To(Equal([]byte("hello")))
		})
	})

	When("the prefix is missing", func() {
		BeforeEach(func() {
			uri = "aGVsbG8="
		})

		It("returns ErrInvalidDataURI", func() {
			Expect(err).To(MatchError(ErrInvalidDataURI))
		})
	})

	When("the payload is not base64", func() {
		BeforeEach(func() {
			uri = "data:image/png,hello"
		})

		It("returns ErrInvalidDataURI", func() {
			Expect(err).To(MatchError(ErrInvalidDataURI))
		})
	})

	It("round trips through DataURI", func() {
		original := Image{Data: []byte{0xff, 0xd8, 0xff}, MediaType: "image/jpeg"}
		decoded, err := ParseDataURI(original.DataURI())
		Expect(err).NotTo(HaveOccurred())
		Expect(decoded).To(Equal(original))
	})
})

var _ = Describe("IsSupportedMediaType", func() {
	It("accepts the boundary media types", func() {
		Expect(IsSupportedMediaType("image/jpeg")).To(BeTrue())
		Expect(IsSupportedMediaType("IMAGE/PNG; charset=binary")).To(BeTrue())
		Expect(IsSupportedMediaType("image/webp")).To(BeTrue())
	})

	It("rejects others", func() {
		Expect(IsSupportedMediaType("text/plain")).To(BeFalse())
		Expect(IsSupportedMediaType("")).To(BeFalse())
	})
})
