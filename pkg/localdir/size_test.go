package localdir_test

import (
	"testing"

	. "github.com/onsi/gomega"
	"github.com/turbokube/fatmacho/pkg/localdir"
)

func TestNewSize(t *testing.T) {
	RegisterTestingT(t)

	s, err := localdir.NewSize("123")
	Expect(err).NotTo(HaveOccurred())
	Expect(s).To(Equal(123))

	s, err = localdir.NewSize("100Mi")
	Expect(err).NotTo(HaveOccurred())
	Expect(s).To(Equal(104857600))

	s, err = localdir.NewSize("1Gi")
	Expect(err).NotTo(HaveOccurred())
	Expect(s).To(Equal(1073741824))

	_, err = localdir.NewSize("123x")
	Expect(err).To(HaveOccurred())

	_, err = localdir.NewSize("100M")
	Expect(err).To(MatchError("maxSize supports bytes or Ki, Mi, Gi suffixes, got: 100M"))

	_, err = localdir.NewSize("-1")
	Expect(err).To(HaveOccurred())
}
