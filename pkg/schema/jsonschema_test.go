package schema_test

import (
	"testing"

	"github.com/invopop/jsonschema"
	. "github.com/onsi/gomega"
	v1 "github.com/turbokube/fatmacho/pkg/schema/v1"
)

func TestJsonschema(t *testing.T) {
	RegisterTestingT(t)

	s := jsonschema.Reflect(&v1.FatConfig{})
	Expect(s.Ref).To(Equal("#/$defs/FatConfig"))
	Expect(s.Definitions).To(HaveKey("FatConfig"))
	Expect(s.Definitions).NotTo(HaveKey("FatConfigStatus"))

	Expect(s.Definitions["LocalDir"].Required).To(Equal([]string{"path"}))
	Expect(s.Definitions["OCILayout"].Required).To(Equal([]string{"path"}))
	Expect(s.Definitions["OCIImage"].Required).To(Equal([]string{"ref"}))
	Expect(s.Definitions["Input"].Required).To(BeEmpty())

	env, ok := s.Definitions["OCI"].Properties.Get("env")
	Expect(ok).To(BeTrue())
	Expect(env.Type).To(Equal("array"))
}
